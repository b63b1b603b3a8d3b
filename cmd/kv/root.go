package kv

import (
	"github.com/spf13/cobra"

	"nbkv/cmd/util"
	"nbkv/lib/bridge"
)

var (
	db         *bridge.DB
	dispatcher *bridge.Dispatcher

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform key-value operations on a local store",
		PersistentPreRunE:  setupDB,
		PersistentPostRunE: teardownDB,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common engine flags to the KV command
	util.SetupEngineFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(putCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(batchCmd)
	KeyValueCommands.AddCommand(sizeCmd)
	KeyValueCommands.AddCommand(benchCmd)
}

// setupDB opens the configured engine behind a fresh dispatcher
func setupDB(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	if err := util.ConfigureLogging(); err != nil {
		return err
	}

	// Create the engine
	eng, err := util.NewEngine()
	if err != nil {
		return err
	}

	dispatcher = bridge.NewDispatcher(util.GetWorkers())
	db = bridge.NewDB(eng, dispatcher)

	// Open is asynchronous like every other operation; wait for it here so
	// the subcommands start from an open handle.
	_, err = await(func(cb bridge.Callback) error {
		return db.Open(cb, util.GetEngineOptions())
	})
	return err
}

// teardownDB closes the engine and shuts down the dispatcher
func teardownDB(_ *cobra.Command, _ []string) error {
	_, err := await(db.Close)
	dispatcher.Close()
	return err
}
