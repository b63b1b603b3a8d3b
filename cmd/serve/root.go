package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"nbkv/cmd/util"
	"nbkv/lib/bridge"
	"nbkv/lib/httpapi"
	"nbkv/lib/logging"
)

var (
	// ServeCmd represents the serve command
	ServeCmd = &cobra.Command{
		Use:     "serve",
		Short:   "Start the nbkv server",
		Long:    `Start the nbkv HTTP server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is NBKV_<flag> (e.g. NBKV_ENDPOINT=0.0.0.0:9090)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// add flags
	util.SetupEngineFlags(ServeCmd)

	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", util.WrapString("The address on which the API will listen"))

	key = "shutdown-timeout"
	ServeCmd.PersistentFlags().Int(key, 10, util.WrapString("How long to wait for in-flight requests on shutdown (in seconds)"))
}

// processConfig binds the command line flags and applies the log level
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	return util.ConfigureLogging()
}

// run starts the nbkv server
func run(_ *cobra.Command, _ []string) error {
	log := logging.GetLogger("serve")

	// create the engine behind a fresh dispatcher
	eng, err := util.NewEngine()
	if err != nil {
		return err
	}

	dispatcher := bridge.NewDispatcher(util.GetWorkers())
	defer dispatcher.Close()

	db := bridge.NewDB(eng, dispatcher)
	if _, err := await(func(cb bridge.Callback) error {
		return db.Open(cb, util.GetEngineOptions())
	}); err != nil {
		return err
	}

	server := httpapi.NewServer(db, viper.GetString("endpoint"))

	// serve until SIGINT/SIGTERM
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Infof("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(viper.GetInt("shutdown-timeout"))*time.Second,
	)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return err
	}

	// close the store after the last request has drained
	_, err = await(db.Close)
	return err
}

// await submits one async operation and blocks until its callback fires.
func await(submit func(bridge.Callback) error) ([]interface{}, error) {
	type result struct {
		err  error
		args []interface{}
	}
	ch := make(chan result, 1)
	err := submit(func(err error, args ...interface{}) {
		ch <- result{err: err, args: args}
	})
	if err != nil {
		return nil, err
	}
	res := <-ch
	return res.args, res.err
}
