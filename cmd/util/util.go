package util

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"nbkv/lib/engine"
	"nbkv/lib/engine/badger"
	"nbkv/lib/engine/memory"
	"nbkv/lib/engine/pebble"
	"nbkv/lib/logging"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("nbkv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// SetupEngineFlags adds common storage engine flags to a command
func SetupEngineFlags(cmd *cobra.Command) {
	key := "engine"
	cmd.PersistentFlags().String(key, "pebble", WrapString("The storage engine to use (pebble, badger, memory)"))

	key = "path"
	cmd.PersistentFlags().String(key, "data", WrapString("The directory holding the store files (ignored for the memory engine)"))

	key = "workers"
	cmd.PersistentFlags().Int(key, 0, WrapString("Number of background worker goroutines (0 = number of CPUs)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "info", WrapString("The level at which logs will be output (debug, info, warn, error)"))

	key = "sync"
	cmd.PersistentFlags().Bool(key, false, WrapString("Whether writes should be flushed to stable storage before completing"))

	key = "cache-size"
	cmd.PersistentFlags().Int64(key, 8<<20, WrapString("Block cache capacity in bytes"))

	key = "filter-bits"
	cmd.PersistentFlags().Int(key, 10, WrapString("Bloom filter bits per key (0 disables the filter)"))

	key = "create-if-missing"
	cmd.PersistentFlags().Bool(key, true, WrapString("Create the store on first open"))

	key = "error-if-exists"
	cmd.PersistentFlags().Bool(key, false, WrapString("Fail opening if the store already exists"))

	key = "compression"
	cmd.PersistentFlags().Bool(key, true, WrapString("Enable snappy block compression"))

	key = "write-buffer-size"
	cmd.PersistentFlags().Int(key, 4<<20, WrapString("Memtable size in bytes"))

	key = "block-size"
	cmd.PersistentFlags().Int(key, 4096, WrapString("Uncompressed data block size in bytes"))

	key = "max-open-files"
	cmd.PersistentFlags().Int(key, 1000, WrapString("Max number of files the engine keeps open"))

	key = "block-restart-interval"
	cmd.PersistentFlags().Int(key, 16, WrapString("Number of keys between restart points for delta encoding"))
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetEngineOptions reads engine options from viper
func GetEngineOptions() engine.Options {
	return engine.Options{
		CacheSize:            viper.GetInt64("cache-size"),
		FilterBits:           viper.GetInt("filter-bits"),
		CreateIfMissing:      viper.GetBool("create-if-missing"),
		ErrorIfExists:        viper.GetBool("error-if-exists"),
		Compression:          viper.GetBool("compression"),
		WriteBufferSize:      viper.GetInt("write-buffer-size"),
		BlockSize:            viper.GetInt("block-size"),
		MaxOpenFiles:         viper.GetInt("max-open-files"),
		BlockRestartInterval: viper.GetInt("block-restart-interval"),
	}
}

// NewEngine creates an engine based on configuration
func NewEngine() (engine.Engine, error) {
	switch engine.Implementation(viper.GetString("engine")) {
	case engine.ImplPebble:
		return pebble.New(viper.GetString("path")), nil
	case engine.ImplBadger:
		return badger.New(viper.GetString("path")), nil
	case engine.ImplMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("invalid engine %s", viper.GetString("engine"))
	}
}

// GetWorkers retrieves the configured worker count
func GetWorkers() int {
	return viper.GetInt("workers")
}

// GetSync retrieves the configured write durability setting
func GetSync() bool {
	return viper.GetBool("sync")
}

// ConfigureLogging applies the configured log level to all loggers
func ConfigureLogging() error {
	level, err := logging.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return err
	}
	logging.SetDefaultLevel(level)
	return nil
}
