package kv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"nbkv/cmd/util"
	"nbkv/lib/bridge"
)

var (
	benchCmd = &cobra.Command{
		Use:     "bench",
		Short:   "Benchmarking tool for the local store",
		PreRunE: processBenchConfig,
		RunE:    runBench,
	}
	benchKeyPrefix   = "__bench"
	benchOps         = 10000
	benchValueSize   = 100
	benchConcurrency = 10
	benchKeySpread   = 100
)

func init() {
	// add flags
	key := "ops"
	benchCmd.Flags().Int(key, 10000, util.WrapString("Number of operations per benchmark"))
	key = "value-size"
	benchCmd.Flags().Int(key, 100, util.WrapString("Size of the values in bytes"))
	key = "concurrency"
	benchCmd.Flags().Int(key, 10, util.WrapString("Number of concurrent submitters"))
	key = "keys"
	benchCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use"))
	key = "csv"
	benchCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processBenchConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	benchOps = viper.GetInt("ops")
	benchValueSize = viper.GetInt("value-size")
	benchConcurrency = viper.GetInt("concurrency")
	benchKeySpread = viper.GetInt("keys")

	return nil
}

func runBench(_ *cobra.Command, _ []string) error {
	fmt.Println("Benchmarking tool for the local store")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Printf("Engine:      %s\n", viper.GetString("engine"))
	fmt.Printf("Operations:  %d\n", benchOps)
	fmt.Printf("Value size:  %d bytes\n", benchValueSize)
	fmt.Printf("Concurrency: %d\n", benchConcurrency)
	fmt.Println()

	value := make([]byte, benchValueSize)
	registry := gometrics.NewRegistry()

	// put
	putTimer := gometrics.GetOrRegisterTimer("put", registry)
	runBenchOps(putTimer, func(i int, cb bridge.Callback) error {
		return db.Put(cb, benchKey(i), value, util.GetSync())
	})
	printTimer("put", putTimer)

	// get
	getTimer := gometrics.GetOrRegisterTimer("get", registry)
	runBenchOps(getTimer, func(i int, cb bridge.Callback) error {
		return db.Get(cb, benchKey(i), true, true)
	})
	printTimer("get", getTimer)

	// get-miss
	getMissTimer := gometrics.GetOrRegisterTimer("get-miss", registry)
	runBenchOps(getMissTimer, func(i int, cb bridge.Callback) error {
		return db.Get(cb, []byte(fmt.Sprintf("%s-missing-%d", benchKeyPrefix, i)), true, true)
	})
	printTimer("get-miss", getMissTimer)

	// delete
	delTimer := gometrics.GetOrRegisterTimer("delete", registry)
	runBenchOps(delTimer, func(i int, cb bridge.Callback) error {
		return db.Delete(cb, benchKey(i), util.GetSync())
	})
	printTimer("delete", delTimer)

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeBenchCSV(csvPath, registry); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func benchKey(i int) []byte {
	return []byte(fmt.Sprintf("%s-%d", benchKeyPrefix, i%benchKeySpread))
}

// runBenchOps submits benchOps operations from benchConcurrency goroutines
// and times each submit-to-callback round trip. The remainder of
// ops/concurrency is spread over the first goroutines so exactly benchOps
// operations run.
func runBenchOps(timer gometrics.Timer, op func(int, bridge.Callback) error) {
	var wg sync.WaitGroup
	perWorker := benchOps / benchConcurrency
	remainder := benchOps % benchConcurrency

	offset := 0
	for w := 0; w < benchConcurrency; w++ {
		count := perWorker
		if w < remainder {
			count++
		}
		wg.Add(1)
		go func(offset, count int) {
			defer wg.Done()
			for i := 0; i < count; i++ {
				start := time.Now()
				if _, err := await(func(cb bridge.Callback) error {
					return op(offset+i, cb)
				}); err != nil {
					fmt.Printf("benchmark operation failed: %v\n", err)
					return
				}
				timer.UpdateSince(start)
			}
		}(offset, count)
		offset += count
	}

	wg.Wait()
}

func printTimer(name string, t gometrics.Timer) {
	if t.Count() == 0 {
		fmt.Printf("%-10sskipped\n", name)
		return
	}

	opsPerSec := float64(time.Second) / t.Mean()
	fmt.Printf("%-10smean=%-12s p99=%-12s %.0f ops/sec\n",
		name,
		time.Duration(t.Mean()),
		time.Duration(t.Percentile(0.99)),
		opsPerSec,
	)
}

// writeBenchCSV writes benchmark results to a CSV file
func writeBenchCSV(csvPath string, registry gometrics.Registry) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "Count", "MeanNs", "P50Ns", "P99Ns", "OpsPerSec",
		"Engine", "ValueSize", "Concurrency", "Keys",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	var writeErr error
	registry.Each(func(name string, metric interface{}) {
		t, ok := metric.(gometrics.Timer)
		if !ok || writeErr != nil {
			return
		}
		row := []string{
			name,
			strconv.FormatInt(t.Count(), 10),
			fmt.Sprintf("%.0f", t.Mean()),
			fmt.Sprintf("%.0f", t.Percentile(0.5)),
			fmt.Sprintf("%.0f", t.Percentile(0.99)),
			fmt.Sprintf("%.0f", float64(time.Second)/t.Mean()),
			viper.GetString("engine"),
			strconv.Itoa(benchValueSize),
			strconv.Itoa(benchConcurrency),
			strconv.Itoa(benchKeySpread),
		}
		if err := writer.Write(row); err != nil {
			writeErr = fmt.Errorf("failed to write row for test %s: %v", name, err)
		}
	})

	return writeErr
}
