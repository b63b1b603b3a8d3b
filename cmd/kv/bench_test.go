package kv

import (
	"sync/atomic"
	"testing"

	gometrics "github.com/rcrowley/go-metrics"

	"nbkv/lib/bridge"
)

// TestRunBenchOpsCountExact checks that the configured operation count is hit
// exactly, including when it does not divide evenly across the submitters.
func TestRunBenchOpsCountExact(t *testing.T) {
	savedOps, savedConcurrency := benchOps, benchConcurrency
	defer func() { benchOps, benchConcurrency = savedOps, savedConcurrency }()

	tests := []struct {
		name        string
		ops         int
		concurrency int
	}{
		{"even split", 100, 10},
		{"with remainder", 105, 10},
		{"fewer ops than submitters", 3, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			benchOps = tt.ops
			benchConcurrency = tt.concurrency

			var count atomic.Int64
			timer := gometrics.NewTimer()
			runBenchOps(timer, func(_ int, cb bridge.Callback) error {
				count.Add(1)
				cb(nil)
				return nil
			})

			if got := count.Load(); got != int64(tt.ops) {
				t.Errorf("expected %d operations, got %d", tt.ops, got)
			}
			if timer.Count() != int64(tt.ops) {
				t.Errorf("expected %d timed operations, got %d", tt.ops, timer.Count())
			}
		})
	}
}
