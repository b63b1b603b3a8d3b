package kv

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nbkv/cmd/util"
	"nbkv/lib/bridge"
	"nbkv/lib/engine"
)

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

var (
	putCmd = &cobra.Command{
		Use:   "put [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := await(func(cb bridge.Callback) error {
				return db.Put(cb, []byte(args[0]), []byte(args[1]), util.GetSync())
			}); err != nil {
				return err
			}
			fmt.Println("put successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			res, err := await(func(cb bridge.Callback) error {
				return db.Get(cb, []byte(key), false, true)
			})
			if err != nil {
				return err
			}
			if res[0] == bridge.NotFound {
				fmt.Printf("key=%s, found=false\n", key)
			} else {
				fmt.Printf("key=%s, found=true, value=%s\n", key, res[0].(string))
			}
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := await(func(cb bridge.Callback) error {
				return db.Delete(cb, []byte(args[0]), util.GetSync())
			}); err != nil {
				return err
			}
			fmt.Println("delete successfully")
			return nil
		},
	}
	batchCmd = &cobra.Command{
		Use:   "batch [op]...",
		Short: "Applies multiple operations atomically",
		Long: util.WrapString("Applies multiple operations as one atomic batch. " +
			"Each argument is either put:KEY=VALUE or del:KEY. " +
			"Either every operation takes effect or none do."),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch := engine.NewBatch()
			for _, arg := range args {
				switch {
				case strings.HasPrefix(arg, "put:"):
					kv := strings.SplitN(strings.TrimPrefix(arg, "put:"), "=", 2)
					if len(kv) != 2 {
						return fmt.Errorf("invalid put operation %q (expected put:KEY=VALUE)", arg)
					}
					batch.Put([]byte(kv[0]), []byte(kv[1]))
				case strings.HasPrefix(arg, "del:"):
					batch.Delete([]byte(strings.TrimPrefix(arg, "del:")))
				default:
					return fmt.Errorf("invalid batch operation %q (expected put:KEY=VALUE or del:KEY)", arg)
				}
			}
			if _, err := await(func(cb bridge.Callback) error {
				return db.Write(cb, batch, util.GetSync())
			}); err != nil {
				return err
			}
			fmt.Printf("batch of %d operation(s) applied\n", len(args))
			return nil
		},
	}
	sizeCmd = &cobra.Command{
		Use:   "size [start] [limit]",
		Short: "Estimates the stored size of the key range [start, limit)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := await(func(cb bridge.Callback) error {
				return db.ApproximateSize(cb, []byte(args[0]), []byte(args[1]))
			})
			if err != nil {
				return err
			}
			fmt.Printf("range=[%s, %s), approximate size=%d bytes\n", args[0], args[1], res[0].(uint64))
			return nil
		},
	}
)
