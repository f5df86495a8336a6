package main

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/eternalApril/kilodb/internal/client"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure SET/GET throughput against a running server",
	RunE:  runBench,
}

func init() {
	flags := benchCmd.Flags()
	flags.String("addr", "127.0.0.1:6380", "server address")
	flags.Int("clients", 50, "number of parallel clients")
	flags.Int("requests", 100_000, "total number of SET+GET pairs")
	flags.Int("keyspace", 10_000, "number of distinct keys")
}

func runBench(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	addr, _ := flags.GetString("addr")
	clients, _ := flags.GetInt("clients")
	requests, _ := flags.GetInt("requests")
	keyspace, _ := flags.GetInt("keyspace")

	if clients <= 0 || requests <= 0 || keyspace <= 0 {
		return fmt.Errorf("clients, requests and keyspace must be positive")
	}

	ctx := cmd.Context()
	pool := client.NewPool(ctx, addr, clients)
	defer pool.Close(ctx)

	var next atomic.Int64
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < clients; w++ {
		g.Go(func() error {
			for {
				i := next.Add(1) - 1
				if i >= int64(requests) {
					return nil
				}

				key := "bench:" + strconv.FormatInt(i%int64(keyspace), 10)
				v, err := pool.Do(gctx, "SET", key, strconv.FormatInt(i, 10))
				if err != nil {
					return err
				}
				if err := client.ReplyError(v); err != nil {
					return err
				}

				if _, err := pool.Do(gctx, "GET", key); err != nil {
					return err
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	elapsed := time.Since(start)
	ops := float64(2*requests) / elapsed.Seconds()
	fmt.Fprintf(cmd.OutOrStdout(), "%d commands from %d clients in %s: %.0f ops/sec\n",
		2*requests, clients, elapsed.Round(time.Millisecond), ops)

	return nil
}
