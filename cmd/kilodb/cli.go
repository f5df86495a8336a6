package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var cliCmd = &cobra.Command{
	Use:   "cli [flags] COMMAND [ARG...]",
	Short: "Send one command to a server and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCLI,
}

func init() {
	cliCmd.Flags().String("addr", "127.0.0.1:6380", "server address")
	cliCmd.Flags().Duration("timeout", 5*time.Second, "time to wait for the reply")
}

func runCLI(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	rdb := redis.NewClient(&redis.Options{
		Addr:            addr,
		Protocol:        2,
		DisableIdentity: true,
		ReadTimeout:     timeout,
		WriteTimeout:    timeout,
	})
	defer rdb.Close() //nolint:errcheck

	cmdArgs := make([]any, len(args))
	for i, a := range args {
		cmdArgs[i] = a
	}

	reply, err := rdb.Do(cmd.Context(), cmdArgs...).Result()
	switch {
	case errors.Is(err, redis.Nil):
		reply, err = nil, nil
	case err != nil:
		var replyErr redis.Error
		if !errors.As(err, &replyErr) {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "(error) %s\n", err)
		return nil
	}

	writeReply(cmd.OutOrStdout(), reply, "")
	return nil
}

// writeReply prints a decoded reply the way redis-cli does
func writeReply(w io.Writer, reply any, indent string) {
	switch v := reply.(type) {
	case nil:
		fmt.Fprintln(w, "(nil)")
	case int64:
		fmt.Fprintf(w, "(integer) %d\n", v)
	case string:
		fmt.Fprintf(w, "%q\n", v)
	case []any:
		if len(v) == 0 {
			fmt.Fprintln(w, "(empty array)")
			return
		}
		width := len(fmt.Sprint(len(v)))
		for i, el := range v {
			prefix := fmt.Sprintf("%*d) ", width, i+1)
			if i > 0 {
				fmt.Fprint(w, indent)
			}
			fmt.Fprint(w, prefix)
			writeReply(w, el, indent+strings.Repeat(" ", len(prefix)))
		}
	default:
		fmt.Fprintf(w, "%v\n", v)
	}
}
