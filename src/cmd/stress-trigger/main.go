package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"xshot/src/singleinstance"
)

type stressOptions struct {
	n        int
	deadline time.Duration
}

// tally counts how a resident answered concurrent capture triggers. With a
// single session at a time, at most one client per round should be accepted.
type tally struct {
	ok          int32
	busy        int32
	pending     int32
	notResident int32
	err         int32
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-trigger",
		Short:         "Stress test remote capture triggers against a resident",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := runWithOptions(*opts, singleinstance.NewClient)
			report(cmd.OutOrStdout(), opts.n, t)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout; an accepted session still open at the deadline counts as pending")

	return cmd
}

func runWithOptions(opts stressOptions, newClient func() singleinstance.Client) *tally {
	var wg sync.WaitGroup
	t := &tally{}

	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), opts.deadline)
			defer cancel()
			delegated, err := newClient().TryTrigger(ctx)
			switch {
			case !delegated && err == nil:
				atomic.AddInt32(&t.notResident, 1)
			case err == nil:
				atomic.AddInt32(&t.ok, 1)
			case errors.Is(err, context.DeadlineExceeded):
				atomic.AddInt32(&t.pending, 1)
			case strings.Contains(strings.ToLower(err.Error()), "busy"):
				atomic.AddInt32(&t.busy, 1)
			default:
				atomic.AddInt32(&t.err, 1)
			}
		}()
	}
	wg.Wait()
	return t
}

func report(w io.Writer, n int, t *tally) {
	fmt.Fprintf(w, "launched=%d ok=%d pending=%d busy=%d no-resident=%d err=%d\n",
		n, t.ok, t.pending, t.busy, t.notResident, t.err)
}
