package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/replay"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/pkg/logger"
)

// Default configuration constants.
const (
	defaultTastings    = 500
	defaultExperiences = 300
	defaultEvents      = 10000
	defaultInvalid     = 50
	defaultDuplicates  = 50
	defaultTimeout     = 30 * time.Second
	defaultDrainWait   = 2 * time.Minute
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Stderr.WriteString("replay failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &replay.Config{}
	var logLevel string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a random CRUD history against the analytics service and verify it",
		Long: `Generate a canonical dataset and a random history of change events,
reset and initialize the service with the dataset, submit the history over
HTTP in per-record lanes, drain the queue, then compare the served metrics
and distributions with a full rescan of the final records.

Examples:
  replay --url http://localhost:9080
  replay --events 50000 --workers 16 --seed 7`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return err
			}
			if err := logger.SetLevelString(logLevel); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
			defer cancel()

			_, err := replay.Run(ctx, cfg)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	f.IntVar(&cfg.Tastings, "tastings", defaultTastings, "tastings in the initial dataset")
	f.IntVar(&cfg.Experiences, "experiences", defaultExperiences, "experiences in the initial dataset")
	f.IntVar(&cfg.Events, "events", defaultEvents, "change events in the history")
	f.IntVar(&cfg.Invalid, "invalid", defaultInvalid, "extra events the engine must drop")
	f.IntVar(&cfg.Duplicates, "duplicates", defaultDuplicates, "accepted events to resubmit with the same id")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*2, "concurrent submission lanes")
	f.Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "generator seed")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.DrainWait, "drain-wait", defaultDrainWait, "upper bound for the final drain")
	f.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	return cmd
}
