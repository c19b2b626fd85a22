package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/critter/config"
)

// newRootCmd builds the CLI; env values become flag defaults
func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "critter",
		Short: "A small creature that lives in your terminal",
		Long: `critter shows an idle sprite that reacts when you tap it.

Keys: any key or click taps, m mutes, +/- change volume, r resets, q quits.
Settings come from CRITTER_* environment variables and the flags below.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), cfg)
		},
	}
	cfg.BindFlags(root.PersistentFlags())

	play := &cobra.Command{
		Use:   "play",
		Short: "Run the critter in this terminal (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), cfg)
		},
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the asset set, status and metrics over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}
	serve.Flags().StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "address to listen on")

	probe := &cobra.Command{
		Use:   "probe",
		Short: "Report the audio setup and play a test tone",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	sync := &cobra.Command{
		Use:   "sync",
		Short: "Copy remote assets into the offline cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	root.AddCommand(play, serve, probe, sync)
	return root
}

// Execute runs the CLI with signal-aware cancellation
func Execute() int {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("critter: " + err.Error() + "\n")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
