package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/talentmatch/messaging-service/internal/messenger"
	"github.com/talentmatch/messaging-service/internal/tui"
)

func init() {
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(demoCmd)
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive client",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}
		return runInteractive(cmd.Context(), func(ctx context.Context, logger messenger.Logger, opts ...messenger.Option) (*backend, error) {
			return openBackend(ctx, p, logger, opts...)
		})
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Open the interactive client on seeded demo data",
	Long:  "Runs the interactive client on an in-memory store with demo conversations.\nThe other participants answer automatically.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context(), func(ctx context.Context, logger messenger.Logger, opts ...messenger.Option) (*backend, error) {
			return openDemoBackend(ctx, identityFlag, logger, opts...)
		})
	},
}

type backendFactory func(ctx context.Context, logger messenger.Logger, opts ...messenger.Option) (*backend, error)

func runInteractive(parent context.Context, open backendFactory) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dir, err := profileDir()
	if err != nil {
		return err
	}
	logFile, err := tea.LogToFile(filepath.Join(dir, "chat.log"), "chat")
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close() //nolint:errcheck // .

	relay := tui.NewRelay()
	b, err := open(ctx, cliLogger{verbose: verboseFlag}, messenger.WithObserver(relay))
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.session.Start(ctx); err != nil {
		return err
	}

	return tui.Run(ctx, b.session, relay)
}
