package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "hotelctl",
		Short:         "Hotel site maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "path to config.yaml (default $CONFIG_PATH or configs/config.yaml)")

	rootCmd.AddCommand(
		SeedRoomsCmd(),
		AvailabilityCmd(),
		QuoteCmd(),
		ExportCmd(),
		BackupCmd(),
		SheetsCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
