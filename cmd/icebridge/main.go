package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brightloom/icebridge/server/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.SetupLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	if err := rootCmd(cfg, logger).Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:     "icebridge",
		Short:   "Move data between relational sources and Iceberg tables",
		Version: "0.1.0",
	}

	root.AddCommand(
		newTransferCommand(cfg, logger),
		newTableCommand(cfg, logger),
	)
	return root
}
