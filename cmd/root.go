package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tgordon67/frac-focus/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "fracfocus",
	Short: "FracFocus disclosure analysis pipeline",
	Long:  "Normalizes FracFocus registry exports, computes per-disclosure proppant mass, allocates quantities to calendar quarters, classifies wells into basins, and writes quarterly rollups.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
