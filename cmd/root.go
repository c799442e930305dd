package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/momentum-leads/rvprospector/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "rvprospector",
	Short: "Daily RV park lead discovery",
	Long:  "Searches a places directory for independent RV parks, screens out online-booking operations and chains, and maintains a per-caller daily lead list.",
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
