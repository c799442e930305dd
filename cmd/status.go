package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCaller string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a caller's remaining daily allowance",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		unlimited, err := env.Store.IsUnlimited(ctx, statusCaller)
		if err != nil {
			return err
		}
		if unlimited {
			fmt.Printf("%s: unlimited account, no daily cap\n", statusCaller)
			return nil
		}

		used, err := env.Store.LeadsUsedToday(ctx, statusCaller, time.Now())
		if err != nil {
			return err
		}
		remaining := cfg.Quota.DailyLimit - used
		if remaining < 0 {
			remaining = 0
		}
		fmt.Printf("%s: %d of %d leads used today, %d remaining\n",
			statusCaller, used, cfg.Quota.DailyLimit, remaining)
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusCaller, "caller", "", "caller email (required)")
	statusCmd.MarkFlagRequired("caller") //nolint:errcheck
	rootCmd.AddCommand(statusCmd)
}
