package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	historyCaller string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a caller's park evaluation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		records, err := env.Store.ListHistory(ctx, historyCaller, historyLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PARK\tCITY\tSTATE\tPADS\tTIMES\tLAST SUGGESTED")
		for _, r := range records {
			last := "-"
			if r.LastSuggestedOn != nil {
				last = r.LastSuggestedOn.Format("2006-01-02")
			}
			pads := "-"
			if r.PadCountLastKnown > 0 {
				pads = fmt.Sprintf("%d", r.PadCountLastKnown)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				r.Name, r.City, r.State, pads, r.TimesSuggested, last)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyCaller, "caller", "", "caller email (required)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "max rows to show")
	historyCmd.MarkFlagRequired("caller") //nolint:errcheck
	rootCmd.AddCommand(historyCmd)
}
