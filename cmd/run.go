package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/momentum-leads/rvprospector/internal/export"
	"github.com/momentum-leads/rvprospector/internal/pipeline"
)

var (
	runCaller        string
	runCallerName    string
	runLocation      string
	runNearMe        bool
	runTarget        int
	runIncludeChains bool
	runNoExport      bool
	runCSVPath       string
	runXLSXPath      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate today's lead list for a caller",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.Run(ctx, pipeline.RunRequest{
			Email:              runCaller,
			FullName:           runCallerName,
			Location:           runLocation,
			NearMe:             runNearMe,
			Requested:          runTarget,
			AvoidConglomerates: !runIncludeChains,
			Progress: func(msg string) {
				fmt.Println(msg)
			},
		})
		if err != nil {
			return err
		}

		fmt.Printf("run %s: %d new lead(s), %d checked, quota %s\n",
			res.RunID, len(res.Rows), res.Checked, res.QuotaStatus)
		for _, w := range res.Warnings {
			fmt.Printf("warning: %s\n", w)
		}

		if runNoExport {
			return nil
		}
		csvPath, xlsxPath := runCSVPath, runXLSXPath
		if csvPath == "" {
			csvPath = cfg.Export.CSVPath
		}
		if xlsxPath == "" {
			xlsxPath = cfg.Export.XLSXPath
		}
		if err := export.WriteCSV(csvPath, res.Merged); err != nil {
			return err
		}
		if err := export.WriteXLSX(xlsxPath, res.Merged); err != nil {
			return err
		}
		fmt.Printf("wrote %s and %s (%d rows)\n", csvPath, xlsxPath, len(res.Merged))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runCaller, "caller", "", "caller email (required)")
	runCmd.Flags().StringVar(&runCallerName, "name", "", "caller full name")
	runCmd.Flags().StringVar(&runLocation, "location", "", "text location bias (default from config)")
	runCmd.Flags().BoolVar(&runNearMe, "near-me", false, "resolve origin from the machine's IP")
	runCmd.Flags().IntVar(&runTarget, "target", 0, "leads to request (default daily limit)")
	runCmd.Flags().BoolVar(&runIncludeChains, "include-chains", false, "do not skip conglomerate-owned parks")
	runCmd.Flags().BoolVar(&runNoExport, "no-export", false, "skip writing csv/xlsx files")
	runCmd.Flags().StringVar(&runCSVPath, "csv", "", "csv output path (default from config)")
	runCmd.Flags().StringVar(&runXLSXPath, "xlsx", "", "xlsx output path (default from config)")
	runCmd.MarkFlagRequired("caller") //nolint:errcheck
	rootCmd.AddCommand(runCmd)
}
