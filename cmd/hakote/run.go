package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Hakote/Hakote/internal/app"
	"github.com/Hakote/Hakote/internal/calendar"
	"github.com/Hakote/Hakote/internal/engine"
)

func init() {
	var (
		dryRun bool
		date   string
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Perform one daily send and print the summary",
		Long: `Perform one daily send and print the summary as JSON.

With --dry-run nothing is sent and no delivery or progress is written.
--date pins the day (YYYY-MM-DD) the run acts on.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if date != "" {
				if _, ok := calendar.ParseOverride(date, calendar.Default().Location()); !ok {
					return fmt.Errorf("invalid --date %q", date)
				}
			}

			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.RunOnce(cmd.Context(), dryRun, date)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result)
		},
	}
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "simulate the run without sending or writing")
	runCmd.Flags().StringVar(&date, "date", "", "run as if today were this date (YYYY-MM-DD)")
	rootCmd.AddCommand(runCmd)
}

func printResult(w io.Writer, result *engine.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
