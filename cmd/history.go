package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/stock-metadata/internal/config"
	"github.com/kozaktomas/stock-metadata/internal/stockcsv"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List or export saved runs",
	Long: `List runs saved in the run history database (DATABASE_URL), or export one
of them back to CSV.

Examples:
  # Show the 20 most recent runs
  stock-metadata history

  # Write a saved run to a CSV file
  stock-metadata history 0b6f3c1e-... --output batch.csv

  # Remove a run
  stock-metadata history 0b6f3c1e-... --delete`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int("limit", 20, "Number of runs to list (0 = all)")
	historyCmd.Flags().String("output", "", "Output CSV path when exporting (default generated_metadata_<rows>.csv)")
	historyCmd.Flags().Bool("delete", false, "Delete the given run instead of exporting it")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.Database.Backend() == config.DriverMemory {
		return errors.New("DATABASE_URL environment variable is required for run history")
	}

	ctx := context.Background()
	store, err := openRunStore(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer store.Close()

	if len(args) == 0 {
		runs, err := store.ListRuns(ctx, mustGetInt(cmd, "limit"))
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No saved runs")
			return nil
		}
		for _, r := range runs {
			status := ""
			if r.Cancelled {
				status = " (cancelled)"
			}
			fmt.Printf("%s  %s  %3d/%-3d %-9s %s  %q%s\n",
				r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"),
				r.Rows, r.Requested, r.Strategy, r.Mode, r.Subject, status)
		}
		return nil
	}

	runID := args[0]
	if mustGetBool(cmd, "delete") {
		deleted, err := store.DeleteRun(ctx, runID)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("run not found: %s", runID)
		}
		fmt.Printf("Deleted run %s\n", runID)
		return nil
	}

	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run not found: %s", runID)
	}

	output := mustGetString(cmd, "output")
	if output == "" {
		output = stockcsv.DefaultFileName(len(run.Records))
	}
	if err := stockcsv.WriteFile(output, run.Records); err != nil {
		return err
	}
	fmt.Printf("Wrote %d rows to %s\n", len(run.Records), output)
	return nil
}
