package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/govscope/govscope/pkg/storage"
)

// reportCmd prints the most recent stored scoring cycle.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the scores and violations of the last stored run",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := viper.GetString("dbpath")
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("database not found: %s (run 'govscope scan' first)", dbPath)
		}

		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		run, err := db.LatestRun(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				fmt.Println("No runs stored yet.")
				return nil
			}
			return err
		}

		fmt.Printf("Run %s (%s, %d requests, %d partial failures)\n\n",
			run.RunID, run.FinishedAt.Format("2006-01-02 15:04"), run.Requests, run.PartialFailures)

		dims, err := db.ListDimensions(ctx, run.RunID)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "DIMENSION\tSCORE\tCOVERAGE\t")
		for _, d := range dims {
			fmt.Fprintf(w, "%s\t%.1f\t%.1f%%\t\n", d.Dimension, d.Score, d.Coverage)
		}
		w.Flush()
		fmt.Printf("\nOverall: %.1f\tUsers: %d (%d orphaned)\n", run.Overall, run.TotalUsers, run.OrphanedUsers)

		vs, err := db.ListViolations(ctx, run.RunID)
		if err != nil {
			return err
		}
		if len(vs) == 0 {
			fmt.Println("\nNo violations. Nice.")
			return nil
		}

		fmt.Printf("\n%d violations:\n", len(vs))
		vw := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(vw, "TYPE\tENTITY\tADMIN\tDETAIL")
		for _, v := range vs {
			fmt.Fprintf(vw, "%s\t%s\t%s <%s>\t%s\n", v.Type, v.EntityName, v.AdminName, v.AdminEmail, v.Detail)
		}
		return vw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
