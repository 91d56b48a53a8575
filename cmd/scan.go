package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/govscope/govscope/internal/utils"
	"github.com/govscope/govscope/pkg/config"
	"github.com/govscope/govscope/pkg/harvest"
	"github.com/govscope/govscope/pkg/pipeline"
	"github.com/govscope/govscope/pkg/platform"
	"github.com/govscope/govscope/pkg/scoring"
	"github.com/govscope/govscope/pkg/storage"
	"github.com/govscope/govscope/pkg/violations"
)

// scanCmd runs a single harvest-and-score cycle and stores the result.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Harvest the platform, compute governance scores and store them",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromViper(viper.GetViper())
		if key, _ := cmd.Flags().GetString("key"); key != "" {
			cfg.API.Key = key
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		engine, err := scoring.NewEngine(cfg.Scoring)
		if err != nil {
			return err
		}

		client := platform.NewClient(platform.ClientConfig{
			BaseURL:           cfg.API.BaseURL,
			APIKey:            cfg.API.Key,
			RequestsPerMinute: cfg.API.RequestsPerMinute,
			TimeoutSeconds:    cfg.API.TimeoutSeconds,
			MaxRetries:        cfg.API.MaxRetries,
		})

		db, err := storage.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		var sink pipeline.Sink
		if !dryRun {
			sink = db
		}

		result, err := pipeline.Run(context.Background(), pipeline.Config{
			Harvester: harvest.New(client, cfg.Harvest),
			Engine:    engine,
			Detector:  violations.NewDetector(),
			Sink:      sink,
			Log:       utils.Log,
		})
		if err != nil {
			return err
		}

		s := result.Summary
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "DIMENSION\tSCORE\tCOVERAGE\tCOMPLIANT\tTOTAL\t")
		fmt.Fprintf(w, "documentation\t%.1f\t%.1f%%\t%d\t%d\t\n", s.Documentation.Score, s.Documentation.Coverage, s.Documentation.Compliant, s.Documentation.Total)
		fmt.Fprintf(w, "testing\t%.1f\t%.1f%%\t%d\t%d\t\n", s.Testing.Score, s.Testing.Coverage, s.Testing.Compliant, s.Testing.Total)
		fmt.Fprintf(w, "monitoring\t%.1f\t%.1f%%\t%d\t%d\t\n", s.Monitoring.Score, s.Monitoring.Coverage, s.Monitoring.Compliant, s.Monitoring.Total)
		fmt.Fprintf(w, "organization\t%.1f\t\t\t\t\n", s.Organization.Score)
		w.Flush()
		fmt.Printf("\nOverall governance score: %.1f\n", s.Overall)
		fmt.Printf("Violations: %d (users: %d, orphaned: %d)\n", len(result.Violations), s.Users.Total, s.Users.Orphaned)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringP("key", "k", "", "Platform API key (overrides config)")
	scanCmd.Flags().Bool("dry-run", false, "Compute scores without persisting them")
}
