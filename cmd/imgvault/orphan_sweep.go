package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var orphanSweepCmd = &cobra.Command{
	Use:   "orphan-sweep",
	Short: "Reclaim content images never attached to a post",
	RunE: func(cmd *cobra.Command, args []string) error {
		hours, _ := cmd.Flags().GetInt("hours")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		return runOrphanSweep(hours, dryRun)
	},
}

func init() {
	rootCmd.AddCommand(orphanSweepCmd)
	orphanSweepCmd.Flags().Int("hours", 0, "Retention threshold in hours (default: configured retention)")
	orphanSweepCmd.Flags().Bool("dry-run", false, "Report candidates without deleting anything")
}

func runOrphanSweep(hours int, dryRun bool) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	threshold := time.Duration(hours) * time.Hour

	report, err := a.lifecycle.Sweep(context.Background(), threshold, dryRun)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	if dryRun {
		fmt.Printf("dry run: %d orphaned images older than %s would be deleted\n",
			len(report.Candidates), report.Cutoff.Format(time.RFC3339))
		for _, c := range report.Candidates {
			fmt.Printf("  - %s (uploaded by %s, %s, age %s)\n",
				c.OriginalFilename, c.Owner, formatBytes(c.Size),
				time.Since(c.CreatedAt).Round(time.Minute))
		}
		return nil
	}

	fmt.Printf("deleted %d of %d orphaned images (%s freed, %d failed)\n",
		report.Deleted, len(report.Candidates), formatBytes(report.BytesFreed), report.Failed)
	return nil
}
