package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var quotaReportCmd = &cobra.Command{
	Use:   "quota-report",
	Short: "Report image quota usage per user",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		all, _ := cmd.Flags().GetBool("all")

		if owner == "" && !all {
			return fmt.Errorf("either --owner or --all is required")
		}
		return runQuotaReport(owner, all)
	},
}

func init() {
	rootCmd.AddCommand(quotaReportCmd)
	quotaReportCmd.Flags().String("owner", "", "Report a single user")
	quotaReportCmd.Flags().Bool("all", false, "Report every user with stored images")
}

func runQuotaReport(owner string, all bool) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()

	owners := []string{owner}
	if all {
		owners, err = a.repo.Owners(ctx)
		if err != nil {
			return fmt.Errorf("failed to list owners: %w", err)
		}
		sort.Strings(owners)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tIMAGES\tSTORAGE\tSTATUS")

	for _, o := range owners {
		snapshot, err := a.quota.Snapshot(ctx, o)
		if err != nil {
			return fmt.Errorf("failed to read usage for %s: %w", o, err)
		}

		resp := snapshot.ToQuotaResponse(a.cfg.Quota.MaxImagesPerUser, a.cfg.Quota.MaxStorageBytes)

		status := "OK"
		if resp.ImageCount >= resp.MaxImages || resp.TotalBytes >= resp.MaxBytes {
			status = "LIMIT REACHED"
		}

		fmt.Fprintf(w, "%s\t%d/%d (%.1f%%)\t%s/%s (%.1f%%)\t%s\n",
			o,
			resp.ImageCount, resp.MaxImages, resp.ImagePercent,
			formatBytes(resp.TotalBytes), formatBytes(resp.MaxBytes), resp.StoragePercent,
			status)
	}

	return w.Flush()
}

// formatBytes renders a byte count in a human-readable unit
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(n)/float64(div), "KMGTPE"[exp])
}
