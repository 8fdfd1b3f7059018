package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	AppName    = "imgvault"
	AppVersion = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:   AppName,
	Short: "Blog image ingestion, quota and lifecycle service",
	Long: `imgvault ingests and transforms blog images: it validates and
re-encodes uploads, crops profile avatars, enforces per-user quotas and
reclaims images that were never attached to a post.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
