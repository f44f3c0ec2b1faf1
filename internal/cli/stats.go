package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	svc := openService(cmd)
	defer svc.Close()

	stats, err := svc.Stats(cmd.Context())
	if err != nil {
		exitErr("stats", err)
	}

	if !textFormat() {
		printJSON(cmd, stats)
		return
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "memories: %d\nuses:     %d\n", stats.TotalMemories, stats.TotalUses)
	for _, t := range stats.Tags {
		fmt.Fprintf(w, "  #%s: %d\n", t.Tag, t.Count)
	}
	if stats.DanglingIndexEntries > 0 || stats.MissingIndexEntries > 0 {
		fmt.Fprintf(w, "tag index out of sync (%d dangling, %d missing), run `recall reindex`\n",
			stats.DanglingIndexEntries, stats.MissingIndexEntries)
	}
}
