package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "List tags with their memory counts",
		Run:   runTags,
	}
	reindexCmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the tag index from the stored memories",
		Run:   runReindex,
	}

	RootCmd.AddCommand(tagsCmd, reindexCmd)
}

func runTags(cmd *cobra.Command, args []string) {
	svc := openService(cmd)
	defer svc.Close()

	stats, err := svc.Stats(cmd.Context())
	if err != nil {
		exitErr("tags", err)
	}

	if !textFormat() {
		printJSON(cmd, stats.Tags)
		return
	}
	for _, t := range stats.Tags {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", t.Tag, t.Count)
	}
}

func runReindex(cmd *cobra.Command, args []string) {
	svc := openService(cmd)
	defer svc.Close()

	if err := svc.Reindex(cmd.Context()); err != nil {
		exitErr("reindex", err)
	}

	printJSON(cmd, map[string]interface{}{"ok": true})
}
