package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/recall/internal/model"
	"github.com/rcliao/recall/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search memories by keyword",
		Long:  "Case-insensitive substring search over memory text and summaries. Without a query every memory matches.",
		Run:   runSearch,
	}

	cmd.Flags().StringP("tags", "t", "", "Require all of these tags (comma-separated)")
	cmd.Flags().IntP("limit", "l", store.DefaultSearchLimit, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	tagsStr, _ := cmd.Flags().GetString("tags")
	limit, _ := cmd.Flags().GetInt("limit")

	svc := openService(cmd)
	defer svc.Close()

	results, err := svc.Search(cmd.Context(), store.SearchParams{
		Query: strings.Join(args, " "),
		Tags:  model.ParseTags(tagsStr),
		Limit: limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	printMemories(cmd, results)
}
