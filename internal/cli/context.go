package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/recall/internal/service"
	"github.com/rcliao/recall/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context [query]",
		Short: "Assemble relevant memories into a prompt context",
		Long: "Rank every memory against the query by keyword overlap, importance and recency, " +
			"then render the top ones under the configured system prompt.",
		Run: runContext,
	}

	cmd.Flags().String("domain", "", "Domain shown in the context header")
	cmd.Flags().IntP("max-items", "m", 0, "Max memories to include (default from config)")
	cmd.Flags().Bool("touch", false, "Record a use of every included memory")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	domain, _ := cmd.Flags().GetString("domain")
	maxItems, _ := cmd.Flags().GetInt("max-items")
	touch, _ := cmd.Flags().GetBool("touch")

	svc := openService(cmd)
	defer svc.Close()

	resp := svc.GetAssembledContext(cmd.Context(), store.AssembleParams{
		Query:         strings.Join(args, " "),
		Domain:        domain,
		MaxItems:      maxItems,
		TouchIncluded: touch,
	})
	if resp.Status != service.StatusOK {
		exitErr("context", fmt.Errorf("%s", resp.Error))
	}

	if textFormat() {
		fmt.Fprintln(cmd.OutOrStdout(), resp.FinalContext)
		return
	}
	printJSON(cmd, resp)
}
