package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/recall/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memories",
		Long:  "List every memory (oldest first), the memories of one domain, or those carrying a tag (most recently used first).",
		Run:   runList,
	}

	cmd.Flags().String("domain", "", "Only memories captured on this domain")
	cmd.Flags().String("tag", "", "Only memories carrying this tag")
	cmd.Flags().Bool("ids-only", false, "Only output ids")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	domain, _ := cmd.Flags().GetString("domain")
	tag, _ := cmd.Flags().GetString("tag")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	if domain != "" && tag != "" {
		exitErr("list", fmt.Errorf("--domain and --tag are mutually exclusive"))
	}

	svc := openService(cmd)
	defer svc.Close()

	var (
		memories []model.Memory
		err      error
	)
	switch {
	case domain != "":
		memories, err = svc.ListByDomain(cmd.Context(), domain)
	case tag != "":
		memories, err = svc.ListByTag(cmd.Context(), tag)
	default:
		memories, err = svc.ListMemories(cmd.Context())
	}
	if err != nil {
		exitErr("list", err)
	}

	if idsOnly {
		for _, m := range memories {
			fmt.Fprintln(cmd.OutOrStdout(), m.ID)
		}
		return
	}
	printMemories(cmd, memories)
}
