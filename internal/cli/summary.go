package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Read or record the last chat summary of a domain",
	}

	getCmd := &cobra.Command{
		Use:   "get <domain>",
		Short: "Show the summary recorded for a domain",
		Args:  cobra.ExactArgs(1),
		Run:   runSummaryGet,
	}
	setCmd := &cobra.Command{
		Use:   "set <domain> [text]",
		Short: "Record the summary for a domain",
		Long:  "Record the summary for a domain. Text can follow the domain or be piped via stdin.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSummarySet,
	}

	summaryCmd.AddCommand(getCmd, setCmd)
	RootCmd.AddCommand(summaryCmd)
}

func runSummaryGet(cmd *cobra.Command, args []string) {
	svc := openService(cmd)
	defer svc.Close()

	sum, err := svc.GetSummary(cmd.Context(), args[0])
	if err != nil {
		exitErr("summary get", err)
	}

	if textFormat() {
		fmt.Fprintln(cmd.OutOrStdout(), sum.LastSummary)
		return
	}
	printJSON(cmd, sum)
}

func runSummarySet(cmd *cobra.Command, args []string) {
	text := strings.TrimSpace(readText(args[1:]))
	if text == "" {
		exitErr("summary set", fmt.Errorf("text is required (positional arg or stdin)"))
	}

	svc := openService(cmd)
	defer svc.Close()

	sum, err := svc.SaveSummary(cmd.Context(), args[0], text)
	if err != nil {
		exitErr("summary set", err)
	}

	printJSON(cmd, sum)
}
