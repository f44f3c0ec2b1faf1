package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "touch <id>",
		Short: "Record a use of a memory",
		Long:  "Bump a memory's usage count and last-used time, which raises it in context ranking.",
		Args:  cobra.ExactArgs(1),
		Run:   runTouch,
	}

	RootCmd.AddCommand(cmd)
}

func runTouch(cmd *cobra.Command, args []string) {
	svc := openService(cmd)
	defer svc.Close()

	mem, err := svc.TouchUsage(cmd.Context(), args[0])
	if err != nil {
		exitErr("touch", err)
	}

	printJSON(cmd, mem)
}
