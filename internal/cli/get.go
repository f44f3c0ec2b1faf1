package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Retrieve a memory",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	svc := openService(cmd)
	defer svc.Close()

	mem, err := svc.GetMemory(cmd.Context(), args[0])
	if err != nil {
		exitErr("get", err)
	}

	if textFormat() {
		printMemoryLine(cmd.OutOrStdout(), *mem)
		return
	}
	printJSON(cmd, mem)
}
