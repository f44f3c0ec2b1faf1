package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a memory",
		Args:  cobra.ExactArgs(1),
		Run:   runRm,
	}

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	svc := openService(cmd)
	defer svc.Close()

	deleted, err := svc.DeleteMemory(cmd.Context(), args[0])
	if err != nil {
		exitErr("rm", err)
	}
	if !deleted {
		exitErr("rm", fmt.Errorf("memory not found: %s", args[0]))
	}

	printJSON(cmd, map[string]interface{}{"ok": true, "deleted": args[0]})
}
