package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export memories, summaries and settings as JSON",
		Long:  "Write a full backup of the store. The output can be restored with import.",
		Run:   runExport,
	}

	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	output, _ := cmd.Flags().GetString("output")

	svc := openService(cmd)
	defer svc.Close()

	exp, err := svc.ExportAll(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}

	if output == "" {
		printJSON(cmd, exp)
		return
	}
	b, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		exitErr("export", err)
	}
	if err := os.WriteFile(output, append(b, '\n'), 0o600); err != nil {
		exitErr("write export", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "exported to %s\n", output)
}
