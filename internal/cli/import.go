package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/recall/internal/service"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Restore a backup produced by export",
		Long:  "Restore memories, summaries and settings from a file or stdin. Sections present in the backup replace what is stored.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("read input", err)
	}

	var exp service.Export
	if err := json.Unmarshal(data, &exp); err != nil {
		exitErr("parse json", err)
	}

	svc := openService(cmd)
	defer svc.Close()

	if err := svc.ImportAll(cmd.Context(), exp); err != nil {
		exitErr("import", err)
	}

	printJSON(cmd, map[string]interface{}{"ok": true})
}
