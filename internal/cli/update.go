package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/recall/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit fields of a memory",
		Long:  "Edit a memory in place. Only the flags given are changed; --tags \"\" clears the tags.",
		Args:  cobra.ExactArgs(1),
		Run:   runUpdate,
	}

	cmd.Flags().String("text", "", "New text")
	cmd.Flags().StringP("summary", "s", "", "New summary")
	cmd.Flags().StringP("importance", "i", "", "New importance: low, medium, high (or 1-3)")
	cmd.Flags().StringP("tags", "t", "", "Replace tags (comma-separated)")
	cmd.Flags().String("domain", "", "New domain")
	cmd.Flags().String("source", "", "New provenance label")

	RootCmd.AddCommand(cmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	var patch model.MemoryPatch
	flags := cmd.Flags()
	changed := false

	if flags.Changed("text") {
		changed = true
		v, _ := flags.GetString("text")
		patch.Text = &v
	}
	if flags.Changed("summary") {
		changed = true
		v, _ := flags.GetString("summary")
		patch.Summary = &v
	}
	if flags.Changed("importance") {
		changed = true
		s, _ := flags.GetString("importance")
		v, err := model.ParseImportance(s)
		if err != nil {
			exitErr("update", err)
		}
		patch.Importance = &v
	}
	if flags.Changed("tags") {
		changed = true
		s, _ := flags.GetString("tags")
		patch.Tags = model.ParseTags(s)
		if patch.Tags == nil {
			patch.Tags = []string{}
		}
	}
	if flags.Changed("domain") {
		changed = true
		v, _ := flags.GetString("domain")
		patch.Domain = &v
	}
	if flags.Changed("source") {
		changed = true
		v, _ := flags.GetString("source")
		patch.Source = &v
	}
	if !changed {
		exitErr("update", fmt.Errorf("nothing to change"))
	}

	svc := openService(cmd)
	defer svc.Close()

	mem, err := svc.UpdateMemory(cmd.Context(), args[0], patch)
	if err != nil {
		exitErr("update", err)
	}

	printJSON(cmd, mem)
}
