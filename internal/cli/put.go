package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/recall/internal/model"
	"github.com/rcliao/recall/internal/service"
)

func init() {
	cmd := &cobra.Command{
		Use:   "put [text]",
		Short: "Store a memory",
		Long:  "Store a memory. Text can be a positional arg or piped via stdin.",
		Run:   runPut,
	}

	cmd.Flags().StringP("summary", "s", "", "One-line summary shown as the memory's header")
	cmd.Flags().BoolP("summarize", "S", false, "Generate a summary when none is given")
	cmd.Flags().StringP("importance", "i", "medium", "Importance: low, medium, high (or 1-3)")
	cmd.Flags().StringP("tags", "t", "", "Comma-separated tags")
	cmd.Flags().String("domain", "", "Site the memory was captured on")
	cmd.Flags().String("source", model.DefaultSource, "Provenance label")
	cmd.Flags().String("id", "", "Use this id instead of generating one")

	RootCmd.AddCommand(cmd)
}

func runPut(cmd *cobra.Command, args []string) {
	summary, _ := cmd.Flags().GetString("summary")
	summarize, _ := cmd.Flags().GetBool("summarize")
	importanceStr, _ := cmd.Flags().GetString("importance")
	tagsStr, _ := cmd.Flags().GetString("tags")
	domain, _ := cmd.Flags().GetString("domain")
	source, _ := cmd.Flags().GetString("source")
	id, _ := cmd.Flags().GetString("id")

	text := strings.TrimSpace(readText(args))
	if text == "" {
		exitErr("put", fmt.Errorf("text is required (positional arg or stdin)"))
	}
	importance, err := model.ParseImportance(importanceStr)
	if err != nil {
		exitErr("put", err)
	}

	svc := openService(cmd)
	defer svc.Close()

	mem, err := svc.AddMemory(cmd.Context(), text, service.AddOptions{
		ID:         id,
		Summary:    summary,
		Importance: importance,
		Tags:       model.ParseTags(tagsStr),
		Domain:     domain,
		Source:     source,
		Summarize:  summarize,
	})
	if err != nil {
		exitErr("put", err)
	}

	printJSON(cmd, mem)
}
