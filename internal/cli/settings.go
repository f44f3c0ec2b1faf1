package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/recall/internal/model"
)

func init() {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change settings",
		Run:   runSettingsShow,
	}
	settingsCmd.Flags().String("domain", "", "Also report whether auto-assembly is allowed on this domain")

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings",
		Long:  "Change the system prompt, auto-assembly switch or enabled domains. Only the flags given are changed.",
		Run:   runSettingsSet,
	}
	setCmd.Flags().String("system-prompt", "", "Text placed above the memories in assembled contexts")
	setCmd.Flags().Bool("auto-assemble", true, "Assemble context automatically")
	setCmd.Flags().String("domains", "", "Comma-separated domains for auto-assembly (empty for all)")

	settingsCmd.AddCommand(setCmd)
	RootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) {
	svc := openService(cmd)
	defer svc.Close()

	s, err := svc.Settings(cmd.Context())
	if err != nil {
		exitErr("settings", err)
	}

	domain, _ := cmd.Flags().GetString("domain")
	if domain == "" {
		printJSON(cmd, s)
		return
	}
	allowed, err := svc.AutoAssembleAllowed(cmd.Context(), domain)
	if err != nil {
		exitErr("settings", err)
	}
	printJSON(cmd, map[string]interface{}{
		"settings":            s,
		"domain":              domain,
		"autoAssembleAllowed": allowed,
	})
}

func runSettingsSet(cmd *cobra.Command, args []string) {
	var patch model.SettingsPatch
	flags := cmd.Flags()
	changed := false

	if flags.Changed("system-prompt") {
		changed = true
		v, _ := flags.GetString("system-prompt")
		patch.SystemPrompt = &v
	}
	if flags.Changed("auto-assemble") {
		changed = true
		v, _ := flags.GetBool("auto-assemble")
		patch.AutoAssembleEnabled = &v
	}
	if flags.Changed("domains") {
		changed = true
		v, _ := flags.GetString("domains")
		patch.EnabledDomains = model.ParseTags(v)
		if patch.EnabledDomains == nil {
			patch.EnabledDomains = []string{}
		}
	}
	if !changed {
		exitErr("settings set", fmt.Errorf("nothing to change"))
	}

	svc := openService(cmd)
	defer svc.Close()

	s, err := svc.UpdateSettings(cmd.Context(), patch)
	if err != nil {
		exitErr("settings set", err)
	}

	printJSON(cmd, s)
}
