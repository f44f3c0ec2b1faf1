// Package cli implements the recall CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/recall/internal/config"
	"github.com/rcliao/recall/internal/logging"
	"github.com/rcliao/recall/internal/model"
	"github.com/rcliao/recall/internal/service"
)

var (
	configPath  string
	dbPath      string
	storageFlag string
	logLevel    string
	formatFlag  string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Personal memory store with context assembly",
	Long: "recall stores short text memories with importance, tags and usage history, " +
		"and assembles the most relevant ones into a context block for a prompt.",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ~/.recall/config.yaml if present)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Storage path (default: $RECALL_STORAGE_PATH or ~/.recall/recall.db)")
	RootCmd.PersistentFlags().StringVar(&storageFlag, "storage", "", "Storage backend: sqlite, badger, redis or memory")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

// loadConfig merges the config sources with the persistent flags the user set.
func loadConfig() (*config.Config, error) {
	overrides := map[string]interface{}{}
	if dbPath != "" {
		overrides["storage.path"] = dbPath
	}
	if storageFlag != "" {
		overrides["storage.backend"] = storageFlag
	}
	if logLevel != "" {
		overrides["log.level"] = logLevel
	}
	return config.Load(configPath, overrides)
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

func openService(cmd *cobra.Command) *service.Service {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	svc, err := service.Open(cmd.Context(), cfg, newLogger(cfg), nil)
	if err != nil {
		exitErr("open store", err)
	}
	return svc
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func printJSON(cmd *cobra.Command, v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitErr("encode output", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}

func textFormat() bool {
	return formatFlag == "text"
}

// printMemories writes memories as JSON, or one line each in text format.
func printMemories(cmd *cobra.Command, memories []model.Memory) {
	if !textFormat() {
		printJSON(cmd, memories)
		return
	}
	for _, m := range memories {
		printMemoryLine(cmd.OutOrStdout(), m)
	}
}

func printMemoryLine(w io.Writer, m model.Memory) {
	line := fmt.Sprintf("%s  [%s]  %s", m.ID, model.ImportanceLabel(m.EffectiveImportance()), m.Header())
	if len(m.Tags) > 0 {
		line += "  #" + strings.Join(m.Tags, " #")
	}
	fmt.Fprintln(w, line)
}

// readText joins args, or reads stdin when it is piped and args are empty.
func readText(args []string) string {
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	stat, err := os.Stdin.Stat()
	if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
		return ""
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		exitErr("read stdin", err)
	}
	return string(b)
}
