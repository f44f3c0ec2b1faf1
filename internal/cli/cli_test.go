package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rcliao/recall/internal/model"
)

// run executes the root command against db and returns its stdout. Flags
// keep their values between runs, so every call sets the ones it relies on.
func run(t *testing.T, db string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs(append([]string{"--db", db, "--storage", "sqlite", "-f", "json"}, args...))
	if err := RootCmd.Execute(); err != nil {
		t.Fatalf("recall %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func newTestDB(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "RECALL_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	return filepath.Join(t.TempDir(), "recall.db")
}

func TestPutContextRemove(t *testing.T) {
	db := newTestDB(t)

	var paris model.Memory
	out := run(t, db, "put", "Paris trip budget plan", "-i", "high", "-t", "travel")
	if err := json.Unmarshal([]byte(out), &paris); err != nil {
		t.Fatalf("put output: %v\n%s", err, out)
	}
	if paris.ID == "" || paris.Importance != model.ImportanceHigh || !paris.HasTag("travel") {
		t.Fatalf("unexpected memory: %+v", paris)
	}
	run(t, db, "put", "unrelated note", "-i", "low", "-t", "")

	out = run(t, db, "context", "paris", "budget", "-m", "1", "-f", "text")
	if !strings.Contains(out, "- Paris trip budget plan") || strings.Contains(out, "unrelated") {
		t.Errorf("unexpected context:\n%s", out)
	}

	var tagged []model.Memory
	out = run(t, db, "list", "--tag", "travel")
	if err := json.Unmarshal([]byte(out), &tagged); err != nil {
		t.Fatalf("list output: %v\n%s", err, out)
	}
	if len(tagged) != 1 || tagged[0].ID != paris.ID {
		t.Errorf("expected only %s, got %+v", paris.ID, tagged)
	}

	run(t, db, "rm", paris.ID)
	var results []model.Memory
	out = run(t, db, "search", "paris")
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("search output: %v\n%s", err, out)
	}
	if len(results) != 0 {
		t.Errorf("expected deleted memory gone, got %+v", results)
	}
}

func TestExportImport(t *testing.T) {
	src := newTestDB(t)
	run(t, src, "put", "remember the milk", "-i", "medium", "-t", "errands")
	run(t, src, "settings", "set", "--system-prompt", "Be brief.")

	backup := filepath.Join(t.TempDir(), "backup.json")
	run(t, src, "export", "-o", backup)

	dst := filepath.Join(t.TempDir(), "restored.db")
	run(t, dst, "import", backup)

	var memories []model.Memory
	out := run(t, dst, "list", "--tag", "errands")
	if err := json.Unmarshal([]byte(out), &memories); err != nil {
		t.Fatalf("list output: %v\n%s", err, out)
	}
	if len(memories) != 1 || memories[0].Text != "remember the milk" {
		t.Errorf("unexpected restored memories: %+v", memories)
	}

	var s model.Settings
	out = run(t, dst, "settings")
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("settings output: %v\n%s", err, out)
	}
	if s.SystemPrompt != "Be brief." {
		t.Errorf("settings not restored: %+v", s)
	}

	var report struct {
		Settings            model.Settings `json:"settings"`
		AutoAssembleAllowed bool           `json:"autoAssembleAllowed"`
	}
	out = run(t, dst, "settings", "--domain", "example.com")
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("settings output: %v\n%s", err, out)
	}
	if !report.AutoAssembleAllowed || report.Settings.SystemPrompt != "Be brief." {
		t.Errorf("unexpected domain report: %+v", report)
	}
}
