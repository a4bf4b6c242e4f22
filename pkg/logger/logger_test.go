package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "finder.log")
	if err := Init(Config{Level: "debug", Format: "json", OutputPaths: []string{path}}); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	t.Cleanup(func() { _ = Sync() })

	Named("probe").Debug("probe finished", "username", "johndoe")
	if err := Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", raw, err)
	}
	if entry["component"] != "probe" || entry["username"] != "johndoe" {
		t.Fatalf("unexpected log entry: %+v", entry)
	}
}

func TestAuditRequiresPath(t *testing.T) {
	err := Init(Config{Audit: AuditConfig{Enabled: true}})
	if err == nil {
		t.Fatalf("expected error for audit without path")
	}
}

func TestAuditFallsBackToDefault(t *testing.T) {
	if err := Init(Config{OutputPaths: []string{"stderr"}}); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	if Audit() != L() {
		t.Fatalf("expected audit logger to fall back to the default logger")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "DEBUG",
		"WARNING": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"bogus":   "INFO",
	}
	for input, want := range cases {
		if got := parseLevel(input).String(); got != want {
			t.Fatalf("parseLevel(%q) = %s, want %s", input, got, want)
		}
	}
}
