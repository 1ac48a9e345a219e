package prompt

import (
	"os"
	"path/filepath"
	"testing"
)

func writePrompts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompts.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write prompts file: %v", err)
	}
	return path
}

func TestLoadReadsSystemMessage(t *testing.T) {
	t.Parallel()
	path := writePrompts(t, `{"system_message": {"content": "Be brief."}}`)

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "Be brief." {
		t.Errorf("Load = %q, want %q", got, "Be brief.")
	}
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") },
		},
		{
			name: "malformed json",
			path: func(t *testing.T) string { return writePrompts(t, "{not json") },
		},
		{
			name: "empty content",
			path: func(t *testing.T) string { return writePrompts(t, `{"system_message": {"content": ""}}`) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := LoadOrDefault(tt.path(t))
			if err == nil {
				t.Fatal("LoadOrDefault returned nil error, want fallback reason")
			}
			if got != DefaultInstructions {
				t.Errorf("LoadOrDefault = %q, want default", got)
			}
		})
	}
}

func TestLoadOrDefaultPassesThrough(t *testing.T) {
	t.Parallel()
	path := writePrompts(t, `{"system_message": {"content": "Stay on topic."}}`)

	got, err := LoadOrDefault(path)
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if got != "Stay on topic." {
		t.Errorf("LoadOrDefault = %q", got)
	}
}
