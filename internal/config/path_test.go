package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPath(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "GEYSER_CONFIG override",
			setup: func(t *testing.T) string {
				t.Setenv("GEYSER_CONFIG", "/custom/geyser.json")
				return "/custom/geyser.json"
			},
		},
		{
			name: "XDG_CONFIG_HOME file",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				t.Setenv("GEYSER_CONFIG", "")
				t.Setenv("XDG_CONFIG_HOME", dir)
				p := filepath.Join(dir, "geyserstream", "config.yaml")
				if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
					t.Fatalf("mkdir: %v", err)
				}
				if err := os.WriteFile(p, []byte("bind_address: 127.0.0.1:1\n"), 0o644); err != nil {
					t.Fatalf("write: %v", err)
				}
				return p
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := tt.setup(t)
			if got := DefaultPath(); got != want {
				t.Errorf("Expected %s, got %s", want, got)
			}
		})
	}
}

func TestDefaultPathSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GEYSER_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, "geyserstream", "config.json"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if got := DefaultPath(); got == filepath.Join(dir, "geyserstream", "config.json") {
		t.Fatalf("a directory must not be returned as a config file")
	}
}
