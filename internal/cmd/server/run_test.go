package serverrun

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	cfgpkg "github.com/rzbill/geyserstream/internal/config"
	"github.com/rzbill/geyserstream/internal/plugin"
	"github.com/rzbill/geyserstream/internal/replica"
)

func testConfig() cfgpkg.Config {
	cfg := cfgpkg.Default()
	cfg.BindAddress = "127.0.0.1:0"
	cfg.AccountUpdateBufferSize = 4
	cfg.SlotUpdateBufferSize = 4
	cfg.SlotEntryUpdateBufferSize = 4
	cfg.BlockUpdateBufferSize = 4
	cfg.TransactionUpdateBufferSize = 4
	return cfg
}

func TestResolveConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := "bind_address: 127.0.0.1:7000\nslot_update_buffer_size: 12\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GEYSER_SLOT_UPDATE_BUFFER_SIZE", "13")

	tests := []struct {
		name     string
		opts     Options
		wantBind string
		wantSlot int
		wantPath string
	}{
		{
			name:     "file with env overlay",
			opts:     Options{ConfigPath: path},
			wantBind: "127.0.0.1:7000",
			wantSlot: 13,
			wantPath: path,
		},
		{
			name:     "flag overrides file",
			opts:     Options{ConfigPath: path, BindAddress: "127.0.0.1:7001", LogLevel: "debug"},
			wantBind: "127.0.0.1:7001",
			wantSlot: 13,
			wantPath: path,
		},
		{
			name:     "explicit config skips file and env",
			opts:     Options{ConfigPath: path, Config: func() *cfgpkg.Config { c := testConfig(); return &c }()},
			wantBind: "127.0.0.1:0",
			wantSlot: 4,
			wantPath: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, gotPath, err := resolveConfig(tt.opts)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if cfg.BindAddress != tt.wantBind || cfg.SlotUpdateBufferSize != tt.wantSlot || gotPath != tt.wantPath {
				t.Fatalf("got bind=%s slot=%d path=%q", cfg.BindAddress, cfg.SlotUpdateBufferSize, gotPath)
			}
			if tt.opts.LogLevel != "" && cfg.LogLevel != tt.opts.LogLevel {
				t.Fatalf("log level override lost: %q", cfg.LogLevel)
			}
		})
	}
}

func TestResolveConfigMissingFile(t *testing.T) {
	if _, _, err := resolveConfig(Options{ConfigPath: filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.BindAddress = ""
	err := Run(context.Background(), Options{Config: &cfg})
	if !errors.Is(err, cfgpkg.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

// TestRunIntegration loads the relay, feeds it one startup account update
// and stops it through context cancellation.
func TestRunIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	cfg := testConfig()
	cfg.SkipStartupStream = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ready := make(chan *plugin.Plugin, 1)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Options{Config: &cfg, Ready: func(p *plugin.Plugin) { ready <- p }})
	}()

	var p *plugin.Plugin
	select {
	case p = <-ready:
	case err := <-done:
		t.Fatalf("run exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("relay not ready")
	}

	// Standalone mode opens the startup gate immediately.
	info := &replica.AccountInfoV1{Pubkey: make([]byte, 32), Owner: make([]byte, 32)}
	if err := p.UpdateAccount(info, 3, true); err != nil {
		t.Fatalf("update: %v", err)
	}
	select {
	case rec := <-p.Runtime().Channels().Accounts.Receive():
		if rec.AccountUpdate == nil || rec.AccountUpdate.Slot != 3 {
			t.Fatalf("unexpected record %+v", rec)
		}
	default:
		t.Fatalf("startup update suppressed in standalone mode")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
	if p.Loaded() {
		t.Fatalf("plugin still loaded after run returned")
	}
}
