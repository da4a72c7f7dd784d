package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveConfigDefaults(t *testing.T) {
	cmd := newServeCmd()
	cfg, err := resolveConfig(cmd, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Addr != ":8787" {
		t.Fatalf("unexpected default addr: %q", cfg.Addr)
	}
	if cfg.DefaultModel != "mistral-7b-quantized" {
		t.Fatalf("unexpected default model: %q", cfg.DefaultModel)
	}
	if cfg.IdleTimeoutS != 300 || cfg.CollapseGraceS != 5 {
		t.Fatalf("unexpected orchestrator defaults: %+v", cfg)
	}
	if cfg.ContextDBPath == "" || cfg.VoiceCacheDir == "" {
		t.Fatalf("storage paths not defaulted: %+v", cfg)
	}
}

func TestResolveConfigFileUnderFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hearthd.yaml")
	body := "addr: \":9999\"\ndefault_model: custom-model\nidle_timeout_s: 42\ncors_origins: [\"http://studio.local\"]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newServeCmd()
	// Explicit flag must beat the file; file must beat flag defaults.
	if err := cmd.Flags().Set("addr", ":7777"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	cfg, err := resolveConfig(cmd, path)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Addr != ":7777" {
		t.Fatalf("explicit flag should win, got %q", cfg.Addr)
	}
	if cfg.DefaultModel != "custom-model" {
		t.Fatalf("file should beat flag default, got %q", cfg.DefaultModel)
	}
	if cfg.IdleTimeoutS != 42 {
		t.Fatalf("file idle timeout lost: %d", cfg.IdleTimeoutS)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://studio.local" {
		t.Fatalf("file cors origins lost: %v", cfg.CORSOrigins)
	}
}
