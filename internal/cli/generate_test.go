package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

func captureConfig(t *testing.T, args ...string) (*GenerateConfig, error) {
	t.Helper()
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	var captured *GenerateConfig
	generateRunner = func(ctx context.Context, cfg *GenerateConfig) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { generateRunner = runGenerate })

	root.SetArgs(args)
	err := root.Execute()
	return captured, err
}

func TestGenerateConfigFromFlags(t *testing.T) {
	captured, err := captureConfig(t,
		"--verbose",
		"generate",
		"--schema", "schema.yaml",
		"--target", "OpenAPI",
		"--out", "./build/api.yml",
		"--patches", "patches.yaml",
		"--repo", "../cg",
		"--no-provenance",
		"--require-api", ">= 6.0",
		"--dry-run",
		"--force",
	)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured == nil {
		t.Fatalf("expected config to be captured")
	}

	if captured.Schema != "schema.yaml" {
		t.Errorf("schema mismatch: got %q", captured.Schema)
	}
	if captured.Target != TargetOpenAPI {
		t.Errorf("target mismatch: got %q", captured.Target)
	}
	if captured.Out != "./build/api.yml" {
		t.Errorf("out mismatch: got %q", captured.Out)
	}
	if captured.Format != "yaml" {
		t.Errorf("format should follow the .yml extension, got %q", captured.Format)
	}
	if captured.Patches != "patches.yaml" {
		t.Errorf("patches mismatch: got %q", captured.Patches)
	}
	if captured.Repo != "../cg" {
		t.Errorf("repo mismatch: got %q", captured.Repo)
	}
	if captured.RequireAPI != ">= 6.0" {
		t.Errorf("require-api mismatch: got %q", captured.RequireAPI)
	}
	if !captured.NoProvenance || !captured.DryRun || !captured.Force || !captured.Verbose {
		t.Errorf("expected all boolean flags set, got %+v", captured)
	}
}

func TestGenerateConfigDefaults(t *testing.T) {
	captured, err := captureConfig(t, "generate", "--schema", "schema.yaml", "--out", "payloads")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured.Target != TargetPayloads {
		t.Errorf("target: want payloads got %q", captured.Target)
	}
	if captured.Repo != "." {
		t.Errorf("repo: want . got %q", captured.Repo)
	}
	if captured.Format != "" {
		t.Errorf("format: want empty got %q", captured.Format)
	}
}

func TestGenerateConfigPrecedence(t *testing.T) {
	t.Setenv("SC_PATH", "env-schema.yaml")
	t.Setenv("ACTION", "2")
	t.Setenv("PL_PATH", "env-payloads")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := strings.TrimSpace(`schema: config-schema.yaml
target: forward
out: from-config.rs
repo: ../cg
no_provenance: true
requireApi: ">= 6.0"
dryRun: true
force: false
verbose: true
`) + "\n"
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	captured, err := captureConfig(t,
		"--config", configPath,
		"generate",
		"--schema", "flag-schema.yaml",
		"--dry-run=false",
		"--force",
	)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if captured.Schema != "flag-schema.yaml" {
		t.Errorf("schema: want %q got %q", "flag-schema.yaml", captured.Schema)
	}
	if captured.Target != TargetForward {
		t.Errorf("target: want forward (config beats ACTION) got %q", captured.Target)
	}
	if captured.Out != "from-config.rs" {
		t.Errorf("out: want from-config.rs got %q", captured.Out)
	}
	if captured.Repo != "../cg" {
		t.Errorf("repo mismatch: got %q", captured.Repo)
	}
	if !captured.NoProvenance {
		t.Errorf("expected no-provenance from config file")
	}
	if captured.RequireAPI != ">= 6.0" {
		t.Errorf("require-api mismatch: got %q", captured.RequireAPI)
	}
	if captured.DryRun {
		t.Errorf("expected dry-run false after flag override")
	}
	if !captured.Force {
		t.Errorf("expected force true after flag override")
	}
	if !captured.Verbose {
		t.Errorf("expected verbose true from config file")
	}
	if captured.ConfigPath != configPath {
		t.Errorf("config path mismatch: got %q", captured.ConfigPath)
	}
}

func TestGenerateConfigFromEnvironment(t *testing.T) {
	t.Setenv("SC_PATH", "env-schema.yaml")
	t.Setenv("ACTION", "0")
	t.Setenv("PL_PATH", "env-payloads")

	captured, err := captureConfig(t, "generate")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured.Schema != "env-schema.yaml" || captured.Target != TargetPayloads || captured.Out != "env-payloads" {
		t.Fatalf("environment not applied: %+v", captured)
	}
}

func TestApplyGenerateEnv(t *testing.T) {
	env := map[string]string{"SC_PATH": "s.yaml", "ACTION": "3", "PL_PATH": "ignored"}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	cfg := defaultGenerateConfig()
	if err := applyGenerateEnv(&cfg, lookup); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Target != TargetForward {
		t.Errorf("ACTION=3 should select forward, got %q", cfg.Target)
	}
	if cfg.Out != "" {
		t.Errorf("PL_PATH only applies to payloads, got out %q", cfg.Out)
	}

	env["ACTION"] = "7"
	cfg = defaultGenerateConfig()
	err := applyGenerateEnv(&cfg, lookup)
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error for unknown ACTION, got %v", err)
	}
}

func TestGenerateConfigValidation(t *testing.T) {
	cases := map[string][]string{
		"missing schema":         {"generate", "--out", "x"},
		"payloads without out":   {"generate", "--schema", "s.yaml"},
		"unknown target":         {"generate", "--schema", "s.yaml", "--target", "docs"},
		"format outside openapi": {"generate", "--schema", "s.yaml", "--target", "mods", "--format", "yaml"},
		"unknown format":         {"generate", "--schema", "s.yaml", "--target", "openapi", "--format", "xml"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			captured, err := captureConfig(t, args...)
			if err == nil {
				t.Fatalf("expected an error, captured %+v", captured)
			}
			if !errors.Is(err, ErrUsage) {
				t.Fatalf("expected usage error, got %v", err)
			}
		})
	}
}

func TestGenerateConfigUnknownKey(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(configPath, []byte("unknown: value\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := captureConfig(t, "--config", configPath, "generate", "--schema", "schema.yaml")
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("unexpected error message: %v", err)
	}
}
