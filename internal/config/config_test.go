package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := DefaultConfig()
	if cfg.PersistConcurrency != def.PersistConcurrency {
		t.Errorf("PersistConcurrency = %d, want %d", cfg.PersistConcurrency, def.PersistConcurrency)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.HTTPAddr != "127.0.0.1:8787" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, "127.0.0.1:8787")
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.json"), `{"persist_concurrency": 2, "log_level": "debug", "cors_origins": ["http://localhost:3000"]}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PersistConcurrency != 2 {
		t.Errorf("PersistConcurrency = %d, want 2", cfg.PersistConcurrency)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.json"), `{not json}`)

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_DisabledTools(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.json"), `{"disabled_tools": ["match_purge", "match_import"]}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
	if cfg.DisabledTools[0] != "match_purge" {
		t.Errorf("DisabledTools[0] = %q, want %q", cfg.DisabledTools[0], "match_purge")
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	writeFile(t, filepath.Join(globalDir, "config.json"), `{"persist_concurrency": 8, "disabled_tools": ["match_purge"]}`)
	writeFile(t, filepath.Join(repoRoot, ".sparetime", "config.json"), `{"persist_concurrency": 2, "disabled_tools": ["match_import"]}`)

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.PersistConcurrency != 2 {
		t.Errorf("PersistConcurrency = %d, want 2 (repo override)", cfg.PersistConcurrency)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.PersistConcurrency != 4 {
		t.Errorf("PersistConcurrency = %d, want 4", cfg.PersistConcurrency)
	}
	if len(cfg.DisabledTools) != 0 {
		t.Errorf("DisabledTools = %v, want empty", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_WalksUpward(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".sparetime", "config.json"), `{"disabled_types": ["frame"]}`)

	subdir := filepath.Join(tmpDir, "subdir")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	cfg, err := LoadWithRepo(t.TempDir(), subdir)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if len(cfg.DisabledTypes) != 1 || cfg.DisabledTypes[0] != "frame" {
		t.Errorf("DisabledTypes = %v, want [frame]", cfg.DisabledTypes)
	}
}

func TestLoadWithRepo_DotEnvOverrides(t *testing.T) {
	globalDir := t.TempDir()
	writeFile(t, filepath.Join(globalDir, "config.json"), `{"log_level": "warn"}`)
	writeFile(t, filepath.Join(globalDir, ".env"), "SPARETIME_LOG_LEVEL=debug\nSPARETIME_PERSIST_CONCURRENCY=6\n")

	cfg, err := LoadWithRepo(globalDir, t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q (.env)", cfg.LogLevel, "debug")
	}
	if cfg.PersistConcurrency != 6 {
		t.Errorf("PersistConcurrency = %d, want 6 (.env)", cfg.PersistConcurrency)
	}
}

func TestApplyEnv_ProcessEnvWins(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	writeFile(t, envFile, "SPARETIME_HTTP_ADDR=127.0.0.1:9000\n")
	t.Setenv(EnvHTTPAddr, "0.0.0.0:8080")

	cfg := DefaultConfig()
	if err := ApplyEnv(cfg, envFile); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, "0.0.0.0:8080")
	}
}

func TestApplyEnv_MissingFile(t *testing.T) {
	cfg := DefaultConfig()
	if err := ApplyEnv(cfg, filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestApplyEnv_InvalidConcurrency(t *testing.T) {
	t.Setenv(EnvPersistConcurrency, "zero")

	if err := ApplyEnv(DefaultConfig(), ""); err == nil {
		t.Fatal("ApplyEnv() expected error, got nil")
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := &Config{PersistConcurrency: 4, DBMaxOpenConns: 5, LogLevel: "info"}
	overlay := &Config{PersistConcurrency: 1}

	result := Merge(base, overlay)

	if result.PersistConcurrency != 1 {
		t.Errorf("PersistConcurrency = %d, want 1 (overlay)", result.PersistConcurrency)
	}
	if result.DBMaxOpenConns != 5 {
		t.Errorf("DBMaxOpenConns = %d, want 5 (base, overlay is zero)", result.DBMaxOpenConns)
	}
	if result.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q (base)", result.LogLevel, "info")
	}
}

func TestMerge_BooleanOr(t *testing.T) {
	result := Merge(&Config{AllowUnsafePaths: true}, &Config{AllowUnsafePaths: false})

	if !result.AllowUnsafePaths {
		t.Error("AllowUnsafePaths should be true (base OR overlay)")
	}
}

func TestMerge_ArrayMergeDedup(t *testing.T) {
	base := &Config{DisabledTools: []string{"match_purge", "match_import"}}
	overlay := &Config{DisabledTools: []string{" match_import ", "match_export"}}

	result := Merge(base, overlay)

	want := []string{"match_purge", "match_import", "match_export"}
	if len(result.DisabledTools) != len(want) {
		t.Fatalf("DisabledTools = %v, want %v", result.DisabledTools, want)
	}
	for i := range want {
		if result.DisabledTools[i] != want[i] {
			t.Errorf("DisabledTools[%d] = %q, want %q", i, result.DisabledTools[i], want[i])
		}
	}
}

func TestFindRepoConfig_InParentDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".sparetime", "config.json")
	writeFile(t, configPath, `{}`)

	subdir := filepath.Join(tmpDir, "subdir", "deeper")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	if found := FindRepoConfig(subdir); found != configPath {
		t.Errorf("FindRepoConfig() = %q, want %q", found, configPath)
	}
}

func TestFindRepoConfig_NotFound(t *testing.T) {
	if found := FindRepoConfig(t.TempDir()); found != "" {
		t.Errorf("FindRepoConfig() = %q, want empty string", found)
	}
}

func TestLoadWithRepo_SetsBaseDir(t *testing.T) {
	globalDir := t.TempDir()

	cfg, err := LoadWithRepo(globalDir, t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.BaseDir != globalDir {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, globalDir)
	}
}
