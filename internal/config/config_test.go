package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":8000" {
		t.Fatalf("unexpected address: %s", cfg.Server.Address)
	}
	if cfg.Storage.TaskStore.Driver != "memory" || cfg.TaskQueue.Driver != "memory" {
		t.Fatalf("drivers should default to memory: %+v", cfg)
	}
	if cfg.TaskQueue.Worker != 1 {
		t.Fatalf("worker should default to 1, got %d", cfg.TaskQueue.Worker)
	}
	if cfg.Agent.DefaultSource != "dummy" {
		t.Fatalf("default source should be dummy, got %s", cfg.Agent.DefaultSource)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadFullConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
  "server": {"address": ":9001"},
  "storage": {"task_store": {"driver": "mysql", "dsn": "user:pass@tcp(localhost:3306)/autoflow"}},
  "task_queue": {"driver": "redis", "worker": 1, "redis": {"address": "localhost:6379", "queue": "autoflow:tasks"}},
  "agent": {"sources_file": "sources.yaml"},
  "logging": {"level": "debug", "format": "text"}
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":9001" {
		t.Fatalf("unexpected address: %s", cfg.Server.Address)
	}
	if cfg.Storage.TaskStore.Driver != "mysql" {
		t.Fatalf("unexpected store driver: %s", cfg.Storage.TaskStore.Driver)
	}
	if cfg.TaskQueue.Redis.Queue != "autoflow:tasks" {
		t.Fatalf("unexpected redis queue: %s", cfg.TaskQueue.Redis.Queue)
	}
	// 相对路径按配置文件所在目录解析。
	if cfg.Agent.SourcesFile != filepath.Join(dir, "sources.yaml") {
		t.Fatalf("sources_file not resolved: %s", cfg.Agent.SourcesFile)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected level: %s", cfg.Logging.Level)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatal("empty path should fail")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("missing file should fail")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write bad config: %v", err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatal("malformed json should fail")
	}
}
