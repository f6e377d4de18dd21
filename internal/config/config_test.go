package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadServerDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Port)
	}
	if cfg.DBPath != "basket.db" {
		t.Errorf("db path = %q, want basket.db", cfg.DBPath)
	}
	if cfg.LookupWindow != time.Minute {
		t.Errorf("lookup window = %s, want 1m", cfg.LookupWindow)
	}
	if cfg.Redis.Enabled() {
		t.Error("redis should be disabled by default")
	}
	if cfg.Backup.Enabled() {
		t.Error("backup should be disabled by default")
	}
}

func TestLoadServerBackup(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BASKET_BACKUP_BUCKET", "lists")
	t.Setenv("BASKET_BACKUP_ACCESS_KEY", "key")
	t.Setenv("BASKET_BACKUP_SECRET_KEY", "secret")
	t.Setenv("BASKET_BACKUP_INTERVAL", "6h")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Backup.Enabled() {
		t.Fatal("backup should be enabled")
	}
	if cfg.Backup.Interval != 6*time.Hour {
		t.Errorf("interval = %s, want 6h", cfg.Backup.Interval)
	}
	if cfg.Backup.Retention != 30*24*time.Hour {
		t.Errorf("retention = %s, want 720h", cfg.Backup.Retention)
	}
	if cfg.Backup.Prefix != "basket/" {
		t.Errorf("prefix = %q, want basket/", cfg.Backup.Prefix)
	}
}

func TestLoadServerFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BASKET_PORT", "9090")
	t.Setenv("BASKET_REDIS_ADDR", "localhost:6379")
	t.Setenv("BASKET_LOOKUP_WINDOW", "30s")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Port)
	}
	if !cfg.Redis.Enabled() || cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if cfg.LookupWindow != 30*time.Second {
		t.Errorf("lookup window = %s, want 30s", cfg.LookupWindow)
	}
}

func TestLoadServerRejectsBadLimit(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BASKET_LOOKUP_LIMIT", "0")

	if _, err := LoadServer(); err == nil {
		t.Error("expected error for zero lookup limit")
	}
}

func TestLoadServerDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("BASKET_DB_PATH=/tmp/from-dotenv.db\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("BASKET_DB_PATH") })

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/from-dotenv.db" {
		t.Errorf("db path = %q, want value from .env", cfg.DBPath)
	}
}

func TestLoadClientFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "client.yaml")
	content := "server_url: http://basket.local:8080/\ntimeout: 3s\nstate_path: " + filepath.Join(dir, "s.json") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadClient(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "http://basket.local:8080" {
		t.Errorf("server url = %q, want trailing slash trimmed", cfg.ServerURL)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("timeout = %s, want 3s", cfg.Timeout)
	}
	if cfg.StatePath != filepath.Join(dir, "s.json") {
		t.Errorf("state path = %q", cfg.StatePath)
	}
}

func TestLoadClientMissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := LoadClient("/nonexistent/basket.yaml"); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadClientEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BASKET_SERVER_URL", "https://lists.example.com")

	cfg, err := LoadClient("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "https://lists.example.com" {
		t.Errorf("server url = %q", cfg.ServerURL)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("timeout = %s, want default 10s", cfg.Timeout)
	}
}
