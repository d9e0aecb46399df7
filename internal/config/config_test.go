package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func setSecret(t *testing.T) {
	t.Helper()
	t.Setenv("COOGMUSIC_SESSION_SECRET", "powawa")
}

func TestLoadDefaults(t *testing.T) {
	setSecret(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.DBHost != "127.0.0.1" || cfg.DBPort != "3306" {
		t.Errorf("db defaults = %s:%s", cfg.DBHost, cfg.DBPort)
	}
	if cfg.InactivityTimeoutSeconds != 3600 {
		t.Errorf("InactivityTimeoutSeconds = %d", cfg.InactivityTimeoutSeconds)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setSecret(t)
	t.Setenv("COOGMUSIC_DB_NAME", "coogmusic_test")
	t.Setenv("COOGMUSIC_PORT", "8080")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBName != "coogmusic_test" {
		t.Errorf("DBName = %s", cfg.DBName)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d", cfg.Port)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	setSecret(t)
	t.Setenv("COOGMUSIC_DB_HOST", "db.internal")
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "db_host: file-host\ndb_user: fileuser\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// env wins over file, file wins over defaults
	if cfg.DBHost != "db.internal" {
		t.Errorf("DBHost = %s, want env value", cfg.DBHost)
	}
	if cfg.DBUser != "fileuser" {
		t.Errorf("DBUser = %s, want file value", cfg.DBUser)
	}
}

func TestLoadRequiresSessionSecret(t *testing.T) {
	t.Setenv("COOGMUSIC_SESSION_SECRET", "")
	_, err := Load("")
	if !errors.Is(err, ErrMissingSessionSecret) {
		t.Fatalf("err = %v, want ErrMissingSessionSecret", err)
	}
}
