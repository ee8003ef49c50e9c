package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"APP_ENV", "DB_PATH", "PORT", "ADMIN_EMAIL", "ADMIN_PASSWORD", "SESSION_SECRET", "PDF_FONT_PATH", "COMPANY_NAME"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := load(filepath.Join(t.TempDir(), "missing.env"))

	if cfg.DBPath != defaultDBPath {
		t.Fatalf("DBPath=%q, want %q", cfg.DBPath, defaultDBPath)
	}
	if cfg.Port != defaultPort {
		t.Fatalf("Port=%q, want %q", cfg.Port, defaultPort)
	}
	if !cfg.IsDev() {
		t.Fatalf("expected dev environment by default, got %q", cfg.Env)
	}
	if cfg.CompanyName != defaultCompanyName {
		t.Fatalf("CompanyName=%q, want %q", cfg.CompanyName, defaultCompanyName)
	}
}

func TestLoad_ReadsDotEnvAndIgnoresNoise(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	content := []byte(`
# comment

APP_ENV=prod
export PORT=9090
DB_PATH="/tmp/estimates.db"
SESSION_SECRET='s3cret value'
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	cfg := load(path)

	if cfg.IsDev() {
		t.Fatalf("expected prod environment, got %q", cfg.Env)
	}
	if cfg.Port != "9090" {
		t.Fatalf("Port=%q, want %q", cfg.Port, "9090")
	}
	if cfg.DBPath != "/tmp/estimates.db" {
		t.Fatalf("DBPath=%q, want %q", cfg.DBPath, "/tmp/estimates.db")
	}
	if cfg.SessionSecret != "s3cret value" {
		t.Fatalf("SessionSecret=%q, want %q", cfg.SessionSecret, "s3cret value")
	}
}

func TestLoad_DoesNotOverwriteExistingEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("PORT=fromfile\n"), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	cfg := load(path)

	if cfg.Port != "7000" {
		t.Fatalf("Port=%q, want %q", cfg.Port, "7000")
	}
}
