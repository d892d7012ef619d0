package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_MAX_OPEN_CONNS", "-3")
	t.Setenv("INFLIGHT_TTL", "garbage")
	t.Setenv("STORAGE_DRIVER", "")

	cfg, _ := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.DBMaxOpenConns != 100 {
		t.Fatalf("negative value must fall back to default, got %d", cfg.DBMaxOpenConns)
	}
	if cfg.InflightTTL != 15*time.Second {
		t.Fatalf("unexpected inflight ttl %s", cfg.InflightTTL)
	}
	if cfg.StorageDriver != "local" {
		t.Fatalf("unexpected storage driver %q", cfg.StorageDriver)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{StorageDriver: "local"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing JWT secret")
	}

	cfg.JWTSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.StorageDriver = "s3"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for s3 without bucket")
	}

	cfg.S3Bucket = "avatars"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDSN(t *testing.T) {
	cfg := Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "n"}
	want := "host=db port=5432 user=u password=p dbname=n sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Fatalf("dsn mismatch: got %q want %q", got, want)
	}
}
