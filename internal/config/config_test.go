package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "mongodb://localhost:27017")
	t.Setenv("EMAIL_USER", "sender@example.com")
	t.Setenv("EMAIL_PASS", "app-password")
	t.Setenv("OTP_TTL", "not-a-duration")

	cfg := Load()
	if cfg.Port != "5000" {
		t.Fatalf("expected port 5000, got %q", cfg.Port)
	}
	if cfg.DatabaseName != "HubMarketocom" {
		t.Fatalf("unexpected database name %q", cfg.DatabaseName)
	}
	if cfg.SMTPUsername != "sender@example.com" || cfg.SMTPPassword != "app-password" {
		t.Fatalf("expected EMAIL_USER/EMAIL_PASS fallback, got %q/%q", cfg.SMTPUsername, cfg.SMTPPassword)
	}
	if cfg.OTPTTL != 5*time.Minute {
		t.Fatalf("expected default otp ttl, got %v", cfg.OTPTTL)
	}
	if !cfg.ResetIncludesDeleted || !cfg.AsyncWelcomeMail {
		t.Fatalf("expected reset and async welcome defaults enabled")
	}
	if cfg.BcryptCost != 10 {
		t.Fatalf("expected bcrypt cost 10, got %d", cfg.BcryptCost)
	}
}

func TestLoadPanicsWithoutDatabaseURL(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "")
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic for missing DATABASE_URL")
		}
	}()
	Load()
}

func TestStoreKind(t *testing.T) {
	cases := map[string]StoreKind{
		"mongodb://localhost:27017/HubMarketocom": StoreMongo,
		"mongodb+srv://cluster.example.net":       StoreMongo,
		"postgres://u:p@localhost/db":             StorePostgres,
		"postgresql://localhost/db":               StorePostgres,
		"memory://":                               StoreMemory,
	}
	for raw, want := range cases {
		got, err := Config{DatabaseURL: raw}.StoreKind()
		if err != nil || got != want {
			t.Fatalf("%s: expected %q, got %q (%v)", raw, want, got, err)
		}
	}
	if _, err := (Config{DatabaseURL: "mysql://localhost"}).StoreKind(); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}
