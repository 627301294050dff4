package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Port: got %q, want %q", cfg.Server.Port, "8080")
	}
	if cfg.Limits.DailySearches != 3 {
		t.Errorf("DailySearches: got %d, want 3", cfg.Limits.DailySearches)
	}
	if cfg.Auth.FailClosed {
		t.Error("FailClosed: got true, want false by default")
	}
	if cfg.Provider.MaxAttempts != 4 {
		t.Errorf("MaxAttempts: got %d, want 4", cfg.Provider.MaxAttempts)
	}
	if cfg.Provider.QuoteTTL != 5*time.Minute {
		t.Errorf("QuoteTTL: got %v, want %v", cfg.Provider.QuoteTTL, 5*time.Minute)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout: got %v, want %v", cfg.Server.ReadTimeout, 15*time.Second)
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() with no JWT_SECRET: got nil error, want error")
	}
}

func TestLoad_WeakJWTSecretRejected(t *testing.T) {
	os.Setenv("JWT_SECRET", "short")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() with short JWT_SECRET: got nil error, want error")
	}
}

func TestLoad_ProductionRequiresLongerSecret(t *testing.T) {
	os.Setenv("JWT_SECRET", "only-twenty-chars!!!")
	os.Setenv("ENV", "production")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() in production with 20-char secret: got nil error, want error")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DAILY_SEARCH_LIMIT", "10")
	os.Setenv("AUTH_FAIL_CLOSED", "true")
	os.Setenv("QUOTE_TTL", "1m")
	os.Setenv("DATA_DIR", "/tmp/divscope-data")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Limits.DailySearches != 10 {
		t.Errorf("DailySearches: got %d, want 10", cfg.Limits.DailySearches)
	}
	if !cfg.Auth.FailClosed {
		t.Error("FailClosed: got false, want true")
	}
	if cfg.Provider.QuoteTTL != time.Minute {
		t.Errorf("QuoteTTL: got %v, want %v", cfg.Provider.QuoteTTL, time.Minute)
	}
	if cfg.Data.UsersFile != "/tmp/divscope-data/users.json" {
		t.Errorf("UsersFile: got %q", cfg.Data.UsersFile)
	}
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("SESSION_EXPIRY", "not-a-duration")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.SessionExpiry != 12*time.Hour {
		t.Errorf("SessionExpiry with invalid value: got %v, want %v", cfg.Auth.SessionExpiry, 12*time.Hour)
	}
}

func TestLoad_NegativeDailyLimitRejected(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DAILY_SEARCH_LIMIT", "-1")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() with negative limit: got nil error, want error")
	}
}
