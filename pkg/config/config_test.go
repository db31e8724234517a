package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOOKING_OPEN_TIME", "")
	t.Setenv("BOOKING_CLOSE_TIME", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("LOCK_BACKEND", "")
	t.Setenv("AUTH_ENABLED", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Booking.OpenTime.String() != "07:00" {
		t.Fatalf("unexpected open time: %s", cfg.Booking.OpenTime)
	}
	if cfg.Booking.CloseTime.String() != "17:00" {
		t.Fatalf("unexpected close time: %s", cfg.Booking.CloseTime)
	}
	if cfg.Storage.Backend != "postgres" {
		t.Fatalf("unexpected storage backend: %s", cfg.Storage.Backend)
	}
	if cfg.Lock.Backend != "memory" {
		t.Fatalf("unexpected lock backend: %s", cfg.Lock.Backend)
	}
	if cfg.Booking.LockTimeout != 5*time.Second {
		t.Fatalf("unexpected lock timeout: %s", cfg.Booking.LockTimeout)
	}
	if cfg.Booking.WriteTimeout != 5*time.Second {
		t.Fatalf("unexpected write timeout: %s", cfg.Booking.WriteTimeout)
	}
	if len(cfg.RateLimit.TrustedProxies) != 0 {
		t.Fatalf("no proxy must be trusted by default, got %v", cfg.RateLimit.TrustedProxies)
	}
}

func TestLoadTrustedProxies(t *testing.T) {
	t.Setenv("RATE_LIMIT_TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.7 ,::1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got := make([]string, 0, len(cfg.RateLimit.TrustedProxies))
	for _, prefix := range cfg.RateLimit.TrustedProxies {
		got = append(got, prefix.String())
	}
	if strings.Join(got, " ") != "10.0.0.0/8 192.168.1.7/32 ::1/128" {
		t.Fatalf("unexpected trusted proxies: %v", got)
	}

	t.Setenv("RATE_LIMIT_TRUSTED_PROXIES", "10.0.0.0/33")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "RATE_LIMIT_TRUSTED_PROXIES") {
		t.Fatalf("expected trusted proxies error, got %v", err)
	}
}

func TestLoadRejectsInvertedHours(t *testing.T) {
	t.Setenv("BOOKING_OPEN_TIME", "18:00")
	t.Setenv("BOOKING_CLOSE_TIME", "08:00")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "must be before") {
		t.Fatalf("expected inverted hours error, got %v", err)
	}
}

func TestLoadRejectsUnknownBackends(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "mysql")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "STORAGE_BACKEND") {
		t.Fatalf("expected storage backend error, got %v", err)
	}

	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("LOCK_BACKEND", "postgres")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "LOCK_BACKEND=postgres") {
		t.Fatalf("expected lock backend error, got %v", err)
	}
}

func TestLoadRequiresTokenWhenAuthEnabled(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("AUTH_BEARER_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when auth is enabled without token")
	}
}

func TestSplitCSVAndDimensions(t *testing.T) {
	items := splitCSV(" http://a , ,http://b ")
	if len(items) != 2 || items[0] != "http://a" || items[1] != "http://b" {
		t.Fatalf("unexpected split result: %#v", items)
	}

	dims := parseDimensions("Environment=prod, Room = main,broken")
	if len(dims) != 2 || dims["Environment"] != "prod" || dims["Room"] != "main" {
		t.Fatalf("unexpected dimensions: %#v", dims)
	}
}
