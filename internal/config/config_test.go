package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("SHOP_PASSWORD", "")

	cfg := Load()
	if cfg.SessionSecret != "" {
		t.Fatalf("expected empty SESSION_SECRET when unset, got %q", cfg.SessionSecret)
	}
	if cfg.ShopPassword != "" {
		t.Fatalf("expected empty SHOP_PASSWORD when unset, got %q", cfg.ShopPassword)
	}
}

func TestLoadFallsBackOnInvalidNumbers(t *testing.T) {
	t.Setenv("SESSION_TTL_MINUTES", "soon")
	t.Setenv("DASHBOARD_CACHE_TTL_SECONDS", "-4")
	t.Setenv("STORE_DRIVER", "Postgres")

	cfg := Load()
	if cfg.SessionTTLMinutes != 720 {
		t.Fatalf("expected default session ttl, got %d", cfg.SessionTTLMinutes)
	}
	if cfg.DashboardCacheTTLSeconds != 30 {
		t.Fatalf("expected default cache ttl, got %d", cfg.DashboardCacheTTLSeconds)
	}
	if cfg.StoreDriver != "postgres" {
		t.Fatalf("expected lower-cased driver, got %q", cfg.StoreDriver)
	}
}

func TestLocationRejectsUnknownZone(t *testing.T) {
	cfg := Config{Timezone: "Mars/Olympus"}
	loc, err := cfg.Location()
	if err == nil {
		t.Fatalf("expected unknown zone error")
	}
	if loc == nil {
		t.Fatalf("expected UTC fallback")
	}
}
