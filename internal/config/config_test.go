package config

import "testing"

// TestPurpose: Validates configuration defaults when no environment is set.
// Scope: Unit Test
func TestConfig_Load_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Storage.Driver != DriverSQLite {
		t.Errorf("expected sqlite default driver, got %s", cfg.Storage.Driver)
	}
	if cfg.Session.SlotKey != "auth_user" {
		t.Errorf("unexpected default slot key %q", cfg.Session.SlotKey)
	}
	if len(cfg.Guard.PublicPaths) != 1 || cfg.Guard.PublicPaths[0] != "/login" {
		t.Errorf("unexpected default public paths %v", cfg.Guard.PublicPaths)
	}
	if cfg.Observability.ServiceName != "chantier-access" {
		t.Errorf("unexpected default service name %q", cfg.Observability.ServiceName)
	}
}

// TestPurpose: Validates environment overrides and list parsing.
// Scope: Unit Test
func TestConfig_Load_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("GUARD_PUBLIC_PATHS", "/login, /about ,/terms")
	t.Setenv("GUARD_CONSERVATIVE", "true")
	t.Setenv("AUTH_ROLE_MARKERS", "lead=chef_projet")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Errorf("expected memory driver, got %s", cfg.Storage.Driver)
	}
	if len(cfg.Guard.PublicPaths) != 3 || cfg.Guard.PublicPaths[1] != "/about" {
		t.Errorf("unexpected public paths %v", cfg.Guard.PublicPaths)
	}
	if !cfg.Guard.Conservative {
		t.Error("expected conservative guard mode")
	}
	if cfg.Session.RoleMarkers != "lead=chef_projet" {
		t.Errorf("unexpected role markers %q", cfg.Session.RoleMarkers)
	}
}

// TestPurpose: Validates rejection of unusable configuration.
// Scope: Unit Test
func TestConfig_Load_Invalid(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "etcd")
	if _, err := Load(); err == nil {
		t.Error("expected error for unknown storage driver")
	}

	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DB_PASSWORD", "")
	if _, err := Load(); err == nil {
		t.Error("expected error for postgres without password")
	}
}
