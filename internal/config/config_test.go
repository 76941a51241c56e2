package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"STORE_DRIVER", "PRICE_LOCALE", "IMAP_PORT", "IMAP_SECURE", "IMPORT_MATCH_THRESHOLD"} {
		t.Setenv(key, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StoreDriver != DriverSQLite {
		t.Fatalf("driver=%q", cfg.StoreDriver)
	}
	if cfg.IMAPPort != 993 || !cfg.IMAPSecure || cfg.ImportMatchThreshold != 0.85 {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "FILE")
	t.Setenv("IMAP_PORT", "143")
	t.Setenv("IMAP_SECURE", "off")
	t.Setenv("REMOTE_RATE_LIMIT_RPS", "not-a-number")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StoreDriver != DriverFile || cfg.IMAPPort != 143 || cfg.IMAPSecure {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.RemoteRateLimitRPS != 5 {
		t.Fatalf("rps=%d", cfg.RemoteRateLimitRPS)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "mongo")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestRequire(t *testing.T) {
	var cfg Config
	if err := cfg.Require("MAIL_FROM", " "); err == nil {
		t.Fatal("expected error")
	}
	if err := cfg.Require("MAIL_FROM", "a@b.co"); err != nil {
		t.Fatal(err)
	}
}
