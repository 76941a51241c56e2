package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath      string
	StoreDriver string
	CatalogFile string
	OutputDir   string
	HTTPAddr    string
	LogLevel    string

	RemoteURL          string
	RemoteToken        string
	RemoteRateLimitRPS int
	RemoteTimeoutMs    int

	PriceLocale    string
	CurrencyCode   string
	CurrencySymbol string

	ImportMatchThreshold float64

	MailFrom      string
	MailTo        string
	ShareProvider string

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string

	IMAPHost          string
	IMAPPort          int
	IMAPSecure        bool
	IMAPUser          string
	IMAPPassword      string
	IMAPDraftsMailbox string

	WatchIntervalSec int
	WatchShare       bool
}

const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverRemote = "remote"
)

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:      getEnv("DB_PATH", filepath.Join(cwd, "data", "vitrina.db")),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite)),
		CatalogFile: getEnv("CATALOG_FILE", filepath.Join(cwd, "data", "catalog.json")),
		OutputDir:   getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		RemoteURL:          getEnv("REMOTE_URL", "http://localhost:8080"),
		RemoteToken:        getEnv("REMOTE_TOKEN", ""),
		RemoteRateLimitRPS: getEnvInt("REMOTE_RATE_LIMIT_RPS", 5),
		RemoteTimeoutMs:    getEnvInt("REMOTE_TIMEOUT_MS", 30000),

		PriceLocale:    getEnv("PRICE_LOCALE", "es-CO"),
		CurrencyCode:   getEnv("CURRENCY_CODE", "COP"),
		CurrencySymbol: getEnv("CURRENCY_SYMBOL", "$"),

		ImportMatchThreshold: getEnvFloat("IMPORT_MATCH_THRESHOLD", 0.85),

		MailFrom:      getEnv("MAIL_FROM", ""),
		MailTo:        getEnv("MAIL_TO", ""),
		ShareProvider: strings.ToLower(getEnv("SHARE_PROVIDER", "gmail")),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		IMAPHost:          getEnv("IMAP_HOST", ""),
		IMAPPort:          getEnvInt("IMAP_PORT", 993),
		IMAPSecure:        getEnvBool("IMAP_SECURE", true),
		IMAPUser:          getEnv("IMAP_USER", ""),
		IMAPPassword:      getEnv("IMAP_PASSWORD", ""),
		IMAPDraftsMailbox: getEnv("IMAP_DRAFTS_MAILBOX", "Drafts"),

		WatchIntervalSec: getEnvInt("WATCH_INTERVAL_SEC", 30),
		WatchShare:       getEnvBool("WATCH_SHARE", false),
	}

	if cfg.StoreDriver == "" {
		cfg.StoreDriver = DriverSQLite
	}
	switch cfg.StoreDriver {
	case DriverSQLite, DriverFile, DriverRemote:
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
