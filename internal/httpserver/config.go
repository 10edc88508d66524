package httpserver

import (
	"fmt"
	"strings"
)

const (
	defaultListenAddr    = ":8090"
	defaultAllowedOrigin = "http://localhost:3000"
	defaultSessionIssuer = "tauth"
	defaultSessionCookie = "app_session"

	// CatalogModeLive reads the instructor directory from the database.
	CatalogModeLive = "live"
	// CatalogModeStatic serves the built-in roster.
	CatalogModeStatic = "static"
)

// Config aggregates runtime settings for the booking API.
type Config struct {
	ListenAddr          string
	DatabaseURL         string
	StripeSecretKey     string
	StripeWebhookSecret string
	AppBaseURL          string
	AllowedOrigins      []string
	SessionSigningKey   string
	SessionIssuer       string
	SessionCookieName   string
	CatalogMode         string
}

// Validate ensures the configuration contains sane values.
func (cfg *Config) Validate() error {
	cfg.ListenAddr = defaultIfEmpty(cfg.ListenAddr, defaultListenAddr)
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{defaultAllowedOrigin}
	}
	cfg.SessionIssuer = defaultIfEmpty(cfg.SessionIssuer, defaultSessionIssuer)
	cfg.SessionCookieName = defaultIfEmpty(cfg.SessionCookieName, defaultSessionCookie)
	cfg.CatalogMode = defaultIfEmpty(cfg.CatalogMode, CatalogModeLive)
	if cfg.CatalogMode != CatalogModeLive && cfg.CatalogMode != CatalogModeStatic {
		return fmt.Errorf("catalog mode must be %q or %q", CatalogModeLive, CatalogModeStatic)
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return fmt.Errorf("database url is required")
	}
	if strings.TrimSpace(cfg.StripeSecretKey) == "" {
		return fmt.Errorf("stripe secret key is required")
	}
	if strings.TrimSpace(cfg.StripeWebhookSecret) == "" {
		return fmt.Errorf("stripe webhook secret is required")
	}
	if strings.TrimSpace(cfg.AppBaseURL) == "" {
		return fmt.Errorf("app base url is required")
	}
	if len(cfg.SessionSigningKey) == 0 {
		return fmt.Errorf("jwt signing key is required")
	}
	if strings.TrimSpace(cfg.SessionIssuer) == "" {
		return fmt.Errorf("jwt issuer is required")
	}
	if strings.TrimSpace(cfg.SessionCookieName) == "" {
		return fmt.Errorf("jwt cookie name is required")
	}
	return nil
}

func defaultIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// ParseAllowedOrigins splits comma-delimited origins into a slice.
func ParseAllowedOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return normalized
}
