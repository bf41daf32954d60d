package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	APIPort     int
	GatewayPort int

	DatabaseURL string
	RedisURL    string

	// Base origin of the portfolio API, consumed by the gateway.
	APIBaseURL string

	// Master switch for the gateway's session check. Off means an open
	// system: every request is allowed through.
	AuthEnabled bool

	SessionCookie string
	AdminCookie   string
	CookieSecure  bool

	AdminUsername string
	AdminPassword string

	SessionHours       int
	CodeTTLMinutes     int
	CodeMaxAttempts    int
	MaxRequestsPerHour int

	KakaoWebhookURL string
	PassWebhookURL  string

	SendgridAPIKey string
	AlertFromEmail string
	AlertToEmail   string
}

func Load() Config {
	cfg := Config{
		APIPort:     8081,
		GatewayPort: 8080,

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		APIBaseURL:  os.Getenv("API_BASE_URL"),
		AuthEnabled: true,

		SessionCookie: "PORTFOLIO_SESSION",
		AdminCookie:   "PORTFOLIO_ADMIN_AUTH",

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		SessionHours:       12,
		CodeTTLMinutes:     5,
		CodeMaxAttempts:    5,
		MaxRequestsPerHour: 10,

		KakaoWebhookURL: os.Getenv("KAKAO_WEBHOOK_URL"),
		PassWebhookURL:  os.Getenv("PASS_WEBHOOK_URL"),

		SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		AlertFromEmail: os.Getenv("ALERT_FROM_EMAIL"),
		AlertToEmail:   os.Getenv("ALERT_TO_EMAIL"),
	}

	if v := os.Getenv("AUTH_ENABLED"); v != "" {
		cfg.AuthEnabled = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		cfg.CookieSecure = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	if v := os.Getenv("SESSION_COOKIE"); v != "" {
		cfg.SessionCookie = v
	}
	if v := os.Getenv("ADMIN_COOKIE"); v != "" {
		cfg.AdminCookie = v
	}

	cfg.APIPort = intEnv("API_PORT", cfg.APIPort, 1, 65535)
	cfg.GatewayPort = intEnv("GATEWAY_PORT", cfg.GatewayPort, 1, 65535)
	cfg.SessionHours = intEnv("SESSION_HOURS", cfg.SessionHours, 1, 24*14)
	cfg.CodeTTLMinutes = intEnv("CODE_TTL_MINUTES", cfg.CodeTTLMinutes, 1, 60*24)
	cfg.CodeMaxAttempts = intEnv("CODE_MAX_ATTEMPTS", cfg.CodeMaxAttempts, 1, 20)
	cfg.MaxRequestsPerHour = intEnv("MAX_CODE_REQUESTS_PER_HOUR", cfg.MaxRequestsPerHour, 1, 1000)

	return cfg
}

func intEnv(name string, def, min, max int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		return def
	}
	return n
}

func (c Config) APIListenAddr() string {
	return ":" + strconv.Itoa(c.APIPort)
}

func (c Config) GatewayListenAddr() string {
	return ":" + strconv.Itoa(c.GatewayPort)
}
