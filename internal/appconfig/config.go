// Package appconfig loads process configuration from environment variables
// rather than a config-file tree, since this system is a single long-running
// service rather than a directory of mock definitions.
package appconfig

import (
	"os"
	"strconv"
	"time"
)

// Config is the full set of values enumerated in the external interfaces
// section: database connection, network binding, the proxy's own externally
// reachable base URL, gateway coordinates, cache/timeout tuning, and the
// optional admin API key.
type Config struct {
	DatabaseURL  string
	Port         string
	Host         string
	ProxyBaseURL string

	GatewayURL   string
	GatewayToken string

	WSDLCacheTTL        time.Duration
	WSDLRequestTimeout  time.Duration
	GatewayRequestTimeout time.Duration

	APIKey    string
	JWTSecret string

	CatalogStoreDriver string // "postgres" (default) or "dynamodb"
	RedisAddr          string
	RedisPassword      string

	LogLevel string
	Debug    bool
}

// Load reads Config from the environment, applying the defaults documented
// in the external interfaces section.
func Load() *Config {
	c := &Config{
		DatabaseURL:  getenv("DATABASE_URL", ""),
		Port:         getenv("PORT", "8080"),
		Host:         getenv("HOST", "0.0.0.0"),
		ProxyBaseURL: getenv("PROXY_BASE_URL", "http://localhost:8080"),

		GatewayURL:   getenv("GATEWAY_URL", ""),
		GatewayToken: getenv("GATEWAY_TOKEN", ""),

		WSDLCacheTTL:          time.Duration(getenvInt("WSDL_CACHE_TTL", 86400)) * time.Second,
		WSDLRequestTimeout:    time.Duration(getenvInt("WSDL_REQUEST_TIMEOUT", 30)) * time.Second,
		GatewayRequestTimeout: time.Duration(getenvInt("GATEWAY_REQUEST_TIMEOUT", 30)) * time.Second,

		APIKey:    getenv("API_KEY", ""),
		JWTSecret: getenv("JWT_SECRET", ""),

		CatalogStoreDriver: getenv("CATALOG_STORE_DRIVER", "postgres"),
		RedisAddr:          getenv("REDIS_ADDR", ""),
		RedisPassword:      getenv("REDIS_PASSWORD", ""),

		LogLevel: getenv("LOG_LEVEL", "info"),
	}
	c.Debug = c.LogLevel == "debug" || c.LogLevel == "trace"
	return c
}

// GatewayConfigured reports whether a tool gateway has been wired up at all.
func (c *Config) GatewayConfigured() bool {
	return c.GatewayURL != "" && c.GatewayToken != ""
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
