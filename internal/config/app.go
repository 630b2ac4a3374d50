package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"voting_rooms/internal/utils"
)

const EnvProduction = "production"

// AppConfig holds HTTP and authentication settings
type AppConfig struct {
	ServerPort        string
	Environment       string
	AllowedOrigin     string
	InitialAdminEmail string
	StoreTimeout      time.Duration
	BcryptCost        int
}

// IsProduction reports whether the service runs in production mode
func (c *AppConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}

// LoadAppConfig loads application settings from environment variables,
// applying defaults for anything unset.
func LoadAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		ServerPort:        getenv("SERVER_PORT", "8080"),
		Environment:       getenv("APP_ENV", "development"),
		AllowedOrigin:     getenv("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		InitialAdminEmail: strings.TrimSpace(os.Getenv("INITIAL_ADMIN_EMAIL")),
		StoreTimeout:      5 * time.Second,
		BcryptCost:        utils.DefaultBcryptCost,
	}

	if v := os.Getenv("STORE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid STORE_TIMEOUT %q", v)
		}
		cfg.StoreTimeout = d
	}

	if v := os.Getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil || cost < 4 || cost > 31 {
			return nil, fmt.Errorf("invalid BCRYPT_COST %q", v)
		}
		cfg.BcryptCost = cost
	}

	return cfg, nil
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
