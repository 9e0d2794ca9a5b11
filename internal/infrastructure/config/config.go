package config

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWTSecret           string `env:"JWT_SECRET"`
	JWTExpiresIn        string `env:"JWT_EXPIRES_IN,         default=30d"`
	JWTRefreshSecret    string `env:"JWT_REFRESH_SECRET"`
	JWTRefreshExpiresIn string `env:"JWT_REFRESH_EXPIRES_IN, default=7d"`
	BcryptCost          int    `env:"BCRYPT_COST,            default=10"`

	SeedAdminEmail    string `env:"SEED_ADMIN_EMAIL,    default=admin@anvaya.app"`
	SeedAdminPassword string `env:"SEED_ADMIN_PASSWORD"`

	Mongo MongoConfig
	Redis RedisConfig

	// Parsed from JWTExpiresIn / JWTRefreshExpiresIn by Load.
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=anvaya_identity"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables. A missing
// signing secret is an error: the process must refuse to start rather
// than run with an undefined key.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) finalize() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTRefreshSecret == "" {
		return errors.New("JWT_REFRESH_SECRET is required")
	}

	var err error
	if c.AccessTTL, err = ParseTTL(c.JWTExpiresIn); err != nil {
		return fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}
	if c.RefreshTTL, err = ParseTTL(c.JWTRefreshExpiresIn); err != nil {
		return fmt.Errorf("JWT_REFRESH_EXPIRES_IN: %w", err)
	}
	return nil
}

// ParseTTL parses a Go duration, additionally accepting a whole-day
// suffix ("30d", "7d") as used in the deployment environment.
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil {
			if n < 0 {
				return 0, fmt.Errorf("negative duration %q", s)
			}
			return time.Duration(n) * 24 * time.Hour, nil
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}
