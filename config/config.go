package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries process-level settings. It is loaded once at startup and
// passed by reference through the call chain; nothing mutates it afterwards.
type Config struct {
	DatabaseURL string
	JWTSecret   string
	ListenAddr  string

	// SolvedListingsLimit caps the derived solved-listings query.
	SolvedListingsLimit int

	// AutoNotify controls whether domain services enqueue user-facing
	// notifications alongside their writes.
	AutoNotify bool
}

const defaultSolvedListingsLimit = 50

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present, so local runs don't need to
// export everything by hand.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		ListenAddr:          os.Getenv("LISTEN_ADDR"),
		SolvedListingsLimit: defaultSolvedListingsLimit,
		AutoNotify:          true,
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	if v := os.Getenv("SOLVED_LISTINGS_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("config: invalid SOLVED_LISTINGS_LIMIT %q", v)
		}
		cfg.SolvedListingsLimit = n
	}

	if v := os.Getenv("AUTO_NOTIFY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid AUTO_NOTIFY %q", v)
		}
		cfg.AutoNotify = b
	}

	return cfg, nil
}
