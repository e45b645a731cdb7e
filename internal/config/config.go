// Package config loads process configuration from the environment.
//
// A `.env` file in the working directory is loaded first (development
// convenience); real environment variables always win.
package config

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/robalobadob/gamezone/internal/daily"
	"github.com/robalobadob/gamezone/internal/game"
)

// Config is the full set of tunables for both front-ends.
type Config struct {
	Port     string `env:"PORT" envDefault:"5175"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/gamezone.db"`

	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"gamezone_token"`
	ClientOrigin   string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`

	CatalogFile string `env:"WORDS_CATALOG_FILE"`
	NumberLow   int    `env:"NUMBER_LOW" envDefault:"1"`
	NumberHigh  int    `env:"NUMBER_HIGH" envDefault:"50"`
	MaxGames    int    `env:"MAX_GAMES" envDefault:"5"`

	SelectionPolicy   string `env:"SELECTION_POLICY" envDefault:"lexical"` // lexical | random | daily
	SelectionSeed     int64  `env:"SELECTION_SEED"`
	DailySalt         string `env:"DAILY_SALT" envDefault:"local_dev_salt"`
	WordQuestionLimit int    `env:"WORD_QUESTION_LIMIT" envDefault:"0"`
	WordInterleave    bool   `env:"WORD_INTERLEAVE" envDefault:"false"`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"30m"` // idle web sessions are dropped after this

	RateLimitPerSec float64 `env:"RATE_LIMIT_PER_SEC" envDefault:"10"`
	RateLimitBurst  int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
}

// Load reads .env (if present) and parses the environment into a Config.
func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch strings.ToLower(c.SelectionPolicy) {
	case "lexical", "random", "daily":
	default:
		return fmt.Errorf("SELECTION_POLICY must be lexical, random or daily, got %q", c.SelectionPolicy)
	}
	if c.MaxGames < 0 {
		return fmt.Errorf("MAX_GAMES must not be negative, got %d", c.MaxGames)
	}
	return nil
}

// Production reports whether cookies should be marked Secure.
func (c Config) Production() bool { return c.AppEnv == "production" }

// NumberRange is the configured range for number games.
func (c Config) NumberRange() game.NumberRange {
	return game.NumberRange{Low: c.NumberLow, High: c.NumberHigh}
}

// Level parses LogLevel, falling back to info.
func (c Config) Level() zerolog.Level {
	if lvl, err := zerolog.ParseLevel(c.LogLevel); err == nil {
		return lvl
	}
	return zerolog.InfoLevel
}

// Selector returns a factory for the configured selection policy.
//
//   - lexical: always the first option.
//   - random: one seed (SELECTION_SEED, or drawn from crypto/rand when unset)
//     and every session gets its own generator seeded from it in creation order.
//   - daily: every session started on the same UTC date replays the same
//     choices, seeded from DAILY_SALT and the date.
func (c Config) Selector() (func() game.Selector, error) {
	switch strings.ToLower(c.SelectionPolicy) {
	case "random":
	case "daily":
		salt := c.DailySalt
		return func() game.Selector { return game.NewSeeded(daily.Seed(time.Now(), salt)) }, nil
	default:
		return func() game.Selector { return game.Lexical{} }, nil
	}
	seed := c.SelectionSeed
	if seed == 0 {
		var err error
		if seed, err = game.NewSeed(); err != nil {
			return nil, err
		}
	}
	var n atomic.Int64
	return func() game.Selector {
		return game.NewSeeded(seed + n.Add(1))
	}, nil
}
