// internal/config/config.go
//
// Runtime configuration for the memory game server.
// Values come from the process environment, optionally seeded from a .env file
// (godotenv never overrides variables that are already set). Command line flags
// are applied on top by the cmd package.
//
// Environment variables:
//   PORT            listen port                          (default 5175)
//   LOG_LEVEL       zerolog level                        (default info)
//   CLIENT_ORIGIN   CORS origin allowed with credentials (default http://localhost:5173)
//   SESSION_SECRET  token signing secret                 (default dev_secret_change_me)
//   SESSION_TTL     idle time before a game is evicted   (default 30m)
//   SYMBOLS_FILE    YAML alphabet file                   (default embedded)
//   GAME_PAIRS      pairs per board                      (default 8)
//   REVEAL_DELAY    delay before a pair is evaluated     (default 500ms)
//   MISMATCH_DELAY  delay before a miss is hidden again  (default 600ms)
//   NODE_ENV        "production" marks cookies Secure

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/robalobadob/memory/apps/go-server/internal/game"
)

// DevSecret is used when SESSION_SECRET is unset.
const DevSecret = "dev_secret_change_me"

// Config is the resolved server configuration.
type Config struct {
	Port          string
	LogLevel      string
	ClientOrigin  string
	SessionSecret string
	SessionTTL    time.Duration
	SymbolsFile   string
	SecureCookies bool
	Rules         game.Rules
}

// Load reads envFile (ignored when missing) and the environment.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	c := Config{
		Port:          getEnv("PORT", "5175"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		ClientOrigin:  getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		SessionSecret: getEnv("SESSION_SECRET", DevSecret),
		SymbolsFile:   os.Getenv("SYMBOLS_FILE"),
		SecureCookies: os.Getenv("NODE_ENV") == "production",
		Rules:         game.DefaultRules(),
	}

	var err error
	if c.SessionTTL, err = envDuration("SESSION_TTL", 30*time.Minute); err != nil {
		return c, err
	}
	if c.Rules.Pairs, err = envInt("GAME_PAIRS", c.Rules.Pairs); err != nil {
		return c, err
	}
	if c.Rules.RevealDelay, err = envDuration("REVEAL_DELAY", c.Rules.RevealDelay); err != nil {
		return c, err
	}
	if c.Rules.MismatchDelay, err = envDuration("MISMATCH_DELAY", c.Rules.MismatchDelay); err != nil {
		return c, err
	}
	return c, nil
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", k, err)
	}
	return n, nil
}

func envDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", k, err)
	}
	return d, nil
}
