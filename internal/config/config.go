package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jwebster45206/world-reactor/pkg/ambient"
)

type Config struct {
	Environment  string
	LogLevel     slog.Level
	Port         string
	RedisURL     string
	ContentDir   string
	Locale       string
	TickInterval time.Duration

	// AmbientCooldowns holds only the categories overridden by
	// AMBIENT_COOLDOWN_<CATEGORY>.
	AmbientCooldowns map[ambient.Category]time.Duration
}

// Load reads an optional .env file and then the environment. Variables
// already set win over the file.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an
// error.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	tick, err := time.ParseDuration(getEnv("TICK_INTERVAL", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid TICK_INTERVAL: %w", err)
	}
	if tick <= 0 {
		return nil, fmt.Errorf("invalid TICK_INTERVAL: must be positive, got %s", tick)
	}

	cooldowns, err := ambientCooldowns()
	if err != nil {
		return nil, err
	}

	return &Config{
		Environment:      getEnv("ENVIRONMENT", "development"),
		LogLevel:         parseLogLevel(getEnv("LOG_LEVEL", "info")),
		Port:             getEnv("PORT", "8080"),
		RedisURL:         os.Getenv("REDIS_URL"),
		ContentDir:       os.Getenv("CONTENT_DIR"),
		Locale:           getEnv("LOCALE", "en"),
		TickInterval:     tick,
		AmbientCooldowns: cooldowns,
	}, nil
}

// AmbientOptions returns tracker options carrying the configured overrides.
func (c *Config) AmbientOptions() ambient.Options {
	return ambient.Options{Cooldowns: c.AmbientCooldowns}
}

func ambientCooldowns() (map[ambient.Category]time.Duration, error) {
	out := make(map[ambient.Category]time.Duration)
	for _, c := range ambient.Categories {
		key := "AMBIENT_COOLDOWN_" + envSuffix(c)
		raw, ok := os.LookupEnv(key)
		if !ok || raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("invalid %s: negative duration %s", key, d)
		}
		out[c] = d
	}
	return out, nil
}

// envSuffix turns a camelCase category into SCREAMING_SNAKE, e.g.
// zoneDanger -> ZONE_DANGER.
func envSuffix(c ambient.Category) string {
	var b strings.Builder
	for i, r := range string(c) {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
