package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/remnika/wallet/internal/money"
)

const (
	defaultAppName        = "RemnikaWallet"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultFXURL          = "https://v6.exchangerate-api.com/v6"
	defaultFXCacheTTL     = 10 * time.Minute
	defaultFXTimeout      = 5 * time.Second
	defaultDailyLimit     = "1000.00"
	defaultDenylist       = "NORTH_KOREA,IRAN"
	defaultMaxRetries     = 2
	defaultTransferRate   = 10
	defaultCurrency       = "USD"
	defaultEventsExchange = "wallet_events"
	defaultTokenTTL       = 15 * time.Minute
)

// Compliance carries the jurisdiction and limit rules handed to the
// compliance gate and to wallet initialization.
type Compliance struct {
	// Denylist holds upper-cased country names that fail AML screening.
	Denylist        []string
	DailyLimit      decimal.Decimal
	Window          time.Duration
	CountryCurrency map[string]string
	DefaultCurrency string
}

// CurrencyFor returns the wallet currency for a country, falling back to the
// default currency.
func (c Compliance) CurrencyFor(country string) string {
	if cur, ok := c.CountryCurrency[strings.TrimSpace(country)]; ok {
		return cur
	}
	return c.DefaultCurrency
}

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	Env            string
	Port           string
	LogLevel       string
	LogFormat      string
	DatabaseURL    string
	RedisURL       string
	AMQPURL        string
	EventsExchange string
	JWTSecret      string
	TokenTTL       time.Duration
	AutoMigrate    bool
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	FXAPIURL   string
	FXAPIKey   string
	FXCacheTTL time.Duration
	FXTimeout  time.Duration

	TransferMaxRetries int
	TransferRatePerMin int
	Compliance         Compliance
}

// DefaultCountryCurrency maps supported countries to their wallet currency.
func DefaultCountryCurrency() map[string]string {
	return map[string]string{
		"Ireland":     "EUR",
		"Sweden":      "SEK",
		"Denmark":     "DKK",
		"Norway":      "NOK",
		"India":       "INR",
		"Bangladesh":  "BDT",
		"Nepal":       "NPR",
		"China":       "CNY",
		"Philippines": "PHP",
		"Benin":       "XOF",
		"Rwanda":      "RWF",
		"Zambia":      "ZMW",
		"Canada":      "CAD",
		"Argentina":   "ARS",
		"USA":         "USD",
		"Poland":      "PLN",
		"Greece":      "EUR",
	}
}

// DefaultCompliance returns the rules used when no overrides are configured.
func DefaultCompliance() Compliance {
	return Compliance{
		Denylist:        splitList(defaultDenylist),
		DailyLimit:      decimal.RequireFromString(defaultDailyLimit),
		Window:          24 * time.Hour,
		CountryCurrency: DefaultCountryCurrency(),
		DefaultCurrency: defaultCurrency,
	}
}

// Load reads configuration values from the environment and populates a Config
// instance. A .env file in the working directory is applied first when present;
// variables already set in the environment win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:            getEnv("APP_NAME", defaultAppName),
		Env:                getEnv("APP_ENV", defaultAppEnv),
		Port:               getEnv("PORT", defaultPort),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", defaultLogFormat)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		AMQPURL:            os.Getenv("AMQP_URL"),
		EventsExchange:     getEnv("EVENTS_EXCHANGE", defaultEventsExchange),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		FXAPIURL:           strings.TrimRight(getEnv("FX_API_URL", defaultFXURL), "/"),
		FXAPIKey:           os.Getenv("FX_API_KEY"),
		TransferMaxRetries: defaultMaxRetries,
		TransferRatePerMin: defaultTransferRate,
		Compliance:         DefaultCompliance(),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = durationEnv("JWT_TTL", defaultTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.FXCacheTTL, err = durationEnv("FX_CACHE_TTL", defaultFXCacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.FXTimeout, err = durationEnv("FX_TIMEOUT", defaultFXTimeout); err != nil {
		return Config{}, err
	}
	if cfg.TransferMaxRetries, err = intEnv("TRANSFER_MAX_RETRIES", defaultMaxRetries); err != nil {
		return Config{}, err
	}
	if cfg.TransferRatePerMin, err = intEnv("TRANSFER_RATE_LIMIT_PER_MIN", defaultTransferRate); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("AUTO_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid AUTO_MIGRATE: %w", err)
		}
		cfg.AutoMigrate = b
	}
	if v := os.Getenv("DAILY_TRANSFER_LIMIT"); v != "" {
		limit, err := money.Parse(v)
		if err != nil || !money.Positive(limit) {
			return Config{}, fmt.Errorf("invalid DAILY_TRANSFER_LIMIT %q", v)
		}
		cfg.Compliance.DailyLimit = limit
	}
	if v := os.Getenv("AML_DENYLIST"); v != "" {
		cfg.Compliance.Denylist = splitList(v)
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.Env)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.Env)
		}
	}
	if cfg.JWTSecret == "" {
		if !cfg.IsDev() {
			return Config{}, fmt.Errorf("JWT_SECRET must be set")
		}
		cfg.JWTSecret = "dev-secret"
	}

	return cfg, nil
}

// IsDev reports whether the service runs in a local/development environment,
// where Postgres and Redis are optional.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// durationEnv reads KEY_SECONDS as an integer first, then KEY as a Go duration.
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(key + "_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_SECONDS: %w", key, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.ToUpper(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
