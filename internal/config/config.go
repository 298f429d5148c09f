package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"petrolhub/backend/internal/logger"
)

type Config struct {
	Port                   string
	AllowedOrigin          string
	DatabaseURL            string
	AutoMigrate            bool
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	StationID              string
	TimeZone               string
	Currency               string
	DefaultVATRate         decimal.Decimal
	AuthSecret             string
	AccessTokenTTLMinutes  int
	ManagerPIN             string
	AutoPostShiftLedger    bool
	OpenAIAPIKey           string
	OpenAIModel            string
	InsightsTTLSeconds     int
	InsightsTimeoutSeconds int
	LogLevel               string
	LogFormat              string
}

// LoadDotEnv reads the given .env files (".env" when none are named) into the
// process environment. Variables already set win. It returns the files that
// could not be read so the caller can log them once logging is up.
func LoadDotEnv(paths ...string) []string {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var missing []string
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			missing = append(missing, path)
		}
	}
	return missing
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}
	insightsTTL, err := strconv.Atoi(getEnv("INSIGHTS_TTL_SECONDS", "900"))
	if err != nil || insightsTTL < 1 {
		insightsTTL = 900
	}
	insightsTimeout, err := strconv.Atoi(getEnv("INSIGHTS_TIMEOUT_SECONDS", "15"))
	if err != nil || insightsTimeout < 1 {
		insightsTimeout = 15
	}
	vatRate, err := decimal.NewFromString(getEnv("DEFAULT_VAT_RATE", "20"))
	if err != nil || vatRate.IsNegative() {
		vatRate = decimal.NewFromInt(20)
	}

	cfg := Config{
		Port:                   getEnv("PORT", "8080"),
		AllowedOrigin:          getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		AutoMigrate:            getBool("AUTO_MIGRATE", false),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                redisDB,
		StationID:              getEnv("STATION_ID", "main-station"),
		TimeZone:               getEnv("STATION_TIMEZONE", "Africa/Casablanca"),
		Currency:               getEnv("STATION_CURRENCY", "MAD"),
		DefaultVATRate:         vatRate,
		AuthSecret:             strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes:  tokenTTL,
		ManagerPIN:             strings.TrimSpace(os.Getenv("MANAGER_PIN")),
		AutoPostShiftLedger:    getBool("AUTO_POST_SHIFT_LEDGER", false),
		OpenAIAPIKey:           strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:            getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		InsightsTTLSeconds:     insightsTTL,
		InsightsTimeoutSeconds: insightsTimeout,
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "console"),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Location resolves the station time zone used for calendar-day filtering.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.TimeZone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid STATION_TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

func (c Config) LoggerConfig() logger.LogConfig {
	cfg := logger.DefaultConfig()
	if c.LogLevel != "" {
		cfg.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Format = c.LogFormat
	}
	return cfg
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getBool(key string, fallback bool) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return parsed
}
