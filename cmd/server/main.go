package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"petrolhub/backend/internal/cache"
	"petrolhub/backend/internal/config"
	"petrolhub/backend/internal/httpapi"
	"petrolhub/backend/internal/insights"
	"petrolhub/backend/internal/logger"
	"petrolhub/backend/internal/service"
	"petrolhub/backend/internal/settlement"
	"petrolhub/backend/internal/store"
	"petrolhub/backend/internal/store/memory"
	pgstore "petrolhub/backend/internal/store/postgres"
)

func main() {
	missingEnv := config.LoadDotEnv()
	cfg := config.Load()
	if err := logger.Setup(cfg.LoggerConfig()); err != nil {
		log.Fatal().Err(err).Msg("invalid logging configuration")
	}
	boot := logger.WithComponent("server")
	for _, path := range missingEnv {
		boot.Debug().Str("path", path).Msg("no .env file loaded")
	}

	if err := validateSecurityConfig(cfg); err != nil {
		boot.Fatal().Err(err).Msg("invalid security configuration")
	}
	loc, err := cfg.Location()
	if err != nil {
		boot.Fatal().Err(err).Msg("invalid station time zone")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		if cfg.AutoMigrate {
			if err := runMigrations(cfg.DatabaseURL, logger.WithComponent("migrate")); err != nil {
				boot.Fatal().Err(err).Msg("schema migration failed")
			}
		}
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			boot.Fatal().Err(err).Msg("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback")
		}
		repo = pg
		closers = append(closers, pg.Close)
		boot.Info().Msg("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		boot.Info().Msg("repository: in-memory")
	}

	insightCache := cache.InsightCache(cache.NewMemoryInsightCache())
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisInsightCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			boot.Warn().Err(err).Msg("redis unavailable, using in-process insights cache")
		} else {
			insightCache = redisCache
			closers = append(closers, redisCache.Close)
			boot.Info().Msg("cache: redis")
		}
	} else {
		boot.Info().Msg("cache: in-process")
	}

	advisor := insights.NewAdvisor(
		insights.NewClient(cfg.OpenAIAPIKey),
		insightCache,
		insights.Options{
			Model:   cfg.OpenAIModel,
			TTL:     time.Duration(cfg.InsightsTTLSeconds) * time.Second,
			Timeout: time.Duration(cfg.InsightsTimeoutSeconds) * time.Second,
		},
		logger.WithComponent("insights"),
	)
	if !advisor.Enabled() {
		boot.Info().Msg("insights: OPENAI_API_KEY not set, serving fallback only")
	}

	svc := service.New(repo, service.Options{
		StationID: cfg.StationID,
		Location:  loc,
		Currency:  cfg.Currency,
		Sink:      settlementSink(cfg, repo),
		Advisor:   advisor,
		Logger:    logger.WithComponent("service"),
	})
	auth := httpapi.NewAuthManager(ctx, cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, cfg.ManagerPIN, repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, logger.WithComponent("httpapi"))

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		boot.Info().Str("addr", cfg.Address()).Str("station", cfg.StationID).Str("tz", loc.String()).Msg("station backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			boot.Fatal().Err(err).Msg("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		boot.Error().Err(err).Msg("shutdown error")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			boot.Error().Err(err).Msg("close error")
		}
	}

	boot.Info().Msg("server stopped")
}

// settlementSink picks where committed shift closings go besides their own
// record.
func settlementSink(cfg config.Config, repo store.Repository) service.SettlementSink {
	if !cfg.AutoPostShiftLedger {
		return settlement.NoopSink{}
	}
	return settlement.NewLedgerPoster(repo, logger.WithComponent("settlement")).
		WithDefaultVATRate(cfg.DefaultVATRate)
}

func runMigrations(databaseURL string, log zerolog.Logger) error {
	migrator, err := pgstore.NewMigrator(databaseURL, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close migrator")
		}
	}()
	return migrator.Up()
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if len(cfg.ManagerPIN) < 6 {
		return fmt.Errorf("MANAGER_PIN must be set and at least 6 digits")
	}
	for _, r := range cfg.ManagerPIN {
		if r < '0' || r > '9' {
			return fmt.Errorf("MANAGER_PIN must contain digits only")
		}
	}
	if err := validatePINStrength(cfg.ManagerPIN); err != nil {
		return fmt.Errorf("MANAGER_PIN is too weak: %w", err)
	}
	return nil
}

// validatePINStrength rejects repeated digits, straight runs and a few
// well-known PINs.
func validatePINStrength(pin string) error {
	known := map[string]bool{
		"123456": true, "654321": true, "000000": true, "111111": true,
		"121212": true, "112233": true, "123123": true, "159753": true,
	}
	if known[pin] {
		return fmt.Errorf("common PIN not allowed")
	}

	allSame := true
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("all-same-digit PIN not allowed")
	}

	ascending, descending := true, true
	for i := 1; i < len(pin); i++ {
		diff := int(pin[i]) - int(pin[i-1])
		if diff != 1 {
			ascending = false
		}
		if diff != -1 {
			descending = false
		}
	}
	if ascending || descending {
		return fmt.Errorf("sequential PIN not allowed")
	}

	return nil
}
