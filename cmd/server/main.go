package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"pharmapos/internal/cache"
	"pharmapos/internal/config"
	"pharmapos/internal/httpapi"
	"pharmapos/internal/logging"
	"pharmapos/internal/service"
	"pharmapos/internal/store"
	boltstore "pharmapos/internal/store/bolt"
	"pharmapos/internal/store/memory"
	pgstore "pharmapos/internal/store/postgres"
	"pharmapos/internal/xid"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogMode, cfg.LogFile)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if err := validateSecurityConfig(cfg); err != nil {
		logger.Fatal("invalid security configuration", zap.Error(err))
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Warn("falling back to UTC", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 2)

	gateway, err := openGateway(ctx, cfg)
	if err != nil {
		logger.Fatal("store unavailable", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	closers = append(closers, gateway.Close)
	logger.Info("store ready", zap.String("driver", cfg.StoreDriver))

	dashboardCache := cache.DashboardCache(cache.NoopDashboardCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisDashboardCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, using noop cache", zap.Error(err))
		} else {
			dashboardCache = redisCache
			closers = append(closers, redisCache.Close)
			logger.Info("cache: redis", zap.String("addr", cfg.RedisAddr))
		}
	} else {
		logger.Info("cache: noop")
	}

	ids, err := xid.NewGenerator(cfg.NodeID)
	if err != nil {
		logger.Fatal("id generator init failed", zap.Error(err))
	}

	svc, err := service.Open(ctx, gateway, service.Options{
		Cache:    dashboardCache,
		CacheTTL: time.Duration(cfg.DashboardCacheTTLSeconds) * time.Second,
		Location: loc,
		Logger:   logger,
		IDs:      ids,
	})
	if err != nil {
		logger.Fatal("shop state could not be loaded", zap.Error(err))
	}

	auth := httpapi.NewAuthManager(cfg.SessionSecret, time.Duration(cfg.SessionTTLMinutes)*time.Minute, cfg.ShopPassword)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, logger)

	// Retries writes that failed after a committed change.
	scheduler := cron.New(cron.WithLocation(loc))
	if _, err := scheduler.AddFunc(cfg.FlushSchedule, func() {
		if !svc.Dirty() {
			return
		}
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer flushCancel()
		if err := svc.Flush(flushCtx); err != nil {
			logger.Warn("scheduled flush failed", zap.Error(err))
			return
		}
		logger.Info("scheduled flush recovered pending writes")
	}); err != nil {
		logger.Fatal("invalid FLUSH_SCHEDULE", zap.String("schedule", cfg.FlushSchedule), zap.Error(err))
	}
	scheduler.Start()

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("pharmacy POS listening", zap.String("addr", cfg.Address()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	<-scheduler.Stop().Done()

	if err := svc.Flush(shutdownCtx); err != nil {
		logger.Error("final flush failed, recent changes may be lost", zap.Error(err))
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Warn("close error", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}

func openGateway(ctx context.Context, cfg config.Config) (store.Gateway, error) {
	switch cfg.StoreDriver {
	case "bolt", "":
		return boltstore.New(cfg.BoltPath)
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("STORE_DRIVER=postgres needs DATABASE_URL")
		}
		return pgstore.New(ctx, cfg.DatabaseURL, cfg.ShopID)
	case "memory":
		return memory.NewSeeded(), nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be set and at least 32 characters")
	}
	if len(cfg.ShopPassword) < 8 {
		return fmt.Errorf("SHOP_PASSWORD must be set and at least 8 characters")
	}
	if err := validatePasswordStrength(cfg.ShopPassword); err != nil {
		return fmt.Errorf("SHOP_PASSWORD is too weak: %w", err)
	}
	return nil
}

// validatePasswordStrength rejects passwords that repeat one character,
// run through a digit sequence, or appear on a known-weak list.
func validatePasswordStrength(password string) error {
	known := map[string]bool{
		"password": true, "password1": true, "12345678": true, "123456789": true,
		"87654321": true, "11111111": true, "00000000": true, "qwertyui": true,
		"pharmacy": true, "pharmacy1": true, "admin123": true, "changeme": true,
	}
	if known[strings.ToLower(password)] {
		return fmt.Errorf("common password not allowed")
	}

	allSame := true
	for i := 1; i < len(password); i++ {
		if password[i] != password[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("single-character password not allowed")
	}

	ascending, descending := true, true
	for i := 1; i < len(password); i++ {
		diff := int(password[i]) - int(password[i-1])
		if diff != 1 {
			ascending = false
		}
		if diff != -1 {
			descending = false
		}
	}
	if ascending || descending {
		return fmt.Errorf("sequential password not allowed")
	}

	return nil
}
