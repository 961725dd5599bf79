// Package app assembles the record store, OCR reader and letter service shared by both binaries.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/hr-digital/surat-izin/internal/config"
	"github.com/hr-digital/surat-izin/internal/database"
	"github.com/hr-digital/surat-izin/internal/domain"
	"github.com/hr-digital/surat-izin/internal/logging"
	"github.com/hr-digital/surat-izin/internal/monitoring"
	"github.com/hr-digital/surat-izin/internal/records"
	"github.com/hr-digital/surat-izin/internal/service"
	"github.com/hr-digital/surat-izin/pkg/external"
)

// App holds the wired components. Reader is nil when OCR is not configured.
type App struct {
	Config  *config.Manager
	Logger  *logrus.Logger
	DB      *database.DB
	Store   *records.SQLiteStore
	Reader  *external.LetterReader
	Metrics *monitoring.Metrics
	Letters *service.LetterService

	closers []io.Closer
}

// New loads configuration and opens every dependency. Logs are written to logOut.
func New(ctx context.Context, logOut io.Writer, opts ...config.Option) (*App, error) {
	configManager, err := config.NewManager(opts...)
	if err != nil {
		return nil, err
	}
	if err := configManager.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg := configManager.GetConfig()
	logger := logging.NewLoggerWithOutput(cfg.Logging, logOut)

	a := &App{
		Config:  configManager,
		Logger:  logger,
		Metrics: monitoring.NewMetrics(),
	}

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		BusyTimeout: cfg.Database.BusyTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.closers = append(a.closers, db)
	a.Store = records.NewSQLiteStore(db.SQL, logger)

	var reader domain.LetterReader
	if configManager.OCREnabled() {
		letterReader, err := newLetterReader(ctx, cfg.OCR, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Reader = letterReader.reader
		if letterReader.closer != nil {
			a.closers = append(a.closers, letterReader.closer)
		}
		reader = letterReader.reader
	} else {
		logger.Warn("OCR API key not configured, letters must be entered manually")
	}

	a.Letters = service.NewLetterService(a.Store, reader, logger,
		service.WithMetrics(a.Metrics),
		service.WithUploadLimits(cfg.Upload),
	)

	return a, nil
}

type wiredReader struct {
	reader *external.LetterReader
	closer io.Closer
}

func newLetterReader(ctx context.Context, cfg domain.OCRConfig, logger *logrus.Logger) (*wiredReader, error) {
	generator, err := external.NewGeminiClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating OCR client: %w", err)
	}

	wired := &wiredReader{}
	var cache external.TranscriptCache
	if cfg.RedisURL != "" {
		redisCache, err := external.NewRedisCache(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
		cache = redisCache
		wired.closer = redisCache
		logger.Info("Using Redis transcript cache")
	} else {
		cache = external.NewMemoryCache(cfg.CacheSize, cfg.CacheTTL)
	}

	wired.reader = external.NewLetterReader(generator, cache, external.LetterReaderConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		CircuitBreaker: external.CircuitBreakerConfig{
			FailureThreshold: cfg.BreakerFailures,
			Timeout:          cfg.BreakerOpenDelay,
		},
	}, logger)

	logger.WithField("model", cfg.Model).Info("OCR reader configured")
	return wired, nil
}

// BreakerReporter returns the OCR reader as a health reporter, or nil when OCR is disabled.
func (a *App) BreakerReporter() interface{ BreakerState() string } {
	if a.Reader == nil {
		return nil
	}
	return a.Reader
}

// Close releases every opened dependency in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.Logger.WithError(err).Warn("Failed to close dependency")
		}
	}
	a.closers = nil
}
