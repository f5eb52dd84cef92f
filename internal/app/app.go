// Package app wires configuration into the services shared by the server and
// the command line tools.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"domainacq/internal/config"
	"domainacq/internal/database"
	"domainacq/internal/events"
	"domainacq/internal/metrics"
	"domainacq/internal/registrar"
	"domainacq/internal/services"
	"domainacq/internal/store"
)

type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Registrar registrar.Registrar
	Store     store.RecordStore

	Acquisition *services.AcquisitionService
	Batch       *services.BatchService
	Importer    *services.ImportService

	db    *gorm.DB
	redis *redis.Client
	kafka *events.KafkaPublisher
}

// New opens the database, connects the optional Redis and Kafka backends and
// builds the services. reg may be nil, in which case metrics are not
// registered anywhere.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger, reg prometheus.Registerer) (*App, error) {
	db, err := database.InitDB(cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	a := &App{Config: cfg, Logger: log, Store: store.NewGormStore(db), db: db}
	if reg != nil {
		a.Metrics = metrics.New(reg)
	}

	var prefixState store.PrefixState = store.NewSettingPrefixState(db)
	a.redis, err = store.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		a.Close()
		return nil, err
	}
	if a.redis != nil {
		log.Info("sharing email prefix state through redis")
		prefixState = store.NewRedisPrefixState(a.redis, "")
	}

	publishers := events.Fanout{events.NewLogPublisher(log)}
	if len(cfg.KafkaBrokers) > 0 {
		a.kafka, err = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			a.Close()
			return nil, err
		}
		log.Info("publishing transitions to kafka", "topic", cfg.KafkaTopic)
		publishers = append(publishers, a.kafka)
	}

	dynOpts := []registrar.Option{
		registrar.WithLogger(log),
		registrar.WithMetrics(a.Metrics),
		registrar.WithRateLimit(cfg.RegistrarRateLimit),
	}
	if cfg.RegistrarTimeout > 0 {
		dynOpts = append(dynOpts, registrar.WithTimeout(cfg.RegistrarTimeout))
	}
	a.Registrar = registrar.NewDynadot(cfg.DynadotAPIKey, cfg.DynadotBaseURL, dynOpts...)
	if cfg.DynadotAPIKey == "" {
		log.Warn("DYNADOT_API_KEY is not set, registrar calls will fail")
	}

	opts := []services.Option{
		services.WithLogger(log),
		services.WithMetrics(a.Metrics),
		services.WithPublisher(publishers),
	}
	if cfg.ProbeWhoisPrefilter {
		opts = append(opts, services.WithProber(
			services.NewWhoisPrefilter(services.NewRegistrarProber(a.Registrar), log)))
	}

	prefixes, err := services.NewPrefixPicker(cfg.EmailPrefixes, prefixState)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Acquisition = services.NewAcquisitionService(a.Store, a.Registrar, prefixes, services.AcquisitionConfig{
		RegisterYears:       cfg.RegisterYears,
		RepickPrefixOnRetry: cfg.RetryRepickPrefix,
	}, opts...)
	a.Batch = services.NewBatchService(a.Acquisition, a.Store, a.Registrar, cfg.BulkForwardAlias, opts...)
	a.Importer = services.NewImportService(a.Store,
		services.NewNormalizer(cfg.DefaultTLD, cfg.MinDomainLength), opts...)
	return a, nil
}

// Close stops background batches and releases the backends.
func (a *App) Close() error {
	if a.Batch != nil {
		a.Batch.Shutdown()
	}
	var errs []error
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
