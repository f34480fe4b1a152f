package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"solicitudes/internal/platform/config"
	"solicitudes/internal/platform/database"
	"solicitudes/internal/platform/kafka"
	platformredis "solicitudes/internal/platform/redis"
	"solicitudes/internal/requests/audit"
	"solicitudes/internal/requests/events"
	"solicitudes/internal/requests/metrics"
	"solicitudes/internal/requests/models"
	"solicitudes/internal/requests/ports"
	"solicitudes/internal/requests/service"
	"solicitudes/internal/requests/store/cache"
	"solicitudes/internal/requests/store/gormstore"
	"solicitudes/internal/requests/store/memory"
	"solicitudes/internal/requests/store/sqlstore"
)

type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

// app owns the adapters selected by configuration and releases them on Close.
type app struct {
	cfg      config.Server
	logger   *slog.Logger
	registry *prometheus.Registry

	repo   ports.Repository
	tx     ports.Transactor
	audit  ports.AuditLogger
	events ports.EventDispatcher

	metrics *metrics.Metrics
	health  []healthCheck
	closers []func() error
}

func newApp(ctx context.Context, cfg config.Server, logger *slog.Logger) (a *app, err error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a = &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  metrics.New(registry),
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if err := a.openStorage(ctx); err != nil {
		return nil, err
	}
	if err := a.openCache(ctx); err != nil {
		return nil, err
	}
	a.openAudit()
	if err := a.openEvents(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) openStorage(ctx context.Context) error {
	switch a.cfg.Storage.Driver {
	case config.StorageSQL:
		db, err := database.Open(ctx, database.Config{
			Driver:       a.cfg.Database.Driver,
			URL:          a.cfg.Database.URL,
			MaxOpenConns: a.cfg.Database.MaxOpenConns,
		})
		if err != nil {
			return err
		}
		a.onClose(db.Close)
		a.health = append(a.health, healthCheck{name: "database", check: db.PingContext})
		if err := a.autoMigrate(ctx, db); err != nil {
			return err
		}
		a.repo = sqlstore.New(db)
		a.tx = sqlstore.NewTransactor(db)
	case config.StorageGorm:
		db, err := gormstore.Connect(ctx, a.cfg.Database.URL, a.cfg.Database.MaxOpenConns)
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("gorm sql db: %w", err)
		}
		a.onClose(sqlDB.Close)
		a.health = append(a.health, healthCheck{name: "database", check: sqlDB.PingContext})
		if err := a.autoMigrate(ctx, sqlx.NewDb(sqlDB, database.DriverPgx)); err != nil {
			return err
		}
		a.repo = gormstore.New(db)
		a.tx = gormstore.NewTransactor(db)
	default:
		a.repo = memory.NewInMemory()
		a.tx = memory.NewTransactor()
	}
	a.logger.InfoContext(ctx, "storage ready", "driver", a.cfg.Storage.Driver)
	return nil
}

func (a *app) autoMigrate(ctx context.Context, db *sqlx.DB) error {
	if !a.cfg.Database.AutoMigrate {
		return nil
	}
	return database.Migrate(ctx, db, a.logger)
}

func (a *app) openCache(ctx context.Context) error {
	if !a.cfg.CacheEnabled() {
		return nil
	}
	client, err := platformredis.New(ctx, a.cfg.Redis)
	if err != nil {
		return err
	}
	a.onClose(client.Close)
	a.health = append(a.health, healthCheck{name: "redis", check: client.Health})
	a.repo = cache.New(a.repo, client,
		cache.WithTTL(a.cfg.Redis.CacheTTL),
		cache.WithLogger(a.logger),
	)
	a.logger.InfoContext(ctx, "redis cache enabled", "ttl", a.cfg.Redis.CacheTTL)
	return nil
}

func (a *app) openAudit() {
	switch a.cfg.Audit.Sink {
	case config.AuditNone:
		a.audit = audit.Nop{}
	case config.AuditFile:
		fl := audit.NewFileLogger(a.cfg.Audit.FilePath, audit.FileOptions{
			MaxSizeMB:  a.cfg.Audit.MaxSizeMB,
			MaxBackups: a.cfg.Audit.MaxBackups,
			MaxAgeDays: a.cfg.Audit.MaxAgeDays,
			Compress:   a.cfg.Audit.Compress,
		})
		a.onClose(fl.Close)
		a.audit = fl
	default:
		a.audit = audit.NewSlogLogger(a.logger)
	}
}

func (a *app) openEvents(ctx context.Context) error {
	if !a.cfg.EventsEnabled {
		a.events = events.Nop{}
		return nil
	}

	local := events.NewInProcess()
	for _, name := range []string{models.EventRequestCreated, models.EventRequestStatusChanged, models.EventRequestDeleted} {
		local.Listen(name, a.logEvent)
	}
	if !a.cfg.KafkaEnabled() {
		a.events = local
		return nil
	}

	client, err := kafka.New(ctx, a.cfg.Kafka)
	if err != nil {
		return err
	}
	a.onClose(func() error {
		client.Close()
		return nil
	})
	a.health = append(a.health, healthCheck{name: "kafka", check: client.Ping})
	a.events = events.Multi{local, events.NewKafkaDispatcher(client, a.cfg.Kafka.Topic, a.logger)}
	a.logger.InfoContext(ctx, "kafka events enabled", "topic", a.cfg.Kafka.Topic)
	return nil
}

func (a *app) logEvent(ctx context.Context, e models.Event) error {
	a.logger.DebugContext(ctx, "domain event",
		"event", e.Name(),
		"solicitud_id", e.AggregateID().Int64(),
		"occurred_at", e.OccurredAt(),
	)
	return nil
}

func (a *app) service() *service.Service {
	svc := service.New(a.repo,
		service.WithAuditLogger(a.audit),
		service.WithEventDispatcher(a.events),
		service.WithTransactor(a.tx),
		service.WithLogger(a.logger),
		service.WithMetrics(a.metrics),
	)
	svc.List.WithPageSizes(a.cfg.Listing.DefaultPerPage, a.cfg.Listing.MaxPerPage)
	return svc
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
