package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ctks/admin-console/internal/audit"
	"github.com/ctks/admin-console/internal/config"
	"github.com/ctks/admin-console/internal/db"
	httpSrv "github.com/ctks/admin-console/internal/http"
	"github.com/ctks/admin-console/internal/logger"
	"github.com/ctks/admin-console/internal/repository"
	"github.com/ctks/admin-console/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin console server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level)
		log := logger.Named("serve")
		defer func() { _ = logger.Log.Sync() }()

		// sessions: redis when configured, in-process otherwise
		var (
			store session.Store = session.NewMemoryStore()
			rdb   *redis.Client
		)
		if cfg.Redis.Addr != "" {
			rdb, err = db.OpenRedis(cfg.Redis)
			if err != nil {
				return fmt.Errorf("redis connect: %w", err)
			}
			defer func() { _ = rdb.Close() }()
			store = session.NewRedisStore(rdb, cfg.Session.KeyPrefix, cfg.Session.TTL)
		} else {
			log.Warn("redis not configured; sessions are kept in memory")
		}

		api := newAPIClient(cfg, logger.Log)
		deps := httpSrv.Deps{
			Config:   cfg,
			Sessions: session.NewManager(store, api, logger.Named("session")),
			Redis:    rdb,
			Log:      logger.Named("http"),
		}

		if cfg.Audit.Enabled {
			closeAudit, err := wireAudit(cfg, &deps, log)
			if err != nil {
				return err
			}
			defer closeAudit()
		}

		server := httpSrv.NewServer(deps)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Info("signal received, shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server exited", zap.Error(err))
			}
		}

		timeout := cfg.HTTP.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return server.Shutdown(ctx)
	},
}

// wireAudit connects the MySQL outbox recorder and the audit listing
// (ClickHouse projection, or MySQL when ClickHouse is not configured).
func wireAudit(cfg config.Config, deps *httpSrv.Deps, log *zap.Logger) (func(), error) {
	mysqlDB, err := db.OpenMySQL(cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("mysql connect: %w", err)
	}
	events := repository.NewAuditRepository(mysqlDB)
	deps.Audit = audit.NewOutboxRecorder(mysqlDB, events, repository.NewOutboxRepository(mysqlDB), cfg.Audit.Topic)

	closers := []*sqlx.DB{mysqlDB}
	if cfg.ClickHouse.DSN != "" {
		chDB, err := db.OpenClickHouse(cfg.ClickHouse)
		if err != nil {
			_ = mysqlDB.Close()
			return nil, fmt.Errorf("clickhouse connect: %w", err)
		}
		closers = append(closers, chDB)
		deps.AuditLog = repository.NewCHAuditRepository(chDB)
	} else {
		deps.AuditLog = httpSrv.AuditListerFunc(events.ListRecent)
	}
	log.Info("audit enabled", zap.String("topic", cfg.Audit.Topic), zap.Bool("clickhouse", cfg.ClickHouse.DSN != ""))

	return func() {
		var errs error
		for _, c := range closers {
			if err := c.Close(); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
		if errs != nil {
			log.Warn("close audit stores", zap.Error(errs))
		}
	}, nil
}
