package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ctks/admin-console/internal/audit"
	"github.com/ctks/admin-console/internal/config"
	"github.com/ctks/admin-console/internal/db"
	"github.com/ctks/admin-console/internal/kafka"
	"github.com/ctks/admin-console/internal/logger"
	"github.com/ctks/admin-console/internal/metrics"
	"github.com/ctks/admin-console/internal/repository"
	"github.com/ctks/admin-console/internal/worker"
)

var metricsAddr string

var auditSinkCmd = &cobra.Command{
	Use:   "audit-sink",
	Short: "Project the console audit topic into ClickHouse",
	RunE:  runAuditSink,
}

func init() {
	auditSinkCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9101", "address for /metrics (empty disables)")
}

func runAuditSink(cmd *cobra.Command, args []string) error {
	// 1) config + logging
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level)
	log := logger.Named("audit-sink")
	defer func() { _ = logger.Log.Sync() }()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	// 2) ClickHouse projection
	chDB, err := db.OpenClickHouse(cfg.ClickHouse)
	if err != nil {
		return fmt.Errorf("clickhouse connect: %w", err)
	}
	defer chDB.Close()

	// 3) kafka consumer
	topic := cfg.Audit.Topic
	if topic == "" {
		topic = audit.DefaultTopic
	}
	kc := cfg.Kafka
	if kc.GroupID == "" {
		kc.GroupID = "ctks-console"
	}
	kc.GroupID += "-audit-sink"
	consumer := kafka.NewConsumer(kc, topic)
	defer consumer.Close()

	w := worker.NewAuditSink(consumer, repository.NewCHAuditRepository(chDB), log)
	if cfg.Audit.BatchSize > 0 {
		w.BatchSize = cfg.Audit.BatchSize
	}
	if cfg.Audit.BatchWait > 0 {
		w.BatchWait = cfg.Audit.BatchWait
	}

	// 4) graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: promhttp.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("metrics server", zap.Error(err))
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	log.Info("audit sink started",
		zap.String("topic", topic),
		zap.String("group", kc.GroupID),
		zap.Int("batch_size", w.BatchSize),
		zap.Duration("batch_wait", w.BatchWait))

	return w.Run(ctx)
}
