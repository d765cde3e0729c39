package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	gommonlog "github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ctks/admin-console/internal/audit"
	"github.com/ctks/admin-console/internal/config"
	"github.com/ctks/admin-console/internal/http/middleware"
	"github.com/ctks/admin-console/internal/metrics"
	"github.com/ctks/admin-console/internal/session"
)

// Deps is everything the console server is wired from.
type Deps struct {
	Config   config.Config
	Sessions *session.Manager
	Audit    audit.Recorder // nil = audit disabled
	AuditLog AuditLister    // nil = no audit listing
	Redis    *redis.Client  // login limiter; nil disables it
	Log      *zap.Logger
}

type Server struct {
	e          *echo.Echo
	cfg        config.Config
	sessions   *session.Manager
	workspaces *workspaces
	auditLog   AuditLister
	log        *zap.Logger
}

func NewServer(d Deps) *Server {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	rec := d.Audit
	if rec == nil {
		rec = audit.Nop{}
	}

	s := &Server{
		cfg:        d.Config,
		sessions:   d.Sessions,
		workspaces: newWorkspaces(d.Config, d.Sessions, rec, log),
		auditLog:   d.AuditLog,
		log:        log,
	}
	// forced and explicit logouts both discard the screens of that session
	d.Sessions.OnDrop(s.workspaces.drop)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(echoLogLevel(d.Config.Log.Level))
	e.Use(echoMid.Recover(), requestLogger(log))

	metrics.MustRegister(prometheus.DefaultRegisterer)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	loginMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          d.Redis,
		Limit:          d.Config.RateLimit.LoginPerMinute,
		KeyPrefix:      "rl:login:",
		RetryAfterHint: true,
	})
	e.POST("/login", s.login, loginMW)
	e.POST("/logout", s.logout)

	admin := e.Group("/admin", middleware.SessionGuard(d.Config.HTTP.CookieName, d.Sessions))
	s.routes(admin)

	s.e = e
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.e.ServeHTTP(w, r) }

func (s *Server) Start(addr string) error {
	s.log.Info("http: listening", zap.String("addr", addr))
	return s.e.Start(addr)
}

// Shutdown stops accepting requests, then discards every workspace.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.e.Shutdown(ctx)
	s.workspaces.closeAll()
	return err
}

func echoLogLevel(level string) gommonlog.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return gommonlog.DEBUG
	case "warn":
		return gommonlog.WARN
	case "error":
		return gommonlog.ERROR
	default:
		return gommonlog.INFO
	}
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return echoMid.RequestLoggerWithConfig(echoMid.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echoMid.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.RequestID != "" {
				fields = append(fields, zap.String("request_id", v.RequestID))
			}
			if v.Error != nil {
				log.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Debug("request", fields...)
			return nil
		},
	})
}
