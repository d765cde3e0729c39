package http

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ctks/admin-console/internal/audit"
	"github.com/ctks/admin-console/internal/config"
	"github.com/ctks/admin-console/internal/console"
	"github.com/ctks/admin-console/internal/session"
	"github.com/ctks/admin-console/internal/validation"
)

// workspaces holds the screen state of every live console session.
type workspaces struct {
	mu       sync.Mutex
	m        map[string]*console.Workspace
	cfg      config.Config
	sessions *session.Manager
	audit    audit.Recorder
	log      *zap.Logger
	policy   validation.PricePolicy
}

func newWorkspaces(cfg config.Config, sessions *session.Manager, rec audit.Recorder, log *zap.Logger) *workspaces {
	policy, ok := validation.ParsePricePolicy(cfg.Pricing.Policy)
	if !ok {
		log.Warn("unknown price policy, using default",
			zap.String("policy", cfg.Pricing.Policy), zap.String("default", string(policy)))
	}
	return &workspaces{
		m:        map[string]*console.Workspace{},
		cfg:      cfg,
		sessions: sessions,
		audit:    rec,
		log:      log,
		policy:   policy,
	}
}

// get returns the session's workspace, creating it on first use.
func (w *workspaces) get(s *session.Session) *console.Workspace {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ws, ok := w.m[s.ID]; ok {
		return ws
	}
	ws := console.NewWorkspace(&console.Env{
		API:            w.sessions.Client(s),
		Audit:          w.audit,
		Log:            w.log.With(zap.String("session_id", s.ID), zap.String("actor", s.Username)),
		Notices:        console.NewNotifier(w.cfg.Console.NoticeTTL),
		Actor:          s.Username,
		PageSize:       w.cfg.Console.PageSize,
		SearchDebounce: w.cfg.Console.SearchDebounce,
		PricePolicy:    w.policy,
	})
	w.m[s.ID] = ws
	return ws
}

func (w *workspaces) drop(id string) {
	w.mu.Lock()
	ws, ok := w.m[id]
	delete(w.m, id)
	w.mu.Unlock()
	if ok {
		ws.Close()
	}
}

func (w *workspaces) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.m)
}

func (w *workspaces) closeAll() {
	w.mu.Lock()
	all := w.m
	w.m = map[string]*console.Workspace{}
	w.mu.Unlock()
	for _, ws := range all {
		ws.Close()
	}
}
