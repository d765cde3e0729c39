package console

import (
	"sync"
	"time"

	"github.com/ctks/admin-console/internal/apiclient"
	"github.com/ctks/admin-console/internal/util"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Notice is a transient notification; it disappears after its TTL.
type Notice struct {
	ID        string    `json:"id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Notifier struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items []Notice
}

func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = 6 * time.Second
	}
	return &Notifier{ttl: ttl, now: time.Now}
}

func (n *Notifier) push(sev Severity, msg string) Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	nt := Notice{ID: util.NewID(), Severity: sev, Message: msg, ExpiresAt: n.now().Add(n.ttl)}
	n.items = append(n.items, nt)
	return nt
}

func (n *Notifier) Success(msg string) Notice { return n.push(SeveritySuccess, msg) }

func (n *Notifier) Info(msg string) Notice { return n.push(SeverityInfo, msg) }

// Error shows the server's or validator's message when there is one, the
// fallback otherwise.
func (n *Notifier) Error(err error, fallback string) Notice {
	msg := apiclient.MessageOf(err, fallback)
	if refusal(err) {
		msg = err.Error()
	}
	return n.push(SeverityError, msg)
}

// Active returns unexpired notices, pruning the rest.
func (n *Notifier) Active() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	live := n.items[:0]
	for _, it := range n.items {
		if now.Before(it.ExpiresAt) {
			live = append(live, it)
		}
	}
	n.items = live
	out := make([]Notice, len(live))
	copy(out, live)
	return out
}

func (n *Notifier) Dismiss(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, it := range n.items {
		if it.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return
		}
	}
}
