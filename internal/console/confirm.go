package console

import "sync"

// ConfirmDialog is an open confirmation step; the action fires only after
// the admin confirms it.
type ConfirmDialog struct {
	Action   string `json:"action"`
	TargetID string `json:"targetId"`
	Message  string `json:"message"`
}

type Confirm struct {
	mu  sync.Mutex
	cur *ConfirmDialog
}

func (c *Confirm) Open(action, id, msg string) ConfirmDialog {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := ConfirmDialog{Action: action, TargetID: id, Message: msg}
	c.cur = &d
	return d
}

// Take closes the dialog and returns it when it is open for action.
func (c *Confirm) Take(action string) (ConfirmDialog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil || c.cur.Action != action {
		return ConfirmDialog{}, ErrNoConfirmation
	}
	d := *c.cur
	c.cur = nil
	return d, nil
}

func (c *Confirm) Cancel() {
	c.mu.Lock()
	c.cur = nil
	c.mu.Unlock()
}

func (c *Confirm) Current() *ConfirmDialog {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		return nil
	}
	d := *c.cur
	return &d
}
