package console

import (
	"context"
	"sync"
)

// Table is a locally held collection with local pagination, shared by the
// CRUD screens. Refresh replaces the rows from one fetch; superseded fetches
// are cancelled and their results dropped.
type Table[T any] struct {
	mu     sync.RWMutex
	rows   []T
	pager  Pager
	loaded bool

	id     func(T) string
	latest *Latest
}

func NewTable[T any](id func(T) string, size int) *Table[T] {
	return &Table[T]{id: id, pager: NewPager(0, size), latest: NewLatest()}
}

// View is one rendered page.
type View[T any] struct {
	Rows       []T  `json:"rows"`
	Page       int  `json:"page"`
	Size       int  `json:"size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	Loaded     bool `json:"loaded"`
}

// Refresh runs fetch and replaces the rows. On failure the previous rows stay.
func (t *Table[T]) Refresh(ctx context.Context, fetch func(context.Context) ([]T, error)) error {
	fctx, tk := t.latest.Begin(ctx, "list")
	defer tk.Done()

	rows, err := fetch(fctx)
	if err = tk.Settle(err); err != nil {
		return err
	}
	t.Replace(rows)
	return nil
}

func (t *Table[T]) Replace(rows []T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = append([]T(nil), rows...)
	t.loaded = true
	t.pager.SetTotal(len(t.rows))
}

func (t *Table[T]) Rows() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]T(nil), t.rows...)
}

func (t *Table[T]) Find(id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, r := range t.rows {
		if t.id(r) == id {
			return r, true
		}
	}
	var zero T
	return zero, false
}

// Upsert replaces the row with the same id or appends it.
func (t *Table[T]) Upsert(row T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.id(row)
	for i := range t.rows {
		if t.id(t.rows[i]) == id {
			t.rows[i] = row
			return
		}
	}
	t.rows = append(t.rows, row)
	t.pager.SetTotal(len(t.rows))
}

// Patch applies fn to the row with id in place.
func (t *Table[T]) Patch(id string, fn func(*T)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.rows {
		if t.id(t.rows[i]) == id {
			fn(&t.rows[i])
			return true
		}
	}
	return false
}

// PatchWhere applies fn to every row matching.
func (t *Table[T]) PatchWhere(match func(T) bool, fn func(*T)) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for i := range t.rows {
		if match(t.rows[i]) {
			fn(&t.rows[i])
			n++
		}
	}
	return n
}

func (t *Table[T]) Remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.rows {
		if t.id(t.rows[i]) == id {
			t.rows = append(t.rows[:i], t.rows[i+1:]...)
			t.pager.SetTotal(len(t.rows))
			return true
		}
	}
	return false
}

func (t *Table[T]) SetPage(p int) {
	t.mu.Lock()
	t.pager.SetPage(p)
	t.mu.Unlock()
}

func (t *Table[T]) SetSize(n int) {
	t.mu.Lock()
	t.pager.SetSize(n)
	t.mu.Unlock()
}

func (t *Table[T]) View() View[T] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return View[T]{
		Rows:       Slice(t.rows, t.pager),
		Page:       t.pager.Page,
		Size:       t.pager.Size,
		Total:      len(t.rows),
		TotalPages: t.pager.TotalPages(),
		Loaded:     t.loaded,
	}
}
