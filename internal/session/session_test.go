package session

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctks/admin-console/internal/apiclient"
)

type backend struct {
	loginBody  string
	logoutCode int
	logouts    atomic.Int32
}

func (b *backend) handler(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/admin/login":
		_, _ = io.WriteString(w, b.loginBody)
	case "/admin/logout":
		b.logouts.Add(1)
		if b.logoutCode != 0 {
			w.WriteHeader(b.logoutCode)
			return
		}
		_, _ = io.WriteString(w, `{"success":true}`)
	case "/admin/vendors":
		w.WriteHeader(http.StatusUnauthorized)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newManager(t *testing.T, b *backend) (*Manager, Store) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(b.handler))
	t.Cleanup(srv.Close)
	store := NewMemoryStore()
	return NewManager(store, apiclient.New(apiclient.Options{BaseURL: srv.URL}), nil), store
}

func TestLogin_StoresAdminSession(t *testing.T) {
	m, store := newManager(t, &backend{loginBody: `{"token":"abc","role":"admin"}`})

	s, err := m.Login(context.Background(), " root ", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "root", s.Username)
	assert.True(t, s.IsAdmin())

	got, err := store.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.Token)
}

func TestLogin_Refusals(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
	}{
		{"vendor role", `{"token":"abc","role":"vendor"}`, ErrNotAdmin},
		{"missing role", `{"token":"abc"}`, ErrLoginRefused},
		{"missing token", `{"role":"admin"}`, ErrLoginRefused},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, store := newManager(t, &backend{loginBody: tc.body})
			_, err := m.Login(context.Background(), "u", "p")
			require.ErrorIs(t, err, tc.err)
			assert.Empty(t, store.(*MemoryStore).m)
		})
	}
}

func TestLogin_BlankCredentialsNeverHitBackend(t *testing.T) {
	m, _ := newManager(t, &backend{})
	_, err := m.Login(context.Background(), "  ", "p")
	require.Error(t, err)
}

func TestLogout_ClearsEvenWhenBackendFails(t *testing.T) {
	b := &backend{loginBody: `{"token":"abc","role":"admin"}`, logoutCode: http.StatusInternalServerError}
	m, _ := newManager(t, b)

	var dropped []string
	m.OnDrop(func(id string) { dropped = append(dropped, id) })

	s, err := m.Login(context.Background(), "u", "p")
	require.NoError(t, err)
	require.NoError(t, m.Logout(context.Background(), s.ID))

	assert.EqualValues(t, 1, b.logouts.Load())
	_, err = m.Current(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, []string{s.ID}, dropped)
}

func TestUnauthorizedForcesLogout(t *testing.T) {
	m, _ := newManager(t, &backend{loginBody: `{"token":"abc","role":"admin"}`})
	s, err := m.Login(context.Background(), "u", "p")
	require.NoError(t, err)

	_, err = m.Client(s).ListVendors(context.Background())
	require.True(t, apiclient.IsKind(err, apiclient.KindAuth))

	_, err = m.Current(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sess")
	fs := NewFileStore(path)
	ctx := context.Background()

	_, err := fs.Get(ctx, "")
	require.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, fs.Save(ctx, &Session{ID: "01J", Token: "t", Role: RoleAdmin}))
	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), st.Mode().Perm())

	got, err := fs.Get(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "01J", got.ID)

	require.NoError(t, fs.Delete(ctx, ""))
	require.NoError(t, fs.Delete(ctx, ""))
	_, err = fs.Get(ctx, "")
	require.ErrorIs(t, err, ErrNoSession)
}
