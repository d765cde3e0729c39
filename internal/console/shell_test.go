package console

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspace_NavigateRefreshes(t *testing.T) {
	b, api := newBackend(t)
	seedDashboard(b)
	w := NewWorkspace(newEnv(api))
	t.Cleanup(w.Close)
	ctx := context.Background()

	assert.Equal(t, ViewDashboard, w.Active())
	require.NoError(t, w.Navigate(ctx, ViewDashboard))
	require.NoError(t, w.Navigate(ctx, ViewVendors))
	require.NoError(t, w.Navigate(ctx, ViewDashboard))
	assert.Equal(t, 2, b.Calls("GET /admin/customers/count"), "entering the dashboard always refreshes")
	assert.Equal(t, 1, b.Calls("GET /admin/vendors"))

	require.NoError(t, w.Navigate(ctx, ViewUpgrades))
	nav := w.Nav()
	require.Len(t, nav, 7)
	for _, it := range nav {
		assert.Equal(t, it.ID == ViewUpgrades, it.Active, it.ID)
	}

	require.Error(t, w.Navigate(ctx, "settings"))
	assert.Equal(t, ViewUpgrades, w.Active())
}

func TestWorkspace_ScreensShareNotices(t *testing.T) {
	b, api := newBackend(t)
	w := NewWorkspace(newEnv(api))
	t.Cleanup(w.Close)

	b.Fail("GET /admin/vendors", 500)
	require.Error(t, w.Navigate(context.Background(), ViewVendors))
	notices := w.Notices().Active()
	require.Len(t, notices, 1)
	assert.Equal(t, SeverityError, notices[0].Severity)
	assert.Equal(t, "root", w.Actor())
}
