package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ctks/admin-console/internal/console"
	"github.com/ctks/admin-console/internal/http/middleware"
	"github.com/ctks/admin-console/internal/model"
	"github.com/ctks/admin-console/internal/repository"
	"github.com/ctks/admin-console/internal/validation"
)

// AuditLister reads back recorded admin actions.
type AuditLister interface {
	List(ctx context.Context, f repository.AuditFilter) ([]model.AuditEvent, error)
}

// AuditListerFunc adapts a plain function, e.g. the MySQL fallback listing.
type AuditListerFunc func(ctx context.Context, f repository.AuditFilter) ([]model.AuditEvent, error)

func (fn AuditListerFunc) List(ctx context.Context, f repository.AuditFilter) ([]model.AuditEvent, error) {
	return fn(ctx, f)
}

func (s *Server) routes(g *echo.Group) {
	g.GET("/me", s.me)
	g.GET("/shell", s.screen(shellView))
	g.POST("/navigate/:view", s.screen(navigate))
	g.DELETE("/notices/:id", s.screen(dismissNotice))
	g.GET("/audit", s.listAudit)

	g.GET("/dashboard", s.screen(dashboardView))
	g.POST("/dashboard/refresh", s.screen(dashboardRefresh))
	g.PUT("/dashboard/granularity", s.screen(dashboardGranularity))
	g.PUT("/dashboard/sales/page", s.screen(dashboardSalesPage))
	g.GET("/dashboard/export", s.exportSales)

	g.GET("/vendors", s.screen(vendorsView))
	g.POST("/vendors/refresh", s.screen(vendorsRefresh))
	g.PUT("/vendors/page", s.screen(vendorsPage))
	g.POST("/vendors", s.screen(vendorCreate))
	g.PUT("/vendors/:id", s.screen(vendorUpdate))
	g.POST("/vendors/:id/approve", s.screen(vendorApprove))
	g.POST("/vendors/:id/deactivate", s.screen(vendorDeactivate))
	g.POST("/vendors/:id/delete", s.screen(vendorRequestDelete))
	g.POST("/vendors/confirm", s.screen(vendorConfirmDelete))
	g.POST("/vendors/cancel", s.screen(vendorCancelDelete))

	g.GET("/pricing", s.screen(pricingView))
	g.POST("/pricing/refresh", s.screen(pricingRefresh))
	g.PUT("/pricing/page", s.screen(pricingPage))
	g.POST("/pricing", s.screen(pricingCreate))
	g.PUT("/pricing/:name", s.screen(pricingUpdate))
	g.POST("/pricing/:name/enable", s.screen(pricingEnable))
	g.POST("/pricing/:name/disable", s.screen(pricingDisable))
	g.POST("/pricing/:name/delete", s.screen(pricingRequestDelete))
	g.POST("/pricing/confirm", s.screen(pricingConfirmDelete))
	g.POST("/pricing/cancel", s.screen(pricingCancelDelete))

	g.GET("/accounts", s.screen(accountsView))
	g.POST("/accounts/refresh", s.screen(accountsRefresh))
	g.PUT("/accounts/page", s.screen(accountsPage))
	g.POST("/accounts", s.screen(accountCreate))
	g.PUT("/accounts/:id", s.screen(accountUpdate))
	g.POST("/accounts/:id/delete", s.screen(accountRequestDelete))
	g.POST("/accounts/confirm", s.screen(accountConfirmDelete))
	g.POST("/accounts/cancel", s.screen(accountCancelDelete))

	g.GET("/upgrades", s.screen(upgradesView))
	g.POST("/upgrades/refresh", s.screen(upgradesRefresh))
	g.PUT("/upgrades/page", s.screen(upgradesPage))
	g.POST("/upgrades/:id/complete", s.screen(upgradeRequestComplete))
	g.POST("/upgrades/:id/reject", s.screen(upgradeRequestReject))
	g.POST("/upgrades/confirm", s.screen(upgradeConfirm))
	g.POST("/upgrades/cancel", s.screen(upgradeCancel))

	g.GET("/customers", s.screen(customersView))
	g.POST("/customers/refresh", s.screen(customersRefresh))
	g.PUT("/customers/filter", s.screen(customersFilter))
	g.PUT("/customers/sort", s.screen(customersSort))
	g.PUT("/customers/page", s.screen(customersPage))
	g.POST("/customers/:id/verify", s.screen(customerVerify))
	g.POST("/customers/:id/reject", s.screen(customerReject))
	g.PUT("/customers/:id", s.screen(customerEdit))
	g.POST("/customers/:id/delete", s.screen(customerRequestDelete))
	g.POST("/customers/confirm", s.screen(customerConfirmDelete))
	g.POST("/customers/cancel", s.screen(customerCancelDelete))

	g.GET("/tokens", s.screen(tokensView))
	g.POST("/tokens/refresh", s.screen(tokensRefresh))
	g.PUT("/tokens/requests/page", s.screen(tokenRequestsPage))
	g.PUT("/tokens/history/page", s.screen(tokenHistoryPage))
	g.PUT("/tokens/history/filter", s.screen(tokenHistoryFilter))
	g.GET("/tokens/history/:id", s.screen(tokenDetails))
	g.POST("/tokens/requests/:id/approve", s.screen(tokenApprove))
	g.POST("/tokens/requests/:id/reject", s.screen(tokenOpenReject))
	g.PUT("/tokens/reject", s.screen(tokenRejectReason))
	g.POST("/tokens/reject/confirm", s.screen(tokenConfirmReject))
	g.POST("/tokens/reject/cancel", s.screen(tokenCancelReject))
	g.POST("/tokens/requests/:id/issue", s.screen(tokenOpenIssue))
	g.PUT("/tokens/issue", s.screen(tokenIssueValue))
	g.POST("/tokens/issue/submit", s.screen(tokenSubmitIssue))
	g.POST("/tokens/issue/cancel", s.screen(tokenCancelIssue))
	g.POST("/tokens/history/:id/reissue", s.screen(tokenOpenReissue))
	g.PUT("/tokens/reissue", s.screen(tokenReissueValue))
	g.POST("/tokens/reissue/submit", s.screen(tokenSubmitReissue))
	g.POST("/tokens/reissue/cancel", s.screen(tokenCancelReissue))
}

// pageReq moves a table to a page and optionally changes its size.
type pageReq struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

func ctxOf(c echo.Context) context.Context { return c.Request().Context() }

func (s *Server) me(c echo.Context) error {
	sess, _ := middleware.SessionFromCtx(c)
	return c.JSON(http.StatusOK, sessionInfo{Username: sess.Username, Role: sess.Role})
}

type shellResp struct {
	Actor  string            `json:"actor"`
	Active console.ViewID    `json:"active"`
	Nav    []console.NavItem `json:"nav"`
}

func shellView(_ echo.Context, ws *console.Workspace) (any, error) {
	return shellResp{Actor: ws.Actor(), Active: ws.Active(), Nav: ws.Nav()}, nil
}

func navigate(c echo.Context, ws *console.Workspace) (any, error) {
	view := console.ViewID(c.Param("view"))
	known := false
	for _, it := range ws.Nav() {
		known = known || it.ID == view
	}
	if !known {
		return nil, &validation.Error{Field: "view", Message: "Unknown view"}
	}
	// a failed load still switches the view; the notice carries the error
	_ = ws.Navigate(ctxOf(c), view)
	return shellView(c, ws)
}

func dismissNotice(c echo.Context, ws *console.Workspace) (any, error) {
	ws.Notices().Dismiss(c.Param("id"))
	return nil, nil
}

func (s *Server) listAudit(c echo.Context) error {
	if s.auditLog == nil {
		return c.JSON(http.StatusNotFound, failure{Error: "audit log is not enabled"})
	}
	f := repository.AuditFilter{
		Actor:    c.QueryParam("actor"),
		Entity:   c.QueryParam("entity"),
		EntityID: c.QueryParam("entityId"),
	}
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	f.Offset, _ = strconv.Atoi(c.QueryParam("offset"))

	events, err := s.auditLog.List(ctxOf(c), f)
	if err != nil {
		s.log.Warn("audit list", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, failure{Error: "Failed to load audit log"})
	}
	if events == nil {
		events = []model.AuditEvent{}
	}
	return c.JSON(http.StatusOK, reply{Data: events, Notices: []console.Notice{}})
}
