package http

import (
	"github.com/labstack/echo/v4"

	"github.com/ctks/admin-console/internal/console"
	"github.com/ctks/admin-console/internal/model"
)

// Vendors, disco pricing, bank accounts and vendor-space upgrades share one
// shape: a paged table, row actions and a confirm step for deletes.

type pager interface {
	SetPage(int)
	SetSize(int)
}

func page(c echo.Context, p pager) error {
	req, err := bind[pageReq](c)
	if err != nil {
		return err
	}
	if req.Size > 0 {
		p.SetSize(req.Size)
	}
	if req.Page > 0 {
		p.SetPage(req.Page)
	}
	return nil
}

// ---- vendors ----

func vendorsView(_ echo.Context, ws *console.Workspace) (any, error) {
	return ws.Vendors.View(), nil
}

func vendorsRefresh(c echo.Context, ws *console.Workspace) (any, error) {
	if err := ws.Vendors.Refresh(ctxOf(c)); err != nil {
		return nil, err
	}
	return ws.Vendors.View(), nil
}

func vendorsPage(c echo.Context, ws *console.Workspace) (any, error) {
	if err := page(c, ws.Vendors); err != nil {
		return nil, err
	}
	return ws.Vendors.View(), nil
}

func vendorCreate(c echo.Context, ws *console.Workspace) (any, error) {
	in, err := bind[model.VendorInput](c)
	if err != nil {
		return nil, err
	}
	if err := ws.Vendors.Create(ctxOf(c), in); err != nil {
		return nil, err
	}
	return ws.Vendors.View(), nil
}

func vendorUpdate(c echo.Context, ws *console.Workspace) (any, error) {
	in, err := bind[model.VendorInput](c)
	if err != nil {
		return nil, err
	}
	if err := ws.Vendors.Update(ctxOf(c), c.Param("id"), in); err != nil {
		return nil, err
	}
	return ws.Vendors.View(), nil
}

func vendorApprove(c echo.Context, ws *console.Workspace) (any, error) {
	if err := ws.Vendors.Approve(ctxOf(c), c.Param("id")); err != nil {
		return nil, err
	}
	return ws.Vendors.View(), nil
}

func vendorDeactivate(c echo.Context, ws *console.Workspace) (any, error) {
	if err := ws.Vendors.Deactivate(ctxOf(c), c.Param("id")); err != nil {
		return nil, err
	}
	return ws.Vendors.View(), nil
}

func vendorRequestDelete(c echo.Context, ws *console.Workspace) (any, error) {
	return ws.Vendors.RequestDelete(c.Param("id"))
}

func vendorConfirmDelete(c echo.Context, ws *console.Workspace) (any, error) {
	if err := ws.Vendors.ConfirmDelete(ctxOf(c)); err != nil {
		return nil, err
	}
	return ws.Vendors.View(), nil
}

func vendorCancelDelete(_ echo.Context, ws *console.Workspace) (any, error) {
	ws.Vendors.CancelDelete()
	return ws.Vendors.View(), nil
}

// ---- disco pricing ----

type priceReq struct {
	DiscoName    string `json:"discoName"`
	PricePerUnit  string `json:"pricePerUnit"`
}

func pricingView(_ echo.Context, ws *console.Workspace) (any, error) {
	return ws.Pricing.View(), nil
}

func pricingRefresh(c echo.Context, ws *console.Workspace) (any, error) {
	if err := ws.Pricing.Refresh(ctxOf(c)); err != nil {
		return nil, err
	}
	return ws.Pricing.View(), nil
}

func pricingPage(c echo.Context, ws *console.Workspace) (any, error) {
	if err := page(c, ws.Pricing); err != nil {
		return nil, err
	}
	return ws.Pricing.View(), nil
}

func pricingCreate(c echo.Context, ws *console.Workspace) (any, error) {
	req, err := bind[priceReq](c)
	if err != nil {
		return nil, err
	}
	if err := ws.Pricing.Create(ctxOf(c), req.DiscoName, req.PricePerUnit); err != nil {
		return nil, err
	}
	return ws.Pricing.View(), nil
}

func pricingUpdate(c echo.Context, ws *console.Workspace) (any, error) {
	req, err := bind[priceReq](c)
	if err != nil {
		return nil, err
	}
	if err := ws.Pricing.Update(ctxOf(c), c.Param("name"), req.PricePerUnit); err != nil {
		return nil, err
	}
	return ws.Pricing.View(), nil
}

func pricingEnable(c echo.Context, ws *console.Workspace) (any, error) {
	if err := ws.Pricing.Enable(ctxOf(c), c.Param("name")); err != nil {
		return nil, err
	}
	return ws.Pricing.View(), nil
}

func pricingDisable(c echo.Context, ws *console.Workspace) (any, error) {
	if err := ws.Pricing.Disable(ctxOf(c), c.Param("name")); err != nil {
		return nil, err
	}
	return ws.Pricing.View(), nil
}

func pricingRequestDelete(c echo.Context, ws *console.Workspace) (any, error) {
	return ws.Pricing.RequestDelete(c.Param("name"))
}

func pricingConfirmDelete(c echo.Context, ws *console.Workspace) (any, error) {
	if err := ws.Pricing.ConfirmDelete(ctxOf(c)); err != nil {
		return nil, err
	}
	return ws.Pricing.View(), nil
}

func pricingCancelDelete(_ echo.Context, ws *console.Workspace) (any, error) {
	ws.Pricing.CancelDelete()
	return ws.Pricing.View(), nil
}

// ---- bank accounts ----

func accountsView(_ echo.Context, ws *console.Workspace) (any, error) {
	return ws.Accounts.View(), nil
}

func accountsRefresh(c echo.Context, ws *console.Workspace) (any, error) {
	if err := ws.Accounts.Refresh(ctxOf(c)); err != nil {
		return nil, err
	}
	return ws.Accounts.View(), nil
}

func accountsPage(c echo.Context, ws *console.Workspace) (any, error) {
	if err := page(c, ws.Accounts); err != nil {
		return nil, err
	}
	return ws.Accounts.View(), nil
}

func accountCreate(c echo.Context, ws *console.Workspace) (any, error) {
	in, err := bind[model.BankAccountInput](c)
	if err != nil {
		return nil, err
	}
	if err := ws.Accounts.Create(ctxOf(c), in); err != nil {
		return nil, err
	}
	return ws.Accounts.View(), nil
}

func accountUpdate(c echo.Context, ws *console.Workspace) (any, error) {
	in, err := bind[model.BankAccountInput](c)
	if err != nil {
		return nil, err
	}
	if err := ws.Accounts.Update(ctxOf(c), c.Param("id"), in); err != nil {
		return nil, err
	}
	return ws.Accounts.View(), nil
}

func accountRequestDelete(c echo.Context, ws *console.Workspace) (any, error) {
	return ws.Accounts.RequestDelete(c.Param("id"))
}

func accountConfirmDelete(c echo.Context, ws *console.Workspace) (any, error) {
	if err := ws.Accounts.ConfirmDelete(ctxOf(c)); err != nil {
		return nil, err
	}
	return ws.Accounts.View(), nil
}

func accountCancelDelete(_ echo.Context, ws *console.Workspace) (any, error) {
	ws.Accounts.CancelDelete()
	return ws.Accounts.View(), nil
}

// ---- vendor-space upgrades ----

func upgradesView(_ echo.Context, ws *console.Workspace) (any, error) {
	return ws.Upgrades.View(), nil
}

func upgradesRefresh(c echo.Context, ws *console.Workspace) (any, error) {
	if err := ws.Upgrades.Refresh(ctxOf(c)); err != nil {
		return nil, err
	}
	return ws.Upgrades.View(), nil
}

func upgradesPage(c echo.Context, ws *console.Workspace) (any, error) {
	if err := page(c, ws.Upgrades); err != nil {
		return nil, err
	}
	return ws.Upgrades.View(), nil
}

func upgradeRequestComplete(c echo.Context, ws *console.Workspace) (any, error) {
	return ws.Upgrades.RequestComplete(c.Param("id"))
}

func upgradeRequestReject(c echo.Context, ws *console.Workspace) (any, error) {
	return ws.Upgrades.RequestReject(c.Param("id"))
}

// upgradeConfirm fires whichever decision the open dialog is for.
func upgradeConfirm(c echo.Context, ws *console.Workspace) (any, error) {
	confirm := ws.Upgrades.ConfirmComplete
	if d := ws.Upgrades.View().Confirm; d != nil && d.Action == "reject" {
		confirm = ws.Upgrades.ConfirmReject
	}
	if err := confirm(ctxOf(c)); err != nil {
		return nil, err
	}
	return ws.Upgrades.View(), nil
}

func upgradeCancel(_ echo.Context, ws *console.Workspace) (any, error) {
	ws.Upgrades.Cancel()
	return ws.Upgrades.View(), nil
}
