package http

import (
	"github.com/labstack/echo/v4"

	"github.com/ctks/admin-console/internal/console"
	"github.com/ctks/admin-console/internal/model"
	"github.com/ctks/admin-console/internal/validation"
)

type customerFilterReq struct {
	Tab    *string `json:"tab"`
	Search *string `json:"search"`
}

type customerSortReq struct {
	Key string `json:"key"`
}

type customerEditReq struct {
	MeterNumber string             `json:"meterNumber"`
	Disco       string             `json:"disco"`
	LastToken   string             `json:"lastToken"`
	IsVerified  bool               `json:"isVerified"`
	Params      model.CryptoParams `json:"params"`
}

type reasonReq struct {
	Reason string `json:"reason"`
}

func customersView(_ echo.Context, ws *console.Workspace) (any, error) {
	return ws.Customers.View(), nil
}

func customersRefresh(c echo.Context, ws *console.Workspace) (any, error) {
	if err := ws.Customers.Refresh(ctxOf(c)); err != nil {
		return nil, err
	}
	return ws.Customers.View(), nil
}

// customersFilter switches tab and/or search term; both go back to page 1.
func customersFilter(c echo.Context, ws *console.Workspace) (any, error) {
	req, err := bind[customerFilterReq](c)
	if err != nil {
		return nil, err
	}
	if req.Tab != nil {
		tab, ok := model.ParseVerificationState(*req.Tab)
		if !ok {
			return nil, &validation.Error{Field: "tab", Message: "Unknown tab"}
		}
		if err := ws.Customers.SetTab(tab); err != nil {
			return nil, err
		}
	}
	if req.Search != nil {
		ws.Customers.Search(*req.Search)
	}
	return ws.Customers.View(), nil
}

func customersSort(c echo.Context, ws *console.Workspace) (any, error) {
	req, err := bind[customerSortReq](c)
	if err != nil {
		return nil, err
	}
	key := console.SortKey(req.Key)
	if !key.Valid() {
		return nil, &validation.Error{Field: "key", Message: "Unknown sort column"}
	}
	if err := ws.Customers.SortBy(key); err != nil {
		return nil, err
	}
	return ws.Customers.View(), nil
}

func customersPage(c echo.Context, ws *console.Workspace) (any, error) {
	req, err := bind[pageReq](c)
	if err != nil {
		return nil, err
	}
	if req.Size > 0 {
		ws.Customers.SetSize(req.Size)
	}
	if req.Page > 0 {
		ws.Customers.SetPage(req.Page)
	}
	return ws.Customers.View(), nil
}

func customerVerify(c echo.Context, ws *console.Workspace) (any, error) {
	p, err := bind[model.CryptoParams](c)
	if err != nil {
		return nil, err
	}
	if err := ws.Customers.Verify(ctxOf(c), c.Param("id"), p); err != nil {
		return nil, err
	}
	return ws.Customers.View(), nil
}

func customerReject(c echo.Context, ws *console.Workspace) (any, error) {
	req, err := bind[reasonReq](c)
	if err != nil {
		return nil, err
	}
	if err := ws.Customers.Reject(ctxOf(c), c.Param("id"), req.Reason); err != nil {
		return nil, err
	}
	return ws.Customers.View(), nil
}

func customerEdit(c echo.Context, ws *console.Workspace) (any, error) {
	req, err := bind[customerEditReq](c)
	if err != nil {
		return nil, err
	}
	in := validation.CustomerEdit{
		MeterNumber: req.MeterNumber,
		Disco:       req.Disco,
		LastToken:   req.LastToken,
		IsVerified:  req.IsVerified,
		Params:      req.Params,
	}
	if err := ws.Customers.Edit(ctxOf(c), c.Param("id"), in); err != nil {
		return nil, err
	}
	return ws.Customers.View(), nil
}

func customerRequestDelete(c echo.Context, ws *console.Workspace) (any, error) {
	return ws.Customers.RequestDelete(c.Param("id"))
}

func customerConfirmDelete(c echo.Context, ws *console.Workspace) (any, error) {
	if err := ws.Customers.ConfirmDelete(ctxOf(c)); err != nil {
		return nil, err
	}
	return ws.Customers.View(), nil
}

func customerCancelDelete(_ echo.Context, ws *console.Workspace) (any, error) {
	ws.Customers.CancelDelete()
	return ws.Customers.View(), nil
}
