package http

import (
	"github.com/labstack/echo/v4"

	"github.com/ctks/admin-console/internal/console"
)

type historyFilterReq struct {
	MeterNumber *string `json:"meterNumber"`
	VendorID    *string `json:"vendorId"`
}

type tokenValueReq struct {
	TokenValue string `json:"tokenValue"`
}

func tokensView(_ echo.Context, ws *console.Workspace) (any, error) {
	return ws.Tokens.View(), nil
}

func tokensRefresh(c echo.Context, ws *console.Workspace) (any, error) {
	if err := ws.Tokens.Refresh(ctxOf(c)); err != nil {
		return nil, err
	}
	return ws.Tokens.View(), nil
}

func tokenRequestsPage(c echo.Context, ws *console.Workspace) (any, error) {
	req, err := bind[pageReq](c)
	if err != nil {
		return nil, err
	}
	if req.Size > 0 {
		if err := ws.Tokens.SetRequestsSize(ctxOf(c), req.Size); err != nil {
			return nil, err
		}
	}
	if req.Page > 0 {
		if err := ws.Tokens.SetRequestsPage(ctxOf(c), req.Page); err != nil {
			return nil, err
		}
	}
	return ws.Tokens.View(), nil
}

func tokenHistoryPage(c echo.Context, ws *console.Workspace) (any, error) {
	req, err := bind[pageReq](c)
	if err != nil {
		return nil, err
	}
	if req.Size > 0 {
		if err := ws.Tokens.SetHistorySize(ctxOf(c), req.Size); err != nil {
			return nil, err
		}
	}
	if req.Page > 0 {
		if err := ws.Tokens.SetHistoryPage(ctxOf(c), req.Page); err != nil {
			return nil, err
		}
	}
	return ws.Tokens.View(), nil
}

// tokenHistoryFilter: a meter search is debounced and lands later, a vendor
// change is fetched before replying.
func tokenHistoryFilter(c echo.Context, ws *console.Workspace) (any, error) {
	req, err := bind[historyFilterReq](c)
	if err != nil {
		return nil, err
	}
	if req.VendorID != nil {
		if err := ws.Tokens.FilterVendor(ctxOf(c), *req.VendorID); err != nil {
			return nil, err
		}
	}
	if req.MeterNumber != nil {
		ws.Tokens.SearchMeter(*req.MeterNumber)
	}
	return ws.Tokens.View(), nil
}

func tokenDetails(c echo.Context, ws *console.Workspace) (any, error) {
	return ws.Tokens.TokenDetails(ctxOf(c), c.Param("id"))
}

func tokenApprove(c echo.Context, ws *console.Workspace) (any, error) {
	if err := ws.Tokens.Approve(ctxOf(c), c.Param("id")); err != nil {
		return nil, err
	}
	return ws.Tokens.View(), nil
}

func tokenOpenReject(c echo.Context, ws *console.Workspace) (any, error) {
	return ws.Tokens.OpenReject(c.Param("id"))
}

func tokenRejectReason(c echo.Context, ws *console.Workspace) (any, error) {
	req, err := bind[reasonReq](c)
	if err != nil {
		return nil, err
	}
	return ws.Tokens.SetRejectReason(req.Reason)
}

func tokenConfirmReject(c echo.Context, ws *console.Workspace) (any, error) {
	if err := ws.Tokens.ConfirmReject(ctxOf(c)); err != nil {
		return nil, err
	}
	return ws.Tokens.View(), nil
}

func tokenCancelReject(_ echo.Context, ws *console.Workspace) (any, error) {
	ws.Tokens.CancelReject()
	return ws.Tokens.View(), nil
}

func tokenOpenIssue(c echo.Context, ws *console.Workspace) (any, error) {
	return ws.Tokens.OpenIssue(c.Param("id"))
}

func tokenIssueValue(c echo.Context, ws *console.Workspace) (any, error) {
	req, err := bind[tokenValueReq](c)
	if err != nil {
		return nil, err
	}
	return ws.Tokens.SetIssueValue(req.TokenValue)
}

func tokenSubmitIssue(c echo.Context, ws *console.Workspace) (any, error) {
	return ws.Tokens.SubmitIssue(ctxOf(c))
}

func tokenCancelIssue(_ echo.Context, ws *console.Workspace) (any, error) {
	ws.Tokens.CancelIssue()
	return ws.Tokens.View(), nil
}

func tokenOpenReissue(c echo.Context, ws *console.Workspace) (any, error) {
	return ws.Tokens.OpenReissue(c.Param("id"))
}

func tokenReissueValue(c echo.Context, ws *console.Workspace) (any, error) {
	req, err := bind[tokenValueReq](c)
	if err != nil {
		return nil, err
	}
	return ws.Tokens.SetReissueValue(req.TokenValue)
}

func tokenSubmitReissue(c echo.Context, ws *console.Workspace) (any, error) {
	return ws.Tokens.SubmitReissue(ctxOf(c))
}

func tokenCancelReissue(_ echo.Context, ws *console.Workspace) (any, error) {
	ws.Tokens.CancelReissue()
	return ws.Tokens.View(), nil
}
