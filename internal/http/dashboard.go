package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ctks/admin-console/internal/console"
	"github.com/ctks/admin-console/internal/export"
	"github.com/ctks/admin-console/internal/http/middleware"
	"github.com/ctks/admin-console/internal/model"
	"github.com/ctks/admin-console/internal/validation"
)

func dashboardView(_ echo.Context, ws *console.Workspace) (any, error) {
	return ws.Dashboard.View(), nil
}

func dashboardRefresh(c echo.Context, ws *console.Workspace) (any, error) {
	if err := ws.Dashboard.Refresh(ctxOf(c)); err != nil {
		return nil, err
	}
	return ws.Dashboard.View(), nil
}

type granularityReq struct {
	Granularity string `json:"granularity"`
}

func dashboardGranularity(c echo.Context, ws *console.Workspace) (any, error) {
	req, err := bind[granularityReq](c)
	if err != nil {
		return nil, err
	}
	if _, ok := model.ParseGranularity(req.Granularity); !ok {
		return nil, &validation.Error{Field: "granularity", Message: "Unknown granularity"}
	}
	if err := ws.Dashboard.SetGranularity(ctxOf(c), req.Granularity); err != nil {
		return nil, err
	}
	return ws.Dashboard.View(), nil
}

func dashboardSalesPage(c echo.Context, ws *console.Workspace) (any, error) {
	req, err := bind[pageReq](c)
	if err != nil {
		return nil, err
	}
	if req.Size > 0 {
		if err := ws.Dashboard.SetSalesSize(ctxOf(c), req.Size); err != nil {
			return nil, err
		}
	}
	if req.Page > 0 {
		if err := ws.Dashboard.SetSalesPage(ctxOf(c), req.Page); err != nil {
			return nil, err
		}
	}
	return ws.Dashboard.View(), nil
}

// exportSales downloads the loaded sales page as xlsx, pdf or csv.
func (s *Server) exportSales(c echo.Context) error {
	sess, _ := middleware.SessionFromCtx(c)
	ws := s.workspaces.get(sess)

	f, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return s.fail(c, ws, &validation.Error{Field: "format", Message: err.Error()})
	}

	var buf bytes.Buffer
	r, err := ws.Dashboard.Export(&buf, f)
	if err != nil {
		return s.fail(c, ws, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", r.Filename(f)))
	return c.Blob(http.StatusOK, f.ContentType(), buf.Bytes())
}
