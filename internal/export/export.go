// Package export serializes the currently loaded page of the sales report.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/ctks/admin-console/internal/model"
)

type Format string

const (
	XLSX Format = "xlsx"
	PDF  Format = "pdf"
	CSV  Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case XLSX, PDF, CSV:
		return f, nil
	case "excel":
		return XLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case PDF:
		return "application/pdf"
	default:
		return "text/csv"
	}
}

// Report is one page of the sales report as shown on the dashboard.
type Report struct {
	Granularity model.Granularity
	Page        int
	Rows        []model.SalesReportRow
}

func (r Report) Title() string {
	return fmt.Sprintf("Sales Report (%s)", r.Granularity)
}

func (r Report) Filename(f Format) string {
	return fmt.Sprintf("sales-report-%s-p%d.%s", r.Granularity, r.Page, f)
}

var header = []string{"Period", "Vendor", "Disco", "Tokens", "Units", "Amount"}

// Write renders r in format f.
func Write(w io.Writer, f Format, r Report) error {
	switch f {
	case XLSX:
		return writeXLSX(w, r)
	case PDF:
		return writePDF(w, r)
	case CSV:
		return writeCSV(w, r)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}
