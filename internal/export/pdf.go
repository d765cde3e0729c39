package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/ctks/admin-console/internal/format"
)

var pdfWidths = []float64{40, 60, 45, 25, 35, 50}

func writePDF(w io.Writer, r Report) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(r.Title(), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, r.Title(), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range header {
		pdf.CellFormat(pdfWidths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range r.Rows {
		cells := []string{
			row.Period,
			row.Vendor,
			row.Disco,
			strconv.Itoa(row.TokensCount),
			row.Units.StringFixed(2),
			format.NGN(row.Amount),
		}
		for i, c := range cells {
			align := "L"
			if i >= 3 {
				align = "R"
			}
			pdf.CellFormat(pdfWidths[i], 7, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf write: %w", err)
	}
	return nil
}
