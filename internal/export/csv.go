package export

import (
	"encoding/csv"
	"io"
	"strconv"
)

func writeCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := cw.Write([]string{
			row.Period,
			row.Vendor,
			row.Disco,
			strconv.Itoa(row.TokensCount),
			row.Units.String(),
			row.Amount.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
