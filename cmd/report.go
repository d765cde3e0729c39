package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ctks/admin-console/internal/export"
	"github.com/ctks/admin-console/internal/model"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "report", Short: "Sales report"}

	var (
		granularity string
		format      string
		page        int
		size        int
		out         string
	)
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export one page of the sales report (xlsx, pdf or csv)",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, ok := model.ParseGranularity(granularity)
			if !ok {
				return fmt.Errorf("unknown granularity %q", granularity)
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			s, err := loadCLISession()
			if err != nil {
				return err
			}
			sess, err := s.current(cmd)
			if err != nil {
				return err
			}
			res, err := s.manager.Client(sess).SalesReport(cmd.Context(), g, max(page, 1), size)
			if err != nil {
				return err
			}

			r := export.Report{Granularity: g, Page: res.Pagination.Page, Rows: res.Rows}
			if r.Page == 0 {
				r.Page = max(page, 1)
			}
			if out == "" {
				out = r.Filename(f)
			}
			fh, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := export.Write(fh, f, r); err != nil {
				_ = fh.Close()
				return fmt.Errorf("write %s: %w", out, err)
			}
			if err := fh.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(r.Rows), out)
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&granularity, "granularity", "g", "daily", "daily | weekly | monthly")
	exportCmd.Flags().StringVarP(&format, "format", "f", "xlsx", "xlsx | pdf | csv")
	exportCmd.Flags().IntVar(&page, "page", 1, "report page")
	exportCmd.Flags().IntVar(&size, "size", 10, "rows per page")
	exportCmd.Flags().StringVarP(&out, "out", "o", "", "output file (default sales-report-<granularity>-p<page>.<format>)")

	cmd.AddCommand(exportCmd)
	return cmd
}
