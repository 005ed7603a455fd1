package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/booktime/booktime-backend/internal/app/repository"
	"github.com/booktime/booktime-backend/internal/app/service"
	"github.com/spf13/cobra"
)

// SalesReportOptions holds flags for the sales-report command.
type SalesReportOptions struct {
	*RootOptions
	Days   int
	Period int
	Out    string
}

// NewSalesReportCommand creates the sales-report command.
func NewSalesReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SalesReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sales-report",
		Short: "Export the sales report as an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			reports := service.NewReportService(repository.NewReportRepository(opts.DB))
			data, err := reports.ExportXLSX(ctx, opts.Days, opts.Period)
			if err != nil {
				return err
			}
			if err := os.WriteFile(opts.Out, data, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sales report written to %s\n", opts.Out)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Days, "days", 0, fmt.Sprintf("days of orders per day to include (default %d)", service.DefaultReportDays))
	cmd.Flags().IntVar(&opts.Period, "period", 0, fmt.Sprintf("top products window in days, one of %v", service.TopProductPeriods))
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "sales-report.xlsx", "output file")

	return cmd
}
