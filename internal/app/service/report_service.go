package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/booktime/booktime-backend/internal/app/repository"
	"github.com/booktime/booktime-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const (
	DefaultReportDays = 180
	topProductsLimit  = 5
)

// TopProductPeriods are the windows, in days, offered for the
// most-bought products chart.
var TopProductPeriods = []int{30, 60, 90}

type SalesReport struct {
	Days        int                       `json:"days"`
	OrdersByDay []repository.DayCount     `json:"orders_by_day"`
	Period      int                       `json:"period"`
	TopProducts []repository.ProductCount `json:"top_products"`
}

type ReportService interface {
	Sales(ctx context.Context, days, period int) (*SalesReport, error)
	ExportXLSX(ctx context.Context, days, period int) ([]byte, error)
}

type reportService struct {
	reportRepo repository.ReportRepository
	now        func() time.Time
}

func NewReportService(reportRepo repository.ReportRepository) ReportService {
	return &reportService{reportRepo: reportRepo, now: time.Now}
}

func validPeriod(period int) bool {
	for _, p := range TopProductPeriods {
		if p == period {
			return true
		}
	}
	return false
}

func (s *reportService) Sales(ctx context.Context, days, period int) (*SalesReport, error) {
	if days == 0 {
		days = DefaultReportDays
	}
	if period == 0 {
		period = TopProductPeriods[0]
	}
	if days < 1 {
		return nil, &ValidationError{Fields: map[string]string{"days": "must be positive"}}
	}
	if !validPeriod(period) {
		return nil, &ValidationError{Fields: map[string]string{"period": fmt.Sprintf("must be one of %v", TopProductPeriods)}}
	}

	now := s.now()
	byDay, err := s.reportRepo.OrdersPerDay(now.AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}
	top, err := s.reportRepo.MostBoughtProducts(now.AddDate(0, 0, -period), topProductsLimit)
	if err != nil {
		return nil, err
	}

	return &SalesReport{Days: days, OrdersByDay: byDay, Period: period, TopProducts: top}, nil
}

// ExportXLSX renders the sales report as a workbook with one sheet per chart.
func (s *reportService) ExportXLSX(ctx context.Context, days, period int) ([]byte, error) {
	report, err := s.Sales(ctx, days, period)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const ordersSheet = "Orders per day"
	const productsSheet = "Top products"
	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(productsSheet); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(ordersSheet, "A1", &[]interface{}{"Day", "Orders"}); err != nil {
		return nil, err
	}
	for i, d := range report.OrdersByDay {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ordersSheet, cell, &[]interface{}{d.Day, d.Count}); err != nil {
			return nil, err
		}
	}

	if err := f.SetSheetRow(productsSheet, "A1", &[]interface{}{"Product", "Quantity"}); err != nil {
		return nil, err
	}
	for i, p := range report.TopProducts {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(productsSheet, cell, &[]interface{}{p.Name, p.Quantity}); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	logger.Info("Sales report exported", map[string]interface{}{
		"days":   report.Days,
		"period": report.Period,
		"rows":   len(report.OrdersByDay),
	})
	return buf.Bytes(), nil
}
