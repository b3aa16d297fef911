// Package deliver sends finished datasets and run reports to their
// configured destinations. Every destination is a Sink implementing
// whichever capability interfaces it supports, and the run coordinator
// iterates the sinks that are present instead of checking availability
// flags.
package deliver

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"sodatrack-backend/internal/catalog"
	"sodatrack-backend/internal/summary"
)

var tracer = otel.Tracer("deliver")

// SheetUnavailable stands in for the spreadsheet link in reports when
// no spreadsheet sink is configured or its upload failed.
const SheetUnavailable = "N/A - Google Sheets unavailable"

// Sink is a delivery destination.
type Sink interface {
	Name() string
}

// SpreadsheetSink receives tab writes while the run is in flight.
type SpreadsheetSink interface {
	Sink
	// OverwriteTab replaces the whole tab with rows (header first),
	// creating the tab when it does not exist. It returns the tab url.
	OverwriteTab(ctx context.Context, tab string, rows [][]any) (url string, err error)
	// AppendTab adds the data rows after the tab's existing ones. The
	// header row is only written when the tab has to be created, so it
	// appears exactly once.
	AppendTab(ctx context.Context, tab string, rows [][]any) (url string, err error)
}

type WeeklySink interface {
	Sink
	SendWeeklyReport(ctx context.Context, result WeeklyResult) error
}

type MonthlySink interface {
	Sink
	SendMonthlyReport(ctx context.Context, result MonthlyResult) error
}

type ProgressSink interface {
	Sink
	SendProgress(ctx context.Context, progress Progress) error
}

type SummarySink interface {
	Sink
	SendRunSummary(ctx context.Context, snapshot summary.Snapshot) error
}

type FailureSink interface {
	Sink
	SendFailure(ctx context.Context, message string, snapshot summary.Snapshot) error
}

type ProductSink interface {
	Sink
	SendProductUpdate(ctx context.Context, products []catalog.Product) error
}

// WeeklyResult describes one finished weekly dataset.
type WeeklyResult struct {
	Week         int
	MonthYear    string
	DatasetPath  string
	ProductCount int
	NewCount     int
	StoreCount   int
	SheetUrl     string
}

// MonthlyResult describes the consolidated month dataset.
type MonthlyResult struct {
	MonthYear    string
	DatasetPath  string
	ProductCount int
	StoreCount   int
	WeeksCovered []int
	SheetUrl     string
}

// Progress is a mid-run status update.
type Progress struct {
	Week            int
	MonthYear       string
	StoresCompleted int
	StoresTotal     int
	ProductsFound   int
	// Remaining is the estimated time left, zero when unknown.
	Remaining time.Duration
	SheetUrl  string
}

func (p Progress) Percent() float64 {
	if p.StoresTotal == 0 {
		return 0
	}
	return float64(p.StoresCompleted) / float64(p.StoresTotal) * 100
}

// WeeklyTab names the spreadsheet tab holding one week's records.
func WeeklyTab(monthYear string, week int) string {
	return fmt.Sprintf("%s Week %d", monthYear, week)
}

// MonthlyTab names the spreadsheet tab holding the month rollup.
func MonthlyTab(monthYear string) string {
	return fmt.Sprintf("Monthly Report - %s", monthYear)
}

// sheet tabs carry human readable headers, the data files keep the
// snake_case field names.
var sheetHeader = []any{
	"Product Name",
	"Product Description",
	"Product Identifier",
	"Date",
	"Price",
	"Ounces",
	"Price Per Ounce",
	"Price Promotion",
	"Week",
	"Store",
}

// Rows converts products into spreadsheet rows, header first.
func Rows(products []catalog.Product) [][]any {
	rows := make([][]any, 0, len(products)+1)
	rows = append(rows, sheetHeader)
	for _, p := range products {
		var unitPrice any
		if p.PricePerOunce != nil {
			unitPrice = *p.PricePerOunce
		}
		rows = append(rows, []any{
			p.Name,
			p.Description,
			p.Identifier,
			p.Date.String(),
			p.Price,
			p.Ounces,
			unitPrice,
			p.Promotion,
			p.Week,
			p.Store,
		})
	}
	return rows
}
