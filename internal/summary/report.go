package summary

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"sodatrack-backend/internal/catalog"
	"sodatrack-backend/internal/storage"
	"sodatrack-backend/internal/weekcal"
	"sodatrack-backend/lib/timezone"
)

type DatasetInfo struct {
	Filename          string `json:"filename"`
	Format            string `json:"format"`
	GenerationDate    string `json:"generation_date"`
	Week              int    `json:"week"`
	MonthYear         string `json:"month_year"`
	IsLastWeekOfMonth bool   `json:"is_last_week_of_month"`
}

type DataSummary struct {
	TotalProducts int `json:"total_products"`
	TotalStores   int `json:"total_stores"`
	Week          int `json:"week"`
}

type ScrapingSummary struct {
	StoresProcessed   int        `json:"stores_processed"`
	ProductsScraped   int        `json:"products_scraped"`
	ProductsValid     int        `json:"products_valid"`
	ProductsNew       int        `json:"products_new"`
	ProductsDuplicate int        `json:"products_duplicate"`
	ProductsInvalid   int        `json:"products_invalid"`
	Errors            []RunError `json:"errors"`
	DurationSeconds   float64    `json:"duration_seconds"`
}

// WeeklyReport is the sidecar json written next to each weekly
// dataset.
type WeeklyReport struct {
	DatasetInfo     DatasetInfo     `json:"dataset_info"`
	DataSummary     DataSummary     `json:"data_summary"`
	ScrapingSummary ScrapingSummary `json:"scraping_summary"`
	FieldsIncluded  []string        `json:"fields_included"`
}

// WeeklyReport builds the sidecar for a finished dataset. at is the
// run's reference date, week is the collection week recorded on the
// products (it may be overridden, so it is passed rather than derived).
func (r *Run) WeeklyReport(datasetPath string, format storage.Format, week int, at time.Time, products []catalog.Product) WeeklyReport {
	return WeeklyReport{
		DatasetInfo: DatasetInfo{
			Filename:          datasetPath,
			Format:            string(format),
			GenerationDate:    timezone.Now().Format(time.RFC3339),
			Week:              week,
			MonthYear:         weekcal.MonthYear(at),
			IsLastWeekOfMonth: weekcal.IsLastWeek(at),
		},
		DataSummary: DataSummary{
			TotalProducts: len(products),
			TotalStores:   distinctStores(products),
			Week:          week,
		},
		ScrapingSummary: ScrapingSummary{
			StoresProcessed:   r.StoresProcessed,
			ProductsScraped:   r.ProductsScraped,
			ProductsValid:     r.ProductsValid,
			ProductsNew:       r.ProductsNew,
			ProductsDuplicate: r.ProductsDuplicate,
			ProductsInvalid:   r.ProductsInvalid,
			Errors:            errorsOrEmpty(r.Errors),
			DurationSeconds:   r.Duration().Seconds(),
		},
		FieldsIncluded: storage.Header(),
	}
}

// MonthlyReport is the sidecar for the consolidated month dataset.
type MonthlyReport struct {
	MonthYear      string   `json:"month_year"`
	GenerationDate string   `json:"generation_date"`
	TotalProducts  int      `json:"total_products"`
	TotalStores    int      `json:"total_stores"`
	WeeksCovered   []int    `json:"weeks_covered"`
	WeeklyFiles    []string `json:"weekly_files"`
}

func NewMonthlyReport(at time.Time, products []catalog.Product, weeklyFiles []string) MonthlyReport {
	names := make([]string, len(weeklyFiles))
	for i, f := range weeklyFiles {
		names[i] = filepath.Base(f)
	}
	return MonthlyReport{
		MonthYear:      weekcal.MonthYear(at),
		GenerationDate: timezone.Now().Format(time.RFC3339),
		TotalProducts:  len(products),
		TotalStores:    distinctStores(products),
		WeeksCovered:   weeksCovered(products),
		WeeklyFiles:    names,
	}
}

// WriteFile persists a report as indented json.
func WriteFile(path string, report any) error {
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	err = os.WriteFile(path, raw, 0644)
	if err != nil {
		return err
	}
	slog.Info("wrote summary report", "path", path)
	return nil
}

func distinctStores(products []catalog.Product) int {
	seen := map[string]bool{}
	for _, p := range products {
		seen[p.Store] = true
	}
	return len(seen)
}

func weeksCovered(products []catalog.Product) []int {
	seen := map[int]bool{}
	for _, p := range products {
		seen[p.Week] = true
	}
	weeks := make([]int, 0, len(seen))
	for week := range seen {
		weeks = append(weeks, week)
	}
	slices.Sort(weeks)
	return weeks
}

// Report renders the run as a table for the log and the cli.
func (r *Run) Report() string {
	files := "none"
	if len(r.FilesCreated) > 0 {
		files = strings.Join(r.FilesCreated, "\n")
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"duration", r.Duration().Round(time.Second)},
		{"stores processed", r.StoresProcessed},
		{"products scraped", r.ProductsScraped},
		{"products valid", r.ProductsValid},
		{"products invalid", r.ProductsInvalid},
		{"products new", r.ProductsNew},
		{"products duplicate", r.ProductsDuplicate},
		{"files created", files},
		{"google sheets", yesNo(r.SheetsUploaded)},
		{"email", yesNo(r.EmailSent)},
		{"webhook", yesNo(r.WebhookSent)},
		{"errors", len(r.Errors)},
		{"warnings", len(r.Warnings)},
	})
	t.SetStyle(table.StyleRounded)

	report := t.Render()
	for i, e := range r.Errors {
		if i == 10 {
			report += fmt.Sprintf("\n... and %d more errors", len(r.Errors)-10)
			break
		}
		report += fmt.Sprintf("\nerror (%s): %s", e.Type, e.Message)
	}
	return report
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
