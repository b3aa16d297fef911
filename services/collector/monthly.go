package collector

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"sodatrack-backend/internal/catalog"
	"sodatrack-backend/internal/deliver"
	"sodatrack-backend/internal/storage"
	"sodatrack-backend/internal/summary"
	"sodatrack-backend/internal/weekcal"

	"go.opentelemetry.io/otel/codes"
)

type MonthlyResult struct {
	DatasetPath string
	SummaryPath string
	Products    int
	Weeks       []int
	SheetUrl    string
}

// RunMonthly consolidates the month's weekly csv datasets into one
// deduplicated monthly dataset with its own summary sidecar, then
// pushes the rollup to the monthly spreadsheet tab and any sink that
// takes a monthly report. Unreadable weekly files are skipped, it
// fails only when there is nothing to consolidate or the output
// cannot be written.
func (s Service) RunMonthly(ctx context.Context, at time.Time) (MonthlyResult, error) {
	ctx, span := tracer.Start(ctx, "RunMonthly")
	defer span.End()

	fatal := func(err error) (MonthlyResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return MonthlyResult{}, err
	}

	monthYear := weekcal.MonthYear(at)
	files, err := filepath.Glob(storage.WeeklyGlob(s.output.DataDir, at, storage.FormatCSV))
	if err != nil {
		return fatal(fmt.Errorf("glob weekly datasets: %w", err))
	}
	slices.Sort(files)
	if len(files) == 0 {
		return fatal(fmt.Errorf("no weekly datasets found for %s", monthYear))
	}
	slog.InfoContext(ctx, "consolidating month",
		"month", monthYear, "weekly_files", len(files))

	var all []catalog.Product
	for _, f := range files {
		products, err := storage.New(f).Load()
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable weekly dataset", "path", f, "err", err)
			continue
		}
		all = append(all, products...)
	}
	if len(all) == 0 {
		return fatal(fmt.Errorf("weekly datasets for %s held no readable records", monthYear))
	}

	// the first observation of a product/store/week/date wins
	seen := make(map[string]struct{}, len(all))
	unique := make([]catalog.Product, 0, len(all))
	for _, p := range all {
		key := p.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, p)
	}

	datasetPath := storage.MonthlyPath(s.output.DataDir, at)
	if err := storage.New(datasetPath).Save(unique, false); err != nil {
		return fatal(fmt.Errorf("write monthly dataset: %w", err))
	}
	slog.InfoContext(ctx, "monthly dataset written",
		"path", datasetPath, "products", len(unique),
		"duplicates_dropped", len(all)-len(unique))

	report := summary.NewMonthlyReport(at, unique, files)
	summaryPath := storage.SummaryPath(s.output.DataDir, storage.MonthlyBase(at))
	if err := summary.WriteFile(summaryPath, report); err != nil {
		slog.WarnContext(ctx, "write monthly summary sidecar", "path", summaryPath, "err", err)
	}

	var sheetUrl string
	if s.sheets != nil {
		sheet, err := s.sheets.Open(ctx, monthYear)
		if err != nil {
			slog.WarnContext(ctx, "google sheets unavailable for monthly rollup", "err", err)
		} else {
			url, err := sheet.OverwriteTab(ctx, deliver.MonthlyTab(monthYear), deliver.Rows(unique))
			if err != nil {
				slog.WarnContext(ctx, "monthly tab upload failed", "err", err)
			} else {
				sheetUrl = url
			}
		}
	}

	result := deliver.MonthlyResult{
		MonthYear:    monthYear,
		DatasetPath:  datasetPath,
		ProductCount: report.TotalProducts,
		StoreCount:   report.TotalStores,
		WeeksCovered: report.WeeksCovered,
		SheetUrl:     sheetUrl,
	}
	for _, sink := range s.sinks() {
		ms, ok := sink.(deliver.MonthlySink)
		if !ok {
			continue
		}
		if err := ms.SendMonthlyReport(ctx, result); err != nil {
			slog.WarnContext(ctx, "monthly report delivery failed", "sink", sink.Name(), "err", err)
		}
	}

	return MonthlyResult{
		DatasetPath: datasetPath,
		SummaryPath: summaryPath,
		Products:    len(unique),
		Weeks:       report.WeeksCovered,
		SheetUrl:    sheetUrl,
	}, nil
}
