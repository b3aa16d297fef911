package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"sodatrack-backend/internal/catalog"
	"sodatrack-backend/internal/dedup"
	"sodatrack-backend/internal/deliver"
	"sodatrack-backend/internal/storage"
	"sodatrack-backend/internal/summary"
	"sodatrack-backend/internal/weekcal"
	"sodatrack-backend/lib/timezone"

	"go.opentelemetry.io/otel/codes"
)

// RunRequest tweaks a single weekly run. the zero value scrapes every
// target store for the current calendar week with the service
// defaults.
type RunRequest struct {
	// Week pins the week-of-month number, 0 derives it from the
	// current date.
	Week int
	// StoreLimit caps how many stores are scraped, 0 means all.
	StoreLimit int
	// StartFrom resumes a run at the given store index. progress from
	// the interrupted run is kept and earlier stores are skipped.
	StartFrom int
	// Format overrides the configured dataset format when set.
	Format storage.Format
	// ChunkSize overrides the configured commit interval when
	// positive.
	ChunkSize int
}

type RunResult struct {
	DatasetPath string
	SummaryPath string
	Products    int
	// Stores is how many stores yielded products.
	Stores   int
	SheetUrl string
	Snapshot summary.Snapshot
	// Report is the rendered end-of-run table, ready to print.
	Report string
}

// weeklyState carries what accumulates across the chunk commits of
// one run.
type weeklyState struct {
	run       *summary.Run
	week      int
	monthYear string

	temp        storage.Store
	incremental *dedup.IncrementalFilter
	duplicates  *dedup.Deduplicator

	sheet *deliver.Spreadsheet
	tab   string
	// sheetWritten flips after the first successful flush, later
	// flushes append instead of overwriting.
	sheetWritten bool
	sheetUrl     string

	collected []catalog.Product
}

// RunWeekly scrapes every target store for the week, committing
// validated products in chunks, and finishes by writing the dataset,
// its summary sidecar, and notifying the configured integrations.
// Individual store failures are recorded and skipped; it only fails
// outright when no stores are reachable, nothing at all was
// collected, or the final dataset cannot be written.
func (s Service) RunWeekly(ctx context.Context, req RunRequest) (RunResult, error) {
	ctx, span := tracer.Start(ctx, "RunWeekly")
	defer span.End()

	now := timezone.Now()
	week := req.Week
	if week == 0 {
		week = weekcal.WeekOfMonth(now)
	}
	format := s.output.Format
	if req.Format != "" {
		format = req.Format
	}
	chunkSize := s.output.ChunkSize
	if req.ChunkSize > 0 {
		chunkSize = req.ChunkSize
	}

	run := summary.NewRun()
	run.WeeksProcessed = append(run.WeeksProcessed, week)
	st := &weeklyState{
		run:       run,
		week:      week,
		monthYear: weekcal.MonthYear(now),
		tab:       deliver.WeeklyTab(weekcal.MonthYear(now), week),
	}
	slog.InfoContext(ctx, "starting weekly run",
		"week", week, "month", st.monthYear, "format", format)

	fatal := func(err error) (RunResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		run.Finish()
		s.notifyFailure(context.WithoutCancel(ctx), err.Error(), run.Snapshot())
		return RunResult{}, err
	}

	if err := s.directory.Refresh(ctx, false); err != nil {
		return fatal(fmt.Errorf("refresh store directory: %w", err))
	}
	targets, err := s.directory.AllTargetStores()
	if err != nil {
		return fatal(fmt.Errorf("load store directory: %w", err))
	}
	if len(targets) == 0 {
		return fatal(errors.New("no stores available to scrape"))
	}
	if req.StartFrom > 0 {
		if req.StartFrom >= len(targets) {
			return fatal(fmt.Errorf("start index %d is beyond the %d known stores", req.StartFrom, len(targets)))
		}
		targets = targets[req.StartFrom:]
	}
	if req.StoreLimit > 0 && req.StoreLimit < len(targets) {
		targets = targets[:req.StoreLimit]
	}

	if s.sheets != nil {
		sheet, err := s.sheets.Open(ctx, st.monthYear)
		if err != nil {
			slog.WarnContext(ctx, "google sheets unavailable for this run", "err", err)
			run.RecordError(summary.RunError{Type: "google_sheets_init", Week: week, Message: err.Error()})
		} else {
			st.sheet = sheet
		}
	}

	if err := os.MkdirAll(s.output.DataDir, 0755); err != nil {
		return fatal(fmt.Errorf("create data dir: %w", err))
	}
	tempPath := storage.TempPath(s.output.DataDir, week, now)
	if req.StartFrom == 0 {
		// fresh runs start from an empty progress file, resumed runs
		// keep it so earlier chunks are not re-collected
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			slog.WarnContext(ctx, "remove stale progress file", "path", tempPath, "err", err)
		}
	}
	st.temp = storage.New(tempPath)

	st.incremental, err = dedup.NewIncrementalFilter(st.temp)
	if err != nil {
		return fatal(fmt.Errorf("seed incremental filter: %w", err))
	}
	st.duplicates, err = dedup.NewDeduplicator(st.temp)
	if err != nil {
		return fatal(fmt.Errorf("seed deduplicator: %w", err))
	}
	if req.StartFrom > 0 {
		// the resumed run's dataset must include the earlier chunks,
		// the filters alone would keep them out of this run
		prior, err := st.temp.Load()
		if err != nil {
			slog.WarnContext(ctx, "load prior progress", "path", tempPath, "err", err)
			run.RecordWarning(fmt.Sprintf("could not load prior progress: %s", err))
		} else {
			st.collected = prior
		}
	}
	if st.incremental.Known() > 0 {
		slog.InfoContext(ctx, "resuming with prior progress",
			"path", tempPath, "records", st.incremental.Known())
	}

	var pending []catalog.Product
	processed := 0
	succeeded := 0
	for i, store := range targets {
		if ctx.Err() != nil {
			slog.WarnContext(ctx, "run interrupted",
				"stores_processed", processed, "stores_total", len(targets))
			run.RecordError(summary.RunError{Type: "interrupted", Week: week, Message: ctx.Err().Error()})
			break
		}

		products, err := s.client.FetchProducts(ctx, store, week)
		processed++
		run.StoresProcessed = processed
		if err != nil {
			slog.WarnContext(ctx, "store scrape failed",
				"store", store.Ref(), "err", err)
			run.RecordError(summary.RunError{
				Type:    "scraping_error",
				Store:   store.Ref(),
				Week:    week,
				Message: err.Error(),
			})
		} else {
			succeeded++
			run.ProductsScraped += len(products)
			pending = append(pending, products...)
			slog.InfoContext(ctx, "store scraped",
				"store", store.Ref(), "products", len(products),
				"progress", fmt.Sprintf("%d/%d", processed, len(targets)))
		}

		if processed%chunkSize == 0 {
			s.commitChunk(ctx, st, pending)
			pending = nil
			if processed < len(targets) {
				s.sendProgress(ctx, st, processed, len(targets))
			}
		}

		if i < len(targets)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(s.client.RequestDelay()):
			}
		}
	}

	// the finalization below must survive an interrupt, it persists
	// whatever was collected
	fin := context.WithoutCancel(ctx)
	if len(pending) > 0 {
		s.commitChunk(fin, st, pending)
	}
	slog.InfoContext(ctx, "scraping finished",
		"stores_succeeded", succeeded,
		"stores_processed", processed,
		"stores_total", len(targets))

	if len(st.collected) == 0 {
		return fatal(errors.New("no products were collected from any store"))
	}

	datasetPath := storage.WeeklyPath(s.output.DataDir, week, now, format)
	if err := storage.New(datasetPath).Save(st.collected, false); err != nil {
		run.RecordError(summary.RunError{Type: "storage_error", Week: week, Message: err.Error()})
		return fatal(fmt.Errorf("write dataset: %w", err))
	}
	run.RecordFile(datasetPath)
	slog.InfoContext(ctx, "dataset written", "path", datasetPath, "products", len(st.collected))

	if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
		slog.WarnContext(fin, "remove progress file", "path", tempPath, "err", err)
	}

	run.Finish()

	report := run.WeeklyReport(datasetPath, format, week, now, st.collected)
	summaryPath := storage.SummaryPath(s.output.DataDir, storage.WeeklyBase(week, now))
	if err := summary.WriteFile(summaryPath, report); err != nil {
		slog.WarnContext(fin, "write summary sidecar", "path", summaryPath, "err", err)
		run.RecordWarning(fmt.Sprintf("could not write summary file: %s", err))
	} else {
		run.RecordFile(summaryPath)
	}

	s.deliverWeekly(fin, st, deliver.WeeklyResult{
		Week:         week,
		MonthYear:    st.monthYear,
		DatasetPath:  datasetPath,
		ProductCount: len(st.collected),
		NewCount:     run.ProductsNew,
		StoreCount:   report.DataSummary.TotalStores,
		SheetUrl:     st.sheetUrl,
	})

	return RunResult{
		DatasetPath: datasetPath,
		SummaryPath: summaryPath,
		Products:    len(st.collected),
		Stores:      succeeded,
		SheetUrl:    st.sheetUrl,
		Snapshot:    run.Snapshot(),
		Report:      run.Report(),
	}, nil
}

// commitChunk validates, filters and persists one batch of scraped
// products. failures of individual destinations are recorded on the
// run but never abort it, the products stay in st.collected for the
// final dataset regardless.
func (s Service) commitChunk(ctx context.Context, st *weeklyState, chunk []catalog.Product) {
	if len(chunk) == 0 {
		return
	}
	ctx, span := tracer.Start(ctx, "commitChunk")
	defer span.End()

	valid, defects := s.validator.ValidateAndClean(chunk)
	st.run.ProductsValid += len(valid)
	st.run.ProductsInvalid += len(defects)
	st.run.ValidationDefects = append(st.run.ValidationDefects, defects...)

	unseen := st.incremental.FilterNew(valid)
	fresh, _ := st.duplicates.Filter(unseen)
	dropped := len(valid) - len(fresh)
	st.run.ProductsNew += len(fresh)
	st.run.ProductsDuplicate += dropped
	slog.InfoContext(ctx, "committing chunk",
		"scraped", len(chunk), "valid", len(valid),
		"new", len(fresh), "duplicate", dropped)
	if len(fresh) == 0 {
		return
	}

	if err := st.temp.Save(fresh, true); err != nil {
		slog.WarnContext(ctx, "append to progress file", "err", err)
		st.run.RecordError(summary.RunError{Type: "storage_error", Week: st.week, Message: err.Error()})
	}
	st.collected = append(st.collected, fresh...)

	if inserted, _, err := s.archive.Record(ctx, fresh); err != nil {
		slog.WarnContext(ctx, "archive insert failed", "err", err)
		st.run.RecordError(summary.RunError{Type: "database_error", Week: st.week, Message: err.Error()})
	} else {
		slog.DebugContext(ctx, "archived chunk", "inserted", inserted)
	}

	if st.sheet != nil {
		rows := deliver.Rows(fresh)
		var url string
		var err error
		if st.sheetWritten {
			url, err = st.sheet.AppendTab(ctx, st.tab, rows)
		} else {
			url, err = st.sheet.OverwriteTab(ctx, st.tab, rows)
		}
		if err != nil {
			slog.WarnContext(ctx, "spreadsheet flush failed", "tab", st.tab, "err", err)
			st.run.RecordError(summary.RunError{Type: "google_sheets_error", Week: st.week, Message: err.Error()})
		} else {
			st.sheetWritten = true
			st.sheetUrl = url
			st.run.SheetsUploaded = true
		}
	}

	for _, sink := range s.sinks() {
		ps, ok := sink.(deliver.ProductSink)
		if !ok {
			continue
		}
		if err := ps.SendProductUpdate(ctx, fresh); err != nil {
			slog.WarnContext(ctx, "product update delivery failed", "sink", sink.Name(), "err", err)
		}
	}
}

// sendProgress emails a mid-run status to whoever can take one. the
// remaining-time estimate extrapolates from the pace so far.
func (s Service) sendProgress(ctx context.Context, st *weeklyState, done, total int) {
	var remaining time.Duration
	if done > 0 {
		elapsed := timezone.Now().Sub(st.run.StartTime())
		remaining = time.Duration(float64(elapsed) / float64(done) * float64(total-done))
	}
	progress := deliver.Progress{
		Week:            st.week,
		MonthYear:       st.monthYear,
		StoresCompleted: done,
		StoresTotal:     total,
		ProductsFound:   len(st.collected),
		Remaining:       remaining,
		SheetUrl:        st.sheetUrl,
	}

	for _, sink := range s.sinks() {
		ps, ok := sink.(deliver.ProgressSink)
		if !ok {
			continue
		}
		if err := ps.SendProgress(ctx, progress); err != nil {
			slog.WarnContext(ctx, "progress delivery failed", "sink", sink.Name(), "err", err)
		}
	}
}

// deliverWeekly fans the finished dataset out to every sink that can
// take a weekly report, then pushes the run summary. delivery
// failures are recorded on the run, never returned.
func (s Service) deliverWeekly(ctx context.Context, st *weeklyState, result deliver.WeeklyResult) {
	for _, sink := range s.sinks() {
		ws, ok := sink.(deliver.WeeklySink)
		if !ok {
			continue
		}
		if err := ws.SendWeeklyReport(ctx, result); err != nil {
			slog.WarnContext(ctx, "weekly report delivery failed", "sink", sink.Name(), "err", err)
			st.run.RecordError(summary.RunError{
				Type:    sink.Name() + "_error",
				Week:    st.week,
				Message: err.Error(),
			})
			continue
		}
		if sink.Name() == "email" {
			st.run.EmailSent = true
		}
	}

	for _, sink := range s.sinks() {
		ss, ok := sink.(deliver.SummarySink)
		if !ok {
			continue
		}
		if err := ss.SendRunSummary(ctx, st.run.Snapshot()); err != nil {
			slog.WarnContext(ctx, "run summary delivery failed", "sink", sink.Name(), "err", err)
			st.run.RecordError(summary.RunError{
				Type:    sink.Name() + "_error",
				Week:    st.week,
				Message: err.Error(),
			})
			continue
		}
		if sink.Name() == "webhook" {
			st.run.WebhookSent = true
		}
	}
}

// notifyFailure tells every sink that can take one that the run died.
func (s Service) notifyFailure(ctx context.Context, message string, snapshot summary.Snapshot) {
	for _, sink := range s.sinks() {
		fs, ok := sink.(deliver.FailureSink)
		if !ok {
			continue
		}
		if err := fs.SendFailure(ctx, message, snapshot); err != nil {
			slog.WarnContext(ctx, "failure notification failed", "sink", sink.Name(), "err", err)
		}
	}
}
