// Package summary accumulates per-run counters and produces the
// sidecar reports that accompany every dataset.
package summary

import (
	"time"

	"sodatrack-backend/internal/validate"
	"sodatrack-backend/lib/timezone"
)

// RunError is one recorded failure. Type is a stable machine-readable
// kind ("scraping_error", "database_error", ...), the rest is context.
type RunError struct {
	Type    string `json:"type"`
	Store   string `json:"store,omitempty"`
	Week    int    `json:"week,omitempty"`
	Message string `json:"message"`
}

// Run collects everything observed during one collection run. the
// coordinator mutates it freely, it is not goroutine safe.
type Run struct {
	ProductsScraped   int
	ProductsValid     int
	ProductsInvalid   int
	ProductsNew       int
	ProductsDuplicate int
	StoresProcessed   int
	WeeksProcessed    []int

	Errors            []RunError
	Warnings          []string
	ValidationDefects []validate.Defect
	FilesCreated      []string

	SheetsUploaded bool
	EmailSent      bool
	WebhookSent    bool

	startTime time.Time
	endTime   time.Time
}

func NewRun() *Run {
	return &Run{startTime: timezone.Now()}
}

func (r *Run) Finish() {
	r.endTime = timezone.Now()
}

func (r *Run) StartTime() time.Time {
	return r.startTime
}

func (r *Run) Duration() time.Duration {
	if r.endTime.IsZero() {
		return time.Since(r.startTime)
	}
	return r.endTime.Sub(r.startTime)
}

func (r *Run) RecordError(e RunError) {
	r.Errors = append(r.Errors, e)
}

func (r *Run) RecordWarning(message string) {
	r.Warnings = append(r.Warnings, message)
}

func (r *Run) RecordFile(path string) {
	r.FilesCreated = append(r.FilesCreated, path)
}

type ProductCounts struct {
	Scraped   int `json:"scraped"`
	Valid     int `json:"valid"`
	Invalid   int `json:"invalid"`
	New       int `json:"new"`
	Duplicate int `json:"duplicate"`
}

type Integrations struct {
	GoogleSheets bool `json:"google_sheets"`
	Email        bool `json:"email"`
	Webhook      bool `json:"webhook"`
}

// Snapshot is the whole-run JSON form, also what the webhook's
// scraping_summary event carries.
type Snapshot struct {
	StartTime             string        `json:"start_time"`
	EndTime               string        `json:"end_time,omitempty"`
	DurationSeconds       float64       `json:"duration_seconds"`
	Products              ProductCounts `json:"products"`
	StoresProcessed       int           `json:"stores_processed"`
	WeeksProcessed        []int         `json:"weeks_processed"`
	Errors                []RunError    `json:"errors"`
	Warnings              []string      `json:"warnings"`
	ValidationErrorsCount int           `json:"validation_errors_count"`
	FilesCreated          []string      `json:"files_created"`
	Integrations          Integrations  `json:"integrations"`
}

func (r *Run) Snapshot() Snapshot {
	endTime := ""
	if !r.endTime.IsZero() {
		endTime = r.endTime.Format(time.RFC3339)
	}
	return Snapshot{
		StartTime:       r.startTime.Format(time.RFC3339),
		EndTime:         endTime,
		DurationSeconds: r.Duration().Seconds(),
		Products: ProductCounts{
			Scraped:   r.ProductsScraped,
			Valid:     r.ProductsValid,
			Invalid:   r.ProductsInvalid,
			New:       r.ProductsNew,
			Duplicate: r.ProductsDuplicate,
		},
		StoresProcessed:       r.StoresProcessed,
		WeeksProcessed:        intsOrEmpty(r.WeeksProcessed),
		Errors:                errorsOrEmpty(r.Errors),
		Warnings:              stringsOrEmpty(r.Warnings),
		ValidationErrorsCount: len(r.ValidationDefects),
		FilesCreated:          stringsOrEmpty(r.FilesCreated),
		Integrations: Integrations{
			GoogleSheets: r.SheetsUploaded,
			Email:        r.EmailSent,
			Webhook:      r.WebhookSent,
		},
	}
}

// keep the marshalled form a list, never null

func errorsOrEmpty(v []RunError) []RunError {
	if v == nil {
		return []RunError{}
	}
	return v
}

func stringsOrEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func intsOrEmpty(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}
