// Package collector coordinates the weekly price collection pipeline:
// scrape every target store, validate and filter the results, persist
// them, and hand the finished dataset to the configured delivery
// integrations.
package collector

import (
	"database/sql"
	"time"

	"sodatrack-backend/internal/archive"
	"sodatrack-backend/internal/deliver"
	"sodatrack-backend/internal/scrapers/publix"
	"sodatrack-backend/internal/storage"
	"sodatrack-backend/internal/stores"
	"sodatrack-backend/internal/validate"

	"go.opentelemetry.io/otel"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("services/collector")

type OutputConfig struct {
	// DataDir is where datasets, summaries and the in-flight progress
	// file live.
	DataDir string
	Format  storage.Format
	// ChunkSize is how many stores are scraped between commits of the
	// accumulated products.
	ChunkSize int
}

func (c OutputConfig) withDefaults() OutputConfig {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.Format == "" {
		c.Format = storage.FormatCSV
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 20
	}
	return c
}

type ScheduleConfig struct {
	// Mode "test" runs immediately and then on a short interval,
	// anything else schedules the daily production cron.
	Mode         string
	TestInterval time.Duration
	// Hour and Minute give the daily production run time.
	Hour   int
	Minute int
}

func (c ScheduleConfig) withDefaults() ScheduleConfig {
	if c.TestInterval <= 0 {
		c.TestInterval = 5 * time.Minute
	}
	if c.Hour == 0 && c.Minute == 0 {
		c.Hour = 2
	}
	return c
}

type Service struct {
	client    *publix.Client
	directory stores.Directory
	archive   archive.Archive
	validator validate.Validator
	sheets    *deliver.SheetsClient
	email     *deliver.EmailSender
	webhook   *deliver.WebhookSender
	output    OutputConfig
	schedule  ScheduleConfig
}

type ServiceOptions struct {
	Database  *sql.DB
	Client    *publix.Client
	Directory stores.Directory

	// delivery integrations, each nil when not configured
	Sheets  *deliver.SheetsClient
	Email   *deliver.EmailSender
	Webhook *deliver.WebhookSender

	Validation validate.Config
	Output     OutputConfig
	Schedule   ScheduleConfig
}

func NewService(opts ServiceOptions) Service {
	if opts.Client == nil {
		panic("nil publix client")
	}

	return Service{
		client:    opts.Client,
		directory: opts.Directory,
		archive:   archive.New(opts.Database),
		validator: validate.New(opts.Validation),
		sheets:    opts.Sheets,
		email:     opts.Email,
		webhook:   opts.Webhook,
		output:    opts.Output.withDefaults(),
		schedule:  opts.Schedule.withDefaults(),
	}
}

// sinks lists the configured delivery integrations. capability is
// discovered with type assertions at the call sites.
func (s Service) sinks() []deliver.Sink {
	var out []deliver.Sink
	if s.email != nil {
		out = append(out, s.email)
	}
	if s.webhook != nil {
		out = append(out, s.webhook)
	}
	return out
}
