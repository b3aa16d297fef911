package main

import (
	"context"
	"log/slog"
	"time"

	"sodatrack-backend/internal/archive/db"
	"sodatrack-backend/internal/deliver"
	"sodatrack-backend/internal/scrapers/publix"
	"sodatrack-backend/internal/storage"
	"sodatrack-backend/internal/stores"
	"sodatrack-backend/internal/validate"
	"sodatrack-backend/lib/configutil"
	configlibsql "sodatrack-backend/lib/configutil/libsql"
	"sodatrack-backend/lib/telemetry"
	"sodatrack-backend/lib/util/serviceutil"
	"sodatrack-backend/services/collector"
)

type ScraperConfig struct {
	BaseUrl    string `json:"base_url"`
	LocatorUrl string `json:"locator_url"`
	Category   string `json:"category"`
	PageSize   int    `json:"page_size"`
	// pause between stores
	RequestDelaySeconds int `json:"request_delay_seconds"`
	TimeoutSeconds      int `json:"timeout_seconds"`
	MaxRetries          int `json:"max_retries"`
	// jittered pause bounds between pages of one store
	PageDelayMinSeconds int    `json:"page_delay_min_seconds"`
	PageDelayMaxSeconds int    `json:"page_delay_max_seconds"`
	BypassBotCheck      bool   `json:"bypass_bot_check"`
	DebugOutputDir      string `json:"debug_output_dir"`
}

type OutputConfig struct {
	DataDir string `json:"data_dir"`
	// csv, json or xlsx
	Format    string `json:"format"`
	ChunkSize int    `json:"chunk_size"`
}

type ScheduleConfig struct {
	// "production" runs daily at hour:minute, "test" runs immediately
	// and then on the test interval
	Mode                string `json:"mode"`
	TestIntervalSeconds int    `json:"test_interval_seconds"`
	Hour                int    `json:"hour"`
	Minute              int    `json:"minute"`
}

type SheetsConfig struct {
	CredentialsFile string `json:"credentials_file"`
	SpreadsheetId   string `json:"spreadsheet_id"`
}

type EmailConfig struct {
	Server   string   `json:"server"`
	Port     int      `json:"port"`
	Address  string   `json:"address"`
	Password string   `json:"password"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

type WebhookConfig struct {
	Url            string `json:"url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type Config struct {
	Database   configlibsql.Struct `json:"database"`
	StoresFile string              `json:"stores_file"`
	Scraper    ScraperConfig       `json:"scraper"`
	Validation validate.Config     `json:"validation"`
	Output     OutputConfig        `json:"output"`
	Schedule   ScheduleConfig      `json:"schedule"`
	Sheets     SheetsConfig        `json:"sheets"`
	Email      EmailConfig         `json:"email"`
	Webhook    WebhookConfig       `json:"webhook"`
}

func seconds(value int) time.Duration {
	return time.Duration(value) * time.Second
}

func main() {
	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(false)
	telemetry.SetupFromEnv(ctx, "sodatrackd")
	telemetry.InstrumentPerfStats(ctx)

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	database, err := config.Database.OpenDB(db.Schema)
	if err != nil {
		serviceutil.Fatal("failed to open archive db", err)
	}

	client, err := publix.NewClient(publix.Config{
		BaseUrl:        config.Scraper.BaseUrl,
		LocatorUrl:     config.Scraper.LocatorUrl,
		Category:       config.Scraper.Category,
		PageSize:       config.Scraper.PageSize,
		RequestDelay:   seconds(config.Scraper.RequestDelaySeconds),
		Timeout:        seconds(config.Scraper.TimeoutSeconds),
		MaxRetries:     config.Scraper.MaxRetries,
		PageDelayMin:   seconds(config.Scraper.PageDelayMinSeconds),
		PageDelayMax:   seconds(config.Scraper.PageDelayMaxSeconds),
		BypassBotCheck: config.Scraper.BypassBotCheck,
		DebugOutputDir: config.Scraper.DebugOutputDir,
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize storefront client", err)
	}

	storesFile := config.StoresFile
	if storesFile == "" {
		storesFile = "stores.json"
	}

	format := storage.FormatCSV
	if config.Output.Format != "" {
		format, err = storage.ParseFormat(config.Output.Format)
		if err != nil {
			serviceutil.Fatal("bad output format", err)
		}
	}

	service := collector.NewService(collector.ServiceOptions{
		Database:   database,
		Client:     client,
		Directory:  stores.NewDirectory(storesFile, client),
		Sheets:     openSheets(ctx, config.Sheets),
		Email:      openEmail(config.Email),
		Webhook:    openWebhook(config.Webhook),
		Validation: config.Validation,
		Output: collector.OutputConfig{
			DataDir:   config.Output.DataDir,
			Format:    format,
			ChunkSize: config.Output.ChunkSize,
		},
		Schedule: collector.ScheduleConfig{
			Mode:         config.Schedule.Mode,
			TestInterval: seconds(config.Schedule.TestIntervalSeconds),
			Hour:         config.Schedule.Hour,
			Minute:       config.Schedule.Minute,
		},
	})

	err = service.StartDaemons(ctx)
	if err != nil {
		serviceutil.Fatal("failed to start schedule", err)
	}

	<-ctx.Done()
}

// the delivery integrations are optional, a missing or broken one is
// reported and the pipeline runs without it

func openSheets(ctx context.Context, config SheetsConfig) *deliver.SheetsClient {
	if config.CredentialsFile == "" && config.SpreadsheetId == "" {
		return nil
	}
	client, err := deliver.NewSheetsClient(ctx, deliver.SheetsConfig{
		CredentialsFile: config.CredentialsFile,
		SpreadsheetId:   config.SpreadsheetId,
	})
	if err != nil {
		slog.Warn("google sheets disabled", "err", err)
		return nil
	}
	return client
}

func openEmail(config EmailConfig) *deliver.EmailSender {
	if config.Address == "" {
		return nil
	}
	sender, err := deliver.NewEmailSender(deliver.EmailConfig{
		Smtp: deliver.SmtpConfig{
			Server:       config.Server,
			Port:         config.Port,
			EmailAddress: config.Address,
			Password:     config.Password,
		},
		From: config.From,
		To:   config.To,
	})
	if err != nil {
		slog.Warn("email notifications disabled", "err", err)
		return nil
	}
	return sender
}

func openWebhook(config WebhookConfig) *deliver.WebhookSender {
	if config.Url == "" {
		return nil
	}
	sender, err := deliver.NewWebhookSender(deliver.WebhookConfig{
		Url:     config.Url,
		Timeout: seconds(config.TimeoutSeconds),
	})
	if err != nil {
		slog.Warn("webhook notifications disabled", "err", err)
		return nil
	}
	return sender
}
