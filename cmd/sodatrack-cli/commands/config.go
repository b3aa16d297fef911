package commands

import (
	"context"
	"database/sql"
	"time"

	"sodatrack-backend/internal/archive/db"
	"sodatrack-backend/internal/deliver"
	"sodatrack-backend/internal/scrapers/publix"
	"sodatrack-backend/internal/storage"
	"sodatrack-backend/internal/stores"
	"sodatrack-backend/internal/validate"
	"sodatrack-backend/lib/configutil"
	configlibsql "sodatrack-backend/lib/configutil/libsql"
	"sodatrack-backend/lib/util/serviceutil"
	"sodatrack-backend/services/collector"

	"github.com/spf13/cobra"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

type ScraperConfig struct {
	BaseUrl             string `json:"base_url"`
	LocatorUrl          string `json:"locator_url"`
	Category            string `json:"category"`
	PageSize            int    `json:"page_size"`
	RequestDelaySeconds int    `json:"request_delay_seconds"`
	TimeoutSeconds      int    `json:"timeout_seconds"`
	MaxRetries          int    `json:"max_retries"`
	PageDelayMinSeconds int    `json:"page_delay_min_seconds"`
	PageDelayMaxSeconds int    `json:"page_delay_max_seconds"`
	BypassBotCheck      bool   `json:"bypass_bot_check"`
	DebugOutputDir      string `json:"debug_output_dir"`
}

type OutputConfig struct {
	DataDir   string `json:"data_dir"`
	Format    string `json:"format"`
	ChunkSize int    `json:"chunk_size"`
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

// Config mirrors the daemon's config file. the schedule section is
// ignored here, every command is a one-shot.
type Config struct {
	Database   configlibsql.Struct `json:"database"`
	StoresFile string              `json:"stores_file"`
	Scraper    ScraperConfig       `json:"scraper"`
	Validation validate.Config     `json:"validation"`
	Output     OutputConfig        `json:"output"`
	Sheets     SheetsConfig        `json:"sheets"`
	Email      EmailConfig         `json:"email"`
	Webhook    WebhookConfig       `json:"webhook"`
}

func seconds(value int) time.Duration {
	return time.Duration(value) * time.Second
}

func openConfig() Config {
	config, err := configutil.ReadConfig[Config](*configFile)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return config
}

func parseFormat(value string) storage.Format {
	if value == "" {
		return storage.FormatCSV
	}
	format, err := storage.ParseFormat(value)
	if err != nil {
		serviceutil.Fatal("bad output format", err)
	}
	return format
}

func openClient(config Config) *publix.Client {
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
	return client
}

func storesPath(config Config) string {
	if config.StoresFile == "" {
		return "stores.json"
	}
	return config.StoresFile
}

func openDirectory(config Config) stores.Directory {
	return stores.NewDirectory(storesPath(config), openClient(config))
}

func openDatabase(config Config) *sql.DB {
	database, err := config.Database.OpenDB(db.Schema)
	if err != nil {
		serviceutil.Fatal("failed to open archive db", err)
	}
	return database
}

// openService wires the full pipeline out of the config file, the
// same way the daemon does. delivery targets that fail to initialize
// are skipped rather than fatal.
func openService(ctx context.Context, cmd *cobra.Command) (collector.Service, Config) {
	config := openConfig()

	var sheets *deliver.SheetsClient
	if config.Sheets.CredentialsFile != "" || config.Sheets.SpreadsheetId != "" {
		client, err := deliver.NewSheetsClient(ctx, deliver.SheetsConfig{
			CredentialsFile: config.Sheets.CredentialsFile,
			SpreadsheetId:   config.Sheets.SpreadsheetId,
		})
		if err != nil {
			cmd.PrintErrln("google sheets disabled:", err.Error())
		} else {
			sheets = client
		}
	}

	var email *deliver.EmailSender
	if config.Email.Address != "" {
		sender, err := deliver.NewEmailSender(deliver.EmailConfig{
			Smtp: deliver.SmtpConfig{
				Server:       config.Email.Server,
				Port:         config.Email.Port,
				EmailAddress: config.Email.Address,
				Password:     config.Email.Password,
			},
			From: config.Email.From,
			To:   config.Email.To,
		})
		if err != nil {
			cmd.PrintErrln("email notifications disabled:", err.Error())
		} else {
			email = sender
		}
	}

	var webhook *deliver.WebhookSender
	if config.Webhook.Url != "" {
		sender, err := deliver.NewWebhookSender(deliver.WebhookConfig{
			Url:     config.Webhook.Url,
			Timeout: seconds(config.Webhook.TimeoutSeconds),
		})
		if err != nil {
			cmd.PrintErrln("webhook notifications disabled:", err.Error())
		} else {
			webhook = sender
		}
	}

	client := openClient(config)
	service := collector.NewService(collector.ServiceOptions{
		Database:   openDatabase(config),
		Client:     client,
		Directory:  stores.NewDirectory(storesPath(config), client),
		Sheets:     sheets,
		Email:      email,
		Webhook:    webhook,
		Validation: config.Validation,
		Output: collector.OutputConfig{
			DataDir:   config.Output.DataDir,
			Format:    parseFormat(config.Output.Format),
			ChunkSize: config.Output.ChunkSize,
		},
	})
	return service, config
}
