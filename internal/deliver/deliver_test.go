package deliver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"sodatrack-backend/internal/catalog"
	"sodatrack-backend/internal/summary"
	"sodatrack-backend/lib/telemetry"
)

func sampleProducts(t *testing.T, count int) []catalog.Product {
	t.Helper()

	date, err := catalog.ParseDate("2025-08-25")
	require.NoError(t, err)

	products := make([]catalog.Product, count)
	for i := range products {
		products[i] = catalog.Product{
			Name:          fmt.Sprintf("Soda %d", i),
			Description:   "12 pack, 12 fl oz cans",
			Identifier:    fmt.Sprintf("ITEM%04d", i),
			Date:          date,
			Price:         7.99,
			Ounces:        144,
			PricePerOunce: catalog.PricePerOunce(7.99, 144),
			Week:          4,
			Store:         "1651 - Gainesville, FL",
		}
	}
	return products
}

func TestRows(t *testing.T) {
	date, err := catalog.ParseDate("2025-08-25")
	require.NoError(t, err)

	unit := catalog.PricePerOunce(7.99, 144)
	products := []catalog.Product{
		{
			Name:          "Coca-Cola Classic",
			Description:   "12 pack",
			Identifier:    "COKE12PK",
			Date:          date,
			Price:         7.99,
			Ounces:        144,
			PricePerOunce: unit,
			Promotion:     "BOGO",
			Week:          4,
			Store:         "1651 - Gainesville, FL",
		},
		{
			Name:       "Mystery Soda",
			Identifier: "MYSTERY1",
			Date:       date,
			Price:      2.50,
			Week:       4,
			Store:      "602 - Atlanta, GA",
		},
	}

	rows := Rows(products)
	require.Len(t, rows, 3)
	require.Equal(t, "Product Name", rows[0][0])
	require.Equal(t, "Store", rows[0][9])
	require.Equal(t, []any{
		"Coca-Cola Classic", "12 pack", "COKE12PK", "2025-08-25",
		7.99, 144.0, *unit, "BOGO", 4, "1651 - Gainesville, FL",
	}, rows[1])

	// a missing unit price turns into an empty cell
	require.Nil(t, rows[2][6])
}

func TestTabNames(t *testing.T) {
	require.Equal(t, "2025-08 Week 4", WeeklyTab("2025-08", 4))
	require.Equal(t, "Monthly Report - 2025-08", MonthlyTab("2025-08"))
}

func TestEmailContent(t *testing.T) {
	now := time.Date(2025, 8, 25, 2, 30, 0, 0, time.UTC)

	result := WeeklyResult{
		Week:         4,
		MonthYear:    "2025-08",
		DatasetPath:  "data/publix_soda_prices_week4_202508.csv",
		ProductCount: 1200,
		NewCount:     900,
		StoreCount:   310,
		SheetUrl:     "https://docs.google.com/spreadsheets/d/abc/edit#gid=1",
	}

	{
		require.Equal(t,
			"Publix Price Scraper - Week 4 Report (2025-08) - 1200 products",
			weeklySubject(result))

		body := weeklyBody(result, now)
		require.Contains(t, body, "Week: 4")
		require.Contains(t, body, "Date: 2025-08-25 02:30:00")
		require.Contains(t, body, "- Products collected: 1200")
		require.Contains(t, body, "- New products: 900")
		require.Contains(t, body, "- Stores covered: 310")
		require.Contains(t, body, result.SheetUrl)
		require.Contains(t, body, "publix_soda_prices_week4_202508.csv")
	}
	{
		// no sheet url falls back to the placeholder
		noSheet := result
		noSheet.SheetUrl = ""
		require.Contains(t, weeklyBody(noSheet, now), SheetUnavailable)
	}
	{
		monthly := MonthlyResult{
			MonthYear:    "2025-08",
			DatasetPath:  "data/publix_soda_prices_monthly_202508.csv",
			ProductCount: 4800,
			StoreCount:   312,
			WeeksCovered: []int{1, 2, 3, 4},
		}
		require.Equal(t,
			"Publix Price Scraper - Monthly Report (2025-08) - 4800 products",
			monthlySubject(monthly))
		require.Contains(t, monthlyBody(monthly, now), "- Weeks covered: 1, 2, 3, 4")
	}
	{
		progress := Progress{
			Week:            2,
			MonthYear:       "2025-08",
			StoresCompleted: 40,
			StoresTotal:     160,
			ProductsFound:   480,
			Remaining:       90 * time.Minute,
		}
		require.Equal(t,
			"Publix Scraper Progress - Week 2 (2025-08) - 25.0% Complete",
			progressSubject(progress))

		body := progressBody(progress, now)
		require.Contains(t, body, "- Stores completed: 40 / 160")
		require.Contains(t, body, "- Stores remaining: 120")
		require.Contains(t, body, "- Estimated time remaining: 1h30m0s")
		require.Contains(t, body, SheetUnavailable)
	}
}

func TestNewEmailSender(t *testing.T) {
	_, err := NewEmailSender(EmailConfig{To: []string{"a@example.com"}})
	require.Error(t, err)

	_, err = NewEmailSender(EmailConfig{Smtp: SmtpConfig{EmailAddress: "bot@example.com"}})
	require.Error(t, err)

	sender, err := NewEmailSender(EmailConfig{
		Smtp: SmtpConfig{EmailAddress: "bot@example.com", Password: "hunter2"},
		To:   []string{"a@example.com"},
	})
	require.NoError(t, err)
	require.Equal(t, "smtp.gmail.com", sender.config.Smtp.Server)
	require.Equal(t, 587, sender.config.Smtp.Port)
	require.Equal(t, "bot@example.com", sender.config.From)
	require.Equal(t, "email", sender.Name())
}

func TestWebhookEvents(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:deliver")
	defer cleanup()

	type received struct {
		EventType string          `json:"event_type"`
		Timestamp string          `json:"timestamp"`
		Data      json.RawMessage `json:"data"`
	}
	var events []received
	var userAgent string
	var eventsLock sync.Mutex

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload received
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		eventsLock.Lock()
		events = append(events, payload)
		userAgent = r.Header.Get("User-Agent")
		eventsLock.Unlock()
	}))
	defer srv.Close()

	sender, err := NewWebhookSender(WebhookConfig{Url: srv.URL})
	require.NoError(t, err)
	require.Equal(t, "webhook", sender.Name())

	ctx := context.Background()
	run := summary.NewRun()
	run.ProductsScraped = 12
	run.Finish()

	require.NoError(t, sender.SendRunSummary(ctx, run.Snapshot()))
	require.NoError(t, sender.SendFailure(ctx, "storefront unreachable", run.Snapshot()))
	require.NoError(t, sender.SendProductUpdate(ctx, sampleProducts(t, 12)))

	eventsLock.Lock()
	defer eventsLock.Unlock()
	require.Len(t, events, 3)
	require.Equal(t, "Publix-Price-Scraper/1.0", userAgent)

	{
		require.Equal(t, "scraping_summary", events[0].EventType)
		require.NotEmpty(t, events[0].Timestamp)

		var snapshot summary.Snapshot
		require.NoError(t, json.Unmarshal(events[0].Data, &snapshot))
		require.Equal(t, 12, snapshot.Products.Scraped)
	}
	{
		require.Equal(t, "error", events[1].EventType)

		var failure webhookFailure
		require.NoError(t, json.Unmarshal(events[1].Data, &failure))
		require.Equal(t, "storefront unreachable", failure.Error)
	}
	{
		// product updates carry the full count but only a sample
		require.Equal(t, "product_update", events[2].EventType)

		var update webhookProducts
		require.NoError(t, json.Unmarshal(events[2].Data, &update))
		require.Equal(t, 12, update.ProductCount)
		require.Len(t, update.Products, 10)
		require.Equal(t, "ITEM0000", update.Products[0].Identifier)
	}
}

func TestWebhookRejectedEvent(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:deliver")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sender, err := NewWebhookSender(WebhookConfig{Url: srv.URL})
	require.NoError(t, err)

	err = sender.SendRunSummary(context.Background(), summary.Snapshot{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
}

func TestWebhookRequiresUrl(t *testing.T) {
	_, err := NewWebhookSender(WebhookConfig{})
	require.Error(t, err)
}

// fakeSheetsServer emulates the handful of sheets api calls the
// Spreadsheet type makes.
type fakeSheetsServer struct {
	mu       sync.Mutex
	tabs     []string
	created  []string
	cleared  []string
	updates  []int
	appends  []int
	nextGrid int64
}

func (f *fakeSheetsServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		path := r.URL.Path

		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case strings.HasSuffix(path, ":batchUpdate"):
			var req struct {
				Requests []struct {
					AddSheet *struct {
						Properties struct {
							Title string `json:"title"`
						} `json:"properties"`
					} `json:"addSheet"`
				} `json:"requests"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if len(req.Requests) > 0 && req.Requests[0].AddSheet != nil {
				title := req.Requests[0].AddSheet.Properties.Title
				f.created = append(f.created, title)
				f.tabs = append(f.tabs, title)
				f.nextGrid++
				fmt.Fprintf(w, `{"replies": [{"addSheet": {"properties": {"sheetId": %d, "title": %q}}}]}`,
					700+f.nextGrid, title)
				return
			}
			// header formatting requests
			fmt.Fprint(w, `{"replies": []}`)

		case strings.HasSuffix(path, ":clear"):
			f.cleared = append(f.cleared, path)
			fmt.Fprint(w, `{}`)

		case strings.HasSuffix(path, ":append"):
			var body struct {
				Values [][]any `json:"values"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			f.appends = append(f.appends, len(body.Values))
			fmt.Fprint(w, `{}`)

		case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
			var body struct {
				Values [][]any `json:"values"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			f.updates = append(f.updates, len(body.Values))
			fmt.Fprint(w, `{}`)

		case r.Method == http.MethodGet:
			entries := make([]string, len(f.tabs))
			for i, tab := range f.tabs {
				entries[i] = fmt.Sprintf(`{"properties": {"sheetId": %d, "title": %q}}`, 100+i, tab)
			}
			fmt.Fprintf(w, `{"spreadsheetId": "sheet1", "sheets": [%s]}`, strings.Join(entries, ","))

		default:
			t.Errorf("unexpected sheets request: %s %s", r.Method, path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestSpreadsheetTabs(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:deliver")
	defer cleanup()

	fake := &fakeSheetsServer{tabs: []string{"2025-08 Week 4"}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL), option.WithoutAuthentication())
	require.NoError(t, err)

	sheet := &Spreadsheet{svc: svc, id: "sheet1"}
	rows := Rows(sampleProducts(t, 2))
	ctx := context.Background()

	{
		// overwriting an existing tab clears it and rewrites everything
		url, err := sheet.OverwriteTab(ctx, "2025-08 Week 4", rows)
		require.NoError(t, err)
		require.Equal(t, "https://docs.google.com/spreadsheets/d/sheet1/edit#gid=100", url)

		fake.mu.Lock()
		require.Len(t, fake.cleared, 1)
		require.Contains(t, fake.cleared[0], "2025-08 Week 4")
		require.Equal(t, []int{3}, fake.updates)
		require.Empty(t, fake.created)
		fake.mu.Unlock()
	}
	{
		// appending to a missing tab creates it, header included
		url, err := sheet.AppendTab(ctx, "2025-08 Week 1", rows)
		require.NoError(t, err)
		require.Equal(t, "https://docs.google.com/spreadsheets/d/sheet1/edit#gid=701", url)

		fake.mu.Lock()
		require.Equal(t, []string{"2025-08 Week 1"}, fake.created)
		require.Equal(t, []int{3, 3}, fake.updates)
		require.Empty(t, fake.appends)
		fake.mu.Unlock()
	}
	{
		// appending to an existing tab sends only the data rows
		_, err := sheet.AppendTab(ctx, "2025-08 Week 4", rows)
		require.NoError(t, err)

		fake.mu.Lock()
		require.Equal(t, []int{2}, fake.appends)
		require.Equal(t, []int{3, 3}, fake.updates)
		fake.mu.Unlock()
	}
}

func TestOpenResolvesSpreadsheet(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:deliver")
	defer cleanup()

	driveSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Query().Get("q"), "2025-08") {
			fmt.Fprint(w, `{"files": [{"id": "found123", "name": "Publix Soda Prices - 2025-08"}]}`)
			return
		}
		fmt.Fprint(w, `{"files": []}`)
	}))
	defer driveSrv.Close()

	sheetsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.Equal(t, http.MethodPost, r.Method)
		fmt.Fprint(w, `{"spreadsheetId": "created456"}`)
	}))
	defer sheetsSrv.Close()

	ctx := context.Background()
	sheetsSvc, err := sheets.NewService(ctx,
		option.WithEndpoint(sheetsSrv.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	driveSvc, err := drive.NewService(ctx,
		option.WithEndpoint(driveSrv.URL), option.WithoutAuthentication())
	require.NoError(t, err)

	{
		// a configured spreadsheet id wins over discovery
		client := &SheetsClient{
			sheets: sheetsSvc,
			drive:  driveSvc,
			config: SheetsConfig{SpreadsheetId: "pinned"},
		}
		sheet, err := client.Open(ctx, "2025-08")
		require.NoError(t, err)
		require.Equal(t, "https://docs.google.com/spreadsheets/d/pinned/edit", sheet.Url())
	}
	{
		// otherwise the month's spreadsheet is found by title
		client := &SheetsClient{sheets: sheetsSvc, drive: driveSvc}
		sheet, err := client.Open(ctx, "2025-08")
		require.NoError(t, err)
		require.Contains(t, sheet.Url(), "found123")
	}
	{
		// and created when no spreadsheet matches
		client := &SheetsClient{sheets: sheetsSvc, drive: driveSvc}
		sheet, err := client.Open(ctx, "2025-09")
		require.NoError(t, err)
		require.Contains(t, sheet.Url(), "created456")
	}
}
