package deliver

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type SheetsConfig struct {
	CredentialsFile string
	// SpreadsheetId pins all tabs to one spreadsheet. When empty, a
	// spreadsheet per month is found or created instead.
	SpreadsheetId string
}

// SheetsClient talks to the google sheets and drive apis with a
// service account.
type SheetsClient struct {
	sheets *sheets.Service
	drive  *drive.Service
	config SheetsConfig
}

func NewSheetsClient(ctx context.Context, config SheetsConfig, opts ...option.ClientOption) (*SheetsClient, error) {
	var clientOpts []option.ClientOption
	if config.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(config.CredentialsFile))
	}
	clientOpts = append(clientOpts, opts...)

	sheetsSvc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("init sheets api: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("init drive api: %w", err)
	}
	return &SheetsClient{sheets: sheetsSvc, drive: driveSvc, config: config}, nil
}

// Open resolves the spreadsheet that holds a month's tabs. A configured
// spreadsheet id always wins, otherwise an existing monthly spreadsheet
// is reused or a fresh one created.
func (c *SheetsClient) Open(ctx context.Context, monthYear string) (*Spreadsheet, error) {
	ctx, span := tracer.Start(ctx, "sheets:Open")
	defer span.End()

	if c.config.SpreadsheetId != "" {
		return &Spreadsheet{svc: c.sheets, id: c.config.SpreadsheetId}, nil
	}

	title := fmt.Sprintf("Publix Soda Prices - %s", monthYear)
	query := fmt.Sprintf(
		"name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false",
		title,
	)
	found, err := c.drive.Files.List().Q(query).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to search for monthly spreadsheet")
		return nil, err
	}
	if len(found.Files) > 0 {
		slog.InfoContext(ctx, "reusing monthly spreadsheet", "title", title, "id", found.Files[0].Id)
		return &Spreadsheet{svc: c.sheets, id: found.Files[0].Id}, nil
	}

	created, err := c.sheets.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
	}).Context(ctx).Do()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create monthly spreadsheet")
		return nil, err
	}
	slog.InfoContext(ctx, "created monthly spreadsheet", "title", title, "id", created.SpreadsheetId)
	return &Spreadsheet{svc: c.sheets, id: created.SpreadsheetId}, nil
}

// Spreadsheet is one opened spreadsheet.
type Spreadsheet struct {
	svc *sheets.Service
	id  string
}

func (s *Spreadsheet) Name() string {
	return "google_sheets"
}

func (s *Spreadsheet) Url() string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit", s.id)
}

func (s *Spreadsheet) tabUrl(sheetId int64) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%d", s.id, sheetId)
}

// findTab reports the tab's grid id and whether the tab exists at all.
// Absence is an expected outcome on the first write of a week, not an
// error.
func (s *Spreadsheet) findTab(ctx context.Context, tab string) (int64, bool, error) {
	doc, err := s.svc.Spreadsheets.Get(s.id).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, false, err
	}
	for _, sheet := range doc.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == tab {
			return sheet.Properties.SheetId, true, nil
		}
	}
	return 0, false, nil
}

func (s *Spreadsheet) createTab(ctx context.Context, tab string, rowCount int) (int64, error) {
	res, err := s.svc.Spreadsheets.BatchUpdate(s.id, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: tab,
					GridProperties: &sheets.GridProperties{
						RowCount:    int64(rowCount),
						ColumnCount: int64(len(sheetHeader)),
					},
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	for _, reply := range res.Replies {
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			return reply.AddSheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("add sheet reply carries no properties")
}

func (s *Spreadsheet) write(ctx context.Context, tab string, rows [][]any) error {
	_, err := s.svc.Spreadsheets.Values.
		Update(s.id, fmt.Sprintf("'%s'!A1", tab), &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// decorate bolds the header row and auto sizes the columns. Cosmetic,
// so failures only get logged.
func (s *Spreadsheet) decorate(ctx context.Context, sheetId int64) {
	_, err := s.svc.Spreadsheets.BatchUpdate(s.id, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:          sheetId,
						StartRowIndex:    0,
						EndRowIndex:      1,
						StartColumnIndex: 0,
						EndColumnIndex:   int64(len(sheetHeader)),
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							TextFormat:      &sheets.TextFormat{Bold: true},
							BackgroundColor: &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
						},
					},
					Fields: "userEnteredFormat(textFormat,backgroundColor)",
				},
			},
			{
				AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
					Dimensions: &sheets.DimensionRange{
						SheetId:    sheetId,
						Dimension:  "COLUMNS",
						StartIndex: 0,
						EndIndex:   int64(len(sheetHeader)),
					},
				},
			},
		},
	}).Context(ctx).Do()
	if err != nil {
		slog.WarnContext(ctx, "failed to format tab header", "err", err)
	}
}

func (s *Spreadsheet) OverwriteTab(ctx context.Context, tab string, rows [][]any) (string, error) {
	ctx, span := tracer.Start(ctx, "sheets:OverwriteTab")
	defer span.End()

	sheetId, exists, err := s.findTab(ctx, tab)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to look up tab")
		return "", err
	}
	if exists {
		_, err = s.svc.Spreadsheets.Values.
			Clear(s.id, fmt.Sprintf("'%s'", tab), &sheets.ClearValuesRequest{}).
			Context(ctx).
			Do()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to clear tab")
			return "", err
		}
	} else {
		sheetId, err = s.createTab(ctx, tab, len(rows)+100)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to create tab")
			return "", err
		}
	}

	err = s.write(ctx, tab, rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write rows")
		return "", err
	}
	s.decorate(ctx, sheetId)

	slog.InfoContext(ctx, "overwrote sheet tab", "tab", tab, "records", len(rows)-1)
	return s.tabUrl(sheetId), nil
}

func (s *Spreadsheet) AppendTab(ctx context.Context, tab string, rows [][]any) (string, error) {
	ctx, span := tracer.Start(ctx, "sheets:AppendTab")
	defer span.End()

	sheetId, exists, err := s.findTab(ctx, tab)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to look up tab")
		return "", err
	}
	if !exists {
		sheetId, err = s.createTab(ctx, tab, len(rows)+100)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to create tab")
			return "", err
		}
		err = s.write(ctx, tab, rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to write rows")
			return "", err
		}
		s.decorate(ctx, sheetId)
		slog.InfoContext(ctx, "created sheet tab", "tab", tab, "records", len(rows)-1)
		return s.tabUrl(sheetId), nil
	}

	_, err = s.svc.Spreadsheets.Values.
		Append(s.id, fmt.Sprintf("'%s'!A1", tab), &sheets.ValueRange{Values: rows[1:]}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to append rows")
		return "", err
	}

	slog.InfoContext(ctx, "appended to sheet tab", "tab", tab, "records", len(rows)-1)
	return s.tabUrl(sheetId), nil
}
