package sheets

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"notary/internal/logger"
)

var spreadsheetIDRegex = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// Grand total, Paid and Remaining span columns E to G (end exclusive).
const (
	firstAmountColumn = 4
	lastAmountColumn  = 7
)

// Service reads and writes worksheets of one spreadsheet.
type Service struct {
	api           *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

// NewSheetsService opens the spreadsheet behind sheetURL with the service
// account credentials from the environment.
func NewSheetsService(ctx context.Context, sheetURL string) (*Service, error) {
	const op = "NewSheetsService"

	log := logger.WithComponent("sheets")

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	creds, err := credentialsFromEnv()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	jwt, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	api, err := sheets.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets client: %w", op, err)
	}

	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Sheets client ready")

	return &Service{
		api:           api,
		spreadsheetID: spreadsheetID,
		log:           log,
	}, nil
}

// credentialsFromEnv returns the service account JSON named by
// GOOGLE_APPLICATION_CREDENTIALS or held in GOOGLE_CREDENTIALS.
func credentialsFromEnv() ([]byte, error) {
	if path := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); path != "" {
		creds, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		return creds, nil
	}
	if creds := os.Getenv("GOOGLE_CREDENTIALS"); creds != "" {
		return []byte(creds), nil
	}
	return nil, fmt.Errorf("neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set")
}

func extractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDRegex.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL %q", url)
	}
	return matches[1], nil
}

// WriteReceivables replaces the worksheet content with a header line, one
// row per receivable and a trailing export timestamp.
func (s *Service) WriteReceivables(ctx context.Context, rows []ReceivableRow, sheetName string) error {
	const op = "WriteReceivables"

	sheetID, err := s.ensureSheet(ctx, sheetName)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	clearRange := fmt.Sprintf("%s!A:%s", sheetName, lastColumn)
	if _, err := s.api.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%s: failed to clear %s: %w", op, clearRange, err)
	}

	values := make([][]interface{}, 0, len(rows)+2)
	values = append(values, headerValues())
	for _, row := range rows {
		values = append(values, row.Values())
	}
	values = append(values, []interface{}{"Exported " + time.Now().Format(time.RFC3339)})

	_, err = s.api.Spreadsheets.Values.Update(s.spreadsheetID, sheetName+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("%s: failed to write %d rows: %w", op, len(rows), err)
	}

	if err := s.formatReceivables(ctx, sheetID, int64(len(rows))); err != nil {
		s.log.Warn().Err(err).Str("sheet", sheetName).Msg("Receivables written without formatting")
	}

	s.log.Info().
		Str("sheet", sheetName).
		Int("rows", len(rows)).
		Msg("Receivables written")

	return nil
}

// ReadRange returns the cell values of rangeSpec, e.g. "Bank!A:D".
func (s *Service) ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error) {
	const op = "ReadRange"

	resp, err := s.api.Spreadsheets.Values.Get(s.spreadsheetID, rangeSpec).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %s: %w", op, rangeSpec, err)
	}

	s.log.Debug().
		Str("range", rangeSpec).
		Int("rows", len(resp.Values)).
		Msg("Range read")

	return resp.Values, nil
}

// ensureSheet returns the id of the named worksheet, adding it if missing.
func (s *Service) ensureSheet(ctx context.Context, sheetName string) (int64, error) {
	spreadsheet, err := s.api.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == sheetName {
			return sheet.Properties.SheetId, nil
		}
	}

	resp, err := s.batchUpdate(ctx, &sheets.Request{
		AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: sheetName}},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add sheet %s: %w", sheetName, err)
	}

	s.log.Info().Str("sheet", sheetName).Msg("Worksheet added")
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

// formatReceivables freezes and bolds the header row, applies a thousands
// format to the amount columns and resizes every column.
func (s *Service) formatReceivables(ctx context.Context, sheetID, rows int64) error {
	columns := int64(len(headers))

	_, err := s.batchUpdate(ctx,
		&sheets.Request{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
		&sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{SheetId: sheetID, StartRowIndex: 0, EndRowIndex: 1, EndColumnIndex: columns},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat:      &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		&sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    1,
					EndRowIndex:      rows + 1,
					StartColumnIndex: firstAmountColumn,
					EndColumnIndex:   lastAmountColumn,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{Type: "NUMBER", Pattern: "#,##0"},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		},
		&sheets.Request{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{SheetId: sheetID, Dimension: "COLUMNS", EndIndex: columns},
			},
		},
	)
	return err
}

func (s *Service) batchUpdate(ctx context.Context, requests ...*sheets.Request) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	return s.api.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).
		Context(ctx).
		Do()
}
