package reconciliation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"notary/internal/logger"
	"notary/pkg/models"
)

// RangeReader reads cell values from a spreadsheet range.
type RangeReader interface {
	ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error)
}

// DataReader handles reading bank transactions from Google Sheets
type DataReader struct {
	sheets RangeReader
	log    zerolog.Logger
}

// NewDataReader creates a new data reader for Google Sheets
func NewDataReader(sheets RangeReader) *DataReader {
	return &DataReader{
		sheets: sheets,
		log:    logger.WithComponent("reconciliation-reader"),
	}
}

// ReadBankTransactions reads bank transactions from the given worksheet.
// Expected columns: A=Date, B=Reference, C=Counterparty, D=Amount.
// Rows that cannot be parsed are logged and skipped.
func (dr *DataReader) ReadBankTransactions(ctx context.Context, sheetName string) ([]BankTransaction, error) {
	const op = "ReadBankTransactions"

	dr.log.Info().Str("sheet", sheetName).Msg("Reading bank transactions")

	values, err := dr.sheets.ReadRange(ctx, sheetName+"!A:D")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %s sheet: %w", op, sheetName, err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("%s: %s sheet is empty", op, sheetName)
	}

	var transactions []BankTransaction
	for i, row := range values[1:] {
		rowNum := i + 2 // header row plus 1-based numbering

		if len(row) < 4 {
			dr.log.Warn().
				Int("row", rowNum).
				Int("columns", len(row)).
				Msg("Skipping bank transaction row with insufficient columns")
			continue
		}

		transaction, err := parseBankTransaction(row, rowNum)
		if err != nil {
			dr.log.Warn().
				Err(err).
				Int("row", rowNum).
				Msg("Failed to parse bank transaction, skipping")
			continue
		}

		transactions = append(transactions, transaction)
	}

	dr.log.Info().
		Int("total_rows", len(values)-1).
		Int("parsed_transactions", len(transactions)).
		Str("sheet", sheetName).
		Msg("Bank transactions read successfully")

	return transactions, nil
}

func parseBankTransaction(row []interface{}, rowNum int) (BankTransaction, error) {
	const op = "parseBankTransaction"

	dateStr := getString(row, 0)
	date, err := parseDate(dateStr)
	if err != nil {
		return BankTransaction{}, fmt.Errorf("%s: invalid date '%s' in row %d: %w", op, dateStr, rowNum, err)
	}

	amountStr := getString(row, 3)
	amount, err := parseAmount(amountStr)
	if err != nil {
		return BankTransaction{}, fmt.Errorf("%s: invalid amount '%s' in row %d: %w", op, amountStr, rowNum, err)
	}

	return BankTransaction{
		Row:          rowNum,
		Date:         date.Format(models.DateLayout),
		Reference:    getString(row, 1),
		CounterParty: getString(row, 2),
		Amount:       amount,
	}, nil
}

var dateFormats = []string{
	"2006-01-02", // ISO
	"02.01.2006", // DD.MM.YYYY
	"2.1.2006",   // D.M.YYYY
	"02/01/2006", // DD/MM/YYYY
	"2/1/2006",   // D/M/YYYY
	"02.01.06",   // DD.MM.YY
}

// parseDate accepts the date formats bank exports commonly use.
func parseDate(dateStr string) (time.Time, error) {
	cleaned := strings.TrimSpace(dateStr)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	for _, format := range dateFormats {
		if date, err := time.Parse(format, cleaned); err == nil {
			return date, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// parseAmount parses an amount in the base monetary unit. Dots, commas and
// spaces are accepted as thousands separators. A trailing separator followed
// by one or two digits is a decimal part, which must be zero.
func parseAmount(amountStr string) (int64, error) {
	cleaned := strings.TrimSpace(amountStr)
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := strings.HasPrefix(cleaned, "-")
	cleaned = strings.TrimPrefix(cleaned, "-")

	for _, symbol := range []string{"Rp", "IDR", "EUR", "€", " ", "\u00a0"} {
		cleaned = strings.ReplaceAll(cleaned, symbol, "")
	}

	fraction := ""
	if idx := strings.LastIndexAny(cleaned, ".,"); idx >= 0 && len(cleaned)-idx-1 <= 2 {
		fraction = cleaned[idx+1:]
		cleaned = cleaned[:idx]
	}
	cleaned = strings.NewReplacer(".", "", ",", "").Replace(cleaned)

	number := cleaned
	if fraction != "" {
		number += "." + fraction
	}
	d, err := decimal.NewFromString(number)
	if err != nil {
		return 0, fmt.Errorf("unable to parse amount: %s (cleaned: %s)", amountStr, number)
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has a fractional part", amountStr)
	}

	amount := d.IntPart()
	if negative {
		amount = -amount
	}
	return amount, nil
}

// getString safely extracts a string value from a row slice
func getString(row []interface{}, index int) string {
	if index >= len(row) || row[index] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", row[index]))
}
