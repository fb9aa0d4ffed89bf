package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"notary/internal/logger"
	"notary/internal/reconciliation"
	"notary/internal/sheets"
	"notary/pkg/models"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Record incoming bank transfers as invoice payments",
	Long: `Read bank transactions from a Google Sheet and record every incoming
transfer whose reference names an invoice number as a payment on that invoice.

The worksheet needs the columns Date, Reference, Counterparty and Amount with a
header row. Transfers that were recorded by an earlier run are skipped.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_SHEET_URL - Google Sheets URL containing the bank worksheet (or --sheet-url)`,
	Example: `  # Show what would be recorded
  notary reconcile --dry-run

  # Only transfers booked up to the end of June
  notary reconcile --cutoff-date 2025-06-30`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().String("sheet-url", "", "Google Sheets URL (default GOOGLE_SHEET_URL)")
	reconcileCmd.Flags().String("bank-sheet", "", "Worksheet holding the bank transactions (default GOOGLE_BANK_WORKSHEET)")
	reconcileCmd.Flags().String("cutoff-date", "", "Ignore transactions after this date (format: YYYY-MM-DD)")
	reconcileCmd.Flags().Bool("dry-run", false, "Match transactions but don't record payments")
	reconcileCmd.Flags().Bool("json", false, "Output the result as JSON")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("reconcile")

	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	bankSheet, _ := cmd.Flags().GetString("bank-sheet")
	cutoffDateStr, _ := cmd.Flags().GetString("cutoff-date")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if cutoffDateStr != "" {
		if _, err := time.Parse(models.DateLayout, cutoffDateStr); err != nil {
			return fmt.Errorf("invalid cutoff date format. Use YYYY-MM-DD: %w", err)
		}
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := openApp(ctx, cmd, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if sheetURL == "" {
		sheetURL = a.cfg.GoogleSheetURL
	}
	if sheetURL == "" {
		return fmt.Errorf("no sheet configured. Set GOOGLE_SHEET_URL or pass --sheet-url")
	}
	if bankSheet == "" {
		bankSheet = a.cfg.GoogleBankWorksheet
	}

	log.Info().
		Str("bank_sheet", bankSheet).
		Str("cutoff_date", cutoffDateStr).
		Bool("dry_run", dryRun).
		Msg("Starting bank reconciliation")

	sheetsService, err := sheets.NewSheetsService(ctx, sheetURL)
	if err != nil {
		return fmt.Errorf("failed to initialize Google Sheets service: %w", err)
	}

	transactions, err := reconciliation.NewDataReader(sheetsService).ReadBankTransactions(ctx, bankSheet)
	if err != nil {
		return fmt.Errorf("failed to read bank transactions: %w", err)
	}
	if cutoffDateStr != "" {
		transactions = beforeCutoff(transactions, cutoffDateStr)
	}

	result := reconciliation.MatchTransactions(transactions, a.ledger.View().List())
	log.Info().Interface("summary", result.Summary()).Msg("Bank transactions matched")

	recorded := 0
	var applyErr error
	if !dryRun {
		recorded, applyErr = reconciliation.NewApplier(a.ledger).Apply(ctx, result.Matched)
	}

	if jsonOutput {
		if err := printJSON(result); err != nil {
			return err
		}
	} else {
		printReconciliation(result, dryRun, recorded)
	}
	return applyErr
}

// beforeCutoff keeps transactions dated on or before cutoff.
func beforeCutoff(transactions []reconciliation.BankTransaction, cutoff string) []reconciliation.BankTransaction {
	kept := transactions[:0:0]
	for _, tx := range transactions {
		if tx.Date <= cutoff {
			kept = append(kept, tx)
		}
	}
	return kept
}

func printReconciliation(result reconciliation.Result, dryRun bool, recorded int) {
	fmt.Println("=== BANK RECONCILIATION ===")
	fmt.Println(strings.Repeat("=", 72))

	if len(result.Matched) > 0 {
		fmt.Printf("%-5s %-10s %-16s %12s %12s  %s\n", "ROW", "DATE", "INVOICE", "AMOUNT", "OPEN", "COUNTERPARTY")
		fmt.Println(strings.Repeat("-", 72))
		for _, m := range result.Matched {
			fmt.Printf("%-5d %-10s %-16s %12d %12d  %s\n",
				m.Transaction.Row, m.Transaction.Date, truncate(m.InvoiceNumber, 16),
				m.Transaction.Amount, m.Remaining, truncate(m.Transaction.CounterParty, 20))
		}
		fmt.Println()
	}

	printSkipped("Ambiguous", result.Ambiguous)
	printSkipped("Unmatched", result.Unmatched)

	fmt.Printf("Matched: %d  Already booked: %d  Ambiguous: %d  Unmatched: %d  Outgoing: %d\n",
		len(result.Matched), len(result.Booked), len(result.Ambiguous), len(result.Unmatched), result.Outgoing)
	if dryRun {
		fmt.Println("Dry run: no payments recorded")
	} else {
		fmt.Printf("Recorded %d payment(s)\n", recorded)
	}
}

func printSkipped(label string, transactions []reconciliation.BankTransaction) {
	if len(transactions) == 0 {
		return
	}
	fmt.Printf("%s:\n", label)
	for _, tx := range transactions {
		fmt.Printf("  row %-4d %-10s %12d  %s\n", tx.Row, tx.Date, tx.Amount, truncate(tx.Reference, 40))
	}
	fmt.Println()
}
