package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"notary/internal/logger"
	"notary/internal/sheets"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export ledger data",
}

var exportReceivablesCmd = &cobra.Command{
	Use:   "receivables",
	Short: "Write the receivables of every invoice to a Google Sheet",
	Long: `Write one row per invoice (number, dates, client, grand total, paid,
remaining, status and last payment date) to a worksheet. The worksheet is
created if needed and its previous content replaced.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_SHEET_URL - Target spreadsheet (or --sheet-url)`,
	Example: `  # Only invoices with an open balance
  notary export receivables --open-only

  # Print the rows instead of writing them
  notary export receivables --dry-run`,
	Args: cobra.NoArgs,
	RunE: runExportReceivables,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportReceivablesCmd)

	exportReceivablesCmd.Flags().String("sheet-url", "", "Google Sheets URL (default GOOGLE_SHEET_URL)")
	exportReceivablesCmd.Flags().String("worksheet", "", "Worksheet name (default GOOGLE_SHEET_WORKSHEET)")
	exportReceivablesCmd.Flags().Bool("open-only", false, "Skip invoices with nothing left to pay")
	exportReceivablesCmd.Flags().Bool("dry-run", false, "Print the rows without writing to the sheet")
}

func runExportReceivables(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")

	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	worksheet, _ := cmd.Flags().GetString("worksheet")
	openOnly, _ := cmd.Flags().GetBool("open-only")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

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
	if worksheet == "" {
		worksheet = a.cfg.GoogleSheetWorksheet
	}

	rows := sheets.BuildReceivableRows(a.ledger.View().List(), openOnly)

	log.Info().
		Int("rows", len(rows)).
		Bool("open_only", openOnly).
		Bool("dry_run", dryRun).
		Msg("Receivables prepared")

	if dryRun {
		for _, r := range rows {
			fmt.Println(r.Values()...)
		}
		return nil
	}

	if sheetURL == "" {
		return fmt.Errorf("no sheet configured. Set GOOGLE_SHEET_URL or pass --sheet-url")
	}

	sheetsService, err := sheets.NewSheetsService(ctx, sheetURL)
	if err != nil {
		return fmt.Errorf("failed to create sheets service: %w", err)
	}
	if err := sheetsService.WriteReceivables(ctx, rows, worksheet); err != nil {
		return err
	}

	fmt.Printf("Exported %d invoice(s) to worksheet %q\n", len(rows), worksheet)
	return nil
}
