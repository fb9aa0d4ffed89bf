package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"notary/internal/ledger"
	"notary/internal/logger"
	"notary/internal/tax"
	"notary/pkg/models"
)

var invoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "Import and inspect invoices",
	Long: `Import invoices from JSON and show their payment ledger.

Amounts are integers in the base monetary unit. Taxed items are grossed up
for the 2.5% withholding: the grand total covers what the client pays
before withholding.`,
}

var invoiceImportCmd = &cobra.Command{
	Use:   "import [json-file]",
	Short: "Import one invoice or an array of invoices from a JSON file",
	Example: `  # Import invoices exported from the office application
  notary invoice import invoices.json`,
	Args: cobra.ExactArgs(1),
	RunE: runInvoiceImport,
}

var invoiceShowCmd = &cobra.Command{
	Use:   "show [invoice-id]",
	Short: "Show an invoice with its items, payments and balance",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoiceShow,
}

var invoiceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices with their balance",
	Example: `  # Only invoices that are still open
  notary invoice list --status UNPAID`,
	Args: cobra.NoArgs,
	RunE: runInvoiceList,
}

func init() {
	rootCmd.AddCommand(invoiceCmd)
	invoiceCmd.AddCommand(invoiceImportCmd, invoiceShowCmd, invoiceListCmd)

	invoiceShowCmd.Flags().Bool("json", false, "Output as JSON format")
	invoiceListCmd.Flags().Bool("json", false, "Output as JSON format")
	invoiceListCmd.Flags().String("status", "", "Filter by status (PAID or UNPAID)")
}

func runInvoiceImport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice")

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	invoices, err := decodeInvoices(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := openApp(ctx, cmd, log)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, inv := range invoices {
		saved, err := a.ledger.SaveInvoice(ctx, inv)
		if err != nil {
			return fmt.Errorf("failed to import invoice %s: %w", inv.InvoiceNumber, err)
		}
		fmt.Printf("Imported %s (%s): total %d, %s\n", saved.InvoiceNumber, saved.ID, saved.TotalAmount, saved.Status)
	}

	log.Info().Int("invoices", len(invoices)).Str("file", args[0]).Msg("Import completed")
	return nil
}

func decodeInvoices(data []byte) ([]models.Invoice, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var invoices []models.Invoice
		if err := json.Unmarshal(trimmed, &invoices); err != nil {
			return nil, err
		}
		return invoices, nil
	}
	var inv models.Invoice
	if err := json.Unmarshal(trimmed, &inv); err != nil {
		return nil, err
	}
	return []models.Invoice{inv}, nil
}

func runInvoiceShow(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := openApp(ctx, cmd, log)
	if err != nil {
		return err
	}
	defer a.Close()

	inv, err := a.ledger.Invoice(ctx, args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(invoiceOutput(inv))
	}
	printInvoice(inv)
	return nil
}

func runInvoiceList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	status, _ := cmd.Flags().GetString("status")
	status = strings.ToUpper(status)

	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := openApp(ctx, cmd, log)
	if err != nil {
		return err
	}
	defer a.Close()

	var out []InvoiceOutput
	for _, inv := range a.ledger.View().List() {
		if status != "" && string(inv.Status) != status {
			continue
		}
		out = append(out, invoiceOutput(inv))
	}

	if jsonOutput {
		return printJSON(out)
	}

	fmt.Printf("%-14s %-10s %-24s %12s %12s %12s %-7s\n", "NUMBER", "DATE", "CLIENT", "TOTAL", "PAID", "REMAINING", "STATUS")
	for _, o := range out {
		fmt.Printf("%-14s %-10s %-24s %12d %12d %12d %-7s\n",
			o.Invoice.InvoiceNumber, o.Invoice.Date, truncate(o.Invoice.Client.Name, 24),
			o.Balance.GrandTotal, o.Balance.TotalPaid, o.Balance.Remaining, o.Balance.Status)
	}
	fmt.Printf("\n%d invoice(s)\n", len(out))
	return nil
}

// InvoiceOutput is the JSON shape of an invoice on the command line.
type InvoiceOutput struct {
	Invoice  models.Invoice         `json:"invoice"`
	Totals   tax.Totals             `json:"totals"`
	Balance  ledger.Balance         `json:"balance"`
	Payments []models.PaymentRecord `json:"payments"`
}

func invoiceOutput(inv models.Invoice) InvoiceOutput {
	return InvoiceOutput{
		Invoice:  inv,
		Totals:   tax.ComputeTotals(inv.Items),
		Balance:  ledger.BalanceOf(&inv),
		Payments: ledger.EffectiveHistory(&inv),
	}
}

func printInvoice(inv models.Invoice) {
	o := invoiceOutput(inv)

	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("Invoice %s (%s)\n", inv.InvoiceNumber, inv.ID)
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("Client:   %s\n", inv.Client.Name)
	fmt.Printf("Date:     %s\n", inv.Date)
	fmt.Printf("Due:      %s\n", inv.DueDate)
	fmt.Println()

	fmt.Println("=== ITEMS ===")
	for _, item := range inv.Items {
		line := tax.Calculate(item)
		marker := ""
		if item.IsTaxed {
			marker = fmt.Sprintf(" (withholding %d)", line.TaxAmount)
		}
		fmt.Printf("  %-40s %12d%s\n", truncate(item.Description, 40), line.GrossAmount, marker)
	}
	fmt.Printf("  %-40s %12d\n", "Subtotal", o.Totals.SubTotal)
	fmt.Printf("  %-40s %12d\n", "Withholding", o.Totals.TotalTax)
	fmt.Printf("  %-40s %12d\n", "Grand total", o.Totals.GrandTotal)
	fmt.Println()

	fmt.Println("=== PAYMENTS ===")
	if len(o.Payments) == 0 {
		fmt.Println("  none")
	}
	for _, p := range o.Payments {
		fmt.Printf("  %-38s %-10s %12d  %s\n", p.ID, p.Date, p.Amount, p.Note)
	}
	fmt.Println()

	fmt.Printf("Paid: %d  Remaining: %d  Status: %s\n", o.Balance.TotalPaid, o.Balance.Remaining, o.Balance.Status)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
