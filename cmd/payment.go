package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"notary/internal/ledger"
	"notary/internal/logger"
	"notary/pkg/models"
)

var paymentCmd = &cobra.Command{
	Use:   "payment",
	Short: "Record, correct and remove invoice payments",
	Long: `Maintain the payment ledger of an invoice.

Every change recomputes the paid amount and the PAID/UNPAID status from the
full history. Invoices that only carry a single older payment show it as
the record "legacy-payment"; it can be edited or deleted like any other.`,
}

var paymentAddCmd = &cobra.Command{
	Use:     "add [invoice-id]",
	Short:   "Add a payment to an invoice",
	Example: `  notary payment add 5f0c... --amount 50000 --date 2025-02-01 --note "bank transfer"`,
	Args:    cobra.ExactArgs(1),
	RunE:    runPaymentAdd,
}

var paymentEditCmd = &cobra.Command{
	Use:   "edit [invoice-id] [payment-id]",
	Short: "Replace the date, amount and note of a payment",
	Args:  cobra.ExactArgs(2),
	RunE:  runPaymentEdit,
}

var paymentDeleteCmd = &cobra.Command{
	Use:   "delete [invoice-id] [payment-id]",
	Short: "Delete a payment",
	Args:  cobra.ExactArgs(2),
	RunE:  runPaymentDelete,
}

var paymentListCmd = &cobra.Command{
	Use:   "list [invoice-id]",
	Short: "List the payments of an invoice",
	Args:  cobra.ExactArgs(1),
	RunE:  runPaymentList,
}

func init() {
	rootCmd.AddCommand(paymentCmd)
	paymentCmd.AddCommand(paymentAddCmd, paymentEditCmd, paymentDeleteCmd, paymentListCmd)

	for _, c := range []*cobra.Command{paymentAddCmd, paymentEditCmd} {
		c.Flags().Int64("amount", 0, "Payment amount in the base monetary unit")
		c.Flags().String("date", "", "Payment date YYYY-MM-DD (default today)")
		c.Flags().String("note", "", "Free text note")
		_ = c.MarkFlagRequired("amount")
	}
	for _, c := range []*cobra.Command{paymentAddCmd, paymentEditCmd, paymentDeleteCmd, paymentListCmd} {
		c.Flags().Bool("json", false, "Output as JSON format")
	}
}

func paymentInput(cmd *cobra.Command) ledger.PaymentInput {
	amount, _ := cmd.Flags().GetInt64("amount")
	date, _ := cmd.Flags().GetString("date")
	note, _ := cmd.Flags().GetString("note")
	if date == "" {
		date = today()
	}
	return ledger.PaymentInput{Date: date, Amount: amount, Note: note}
}

func runPaymentAdd(cmd *cobra.Command, args []string) error {
	in := paymentInput(cmd)
	return runLedgerMutation(cmd, "add", func(a *app, ctx context.Context) (models.Invoice, error) {
		return a.ledger.AddPayment(ctx, args[0], in)
	})
}

func runPaymentEdit(cmd *cobra.Command, args []string) error {
	in := paymentInput(cmd)
	return runLedgerMutation(cmd, "edit", func(a *app, ctx context.Context) (models.Invoice, error) {
		return a.ledger.EditPayment(ctx, args[0], args[1], in)
	})
}

func runPaymentDelete(cmd *cobra.Command, args []string) error {
	return runLedgerMutation(cmd, "delete", func(a *app, ctx context.Context) (models.Invoice, error) {
		return a.ledger.DeletePayment(ctx, args[0], args[1])
	})
}

func runPaymentList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("payment")
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
	printPayments(inv)
	return nil
}

// runLedgerMutation opens the store, applies fn and prints the resulting
// ledger. A persistence failure still prints the locally applied result.
func runLedgerMutation(cmd *cobra.Command, action string, fn func(*app, context.Context) (models.Invoice, error)) error {
	log := logger.WithComponent("payment")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := openApp(ctx, cmd, log)
	if err != nil {
		return err
	}
	defer a.Close()

	inv, err := fn(a, ctx)
	if err != nil && !errors.Is(err, ledger.ErrPersistence) {
		return handlePaymentError(err, action, log)
	}

	if jsonOutput {
		if outErr := printJSON(invoiceOutput(inv)); outErr != nil {
			return outErr
		}
	} else {
		printPayments(inv)
	}

	if err != nil {
		return handlePaymentError(err, action, log)
	}
	return nil
}

func handlePaymentError(err error, action string, log zerolog.Logger) error {
	log.Error().Err(err).Str("action", action).Msg("Payment command failed")

	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		return fmt.Errorf("invalid %s: %s", verr.Field, verr.Message)
	case errors.Is(err, ledger.ErrInvoiceNotFound):
		return fmt.Errorf("invoice not found. Use 'notary invoice list' to see the available ids")
	case errors.Is(err, ledger.ErrPaymentNotFound):
		return fmt.Errorf("payment not found. Use 'notary payment list <invoice-id>' to see the payment ids")
	case errors.Is(err, ledger.ErrPersistence):
		return fmt.Errorf("payment %s applied locally but not saved: %w", action, err)
	default:
		return fmt.Errorf("payment %s failed: %w", action, err)
	}
}

func printPayments(inv models.Invoice) {
	b := ledger.BalanceOf(&inv)

	fmt.Printf("=== PAYMENTS %s ===\n", inv.InvoiceNumber)
	history := ledger.EffectiveHistory(&inv)
	if len(history) == 0 {
		fmt.Println("  none")
	}
	for _, p := range history {
		fmt.Printf("  %-38s %-10s %12d  %s\n", p.ID, p.Date, p.Amount, p.Note)
	}
	fmt.Println()
	fmt.Printf("Grand total: %d  Paid: %d  Remaining: %d  Status: %s\n", b.GrandTotal, b.TotalPaid, b.Remaining, b.Status)
}
