package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"notary/internal/config"
	"notary/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "notary",
	Short: "Notary back office - invoices, payments and deed numbering",
	Long: `Notary back office keeps the payment ledger of client invoices and
allocates the order and deed numbers of new notarial deeds.

Records live in the store selected by STORE_DRIVER (sqlite, postgres,
firestore or memory). Receivables can be exported to Google Sheets,
incoming bank transfers matched to invoices (see "notary reconcile") and
everything is also available over a JSON API (see "notary serve").`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with cfg available to every subcommand.
// Interrupts cancel the command context.
func Execute(cfg *config.Config) {
	log := logger.WithComponent("cmd")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg != nil {
		ctx = config.NewContext(ctx, cfg)
	}

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Int("timeout", 30, "Timeout in seconds for store operations (0 disables)")
}
