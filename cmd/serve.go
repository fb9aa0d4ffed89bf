package cmd

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"notary/internal/api"
	"notary/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the invoice ledger and deed numbering over HTTP",
	Long: `Start the JSON API.

  GET    /invoices                                 invoices with balances
  GET    /invoices/:id                             one invoice
  POST   /invoices/:id/payments                    add a payment
  PUT    /invoices/:id/payments/:paymentId         edit a payment
  DELETE /invoices/:id/payments/:paymentId         delete a payment
  GET    /deeds                                    recorded deeds
  GET    /deeds/next-number?date=YYYY-MM-DD        preview deed numbers
  POST   /deeds                                    record a deed
  GET    /healthz                                  liveness`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")
	addr, _ := cmd.Flags().GetString("addr")

	ctx := cmd.Context()
	a, err := openApp(ctx, cmd, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if addr == "" {
		addr = a.cfg.HTTPAddr
	}
	if a.cfg.LogLevel != "debug" && a.cfg.LogLevel != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info().
		Str("addr", addr).
		Str("driver", a.cfg.StoreDriver).
		Int("invoices", a.ledger.View().Len()).
		Msg("Starting API server")

	return api.NewServer(a.ledger, a.deeds).Run(ctx, addr)
}
