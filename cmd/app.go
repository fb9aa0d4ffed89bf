package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"notary/internal/config"
	"notary/internal/ledger"
	"notary/internal/sequence"
	"notary/internal/store"
	"notary/pkg/models"
	"notary/pkg/services"
)

// app bundles the store and the services a command works with.
type app struct {
	cfg     *config.Config
	store   services.Store
	ledger  *ledger.Service
	deeds   *sequence.Service
	cancels []services.CancelFunc
}

// openApp opens the configured store and subscribes both services to it.
func openApp(ctx context.Context, cmd *cobra.Command, log zerolog.Logger) (*app, error) {
	cfg, ok := config.FromContext(cmd.Context())
	if !ok {
		var err error
		if cfg, err = config.Load(); err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	}

	log.Debug().Str("driver", cfg.StoreDriver).Msg("Opening store")

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err)
	}

	a := &app{
		cfg:    cfg,
		store:  st,
		ledger: ledger.NewService(st),
		deeds:  sequence.NewService(st),
	}

	// Subscriptions outlive the per-command timeout
	for _, start := range []func(context.Context) (services.CancelFunc, error){a.ledger.Start, a.deeds.Start} {
		cancel, err := start(cmd.Context())
		if err != nil {
			a.Close()
			return nil, err
		}
		a.cancels = append(a.cancels, cancel)
	}
	return a, nil
}

func (a *app) Close() {
	for _, cancel := range a.cancels {
		cancel()
	}
	_ = a.store.Close()
}

// commandContext applies the --timeout flag to the command context.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	secs, _ := cmd.Flags().GetInt("timeout")
	if secs <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), time.Duration(secs)*time.Second)
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func today() string {
	return time.Now().Format(models.DateLayout)
}
