package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"notary/internal/logger"
	"notary/internal/sequence"
	"notary/pkg/models"
)

var deedCmd = &cobra.Command{
	Use:   "deed",
	Short: "Allocate deed numbers and record deeds",
	Long: `Deeds carry two numbers derived from the deeds already recorded:

  order number  counts deeds within the calendar year, three digits ("001")
  deed number   counts deeds within the calendar month, two digits below 10 ("01")

Both restart with a new period. Editing an existing deed keeps its numbers.`,
}

var deedNextCmd = &cobra.Command{
	Use:     "next",
	Short:   "Preview the numbers a new deed would receive",
	Example: `  notary deed next --date 2025-01-20`,
	Args:    cobra.NoArgs,
	RunE:    runDeedNext,
}

var deedCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Record a deed, allocating numbers when it is new",
	Example: `  notary deed create --date 2025-01-20 --title "Sale of land" --appearer "A. Rossi" --appearer "B. Verdi"

  # Update an existing deed; its numbers are kept
  notary deed create --id 7d1e... --date 2025-01-21 --title "Sale of land (amended)"`,
	Args: cobra.NoArgs,
	RunE: runDeedCreate,
}

var deedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded deeds",
	Args:  cobra.NoArgs,
	RunE:  runDeedList,
}

func init() {
	rootCmd.AddCommand(deedCmd)
	deedCmd.AddCommand(deedNextCmd, deedCreateCmd, deedListCmd)

	deedNextCmd.Flags().String("date", "", "Deed date YYYY-MM-DD (default today)")
	deedNextCmd.Flags().Bool("json", false, "Output as JSON format")

	defineDeedCreateFlags(deedCreateCmd)

	deedListCmd.Flags().String("year", "", "Only deeds of this year (YYYY)")
	deedListCmd.Flags().Bool("json", false, "Output as JSON format")
}

func runDeedNext(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("deed")
	date, _ := cmd.Flags().GetString("date")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	if date == "" {
		date = today()
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := openApp(ctx, cmd, log)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.deeds.NextNumbers(ctx, date)
	if err != nil {
		return handleDeedError(err)
	}

	if jsonOutput {
		return printJSON(n)
	}
	fmt.Printf("Next deed on %s: order number %s, deed number %s\n", date, n.OrderNumber, n.DeedNumber)
	return nil
}

func defineDeedCreateFlags(c *cobra.Command) {
	c.Flags().String("id", "", "Id of an existing deed to update")
	c.Flags().String("date", "", "Deed date YYYY-MM-DD (default today for new deeds)")
	c.Flags().String("title", "", "Deed title")
	c.Flags().StringArray("appearer", nil, "Appearing party (repeatable, replaces all appearers)")
	c.Flags().String("client", "", "Client id")
	c.Flags().Bool("json", false, "Output as JSON format")
}

func runDeedCreate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("deed")
	id, _ := cmd.Flags().GetString("id")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := openApp(ctx, cmd, log)
	if err != nil {
		return err
	}
	defer a.Close()

	base := models.Deed{ID: id}
	if id != "" {
		existing, ok, err := a.deeds.Deed(ctx, id)
		if err != nil {
			return handleDeedError(err)
		}
		if ok {
			base = existing
		}
	}

	deed, err := a.deeds.CreateDeed(ctx, applyDeedFlags(cmd, base))
	if err != nil {
		return handleDeedError(err)
	}

	if jsonOutput {
		return printJSON(deed)
	}
	fmt.Printf("Deed %s saved: order number %s, deed number %s (%s)\n", deed.ID, deed.OrderNumber, deed.DeedNumber, deed.DeedDate)
	return nil
}

// applyDeedFlags overrides the fields of base whose flags were given on the
// command line. A deed without a date is dated today.
func applyDeedFlags(cmd *cobra.Command, base models.Deed) models.Deed {
	deed := base
	flags := cmd.Flags()
	if flags.Changed("date") {
		deed.DeedDate, _ = flags.GetString("date")
	}
	if flags.Changed("title") {
		deed.Title, _ = flags.GetString("title")
	}
	if flags.Changed("appearer") {
		deed.Appearers, _ = flags.GetStringArray("appearer")
	}
	if flags.Changed("client") {
		deed.ClientID, _ = flags.GetString("client")
	}
	if deed.DeedDate == "" {
		deed.DeedDate = today()
	}
	return deed
}

func runDeedList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("deed")
	year, _ := cmd.Flags().GetString("year")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := openApp(ctx, cmd, log)
	if err != nil {
		return err
	}
	defer a.Close()

	deeds, err := a.deeds.Deeds(ctx)
	if err != nil {
		return err
	}
	if year != "" {
		filtered := deeds[:0]
		for _, d := range deeds {
			if strings.HasPrefix(d.DeedDate, year) {
				filtered = append(filtered, d)
			}
		}
		deeds = filtered
	}

	if jsonOutput {
		return printJSON(deeds)
	}

	fmt.Printf("%-10s %-6s %-5s %-40s %s\n", "DATE", "ORDER", "DEED", "TITLE", "ID")
	for _, d := range deeds {
		fmt.Printf("%-10s %-6s %-5s %-40s %s\n", d.DeedDate, d.OrderNumber, d.DeedNumber, truncate(d.Title, 40), d.ID)
	}
	fmt.Printf("\n%d deed(s)\n", len(deeds))
	return nil
}

func handleDeedError(err error) error {
	var verr *sequence.ValidationError
	switch {
	case errors.As(err, &verr):
		return fmt.Errorf("invalid %s %q: %s", verr.Field, verr.Value, verr.Message)
	case errors.Is(err, sequence.ErrPersistence):
		return fmt.Errorf("deed numbered locally but not saved: %w", err)
	default:
		return err
	}
}
