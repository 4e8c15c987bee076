package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/rfqpilot/internal/quote"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
)

var compareXLSX string

var compareCmd = &cobra.Command{
	Use:   "compare <rfq-id>",
	Short: "Compare the quotes received for an RFQ",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		ctx := context.Background()
		r, err := rfq.NewStore(database).Get(ctx, args[0])
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("no RFQ with id %q", args[0])
		}
		quotes, err := quote.NewStore(database).ListByRFQ(ctx, r.ID)
		if err != nil {
			return err
		}
		c, err := quote.Compare(quotes, cfg.FXOptions())
		if err != nil {
			return err
		}

		fmt.Printf("%s: %d quote(s), totals in %s\n\n", r.ProjectName, len(quotes), c.Currency)
		fmt.Printf("  %-30s %14s %10s\n", "Supplier", "Total", "Lead days")
		for _, rk := range c.Ranked {
			lead := "-"
			if rk.LeadDays != quote.UnparsedLeadTime {
				lead = fmt.Sprintf("%d", rk.LeadDays)
			}
			fmt.Printf("  %-30s %14.2f %10s\n", rk.Quote.SupplierName, rk.NormalizedTotal, lead)
		}
		for _, q := range c.Unranked {
			fmt.Printf("  %-30s %14s %10s  (%s %.2f, no rate)\n", q.SupplierName, "-", "-", q.Currency, q.Total)
		}
		fmt.Printf("\n%s\n", c.Recommendation)

		if compareXLSX != "" {
			f, err := os.Create(compareXLSX)
			if err != nil {
				return fmt.Errorf("creating %s: %w", compareXLSX, err)
			}
			defer f.Close()
			if err := quote.ExportXLSX(f, r, quotes, c); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Comparison written to %s\n", compareXLSX)
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareXLSX, "xlsx", "", "also export the comparison to this .xlsx file")
	rootCmd.AddCommand(compareCmd)
}
