package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/rfqpilot/internal/activity"
	"github.com/ziadkadry99/rfqpilot/internal/purchaseorder"
	"github.com/ziadkadry99/rfqpilot/internal/quote"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
	"github.com/ziadkadry99/rfqpilot/internal/user"
)

var poOutput string

var poCmd = &cobra.Command{
	Use:   "po <quote-id>",
	Short: "Write the purchase order PDF for an accepted quote",
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
		q, err := quote.NewStore(database).Get(ctx, args[0])
		if err != nil {
			return err
		}
		if q == nil {
			return fmt.Errorf("no quote with id %q", args[0])
		}
		r, err := rfq.NewStore(database).Get(ctx, q.RfqID)
		if err != nil {
			return err
		}
		var buyer *user.BuyerProfile
		if r != nil {
			if buyer, err = user.NewStore(database).GetProfile(ctx, r.OwnerID); err != nil {
				return err
			}
		}

		po := purchaseorder.Build(q, r, buyer, time.Now())
		path := poOutput
		if path == "" {
			path = po.Number + ".pdf"
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		if err := purchaseorder.Render(po, f); err != nil {
			return err
		}

		if r != nil {
			if err := activity.NewStore(database).Record(ctx, r.OwnerID, activity.ActionPOGenerated, r.ID, po.Number); err != nil {
				slog.Warn("recording activity failed", "error", err)
			}
		}
		fmt.Printf("%s written to %s (%s %.2f)\n", po.Number, path, po.Currency, po.Total)
		return nil
	},
}

func init() {
	poCmd.Flags().StringVarP(&poOutput, "output", "o", "", "output file (defaults to <PO number>.pdf)")
	rootCmd.AddCommand(poCmd)
}
