package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/rfqpilot/internal/rfq"
	"github.com/ziadkadry99/rfqpilot/internal/sharelink"
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Create and inspect share links",
}

var shareQR string

var shareEncodeCmd = &cobra.Command{
	Use:   "encode <rfq-id>",
	Short: "Print the supplier link for a stored RFQ",
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

		r, err := rfq.NewStore(database).Get(context.Background(), args[0])
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("no RFQ with id %q", args[0])
		}

		link, err := sharelink.RFQLink(cfg.Server.BaseURL, r)
		if err != nil {
			return err
		}
		fmt.Println(link)

		if shareQR != "" {
			png, err := sharelink.QRCode(link, r.ProjectName)
			if err != nil {
				return fmt.Errorf("rendering QR code: %w", err)
			}
			if err := os.WriteFile(shareQR, png, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", shareQR, err)
			}
			fmt.Fprintf(os.Stderr, "QR code written to %s\n", shareQR)
		}
		return nil
	},
}

var shareDecodeCmd = &cobra.Command{
	Use:   "decode <url>",
	Short: "Show what a supplier or quote-response link carries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var lookup sharelink.Lookup
		if cfg, err := loadConfig(); err == nil {
			if database, err := openDatabase(cfg); err == nil {
				defer database.Close()
				lookup = rfq.NewStore(database)
			}
		}

		res, err := sharelink.DecodeURL(context.Background(), args[0], lookup)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	shareEncodeCmd.Flags().StringVar(&shareQR, "qr", "", "also write a QR code PNG to this path")
	shareCmd.AddCommand(shareEncodeCmd, shareDecodeCmd)
	rootCmd.AddCommand(shareCmd)
}
