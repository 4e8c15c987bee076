package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/rfqpilot/internal/activity"
	"github.com/ziadkadry99/rfqpilot/internal/assistant"
	"github.com/ziadkadry99/rfqpilot/internal/extract"
	"github.com/ziadkadry99/rfqpilot/internal/progress"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
	"github.com/ziadkadry99/rfqpilot/internal/user"
)

var (
	importRFQ   string
	importOwner string
	importName  string
)

var importCmd = &cobra.Command{
	Use:   "import <pattern>...",
	Short: "Draft an RFQ from request documents",
	Long: `Reads the files matched by the glob patterns (txt, md, csv, xlsx, docx,
pdf and images), asks the AI to extract line items and terms, and merges
them into an existing RFQ (--rfq) or a new one owned by --owner.`,
	Example: `  rfqpilot import "inbox/**/*.xlsx" --owner buyer@example.com
  rfqpilot import spec.pdf drawing.png --rfq 5c1f...`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importRFQ, "rfq", "", "merge into this RFQ")
	importCmd.Flags().StringVar(&importOwner, "owner", "", "email of the buyer who owns a new RFQ")
	importCmd.Flags().StringVar(&importName, "name", "", "project name for a new RFQ")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if (importRFQ == "") == (importOwner == "") {
		return fmt.Errorf("pass exactly one of --rfq or --owner")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating LLM provider: %w", err)
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	rfqs := rfq.NewStore(database)

	target, err := importTarget(ctx, rfqs, user.NewStore(database))
	if err != nil {
		return err
	}

	files, err := extract.Glob(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files match %v", args)
	}

	reporter := progress.NewReporter("Reading files")
	reporter.Start(len(files))
	var results []extract.Result
	for i, path := range files {
		reporter.Update(i+1, filepath.Base(path))
		data, err := os.ReadFile(path)
		if err != nil {
			reporter.Finish()
			return fmt.Errorf("reading %s: %w", path, err)
		}
		res, err := extract.File(filepath.Base(path), data)
		if err != nil {
			reporter.Finish()
			return err
		}
		results = append(results, res)
	}
	reporter.Finish()

	text, attachments := extract.Combine(results)
	fmt.Fprintf(os.Stderr, "Extracting RFQ from %d file(s) with %s...\n", len(files), provider.Name())
	parsed, err := assistant.New(provider, cfg.Model, nil).ParseRFQ(ctx, text, attachments)
	if err != nil {
		return err
	}

	created := target.ID == ""
	rfq.MergeParsed(target, parsed)
	if err := rfqs.Save(ctx, target); err != nil {
		return err
	}

	action := activity.ActionRFQUpdated
	if created {
		action = activity.ActionRFQCreated
	}
	if err := activity.NewStore(database).Record(ctx, target.OwnerID, action, target.ID,
		fmt.Sprintf("imported %d file(s)", len(files))); err != nil {
		slog.Warn("recording activity failed", "error", err)
	}

	fmt.Printf("RFQ %s: %s, %d line item(s)\n", target.ID, target.ProjectName, len(target.LineItems))
	return nil
}

// importTarget loads the RFQ to merge into or starts a new one for the owner.
func importTarget(ctx context.Context, rfqs *rfq.Store, users *user.Store) (*rfq.Rfq, error) {
	if importRFQ != "" {
		r, err := rfqs.Get(ctx, importRFQ)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, fmt.Errorf("no RFQ with id %q", importRFQ)
		}
		return r, nil
	}
	owner, err := users.GetByEmail(ctx, importOwner)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, fmt.Errorf("no user with email %q", importOwner)
	}
	return &rfq.Rfq{OwnerID: owner.ID, ProjectName: importName, Status: rfq.StatusDraft}, nil
}
