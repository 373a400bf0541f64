package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/banktrust-dev/rfmboard/internal/clean"
	"github.com/banktrust-dev/rfmboard/internal/config"
	"github.com/banktrust-dev/rfmboard/internal/database"
	"github.com/banktrust-dev/rfmboard/internal/gitops"
	"github.com/banktrust-dev/rfmboard/internal/model"
	"github.com/banktrust-dev/rfmboard/internal/runlog"
)

func newPreprocessCommand() *cobra.Command {
	var (
		dir       string
		input     string
		output    string
		dsn       string
		table     string
		reference string
	)

	cmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Clean raw transactions: derive ages, filter, bucket by month",
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runPreprocess(cmd.Context(), absDir, input, output, dsn, table, reference)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "project directory")
	cmd.Flags().StringVar(&input, "input", "", "raw transaction CSV (default from config)")
	cmd.Flags().StringVar(&output, "output", "", "cleaned CSV path (default from config)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "load raw transactions from MySQL/MariaDB instead of a file")
	cmd.Flags().StringVar(&table, "table", database.DefaultTable, "transaction table name (with --dsn)")
	cmd.Flags().StringVar(&reference, "reference", "", `reference "today" for age derivation, YYYY-MM-DD`)

	return cmd
}

func runPreprocess(ctx context.Context, dir, input, output, dsn, table, reference string) error {
	cfg, err := config.Load(filepath.Join(dir, "rfmboard.yaml"))
	if err != nil {
		return err
	}

	if input == "" {
		input = filepath.Join(dir, cfg.Data.RawPath)
	}
	if output == "" {
		output = filepath.Join(dir, cfg.Data.CleanedPath)
	}
	if reference == "" {
		reference = cfg.Data.ReferenceDate
	}

	ref := time.Now().UTC().Truncate(24 * time.Hour)
	if reference != "" {
		ref, err = time.Parse("2006-01-02", reference)
		if err != nil {
			return fmt.Errorf("parsing reference date %q: %w", reference, err)
		}
	}

	var raws []model.RawTransaction
	source := input
	if dsn != "" {
		source = "mysql:" + table
		db, err := database.Open(dsn)
		if err != nil {
			return err
		}
		defer db.Close()
		raws, err = database.LoadTransactions(ctx, db, table)
		if err != nil {
			return err
		}
	} else {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		raws, err = clean.ReadRaw(f)
		if err != nil {
			return fmt.Errorf("reading %s: %w", input, err)
		}
	}

	cleaned := clean.Run(raws, ref)

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer out.Close()
	if err := clean.WriteCleaned(out, cleaned); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	fmt.Printf("Cleaned %d of %d rows (ages %d-%d) -> %s\n",
		len(cleaned), len(raws), clean.MinAge, clean.MaxAge, output)

	fmt.Println("\nMonthly transaction volume:")
	for _, mv := range clean.MonthlyVolume(cleaned) {
		fmt.Printf("  %s  %d\n", mv.Month, mv.Count)
	}

	fmt.Printf("\nTop %d locations:\n", cfg.Report.TopLocations)
	for _, lv := range clean.TopLocations(cleaned, cfg.Report.TopLocations) {
		fmt.Printf("  %-24s %d\n", lv.Location, lv.Count)
	}

	if err := runlog.Append(dir, runlog.Entry{
		Timestamp: time.Now().UTC(),
		Action:    "preprocess",
		Detail:    "source=" + source,
		RowsIn:    len(raws),
		RowsOut:   len(cleaned),
		Output:    output,
	}); err != nil {
		return fmt.Errorf("logging run: %w", err)
	}

	if cfg.Git.AutoCommit && gitops.IsRepo(dir) {
		rel, err := filepath.Rel(dir, output)
		if err != nil {
			return fmt.Errorf("resolving output path: %w", err)
		}
		hash, err := gitops.Snapshot(dir, []string{rel},
			"preprocess: regenerate "+rel, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
		if err != nil {
			return fmt.Errorf("committing output: %w", err)
		}
		fmt.Printf("Committed %s (%s)\n", rel, hash)
	}

	return nil
}
