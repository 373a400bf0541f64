package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/banktrust-dev/rfmboard/internal/config"
	"github.com/banktrust-dev/rfmboard/internal/rfm"
	"github.com/banktrust-dev/rfmboard/internal/runlog"
)

func newExportCommand() *cobra.Command {
	var (
		dir      string
		input    string
		output   string
		segments []string
		clusters []int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered customer view to a CSV snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			f := rfm.Filter{}
			if cmd.Flags().Changed("segments") {
				f.Segments = segments
			}
			if cmd.Flags().Changed("clusters") {
				f.Clusters = clusters
			}

			return runExport(absDir, input, output, f)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "project directory")
	cmd.Flags().StringVar(&input, "input", "", "segmented customer CSV (default from config)")
	cmd.Flags().StringVar(&output, "output", "", "snapshot path (default exports/filtered_rfm.csv)")
	cmd.Flags().StringSliceVar(&segments, "segments", nil, "segments to include (default all)")
	cmd.Flags().IntSliceVar(&clusters, "clusters", nil, "clusters to include (default all)")

	return cmd
}

func runExport(dir, input, output string, f rfm.Filter) error {
	cfg, err := config.Load(filepath.Join(dir, "rfmboard.yaml"))
	if err != nil {
		return err
	}
	if input == "" {
		input = filepath.Join(dir, cfg.Data.SegmentedPath)
	}
	if output == "" {
		output = filepath.Join(dir, cfg.Data.ExportDir, "filtered_rfm.csv")
	}

	table, err := loadTable(input)
	if err != nil {
		return err
	}

	v := rfm.ComputeViews(table, f, cfg.Report.TopN)

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	defer out.Close()
	if err := rfm.WriteRecords(out, v.Records); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	detail := "all"
	var parts []string
	if f.Segments != nil {
		parts = append(parts, "segments="+strings.Join(f.Segments, "|"))
	}
	if f.Clusters != nil {
		parts = append(parts, fmt.Sprintf("clusters=%v", f.Clusters))
	}
	if len(parts) > 0 {
		detail = strings.Join(parts, " ")
	}

	if err := runlog.Append(dir, runlog.Entry{
		Timestamp: time.Now().UTC(),
		Action:    "export",
		Detail:    detail,
		RowsIn:    table.Len(),
		RowsOut:   len(v.Records),
		Output:    output,
	}); err != nil {
		return fmt.Errorf("logging run: %w", err)
	}

	fmt.Printf("Exported %d of %d rows -> %s\n", len(v.Records), table.Len(), output)
	return nil
}
