package commands

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/banktrust-dev/rfmboard/internal/config"
	"github.com/banktrust-dev/rfmboard/internal/rfm"
)

func newReportCommand() *cobra.Command {
	var (
		dir      string
		input    string
		segments []string
		clusters []int
		topN     int
		guide    bool
		spread   bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print derived RFM views for a filter selection",
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

			return runReport(absDir, input, f, topN, guide, spread)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "project directory")
	cmd.Flags().StringVar(&input, "input", "", "segmented customer CSV (default from config)")
	cmd.Flags().StringSliceVar(&segments, "segments", nil, "segments to include (default all)")
	cmd.Flags().IntSliceVar(&clusters, "clusters", nil, "clusters to include (default all)")
	cmd.Flags().IntVar(&topN, "top", 0, "rows in the top-spenders view (default from config)")
	cmd.Flags().BoolVar(&guide, "guide", false, "print the segment score guide")
	cmd.Flags().BoolVar(&spread, "spread", false, "print per-cluster metric spreads")

	return cmd
}

func runReport(dir, input string, f rfm.Filter, topN int, guide, spread bool) error {
	cfg, err := config.Load(filepath.Join(dir, "rfmboard.yaml"))
	if err != nil {
		return err
	}
	if input == "" {
		input = filepath.Join(dir, cfg.Data.SegmentedPath)
	}
	if topN == 0 {
		topN = cfg.Report.TopN
	}

	table, err := loadTable(input)
	if err != nil {
		return err
	}

	v := rfm.ComputeViews(table, f, topN)

	fmt.Printf("Customers: %d of %d\n", v.KPI.Count, table.Len())
	fmt.Printf("Avg recency:   %s days\n", fmtAvg(v.KPI.AvgRecency))
	fmt.Printf("Avg frequency: %s txns\n", fmtAvg(v.KPI.AvgFrequency))
	fmt.Printf("Avg monetary:  %s\n", fmtAvg(v.KPI.AvgMonetary))

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)

	fmt.Println("\nCluster profiles:")
	fmt.Fprintln(w, "CLUSTER\tCUSTOMERS\tRECENCY\tFREQUENCY\tMONETARY\tDESCRIPTION")
	for _, p := range v.Clusters {
		fmt.Fprintf(w, "%d\t%d\t%.1f\t%.1f\t%.1f\t%s\n",
			p.Cluster, p.Customers, p.AvgRecency, p.AvgFrequency, p.AvgMonetary,
			rfm.DescribeCluster(p.Cluster))
	}
	w.Flush()

	fmt.Println("\nSegment composition:")
	fmt.Fprintln(w, "SEGMENT\tCUSTOMERS\t% CUSTOMERS\tMONETARY\t% VALUE")
	for _, share := range v.Segments {
		fmt.Fprintf(w, "%s\t%d\t%.1f\t%s\t%.1f\n",
			share.Segment, share.Customers, share.PctCustomers, share.Monetary, share.PctMonetary)
	}
	w.Flush()

	fmt.Printf("\nTop %d by monetary value:\n", topN)
	fmt.Fprintln(w, "CUSTOMER\tRECENCY\tFREQUENCY\tMONETARY\tCLUSTER\tSEGMENT")
	for _, rec := range v.Top {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%d\t%s\n",
			rec.CustomerID, rec.Recency, rec.Frequency, rec.Monetary, rec.Cluster, rec.Segment)
	}
	w.Flush()

	if spread {
		fmt.Println("\nCluster metric spreads:")
		fmt.Fprintln(w, "CLUSTER\tMETRIC\tMIN\tQ1\tMEDIAN\tQ3\tMAX")
		for _, cs := range rfm.ClusterSpreads(v.Records) {
			for _, m := range cs.Metrics {
				fmt.Fprintf(w, "%d\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\n",
					cs.Cluster, m.Metric, m.Min, m.Q1, m.Median, m.Q3, m.Max)
			}
		}
		w.Flush()
	}

	if guide {
		fmt.Println("\nSegment guide:")
		fmt.Fprintln(w, "SCORE\tSEGMENT\tDESCRIPTION")
		for _, row := range rfm.SegmentGuide {
			fmt.Fprintf(w, "%s\t%s\t%s\n", row.ScoreRange, row.Name, row.Description)
		}
		w.Flush()
	}

	return nil
}

func fmtAvg(x float64) string {
	if math.IsNaN(x) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", x)
}

func loadTable(path string) (*rfm.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening customer table: %w", err)
	}
	defer f.Close()

	table, err := rfm.LoadTable(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return table, nil
}
