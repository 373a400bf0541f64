package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/banktrust-dev/rfmboard/internal/api"
	"github.com/banktrust-dev/rfmboard/internal/config"
)

func newServeCommand() *cobra.Command {
	var (
		dir   string
		input string
		addr  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the derived RFM views over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runServe(absDir, input, addr)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "project directory")
	cmd.Flags().StringVar(&input, "input", "", "segmented customer CSV (default from config)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}

func runServe(dir, input, addr string) error {
	cfg, err := config.Load(filepath.Join(dir, "rfmboard.yaml"))
	if err != nil {
		return err
	}
	if input == "" {
		input = filepath.Join(dir, cfg.Data.SegmentedPath)
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// The table is loaded once and shared read-only across requests.
	table, err := loadTable(input)
	if err != nil {
		return err
	}
	log.Info("table loaded", "path", input, "rows", table.Len(),
		"segments", len(table.Segments()), "clusters", len(table.Clusters()))

	mux := http.NewServeMux()
	server := api.NewServer(table, cfg.Report.TopN, cfg.Server.MaxTopLimit, log)
	server.Register(mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}
