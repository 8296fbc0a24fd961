package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"modelhub-sdk/catalog"
	"modelhub-sdk/cmd/modelhub/internal/config"
	"modelhub-sdk/mockserver"
)

// runMock serves a descriptor directory until interrupted
func runMock(args []string, stderr io.Writer) int {
	cfg, err := config.ParseMockFlags(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}

	logger := log.New(stderr, "", log.LstdFlags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.LoadDir(ctx, cfg.CatalogDir)
	if err != nil {
		logger.Printf("Failed to load catalog: %v", err)
		return 1
	}
	logger.Printf("✓ Loaded %d models from %s", cat.Len(), cfg.CatalogDir)

	handler := mockserver.New(cat, mockserver.Options{
		RequestsPerMinute: cfg.RequestsPerMinute,
		Burst:             cfg.Burst,
		ForceStatus:       cfg.ForceStatus,
		Latency:           cfg.Latency,
		Logger:            logger,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("✓ Mock marketplace on http://localhost:%d/api/models", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Printf("Server failed: %v", err)
			return 1
		}
	case <-ctx.Done():
	}

	logger.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Shutdown error: %v", err)
		return 1
	}
	return 0
}
