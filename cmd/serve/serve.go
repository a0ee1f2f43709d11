// Package serve implements the HTTP review server command.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/camtrap-go/internal/analyzer"
	api "github.com/tphakala/camtrap-go/internal/api/v2"
	"github.com/tphakala/camtrap-go/internal/conf"
	"github.com/tphakala/camtrap-go/internal/logging"
	"github.com/tphakala/camtrap-go/internal/observability"
	"github.com/tphakala/camtrap-go/internal/review"
)

// shutdownTimeout bounds how long in-flight requests may run during shutdown
const shutdownTimeout = 10 * time.Second

// Command creates the serve command which runs the review web server.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the prediction review server",
		Long:  "Start the HTTP server for batch ingestion, sequential review and the results gallery.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVarP(&settings.WebServer.Port, "port", "p", viper.GetString("webserver.port"), "Port for the web server")

	if err := viper.BindPFlag("webserver.port", cmd.Flags().Lookup("port")); err != nil {
		return fmt.Errorf("error binding port flag: %w", err)
	}

	return nil
}

// runServer wires up the review session, analyzer client and API controller,
// then serves until interrupted.
func runServer(ctx context.Context, settings *conf.Settings) error {
	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	session := review.NewSession(logging.ForService("review"))

	analyzerClient := analyzer.New(&settings.Analyzer, logging.ForService("analyzer"))
	analyzerClient.SetMetrics(metrics.Analyzer)
	defer analyzerClient.Close()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	controller, err := api.New(e, settings, session, analyzerClient, log.Default(), metrics)
	if err != nil {
		return fmt.Errorf("failed to initialize API: %w", err)
	}
	defer controller.Shutdown()

	// Prometheus metrics endpoint outside the /api/v2 group
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		addr := ":" + settings.WebServer.Port
		logging.Info("Starting review server", "address", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		logging.Error("Review server failed", "error", err)
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logging.Info("Shutting down review server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
