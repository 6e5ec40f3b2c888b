package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Leonti1991/flightbooking/api"
	"github.com/Leonti1991/flightbooking/config"
	"github.com/gin-gonic/gin"
)

// Run assembles the HTTP router and blocks until the context is
// canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, bookings *api.BookingHandler, flights *api.FlightHandler, webhooks *api.WebhookHandler) error {
	router := gin.Default()

	v1 := router.Group("/api/v1")
	bookings.Register(v1.Group("/bookings"))
	flights.Register(v1.Group("/flights"))
	webhooks.Register(v1.Group("/webhooks"))

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
