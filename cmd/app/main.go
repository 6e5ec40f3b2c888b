package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Leonti1991/flightbooking/api"
	"github.com/Leonti1991/flightbooking/config"
	"github.com/Leonti1991/flightbooking/internal/bootstrap"
	"github.com/Leonti1991/flightbooking/internal/cache"
	"github.com/Leonti1991/flightbooking/internal/kafka"
	"github.com/Leonti1991/flightbooking/internal/payments"
	"github.com/Leonti1991/flightbooking/internal/pricing"
	"github.com/Leonti1991/flightbooking/internal/repository"
	"github.com/Leonti1991/flightbooking/internal/service/booking"
	"github.com/Leonti1991/flightbooking/internal/service/reservation"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	store := repository.NewStore(pool)
	flightRepo := repository.NewFlightRepository(store)
	seatRepo := repository.NewSeatRepository(store)
	orderRepo := repository.NewOrderRepository(store)
	paymentRepo := repository.NewPaymentRepository(store)

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.SeatMapCacheTTLSec)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	pricer := pricing.NewEngine(cfg.Pricing.BusinessMultiplier, cfg.Pricing.FirstMultiplier)
	gateway := payments.NewStripeGateway(cfg.Stripe.SecretKey)

	reservationService := reservation.NewService(seatRepo, store, time.Duration(cfg.Booking.HoldWindowMinutes)*time.Minute)
	bookingService := booking.NewBookingService(
		flightRepo,
		orderRepo,
		paymentRepo,
		reservationService,
		store,
		pricer,
		gateway,
		redisCache,
		producer,
		cfg.Kafka.OrderEventsTopic,
		cfg.Stripe.Currency,
	)
	reconciler := payments.NewReconciler(paymentRepo, orderRepo, bookingService)

	bookingHandler := api.NewBookingHandler(bookingService)
	flightHandler := api.NewFlightHandler(bookingService)
	webhookHandler := api.NewWebhookHandler(reconciler, cfg.Stripe.WebhookSecret)

	if err := bootstrap.Run(ctx, cfg, bookingHandler, flightHandler, webhookHandler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
