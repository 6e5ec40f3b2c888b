package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Leonti1991/flightbooking/config"
	"github.com/Leonti1991/flightbooking/internal/email"
	"github.com/Leonti1991/flightbooking/internal/kafka"
	"github.com/Leonti1991/flightbooking/internal/repository"
	"github.com/Leonti1991/flightbooking/internal/service/reservation"
	"github.com/go-co-op/gocron/v2"
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
	seatRepo := repository.NewSeatRepository(store)
	reservationService := reservation.NewService(seatRepo, store, time.Duration(cfg.Booking.HoldWindowMinutes)*time.Minute)

	// Expiry is lazy on every booking path; this sweep just keeps
	// abandoned holds from lingering on quiet flights.
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("init scheduler: %v", err)
	}
	sweepEvery := time.Duration(cfg.Worker.ExpirationSweepMinutes) * time.Minute
	if _, err := scheduler.NewJob(
		gocron.DurationJob(sweepEvery),
		gocron.NewTask(func() {
			released, err := reservationService.SweepExpired(ctx)
			if err != nil {
				log.Printf("expiry sweep error: %v", err)
				return
			}
			if released > 0 {
				log.Printf("expiry sweep released %d seats", released)
			}
		}),
	); err != nil {
		log.Fatalf("schedule expiry sweep: %v", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			log.Printf("scheduler shutdown: %v", err)
		}
	}()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.OrderEventsTopic)
	defer consumer.Close()

	emailSender := email.NewSender()

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, event kafka.OrderEvent) error {
			return emailSender.Send(ctx, event)
		}); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
}
