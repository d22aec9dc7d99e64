package main

import (
	"context"
	"os/signal"
	"syscall"

	"innkeep/internal/inventory/allocator"
	invrepo "innkeep/internal/inventory/repository"
	"innkeep/internal/reservations/repository"
	"innkeep/internal/reservations/service"
	"innkeep/internal/reservations/sweeper"
	"innkeep/internal/reservations/validator"
	"innkeep/pkg/config"
	"innkeep/pkg/events"
)

const ServiceName = "sweeper"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Sweeper")

	publisher := initPublisher(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	}()

	bookingRepo := repository.NewMongoBookingRepository(cfg)
	bookingService := service.NewBookingService(
		bookingRepo,
		invrepo.NewMongoRoomTypeRepository(cfg),
		allocator.New(invrepo.NewMongoInstanceRepository(cfg), cfg.AllocateRetries, cfg.Log),
		validator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper.New(bookingRepo, bookingService, cfg).Run(ctx)
}

func initPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Info("No Kafka brokers configured, booking events disabled")
		return events.NoopPublisher{}
	}

	publisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.BookingEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka publisher", "error", err)
	}
	return publisher
}
