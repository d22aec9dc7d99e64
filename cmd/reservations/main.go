package main

import (
	"innkeep/internal/inventory/allocator"
	invrepo "innkeep/internal/inventory/repository"
	"innkeep/internal/reservations/handler"
	"innkeep/internal/reservations/repository"
	"innkeep/internal/reservations/service"
	"innkeep/internal/reservations/validator"
	"innkeep/pkg/app"
	"innkeep/pkg/config"
	"innkeep/pkg/events"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Reservations service")

	publisher := initPublisher(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	}()

	bookingService := initServices(cfg, publisher)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewBookingHandler(bookingService, cfg.PaymentWebhookSecret, cfg.Log))
	serverApp.Run()
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

func initServices(cfg *config.Config, publisher events.Publisher) service.BookingService {
	instanceRepo := invrepo.NewMongoInstanceRepository(cfg)
	roomTypeRepo := invrepo.NewMongoRoomTypeRepository(cfg)
	bookingRepo := repository.NewMongoBookingRepository(cfg)

	bookingService := service.NewBookingService(
		bookingRepo,
		roomTypeRepo,
		allocator.New(instanceRepo, cfg.AllocateRetries, cfg.Log),
		validator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}
