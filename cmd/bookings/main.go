package main

import (
	"github.com/joho/godotenv"

	billingrepository "bookd/internal/billing/repository"
	billingservice "bookd/internal/billing/service"
	bookingshandler "bookd/internal/bookings/handler"
	bookingsrepository "bookd/internal/bookings/repository"
	bookingsservice "bookd/internal/bookings/service"
	bookingsvalidator "bookd/internal/bookings/validator"
	cataloghandler "bookd/internal/catalog/handler"
	catalogrepository "bookd/internal/catalog/repository"
	catalogservice "bookd/internal/catalog/service"
	catalogvalidator "bookd/internal/catalog/validator"
	discountshandler "bookd/internal/discounts/handler"
	discountsrepository "bookd/internal/discounts/repository"
	discountsservice "bookd/internal/discounts/service"
	discountsvalidator "bookd/internal/discounts/validator"
	identityrepository "bookd/internal/identity/repository"
	identityservice "bookd/internal/identity/service"
	pricingservice "bookd/internal/pricing/service"
	"bookd/pkg/accesstoken"
	"bookd/pkg/app"
	"bookd/pkg/config"
	"bookd/pkg/contracts"
	"bookd/pkg/events"
)

const ServiceName = "bookings"

func main() {
	_ = godotenv.Load()
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Bookings service")

	accountRepo := identityrepository.NewMongoAccountRepository(cfg)
	resolver := identityservice.NewResolver(accountRepo, cfg)

	subscriptionRepo := billingrepository.NewMongoSubscriptionRepository(cfg)
	processedEventRepo := billingrepository.NewMongoProcessedEventRepository(cfg)
	billingService := billingservice.NewSubscriptionService(subscriptionRepo, processedEventRepo, resolver, cfg)

	catalogRepo := catalogrepository.NewMongoCatalogRepository(cfg)
	catalogService := catalogservice.NewCatalogService(
		catalogRepo,
		resolver,
		catalogvalidator.NewCatalogValidator(cfg.Log),
		cfg,
	)

	discountRepo := discountsrepository.NewMongoDiscountRepository(cfg)
	discountService := discountsservice.NewDiscountService(
		discountRepo,
		resolver,
		discountsvalidator.NewDiscountValidator(cfg.Log),
		cfg,
	)

	pricingService := pricingservice.NewPricingService(catalogRepo, discountService, cfg)

	publisher := newPublisher(cfg)
	bookingService := bookingsservice.NewBookingService(
		bookingsrepository.NewMongoBookingRepository(cfg),
		pricingService,
		discountService,
		billingService,
		resolver,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		accesstoken.NewIssuer(cfg.CustomerTokenSecret),
		publisher,
		cfg,
	)

	serverApp := app.NewApplication(cfg)
	serverApp.OnShutdown(func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event producer", "error", err)
		}
	})
	serverApp.SetApp(
		contracts.Compose(
			bookingshandler.NewBookingHandler(bookingService, cfg.Log),
			cataloghandler.NewCatalogHandler(catalogService, cfg.Log),
			discountshandler.NewDiscountHandler(discountService, cfg.Log),
		),
		app.WithAuthentication(),
		app.WithRateLimit(),
	)
	serverApp.Run()
}

func newPublisher(cfg *config.Config) events.Publisher {
	producer, err := events.NewProducer(cfg.KafkaBrokers, cfg.BookingEventTopic, cfg.EventDLQTopic, ServiceName, cfg.Log)
	if err != nil {
		cfg.Log.Warn("Kafka producer unavailable, booking events disabled", "error", err)
		return events.NoopPublisher{}
	}
	return producer
}
