package main

import (
	"github.com/joho/godotenv"

	billingrepository "bookd/internal/billing/repository"
	billingservice "bookd/internal/billing/service"
	identityhandler "bookd/internal/identity/handler"
	identityrepository "bookd/internal/identity/repository"
	identityservice "bookd/internal/identity/service"
	identityvalidator "bookd/internal/identity/validator"
	workershandler "bookd/internal/workers/handler"
	workersrepository "bookd/internal/workers/repository"
	workersservice "bookd/internal/workers/service"
	workersvalidator "bookd/internal/workers/validator"
	"bookd/pkg/app"
	"bookd/pkg/config"
	"bookd/pkg/contracts"
	"bookd/pkg/events"
)

const ServiceName = "accounts"

func main() {
	_ = godotenv.Load()
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Accounts service")

	accountRepo := identityrepository.NewMongoAccountRepository(cfg)
	resolver := identityservice.NewResolver(accountRepo, cfg)

	subscriptionRepo := billingrepository.NewMongoSubscriptionRepository(cfg)
	processedEventRepo := billingrepository.NewMongoProcessedEventRepository(cfg)
	billingService := billingservice.NewSubscriptionService(subscriptionRepo, processedEventRepo, resolver, cfg)

	accountService := identityservice.NewAccountService(
		accountRepo,
		billingService,
		identityvalidator.NewAccountValidator(cfg.Log),
		cfg,
	)

	publisher := newPublisher(cfg)
	workerService := workersservice.NewWorkerService(
		workersrepository.NewMongoInvitationRepository(cfg),
		accountRepo,
		resolver,
		billingService,
		workersvalidator.NewWorkerValidator(cfg.Log),
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
			identityhandler.NewAccountHandler(accountService, cfg.Log),
			workershandler.NewWorkerHandler(workerService, cfg.Log),
		),
		app.WithAuthentication(),
		app.WithRateLimit(),
	)
	serverApp.Run()
}

func newPublisher(cfg *config.Config) events.Publisher {
	producer, err := events.NewProducer(cfg.KafkaBrokers, cfg.WorkerEventTopic, cfg.EventDLQTopic, ServiceName, cfg.Log)
	if err != nil {
		cfg.Log.Warn("Kafka producer unavailable, worker events disabled", "error", err)
		return events.NoopPublisher{}
	}
	return producer
}
