package main

import (
	"context"

	"github.com/joho/godotenv"

	billinghandler "bookd/internal/billing/handler"
	billingrepository "bookd/internal/billing/repository"
	billingservice "bookd/internal/billing/service"
	identityrepository "bookd/internal/identity/repository"
	identityservice "bookd/internal/identity/service"
	"bookd/pkg/app"
	"bookd/pkg/config"
)

const ServiceName = "billing"

const webhookPath = "/api/v1/billing/webhook"

func main() {
	_ = godotenv.Load()
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Billing service")

	accountRepo := identityrepository.NewMongoAccountRepository(cfg)
	resolver := identityservice.NewResolver(accountRepo, cfg)

	subscriptionRepo := billingrepository.NewMongoSubscriptionRepository(cfg)
	processedEventRepo := billingrepository.NewMongoProcessedEventRepository(cfg)
	subscriptionService := billingservice.NewSubscriptionService(subscriptionRepo, processedEventRepo, resolver, cfg)

	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	sweeper := billingservice.NewSweeper(subscriptionRepo, cfg)
	go sweeper.Run(sweeperCtx)

	serverApp := app.NewApplication(cfg)
	serverApp.OnShutdown(stopSweeper)
	serverApp.SetApp(
		billinghandler.NewBillingHandler(subscriptionService, cfg.Log),
		app.WithAuthentication(),
		app.WithSignatureVerification(webhookPath),
	)
	serverApp.Run()
}
