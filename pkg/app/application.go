package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"

	"bookd/pkg/config"
	"bookd/pkg/contracts"
	"bookd/pkg/handler"
	"bookd/pkg/middleware"
)

// Option adjusts the middleware chain mounted in front of a service's routes.
type Option func(*Application)

// WithAuthentication parses bearer tokens into the request context.
func WithAuthentication() Option {
	return func(a *Application) { a.withAuth = true }
}

// WithSignatureVerification requires a valid webhook signature on requests to
// the given path. Other routes on the same service are untouched.
func WithSignatureVerification(path string) Option {
	return func(a *Application) {
		a.withSignature = true
		a.signaturePath = path
	}
}

// WithRateLimit buckets requests by client address. Mounted on services with
// unauthenticated surfaces.
func WithRateLimit() Option {
	return func(a *Application) { a.withRateLimit = true }
}

type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore *middleware.InMemoryIdempotencyStore
	rateLimiter      *middleware.RateLimiter
	shutdownHooks    []func()

	withAuth      bool
	withSignature bool
	signaturePath string
	withRateLimit bool

	healthHandler http.Handler
	appHandler    http.Handler
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

// OnShutdown registers a hook to run during graceful shutdown, after the HTTP
// server stops accepting requests.
func (a *Application) OnShutdown(fn func()) {
	a.shutdownHooks = append(a.shutdownHooks, fn)
}

func (a *Application) SetApp(appHandler contracts.Handler, opts ...Option) {
	for _, opt := range opts {
		opt(a)
	}
	a.setHealthHandler()
	a.setAppHandler(appHandler)
	a.setAppServer()
}

func (a *Application) setHealthHandler() {
	healthRouter := httprouter.New()
	healthHandler := handler.NewHealthHandler(a.cfg.Client.Mongo, a.cfg.Log)
	healthHandler.RegisterRoutes(healthRouter)

	var h http.Handler = healthRouter
	h = middleware.RequestLogging(a.cfg.Log)(h)
	h = middleware.Recovery(a.cfg.Log)(h)
	a.healthHandler = h
}

func (a *Application) setAppHandler(appHandler contracts.Handler) {
	appRouter := httprouter.New()
	appHandler.RegisterRoutes(appRouter)

	a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(a.cfg.IdempotencyTTL)

	var h http.Handler = appRouter
	h = middleware.Idempotency(a.idempotencyStore, "Idempotency-Key")(h)
	h = middleware.RequestTimeout(a.cfg.RequestTimeout)(h)
	if a.withRateLimit {
		a.rateLimiter = middleware.NewRateLimiter(
			a.cfg.RateLimitRequests,
			a.cfg.RateLimitWindow,
			middleware.ClientAddrExtractor,
			a.cfg.Log,
		)
		h = middleware.RateLimit(a.rateLimiter)(h)
	}
	if a.withAuth {
		h = middleware.Authentication(a.cfg.JWTSecret, a.cfg.Log)(h)
	}
	if a.withSignature {
		verified := middleware.SignatureVerification(a.cfg.BillingWebhookSecret, a.cfg.Log)(h)
		unverified := h
		path := a.signaturePath
		h = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == path {
				verified.ServeHTTP(w, r)
				return
			}
			unverified.ServeHTTP(w, r)
		})
		a.cfg.Log.Info("Webhook signature verification enabled", "path", path)
	}
	h = middleware.ContentTypeValidation(a.cfg.Log)(h)
	h = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(h)
	h = middleware.RequestLogging(a.cfg.Log)(h)
	h = middleware.Recovery(a.cfg.Log)(h)
	a.appHandler = h
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/", a.appHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	a.idempotencyStore.Stop()
	if a.rateLimiter != nil {
		a.rateLimiter.Stop()
	}
	for _, hook := range a.shutdownHooks {
		hook()
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Client.GracefulShutdown()
	a.cfg.Log.Info("Server stopped gracefully")
}
