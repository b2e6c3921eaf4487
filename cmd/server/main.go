package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Roulerrr/server-iot-smart-home-ver.test/internal/config"
	"github.com/Roulerrr/server-iot-smart-home-ver.test/internal/db"
	devicerepo "github.com/Roulerrr/server-iot-smart-home-ver.test/internal/device/repository"
	"github.com/Roulerrr/server-iot-smart-home-ver.test/internal/events"
	identityservice "github.com/Roulerrr/server-iot-smart-home-ver.test/internal/identity/service"
	"github.com/Roulerrr/server-iot-smart-home-ver.test/internal/ingest"
	otelsetup "github.com/Roulerrr/server-iot-smart-home-ver.test/internal/otel"
	readingrepo "github.com/Roulerrr/server-iot-smart-home-ver.test/internal/reading/repository"
	"github.com/Roulerrr/server-iot-smart-home-ver.test/internal/security"
	"github.com/Roulerrr/server-iot-smart-home-ver.test/internal/server"
	userrepo "github.com/Roulerrr/server-iot-smart-home-ver.test/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	pool, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()
	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "smart-home-server", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}

	var emitter events.Emitter
	if kafkaEmitter, err := events.NewKafkaEmitter(cfg.EventsKafkaBrokersList(), cfg.EventsKafkaTopic); err != nil {
		log.Fatalf("events: %v", err)
	} else if kafkaEmitter != nil {
		emitter = kafkaEmitter
		log.Printf("events: emitting to kafka topic %s", cfg.EventsKafkaTopic)
	}

	metrics, err := ingest.NewMetrics(providers.MeterProvider.Meter("smart-home-server"))
	if err != nil {
		log.Fatalf("metrics: %v", err)
	}

	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.TokenTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	users := userrepo.NewPostgresRepository(pool)
	devices := devicerepo.NewPostgresRepository(pool)
	readings := readingrepo.NewPostgresRepository(pool)

	auth := identityservice.NewAuthService(users, hasher, tokens)
	sup := ingest.NewSupervisor(ingest.NewHandshake(devices), ingest.NewIngestor(readings), emitter, metrics)

	handlers := server.NewHandlers(auth, devices, pool)
	router := server.NewRouter(handlers, server.NewWSHandler(sup), tokens)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("server & websocket listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}

	// Let in-flight async event emits drain before tearing down the emitter
	// and exporters.
	time.Sleep(events.ShutdownDrainDuration)
	if emitter != nil {
		_ = emitter.Close()
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("otel shutdown: %v", err)
	}
	log.Println("server stopped")
}
