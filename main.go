package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"todolist/config"
	"todolist/handlers"
	"todolist/store"
	"todolist/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.Println("environment: ", cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize the database connection pool
	dbPool, err := utils.OpenDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	if err := utils.EnsureUserSchema(ctx, dbPool); err != nil {
		log.Fatalf("Failed to prepare users table: %v", err)
	}

	redisPool, err := utils.OpenRedisPool(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisPool.Close()

	var backend store.Backend
	switch cfg.TaskBackend {
	case config.BackendMemory:
		log.Println("tasks are kept in memory and will not survive a restart")
		backend = store.NewMemoryBackend()
	default:
		pg := store.NewPostgresBackend(dbPool)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to prepare task tables: %v", err)
		}
		backend = pg
	}

	router := handlers.NewRouter(handlers.Deps{
		Tasks:  store.New(backend),
		DB:     dbPool,
		Redis:  redisPool,
		Mailer: utils.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom),
		Auth: handlers.AuthConfig{
			JWTSecret:  []byte(cfg.JWTSecret),
			JWTTTL:     cfg.JWTTTL,
			SessionTTL: cfg.SessionTTL,
		},
	})

	srv := &http.Server{Addr: cfg.Address(), Handler: router}
	go func() {
		log.Println("Starting server on", cfg.Address())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
