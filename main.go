package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/paalso/microblog-go/internal/api"
	"github.com/paalso/microblog-go/internal/auth"
	"github.com/paalso/microblog-go/internal/config"
	"github.com/paalso/microblog-go/internal/database"
	"github.com/paalso/microblog-go/internal/digest"
	"github.com/paalso/microblog-go/internal/logger"
	"github.com/paalso/microblog-go/internal/mailer"
	"github.com/paalso/microblog-go/internal/services"
	"github.com/paalso/microblog-go/internal/websocket"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up the mail sender; fall back to log-only delivery when no SMTP
	// relay is configured.
	var m mailer.Mailer
	if cfg.SMTPHost != "" {
		m = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
	} else {
		m = &mailer.LogMailer{}
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	userService := services.NewUserService(db)
	followService := services.NewFollowService(db)
	postService := services.NewPostService(db)
	eventService := services.NewEventService(db)

	authManager := auth.NewManager(cfg.SecretKey)

	// Set up and run the background feed digest worker
	var digestWorker *digest.Digest
	if cfg.DigestEnabled {
		digestWorker = digest.New(userService, postService, m, cfg.DigestCron)
		go digestWorker.Run()
	}

	// Set up router
	router := api.NewRouter(cfg, api.Deps{
		Users:   userService,
		Follows: followService,
		Posts:   postService,
		Events:  eventService,
		Auth:    authManager,
		Mailer:  m,
		Hub:     hub,
	})

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	if digestWorker != nil {
		digestWorker.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
