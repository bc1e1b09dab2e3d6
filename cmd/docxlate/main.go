package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	docxadapter "github.com/ericfisherdev/docxlate/internal/adapter/driven/docx"
	"github.com/ericfisherdev/docxlate/internal/adapter/driven/langdetect"
	openaiadapter "github.com/ericfisherdev/docxlate/internal/adapter/driven/openai"
	sqliteadapter "github.com/ericfisherdev/docxlate/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/docxlate/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/docxlate/internal/adapter/driving/web"
	"github.com/ericfisherdev/docxlate/internal/application"
	"github.com/ericfisherdev/docxlate/internal/config"
	"github.com/ericfisherdev/docxlate/internal/domain/model"
	"github.com/ericfisherdev/docxlate/internal/domain/port/driven"
	"github.com/ericfisherdev/docxlate/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "docxlate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load .env (optional) and configuration.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.Info().
		Str("listen_addr", cfg.ListenAddr).
		Str("db_path", cfg.DBPath).
		Str("openai_model", cfg.OpenAIModel).
		Dur("translate_timeout", cfg.TranslateTimeout).
		Dur("session_ttl", cfg.SessionTTL).
		Int("max_sessions", cfg.MaxSessions).
		Bool("key_storage", cfg.HasSecretKey()).
		Msg("config loaded")

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database and run migrations.
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("error closing database")
		}
	}()

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	logger.Info().Str("path", cfg.DBPath).Msg("database ready")

	// 4. Credentials.
	blobs := sqliteadapter.NewBlobRepo(db, sqliteadapter.DeriveKey(cfg.SecretKey))
	credentials := application.NewCredentialService(blobs, logger)
	if err := credentials.Load(ctx); err != nil {
		if !errors.Is(err, driven.ErrEncryptionKeyNotSet) {
			return err
		}
		logger.Warn().Msg("DOCXLATE_SECRET_KEY not set, API keys will not be stored")
	}

	// 5. Translators and document codecs.
	translators := application.NewTranslatorRegistry()
	openaiFactory := openaiadapter.NewFactory(openaiadapter.Config{
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	}, logger)
	translators.Register(model.ProviderOpenAI, openaiFactory.New)

	decoder := docxadapter.NewDecoder()
	encoder := docxadapter.NewEncoder()
	detector := langdetect.NewDetector()

	// 6. Per-browser sessions, swept in the background.
	sessions := application.NewSessionRegistry(func() *application.Orchestrator {
		return application.NewOrchestrator(application.OrchestratorConfig{
			Decoder:     decoder,
			Encoder:     encoder,
			Translators: translators,
			Detector:    detector,
			Timeout:     cfg.TranslateTimeout,
			Logger:      logger,
		})
	}, cfg.SessionTTL, logger)
	sessions.SetMaxSessions(cfg.MaxSessions)
	go sessions.Run(ctx, cfg.SessionSweepInterval)

	// 7. Routes: JSON API and HTML GUI share one mux.
	mux := http.NewServeMux()
	httphandler.RegisterRoutes(mux, httphandler.NewHandler(credentials, sessions, translators, logger))
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(credentials, sessions, translators, logger))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           applyMiddleware(mux, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 8. Wait for shutdown signal or a server failure.
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown error")
	}
	sessions.Wait()

	logger.Info().Msg("shutdown complete")
	return nil
}

// applyMiddleware wraps h with recovery (innermost) and request logging.
func applyMiddleware(h http.Handler, logger zerolog.Logger) http.Handler {
	return httphandler.LoggingMiddleware(logger, httphandler.RecoveryMiddleware(logger, h))
}
