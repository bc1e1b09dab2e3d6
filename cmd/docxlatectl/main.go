package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	docxadapter "github.com/ericfisherdev/docxlate/internal/adapter/driven/docx"
	"github.com/ericfisherdev/docxlate/internal/adapter/driven/langdetect"
	openaiadapter "github.com/ericfisherdev/docxlate/internal/adapter/driven/openai"
	sqliteadapter "github.com/ericfisherdev/docxlate/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/docxlate/internal/application"
	"github.com/ericfisherdev/docxlate/internal/cli"
	"github.com/ericfisherdev/docxlate/internal/config"
	"github.com/ericfisherdev/docxlate/internal/domain/model"
	"github.com/ericfisherdev/docxlate/internal/domain/port/driven"
	"github.com/ericfisherdev/docxlate/internal/logging"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.CreateRootCommand(cli.NewFlags(), viper.New(), bootstrap)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// bootstrap opens the shared database and wires the same services the
// server uses, logging warnings and above to stderr.
func bootstrap(ctx context.Context, s cli.Settings) (*cli.Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewWithWriter(os.Stderr, "local", "warn")
	if err != nil {
		return nil, err
	}

	db, err := sqliteadapter.NewDB(ctx, s.DBPath)
	if err != nil {
		return nil, err
	}
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, err
	}

	credentials := application.NewCredentialService(
		sqliteadapter.NewBlobRepo(db, sqliteadapter.DeriveKey(s.SecretKey)), logger)
	if err := credentials.Load(ctx); err != nil && !errors.Is(err, driven.ErrEncryptionKeyNotSet) {
		_ = db.Close()
		return nil, fmt.Errorf("loading API keys: %w", err)
	}

	translators := application.NewTranslatorRegistry()
	factory := openaiadapter.NewFactory(openaiadapter.Config{
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	}, logger)
	translators.Register(model.ProviderOpenAI, factory.New)

	decoder := docxadapter.NewDecoder()
	encoder := docxadapter.NewEncoder()
	detector := langdetect.NewDetector()

	return &cli.Runtime{
		Credentials: credentials,
		NewOrchestrator: func() *application.Orchestrator {
			return application.NewOrchestrator(application.OrchestratorConfig{
				Decoder:     decoder,
				Encoder:     encoder,
				Translators: translators,
				Detector:    detector,
				Timeout:     cfg.TranslateTimeout,
				Logger:      logger,
			})
		},
		Close: db.Close,
	}, nil
}
