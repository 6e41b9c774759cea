package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jacob-sycoff/tibera-health-backend/config"
	httpDelivery "github.com/jacob-sycoff/tibera-health-backend/internal/delivery/http"
	"github.com/jacob-sycoff/tibera-health-backend/internal/domain"
	"github.com/jacob-sycoff/tibera-health-backend/internal/infrastructure/cache"
	"github.com/jacob-sycoff/tibera-health-backend/internal/infrastructure/rerank"
	"github.com/jacob-sycoff/tibera-health-backend/internal/infrastructure/store"
	"github.com/jacob-sycoff/tibera-health-backend/internal/infrastructure/usda"
	"github.com/jacob-sycoff/tibera-health-backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	log, err := newLogger(cfg.Server.Environment)
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	defer log.Sync()

	log.Info("starting tibera-health-backend",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("rerank_provider", cfg.Rerank.Provider))

	sqlStore, err := store.NewSQLite(cfg.Store.SQLitePath)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer sqlStore.Close()
	if err := sqlStore.Migrate(context.Background()); err != nil {
		log.Fatal("failed to migrate store", zap.Error(err))
	}

	foodClient := usda.NewClient(cfg.USDA.APIKey, cfg.USDA.BaseURL, log.Named("usda"))
	foodCache := cache.NewFoodCache(cfg.Cache.TTL)

	var rerankClient domain.RerankClient
	switch cfg.Rerank.Provider {
	case "http":
		rerankClient = rerank.NewHTTPClient(cfg.Rerank.URL, log.Named("rerank"))
	case "anthropic":
		rerankClient = rerank.NewAnthropicClient(cfg.Rerank.AnthropicAPIKey, cfg.Rerank.Model, log.Named("rerank"))
	default:
		log.Info("re-ranking disabled, falling back to top search result")
	}

	resolutionService := usecase.NewResolutionService(
		sqlStore, sqlStore, foodClient, rerankClient, foodCache,
		log.Named("resolution"),
		usecase.ResolutionConfig{
			AutoAcceptConfidence: cfg.Resolution.AutoAcceptConfidence,
			MaxRerankCandidates:  cfg.Resolution.MaxRerankCandidates,
		},
	)
	intakeService := usecase.NewIntakeService(sqlStore, sqlStore, log.Named("intake"), cfg.Resolution.BreakdownLimit)

	handler := httpDelivery.NewHandler(sqlStore, resolutionService, intakeService, log.Named("http"))
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server listening", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
