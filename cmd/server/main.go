package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/atmosferica/shop-assistant/internal/adapter/ai"
	"github.com/atmosferica/shop-assistant/internal/adapter/memcache"
	"github.com/atmosferica/shop-assistant/internal/adapter/store"
	"github.com/atmosferica/shop-assistant/internal/handler"
	"github.com/atmosferica/shop-assistant/internal/service"
	"github.com/atmosferica/shop-assistant/pkg/config"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	_ "github.com/lib/pq"
)

func main() {
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	cfg := config.Load()

	slog.Info("starting shop assistant",
		"port", cfg.Port,
		"embed_model", cfg.EmbedModel,
		"chat_model", cfg.ChatModel,
	)

	// ── Database ─────────────────────────────────────────────────────────
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	if err := pgStore.EnsureSchema(context.Background()); err != nil {
		slog.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	vectorStore := store.NewVectorStore(pgStore, cfg.EmbeddingDimension)
	searchCache := store.NewSearchCache(pgStore, cfg.CacheTTL)
	responseCache := memcache.NewResponseCache(cfg.ChatCacheTTL, cfg.ChatCacheMaxSize)

	// ── Adapters ─────────────────────────────────────────────────────────
	provider := ai.NewOpenAIProvider(
		ai.EndpointConfig{
			BaseURL: cfg.EmbedAPIURL,
			Model:   cfg.EmbedModel,
			APIKey:  cfg.EmbedAPIKey,
		},
		ai.EndpointConfig{
			BaseURL: cfg.ChatAPIURL,
			Model:   cfg.ChatModel,
			APIKey:  cfg.ChatAPIKey,
		},
		cfg.MaxInputChars,
	)

	// ── Services ─────────────────────────────────────────────────────────
	searchService := service.NewSearchService(provider, vectorStore, pgStore, searchCache, pgStore, cfg.CacheTTL)
	embeddingService := service.NewEmbeddingService(provider, vectorStore, pgStore, pgStore, searchCache, cfg.BatchSize, cfg.BatchDelay)
	languageService := service.NewLanguageService(provider)

	productDocs := service.ProductDocLoader(pgStore, cfg.BroadScanLimit)
	brandDocs := service.BrandDocLoader(pgStore, cfg.BroadScanLimit)

	productCascade := service.NewCascade(
		service.NewSemanticStrategy(searchService, service.TypeProducts, cfg.SemanticThreshold, 5),
		service.NewKeywordStrategy(productDocs, 5),
		service.NewDomainTermStrategy(productDocs, 5),
		service.NewBroadStrategy(productDocs, cfg.BroadScanLimit),
	)
	brandCascade := service.NewCascade(
		service.NewSemanticStrategy(searchService, service.TypeBrands, cfg.BrandThreshold, 3),
		service.NewKeywordStrategy(brandDocs, 3),
		service.NewDomainTermStrategy(brandDocs, 3),
	)

	chatService := service.NewChatService(provider, languageService, productCascade, brandCascade, responseCache, cfg.HistoryTurns)

	// ── Cache sweeper ────────────────────────────────────────────────────
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if n, err := searchCache.Sweep(ctx); err != nil {
				slog.Error("cache sweep failed", "error", err)
			} else if n > 0 {
				slog.Info("cache sweep", "removed", n)
			}
			cancel()
		}
	}()

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
		})
	})

	api := app.Group("/api/v1")

	chatHandler := handler.NewChatHandler(chatService)
	chatHandler.Register(api)

	searchHandler := handler.NewSearchHandler(searchService, cfg.SearchThreshold, cfg.MaxResults)
	searchHandler.Register(api)

	embeddingHandler := handler.NewEmbeddingHandler(embeddingService)
	embeddingHandler.Register(api)

	slog.Info("listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
