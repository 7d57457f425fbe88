package main

import (
	"context"
	"fmt"
	"os"

	"github.com/atmosferica/shop-assistant/internal/adapter/ai"
	"github.com/atmosferica/shop-assistant/internal/adapter/store"
	"github.com/atmosferica/shop-assistant/internal/service"
	"github.com/atmosferica/shop-assistant/pkg/config"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	_ "github.com/lib/pq"
)

var (
	cfg         *config.Config
	pgStore     *store.PostgresStore
	searchCache *store.SearchCache
	embeddings  *service.EmbeddingService
)

var rootCmd = &cobra.Command{
	Use:   "embedctl",
	Short: "Admin tool for the shop assistant embedding store",
	Long: `embedctl manages the catalog embeddings directly against the database,
without going through the HTTP API.

Example usage:
  embedctl rebuild --type products   # Re-embed all active products
  embedctl cleanup                   # Purge embeddings of inactive entities
  embedctl stats                     # Show stored row counts`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		cfg = config.Load()

		var err error
		pgStore, err = store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		if err := pgStore.EnsureSchema(cmd.Context()); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}

		vectorStore := store.NewVectorStore(pgStore, cfg.EmbeddingDimension)
		searchCache = store.NewSearchCache(pgStore, cfg.CacheTTL)
		provider := ai.NewOpenAIProvider(
			ai.EndpointConfig{BaseURL: cfg.EmbedAPIURL, Model: cfg.EmbedModel, APIKey: cfg.EmbedAPIKey},
			ai.EndpointConfig{BaseURL: cfg.ChatAPIURL, Model: cfg.ChatModel, APIKey: cfg.ChatAPIKey},
			cfg.MaxInputChars,
		)
		embeddings = service.NewEmbeddingService(provider, vectorStore, pgStore, pgStore, searchCache, cfg.BatchSize, cfg.BatchDelay)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if pgStore != nil {
			pgStore.Close()
		}
	},
}

var rebuildType string

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Re-embed active catalog entities",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		switch rebuildType {
		case "products", "brands", "all":
		default:
			return fmt.Errorf("invalid --type %q (want products, brands or all)", rebuildType)
		}

		totalOK, totalFailed := 0, 0
		if rebuildType == "products" || rebuildType == "all" {
			ok, failed, err := rebuildWithBar(ctx, "Products", embeddings.RebuildProducts)
			if err != nil {
				return err
			}
			totalOK += ok
			totalFailed += failed
		}
		if rebuildType == "brands" || rebuildType == "all" {
			ok, failed, err := rebuildWithBar(ctx, "Brands", embeddings.RebuildBrands)
			if err != nil {
				return err
			}
			totalOK += ok
			totalFailed += failed
		}

		fmt.Printf("\nDone: %d embedded, %d failed\n", totalOK, totalFailed)
		if totalFailed > 0 {
			return fmt.Errorf("%d embeddings failed", totalFailed)
		}
		return nil
	},
}

func rebuildWithBar(ctx context.Context, label string, rebuild func(context.Context, func(done, total int)) (int, int, error)) (int, int, error) {
	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription(label),
			)
		}
		_ = bar.Set(done)
	}
	ok, failed, err := rebuild(ctx, progress)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return ok, failed, fmt.Errorf("rebuild %s: %w", label, err)
	}
	return ok, failed, nil
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Purge embeddings of inactive entities and sweep the result cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, swept, err := embeddings.Cleanup(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d orphaned embeddings, swept %d expired cache entries\n", removed, swept)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show stored embedding and cache row counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := embeddings.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Product embeddings: %d\n", stats.Products)
		fmt.Printf("Brand embeddings:   %d\n", stats.Brands)
		fmt.Printf("Logged queries:     %d\n", stats.Queries)
		fmt.Printf("Cache entries:      %d\n", stats.CacheEntries)
		return nil
	},
}

func init() {
	rebuildCmd.Flags().StringVar(&rebuildType, "type", "all", "what to rebuild: products, brands or all")
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
