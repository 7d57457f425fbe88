package handler

import (
	"errors"

	"github.com/atmosferica/shop-assistant/internal/domain"
	"github.com/atmosferica/shop-assistant/internal/port"
	"github.com/atmosferica/shop-assistant/internal/service"
	"github.com/gofiber/fiber/v3"
)

// EmbeddingHandler serves embedding generation plus the admin maintenance
// operations (rebuild, cleanup, stats).
type EmbeddingHandler struct {
	embeddingService *service.EmbeddingService
}

// NewEmbeddingHandler creates a new embedding handler.
func NewEmbeddingHandler(embeddingService *service.EmbeddingService) *EmbeddingHandler {
	return &EmbeddingHandler{embeddingService: embeddingService}
}

// Register sets up embedding routes.
func (h *EmbeddingHandler) Register(router fiber.Router) {
	emb := router.Group("/embeddings")
	emb.Post("/", h.Generate)
	emb.Post("/rebuild", h.Rebuild)
	emb.Post("/cleanup", h.Cleanup)
	emb.Get("/stats", h.Stats)
}

// Generate embeds one text or a batch. A body with a non-empty "batch" array
// is processed item by item; partial failure is reported per item.
func (h *EmbeddingHandler) Generate(c fiber.Ctx) error {
	var body struct {
		domain.EmbeddingRequest
		Batch []domain.EmbeddingRequest `json:"batch"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if len(body.Batch) > 0 {
		results := h.embeddingService.ProcessBatch(c.Context(), body.Batch, nil)
		successful := 0
		for _, r := range results {
			if r.Success {
				successful++
			}
		}
		return c.JSON(fiber.Map{
			"success":    true,
			"results":    results,
			"processed":  len(results),
			"successful": successful,
		})
	}

	id, err := h.embeddingService.Generate(c.Context(), body.EmbeddingRequest)
	if err != nil {
		if errors.Is(err, port.ErrEmptyText) ||
			errors.Is(err, port.ErrInvalidEntityType) ||
			errors.Is(err, port.ErrMissingEntityID) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "embedding generation failed"})
	}
	return c.JSON(fiber.Map{"success": true, "id": id})
}

// Rebuild re-embeds the catalog. type: products | brands | all (default all).
func (h *EmbeddingHandler) Rebuild(c fiber.Ctx) error {
	var body struct {
		Type string `json:"type"`
	}
	if err := c.Bind().JSON(&body); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	kind := body.Type
	if kind == "" {
		kind = "all"
	}
	if kind != "products" && kind != "brands" && kind != "all" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "type must be products, brands or all"})
	}

	var ok, failed int
	if kind == "products" || kind == "all" {
		n, f, err := h.embeddingService.RebuildProducts(c.Context(), nil)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		ok += n
		failed += f
	}
	if kind == "brands" || kind == "all" {
		n, f, err := h.embeddingService.RebuildBrands(c.Context(), nil)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		ok += n
		failed += f
	}

	return c.JSON(fiber.Map{"success": true, "embedded": ok, "failed": failed})
}

// Cleanup purges embeddings of deactivated entities and sweeps the cache.
func (h *EmbeddingHandler) Cleanup(c fiber.Ctx) error {
	removed, swept, err := h.embeddingService.Cleanup(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "embeddings_removed": removed, "cache_entries_removed": swept})
}

// Stats reports stored embedding and cache row counts.
func (h *EmbeddingHandler) Stats(c fiber.Ctx) error {
	stats, err := h.embeddingService.Stats(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(stats)
}
