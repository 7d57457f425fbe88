package handler

import (
	"errors"
	"time"

	"github.com/atmosferica/shop-assistant/internal/domain"
	"github.com/atmosferica/shop-assistant/internal/port"
	"github.com/atmosferica/shop-assistant/internal/service"
	"github.com/gofiber/fiber/v3"
)

// SearchHandler serves the semantic search endpoint.
type SearchHandler struct {
	searchService *service.SearchService
	threshold     float64
	maxResults    int
}

// NewSearchHandler creates a search handler with the default threshold and
// result cap applied when the request omits them.
func NewSearchHandler(searchService *service.SearchService, threshold float64, maxResults int) *SearchHandler {
	return &SearchHandler{searchService: searchService, threshold: threshold, maxResults: maxResults}
}

// Register sets up search routes.
func (h *SearchHandler) Register(router fiber.Router) {
	router.Post("/search", h.Search)
}

// Search runs one semantic search.
func (h *SearchHandler) Search(c fiber.Ctx) error {
	var body struct {
		Query      string   `json:"query"`
		Type       string   `json:"type"`
		Threshold  *float64 `json:"similarity_threshold"`
		MaxResults int      `json:"max_results"`
		UserID     string   `json:"user_id"`
		UseCache   *bool    `json:"use_cache"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	req := service.SearchRequest{
		Query:      body.Query,
		Type:       body.Type,
		Threshold:  h.threshold,
		MaxResults: h.maxResults,
		UserID:     body.UserID,
		Source:     "api",
		UseCache:   true,
	}
	if body.Threshold != nil {
		req.Threshold = *body.Threshold
	}
	if body.MaxResults > 0 {
		req.MaxResults = body.MaxResults
	}
	if body.UseCache != nil {
		req.UseCache = *body.UseCache
	}

	started := time.Now()
	results, cached, err := h.searchService.Search(c.Context(), req)
	if err != nil {
		if errors.Is(err, port.ErrEmptyQuery) || errors.Is(err, port.ErrInvalidEntityType) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "search failed"})
	}

	if results == nil {
		results = []domain.RankedResult{}
	}
	return c.JSON(fiber.Map{
		"success":            true,
		"results":            results,
		"cached":             cached,
		"processing_time_ms": time.Since(started).Milliseconds(),
	})
}
