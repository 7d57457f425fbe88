package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atmosferica/shop-assistant/internal/domain"
	"github.com/atmosferica/shop-assistant/internal/port"
)

// apologyResponse is the fixed fallback sent when generation fails. No retry:
// the widget shows this and the user rephrases.
const apologyResponse = "Lo siento, ha ocurrido un error procesando tu consulta. Por favor, inténtalo de nuevo en unos momentos."

// ChatResponse is the orchestrator's answer for one widget turn.
type ChatResponse struct {
	Response    string                  `json:"response"`
	Translation *domain.TranslationInfo `json:"translationInfo,omitempty"`
	Cached      bool                    `json:"-"`
}

// ChatService orchestrates one chat turn: response cache, language
// normalization, classification, dual cascade retrieval, prompt assembly and
// generation.
type ChatService struct {
	ai           port.AIProvider
	language     *LanguageService
	products     *Cascade
	brands       *Cascade
	responses    port.ResponseCache
	historyTurns int
}

// NewChatService wires the chat orchestrator. responses may be nil to
// disable the response cache.
func NewChatService(ai port.AIProvider, language *LanguageService, products, brands *Cascade, responses port.ResponseCache, historyTurns int) *ChatService {
	if historyTurns <= 0 {
		historyTurns = 4
	}
	return &ChatService{
		ai:           ai,
		language:     language,
		products:     products,
		brands:       brands,
		responses:    responses,
		historyTurns: historyTurns,
	}
}

// Chat answers one widget message. source labels the originating channel for
// query analytics ("" means the widget default). A generation failure returns
// the fixed apology together with the error, so the handler can report both.
func (s *ChatService) Chat(ctx context.Context, message string, history []domain.ChatMessage, source string) (*ChatResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, port.ErrEmptyQuery
	}

	cacheKey := responseCacheKey(message, history)
	if s.responses != nil {
		if cached, ok := s.responses.Get(cacheKey); ok {
			slog.Info("chat response cache hit")
			return &ChatResponse{Response: cached, Cached: true}, nil
		}
	}

	searchQuery, translation := s.language.EnsureSpanish(ctx, message)
	class := ClassifyQuery(searchQuery, len(history) > 0)
	slog.Info("chat turn", "class", class, "language", translation.DetectedLanguage, "translated", translation.WasTranslated)

	var products, brands []domain.RankedResult
	if class != ClassGreeting {
		products = s.products.FindRelevant(ctx, searchQuery, source)
		brands = s.brands.FindRelevant(ctx, searchQuery, source)
	}

	prompt := BuildPrompt(PromptInput{
		Message:     searchQuery,
		History:     history,
		Products:    products,
		Brands:      brands,
		Class:       class,
		Translation: translation,
		HistoryMax:  s.historyTurns,
	})

	started := time.Now()
	reply, err := s.ai.Complete(ctx, prompt, class.Params())
	if err != nil {
		slog.Error("chat generation failed", "class", class, "error", err)
		return &ChatResponse{Response: apologyResponse, Translation: optionalTranslation(translation)}, fmt.Errorf("generate response: %w", err)
	}
	slog.Info("chat generated", "class", class, "elapsed_ms", time.Since(started).Milliseconds(), "products", len(products), "brands", len(brands))

	reply = strings.TrimSpace(reply)
	if s.responses != nil {
		s.responses.Put(cacheKey, reply)
	}
	return &ChatResponse{Response: reply, Translation: optionalTranslation(translation)}, nil
}

func optionalTranslation(info domain.TranslationInfo) *domain.TranslationInfo {
	if !info.WasTranslated {
		return nil
	}
	return &info
}

// responseCacheKey hashes message plus serialized history, so the same
// question asked in a different conversation state is generated fresh.
func responseCacheKey(message string, history []domain.ChatMessage) string {
	h := sha256.New()
	h.Write([]byte(message))
	for _, msg := range history {
		h.Write([]byte{0})
		h.Write([]byte(msg.Role))
		h.Write([]byte{0})
		h.Write([]byte(msg.Content))
	}
	return hex.EncodeToString(h.Sum(nil))
}
