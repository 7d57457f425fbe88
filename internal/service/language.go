package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/atmosferica/shop-assistant/internal/domain"
	"github.com/atmosferica/shop-assistant/internal/port"
)

// Marker vocabularies for the language heuristic. Catalog and assistant are
// Spanish-first, so ambiguity resolves to Spanish.
var spanishMarkers = map[string]bool{
	"qué": true, "que": true, "cómo": true, "como": true, "cuál": true,
	"cual": true, "cuánto": true, "cuanto": true, "dónde": true,
	"donde": true, "hola": true, "buenos": true, "buenas": true,
	"tienen": true, "tiene": true, "necesito": true, "busco": true,
	"quiero": true, "para": true, "con": true, "una": true, "del": true,
	"las": true, "los": true, "por": true, "precio": true, "gracias": true,
	"recomienda": true, "sirve": true, "funciona": true, "medir": true,
}

var englishMarkers = map[string]bool{
	"the": true, "what": true, "which": true, "how": true, "where": true,
	"do": true, "does": true, "you": true, "your": true, "have": true,
	"need": true, "want": true, "looking": true, "for": true, "is": true,
	"are": true, "can": true, "could": true, "would": true, "price": true,
	"please": true, "thanks": true, "hello": true, "recommend": true,
	"measure": true, "weather": true, "station": true, "sensor": true,
	"and": true, "with": true, "best": true, "between": true,
}

// DetectLanguage guesses "es" or "en" from marker-word counts. Accented
// characters force Spanish immediately. Ties and unknown text default to "es".
func DetectLanguage(text string) string {
	lower := strings.ToLower(text)
	for _, r := range lower {
		switch r {
		case 'á', 'é', 'í', 'ó', 'ú', 'ñ', '¿', '¡':
			return "es"
		}
	}

	var es, en int
	for _, word := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if spanishMarkers[word] {
			es++
		}
		if englishMarkers[word] {
			en++
		}
	}
	if en > es && en >= 2 {
		return "en"
	}
	return "es"
}

// LanguageService normalizes incoming messages to Spanish before retrieval,
// since the catalog text and embeddings are Spanish.
type LanguageService struct {
	ai port.AIProvider
}

func NewLanguageService(ai port.AIProvider) *LanguageService {
	return &LanguageService{ai: ai}
}

// EnsureSpanish returns the message to use for retrieval and what happened.
// Translation failure is non-fatal: the original message is searched as-is.
func (s *LanguageService) EnsureSpanish(ctx context.Context, message string) (string, domain.TranslationInfo) {
	lang := DetectLanguage(message)
	info := domain.TranslationInfo{DetectedLanguage: lang}
	if lang == "es" {
		return message, info
	}

	prompt := "Traduce la siguiente consulta de un cliente al español. " +
		"Responde ÚNICAMENTE con la traducción, sin explicaciones.\n\n" + message
	translated, err := s.ai.Complete(ctx, prompt, port.GenerationParams{MaxTokens: 200, Temperature: 0.1})
	if err != nil || strings.TrimSpace(translated) == "" {
		slog.Warn("translation failed, searching with original text", "error", err)
		return message, info
	}

	info.WasTranslated = true
	return strings.TrimSpace(translated), info
}
