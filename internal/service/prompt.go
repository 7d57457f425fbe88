package service

import (
	"fmt"
	"strings"

	"github.com/atmosferica/shop-assistant/internal/domain"
	"github.com/atmosferica/shop-assistant/internal/port"
)

// QueryClass drives token budget, temperature and prompt format.
type QueryClass string

const (
	ClassGreeting       QueryClass = "greeting"
	ClassGeneral        QueryClass = "general"
	ClassComparison     QueryClass = "comparison"
	ClassRecommendation QueryClass = "recommendation"
	ClassContextual     QueryClass = "contextual"
	ClassSpecific       QueryClass = "specific"
)

// Params returns the generation bounds for the class. Low temperatures
// throughout: the assistant describes a catalog, it does not improvise.
func (c QueryClass) Params() port.GenerationParams {
	switch c {
	case ClassGreeting:
		return port.GenerationParams{MaxTokens: 120, Temperature: 0.1}
	case ClassComparison:
		return port.GenerationParams{MaxTokens: 300, Temperature: 0.2}
	case ClassRecommendation:
		return port.GenerationParams{MaxTokens: 300, Temperature: 0.2}
	case ClassContextual:
		return port.GenerationParams{MaxTokens: 500, Temperature: 0.1}
	case ClassSpecific:
		return port.GenerationParams{MaxTokens: 800, Temperature: 0.1}
	default:
		return port.GenerationParams{MaxTokens: 200, Temperature: 0.1}
	}
}

var greetingPhrases = []string{
	"hola", "buenos días", "buenos dias", "buenas tardes", "buenas noches",
	"buenas", "hey", "hi", "hello", "saludos",
}

var comparisonCues = []string{
	"diferencia", "comparar", "compara", "comparación", "comparacion",
	" vs ", "versus", "mejor que", "cuál es mejor", "cual es mejor",
	"o el", "o la",
}

var recommendationCues = []string{
	"recomiend", "recomen", "sugier", "sugerencia", "aconsej",
	"qué me conviene", "que me conviene", "cuál me conviene",
	"cual me conviene", "para mi caso",
}

var specificCues = []string{
	"modelo", "especificacion", "especificación", "ficha técnica",
	"ficha tecnica", "características de", "caracteristicas de",
	"detalles de", "rango de", "precisión de", "precision de",
}

var contextualCues = []string{
	"ese", "esa", "esos", "esas", "este", "esta", "el anterior",
	"la anterior", "el mismo", "la misma", "y el", "y la", "también",
	"tambien", "además", "ademas", "entonces",
}

// ClassifyQuery buckets a message by cheap keyword heuristics, checked from
// most to least distinctive. hasHistory gates the contextual class: a
// follow-up pronoun with no history to follow up on is just a general query.
func ClassifyQuery(message string, hasHistory bool) QueryClass {
	lower := strings.ToLower(strings.TrimSpace(message))

	if len(strings.Fields(lower)) <= 4 {
		for _, g := range greetingPhrases {
			if strings.HasPrefix(lower, g) {
				return ClassGreeting
			}
		}
	}
	for _, cue := range comparisonCues {
		if strings.Contains(lower, cue) {
			return ClassComparison
		}
	}
	for _, cue := range recommendationCues {
		if strings.Contains(lower, cue) {
			return ClassRecommendation
		}
	}
	for _, cue := range specificCues {
		if strings.Contains(lower, cue) {
			return ClassSpecific
		}
	}
	if hasHistory {
		for _, cue := range contextualCues {
			if strings.Contains(lower, cue) {
				return ClassContextual
			}
		}
	}
	return ClassGeneral
}

// noStockSentence is the exact sentence the assistant must use when the
// catalog has nothing for the request, verbatim so the UI can detect it.
const noStockSentence = "NO DISPONEMOS de productos para esta aplicación específica en nuestro catálogo actual."

// PromptInput is everything BuildPrompt needs for one generation.
type PromptInput struct {
	Message     string
	History     []domain.ChatMessage
	Products    []domain.RankedResult
	Brands      []domain.RankedResult
	Class       QueryClass
	Translation domain.TranslationInfo
	HistoryMax  int
}

// BuildPrompt assembles the full generation prompt: principles, catalog
// context, brand context, recent history and the per-class format block.
func BuildPrompt(in PromptInput) string {
	var sb strings.Builder

	sb.WriteString("Eres el asistente virtual de una tienda online de instrumentación meteorológica y sensores.\n")
	sb.WriteString("Respondes SIEMPRE en español, de forma breve y profesional.\n\n")
	sb.WriteString("REGLAS ESTRICTAS:\n")
	sb.WriteString("1. Usa ÚNICAMENTE la información del CATÁLOGO incluida abajo. NUNCA inventes productos, marcas ni características.\n")
	sb.WriteString("2. NUNCA menciones precios, descuentos ni condiciones de pago. Si preguntan por precios, indica que consulten la ficha del producto en la web.\n")
	if len(in.Products) == 0 && len(in.Brands) == 0 {
		sb.WriteString("3. El catálogo NO contiene productos para esta consulta. Responde exactamente con la frase: \"" + noStockSentence + "\" y ofrece ayuda para otra búsqueda.\n")
	} else {
		sb.WriteString("3. Si ningún producto del contexto encaja con lo pedido, dilo claramente con la frase: \"" + noStockSentence + "\"\n")
	}
	sb.WriteString("\n")

	if len(in.Products) > 0 {
		sb.WriteString("CATÁLOGO (productos relevantes):\n")
		if in.Class == ClassGeneral || in.Class == ClassGreeting {
			sb.WriteString(compactProducts(in.Products))
		} else {
			sb.WriteString(detailedProducts(in.Products))
		}
		sb.WriteString("\n")
	}

	if len(in.Brands) > 0 {
		sb.WriteString("INFORMACIÓN DE MARCAS:\n")
		for _, b := range in.Brands {
			doc, ok := domain.DecodeMetadata[domain.BrandDoc](b.Metadata)
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, "- %s: %s\n", doc.BrandName, doc.Title)
			if doc.Content != "" {
				fmt.Fprintf(&sb, "  %s\n", doc.Content)
			}
			if len(doc.JSONData) > 0 {
				sb.WriteString(FormatJSONInfo(doc.JSONData))
			}
		}
		sb.WriteString("\n")
	}

	if history := recentHistory(in.History, in.HistoryMax); len(history) > 0 {
		sb.WriteString("CONVERSACIÓN RECIENTE:\n")
		for _, msg := range history {
			role := "Usuario"
			if msg.Role == "assistant" {
				role = "Asistente"
			}
			fmt.Fprintf(&sb, "%s: %s\n", role, msg.Content)
		}
		sb.WriteString("\n")
	}

	switch in.Class {
	case ClassComparison:
		sb.WriteString("FORMATO: compara los productos punto por punto (uso previsto, rango, diferencias clave) y cierra con cuál encaja mejor según la consulta.\n\n")
	case ClassRecommendation:
		sb.WriteString("FORMATO: recomienda como máximo 2 productos del catálogo, justificando cada uno en una frase.\n\n")
	case ClassSpecific:
		sb.WriteString("FORMATO: responde con el detalle técnico disponible del producto consultado, en lista breve.\n\n")
	}

	if in.Translation.WasTranslated {
		sb.WriteString("NOTA: la consulta original del cliente no estaba en español y fue traducida; responde igualmente en español.\n\n")
	}

	fmt.Fprintf(&sb, "CONSULTA DEL CLIENTE: %s\n", in.Message)
	return sb.String()
}

func compactProducts(results []domain.RankedResult) string {
	var sb strings.Builder
	for _, r := range results {
		p, ok := domain.DecodeMetadata[domain.Product](r.Metadata)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "- %s (%s)\n", p.Name, p.Category)
	}
	return sb.String()
}

func detailedProducts(results []domain.RankedResult) string {
	var sb strings.Builder
	for _, r := range results {
		p, ok := domain.DecodeMetadata[domain.Product](r.Metadata)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "- **%s**", p.Name)
		if p.Brand != "" || p.Model != "" {
			fmt.Fprintf(&sb, " (%s %s)", p.Brand, p.Model)
		}
		sb.WriteString("\n")
		if p.Description != "" {
			fmt.Fprintf(&sb, "  %s\n", p.Description)
		}
		if p.Category != "" {
			fmt.Fprintf(&sb, "  Categoría: %s\n", p.Category)
		}
		if len(p.Attributes) > 0 {
			sb.WriteString(FormatJSONInfo(p.Attributes))
		}
	}
	return sb.String()
}

func recentHistory(history []domain.ChatMessage, max int) []domain.ChatMessage {
	if max <= 0 {
		max = 4
	}
	if len(history) > max {
		return history[len(history)-max:]
	}
	return history
}
