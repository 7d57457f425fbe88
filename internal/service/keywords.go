package service

import (
	"strings"
	"unicode"
)

// spanishStopWords are dropped from keyword extraction; they match almost
// any catalog text and only produce noise.
var spanishStopWords = map[string]bool{
	"de": true, "la": true, "el": true, "en": true, "y": true, "a": true,
	"los": true, "las": true, "del": true, "se": true, "por": true,
	"un": true, "una": true, "unos": true, "unas": true, "para": true,
	"con": true, "no": true, "su": true, "sus": true, "al": true,
	"lo": true, "como": true, "más": true, "mas": true, "pero": true,
	"le": true, "les": true, "ya": true, "o": true, "u": true, "e": true,
	"este": true, "esta": true, "estos": true, "estas": true, "ese": true,
	"esa": true, "eso": true, "entre": true, "cuando": true, "muy": true,
	"sin": true, "sobre": true, "también": true, "tambien": true,
	"me": true, "mi": true, "hasta": true, "hay": true, "donde": true,
	"desde": true, "todo": true, "todos": true, "toda": true, "todas": true,
	"nos": true, "durante": true, "uno": true, "ni": true, "otro": true,
	"otra": true, "otros": true, "otras": true, "que": true, "qué": true,
	"cual": true, "cuál": true, "quiero": true, "necesito": true,
	"busco": true, "tienen": true, "tiene": true, "algún": true,
	"algun": true, "alguna": true, "es": true, "son": true,
}

// domainTerms is the fixed instrument-category vocabulary of the domain-term
// cascade tier. A query mentioning any of these is narrowed to entities that
// mention the same term.
var domainTerms = []string{
	"estación", "estacion", "estaciones",
	"meteorológica", "meteorologica", "meteorológicas", "meteorologicas",
	"sensor", "sensores",
	"termómetro", "termometro",
	"anemómetro", "anemometro",
	"pluviómetro", "pluviometro",
	"barómetro", "barometro",
	"higrómetro", "higrometro",
	"datalogger", "registrador",
	"temperatura", "humedad", "viento", "lluvia", "radiación", "radiacion",
}

const maxKeywordLen = 24

// ExtractKeywords tokenizes a query for the keyword tier: lowercase, split
// on whitespace/hyphen/underscore, strip surrounding punctuation, drop stop
// words, pure-numeric tokens and overlong tokens. The full normalized query
// is appended as a final "keyword" so multi-word phrases still match.
func ExtractKeywords(query string) []string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return nil
	}

	fields := strings.FieldsFunc(normalized, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_'
	})

	var keywords []string
	for _, f := range fields {
		token := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(token) < 2 || len(token) > maxKeywordLen {
			continue
		}
		if spanishStopWords[token] {
			continue
		}
		if isNumeric(token) {
			continue
		}
		keywords = append(keywords, token)
	}

	return append(keywords, normalized)
}

// MatchedDomainTerms returns the domain vocabulary terms present in the query.
func MatchedDomainTerms(query string) []string {
	lower := strings.ToLower(query)
	var matched []string
	for _, term := range domainTerms {
		if strings.Contains(lower, term) {
			matched = append(matched, term)
		}
	}
	return matched
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}
