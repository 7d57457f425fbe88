package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"accented spanish", "¿Tienen termómetros?", "es"},
		{"plain spanish", "quiero una estacion para el jardin", "es"},
		{"english", "what is the best weather station you have", "en"},
		{"short english", "do you have sensors", "en"},
		{"ambiguous defaults spanish", "WS-2000", "es"},
		{"empty defaults spanish", "", "es"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.text))
		})
	}
}

func TestEnsureSpanishPassthrough(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewLanguageService(provider)

	query, info := svc.EnsureSpanish(context.Background(), "busco un pluviómetro")
	assert.Equal(t, "busco un pluviómetro", query)
	assert.False(t, info.WasTranslated)
	assert.Equal(t, "es", info.DetectedLanguage)
	assert.Zero(t, provider.completeCnt, "spanish input must not call the provider")
}

func TestEnsureSpanishTranslates(t *testing.T) {
	provider := &fakeProvider{completeFn: func(string) (string, error) {
		return "  busco un pluviómetro  ", nil
	}}
	svc := NewLanguageService(provider)

	query, info := svc.EnsureSpanish(context.Background(), "i am looking for the best rain gauge")
	assert.Equal(t, "busco un pluviómetro", query)
	assert.True(t, info.WasTranslated)
	assert.Equal(t, "en", info.DetectedLanguage)
}

func TestEnsureSpanishFallsBackOnTranslationError(t *testing.T) {
	provider := &fakeProvider{completeFn: func(string) (string, error) {
		return "", errors.New("upstream down")
	}}
	svc := NewLanguageService(provider)

	query, info := svc.EnsureSpanish(context.Background(), "i am looking for the best rain gauge")
	assert.Equal(t, "i am looking for the best rain gauge", query)
	assert.False(t, info.WasTranslated)
}
