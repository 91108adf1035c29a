package trendpipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agenceeditorial/auditengine/internal/clustering"
)

func TestDocumentTextPrefersContentOverTitle(t *testing.T) {
	got := documentText(map[string]any{"content_text": "full body", "title": "headline"})
	assert.Equal(t, "full body", got)
}

func TestDocumentTextFallsBackToTitle(t *testing.T) {
	got := documentText(map[string]any{"title": "headline"})
	assert.Equal(t, "headline", got)
}

func TestDocumentTextEmptyWhenNeitherPresent(t *testing.T) {
	got := documentText(map[string]any{"author": "someone"})
	assert.Equal(t, "", got)
}

func TestParsePayloadDateValidRFC3339(t *testing.T) {
	ts, ok := parsePayloadDate(map[string]any{"published_date": "2025-01-15T00:00:00Z"})
	assert.True(t, ok)
	assert.Equal(t, 2025, ts.Year())
}

func TestParsePayloadDateMissingOrMalformed(t *testing.T) {
	_, ok := parsePayloadDate(map[string]any{})
	assert.False(t, ok)

	_, ok = parsePayloadDate(map[string]any{"published_date": "not-a-date"})
	assert.False(t, ok)
}

func TestToModelTermWeightsPreservesOrderAndValues(t *testing.T) {
	in := []clustering.TermWeight{{Term: "ai", Weight: 0.9}, {Term: "regulation", Weight: 0.5}}
	out := toModelTermWeights(in)
	assert.Len(t, out, 2)
	assert.Equal(t, "ai", out[0].Term)
	assert.Equal(t, 0.9, out[0].Weight)
	assert.Equal(t, "regulation", out[1].Term)
}

func TestDefaultConfigSetsPositiveConcurrency(t *testing.T) {
	cfg := DefaultConfig()
	assert.Greater(t, cfg.LLMConcurrent, 0)
	assert.Greater(t, cfg.LLMTopTopics, 0)
	assert.Equal(t, "articles", cfg.Collection)
}
