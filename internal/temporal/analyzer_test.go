package temporal

import (
	"testing"
	"time"

	"github.com/agenceeditorial/auditengine/internal/models"
	"github.com/stretchr/testify/require"
)

func TestVelocityStableAtExactlyOne(t *testing.T) {
	a := New(DefaultConfig())
	now := time.Now().UTC()
	// 7 articles in the last 7 days, 30 in the last 30 -> rate7=1, rate30=1 -> velocity=1.0
	var docs []Document
	for i := 0; i < 7; i++ {
		docs = append(docs, Document{Domain: "a.test", PublishedDate: now.AddDate(0, 0, -i), HasDate: true})
	}
	for i := 7; i < 30; i++ {
		docs = append(docs, Document{Domain: "a.test", PublishedDate: now.AddDate(0, 0, -i), HasDate: true})
	}
	m := a.AnalyzeTopic(1, docs, nil, nil)
	require.InDelta(t, 1.0, m.VelocityRatio, 0.001)
	require.Equal(t, models.VelocityStable, m.VelocityTrend)
}

func TestFreshnessHotAtBoundary(t *testing.T) {
	a := New(DefaultConfig())
	now := time.Now().UTC()
	var docs []Document
	// 4 of 10 in last 7 days => ratio 0.4, inclusive boundary should be "hot"
	for i := 0; i < 4; i++ {
		docs = append(docs, Document{Domain: "a.test", PublishedDate: now.AddDate(0, 0, -1), HasDate: true})
	}
	for i := 0; i < 6; i++ {
		docs = append(docs, Document{Domain: "a.test", PublishedDate: now.AddDate(0, 0, -300), HasDate: true})
	}
	m := a.AnalyzeTopic(2, docs, nil, nil)
	require.InDelta(t, 0.4, m.FreshnessRatio, 0.001)
	require.Equal(t, models.FreshnessHot, m.FreshnessTrend)
}

func TestEmptyDocsReturnsEmptyMetrics(t *testing.T) {
	a := New(DefaultConfig())
	m := a.AnalyzeTopic(3, nil, nil, nil)
	require.Equal(t, 1.0, m.VelocityRatio)
	require.Equal(t, models.VelocityStable, m.VelocityTrend)
}
