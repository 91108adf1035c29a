package gap

import (
	"testing"

	"github.com/agenceeditorial/auditengine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeCoverage_NoCompetitorsScoresOneAsGood(t *testing.T) {
	a := New(DefaultConfig())
	cov := a.AnalyzeCoverage("client.test", []ClusterMembers{
		{TopicClusterID: 1, Label: "topic-a", MemberDomains: []string{"client.test", "client.test"}},
	})
	require.Len(t, cov, 1)
	assert.Equal(t, 1.0, cov[0].Score)
	assert.Equal(t, models.CoverageGood, cov[0].Level)
}

func TestAnalyzeCoverage_GapWhenClientAbsent(t *testing.T) {
	a := New(DefaultConfig())
	cov := a.AnalyzeCoverage("client.test", []ClusterMembers{
		{TopicClusterID: 2, Label: "topic-b", MemberDomains: []string{"rival-a.test", "rival-b.test", "rival-a.test"}},
	})
	require.Len(t, cov, 1)
	assert.Equal(t, 0.0, cov[0].Score)
	assert.Equal(t, models.CoverageGap, cov[0].Level)
	assert.Equal(t, 2, cov[0].NumCompetitors)
}

func TestIdentifyGapsSortedDescendingByPriority(t *testing.T) {
	a := New(DefaultConfig())
	coverage := []Coverage{
		{TopicClusterID: 1, Label: "low-priority", Score: 0.25, Level: models.CoverageWeak, NumCompetitors: 1},
		{TopicClusterID: 2, Label: "high-priority", Score: 0.0, Level: models.CoverageGap, NumCompetitors: 8},
	}
	potentials := map[int64]TopicPotential{
		1: {PotentialScore: 0.2, Velocity: 0.5},
		2: {PotentialScore: 0.9, Velocity: 1.8},
	}
	gaps := a.IdentifyGaps(coverage, potentials)
	require.Len(t, gaps, 2)
	assert.Equal(t, int64(2), gaps[0].TopicClusterID)
	assert.Greater(t, gaps[0].PriorityScore, gaps[1].PriorityScore)
}

func TestIdentifyStrengthsThresholdAndOrder(t *testing.T) {
	a := New(DefaultConfig())
	coverage := []Coverage{
		{TopicClusterID: 1, Label: "weak", Score: 1.2, Level: models.CoverageGood},
		{TopicClusterID: 2, Label: "strong", Score: 2.0, Level: models.CoverageExcellent},
		{TopicClusterID: 3, Label: "stronger", Score: 3.0, Level: models.CoverageExcellent},
	}
	strengths := a.IdentifyStrengths(coverage)
	require.Len(t, strengths, 2)
	assert.Equal(t, int64(3), strengths[0].TopicClusterID)
	assert.Equal(t, int64(2), strengths[1].TopicClusterID)
}

// TestBuildRoadmap_WorkedExample reproduces spec.md §8 scenario 6: 10 gaps
// with priority scores [0.9,0.85,0.7,0.6,0.55,0.5,0.4,0.3,0.2,0.1],
// distribution {high:3,medium:4,low:3}, effort distribution
// {easy:0.3,medium:0.5,complex:0.2}, max_roadmap_items=10. Expects
// priority_order 1..10, exactly 3 high-tier items, and an effort split
// approximating {easy:3,medium:5,complex:2}.
func TestBuildRoadmap_WorkedExample(t *testing.T) {
	cfg := DefaultConfig()
	a := New(cfg)

	scores := []float64{0.9, 0.85, 0.7, 0.6, 0.55, 0.5, 0.4, 0.3, 0.2, 0.1}
	gaps := make([]models.EditorialGap, len(scores))
	recs := make([]Recommendation, 0, len(scores)*3)
	efforts := []string{"easy", "medium", "complex"}
	for i, s := range scores {
		topicID := int64(i + 1)
		gaps[i] = models.EditorialGap{TopicClusterID: topicID, Label: "topic", PriorityScore: s}
		for j, eff := range efforts {
			recs = append(recs, Recommendation{ID: int64(i*10 + j), TopicClusterID: topicID, EffortLevel: eff})
		}
	}

	items := a.BuildRoadmap(gaps, recs)
	require.Len(t, items, 10)

	for i, it := range items {
		assert.Equal(t, i+1, it.PriorityOrder)
	}

	tierCounts := map[models.PriorityTier]int{}
	effortCounts := map[models.EffortLevel]int{}
	for _, it := range items {
		tierCounts[it.PriorityTier]++
		effortCounts[it.EstimatedEffort]++
	}
	assert.Equal(t, 3, tierCounts[models.TierHigh])
	assert.Equal(t, 4, tierCounts[models.TierMedium])
	assert.Equal(t, 3, tierCounts[models.TierLow])

	assert.Equal(t, 3, effortCounts[models.EffortEasy])
	assert.Equal(t, 5, effortCounts[models.EffortMedium])
	assert.Equal(t, 2, effortCounts[models.EffortComplex])
}

func TestBuildRoadmap_CapsAtMaxItems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRoadmapItems = 2
	cfg.PriorityDistribution = map[string]int{"high": 1, "medium": 1, "low": 1}
	a := New(cfg)

	gaps := []models.EditorialGap{
		{TopicClusterID: 1, PriorityScore: 0.9},
		{TopicClusterID: 2, PriorityScore: 0.8},
		{TopicClusterID: 3, PriorityScore: 0.75},
	}
	recs := []Recommendation{
		{ID: 1, TopicClusterID: 1, EffortLevel: "easy"},
		{ID: 2, TopicClusterID: 2, EffortLevel: "easy"},
		{ID: 3, TopicClusterID: 3, EffortLevel: "easy"},
	}
	items := a.BuildRoadmap(gaps, recs)
	assert.Len(t, items, 2)
}

func TestBuildRoadmap_SkipsGapWithNoRecommendations(t *testing.T) {
	a := New(DefaultConfig())
	gaps := []models.EditorialGap{
		{TopicClusterID: 1, PriorityScore: 0.9},
		{TopicClusterID: 2, PriorityScore: 0.5},
	}
	recs := []Recommendation{
		{ID: 1, TopicClusterID: 2, EffortLevel: "easy"},
	}
	items := a.BuildRoadmap(gaps, recs)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].GapTopicClusterID)
}
