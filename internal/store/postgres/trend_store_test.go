package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenceeditorial/auditengine/internal/models"
)

func TestTrendStorePipelineExecutionLifecycle(t *testing.T) {
	db := setupTestDB(t)
	execStore := NewExecutionStore(db)
	trendStore := NewTrendStore(db)
	ctx := context.Background()
	domain := "trend-lifecycle-" + time.Now().UTC().Format("150405.000000") + ".example.com"

	parent, err := execStore.CreateExecution(ctx, models.WorkflowTrendsAnalysis, models.JSONMap{"domain": domain}, nil)
	require.NoError(t, err)

	start := time.Now().UTC()
	exec := &models.TrendPipelineExecution{
		ExecutionID:       parent.ExecutionID,
		SourceExecutionID: &parent.ExecutionID,
		ClientDomain:      domain,
		DomainsAnalyzed:   models.JSONMap{"domains": []string{domain}},
		TimeWindowDays:    30,
		StartTime:         &start,
	}
	require.NoError(t, trendStore.CreatePipelineExecution(ctx, exec))
	assert.NotZero(t, exec.ID)

	require.NoError(t, trendStore.UpdateStageStatus(ctx, exec.ID, 1, models.StageCompleted))
	require.NoError(t, trendStore.UpdateStageStatus(ctx, exec.ID, 2, models.StageCompleted))
	require.NoError(t, trendStore.UpdateStageStatus(ctx, exec.ID, 3, models.StageSkipped))
	require.NoError(t, trendStore.UpdateStageStatus(ctx, exec.ID, 4, models.StageCompleted))

	err = trendStore.UpdateStageStatus(ctx, exec.ID, 5, models.StageCompleted)
	assert.Error(t, err, "stage 5 does not exist")

	exec.TotalArticles = 12
	exec.TotalClusters = 3
	require.NoError(t, trendStore.FinishPipelineExecution(ctx, exec))
	assert.NotNil(t, exec.EndTime)
	assert.NotNil(t, exec.DurationSeconds)

	latest, err := trendStore.LatestCompletedForClient(ctx, domain)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, exec.ID, latest.ID)

	bySource, err := trendStore.LatestForSource(ctx, parent.ExecutionID)
	require.NoError(t, err)
	require.NotNil(t, bySource)
	assert.Equal(t, exec.ID, bySource.ID)
}

func TestTrendStoreLatestForSourceMissingReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	trendStore := NewTrendStore(db)
	ctx := context.Background()

	got, err := trendStore.LatestForSource(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTrendStoreClusterRecommendationAndRoadmapChain(t *testing.T) {
	db := setupTestDB(t)
	execStore := NewExecutionStore(db)
	trendStore := NewTrendStore(db)
	tm := NewTransactionManager(db)
	ctx := context.Background()
	domain := "roadmap-chain-" + time.Now().UTC().Format("150405.000000") + ".example.com"

	parent, err := execStore.CreateExecution(ctx, models.WorkflowTrendsAnalysis, models.JSONMap{"domain": domain}, nil)
	require.NoError(t, err)

	exec := &models.TrendPipelineExecution{
		ExecutionID:    parent.ExecutionID,
		ClientDomain:   domain,
		TimeWindowDays: 30,
	}
	require.NoError(t, trendStore.CreatePipelineExecution(ctx, exec))

	cluster := &models.TopicCluster{
		AnalysisID:     exec.ID,
		TopicID:        0,
		Label:          "pricing strategy",
		CoherenceScore: 0.82,
	}
	require.NoError(t, trendStore.CreateTopicCluster(ctx, cluster))
	assert.NotZero(t, cluster.ID)

	clusters, err := trendStore.ClustersByAnalysis(ctx, exec.ID)
	require.NoError(t, err)
	assert.Len(t, clusters, 1)

	rec := &models.ArticleRecommendation{
		TopicClusterID:       cluster.ID,
		Title:                "Pricing playbook for 2026",
		Hook:                 "Competitors raised prices; here's the opening",
		DifferentiationScore: 0.7,
		EffortLevel:          models.EffortMedium,
	}
	require.NoError(t, trendStore.CreateArticleRecommendation(ctx, rec))
	assert.Equal(t, models.RecSuggested, rec.Status)

	recs, err := trendStore.RecommendationsByCluster(ctx, cluster.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	gapRow := &models.EditorialGap{
		ClientDomain:   domain,
		TopicClusterID: cluster.ID,
		CoverageScore:  0.1,
		PriorityScore:  0.8,
	}
	require.NoError(t, trendStore.CreateEditorialGap(ctx, gapRow))

	roadmap := []models.ContentRoadmap{{
		GapID:            gapRow.ID,
		RecommendationID: rec.ID,
		PriorityOrder:    1,
		PriorityTier:     models.TierHigh,
		EstimatedEffort:  models.EffortMedium,
	}}
	require.NoError(t, trendStore.SaveRoadmap(ctx, tm, domain, roadmap))

	saved, err := trendStore.RoadmapForClient(ctx, domain)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, domain, saved[0].ClientDomain)

	// Saving again for the same client replaces rather than accumulates.
	require.NoError(t, trendStore.SaveRoadmap(ctx, tm, domain, roadmap))
	saved, err = trendStore.RoadmapForClient(ctx, domain)
	require.NoError(t, err)
	assert.Len(t, saved, 1)
}
