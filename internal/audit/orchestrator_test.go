package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agenceeditorial/auditengine/internal/models"
)

func TestNeedsWorkflowStepsOrderAndNumbering(t *testing.T) {
	needs := Needs{Analysis: true, CompetitorScrap: true, TrendPipeline: true}
	steps := needs.WorkflowSteps()
	assert.Equal(t, []WorkflowStep{
		{Step: 1, Name: "Editorial Analysis"},
		{Step: 2, Name: "Competitor Scraping"},
		{Step: 3, Name: "Trend Pipeline"},
	}, steps)
}

func TestNeedsWorkflowStepsEmptyWhenNothingNeeded(t *testing.T) {
	assert.Empty(t, Needs{}.WorkflowSteps())
}

func TestDataStatusFromIsInverseOfNeeds(t *testing.T) {
	needs := Needs{Analysis: true, Competitors: false, ClientScraping: true, CompetitorScrap: false, TrendPipeline: true}
	ds := dataStatusFrom(needs)
	assert.False(t, ds.HasProfile)
	assert.True(t, ds.HasCompetitors)
	assert.False(t, ds.HasClientArticles)
	assert.True(t, ds.HasCompetitorArticles)
	assert.False(t, ds.HasTrendPipeline)
}

func TestNeedsJSONMapRoundTrip(t *testing.T) {
	original := Needs{Analysis: true, Competitors: false, ClientScraping: true, CompetitorScrap: false, TrendPipeline: true}
	m := original.toJSONMap("client.test")
	assert.Equal(t, "client.test", m["domain"])
	restored := needsFromJSONMap(m)
	assert.Equal(t, original, restored)
}

func TestDeriveCompetitorDomainsFiltersExcludedAndUnvalidated(t *testing.T) {
	exec := &models.WorkflowExecution{
		OutputData: models.JSONMap{
			"competitors": []any{
				map[string]any{"domain": "a.test", "excluded": false, "validated": true, "manual": false},
				map[string]any{"domain": "b.test", "excluded": true, "validated": true, "manual": false},
				map[string]any{"domain": "c.test", "excluded": false, "validated": false, "manual": false},
				map[string]any{"domain": "d.test", "excluded": false, "validated": false, "manual": true},
				map[string]any{"excluded": false, "validated": true},
			},
		},
	}
	got := deriveCompetitorDomains(exec)
	assert.Equal(t, []string{"a.test", "d.test"}, got)
}

func TestDeriveCompetitorDomainsNilExecution(t *testing.T) {
	assert.Nil(t, deriveCompetitorDomains(nil))
}

func TestOverallProgressCompletedIsAlwaysOneHundred(t *testing.T) {
	assert.Equal(t, 100, overallProgress(models.StatusCompleted, 3, nil))
}

func TestOverallProgressPartialChildren(t *testing.T) {
	children := []models.WorkflowExecution{
		{Status: models.StatusCompleted},
		{Status: models.StatusRunning},
	}
	got := overallProgress(models.StatusRunning, 4, children)
	assert.Equal(t, 25, got)
}

func TestOverallProgressNoStepsPendingIsZero(t *testing.T) {
	assert.Equal(t, 0, overallProgress(models.StatusPending, 0, nil))
}

func TestOverallProgressCapsBelowCompleteUntilStatusIsCompleted(t *testing.T) {
	children := []models.WorkflowExecution{
		{Status: models.StatusCompleted},
	}
	got := overallProgress(models.StatusRunning, 1, children)
	assert.Equal(t, 99, got)
}
