package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/agenceeditorial/auditengine/internal/models"
)

// WorkflowStep is one entry of the ordered launch plan returned to callers
// while an audit is pending.
type WorkflowStep struct {
	Step int    `json:"step"`
	Name string `json:"name"`
}

// stepOrder is the fixed dispatch order, exactly as sites_audit.py builds
// its workflow_steps list regardless of which subset is actually needed.
var stepOrder = []string{
	"Editorial Analysis",
	"Competitor Search",
	"Client Site Scraping",
	"Competitor Scraping",
	"Trend Pipeline",
}

// Needs records which upstream workflows are missing or insufficient for a
// domain, as derived by Orchestrator.Check.
type Needs struct {
	Analysis        bool
	Competitors     bool
	ClientScraping  bool
	CompetitorScrap bool
	TrendPipeline   bool
}

// Any reports whether at least one workflow still needs to run.
func (n Needs) Any() bool {
	return n.Analysis || n.Competitors || n.ClientScraping || n.CompetitorScrap || n.TrendPipeline
}

// flagged returns whether stepName is required under n, in stepOrder's terms.
func (n Needs) flagged(stepName string) bool {
	switch stepName {
	case "Editorial Analysis":
		return n.Analysis
	case "Competitor Search":
		return n.Competitors
	case "Client Site Scraping":
		return n.ClientScraping
	case "Competitor Scraping":
		return n.CompetitorScrap
	case "Trend Pipeline":
		return n.TrendPipeline
	default:
		return false
	}
}

// WorkflowSteps builds the ordered, 1-based launch plan containing only the
// steps n flags as needed — step numbers increment only over included
// steps, matching the original's step_num counter.
func (n Needs) WorkflowSteps() []WorkflowStep {
	var steps []WorkflowStep
	num := 1
	for _, name := range stepOrder {
		if n.flagged(name) {
			steps = append(steps, WorkflowStep{Step: num, Name: name})
			num++
		}
	}
	return steps
}

// DataStatus reports, from the caller's point of view, which data is
// already present — the inverse of Needs, as returned in PendingResult.
type DataStatus struct {
	HasProfile            bool `json:"has_profile"`
	HasCompetitors        bool `json:"has_competitors"`
	HasClientArticles     bool `json:"has_client_articles"`
	HasCompetitorArticles bool `json:"has_competitor_articles"`
	HasTrendPipeline      bool `json:"has_trend_pipeline"`
}

func dataStatusFrom(n Needs) DataStatus {
	return DataStatus{
		HasProfile:            !n.Analysis,
		HasCompetitors:        !n.Competitors,
		HasClientArticles:     !n.ClientScraping,
		HasCompetitorArticles: !n.CompetitorScrap,
		HasTrendPipeline:      !n.TrendPipeline,
	}
}

// toJSONMap/needsFromJSONMap round-trip Needs through a WorkflowExecution's
// input_data column, so an in-flight execution can be resumed/reported on
// without re-deriving prerequisites.
func (n Needs) toJSONMap(domain string) models.JSONMap {
	return models.JSONMap{
		"domain":               domain,
		"needs_analysis":       n.Analysis,
		"needs_competitors":    n.Competitors,
		"needs_scraping":       n.CompetitorScrap,
		"needs_client_scraping": n.ClientScraping,
		"needs_trend_pipeline": n.TrendPipeline,
	}
}

func needsFromJSONMap(m models.JSONMap) Needs {
	b := func(key string) bool {
		v, _ := m[key].(bool)
		return v
	}
	return Needs{
		Analysis:        b("needs_analysis"),
		Competitors:     b("needs_competitors"),
		ClientScraping:  b("needs_client_scraping"),
		CompetitorScrap: b("needs_scraping"),
		TrendPipeline:   b("needs_trend_pipeline"),
	}
}

// PendingResult is returned when one or more upstream workflows are
// missing: either a fresh launch was just dispatched, or an equivalent
// in-flight run was found and is being reused.
type PendingResult struct {
	Status        string         `json:"status"`
	ExecutionID   uuid.UUID      `json:"execution_id"`
	Message       string         `json:"message"`
	WorkflowSteps []WorkflowStep `json:"workflow_steps"`
	DataStatus    DataStatus     `json:"data_status"`
}

// CompleteResult is returned when every prerequisite is already satisfied
// (or sufficiently so), built directly from the relational store without
// launching anything.
type CompleteResult struct {
	Status             string                         `json:"status"`
	Domain             string                         `json:"domain"`
	Profile            *models.SiteProfile             `json:"profile,omitempty"`
	Competitors        []models.CompetitorDomain        `json:"competitors,omitempty"`
	ClientArticleCount int                              `json:"client_article_count"`
	CompetitorArticleCount int                          `json:"competitor_article_count"`
	TrendPipeline      *models.TrendPipelineExecution    `json:"trend_pipeline,omitempty"`
	Roadmap            []models.ContentRoadmap          `json:"roadmap,omitempty"`
}

// StatusResult is the aggregated progress view served by the status
// endpoint, including the "already-completed" sentinel lookup path.
type StatusResult struct {
	ExecutionID     uuid.UUID              `json:"execution_id"`
	Domain          string                 `json:"domain"`
	OverallStatus   models.ExecutionStatus `json:"overall_status"`
	OverallProgress int                    `json:"overall_progress"`
	WorkflowSteps   []WorkflowStep         `json:"workflow_steps"`
	ErrorMessage    *string                `json:"error_message,omitempty"`
	StartTime       *time.Time             `json:"start_time,omitempty"`
	EndTime         *time.Time             `json:"end_time,omitempty"`
}
