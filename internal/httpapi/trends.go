package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agenceeditorial/auditengine/internal/domainvalidate"
	"github.com/agenceeditorial/auditengine/internal/errs"
	"github.com/agenceeditorial/auditengine/internal/models"
	"github.com/agenceeditorial/auditengine/internal/trendpipeline"
)

// analyzeTrendsRequest is the body of POST /trends/analyze. Unlike
// /sites/analyze and /scraping/scrape, this endpoint is backed by a fully
// built component (trendpipeline.Pipeline) and actually runs the pipeline,
// asynchronously, rather than merely recording a request to run it later.
type analyzeTrendsRequest struct {
	ClientDomain    string   `json:"client_domain" binding:"required"`
	Domains         []string `json:"domains" binding:"required,min=1"`
	TimeWindowDays  int      `json:"time_window_days" binding:"omitempty,min=1"`
	SkipLLM         bool     `json:"skip_llm"`
	SkipGapAnalysis bool     `json:"skip_gap_analysis"`
}

func (h *Handler) analyzeTrends(c *gin.Context) {
	var req analyzeTrendsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.New(errs.KindInputValidation, "invalid request body", err))
		return
	}
	if !domainvalidate.Valid(req.ClientDomain) {
		writeError(c, errs.New(errs.KindInputValidation, "invalid client_domain", nil))
		return
	}
	clientDomain, _ := domainvalidate.Normalize(req.ClientDomain)

	domains := make([]string, 0, len(req.Domains))
	for _, d := range req.Domains {
		if !domainvalidate.Valid(d) {
			writeError(c, errs.New(errs.KindInputValidation, "invalid domain in domains", nil))
			return
		}
		norm, _ := domainvalidate.Normalize(d)
		domains = append(domains, norm)
	}

	input := models.JSONMap{
		"domain":            clientDomain,
		"client_domain":     clientDomain,
		"domains":           domains,
		"time_window_days":  req.TimeWindowDays,
		"skip_llm":          req.SkipLLM,
		"skip_gap_analysis": req.SkipGapAnalysis,
	}
	exec, err := h.Executions.CreateExecution(c.Request.Context(), models.WorkflowTrendsAnalysis, input, nil)
	if err != nil {
		writeError(c, err)
		return
	}

	params := trendpipeline.Params{
		Domains:         domains,
		ClientDomain:    clientDomain,
		TimeWindowDays:  req.TimeWindowDays,
		SkipLLM:         req.SkipLLM,
		SkipGapAnalysis: req.SkipGapAnalysis,
	}
	go h.runTrendPipeline(exec.ExecutionID, params)

	c.JSON(http.StatusAccepted, gin.H{
		"execution_id": exec.ExecutionID,
		"status":       exec.Status,
		"start_time":   time.Now().UTC(),
	})
}

// runTrendPipeline drives the pipeline off the request goroutine and folds
// the result back into the owning WorkflowExecution row, the same
// detached-goroutine idiom used by audit.runMissingWorkflowsChain, with a
// recover guard of its own.
func (h *Handler) runTrendPipeline(executionID uuid.UUID, params trendpipeline.Params) {
	ctx := context.Background()
	defer func() {
		if r := recover(); r != nil {
			h.Log.Error("httpapi", "trend_pipeline_panic", "panicked running trend pipeline", map[string]any{
				"execution_id": executionID.String(), "panic": r,
			})
		}
	}()

	if err := h.Executions.UpdateExecution(ctx, executionID, models.StatusRunning, nil, nil); err != nil {
		h.Log.Error("httpapi", "trend_pipeline_update_failed", err.Error(), nil)
		return
	}

	result, runErr := h.Pipeline.Execute(ctx, executionID, params)
	if runErr != nil {
		msg := runErr.Error()
		_ = h.Executions.UpdateExecution(ctx, executionID, models.StatusFailed, nil, &msg)
		return
	}

	output := models.JSONMap{
		"trend_pipeline_execution_id": result.ExecutionID,
		"total_articles":              result.TotalArticles,
		"total_clusters":              result.TotalClusters,
		"total_outliers":              result.TotalOutliers,
		"total_recommendations":       result.TotalRecs,
		"total_gaps":                  result.TotalGaps,
	}
	status := models.StatusCompleted
	var errMsg *string
	if !result.Success {
		status = models.StatusFailed
		errMsg = &result.Error
	}
	if err := h.Executions.UpdateExecution(ctx, executionID, status, output, errMsg); err != nil {
		h.Log.Error("httpapi", "trend_pipeline_finish_failed", err.Error(), nil)
	}
}

func (h *Handler) listTopics(c *gin.Context) {
	analysisIDParam := c.Query("analysis_id")
	clientDomain := c.Query("client_domain")
	if clientDomain == "" {
		clientDomain = c.Query("domain")
	}

	var analysisID int64
	switch {
	case analysisIDParam != "":
		id, err := strconv.ParseInt(analysisIDParam, 10, 64)
		if err != nil {
			writeError(c, errs.New(errs.KindInputValidation, "invalid analysis_id", err))
			return
		}
		analysisID = id
	case clientDomain != "":
		if !domainvalidate.Valid(clientDomain) {
			writeError(c, errs.New(errs.KindInputValidation, "invalid domain", nil))
			return
		}
		norm, _ := domainvalidate.Normalize(clientDomain)
		latest, err := h.Trend.LatestCompletedForClient(c.Request.Context(), norm)
		if err != nil {
			writeError(c, err)
			return
		}
		if latest == nil {
			writeError(c, errs.New(errs.KindDataShape, "no completed trend analysis for domain", nil))
			return
		}
		analysisID = latest.ID
	default:
		writeError(c, errs.New(errs.KindInputValidation, "analysis_id or client_domain is required", nil))
		return
	}

	clusters, err := h.Trend.ClustersByAnalysis(c.Request.Context(), analysisID)
	if err != nil {
		writeError(c, err)
		return
	}

	type topicWithRecs struct {
		models.TopicCluster
		Recommendations []models.ArticleRecommendation `json:"recommendations"`
	}
	topics := make([]topicWithRecs, 0, len(clusters))
	for _, cluster := range clusters {
		recs, err := h.Trend.RecommendationsByCluster(c.Request.Context(), cluster.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		topics = append(topics, topicWithRecs{TopicCluster: cluster, Recommendations: recs})
	}

	c.JSON(http.StatusOK, gin.H{"analysis_id": analysisID, "topics": topics})
}
