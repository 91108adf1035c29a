package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agenceeditorial/auditengine/internal/domainvalidate"
	"github.com/agenceeditorial/auditengine/internal/errs"
	"github.com/agenceeditorial/auditengine/internal/models"
)

// analyzeSiteRequest is the body of POST /sites/analyze.
type analyzeSiteRequest struct {
	Domain   string `json:"domain" binding:"required"`
	MaxPages int    `json:"max_pages" binding:"omitempty,min=1"`
}

// analyzeSite records the request to profile domain's editorial style and
// returns immediately; the crawling/LLM-profiling work itself is out of
// scope here (spec.md's crawler non-goal) — this endpoint's contract is
// the acknowledge-and-queue shape every Editorial Analysis workflow shares.
func (h *Handler) analyzeSite(c *gin.Context) {
	var req analyzeSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.New(errs.KindInputValidation, "invalid request body", err))
		return
	}
	if !domainvalidate.Valid(req.Domain) {
		writeError(c, errs.New(errs.KindInputValidation, "invalid domain", nil))
		return
	}
	domain, _ := domainvalidate.Normalize(req.Domain)
	input := models.JSONMap{"domain": domain, "max_pages": req.MaxPages}
	exec, err := h.Executions.CreateExecution(c.Request.Context(), models.WorkflowEditorialAnalysis, input, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"execution_id": exec.ExecutionID,
		"status":       exec.Status,
		"start_time":   time.Now().UTC(),
	})
}

func (h *Handler) getSiteProfile(c *gin.Context) {
	domain := c.Param("domain")
	if !domainvalidate.Valid(domain) {
		writeError(c, errs.New(errs.KindInputValidation, "invalid domain", nil))
		return
	}
	norm, _ := domainvalidate.Normalize(domain)
	profile, err := h.Editorial.LatestSiteProfile(c.Request.Context(), norm)
	if err != nil {
		writeError(c, err)
		return
	}
	if profile == nil {
		writeError(c, errs.New(errs.KindDataShape, "no profile for domain", nil))
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) getSiteHistory(c *gin.Context) {
	domain := c.Param("domain")
	if !domainvalidate.Valid(domain) {
		writeError(c, errs.New(errs.KindInputValidation, "invalid domain", nil))
		return
	}
	norm, _ := domainvalidate.Normalize(domain)
	history, err := h.Editorial.SiteProfileHistory(c.Request.Context(), norm)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"domain":             norm,
		"profiles":           history,
		"metric_comparisons": compareProfiles(history),
	})
}

// profileComparison reports how pages_analyzed/keyword count changed
// between consecutive profiles, newest-first, matching the original's
// metric_comparisons shape without depending on a dedicated diff service.
type profileComparison struct {
	FromDate          time.Time `json:"from_date"`
	ToDate            time.Time `json:"to_date"`
	PagesAnalyzedDiff int       `json:"pages_analyzed_diff"`
	KeywordCountDiff  int       `json:"keyword_count_diff"`
}

func compareProfiles(history []models.SiteProfile) []profileComparison {
	var comparisons []profileComparison
	for i := 0; i+1 < len(history); i++ {
		newer, older := history[i], history[i+1]
		comparisons = append(comparisons, profileComparison{
			FromDate:          older.AnalysisDate,
			ToDate:            newer.AnalysisDate,
			PagesAnalyzedDiff: newer.PagesAnalyzed - older.PagesAnalyzed,
			KeywordCountDiff:  len(newer.Keywords) - len(older.Keywords),
		})
	}
	return comparisons
}

func (h *Handler) getSiteAudit(c *gin.Context) {
	domain := c.Param("domain")
	pending, complete, err := h.Audit.Check(c.Request.Context(), domain)
	if err != nil {
		writeError(c, err)
		return
	}
	if pending != nil {
		c.JSON(http.StatusOK, pending)
		return
	}
	c.JSON(http.StatusOK, complete)
}

func (h *Handler) getAuditStatus(c *gin.Context) {
	domain := c.Param("domain")
	executionID := c.Param("execution_id")
	status, err := h.Audit.Status(c.Request.Context(), domain, executionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
