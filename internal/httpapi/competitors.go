package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agenceeditorial/auditengine/internal/domainvalidate"
	"github.com/agenceeditorial/auditengine/internal/errs"
	"github.com/agenceeditorial/auditengine/internal/models"
)

type searchCompetitorsRequest struct {
	Domain         string `json:"domain" binding:"required"`
	MaxCompetitors int    `json:"max_competitors" binding:"required,min=3,max=100"`
}

func (h *Handler) searchCompetitors(c *gin.Context) {
	var req searchCompetitorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.New(errs.KindInputValidation, "invalid request body", err))
		return
	}
	if !domainvalidate.Valid(req.Domain) {
		writeError(c, errs.New(errs.KindInputValidation, "invalid domain", nil))
		return
	}
	domain, _ := domainvalidate.Normalize(req.Domain)
	input := models.JSONMap{"domain": domain, "max_competitors": req.MaxCompetitors}
	exec, err := h.Executions.CreateExecution(c.Request.Context(), models.WorkflowCompetitorSearch, input, nil)
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

func (h *Handler) listCompetitors(c *gin.Context) {
	domain := c.Param("domain")
	if !domainvalidate.Valid(domain) {
		writeError(c, errs.New(errs.KindInputValidation, "invalid domain", nil))
		return
	}
	norm, _ := domainvalidate.Normalize(domain)
	competitors, err := h.Editorial.ListCompetitors(c.Request.Context(), norm)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"domain": norm, "competitors": competitors})
}

// validateCompetitorRequest is a manual override of a competitor's
// validation flags, matching the original's manual-confirm/exclude action.
type validateCompetitorRequest struct {
	Domain    string `json:"domain" binding:"required"`
	Validated bool   `json:"validated"`
	Excluded  bool   `json:"excluded"`
	Manual    bool   `json:"manual"`
}

func (h *Handler) validateCompetitor(c *gin.Context) {
	clientDomain := c.Param("domain")
	if !domainvalidate.Valid(clientDomain) {
		writeError(c, errs.New(errs.KindInputValidation, "invalid domain", nil))
		return
	}
	norm, _ := domainvalidate.Normalize(clientDomain)

	var req validateCompetitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.New(errs.KindInputValidation, "invalid request body", err))
		return
	}
	if !domainvalidate.Valid(req.Domain) {
		writeError(c, errs.New(errs.KindInputValidation, "invalid competitor domain", nil))
		return
	}
	competitorDomain, _ := domainvalidate.Normalize(req.Domain)

	now := time.Now().UTC()
	competitor := &models.CompetitorDomain{
		ClientDomain:   norm,
		Domain:         competitorDomain,
		Validated:      req.Validated,
		Excluded:       req.Excluded,
		Manual:         req.Manual,
		ValidationDate: &now,
	}
	if err := h.Editorial.UpsertCompetitorDomain(c.Request.Context(), competitor); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, competitor)
}
