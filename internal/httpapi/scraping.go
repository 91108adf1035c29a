package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agenceeditorial/auditengine/internal/domainvalidate"
	"github.com/agenceeditorial/auditengine/internal/errs"
	"github.com/agenceeditorial/auditengine/internal/models"
)

// scrapeRequest covers both the client-scraping and competitor-scraping
// shapes the original exposes on one route: a caller passing ClientDomain
// alone gets WorkflowClientScraping, one passing Domains gets the broader
// WorkflowScraping sweep.
type scrapeRequest struct {
	ClientDomain         string   `json:"client_domain"`
	Domains              []string `json:"domains"`
	MaxArticlesPerDomain int      `json:"max_articles_per_domain" binding:"omitempty,min=1"`
}

// scrape records a request to crawl and ingest articles for one or more
// domains and returns immediately — the crawler itself is out of scope
// here, matching analyzeSite's acknowledge-and-queue contract.
func (h *Handler) scrape(c *gin.Context) {
	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.New(errs.KindInputValidation, "invalid request body", err))
		return
	}

	workflowType := models.WorkflowScraping
	input := models.JSONMap{"max_articles_per_domain": req.MaxArticlesPerDomain}

	switch {
	case req.ClientDomain != "":
		if !domainvalidate.Valid(req.ClientDomain) {
			writeError(c, errs.New(errs.KindInputValidation, "invalid client_domain", nil))
			return
		}
		domain, _ := domainvalidate.Normalize(req.ClientDomain)
		workflowType = models.WorkflowClientScraping
		input["domain"] = domain
	case len(req.Domains) > 0:
		domains := make([]string, 0, len(req.Domains))
		for _, d := range req.Domains {
			if !domainvalidate.Valid(d) {
				writeError(c, errs.New(errs.KindInputValidation, "invalid domain in domains", nil))
				return
			}
			norm, _ := domainvalidate.Normalize(d)
			domains = append(domains, norm)
		}
		input["domains"] = domains
		input["domain"] = domains[0]
	default:
		writeError(c, errs.New(errs.KindInputValidation, "either client_domain or domains is required", nil))
		return
	}

	exec, err := h.Executions.CreateExecution(c.Request.Context(), workflowType, input, nil)
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
