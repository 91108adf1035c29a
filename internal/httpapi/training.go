package httpapi

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/agenceeditorial/auditengine/internal/domainvalidate"
	"github.com/agenceeditorial/auditengine/internal/errs"
)

// analyzeArticlePatternsRequest is the body of POST /articles/training/analyze.
type analyzeArticlePatternsRequest struct {
	Domain   string `json:"domain" binding:"required"`
	TopCount int    `json:"top_count" binding:"omitempty,min=1"`
}

// keywordPattern is one entry of the frequency-ranked keyword patterns this
// endpoint surfaces.
type keywordPattern struct {
	Keyword        string  `json:"keyword"`
	Weight         float64 `json:"weight"`
	ArticlesPresent int    `json:"articles_present"`
}

// analyzeArticlePatterns mines keyword-frequency patterns across a domain's
// already-ingested articles. The original's article training/learning
// feature (quality scoring, generation plans, feedback loops) has no
// corresponding model in this module; this endpoint is a narrower analog
// that surfaces recurring keyword patterns from existing Article rows
// instead of porting that unmodeled subsystem.
func (h *Handler) analyzeArticlePatterns(c *gin.Context) {
	var req analyzeArticlePatternsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.New(errs.KindInputValidation, "invalid request body", err))
		return
	}
	if !domainvalidate.Valid(req.Domain) {
		writeError(c, errs.New(errs.KindInputValidation, "invalid domain", nil))
		return
	}
	norm, _ := domainvalidate.Normalize(req.Domain)
	topCount := req.TopCount
	if topCount == 0 {
		topCount = 20
	}

	articles, err := h.Editorial.ArticlesByDomain(c.Request.Context(), norm)
	if err != nil {
		writeError(c, err)
		return
	}

	weights := make(map[string]float64)
	presence := make(map[string]int)
	for _, article := range articles {
		for keyword, value := range article.Keywords {
			weights[keyword] += keywordWeight(value)
			presence[keyword]++
		}
	}

	patterns := make([]keywordPattern, 0, len(weights))
	for keyword, weight := range weights {
		patterns = append(patterns, keywordPattern{
			Keyword:         keyword,
			Weight:          weight,
			ArticlesPresent: presence[keyword],
		})
	}
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Weight != patterns[j].Weight {
			return patterns[i].Weight > patterns[j].Weight
		}
		return patterns[i].Keyword < patterns[j].Keyword
	})
	if len(patterns) > topCount {
		patterns = patterns[:topCount]
	}

	c.JSON(http.StatusOK, gin.H{
		"domain":            norm,
		"articles_analyzed": len(articles),
		"patterns":          patterns,
	})
}

// keywordWeight normalizes a jsonb keyword value (typically a numeric
// relevance score, occasionally missing or non-numeric) to a float weight.
func keywordWeight(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 1
	}
}
