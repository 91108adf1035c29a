package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/agenceeditorial/auditengine/internal/errs"
	"github.com/agenceeditorial/auditengine/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(method, path string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, recorder
}

func TestClassifyMapsEveryKindToAStatus(t *testing.T) {
	cases := []struct {
		kind   errs.Kind
		status int
	}{
		{errs.KindInputValidation, http.StatusBadRequest},
		{errs.KindMissingPrerequisite, http.StatusFailedDependency},
		{errs.KindTransientExternal, http.StatusBadGateway},
		{errs.KindPermanentExternal, http.StatusBadGateway},
		{errs.KindDataShape, http.StatusNotFound},
		{errs.KindConcurrency, http.StatusConflict},
		{errs.KindFatal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		_, status, _ := classify(errs.New(tc.kind, "op", nil))
		assert.Equal(t, tc.status, status, "kind %s", tc.kind)
	}
}

func TestClassifyDefaultsUnwrappedErrorsToInternalError(t *testing.T) {
	kind, status, msg := classify(assert.AnError)
	assert.Equal(t, "internal_error", kind)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, assert.AnError.Error(), msg)
}

func TestCompareProfilesDiffsConsecutiveNewestFirst(t *testing.T) {
	older := models.SiteProfile{AnalysisDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), PagesAnalyzed: 10, Keywords: models.JSONMap{"a": 1.0}}
	newer := models.SiteProfile{AnalysisDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), PagesAnalyzed: 15, Keywords: models.JSONMap{"a": 1.0, "b": 2.0}}
	comparisons := compareProfiles([]models.SiteProfile{newer, older})
	if assert.Len(t, comparisons, 1) {
		assert.Equal(t, 5, comparisons[0].PagesAnalyzedDiff)
		assert.Equal(t, 1, comparisons[0].KeywordCountDiff)
		assert.Equal(t, older.AnalysisDate, comparisons[0].FromDate)
		assert.Equal(t, newer.AnalysisDate, comparisons[0].ToDate)
	}
}

func TestCompareProfilesEmptyOrSingleYieldsNoComparisons(t *testing.T) {
	assert.Empty(t, compareProfiles(nil))
	assert.Empty(t, compareProfiles([]models.SiteProfile{{}}))
}

func TestKeywordWeightNormalizesNumericTypes(t *testing.T) {
	assert.Equal(t, 2.5, keywordWeight(2.5))
	assert.Equal(t, float64(3), keywordWeight(3))
	assert.Equal(t, float64(3), keywordWeight(int64(3)))
	assert.Equal(t, float64(1), keywordWeight("unexpected string"))
}

func TestAnalyzeSiteRejectsInvalidDomain(t *testing.T) {
	h := &Handler{}
	c, w := newTestContext(http.MethodPost, "/sites/analyze", analyzeSiteRequest{Domain: "not a domain"})
	h.analyzeSite(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeSiteRejectsMissingBody(t *testing.T) {
	h := &Handler{}
	c, w := newTestContext(http.MethodPost, "/sites/analyze", nil)
	h.analyzeSite(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSiteProfileRejectsInvalidDomain(t *testing.T) {
	h := &Handler{}
	c, w := newTestContext(http.MethodGet, "/sites/not_a_domain", nil)
	c.Params = gin.Params{{Key: "domain", Value: "not_a_domain"}}
	h.getSiteProfile(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchCompetitorsRejectsOutOfRangeMaxCompetitors(t *testing.T) {
	h := &Handler{}
	c, w := newTestContext(http.MethodPost, "/competitors/search", searchCompetitorsRequest{Domain: "example.com", MaxCompetitors: 1})
	h.searchCompetitors(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateCompetitorRejectsInvalidCompetitorDomain(t *testing.T) {
	h := &Handler{}
	c, w := newTestContext(http.MethodPost, "/competitors/example.com/validate", validateCompetitorRequest{Domain: "???", Validated: true})
	c.Params = gin.Params{{Key: "domain", Value: "example.com"}}
	h.validateCompetitor(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScrapeRequiresClientDomainOrDomains(t *testing.T) {
	h := &Handler{}
	c, w := newTestContext(http.MethodPost, "/scraping/scrape", scrapeRequest{MaxArticlesPerDomain: 5})
	h.scrape(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScrapeRejectsInvalidDomainInList(t *testing.T) {
	h := &Handler{}
	c, w := newTestContext(http.MethodPost, "/scraping/scrape", scrapeRequest{Domains: []string{"ok.com", "not a domain"}})
	h.scrape(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeTrendsRequiresAtLeastOneDomain(t *testing.T) {
	h := &Handler{}
	c, w := newTestContext(http.MethodPost, "/trends/analyze", analyzeTrendsRequest{ClientDomain: "example.com"})
	h.analyzeTrends(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTopicsRequiresAnalysisIDOrClientDomain(t *testing.T) {
	h := &Handler{}
	c, w := newTestContext(http.MethodGet, "/trends/topics", nil)
	h.listTopics(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTopicsRejectsMalformedAnalysisID(t *testing.T) {
	h := &Handler{}
	c, w := newTestContext(http.MethodGet, "/trends/topics?analysis_id=not-a-number", nil)
	h.listTopics(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetExecutionRejectsMalformedUUID(t *testing.T) {
	h := &Handler{}
	c, w := newTestContext(http.MethodGet, "/executions/not-a-uuid", nil)
	c.Params = gin.Params{{Key: "execution_id", Value: "not-a-uuid"}}
	h.getExecution(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeArticlePatternsRejectsInvalidDomain(t *testing.T) {
	h := &Handler{}
	c, w := newTestContext(http.MethodPost, "/articles/training/analyze", analyzeArticlePatternsRequest{Domain: "nope"})
	h.analyzeArticlePatterns(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
