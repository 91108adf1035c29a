package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/agenceeditorial/auditengine/internal/adminauth"
	"github.com/agenceeditorial/auditengine/internal/audit"
	"github.com/agenceeditorial/auditengine/internal/logging"
	"github.com/agenceeditorial/auditengine/internal/middleware"
	"github.com/agenceeditorial/auditengine/internal/observability"
	"github.com/agenceeditorial/auditengine/internal/store/postgres"
	"github.com/agenceeditorial/auditengine/internal/trendpipeline"
)

// Handler holds every dependency the route functions need, grounded on the
// teacher's APIHandler dependency-bag idiom (internal/api/handler_base.go).
type Handler struct {
	Executions *postgres.ExecutionStore
	Editorial  *postgres.EditorialStore
	Trend      *postgres.TrendStore
	Audit      *audit.Orchestrator
	Pipeline   *trendpipeline.Pipeline
	Metrics    *observability.MetricsCollector
	Log        *logging.Logger

	// AdminAuth gates mutating endpoints behind the static admin key
	// when configured. A nil/disabled Checker leaves mutations open,
	// matching local-development deployments that set no admin key.
	AdminAuth *adminauth.Checker

	// OpenAPIJSON and StreamHandler are injected by cmd/apiserver, which
	// owns the openapidoc/wsstream packages, to keep this package free of
	// a direct dependency on either.
	OpenAPIJSON   []byte
	StreamHandler gin.HandlerFunc
}

// requireAdmin wraps handlers that mutate state with the admin-key check,
// when an admin auth boundary is actually configured.
func (h *Handler) requireAdmin(handler gin.HandlerFunc) gin.HandlerFunc {
	if h.AdminAuth == nil || !h.AdminAuth.Enabled() {
		return handler
	}
	guard := middleware.AdminAuth(h.AdminAuth)
	return func(c *gin.Context) {
		guard(c)
		if c.IsAborted() {
			return
		}
		handler(c)
	}
}

// NewRouter builds the full gin.Engine: middleware stack, then every route
// in spec.md §6's table plus the SPEC_FULL.md additions (metrics, openapi,
// websocket streaming).
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogging(h.Log), middleware.Recovery(h.Log), middleware.CORS())
	if h.Metrics != nil {
		metrics := h.Metrics
		r.Use(func(c *gin.Context) {
			metrics.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				c.Next()
			})).ServeHTTP(c.Writer, c.Request)
		})
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}
	r.GET("/openapi.json", func(c *gin.Context) {
		if h.OpenAPIJSON == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": errorEnvelope{Kind: "data_shape", Message: "openapi document unavailable"}})
			return
		}
		c.Data(http.StatusOK, "application/json", h.OpenAPIJSON)
	})
	// Swagger UI reads the served document directly rather than a
	// swag-generated docs package — this module has no swag doc-comments
	// to parse (see DESIGN.md's internal/openapidoc entry).
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/openapi.json")))

	sites := r.Group("/sites")
	{
		sites.POST("/analyze", h.requireAdmin(h.analyzeSite))
		sites.GET("/:domain", h.getSiteProfile)
		sites.GET("/:domain/history", h.getSiteHistory)
		sites.GET("/:domain/audit", h.getSiteAudit)
		sites.GET("/:domain/audit/status/:execution_id", h.getAuditStatus)
		if h.StreamHandler != nil {
			sites.GET("/:domain/audit/status/:execution_id/stream", h.StreamHandler)
		}
	}

	competitors := r.Group("/competitors")
	{
		competitors.POST("/search", h.requireAdmin(h.searchCompetitors))
		competitors.GET("/:domain", h.listCompetitors)
		competitors.POST("/:domain/validate", h.requireAdmin(h.validateCompetitor))
	}

	r.POST("/scraping/scrape", h.requireAdmin(h.scrape))

	trends := r.Group("/trends")
	{
		trends.POST("/analyze", h.requireAdmin(h.analyzeTrends))
		trends.GET("/topics", h.listTopics)
	}

	r.POST("/articles/training/analyze", h.requireAdmin(h.analyzeArticlePatterns))
	r.GET("/executions/:execution_id", h.getExecution)

	return r
}
