// @title Editorial Competitive Intelligence API
// @version 1.0.0
// @description Audits a client's editorial output against its competitors:
// @description site profiling, competitor discovery, article scraping
// @description bookkeeping, and the embeddings/clustering/temporal/LLM/gap
// @description trend pipeline, fronted by a single HTTP + websocket API.
// @contact.name Editorial Engineering
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8080
// @BasePath /
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agenceeditorial/auditengine/internal/adminauth"
	"github.com/agenceeditorial/auditengine/internal/audit"
	"github.com/agenceeditorial/auditengine/internal/clustering"
	"github.com/agenceeditorial/auditengine/internal/config"
	"github.com/agenceeditorial/auditengine/internal/embeddings"
	"github.com/agenceeditorial/auditengine/internal/gap"
	"github.com/agenceeditorial/auditengine/internal/httpapi"
	"github.com/agenceeditorial/auditengine/internal/llm"
	"github.com/agenceeditorial/auditengine/internal/logging"
	"github.com/agenceeditorial/auditengine/internal/observability"
	"github.com/agenceeditorial/auditengine/internal/openapidoc"
	"github.com/agenceeditorial/auditengine/internal/store/postgres"
	"github.com/agenceeditorial/auditengine/internal/temporal"
	"github.com/agenceeditorial/auditengine/internal/trendpipeline"
	"github.com/agenceeditorial/auditengine/internal/vectorstore"
	"github.com/agenceeditorial/auditengine/internal/wsstream"
)

func main() {
	log.Println("Starting auditengine API server...")

	// Load .env from whichever of these paths exists, mirroring the
	// teacher's multi-path attempt (cmd/apiserver/main.go) so the binary
	// behaves the same whether run from the module root or a cmd/ dir.
	envPaths := []string{".env", filepath.Join("..", ".env"), filepath.Join(".", "..", "..", ".env")}
	envLoaded := false
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			log.Printf("Loaded environment variables from %s", p)
			envLoaded = true
			break
		}
	}
	if !envLoaded {
		log.Println("No .env file found; continuing with process environment")
	}

	appConfig, err := config.LoadWithEnv("")
	if err != nil {
		log.Printf("Warning: failed to load config, falling back to defaults: %v", err)
		appConfig = config.Defaults()
	}
	log.Println("Configuration loaded with environment overrides.")

	logger := logging.Global

	db, err := postgres.Connect(appConfig.Database.DSN)
	if err != nil {
		log.Fatalf("FATAL: could not connect to PostgreSQL: %v", err)
	}
	defer db.Close()
	if appConfig.Database.MaxConnections > 0 {
		db.SetMaxOpenConns(appConfig.Database.MaxConnections)
	}
	if appConfig.Database.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(appConfig.Database.MaxIdleConnections)
	}
	log.Println("Connected to PostgreSQL.")

	executionStore := postgres.NewExecutionStore(db)
	editorialStore := postgres.NewEditorialStore(db)
	trendStore := postgres.NewTrendStore(db)
	txManager := postgres.NewTransactionManager(db)
	log.Println("PostgreSQL-backed stores initialized.")

	vectorClient := vectorstore.New(appConfig.VectorStore.URL, appConfig.VectorStore.APIKey, appConfig.VectorStore.Timeout)
	fetcher := embeddings.New(vectorClient, embeddings.DefaultConfig(), logger)
	clusterer := clustering.New(clustering.DefaultConfig())
	temporalAnalyzer := temporal.New(temporal.DefaultConfig())
	gapAnalyzer := gap.New(gap.DefaultConfig())
	llmClient := llm.NewClient(appConfig.LLM.BackendURL, appConfig.LLM.Timeout)
	modelOwner := llm.NewModelOwner(2 * time.Second)
	enricher := llm.NewEnricher(llmClient, "llama3", modelOwner, logger)
	log.Println("Trend pipeline stage collaborators initialized.")

	pipelineCfg := trendpipeline.DefaultConfig()
	if appConfig.LLM.Concurrency > 0 {
		pipelineCfg.LLMConcurrent = appConfig.LLM.Concurrency
	}
	pipeline := trendpipeline.New(fetcher, clusterer, temporalAnalyzer, enricher, gapAnalyzer, trendStore, editorialStore, vectorClient, txManager, pipelineCfg, logger)
	log.Println("TrendPipeline assembled.")

	launcher := newWorkflowLauncher(executionStore, pipeline, logger)
	auditCfg := audit.Config{
		MinClientArticles:     appConfig.Audit.MinClientArticles,
		MinCompetitorArticles: appConfig.Audit.MinCompetitorArticles,
	}
	if auditCfg.MinClientArticles == 0 && auditCfg.MinCompetitorArticles == 0 {
		auditCfg = audit.DefaultConfig()
	}
	orchestrator := audit.New(executionStore, editorialStore, trendStore, launcher, auditCfg, logger)
	log.Println("AuditOrchestrator initialized.")

	metrics := observability.NewMetricsCollector(prometheus.DefaultRegisterer)
	if appConfig.Tracing.JaegerEndpoint != "" || appConfig.Tracing.ZipkinEndpoint != "" {
		backend := appConfig.Tracing.JaegerEndpoint
		if backend == "" {
			backend = appConfig.Tracing.ZipkinEndpoint
		}
		serviceName := appConfig.Tracing.ServiceName
		if serviceName == "" {
			serviceName = "auditengine"
		}
		if _, terr := observability.InitTracer(serviceName, backend); terr != nil {
			log.Printf("Warning: failed to initialize tracer: %v", terr)
		} else {
			log.Println("OpenTelemetry tracing initialized.")
		}
	}

	adminChecker := adminauth.NewChecker(appConfig.AdminAuth.APIKeyHash)
	if adminChecker.Enabled() {
		log.Println("Admin auth boundary enabled for mutating endpoints.")
	} else {
		log.Println("Admin auth boundary disabled (no ADMIN_API_KEY_HASH configured).")
	}

	openapiJSON, err := openapidoc.GenerateJSON()
	if err != nil {
		log.Printf("Warning: failed to generate OpenAPI document: %v", err)
		openapiJSON = nil
	}

	streamHandler := wsstream.New(orchestrator, logger)

	handler := &httpapi.Handler{
		Executions:    executionStore,
		Editorial:     editorialStore,
		Trend:         trendStore,
		Audit:         orchestrator,
		Pipeline:      pipeline,
		Metrics:       metrics,
		Log:           logger,
		AdminAuth:     adminChecker,
		OpenAPIJSON:   openapiJSON,
		StreamHandler: streamHandler.Stream,
	}

	ginMode := os.Getenv("GIN_MODE")
	if ginMode != gin.DebugMode && ginMode != gin.TestMode && ginMode != gin.ReleaseMode {
		ginMode = gin.ReleaseMode
	}
	gin.SetMode(ginMode)
	router := httpapi.NewRouter(handler)
	log.Println("Router assembled.")

	port := appConfig.Server.Port
	if port == 0 {
		port = 8080
	}
	readTimeout := appConfig.Server.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := appConfig.Server.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := appConfig.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 15 * time.Second
	}

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()
	log.Printf("Server listening on %s (gin mode: %s)", srv.Addr, ginMode)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited gracefully.")
}
