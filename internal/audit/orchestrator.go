package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agenceeditorial/auditengine/internal/cache"
	"github.com/agenceeditorial/auditengine/internal/domainvalidate"
	"github.com/agenceeditorial/auditengine/internal/errs"
	"github.com/agenceeditorial/auditengine/internal/logging"
	"github.com/agenceeditorial/auditengine/internal/models"
	"github.com/agenceeditorial/auditengine/internal/observability"
	"github.com/agenceeditorial/auditengine/internal/store/postgres"
)

const completedSentinel = "already-completed"

// profileCacheTTL bounds how stale a cached SiteProfile/competitor-list
// lookup can be before the orchestrator falls back to Postgres again — short
// enough that a just-completed scrape/analysis is visible on the next Check.
const profileCacheTTL = 30 * time.Second

// Orchestrator is AuditOrchestrator (C9). It never performs scraping,
// clustering, or LLM work itself — it decides what's missing and delegates
// to a ChildLauncher, then reports on what it launched.
type Orchestrator struct {
	executions *postgres.ExecutionStore
	editorial  *postgres.EditorialStore
	trend      *postgres.TrendStore
	launcher   ChildLauncher
	cfg        Config
	log        *logging.Logger
	cache      *cache.Cache
}

// New constructs an Orchestrator. launcher may be nil, in which case
// Check still derives and records Needs but launches nothing — useful for
// tests and for dry-run status inspection.
func New(executions *postgres.ExecutionStore, editorial *postgres.EditorialStore, trend *postgres.TrendStore, launcher ChildLauncher, cfg Config, log *logging.Logger) *Orchestrator {
	return &Orchestrator{
		executions: executions,
		editorial:  editorial,
		trend:      trend,
		launcher:   launcher,
		cfg:        cfg,
		log:        log,
		cache:      cache.New(profileCacheTTL, time.Minute),
	}
}

// Check is the audit entry point (get_site_audit). It returns exactly one
// of (pending, complete): pending when one or more upstream workflows were
// just launched or are already in flight, complete when the store already
// has everything needed to serve a full audit.
func (o *Orchestrator) Check(ctx context.Context, rawDomain string) (*PendingResult, *CompleteResult, error) {
	if !domainvalidate.Valid(rawDomain) {
		return nil, nil, errs.New(errs.KindInputValidation, "invalid domain", nil)
	}
	domain, err := domainvalidate.Normalize(rawDomain)
	if err != nil {
		return nil, nil, errs.New(errs.KindInputValidation, "invalid domain", err)
	}

	tracer := observability.PipelineTracer()
	ctx, span := tracer.Start(ctx, "audit.check")
	defer span.End()

	profile, err := o.latestSiteProfile(ctx, domain)
	if err != nil {
		return nil, nil, err
	}
	needsAnalysis := profile == nil

	checks := o.runParallelChecks(ctx, domain, profile != nil)

	competitorDomains := deriveCompetitorDomains(checks.competitorsExec)
	needsCompetitors := checks.competitorsExec == nil
	needsTrendPipeline := checks.trendExec == nil

	needsScraping := true
	if len(competitorDomains) > 0 {
		count, cerr := o.editorial.CountArticlesByDomains(ctx, competitorDomains)
		if cerr == nil {
			needsScraping = count < o.cfg.MinCompetitorArticles
		}
	}

	needsClientScraping := true
	clientArticleCount := 0
	if profile != nil {
		clientArticleCount = checks.clientArticleCount
		needsClientScraping = clientArticleCount < o.cfg.MinClientArticles
	}

	needs := Needs{
		Analysis:        needsAnalysis,
		Competitors:      needsCompetitors,
		ClientScraping:   needsClientScraping,
		CompetitorScrap:  needsScraping,
		TrendPipeline:    needsTrendPipeline,
	}

	essentialsPresent := profile != nil && !needsCompetitors && !needsTrendPipeline

	// Both of the original's reuse short-circuits (a terminal orchestrator
	// row present, or simply essentials present with no terminal row)
	// resolve to the same built response, since the terminal row isn't
	// itself part of the built audit — collapsed into one condition here.
	if essentialsPresent {
		complete, err := o.buildComplete(ctx, domain, profile, competitorDomains, clientArticleCount)
		if err != nil {
			return nil, nil, err
		}
		return nil, complete, nil
	}

	if !needs.Any() {
		complete, err := o.buildComplete(ctx, domain, profile, competitorDomains, clientArticleCount)
		if err != nil {
			return nil, nil, err
		}
		return nil, complete, nil
	}

	if inFlight, ferr := o.executions.FindInFlight(ctx, models.WorkflowAuditOrchestrator, domain); ferr == nil && inFlight != nil {
		reused := needsFromJSONMap(inFlight.InputData)
		return &PendingResult{
			Status:        "pending",
			ExecutionID:   inFlight.ExecutionID,
			Message:       "Audit already in progress for this domain",
			WorkflowSteps: reused.WorkflowSteps(),
			DataStatus:    dataStatusFrom(reused),
		}, nil, nil
	}

	exec, err := o.executions.CreateExecution(ctx, models.WorkflowAuditOrchestrator, needs.toJSONMap(domain), nil)
	if err != nil {
		// A concurrent caller may have won the partial-unique-index race
		// between our FindInFlight check and this insert; treat that as
		// the same "already in progress" outcome rather than a fatal error.
		if kind, ok := errs.KindOf(err); ok && kind == errs.KindFatal {
			if inFlight, ferr := o.executions.FindInFlight(ctx, models.WorkflowAuditOrchestrator, domain); ferr == nil && inFlight != nil {
				reused := needsFromJSONMap(inFlight.InputData)
				return &PendingResult{
					Status:        "pending",
					ExecutionID:   inFlight.ExecutionID,
					Message:       "Audit already in progress for this domain",
					WorkflowSteps: reused.WorkflowSteps(),
					DataStatus:    dataStatusFrom(reused),
				}, nil, nil
			}
		}
		return nil, nil, err
	}
	if err := o.executions.UpdateExecution(ctx, exec.ExecutionID, models.StatusRunning, nil, nil); err != nil {
		return nil, nil, err
	}

	if o.launcher != nil {
		go o.runMissingWorkflowsChain(context.Background(), domain, exec.ExecutionID, needs, competitorDomains)
	}

	return &PendingResult{
		Status:        "pending",
		ExecutionID:   exec.ExecutionID,
		Message:       "Some data is missing. Launching required workflows...",
		WorkflowSteps: needs.WorkflowSteps(),
		DataStatus:    dataStatusFrom(needs),
	}, nil, nil
}

type parallelChecks struct {
	competitorsExec     *models.WorkflowExecution
	trendExec           *models.TrendPipelineExecution
	clientArticleCount  int
}

// runParallelChecks mirrors sites_audit.py's
// asyncio.gather(..., return_exceptions=True): each check runs concurrently
// and an isolated failure (panic or error) degrades to "missing" rather
// than aborting the whole audit check.
func (o *Orchestrator) runParallelChecks(ctx context.Context, domain string, haveProfile bool) parallelChecks {
	var wg sync.WaitGroup
	var out parallelChecks

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				o.log.Warn("audit", "prerequisite_check_panic", "competitor search check panicked", map[string]any{"recover": r})
			}
		}()
		exec, err := o.executions.FindLatestCompleted(ctx, models.WorkflowCompetitorSearch, domain)
		if err != nil {
			o.log.Warn("audit", "prerequisite_check_error", "competitor search check failed", map[string]any{"error": err.Error()})
			return
		}
		out.competitorsExec = exec
	}()

	if haveProfile {
		wg.Add(2)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					o.log.Warn("audit", "prerequisite_check_panic", "trend pipeline check panicked", map[string]any{"recover": r})
				}
			}()
			exec, err := o.trend.LatestCompletedForClient(ctx, domain)
			if err != nil {
				o.log.Warn("audit", "prerequisite_check_error", "trend pipeline check failed", map[string]any{"error": err.Error()})
				return
			}
			out.trendExec = exec
		}()
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					o.log.Warn("audit", "prerequisite_check_panic", "client article count check panicked", map[string]any{"recover": r})
				}
			}()
			count, err := o.editorial.CountArticlesByDomain(ctx, domain)
			if err != nil {
				o.log.Warn("audit", "prerequisite_check_error", "client article count check failed", map[string]any{"error": err.Error()})
				return
			}
			out.clientArticleCount = count
		}()
	}

	wg.Wait()
	return out
}

// latestSiteProfile wraps EditorialStore.LatestSiteProfile in the
// orchestrator's in-process cache, cutting a DB round-trip for the common
// case of repeated Check/Status polling against the same domain.
func (o *Orchestrator) latestSiteProfile(ctx context.Context, domain string) (*models.SiteProfile, error) {
	key := "site_profile:" + domain
	if v, ok := o.cache.Get(key); ok {
		if p, ok := v.(*models.SiteProfile); ok {
			return p, nil
		}
	}
	profile, err := o.editorial.LatestSiteProfile(ctx, domain)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		o.cache.Set(key, profile)
	}
	return profile, nil
}

// listCompetitors wraps EditorialStore.ListCompetitors the same way.
func (o *Orchestrator) listCompetitors(ctx context.Context, domain string) ([]models.CompetitorDomain, error) {
	key := "competitors:" + domain
	if v, ok := o.cache.Get(key); ok {
		if cs, ok := v.([]models.CompetitorDomain); ok {
			return cs, nil
		}
	}
	competitors, err := o.editorial.ListCompetitors(ctx, domain)
	if err != nil {
		return nil, err
	}
	o.cache.Set(key, competitors)
	return competitors, nil
}

// deriveCompetitorDomains extracts validated, non-excluded competitor
// domains from a competitor_search execution's output_data, matching
// sites_audit.py's filter: present && !excluded && (validated || manual).
func deriveCompetitorDomains(exec *models.WorkflowExecution) []string {
	if exec == nil {
		return nil
	}
	raw, _ := exec.OutputData["competitors"].([]any)
	var domains []string
	for _, item := range raw {
		c, ok := item.(map[string]any)
		if !ok {
			continue
		}
		domain, _ := c["domain"].(string)
		if domain == "" {
			continue
		}
		excluded, _ := c["excluded"].(bool)
		if excluded {
			continue
		}
		validated, _ := c["validated"].(bool)
		manual, _ := c["manual"].(bool)
		if !validated && !manual {
			continue
		}
		domains = append(domains, domain)
	}
	return domains
}

func (o *Orchestrator) buildComplete(ctx context.Context, domain string, profile *models.SiteProfile, competitorDomains []string, clientArticleCount int) (*CompleteResult, error) {
	competitors, err := o.listCompetitors(ctx, domain)
	if err != nil {
		return nil, err
	}
	competitorArticleCount := 0
	if len(competitorDomains) > 0 {
		if n, err := o.editorial.CountArticlesByDomains(ctx, competitorDomains); err == nil {
			competitorArticleCount = n
		}
	}
	trendExec, err := o.trend.LatestCompletedForClient(ctx, domain)
	if err != nil {
		return nil, err
	}
	roadmap, err := o.trend.RoadmapForClient(ctx, domain)
	if err != nil {
		return nil, err
	}
	return &CompleteResult{
		Status:                 "complete",
		Domain:                 domain,
		Profile:                profile,
		Competitors:            competitors,
		ClientArticleCount:     clientArticleCount,
		CompetitorArticleCount: competitorArticleCount,
		TrendPipeline:          trendExec,
		Roadmap:                roadmap,
	}, nil
}

// RequestCancel sets the cooperative cancel_requested flag on a running
// orchestrator execution. The chain runner polls it between suspension
// points; it does not forcibly interrupt whichever child workflow is
// currently executing.
func (o *Orchestrator) RequestCancel(ctx context.Context, executionID uuid.UUID) error {
	exec, err := o.executions.GetExecution(ctx, executionID)
	if err != nil {
		return err
	}
	if exec.Status.IsTerminal() {
		return errs.New(errs.KindConcurrency, "cannot cancel a terminal execution", nil)
	}
	output := exec.OutputData
	if output == nil {
		output = models.JSONMap{}
	}
	output["cancel_requested"] = true
	return o.executions.UpdateExecution(ctx, executionID, exec.Status, output, exec.ErrorMessage)
}

func (o *Orchestrator) cancelRequested(ctx context.Context, executionID uuid.UUID) bool {
	exec, err := o.executions.GetExecution(ctx, executionID)
	if err != nil {
		return false
	}
	cancel, _ := exec.OutputData["cancel_requested"].(bool)
	return cancel
}

// Status implements get_audit_status, including the "already-completed"
// sentinel: a client that doesn't know an execution id can ask for the
// most recent successful orchestrator run for domain instead.
func (o *Orchestrator) Status(ctx context.Context, rawDomain, executionIDStr string) (*StatusResult, error) {
	if !domainvalidate.Valid(rawDomain) {
		return nil, errs.New(errs.KindInputValidation, "invalid domain", nil)
	}
	domain, err := domainvalidate.Normalize(rawDomain)
	if err != nil {
		return nil, errs.New(errs.KindInputValidation, "invalid domain", err)
	}

	var executionID uuid.UUID
	if executionIDStr == completedSentinel {
		exec, err := o.executions.FindLatestCompleted(ctx, models.WorkflowAuditOrchestrator, domain)
		if err != nil {
			return nil, err
		}
		if exec == nil {
			return nil, errs.New(errs.KindDataShape, "no completed audit for domain", nil)
		}
		executionID = exec.ExecutionID
	} else {
		id, err := uuid.Parse(executionIDStr)
		if err != nil {
			return nil, errs.New(errs.KindInputValidation, "invalid execution id", err)
		}
		executionID = id
	}

	exec, err := o.executions.GetExecution(ctx, executionID)
	if err != nil {
		return nil, err
	}

	needs := needsFromJSONMap(exec.InputData)
	steps := needs.WorkflowSteps()

	children, err := o.executions.ListChildren(ctx, executionID)
	if err != nil {
		return nil, err
	}
	progress := overallProgress(exec.Status, len(steps), children)

	return &StatusResult{
		ExecutionID:     executionID,
		Domain:          domain,
		OverallStatus:   exec.Status,
		OverallProgress: progress,
		WorkflowSteps:   steps,
		ErrorMessage:    exec.ErrorMessage,
		StartTime:       exec.StartTime,
		EndTime:         exec.EndTime,
	}, nil
}

func overallProgress(status models.ExecutionStatus, totalSteps int, children []models.WorkflowExecution) int {
	if status == models.StatusCompleted {
		return 100
	}
	if totalSteps == 0 {
		if status == models.StatusFailed {
			return 100
		}
		return 0
	}
	completed := 0
	for _, c := range children {
		if c.Status == models.StatusCompleted || c.Status == models.StatusFailed {
			completed++
		}
	}
	pct := completed * 100 / totalSteps
	if pct > 99 && status != models.StatusCompleted {
		pct = 99
	}
	return pct
}
