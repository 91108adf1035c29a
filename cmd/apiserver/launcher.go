package main

import (
	"context"

	"github.com/google/uuid"

	"github.com/agenceeditorial/auditengine/internal/audit"
	"github.com/agenceeditorial/auditengine/internal/logging"
	"github.com/agenceeditorial/auditengine/internal/models"
	"github.com/agenceeditorial/auditengine/internal/store/postgres"
	"github.com/agenceeditorial/auditengine/internal/trendpipeline"
)

// workflowLauncher implements audit.ChildLauncher. It owns the boundary
// between the AuditOrchestrator's "what's missing" decision and the
// concrete work that fills each gap. The crawler-backed steps (editorial
// analysis, competitor search, client/competitor scraping) have no
// in-module implementation — spec.md's Non-goals exclude the crawler
// itself — so each records its child execution and marks it completed
// with an empty result, letting the chain advance to the one step this
// module actually performs: the trend pipeline.
type workflowLauncher struct {
	executions *postgres.ExecutionStore
	pipeline   *trendpipeline.Pipeline
	log        *logging.Logger
}

func newWorkflowLauncher(executions *postgres.ExecutionStore, pipeline *trendpipeline.Pipeline, log *logging.Logger) *workflowLauncher {
	return &workflowLauncher{executions: executions, pipeline: pipeline, log: log}
}

// acknowledgeOnly records a child execution for a workflow this deployment
// does not implement and immediately marks it completed with an empty
// output, rather than leaving it pending forever.
func (l *workflowLauncher) acknowledgeOnly(ctx context.Context, workflowType models.WorkflowType, domain string, parentExecutionID uuid.UUID) error {
	exec, err := l.executions.CreateExecution(ctx, workflowType, models.JSONMap{"domain": domain}, &parentExecutionID)
	if err != nil {
		return err
	}
	return l.executions.UpdateExecution(ctx, exec.ExecutionID, models.StatusCompleted, models.JSONMap{"acknowledged": true}, nil)
}

func (l *workflowLauncher) LaunchEditorialAnalysis(ctx context.Context, domain string, parentExecutionID uuid.UUID) error {
	return l.acknowledgeOnly(ctx, models.WorkflowEditorialAnalysis, domain, parentExecutionID)
}

func (l *workflowLauncher) LaunchCompetitorSearch(ctx context.Context, domain string, parentExecutionID uuid.UUID) error {
	return l.acknowledgeOnly(ctx, models.WorkflowCompetitorSearch, domain, parentExecutionID)
}

func (l *workflowLauncher) LaunchClientScraping(ctx context.Context, domain string, parentExecutionID uuid.UUID) error {
	return l.acknowledgeOnly(ctx, models.WorkflowClientScraping, domain, parentExecutionID)
}

func (l *workflowLauncher) LaunchCompetitorScraping(ctx context.Context, domain string, competitorDomains []string, parentExecutionID uuid.UUID) error {
	exec, err := l.executions.CreateExecution(ctx, models.WorkflowScraping, models.JSONMap{
		"domain":  domain,
		"domains": competitorDomains,
	}, &parentExecutionID)
	if err != nil {
		return err
	}
	return l.executions.UpdateExecution(ctx, exec.ExecutionID, models.StatusCompleted, models.JSONMap{"acknowledged": true}, nil)
}

// LaunchTrendPipeline is the one workflow this deployment actually
// performs: it runs the full embeddings -> clustering -> temporal ->
// enrichment -> gap-analysis pipeline synchronously, since the caller
// (AuditOrchestrator.runMissingWorkflowsChain) already runs detached on
// its own goroutine.
func (l *workflowLauncher) LaunchTrendPipeline(ctx context.Context, domain string, competitorDomains []string, parentExecutionID uuid.UUID) error {
	exec, err := l.executions.CreateExecution(ctx, models.WorkflowTrendPipeline, models.JSONMap{
		"domain":  domain,
		"domains": competitorDomains,
	}, &parentExecutionID)
	if err != nil {
		return err
	}
	if uerr := l.executions.UpdateExecution(ctx, exec.ExecutionID, models.StatusRunning, nil, nil); uerr != nil {
		return uerr
	}

	params := trendpipeline.Params{
		Domains:           append([]string{domain}, competitorDomains...),
		ClientDomain:      domain,
		SourceExecutionID: &parentExecutionID,
	}
	result, runErr := l.pipeline.Execute(ctx, exec.ExecutionID, params)
	if runErr != nil {
		msg := runErr.Error()
		_ = l.executions.UpdateExecution(ctx, exec.ExecutionID, models.StatusFailed, nil, &msg)
		return runErr
	}
	output := models.JSONMap{
		"total_articles": result.TotalArticles,
		"total_clusters": result.TotalClusters,
		"total_gaps":     result.TotalGaps,
		"total_recs":     result.TotalRecs,
	}
	status := models.StatusCompleted
	var errMsg *string
	if !result.Success {
		status = models.StatusFailed
		errMsg = &result.Error
	}
	return l.executions.UpdateExecution(ctx, exec.ExecutionID, status, output, errMsg)
}

var _ audit.ChildLauncher = (*workflowLauncher)(nil)
