package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agenceeditorial/auditengine/internal/models"
)

// childWorkflowTimeout bounds each step of the chain; spec.md §5 documents
// per-workflow timeouts in this range for the slowest dependency (LLM
// calls), and scraping/DB-bound steps finish well within it.
const childWorkflowTimeout = 90 * time.Second

// runMissingWorkflowsChain dispatches each needed workflow in
// stepOrder, polling the cooperative cancel_requested flag between steps.
// It runs detached from the HTTP request that triggered Check (background
// execution, mirroring the original's background_tasks.add_task), so it
// takes its own context and is responsible for marking the orchestrator
// execution terminal itself.
func (o *Orchestrator) runMissingWorkflowsChain(ctx context.Context, domain string, executionID uuid.UUID, needs Needs, competitorDomains []string) {
	steps := []struct {
		needed bool
		run    func(context.Context) error
	}{
		{needs.Analysis, func(stepCtx context.Context) error {
			return o.launcher.LaunchEditorialAnalysis(stepCtx, domain, executionID)
		}},
		{needs.Competitors, func(stepCtx context.Context) error {
			return o.launcher.LaunchCompetitorSearch(stepCtx, domain, executionID)
		}},
		{needs.ClientScraping, func(stepCtx context.Context) error {
			return o.launcher.LaunchClientScraping(stepCtx, domain, executionID)
		}},
		{needs.CompetitorScrap, func(stepCtx context.Context) error {
			return o.launcher.LaunchCompetitorScraping(stepCtx, domain, competitorDomains, executionID)
		}},
		{needs.TrendPipeline, func(stepCtx context.Context) error {
			return o.launcher.LaunchTrendPipeline(stepCtx, domain, competitorDomains, executionID)
		}},
	}

	for _, step := range steps {
		if !step.needed {
			continue
		}
		if o.cancelRequested(ctx, executionID) {
			o.finishChain(ctx, executionID, false, strPtr("cancelled"))
			return
		}
		stepCtx, cancel := context.WithTimeout(ctx, childWorkflowTimeout)
		err := step.run(stepCtx)
		cancel()
		if err != nil {
			o.log.Error("audit", "child_workflow_failed", "chained workflow failed", map[string]any{
				"execution_id": executionID.String(),
				"domain":       domain,
				"error":        err.Error(),
			})
			msg := err.Error()
			o.finishChain(ctx, executionID, false, &msg)
			return
		}
	}
	o.finishChain(ctx, executionID, true, nil)
}

func (o *Orchestrator) finishChain(ctx context.Context, executionID uuid.UUID, success bool, errMsg *string) {
	status := models.StatusCompleted
	if !success {
		status = models.StatusFailed
	}
	exec, err := o.executions.GetExecution(ctx, executionID)
	output := models.JSONMap{}
	if err == nil && exec.OutputData != nil {
		output = exec.OutputData
	}
	if err := o.executions.UpdateExecution(ctx, executionID, status, output, errMsg); err != nil {
		o.log.Error("audit", "finish_chain_update_failed", "failed to record chain completion", map[string]any{
			"execution_id": executionID.String(),
			"error":        err.Error(),
		})
	}
}

func strPtr(s string) *string { return &s }
