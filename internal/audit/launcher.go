package audit

import (
	"context"

	"github.com/google/uuid"
)

// ChildLauncher dispatches the individual workflows AuditOrchestrator can
// decide are missing. Each method is expected to create its own
// WorkflowExecution row (with ParentExecutionID set to the orchestrator's
// execution id) and run to completion or failure; the orchestrator only
// cares whether the call returned an error. Implementations live alongside
// the httpapi/cmd wiring, keeping this package free of a dependency on the
// concrete scraping/embedding/LLM clients.
type ChildLauncher interface {
	LaunchEditorialAnalysis(ctx context.Context, domain string, parentExecutionID uuid.UUID) error
	LaunchCompetitorSearch(ctx context.Context, domain string, parentExecutionID uuid.UUID) error
	LaunchClientScraping(ctx context.Context, domain string, parentExecutionID uuid.UUID) error
	LaunchCompetitorScraping(ctx context.Context, domain string, competitorDomains []string, parentExecutionID uuid.UUID) error
	LaunchTrendPipeline(ctx context.Context, domain string, competitorDomains []string, parentExecutionID uuid.UUID) error
}
