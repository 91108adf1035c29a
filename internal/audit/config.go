// Package audit implements AuditOrchestrator (C9): the entry point that,
// given a client domain, determines which upstream workflows still need to
// run before a full competitive audit can be served, launches whichever are
// missing, and reports on their progress. Grounded line-for-line on
// original_source/.../api/routers/sites_audit.py's get_site_audit and
// get_audit_status handlers, recast as a Go orchestrator in the style of
// the teacher's internal/application/orchestrator.go (typed ClassifiedError
// results, typed-error kind used for upstream HTTP status mapping) and
// internal/state/campaign_state_machine.go (explicit terminal-state
// handling).
package audit

// Config holds the sufficiency thresholds that decide whether already-
// scraped content counts as "enough" to skip a scraping workflow.
type Config struct {
	MinClientArticles     int
	MinCompetitorArticles int
}

// DefaultConfig returns the documented defaults (spec.md §4.9): 5 client
// articles, 10 competitor articles.
func DefaultConfig() Config {
	return Config{
		MinClientArticles:     5,
		MinCompetitorArticles: 10,
	}
}
