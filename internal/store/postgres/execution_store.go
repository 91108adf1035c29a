package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/agenceeditorial/auditengine/internal/errs"
	"github.com/agenceeditorial/auditengine/internal/models"
)

// ExecutionStore persists WorkflowExecution rows and the audit/performance
// records attached to a run, grounded on the teacher's audit_log_store.go
// NamedExecContext idiom.
type ExecutionStore struct {
	db *sqlx.DB
}

// NewExecutionStore constructs an ExecutionStore.
func NewExecutionStore(db *sqlx.DB) *ExecutionStore {
	return &ExecutionStore{db: db}
}

// CreateExecution inserts a new WorkflowExecution in pending status.
func (s *ExecutionStore) CreateExecution(ctx context.Context, workflowType models.WorkflowType, input models.JSONMap, parentID *uuid.UUID) (*models.WorkflowExecution, error) {
	exec := &models.WorkflowExecution{
		ExecutionID:       uuid.New(),
		WorkflowType:      workflowType,
		Status:            models.StatusPending,
		InputData:         sanitizeJSON(input),
		ParentExecutionID: parentID,
		IsValid:           true,
		CreatedAt:         time.Now().UTC(),
	}
	const q = `INSERT INTO workflow_executions
		(execution_id, workflow_type, status, input_data, parent_execution_id, is_valid, created_at)
		VALUES (:execution_id, :workflow_type, :status, :input_data, :parent_execution_id, :is_valid, :created_at)`
	if _, err := s.db.NamedExecContext(ctx, q, exec); err != nil {
		return nil, errs.New(errs.KindFatal, "create execution", err)
	}
	return exec, nil
}

// GetExecution fetches one execution by id.
func (s *ExecutionStore) GetExecution(ctx context.Context, id uuid.UUID) (*models.WorkflowExecution, error) {
	var exec models.WorkflowExecution
	const q = `SELECT * FROM workflow_executions WHERE execution_id = $1`
	if err := s.db.GetContext(ctx, &exec, q, id); err != nil {
		return nil, errs.New(errs.KindDataShape, "execution not found", err)
	}
	return &exec, nil
}

// FindLatest returns the most recent execution of workflowType whose
// input_data->>'domain' equals domain, or nil if none exists.
func (s *ExecutionStore) FindLatest(ctx context.Context, workflowType models.WorkflowType, domain string) (*models.WorkflowExecution, error) {
	var exec models.WorkflowExecution
	const q = `SELECT * FROM workflow_executions
		WHERE workflow_type = $1 AND input_data->>'domain' = $2
		ORDER BY created_at DESC LIMIT 1`
	if err := s.db.GetContext(ctx, &exec, q, workflowType, domain); err != nil {
		return nil, nil
	}
	return &exec, nil
}

// FindInFlight returns a pending/running execution for (workflowType,
// domain) if one exists — the fast-path half of the launch-gate dedup; the
// real guarantee is the partial unique index in migrations.
func (s *ExecutionStore) FindInFlight(ctx context.Context, workflowType models.WorkflowType, domain string) (*models.WorkflowExecution, error) {
	var exec models.WorkflowExecution
	const q = `SELECT * FROM workflow_executions
		WHERE workflow_type = $1 AND input_data->>'domain' = $2
		AND status IN ('pending', 'running')
		ORDER BY created_at DESC LIMIT 1`
	if err := s.db.GetContext(ctx, &exec, q, workflowType, domain); err != nil {
		return nil, nil
	}
	return &exec, nil
}

// FindLatestCompleted returns the most recent successfully-completed
// execution of workflowType for domain, or nil if none exists — used by
// AuditOrchestrator's prerequisite checks, which only trust terminal,
// successful runs of a dependency workflow.
func (s *ExecutionStore) FindLatestCompleted(ctx context.Context, workflowType models.WorkflowType, domain string) (*models.WorkflowExecution, error) {
	var exec models.WorkflowExecution
	const q = `SELECT * FROM workflow_executions
		WHERE workflow_type = $1 AND input_data->>'domain' = $2
		AND status = $3 AND was_success = TRUE
		ORDER BY created_at DESC LIMIT 1`
	if err := s.db.GetContext(ctx, &exec, q, workflowType, domain, models.StatusCompleted); err != nil {
		return nil, nil
	}
	return &exec, nil
}

// FindLatestTerminal returns the most recent terminal (completed or failed)
// execution of workflowType for domain, used by the audit reuse
// short-circuit that needs "was there already a finished orchestrator run".
func (s *ExecutionStore) FindLatestTerminal(ctx context.Context, workflowType models.WorkflowType, domain string) (*models.WorkflowExecution, error) {
	var exec models.WorkflowExecution
	const q = `SELECT * FROM workflow_executions
		WHERE workflow_type = $1 AND input_data->>'domain' = $2
		AND status IN ('completed', 'failed')
		ORDER BY end_time DESC LIMIT 1`
	if err := s.db.GetContext(ctx, &exec, q, workflowType, domain); err != nil {
		return nil, nil
	}
	return &exec, nil
}

// ListChildren returns every execution chained off parentID, oldest first —
// used by AuditOrchestrator's status endpoint to compute overall progress
// across the workflows it launched.
func (s *ExecutionStore) ListChildren(ctx context.Context, parentID uuid.UUID) ([]models.WorkflowExecution, error) {
	var execs []models.WorkflowExecution
	const q = `SELECT * FROM workflow_executions WHERE parent_execution_id = $1 ORDER BY created_at ASC`
	if err := s.db.SelectContext(ctx, &execs, q, parentID); err != nil {
		return nil, errs.New(errs.KindFatal, "list child executions", err)
	}
	return execs, nil
}

// UpdateExecution transitions status/output, stamping start_time on the
// pending->running edge and end_time on any transition into a terminal
// state, plus duration_seconds when a start_time was recorded. It refuses to overwrite an already-terminal
// execution to stay safe under concurrent writers.
func (s *ExecutionStore) UpdateExecution(ctx context.Context, id uuid.UUID, status models.ExecutionStatus, output models.JSONMap, errMsg *string) error {
	now := time.Now().UTC()
	output = sanitizeJSON(output)

	current, err := s.GetExecution(ctx, id)
	if err != nil {
		return err
	}
	if current.Status.IsTerminal() {
		return errs.New(errs.KindConcurrency, "cannot update a terminal execution", nil)
	}

	args := map[string]any{
		"execution_id": id,
		"status":       status,
		"output_data":  output,
		"error_message": errMsg,
	}

	setClauses := "status = :status, output_data = :output_data, error_message = :error_message"
	if current.Status == models.StatusPending && status == models.StatusRunning {
		args["start_time"] = now
		setClauses += ", start_time = :start_time"
	}
	if status.IsTerminal() {
		args["end_time"] = now
		setClauses += ", end_time = :end_time"
		if current.StartTime != nil {
			dur := int(now.Sub(*current.StartTime).Seconds())
			args["duration_seconds"] = dur
			setClauses += ", duration_seconds = :duration_seconds"
		}
		success := status == models.StatusCompleted
		args["was_success"] = success
		setClauses += ", was_success = :was_success"
	}

	q := fmt.Sprintf("UPDATE workflow_executions SET %s WHERE execution_id = :execution_id", setClauses)
	if _, err := s.db.NamedExecContext(ctx, q, args); err != nil {
		if isRetryableConnErr(err) {
			return errs.New(errs.KindTransientExternal, "update execution (transient)", err)
		}
		return errs.New(errs.KindFatal, "update execution", err)
	}
	return nil
}

// AppendAuditLog inserts an AuditLog row for execution (id is DB-assigned).
func (s *ExecutionStore) AppendAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}
	const q = `INSERT INTO audit_logs
		(execution_id, action, agent_name, step_name, status, message, details, error_traceback, timestamp)
		VALUES (:execution_id, :action, :agent_name, :step_name, :status, :message, :details, :error_traceback, :timestamp)`
	_, err := s.db.NamedExecContext(ctx, q, log)
	return err
}

// CreatePerformanceMetric inserts a single metric sample (id is DB-assigned).
func (s *ExecutionStore) CreatePerformanceMetric(ctx context.Context, m *models.PerformanceMetric) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO performance_metrics
		(execution_id, agent_name, metric_type, metric_value, metric_unit, additional_data, created_at)
		VALUES (:execution_id, :agent_name, :metric_type, :metric_value, :metric_unit, :additional_data, :created_at)`
	_, err := s.db.NamedExecContext(ctx, q, m)
	return err
}

// CreatePerformanceMetricBatch inserts many metrics in one transaction.
func (s *ExecutionStore) CreatePerformanceMetricBatch(ctx context.Context, tm *TransactionManager, ms []*models.PerformanceMetric) error {
	return tm.SafeTransaction(ctx, "create_performance_metric_batch", func(tx *sqlx.Tx) error {
		const q = `INSERT INTO performance_metrics
			(execution_id, agent_name, metric_type, metric_value, metric_unit, additional_data, created_at)
			VALUES (:execution_id, :agent_name, :metric_type, :metric_value, :metric_unit, :additional_data, :created_at)`
		for _, m := range ms {
			if m.CreatedAt.IsZero() {
				m.CreatedAt = time.Now().UTC()
			}
			if _, err := tx.NamedExecContext(ctx, q, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetMetricsSummary aggregates total/count/average for metricType across
// execution, alongside the raw per-sample values.
func (s *ExecutionStore) GetMetricsSummary(ctx context.Context, executionID uuid.UUID, metricType string) (*models.MetricSummary, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT metric_value, agent_name, created_at, metric_unit
		FROM performance_metrics WHERE execution_id = $1 AND metric_type = $2
		ORDER BY created_at ASC`, executionID, metricType)
	if err != nil {
		return nil, errs.New(errs.KindFatal, "metrics summary", err)
	}
	defer rows.Close()

	summary := &models.MetricSummary{}
	for rows.Next() {
		var value float64
		var agent string
		var ts time.Time
		var unit *string
		if err := rows.Scan(&value, &agent, &ts, &unit); err != nil {
			return nil, errs.New(errs.KindFatal, "metrics summary scan", err)
		}
		if unit != nil {
			summary.Unit = *unit
		}
		summary.Total += value
		summary.Count++
		summary.Values = append(summary.Values, models.MetricSummaryValue{Value: value, Agent: agent, Timestamp: ts})
	}
	if summary.Count > 0 {
		summary.Average = summary.Total / float64(summary.Count)
	}
	return summary, nil
}

// sanitizeJSON replaces non-finite float values with nil, matching the
// original's JSON-safety normalization (±Inf/NaN are not valid JSON).
func sanitizeJSON(m models.JSONMap) models.JSONMap {
	if m == nil {
		return nil
	}
	out := make(models.JSONMap, len(m))
	for k, v := range m {
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch t := v.(type) {
	case float64:
		if math.IsInf(t, 0) || math.IsNaN(t) {
			return nil
		}
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = sanitizeValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = sanitizeValue(vv)
		}
		return out
	default:
		return v
	}
}
