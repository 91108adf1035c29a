package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/agenceeditorial/auditengine/internal/errs"
	"github.com/agenceeditorial/auditengine/internal/models"
)

// TrendStore persists the four-stage trend pipeline's output: the pipeline
// execution record itself, the clusters and outliers it discovers, the
// temporal metrics and LLM synthesis attached to each cluster, and the
// article recommendations and client roadmap the gap analyzer derives from
// them. Grounded on ExecutionStore's NamedExecContext idiom.
type TrendStore struct {
	db *sqlx.DB
}

// NewTrendStore constructs a TrendStore.
func NewTrendStore(db *sqlx.DB) *TrendStore {
	return &TrendStore{db: db}
}

// CreatePipelineExecution inserts a new TrendPipelineExecution row.
func (s *TrendStore) CreatePipelineExecution(ctx context.Context, e *models.TrendPipelineExecution) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.IsValid = true
	const q = `INSERT INTO trend_pipeline_executions
		(execution_id, client_domain, domains_analyzed, time_window_days,
		 stage_1_clustering_status, stage_2_temporal_status, stage_3_llm_status, stage_4_gap_status,
		 total_articles, total_clusters, total_outliers, total_recommendations, total_gaps,
		 source_execution_id, start_time, end_time, duration_seconds, error_message, is_valid, created_at)
		VALUES (:execution_id, :client_domain, :domains_analyzed, :time_window_days,
		 :stage_1_clustering_status, :stage_2_temporal_status, :stage_3_llm_status, :stage_4_gap_status,
		 :total_articles, :total_clusters, :total_outliers, :total_recommendations, :total_gaps,
		 :source_execution_id, :start_time, :end_time, :duration_seconds, :error_message, :is_valid, :created_at)
		RETURNING id`
	rows, err := s.db.NamedQueryContext(ctx, q, e)
	if err != nil {
		return errs.New(errs.KindFatal, "create pipeline execution", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&e.ID); err != nil {
			return errs.New(errs.KindFatal, "create pipeline execution: scan id", err)
		}
	}
	return nil
}

// UpdateStageStatus advances one stage column of a pipeline execution.
func (s *TrendStore) UpdateStageStatus(ctx context.Context, id int64, stage int, status models.StageStatus) error {
	var col string
	switch stage {
	case 1:
		col = "stage_1_clustering_status"
	case 2:
		col = "stage_2_temporal_status"
	case 3:
		col = "stage_3_llm_status"
	case 4:
		col = "stage_4_gap_status"
	default:
		return errs.New(errs.KindInputValidation, "update stage status: unknown stage", nil)
	}
	q := `UPDATE trend_pipeline_executions SET ` + col + ` = $1 WHERE id = $2`
	if _, err := s.db.ExecContext(ctx, q, status, id); err != nil {
		return errs.New(errs.KindFatal, "update stage status", err)
	}
	return nil
}

// FinishPipelineExecution stamps end_time/duration_seconds/error_message and
// the totals gathered over the run.
func (s *TrendStore) FinishPipelineExecution(ctx context.Context, e *models.TrendPipelineExecution) error {
	now := time.Now().UTC()
	e.EndTime = &now
	if e.StartTime != nil {
		dur := int(now.Sub(*e.StartTime).Seconds())
		e.DurationSeconds = &dur
	}
	const q = `UPDATE trend_pipeline_executions SET
		end_time = :end_time, duration_seconds = :duration_seconds, error_message = :error_message,
		total_articles = :total_articles, total_clusters = :total_clusters,
		total_outliers = :total_outliers, total_recommendations = :total_recommendations,
		total_gaps = :total_gaps
		WHERE id = :id`
	if _, err := s.db.NamedExecContext(ctx, q, e); err != nil {
		return errs.New(errs.KindFatal, "finish pipeline execution", err)
	}
	return nil
}

// LatestForSource returns the most recent TrendPipelineExecution launched
// from sourceExecutionID, the explicit link resolving the domains-overlap
// heuristic Open Question (SPEC_FULL.md §9).
func (s *TrendStore) LatestForSource(ctx context.Context, sourceExecutionID uuid.UUID) (*models.TrendPipelineExecution, error) {
	var e models.TrendPipelineExecution
	const q = `SELECT * FROM trend_pipeline_executions WHERE source_execution_id = $1
		ORDER BY created_at DESC LIMIT 1`
	if err := s.db.GetContext(ctx, &e, q, sourceExecutionID); err != nil {
		return nil, nil
	}
	return &e, nil
}

// LatestCompletedForClient returns the most recent TrendPipelineExecution
// for clientDomain whose clustering/temporal stages both completed (stage 3
// may also be skipped — LLM enrichment is optional), used by
// AuditOrchestrator's "is trend analysis already done" prerequisite check.
func (s *TrendStore) LatestCompletedForClient(ctx context.Context, clientDomain string) (*models.TrendPipelineExecution, error) {
	var e models.TrendPipelineExecution
	const q = `SELECT * FROM trend_pipeline_executions
		WHERE client_domain = $1
		AND stage_1_clustering_status = 'completed'
		AND stage_2_temporal_status = 'completed'
		AND stage_3_llm_status IN ('completed', 'skipped')
		ORDER BY created_at DESC LIMIT 1`
	if err := s.db.GetContext(ctx, &e, q, clientDomain); err != nil {
		return nil, nil
	}
	return &e, nil
}

// CreateTopicCluster inserts a cluster discovered by the clusterer.
func (s *TrendStore) CreateTopicCluster(ctx context.Context, c *models.TopicCluster) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO topic_clusters
		(analysis_id, topic_id, label, top_terms, size, document_ids, centroid_vector_id, coherence_score, created_at)
		VALUES (:analysis_id, :topic_id, :label, :top_terms, :size, :document_ids, :centroid_vector_id, :coherence_score, :created_at)
		RETURNING id`
	rows, err := s.db.NamedQueryContext(ctx, q, c)
	if err != nil {
		return errs.New(errs.KindFatal, "create topic cluster", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&c.ID); err != nil {
			return errs.New(errs.KindFatal, "create topic cluster: scan id", err)
		}
	}
	return nil
}

// ClustersByAnalysis returns every cluster discovered in one pipeline run.
func (s *TrendStore) ClustersByAnalysis(ctx context.Context, analysisID int64) ([]models.TopicCluster, error) {
	var cs []models.TopicCluster
	const q = `SELECT * FROM topic_clusters WHERE analysis_id = $1 ORDER BY topic_id ASC`
	if err := s.db.SelectContext(ctx, &cs, q, analysisID); err != nil {
		return nil, errs.New(errs.KindFatal, "clusters by analysis", err)
	}
	return cs, nil
}

// CreateTopicOutlier inserts an outlier surfaced instead of dropped.
func (s *TrendStore) CreateTopicOutlier(ctx context.Context, o *models.TopicOutlier) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO topic_outliers
		(analysis_id, document_id, article_id, potential_category, embedding_distance, created_at)
		VALUES (:analysis_id, :document_id, :article_id, :potential_category, :embedding_distance, :created_at)`
	_, err := s.db.NamedExecContext(ctx, q, o)
	if err != nil {
		return errs.New(errs.KindFatal, "create topic outlier", err)
	}
	return nil
}

// CreateClientCoverageAnalysis inserts one cluster's coverage scoring for a
// client domain, the per-run snapshot gap/strength identification is
// derived from.
func (s *TrendStore) CreateClientCoverageAnalysis(ctx context.Context, c *models.ClientCoverageAnalysis) error {
	if c.AnalysisDate.IsZero() {
		c.AnalysisDate = time.Now().UTC()
	}
	c.IsValid = true
	const q = `INSERT INTO client_coverage_analysis
		(domain, topic_cluster_id, client_article_count, competitor_count, num_competitors,
		 coverage_score, coverage_level, analysis_date, is_valid)
		VALUES (:domain, :topic_cluster_id, :client_article_count, :competitor_count, :num_competitors,
		 :coverage_score, :coverage_level, :analysis_date, :is_valid)
		RETURNING id`
	rows, err := s.db.NamedQueryContext(ctx, q, c)
	if err != nil {
		return errs.New(errs.KindFatal, "create client coverage analysis", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&c.ID); err != nil {
			return errs.New(errs.KindFatal, "create client coverage analysis: scan id", err)
		}
	}
	return nil
}

// CreateEditorialGap inserts a gap identified for clientDomain, returning
// its DB-assigned id so callers can populate ContentRoadmap.GapID with a
// real foreign key instead of the topic cluster id.
func (s *TrendStore) CreateEditorialGap(ctx context.Context, g *models.EditorialGap) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	g.IsValid = true
	const q = `INSERT INTO editorial_gaps
		(client_domain, topic_cluster_id, coverage_score, priority_score,
		 diagnostic, opportunity_description, risk_assessment, created_at, is_valid)
		VALUES (:client_domain, :topic_cluster_id, :coverage_score, :priority_score,
		 :diagnostic, :opportunity_description, :risk_assessment, :created_at, :is_valid)
		RETURNING id`
	rows, err := s.db.NamedQueryContext(ctx, q, g)
	if err != nil {
		return errs.New(errs.KindFatal, "create editorial gap", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&g.ID); err != nil {
			return errs.New(errs.KindFatal, "create editorial gap: scan id", err)
		}
	}
	return nil
}

// CreateClientStrength inserts a strength identified for clientDomain.
func (s *TrendStore) CreateClientStrength(ctx context.Context, st *models.ClientStrength) error {
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	st.IsValid = true
	const q = `INSERT INTO client_strengths
		(domain, topic_cluster_id, label, coverage_score, advantage_score, description, created_at, is_valid)
		VALUES (:domain, :topic_cluster_id, :label, :coverage_score, :advantage_score, :description, :created_at, :is_valid)
		RETURNING id`
	rows, err := s.db.NamedQueryContext(ctx, q, st)
	if err != nil {
		return errs.New(errs.KindFatal, "create client strength", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&st.ID); err != nil {
			return errs.New(errs.KindFatal, "create client strength: scan id", err)
		}
	}
	return nil
}

// CreateTemporalMetrics inserts one window's temporal analysis for a cluster.
func (s *TrendStore) CreateTemporalMetrics(ctx context.Context, m *models.TopicTemporalMetrics) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO topic_temporal_metrics
		(topic_cluster_id, window_start, window_end, volume, velocity, velocity_trend,
		 freshness_ratio, freshness_trend, source_diversity, diversity_level,
		 cohesion_score, potential_score, drift_detected, drift_distance, created_at)
		VALUES (:topic_cluster_id, :window_start, :window_end, :volume, :velocity, :velocity_trend,
		 :freshness_ratio, :freshness_trend, :source_diversity, :diversity_level,
		 :cohesion_score, :potential_score, :drift_detected, :drift_distance, :created_at)`
	_, err := s.db.NamedExecContext(ctx, q, m)
	if err != nil {
		return errs.New(errs.KindFatal, "create temporal metrics", err)
	}
	return nil
}

// CreateTrendAnalysis inserts the LLM-synthesized narrative for a cluster.
func (s *TrendStore) CreateTrendAnalysis(ctx context.Context, a *models.TrendAnalysis) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO trend_analyses
		(topic_cluster_id, synthesis, saturated_angles, opportunities, llm_model_used, processing_time_seconds, created_at)
		VALUES (:topic_cluster_id, :synthesis, :saturated_angles, :opportunities, :llm_model_used, :processing_time_seconds, :created_at)
		RETURNING id`
	rows, err := s.db.NamedQueryContext(ctx, q, a)
	if err != nil {
		return errs.New(errs.KindFatal, "create trend analysis", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&a.ID); err != nil {
			return errs.New(errs.KindFatal, "create trend analysis: scan id", err)
		}
	}
	return nil
}

// CreateArticleRecommendation inserts one LLM-generated content angle.
func (s *TrendStore) CreateArticleRecommendation(ctx context.Context, r *models.ArticleRecommendation) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = models.RecSuggested
	}
	const q = `INSERT INTO article_recommendations
		(topic_cluster_id, title, hook, outline, differentiation_score, effort_level, status, created_at)
		VALUES (:topic_cluster_id, :title, :hook, :outline, :differentiation_score, :effort_level, :status, :created_at)
		RETURNING id`
	rows, err := s.db.NamedQueryContext(ctx, q, r)
	if err != nil {
		return errs.New(errs.KindFatal, "create article recommendation", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&r.ID); err != nil {
			return errs.New(errs.KindFatal, "create article recommendation: scan id", err)
		}
	}
	return nil
}

// RecommendationsByCluster returns every recommendation generated for a
// cluster, used by the gap analyzer's effort-balanced roadmap selection.
func (s *TrendStore) RecommendationsByCluster(ctx context.Context, topicClusterID int64) ([]models.ArticleRecommendation, error) {
	var rs []models.ArticleRecommendation
	const q = `SELECT * FROM article_recommendations WHERE topic_cluster_id = $1 ORDER BY differentiation_score DESC`
	if err := s.db.SelectContext(ctx, &rs, q, topicClusterID); err != nil {
		return nil, errs.New(errs.KindFatal, "recommendations by cluster", err)
	}
	return rs, nil
}

// SaveRoadmap persists a client's content roadmap, replacing any prior
// roadmap rows for the same client so re-running the gap analyzer doesn't
// accumulate stale entries.
func (s *TrendStore) SaveRoadmap(ctx context.Context, tm *TransactionManager, clientDomain string, items []models.ContentRoadmap) error {
	return tm.SafeTransaction(ctx, "save_roadmap", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM content_roadmaps WHERE client_domain = $1`, clientDomain); err != nil {
			return err
		}
		const q = `INSERT INTO content_roadmaps
			(client_domain, gap_id, recommendation_id, priority_order, priority_tier, estimated_effort, created_at)
			VALUES (:client_domain, :gap_id, :recommendation_id, :priority_order, :priority_tier, :estimated_effort, :created_at)`
		for i := range items {
			if items[i].CreatedAt.IsZero() {
				items[i].CreatedAt = time.Now().UTC()
			}
			items[i].ClientDomain = clientDomain
			if _, err := tx.NamedExecContext(ctx, q, items[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// RoadmapForClient returns the current content roadmap for clientDomain in
// priority order.
func (s *TrendStore) RoadmapForClient(ctx context.Context, clientDomain string) ([]models.ContentRoadmap, error) {
	var items []models.ContentRoadmap
	const q = `SELECT * FROM content_roadmaps WHERE client_domain = $1 ORDER BY priority_order ASC`
	if err := s.db.SelectContext(ctx, &items, q, clientDomain); err != nil {
		return nil, errs.New(errs.KindFatal, "roadmap for client", err)
	}
	return items, nil
}
