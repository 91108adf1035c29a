// Package models defines the persisted entities shared across the audit
// orchestration pipeline and the trend-discovery subsystem.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WorkflowType enumerates the kinds of workflow executions the system runs.
type WorkflowType string

const (
	WorkflowEditorialAnalysis WorkflowType = "editorial_analysis"
	WorkflowCompetitorSearch  WorkflowType = "competitor_search"
	WorkflowScraping          WorkflowType = "scraping"
	WorkflowClientScraping    WorkflowType = "client_scraping"
	WorkflowTrendsAnalysis    WorkflowType = "trends_analysis"
	WorkflowTrendPipeline     WorkflowType = "trend_pipeline"
	WorkflowArticleGeneration WorkflowType = "article_generation"
	WorkflowAuditOrchestrator WorkflowType = "audit_orchestrator"
)

// ExecutionStatus is the lifecycle state of a WorkflowExecution.
type ExecutionStatus string

const (
	StatusPending   ExecutionStatus = "pending"
	StatusRunning   ExecutionStatus = "running"
	StatusCompleted ExecutionStatus = "completed"
	StatusFailed    ExecutionStatus = "failed"
)

// IsTerminal reports whether status is a terminal (absorbing) state.
func (s ExecutionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// JSONMap is an opaque, lazily-validated structured payload. Dynamic blobs
// from LLM output (activity_domains, keywords, style_features) are modeled
// this way rather than with rigid schemas; a malformed shape is tolerated
// as {"_raw_malformed": "..."} rather than rejected.
type JSONMap map[string]any

// Value implements driver.Valuer so a JSONMap can be written to a jsonb
// column via sqlx NamedExecContext.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner so a jsonb column reads back into a JSONMap.
func (m *JSONMap) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("models: JSONMap.Scan: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(raw, m)
}

// WorkflowExecution is the persisted record of one workflow invocation.
type WorkflowExecution struct {
	ExecutionID       uuid.UUID       `db:"execution_id" json:"execution_id"`
	WorkflowType      WorkflowType    `db:"workflow_type" json:"workflow_type"`
	Status            ExecutionStatus `db:"status" json:"status"`
	WasSuccess        *bool           `db:"was_success" json:"was_success,omitempty"`
	InputData         JSONMap         `db:"input_data" json:"input_data"`
	OutputData        JSONMap         `db:"output_data" json:"output_data,omitempty"`
	ErrorMessage      *string         `db:"error_message" json:"error_message,omitempty"`
	StartTime         *time.Time      `db:"start_time" json:"start_time,omitempty"`
	EndTime           *time.Time      `db:"end_time" json:"end_time,omitempty"`
	DurationSeconds   *int            `db:"duration_seconds" json:"duration_seconds,omitempty"`
	ParentExecutionID *uuid.UUID      `db:"parent_execution_id" json:"parent_execution_id,omitempty"`
	IsValid           bool            `db:"is_valid" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// AuditLogStatus is the severity of an AuditLog row.
type AuditLogStatus string

const (
	LogInfo    AuditLogStatus = "info"
	LogSuccess AuditLogStatus = "success"
	LogError   AuditLogStatus = "error"
)

// AuditLog is an append-only log entry attached to a workflow execution.
type AuditLog struct {
	ID             int64          `db:"id" json:"id"`
	ExecutionID    *uuid.UUID     `db:"execution_id" json:"execution_id,omitempty"`
	Action         string         `db:"action" json:"action"`
	AgentName      string         `db:"agent_name" json:"agent_name,omitempty"`
	StepName       string         `db:"step_name" json:"step_name,omitempty"`
	Status         AuditLogStatus `db:"status" json:"status"`
	Message        string         `db:"message" json:"message"`
	Details        JSONMap        `db:"details" json:"details,omitempty"`
	ErrorTraceback *string        `db:"error_traceback" json:"error_traceback,omitempty"`
	Timestamp      time.Time      `db:"timestamp" json:"timestamp"`
}

// PerformanceMetric is an append-only numeric measurement tied to an execution.
type PerformanceMetric struct {
	ID              int64      `db:"id" json:"id"`
	ExecutionID     uuid.UUID  `db:"execution_id" json:"execution_id"`
	AgentName       string     `db:"agent_name" json:"agent_name,omitempty"`
	MetricType      string     `db:"metric_type" json:"metric_type"`
	MetricValue     float64    `db:"metric_value" json:"metric_value"`
	MetricUnit      *string    `db:"metric_unit" json:"metric_unit,omitempty"`
	AdditionalData  JSONMap    `db:"additional_data" json:"additional_data,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// MetricSummaryValue is one sample within a grouped metrics summary.
type MetricSummaryValue struct {
	Value     float64   `json:"value"`
	Agent     string    `json:"agent"`
	Timestamp time.Time `json:"timestamp"`
}

// MetricSummary aggregates all PerformanceMetric rows of one metric_type for
// an execution, as returned by ExecutionStore.GetMetricsSummary.
type MetricSummary struct {
	Total   float64              `json:"total"`
	Count   int                  `json:"count"`
	Average float64              `json:"average"`
	Unit    string               `json:"unit,omitempty"`
	Values  []MetricSummaryValue `json:"values"`
}

// LanguageLevel is the editorial reading-level classification of a site.
type LanguageLevel string

const (
	LanguageSimple       LanguageLevel = "simple"
	LanguageIntermediate LanguageLevel = "intermediate"
	LanguageAdvanced     LanguageLevel = "advanced"
	LanguageExpert       LanguageLevel = "expert"
)

// SiteProfile is the editorial profile of a client domain. One row per
// domain is current at a time; re-analysis inserts a new row and the prior
// one is retained for history queries (is_valid remains true — history is
// append-only, distinct from the tombstone semantics of other entities).
type SiteProfile struct {
	ID               int64         `db:"id" json:"id"`
	Domain           string        `db:"domain" json:"domain"`
	AnalysisDate     time.Time     `db:"analysis_date" json:"analysis_date"`
	LanguageLevel    LanguageLevel `db:"language_level" json:"language_level"`
	EditorialTone    string        `db:"editorial_tone" json:"editorial_tone,omitempty"`
	TargetAudience   JSONMap       `db:"target_audience" json:"target_audience,omitempty"`
	ActivityDomains  JSONMap       `db:"activity_domains" json:"activity_domains,omitempty"`
	ContentStructure JSONMap       `db:"content_structure" json:"content_structure,omitempty"`
	Keywords         JSONMap       `db:"keywords" json:"keywords,omitempty"`
	StyleFeatures    JSONMap       `db:"style_features" json:"style_features,omitempty"`
	PagesAnalyzed    int           `db:"pages_analyzed" json:"pages_analyzed"`
	LLMModelsUsed    JSONMap       `db:"llm_models_used" json:"llm_models_used,omitempty"`
	IsValid          bool          `db:"is_valid" json:"-"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
}

// CompetitorDomain tracks a candidate competitor discovered for a client.
type CompetitorDomain struct {
	ID            int64      `db:"id" json:"id"`
	ClientDomain  string     `db:"client_domain" json:"client_domain"`
	Domain        string     `db:"domain" json:"domain"`
	Excluded      bool       `db:"excluded" json:"excluded"`
	Validated     bool       `db:"validated" json:"validated"`
	Manual        bool       `db:"manual" json:"manual"`
	ValidationDate *time.Time `db:"validation_date" json:"validation_date,omitempty"`
	IsValid       bool       `db:"is_valid" json:"-"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// Article is shared shape for ClientArticle / CompetitorArticle, distinguished
// by the IsClient flag and optional SiteProfileID (client scope only).
type Article struct {
	ID            int64      `db:"id" json:"id"`
	SiteProfileID *int64     `db:"site_profile_id" json:"site_profile_id,omitempty"`
	IsClient      bool       `db:"is_client" json:"is_client"`
	Domain        string     `db:"domain" json:"domain"`
	URL           string     `db:"url" json:"url"`
	URLHash       string     `db:"url_hash" json:"url_hash"`
	Title         string     `db:"title" json:"title"`
	ContentText   string     `db:"content_text" json:"content_text,omitempty"`
	Author        string     `db:"author" json:"author,omitempty"`
	PublishedDate *time.Time `db:"published_date" json:"published_date,omitempty"`
	Keywords      JSONMap    `db:"keywords" json:"keywords,omitempty"`
	TopicID       *int       `db:"topic_id" json:"topic_id,omitempty"`
	QdrantPointID *uuid.UUID `db:"qdrant_point_id" json:"qdrant_point_id,omitempty"`
	IsValid       bool       `db:"is_valid" json:"-"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// StageStatus is the lifecycle of one TrendPipeline stage.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageInProgress StageStatus = "in_progress"
	StageCompleted  StageStatus = "completed"
	StageFailed     StageStatus = "failed"
	StageSkipped    StageStatus = "skipped"
)

// TrendPipelineExecution tracks one run of the four-stage trend pipeline.
type TrendPipelineExecution struct {
	ID                   int64       `db:"id" json:"id"`
	ExecutionID          uuid.UUID   `db:"execution_id" json:"execution_id"`
	ClientDomain         string      `db:"client_domain" json:"client_domain,omitempty"`
	DomainsAnalyzed      JSONMap     `db:"domains_analyzed" json:"domains_analyzed"`
	TimeWindowDays       int         `db:"time_window_days" json:"time_window_days"`
	Stage1ClusteringStat StageStatus `db:"stage_1_clustering_status" json:"stage_1_clustering_status"`
	Stage2TemporalStat   StageStatus `db:"stage_2_temporal_status" json:"stage_2_temporal_status"`
	Stage3LLMStat        StageStatus `db:"stage_3_llm_status" json:"stage_3_llm_status"`
	Stage4GapStat        StageStatus `db:"stage_4_gap_status" json:"stage_4_gap_status"`
	TotalArticles        int         `db:"total_articles" json:"total_articles"`
	TotalClusters        int         `db:"total_clusters" json:"total_clusters"`
	TotalOutliers         int        `db:"total_outliers" json:"total_outliers"`
	TotalRecommendations int         `db:"total_recommendations" json:"total_recommendations"`
	TotalGaps            int         `db:"total_gaps" json:"total_gaps"`
	// SourceExecutionID resolves Open Question #1 (spec.md §9): an explicit
	// link to the audit_orchestrator execution that launched this run,
	// replacing the fragile domains-overlap heuristic for "best matching
	// analysis" lookups.
	SourceExecutionID *uuid.UUID `db:"source_execution_id" json:"source_execution_id,omitempty"`
	StartTime         *time.Time `db:"start_time" json:"start_time,omitempty"`
	EndTime           *time.Time `db:"end_time" json:"end_time,omitempty"`
	DurationSeconds   *int       `db:"duration_seconds" json:"duration_seconds,omitempty"`
	ErrorMessage      *string    `db:"error_message" json:"error_message,omitempty"`
	IsValid           bool       `db:"is_valid" json:"-"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// TermWeight is one entry of a TopicCluster's ordered top_terms list.
type TermWeight struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// TermWeights is the jsonb-persisted ordered list backing TopicCluster.TopTerms.
type TermWeights []TermWeight

// Value implements driver.Valuer.
func (t TermWeights) Value() (driver.Value, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner.
func (t *TermWeights) Scan(src any) error {
	return scanJSON(src, t)
}

// StringList is a jsonb-persisted string array, used by TrendAnalysis's
// SaturatedAngles/Opportunities and ArticleRecommendation's Outline.
type StringList []string

// Value implements driver.Valuer.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *StringList) Scan(src any) error {
	return scanJSON(src, s)
}

// DocumentRefs is the exact {indices, ids} shape the clusterer persists,
// grounded on the original pipeline's document_ids construction.
type DocumentRefs struct {
	Indices []int       `json:"indices"`
	IDs     []uuid.UUID `json:"ids"`
}

// Value implements driver.Valuer.
func (d DocumentRefs) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner.
func (d *DocumentRefs) Scan(src any) error {
	return scanJSON(src, d)
}

// scanJSON is the shared jsonb-column unmarshal helper for the named
// slice/struct types above.
func scanJSON(src any, dst any) error {
	if src == nil {
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("models: Scan: unsupported type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// TopicCluster is one density-coherent group of article embeddings.
// Invariant: Size == len(DocumentIDs.Indices).
type TopicCluster struct {
	ID                int64        `db:"id" json:"id"`
	AnalysisID        int64        `db:"analysis_id" json:"analysis_id"`
	TopicID           int          `db:"topic_id" json:"topic_id"`
	Label             string       `db:"label" json:"label"`
	TopTerms          TermWeights  `db:"top_terms" json:"top_terms"`
	Size              int          `db:"size" json:"size"`
	DocumentIDs       DocumentRefs `db:"document_ids" json:"document_ids"`
	CentroidVectorID  *uuid.UUID   `db:"centroid_vector_id" json:"centroid_vector_id,omitempty"`
	CoherenceScore    float64      `db:"coherence_score" json:"coherence_score"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
}

// TopicOutlier is a density-clustering reject (topic_id -1) surfaced rather
// than dropped.
type TopicOutlier struct {
	ID                int64     `db:"id" json:"id"`
	AnalysisID        int64     `db:"analysis_id" json:"analysis_id"`
	DocumentID        uuid.UUID `db:"document_id" json:"document_id"`
	ArticleID         *int64    `db:"article_id" json:"article_id,omitempty"`
	PotentialCategory string    `db:"potential_category" json:"potential_category"`
	EmbeddingDistance float64   `db:"embedding_distance" json:"embedding_distance"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// VelocityTrend classifies a cluster's short-vs-long-window publication rate.
type VelocityTrend string

const (
	VelocityAccelerating VelocityTrend = "accelerating"
	VelocityDecelerating VelocityTrend = "decelerating"
	VelocityStable       VelocityTrend = "stable"
)

// FreshnessTrend classifies recency of publication.
type FreshnessTrend string

const (
	FreshnessHot  FreshnessTrend = "hot"
	FreshnessWarm FreshnessTrend = "warm"
	FreshnessCold FreshnessTrend = "cold"
)

// DiversityLevel classifies unique-source count.
type DiversityLevel string

const (
	DiversityNiche      DiversityLevel = "niche"
	DiversityModerate   DiversityLevel = "moderate"
	DiversityMainstream DiversityLevel = "mainstream"
)

// TopicTemporalMetrics is one window's worth of temporal analysis for a
// cluster.
type TopicTemporalMetrics struct {
	ID               int64          `db:"id" json:"id"`
	TopicClusterID   int64          `db:"topic_cluster_id" json:"topic_cluster_id"`
	WindowStart      time.Time      `db:"window_start" json:"window_start"`
	WindowEnd        time.Time      `db:"window_end" json:"window_end"`
	Volume           int            `db:"volume" json:"volume"`
	Velocity         float64        `db:"velocity" json:"velocity"`
	VelocityTrend    VelocityTrend  `db:"velocity_trend" json:"velocity_trend"`
	FreshnessRatio   float64        `db:"freshness_ratio" json:"freshness_ratio"`
	FreshnessTrend   FreshnessTrend `db:"freshness_trend" json:"freshness_trend"`
	SourceDiversity  int            `db:"source_diversity" json:"source_diversity"`
	DiversityLevel   DiversityLevel `db:"diversity_level" json:"diversity_level"`
	CohesionScore    *float64       `db:"cohesion_score" json:"cohesion_score,omitempty"`
	PotentialScore   float64        `db:"potential_score" json:"potential_score"`
	DriftDetected    bool           `db:"drift_detected" json:"drift_detected"`
	DriftDistance    *float64       `db:"drift_distance" json:"drift_distance,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
}

// TrendAnalysis is the LLM-synthesized narrative for a cluster.
type TrendAnalysis struct {
	ID                     int64     `db:"id" json:"id"`
	TopicClusterID         int64     `db:"topic_cluster_id" json:"topic_cluster_id"`
	Synthesis              string    `db:"synthesis" json:"synthesis"`
	SaturatedAngles        StringList `db:"saturated_angles" json:"saturated_angles"`
	Opportunities          StringList `db:"opportunities" json:"opportunities"`
	LLMModelUsed           string    `db:"llm_model_used" json:"llm_model_used,omitempty"`
	ProcessingTimeSeconds  float64   `db:"processing_time_seconds" json:"processing_time_seconds"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
}

// EffortLevel is an estimate of how much work an article recommendation is.
type EffortLevel string

const (
	EffortEasy    EffortLevel = "easy"
	EffortMedium  EffortLevel = "medium"
	EffortComplex EffortLevel = "complex"
)

// RecommendationStatus is the editorial workflow status of a recommendation.
type RecommendationStatus string

const (
	RecSuggested RecommendationStatus = "suggested"
	RecAccepted  RecommendationStatus = "accepted"
	RecRejected  RecommendationStatus = "rejected"
	RecPublished RecommendationStatus = "published"
)

// ArticleRecommendation is one LLM-generated content angle for a cluster.
type ArticleRecommendation struct {
	ID                   int64                 `db:"id" json:"id"`
	TopicClusterID       int64                 `db:"topic_cluster_id" json:"topic_cluster_id"`
	Title                string                `db:"title" json:"title"`
	Hook                 string                `db:"hook" json:"hook"`
	Outline              StringList            `db:"outline" json:"outline"`
	DifferentiationScore float64               `db:"differentiation_score" json:"differentiation_score"`
	EffortLevel          EffortLevel           `db:"effort_level" json:"effort_level"`
	Status               RecommendationStatus  `db:"status" json:"status"`
	CreatedAt            time.Time             `db:"created_at" json:"created_at"`
}

// CoverageLevel classifies client-vs-competitor coverage of a topic.
type CoverageLevel string

const (
	CoverageExcellent CoverageLevel = "excellent"
	CoverageGood      CoverageLevel = "good"
	CoverageWeak      CoverageLevel = "weak"
	CoverageGap       CoverageLevel = "gap"
)

// ClientCoverageAnalysis is a scored coverage view of (client_domain, cluster),
// persisted per pipeline run alongside the gaps/strengths it's derived from.
type ClientCoverageAnalysis struct {
	ID              int64         `db:"id" json:"id"`
	ClientDomain    string        `db:"domain" json:"client_domain"`
	TopicClusterID  int64         `db:"topic_cluster_id" json:"topic_cluster_id"`
	ClientCount     int           `db:"client_article_count" json:"client_count"`
	CompetitorCount int           `db:"competitor_count" json:"competitor_count"`
	NumCompetitors  int           `db:"num_competitors" json:"num_competitors"`
	CoverageScore   float64       `db:"coverage_score" json:"coverage_score"`
	CoverageLevel   CoverageLevel `db:"coverage_level" json:"coverage_level"`
	AnalysisDate    time.Time     `db:"analysis_date" json:"analysis_date"`
	IsValid         bool          `db:"is_valid" json:"-"`
}

// EditorialGap is a topic where client coverage materially trails competitors',
// persisted so ContentRoadmap.GapID can reference a real row instead of
// reusing the topic cluster id.
type EditorialGap struct {
	ID              int64     `db:"id" json:"id"`
	ClientDomain    string    `db:"client_domain" json:"client_domain"`
	TopicClusterID  int64     `db:"topic_cluster_id" json:"topic_cluster_id"`
	Label           string    `db:"-" json:"label"`
	CoverageScore   float64   `db:"coverage_score" json:"coverage_score"`
	PriorityScore   float64   `db:"priority_score" json:"priority_score"`
	Diagnostic      string    `db:"diagnostic" json:"diagnostic"`
	OpportunityDesc string    `db:"opportunity_description" json:"opportunity_description"`
	RiskAssessment  string    `db:"risk_assessment" json:"risk_assessment"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	IsValid         bool      `db:"is_valid" json:"-"`
}

// ClientStrength is a topic where the client materially leads competitors.
type ClientStrength struct {
	ID             int64     `db:"id" json:"id"`
	ClientDomain   string    `db:"domain" json:"domain"`
	TopicClusterID int64     `db:"topic_cluster_id" json:"topic_cluster_id"`
	Label          string    `db:"label" json:"label"`
	CoverageScore  float64   `db:"coverage_score" json:"coverage_score"`
	AdvantageScore float64   `db:"advantage_score" json:"advantage_score"`
	Description    string    `db:"description" json:"description"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	IsValid        bool      `db:"is_valid" json:"-"`
}

// PriorityTier buckets a ContentRoadmap row.
type PriorityTier string

const (
	TierHigh   PriorityTier = "high"
	TierMedium PriorityTier = "medium"
	TierLow    PriorityTier = "low"
)

// ContentRoadmap is one priority-ordered, effort-diversified roadmap entry.
type ContentRoadmap struct {
	ID                 int64        `db:"id" json:"id"`
	ClientDomain        string       `db:"client_domain" json:"client_domain"`
	GapID               int64        `db:"gap_id" json:"gap_id"`
	RecommendationID    int64        `db:"recommendation_id" json:"recommendation_id"`
	PriorityOrder       int          `db:"priority_order" json:"priority_order"`
	PriorityTier        PriorityTier `db:"priority_tier" json:"priority_tier"`
	EstimatedEffort      EffortLevel  `db:"estimated_effort" json:"estimated_effort"`
	CreatedAt            time.Time    `db:"created_at" json:"created_at"`
}
