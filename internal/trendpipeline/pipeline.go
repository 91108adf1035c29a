// Package trendpipeline implements TrendPipelineAgent (C8): the stateful
// four-stage orchestrator composing EmbeddingFetcher -> Clusterer ->
// TemporalAnalyzer -> LLMEnricher -> GapAnalyzer into one pipeline run.
// Grounded stage-for-stage on
// original_source/.../agent_trend_pipeline.py's execute().
package trendpipeline

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/agenceeditorial/auditengine/internal/clustering"
	"github.com/agenceeditorial/auditengine/internal/embeddings"
	"github.com/agenceeditorial/auditengine/internal/gap"
	"github.com/agenceeditorial/auditengine/internal/llm"
	"github.com/agenceeditorial/auditengine/internal/logging"
	"github.com/agenceeditorial/auditengine/internal/models"
	"github.com/agenceeditorial/auditengine/internal/observability"
	"github.com/agenceeditorial/auditengine/internal/store/postgres"
	"github.com/agenceeditorial/auditengine/internal/temporal"
	"github.com/agenceeditorial/auditengine/internal/vectorstore"
	"github.com/agenceeditorial/auditengine/internal/workerpool"
)

// Config bundles the per-stage configuration and orchestration constants.
type Config struct {
	Collection         string
	CentroidCollection string // where cluster centroids are best-effort upserted
	Embeddings         embeddings.Config
	Clustering         clustering.Config
	Temporal           temporal.Config
	Gap                gap.Config
	LLMModel           string
	LLMTopTopics       int // how many topics (by potential score) get LLM-enriched
	LLMConcurrent      int // bounded IO concurrency for the per-topic LLM fan-out
}

// DefaultConfig matches agent_trend_pipeline.py's defaults.
func DefaultConfig() Config {
	return Config{
		Collection:         "articles",
		CentroidCollection: "articles_centroids",
		Embeddings:         embeddings.DefaultConfig(),
		Clustering:         clustering.DefaultConfig(),
		Temporal:           temporal.DefaultConfig(),
		Gap:                gap.DefaultConfig(),
		LLMModel:           "llama3",
		LLMTopTopics:       10,
		LLMConcurrent:      4,
	}
}

// Params is one invocation's input, mirroring execute()'s parameters.
type Params struct {
	Domains           []string
	ClientDomain      string
	TimeWindowDays    int
	SkipLLM           bool
	SkipGapAnalysis   bool
	SourceExecutionID *uuid.UUID
}

// Result is the per-stage outcome summary returned to the caller, mirroring
// execute()'s returned dict shape.
type Result struct {
	ExecutionID     int64
	Success         bool
	Error           string
	TotalArticles   int
	TotalClusters   int
	TotalOutliers   int
	TotalRecs       int
	TotalGaps       int
	DurationSeconds int
}

// Pipeline runs the four-stage trend extraction pipeline end to end,
// persisting each stage's output and advancing the execution's per-stage
// status columns as it goes.
type Pipeline struct {
	fetcher   *embeddings.Fetcher
	clusterer *clustering.Clusterer
	temporal  *temporal.Analyzer
	enricher  *llm.Enricher
	gapA      *gap.Analyzer
	trend     *postgres.TrendStore
	editorial *postgres.EditorialStore
	vectors   *vectorstore.Client
	tx        *postgres.TransactionManager
	cfg       Config
	log       *logging.Logger
	cpuPool   *workerpool.Pool
	ioPool    *workerpool.Pool
}

// New constructs a Pipeline from its stage implementations and stores.
// vectors is used only for the best-effort centroid upsert in stage 1; a nil
// client simply skips that upsert.
func New(
	fetcher *embeddings.Fetcher,
	clusterer *clustering.Clusterer,
	temporalAnalyzer *temporal.Analyzer,
	enricher *llm.Enricher,
	gapAnalyzer *gap.Analyzer,
	trend *postgres.TrendStore,
	editorial *postgres.EditorialStore,
	vectors *vectorstore.Client,
	tx *postgres.TransactionManager,
	cfg Config,
	log *logging.Logger,
) *Pipeline {
	if log == nil {
		log = logging.Global
	}
	concurrency := cfg.LLMConcurrent
	if concurrency < 1 {
		concurrency = 4
	}
	return &Pipeline{
		fetcher:   fetcher,
		clusterer: clusterer,
		temporal:  temporalAnalyzer,
		enricher:  enricher,
		gapA:      gapAnalyzer,
		trend:     trend,
		editorial: editorial,
		vectors:   vectors,
		tx:        tx,
		cfg:       cfg,
		log:       log,
		cpuPool:   workerpool.NewPhysicalCorePool(),
		ioPool:    workerpool.New(concurrency),
	}
}

// Execute runs all four stages for one (domains, clientDomain, window)
// request, persisting a TrendPipelineExecution row and everything derived
// from it. A failure in stage 1 or stage 4, including a failed database
// write inside those stages, stops the run and returns a non-success Result
// rather than an error, matching the original's try/except-at-the-top shape.
// Only a failure to create or finish the TrendPipelineExecution row is
// returned as an error.
func (p *Pipeline) Execute(ctx context.Context, executionID uuid.UUID, params Params) (*Result, error) {
	ctx, span := observability.StartSpan(ctx, observability.PipelineTracer(), "trendpipeline.execute")
	defer span.End()

	start := time.Now().UTC()
	windowDays := params.TimeWindowDays
	if windowDays <= 0 {
		windowDays = 365
	}

	execution := &models.TrendPipelineExecution{
		ExecutionID:       executionID,
		ClientDomain:      params.ClientDomain,
		DomainsAnalyzed:   models.JSONMap{"domains": params.Domains},
		TimeWindowDays:    windowDays,
		Stage1ClusteringStat: models.StagePending,
		Stage2TemporalStat:   models.StagePending,
		Stage3LLMStat:        models.StagePending,
		Stage4GapStat:        models.StagePending,
		SourceExecutionID:    params.SourceExecutionID,
		StartTime:            &start,
	}
	if err := p.trend.CreatePipelineExecution(ctx, execution); err != nil {
		return nil, err
	}
	result := &Result{ExecutionID: execution.ID, Success: true}

	p.log.Info("trendpipeline", "start", "starting trend pipeline",
		map[string]any{"execution_id": executionID.String(), "domains": params.Domains, "client_domain": params.ClientDomain})

	stage1, err := p.runClustering(ctx, execution, params.Domains, windowDays)
	if err != nil {
		return p.finishFailed(ctx, execution, result, start, err)
	}
	if stage1 == nil {
		// Not-enough-articles is a clean, non-fatal stop: persist and return.
		return p.finishFailed(ctx, execution, result, start, nil)
	}
	result.TotalArticles = len(stage1.embeddings)
	result.TotalClusters = len(stage1.clusters.Clusters)
	result.TotalOutliers = len(stage1.clusters.Outliers)

	stage2 := p.runTemporal(stage1)

	var recommendations []gap.Recommendation
	if !params.SkipLLM {
		recommendations = p.runLLMEnrichment(ctx, execution, stage1, stage2)
		result.TotalRecs = len(recommendations)
	} else {
		_ = p.trend.UpdateStageStatus(ctx, execution.ID, 3, models.StageSkipped)
	}

	if !params.SkipGapAnalysis && params.ClientDomain != "" {
		gaps, err := p.runGapAnalysis(ctx, execution, params.ClientDomain, stage1, stage2, recommendations)
		if err != nil {
			return p.finishFailed(ctx, execution, result, start, err)
		}
		result.TotalGaps = gaps
	} else {
		_ = p.trend.UpdateStageStatus(ctx, execution.ID, 4, models.StageSkipped)
	}

	execution.TotalArticles = result.TotalArticles
	execution.TotalClusters = result.TotalClusters
	execution.TotalOutliers = result.TotalOutliers
	execution.TotalRecommendations = result.TotalRecs
	execution.TotalGaps = result.TotalGaps
	if err := p.trend.FinishPipelineExecution(ctx, execution); err != nil {
		return nil, err
	}
	result.DurationSeconds = 0
	if execution.DurationSeconds != nil {
		result.DurationSeconds = *execution.DurationSeconds
	}

	p.log.Info("trendpipeline", "complete", "trend pipeline completed", map[string]any{
		"execution_id": executionID.String(),
		"duration":     result.DurationSeconds,
		"clusters":     result.TotalClusters,
		"gaps":         result.TotalGaps,
	})
	return result, nil
}

func (p *Pipeline) finishFailed(ctx context.Context, execution *models.TrendPipelineExecution, result *Result, start time.Time, err error) (*Result, error) {
	result.Success = false
	if err != nil {
		msg := err.Error()
		execution.ErrorMessage = &msg
		result.Error = msg
	}
	if ferr := p.trend.FinishPipelineExecution(ctx, execution); ferr != nil {
		return nil, ferr
	}
	if execution.DurationSeconds != nil {
		result.DurationSeconds = *execution.DurationSeconds
	}
	return result, nil
}

// stage1Output carries clustering.Result plus the raw documents it was
// computed from, needed by stage 2 and stage 3.
type stage1Output struct {
	clusters   *clustering.Result
	documents  []embeddings.Document
	embeddings [][]float32
}

func (p *Pipeline) runClustering(ctx context.Context, execution *models.TrendPipelineExecution, domains []string, windowDays int) (*stage1Output, error) {
	p.log.Info("trendpipeline", "stage1_start", "starting stage 1: clustering", nil)
	if err := p.trend.UpdateStageStatus(ctx, execution.ID, 1, models.StageInProgress); err != nil {
		return nil, err
	}

	fetched, err := p.fetcher.Fetch(ctx, p.cfg.Collection, domains, windowDays, 0)
	if err != nil {
		return nil, err
	}

	docs := make([]clustering.Document, 0, len(fetched.Documents))
	for _, d := range fetched.Documents {
		id, perr := uuid.Parse(d.DocumentID)
		if perr != nil {
			id = uuid.New()
		}
		docs = append(docs, clustering.Document{ID: id, Text: documentText(d.Payload)})
	}

	var clusterResult *clustering.Result
	jobErr := p.cpuPool.Submit(ctx, func(context.Context) error {
		r, cerr := p.clusterer.Cluster(fetched.Embeddings, docs)
		if cerr != nil {
			return cerr
		}
		clusterResult = r
		return nil
	})
	if jobErr != nil {
		if _, ok := jobErr.(*clustering.ErrNotEnoughArticles); ok {
			errMsg := jobErr.Error()
			execution.ErrorMessage = &errMsg
			if err := p.trend.UpdateStageStatus(ctx, execution.ID, 1, models.StageFailed); err != nil {
				return nil, err
			}
			return nil, nil
		}
		if err := p.trend.UpdateStageStatus(ctx, execution.ID, 1, models.StageFailed); err != nil {
			return nil, err
		}
		return nil, jobErr
	}

	if err := p.trend.UpdateStageStatus(ctx, execution.ID, 1, models.StageCompleted); err != nil {
		return nil, err
	}

	for i := range clusterResult.Clusters {
		c := &clusterResult.Clusters[i]
		row := &models.TopicCluster{
			AnalysisID:     execution.ID,
			TopicID:        c.TopicID,
			Label:          c.Label,
			TopTerms:       toModelTermWeights(c.TopTerms),
			Size:           len(c.MemberIndices),
			DocumentIDs:    models.DocumentRefs{Indices: c.MemberIndices, IDs: c.MemberIDs},
			CoherenceScore: c.CoherenceScore,
		}
		if id, ok := p.upsertCentroid(ctx, execution.ID, c); ok {
			row.CentroidVectorID = &id
		}
		if err := p.trend.CreateTopicCluster(ctx, row); err != nil {
			return nil, err
		}
	}

	for _, o := range clusterResult.Outliers {
		if o.Index >= len(fetched.Documents) {
			continue
		}
		docID, perr := uuid.Parse(fetched.Documents[o.Index].DocumentID)
		if perr != nil {
			continue
		}
		row := &models.TopicOutlier{
			AnalysisID:        execution.ID,
			DocumentID:        docID,
			PotentialCategory: o.PotentialCategory,
			EmbeddingDistance: o.EmbeddingDistance,
		}
		if err := p.trend.CreateTopicOutlier(ctx, row); err != nil {
			return nil, err
		}
	}

	return &stage1Output{clusters: clusterResult, documents: fetched.Documents, embeddings: fetched.Embeddings}, nil
}

func (p *Pipeline) runTemporal(stage1 *stage1Output) map[int]temporal.Metrics {
	p.log.Info("trendpipeline", "stage2_start", "starting stage 2: temporal analysis", nil)

	docsByTopic := map[int][]temporal.Document{}
	embeddingsByTopic := map[int][][]float32{}
	centroidByTopic := map[int][]float32{}

	for _, c := range stage1.clusters.Clusters {
		centroidByTopic[c.TopicID] = c.Centroid
		for _, idx := range c.MemberIndices {
			if idx >= len(stage1.documents) {
				continue
			}
			payload := stage1.documents[idx].Payload
			domain, _ := payload["domain"].(string)
			pub, hasDate := parsePayloadDate(payload)
			docsByTopic[c.TopicID] = append(docsByTopic[c.TopicID], temporal.Document{
				Domain:        domain,
				PublishedDate: pub,
				HasDate:       hasDate,
				Index:         idx,
			})
			embeddingsByTopic[c.TopicID] = append(embeddingsByTopic[c.TopicID], stage1.embeddings[idx])
		}
	}

	metrics := map[int]temporal.Metrics{}
	for _, c := range stage1.clusters.Clusters {
		m := p.temporal.AnalyzeTopic(c.TopicID, docsByTopic[c.TopicID], embeddingsByTopic[c.TopicID], centroidByTopic[c.TopicID])
		metrics[c.TopicID] = m
	}
	return metrics
}

func (p *Pipeline) runLLMEnrichment(ctx context.Context, execution *models.TrendPipelineExecution, stage1 *stage1Output, metrics map[int]temporal.Metrics) []gap.Recommendation {
	p.log.Info("trendpipeline", "stage3_start", "starting stage 3: llm enrichment", nil)
	_ = p.trend.UpdateStageStatus(ctx, execution.ID, 3, models.StageInProgress)

	type ranked struct {
		cluster clustering.Cluster
		metrics temporal.Metrics
	}
	var candidates []ranked
	for _, c := range stage1.clusters.Clusters {
		candidates = append(candidates, ranked{cluster: c, metrics: metrics[c.TopicID]})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].metrics.PotentialScore > candidates[j].metrics.PotentialScore
	})
	topN := p.cfg.LLMTopTopics
	if topN <= 0 || topN > len(candidates) {
		topN = len(candidates)
	}
	candidates = candidates[:topN]

	recsByIndex := make([][]gap.Recommendation, len(candidates))
	jobs := make([]func(context.Context) error, len(candidates))
	for i := range candidates {
		i := i
		jobs[i] = func(jobCtx context.Context) error {
			cand := candidates[i]
			recs := p.enrichOneTopic(jobCtx, execution.ID, cand.cluster, cand.metrics, stage1)
			recsByIndex[i] = recs
			return nil
		}
	}
	p.ioPool.Run(ctx, jobs)

	var all []gap.Recommendation
	for _, r := range recsByIndex {
		all = append(all, r...)
	}

	_ = p.trend.UpdateStageStatus(ctx, execution.ID, 3, models.StageCompleted)
	return all
}

// enrichOneTopic runs SynthesizeTrend + GenerateArticleAngles for one
// cluster, isolating LLM failures to this topic: an error here is logged
// and returns nil, never aborting the pipeline run.
func (p *Pipeline) enrichOneTopic(ctx context.Context, analysisID int64, c clustering.Cluster, m temporal.Metrics, stage1 *stage1Output) []gap.Recommendation {
	keywords := make([]string, 0, len(c.TopTerms))
	for i, t := range c.TopTerms {
		if i >= 10 {
			break
		}
		keywords = append(keywords, t.Term)
	}
	sampleDocs := make([]string, 0, 3)
	for i, idx := range c.MemberIndices {
		if i >= 3 {
			break
		}
		if idx < len(stage1.documents) {
			sampleDocs = append(sampleDocs, documentText(stage1.documents[idx].Payload))
		}
	}

	synthesis, err := p.enricher.SynthesizeTrend(ctx, c.Label, keywords, c.Size, m.VelocityRatio, string(m.VelocityTrend), string(m.DiversityLevel), sampleDocs)
	if err != nil {
		p.log.Warn("trendpipeline", "llm_synthesis_failed", "llm enrichment failed for topic", map[string]any{"topic_id": c.TopicID, "error": err.Error()})
		return nil
	}

	if err := p.trend.CreateTrendAnalysis(ctx, &models.TrendAnalysis{
		TopicClusterID:  int64(c.TopicID),
		Synthesis:       synthesis.Synthesis,
		SaturatedAngles: models.StringList(synthesis.SaturatedAngles),
		Opportunities:   models.StringList(synthesis.Opportunities),
		LLMModelUsed:    p.cfg.LLMModel,
	}); err != nil {
		p.log.Warn("trendpipeline", "trend_analysis_persist_failed", err.Error(), map[string]any{"topic_id": c.TopicID})
	}

	angles, err := p.enricher.GenerateArticleAngles(ctx, c.Label, keywords, synthesis.SaturatedAngles, synthesis.Opportunities, 3)
	if err != nil {
		p.log.Warn("trendpipeline", "llm_angles_failed", "article angle generation failed for topic", map[string]any{"topic_id": c.TopicID, "error": err.Error()})
		return nil
	}

	recs := make([]gap.Recommendation, 0, len(angles))
	for _, a := range angles {
		row := &models.ArticleRecommendation{
			TopicClusterID:       int64(c.TopicID),
			Title:                a.Title,
			Hook:                 a.Hook,
			Outline:              models.StringList(a.Outline),
			DifferentiationScore: a.DifferentiationScore,
			EffortLevel:          models.EffortLevel(a.EffortLevel),
			Status:               models.RecSuggested,
		}
		if err := p.trend.CreateArticleRecommendation(ctx, row); err != nil {
			p.log.Warn("trendpipeline", "recommendation_persist_failed", err.Error(), map[string]any{"topic_id": c.TopicID})
			continue
		}
		recs = append(recs, gap.Recommendation{ID: row.ID, TopicClusterID: row.TopicClusterID, EffortLevel: a.EffortLevel})
	}
	return recs
}

func (p *Pipeline) runGapAnalysis(ctx context.Context, execution *models.TrendPipelineExecution, clientDomain string, stage1 *stage1Output, metrics map[int]temporal.Metrics, recs []gap.Recommendation) (int, error) {
	p.log.Info("trendpipeline", "stage4_start", "starting stage 4: gap analysis", nil)
	if err := p.trend.UpdateStageStatus(ctx, execution.ID, 4, models.StageInProgress); err != nil {
		return 0, err
	}

	members := make([]gap.ClusterMembers, 0, len(stage1.clusters.Clusters))
	for _, c := range stage1.clusters.Clusters {
		var domains []string
		for _, idx := range c.MemberIndices {
			if idx >= len(stage1.documents) {
				continue
			}
			if d, ok := stage1.documents[idx].Payload["domain"].(string); ok {
				domains = append(domains, d)
			}
		}
		members = append(members, gap.ClusterMembers{TopicClusterID: int64(c.TopicID), Label: c.Label, MemberDomains: domains})
	}

	coverage := p.gapA.AnalyzeCoverage(clientDomain, members)

	potentials := map[int64]gap.TopicPotential{}
	for topicID, m := range metrics {
		potentials[int64(topicID)] = gap.TopicPotential{PotentialScore: m.PotentialScore, Velocity: m.VelocityRatio}
	}

	for _, c := range coverage {
		row := &models.ClientCoverageAnalysis{
			ClientDomain:    clientDomain,
			TopicClusterID:  c.TopicClusterID,
			ClientCount:     c.ClientCount,
			CompetitorCount: c.CompetitorCount,
			NumCompetitors:  c.NumCompetitors,
			CoverageScore:   c.Score,
			CoverageLevel:   c.Level,
		}
		if err := p.trend.CreateClientCoverageAnalysis(ctx, row); err != nil {
			p.log.Warn("trendpipeline", "coverage_persist_failed", err.Error(), map[string]any{"topic_cluster_id": c.TopicClusterID})
		}
	}

	gaps := p.gapA.IdentifyGaps(coverage, potentials)
	strengths := p.gapA.IdentifyStrengths(coverage)
	for _, st := range strengths {
		row := &models.ClientStrength{
			ClientDomain:   clientDomain,
			TopicClusterID: st.TopicClusterID,
			Label:          st.Label,
			CoverageScore:  st.CoverageScore,
			AdvantageScore: st.AdvantageScore,
			Description:    st.Description,
		}
		if err := p.trend.CreateClientStrength(ctx, row); err != nil {
			p.log.Warn("trendpipeline", "strength_persist_failed", err.Error(), map[string]any{"topic_cluster_id": st.TopicClusterID})
		}
	}

	// gapIDByTopic maps a gap's (conflated) topic cluster id to its real
	// persisted editorial_gaps.id, so ContentRoadmap.GapID can reference an
	// actual row instead of reusing the topic cluster id.
	gapIDByTopic := make(map[int64]int64, len(gaps))
	for i := range gaps {
		g := &gaps[i]
		row := &models.EditorialGap{
			ClientDomain:    clientDomain,
			TopicClusterID:  g.TopicClusterID,
			CoverageScore:   g.CoverageScore,
			PriorityScore:   g.PriorityScore,
			Diagnostic:      g.Diagnostic,
			OpportunityDesc: g.OpportunityDesc,
			RiskAssessment:  g.RiskAssessment,
		}
		if err := p.trend.CreateEditorialGap(ctx, row); err != nil {
			p.log.Warn("trendpipeline", "gap_persist_failed", err.Error(), map[string]any{"topic_cluster_id": g.TopicClusterID})
			continue
		}
		gapIDByTopic[g.TopicClusterID] = row.ID
	}

	roadmap := p.gapA.BuildRoadmap(gaps, recs)

	items := make([]models.ContentRoadmap, 0, len(roadmap))
	for _, r := range roadmap {
		gapID, ok := gapIDByTopic[r.GapTopicClusterID]
		if !ok {
			p.log.Warn("trendpipeline", "roadmap_gap_missing", "no persisted editorial_gaps row for topic cluster, skipping roadmap item", map[string]any{"topic_cluster_id": r.GapTopicClusterID})
			continue
		}
		items = append(items, models.ContentRoadmap{
			ClientDomain:     clientDomain,
			GapID:            gapID,
			RecommendationID: r.RecommendationID,
			PriorityOrder:    r.PriorityOrder,
			PriorityTier:     r.PriorityTier,
			EstimatedEffort:  r.EstimatedEffort,
		})
	}

	if err := p.trend.SaveRoadmap(ctx, p.tx, clientDomain, items); err != nil {
		return 0, err
	}

	if err := p.trend.UpdateStageStatus(ctx, execution.ID, 4, models.StageCompleted); err != nil {
		return 0, err
	}
	return len(gaps), nil
}

// upsertCentroid best-effort upserts a cluster's centroid vector into the
// centroid collection, returning the point id it was written under. A
// failure (no vector store configured, empty centroid, or a write error) is
// logged and treated as non-fatal: the calling TopicCluster row is still
// persisted, just without a CentroidVectorID.
func (p *Pipeline) upsertCentroid(ctx context.Context, executionID int64, c *clustering.Cluster) (uuid.UUID, bool) {
	if p.vectors == nil || len(c.Centroid) == 0 {
		return uuid.UUID{}, false
	}
	id := uuid.New()
	point := vectorstore.Point{
		ID:     id.String(),
		Vector: c.Centroid,
		Payload: map[string]any{
			"analysis_id": executionID,
			"topic_id":    c.TopicID,
			"label":       c.Label,
		},
	}
	if err := p.vectors.Upsert(ctx, p.cfg.CentroidCollection, []vectorstore.Point{point}); err != nil {
		p.log.Warn("trendpipeline", "centroid_upsert_failed", err.Error(), map[string]any{"topic_id": c.TopicID})
		return uuid.UUID{}, false
	}
	return id, true
}

func documentText(payload map[string]any) string {
	if t, ok := payload["content_text"].(string); ok && t != "" {
		return t
	}
	if t, ok := payload["title"].(string); ok {
		return t
	}
	return ""
}

func parsePayloadDate(payload map[string]any) (time.Time, bool) {
	raw, ok := payload["published_date"].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func toModelTermWeights(terms []clustering.TermWeight) models.TermWeights {
	out := make(models.TermWeights, len(terms))
	for i, t := range terms {
		out[i] = models.TermWeight{Term: t.Term, Weight: t.Weight}
	}
	return out
}
