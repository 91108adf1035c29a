// Package temporal implements TemporalAnalyzer (C5): per-cluster windowed
// metrics (volume, velocity, freshness, source diversity, cohesion, drift,
// potential score). Grounded line-for-line on
// original_source/.../temporal_analyzer.py.
package temporal

import (
	"math"
	"sort"
	"time"

	"github.com/agenceeditorial/auditengine/internal/models"
)

// Document is the minimal per-article shape the analyzer needs.
type Document struct {
	Domain        string
	PublishedDate time.Time
	HasDate       bool
	Index         int // position into the embedding matrix, for cohesion/drift
}

// Metrics is one topic's computed temporal snapshot.
type Metrics struct {
	TopicID         int
	Volume          int
	VelocityRatio   float64
	VelocityTrend   models.VelocityTrend
	FreshnessRatio  float64
	FreshnessTrend  models.FreshnessTrend
	SourceDiversity int
	DiversityLevel  models.DiversityLevel
	CohesionScore   *float64
	PotentialScore  float64
	DriftDetected   bool
	DriftDistance   *float64
	WindowVolumes   map[string]int
	WindowRatios    map[string]float64
}

// Analyzer computes temporal metrics per topic.
type Analyzer struct {
	cfg Config
}

// New constructs an Analyzer.
func New(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// AnalyzeTopic computes Metrics for one topic's documents. embeddings and
// centroid are optional (nil skips cohesion/drift).
func (a *Analyzer) AnalyzeTopic(topicID int, docs []Document, embeddings [][]float32, centroid []float32) Metrics {
	dated := make([]Document, 0, len(docs))
	for _, d := range docs {
		if d.HasDate {
			dated = append(dated, d)
		}
	}
	if len(dated) == 0 {
		return emptyMetrics(topicID)
	}

	total := len(dated)
	now := time.Now().UTC()

	windowVolumes := map[string]int{}
	windowRatios := map[string]float64{}
	for _, w := range a.cfg.Windows {
		cutoff := now.AddDate(0, 0, -w.Days)
		count := 0
		for _, d := range dated {
			if !d.PublishedDate.Before(cutoff) {
				count++
			}
		}
		windowVolumes[w.Name] = count
		windowRatios[w.Name] = float64(count) / float64(total)
	}

	vol7 := windowVolumes["7d"]
	vol30 := windowVolumes["30d"]
	velocity := 1.0
	if vol30 > 0 && vol7 > 0 {
		rate7 := float64(vol7) / 7.0
		rate30 := float64(vol30) / 30.0
		if rate30 > 0 {
			velocity = rate7 / rate30
		}
	}

	freshnessRatio := windowRatios["7d"]

	domains := map[string]struct{}{}
	for _, d := range dated {
		domains[d.Domain] = struct{}{}
	}
	sourceDiversity := len(domains)

	var cohesion *float64
	if embeddings != nil {
		if v, ok := a.calculateCohesion(dated, embeddings); ok {
			cohesion = &v
		}
	}

	var driftDetected bool
	var driftDistance *float64
	if a.cfg.DriftDetectionEnabled && centroid != nil && embeddings != nil {
		detected, distance, ok := a.detectDrift(dated, embeddings, centroid, now)
		if ok {
			driftDetected = detected
			driftDistance = &distance
		}
	}

	potential := a.calculatePotentialScore(velocity, freshnessRatio, sourceDiversity, cohesion, total)

	return Metrics{
		TopicID:         topicID,
		Volume:          total,
		VelocityRatio:   round4(velocity),
		VelocityTrend:   a.classifyVelocity(velocity),
		FreshnessRatio:  round4(freshnessRatio),
		FreshnessTrend:  a.classifyFreshness(freshnessRatio),
		SourceDiversity: sourceDiversity,
		DiversityLevel:  a.classifyDiversity(sourceDiversity),
		CohesionScore:   cohesion,
		PotentialScore:  potential,
		DriftDetected:   driftDetected,
		DriftDistance:   driftDistance,
		WindowVolumes:   windowVolumes,
		WindowRatios:    windowRatios,
	}
}

// AnalyzeAll computes Metrics for every topic, sorted descending by
// PotentialScore per the original pipeline's top-N selection contract.
func (a *Analyzer) AnalyzeAll(docsByTopic map[int][]Document, embeddingsByTopic map[int][][]float32, centroidByTopic map[int][]float32) []Metrics {
	out := make([]Metrics, 0, len(docsByTopic))
	for topicID, docs := range docsByTopic {
		out = append(out, a.AnalyzeTopic(topicID, docs, embeddingsByTopic[topicID], centroidByTopic[topicID]))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PotentialScore > out[j].PotentialScore })
	return out
}

func emptyMetrics(topicID int) Metrics {
	return Metrics{
		TopicID:        topicID,
		VelocityRatio:  1.0,
		VelocityTrend:  models.VelocityStable,
		FreshnessRatio: 0,
		FreshnessTrend: models.FreshnessCold,
		DiversityLevel: "unknown",
	}
}

func (a *Analyzer) classifyVelocity(v float64) models.VelocityTrend {
	switch {
	case v >= a.cfg.AccelerationThreshold:
		return models.VelocityAccelerating
	case v <= a.cfg.DecelerationThreshold:
		return models.VelocityDecelerating
	default:
		return models.VelocityStable
	}
}

func (a *Analyzer) classifyFreshness(r float64) models.FreshnessTrend {
	switch {
	case r >= a.cfg.HotThreshold:
		return models.FreshnessHot
	case r <= a.cfg.ColdThreshold:
		return models.FreshnessCold
	default:
		return models.FreshnessWarm
	}
}

func (a *Analyzer) classifyDiversity(n int) models.DiversityLevel {
	switch {
	case n >= a.cfg.MainstreamThreshold:
		return models.DiversityMainstream
	case n <= a.cfg.NicheThreshold:
		return models.DiversityNiche
	default:
		return models.DiversityModerate
	}
}

// calculateCohesion is mean pairwise cosine similarity among the topic's
// member embeddings, excluding self-pairs, exactly as
// temporal_analyzer.py's _calculate_cohesion computes it.
func (a *Analyzer) calculateCohesion(docs []Document, embeddings [][]float32) (float64, bool) {
	indices := make([]int, 0, len(docs))
	for _, d := range docs {
		if d.Index >= 0 && d.Index < len(embeddings) {
			indices = append(indices, d.Index)
		}
	}
	n := len(indices)
	if n <= 1 {
		return 1.0, true
	}
	var sum float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			sum += cosine(embeddings[indices[i]], embeddings[indices[j]])
		}
	}
	total := sum / float64(n*(n-1))
	return total, true
}

// detectDrift compares the centroid of last-7d members to the persisted
// centroid, requiring >=3 recent and >=3 older members.
func (a *Analyzer) detectDrift(docs []Document, embeddings [][]float32, persistedCentroid []float32, now time.Time) (detected bool, distance float64, ok bool) {
	cutoff7 := now.AddDate(0, 0, -7)
	cutoff30 := now.AddDate(0, 0, -30)
	var recent, older []int
	for _, d := range docs {
		if d.Index < 0 || d.Index >= len(embeddings) {
			continue
		}
		if !d.PublishedDate.Before(cutoff7) {
			recent = append(recent, d.Index)
		} else if !d.PublishedDate.Before(cutoff30) {
			older = append(older, d.Index)
		}
	}
	if len(recent) < 3 || len(older) < 3 {
		return false, 0, false
	}
	recentCentroid := meanVector(embeddings, recent)
	distance = l2Distance(recentCentroid, persistedCentroid)
	return distance > a.cfg.DriftThreshold, distance, true
}

func (a *Analyzer) calculatePotentialScore(velocity, freshnessRatio float64, sourceDiversity int, cohesion *float64, totalCount int) float64 {
	velocityScore := math.Min(velocity/2.0, 1.0)
	freshnessScore := math.Min(freshnessRatio/0.5, 1.0)
	diversityScore := math.Min(float64(sourceDiversity)/10.0, 1.0)
	cohesionNormalized := 0.5
	if cohesion != nil {
		cohesionNormalized = *cohesion
	}
	sizeScore := math.Min(float64(totalCount)/100.0, 1.0)

	w := a.cfg.PotentialScoreWeights
	score := velocityScore*w["velocity"] + freshnessScore*w["freshness"] + diversityScore*w["diversity"] + cohesionNormalized*w["cohesion"] + sizeScore*w["size"]
	return round4(score)
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func meanVector(embeddings [][]float32, indices []int) []float32 {
	if len(indices) == 0 {
		return nil
	}
	dims := len(embeddings[indices[0]])
	sum := make([]float64, dims)
	for _, idx := range indices {
		for i, v := range embeddings[idx] {
			sum[i] += float64(v)
		}
	}
	out := make([]float32, dims)
	for i := range sum {
		out[i] = float32(sum[i] / float64(len(indices)))
	}
	return out
}

func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		if i >= len(b) {
			break
		}
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
