// Package clustering implements Clusterer (C4): dimensionality reduction,
// density clustering, class-based TF-IDF labeling, coherence scoring,
// centroid computation, and outlier surfacing. No UMAP/HDBSCAN/TF-IDF
// library exists anywhere in the example pack (see DESIGN.md) — this is
// a from-scratch numeric implementation grounded on spec.md §4.4's
// design-level algorithm description.
package clustering

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Cluster is one density-coherent group of embeddings, pre-persistence.
type Cluster struct {
	TopicID        int
	Label          string
	TopTerms       []TermWeight
	MemberIndices  []int
	MemberIDs      []uuid.UUID
	Centroid       []float32
	CoherenceScore float64
}

// Document is the minimal shape the clusterer needs per input item.
type Document struct {
	ID   uuid.UUID
	Text string
}

// Result is the full output of one Cluster call.
type Result struct {
	Clusters []Cluster
	Outliers []Outlier
	Dropped  int
}

// ErrNotEnoughArticles is returned when fewer than cfg.MinArticles
// documents are given, reproducing the original pipeline's exact message.
type ErrNotEnoughArticles struct {
	Got, Min int
}

func (e *ErrNotEnoughArticles) Error() string {
	return fmt.Sprintf("Not enough articles (%d). Minimum: %d", e.Got, e.Min)
}

// Clusterer runs the full clustering algorithm over a fixed embedding set.
type Clusterer struct {
	cfg Config
}

// New constructs a Clusterer.
func New(cfg Config) *Clusterer {
	return &Clusterer{cfg: cfg}
}

// Cluster runs the six-step algorithm from spec.md §4.4 over embeddings and
// their paired documents (same length, same order). NaN rows must already
// be filtered by the caller (EmbeddingFetcher does this); Cluster itself
// enforces the min_articles floor and max_articles ceiling.
func (c *Clusterer) Cluster(embeddings [][]float32, docs []Document) (*Result, error) {
	if len(embeddings) != len(docs) {
		return nil, fmt.Errorf("clustering: embeddings/docs length mismatch: %d vs %d", len(embeddings), len(docs))
	}
	if len(embeddings) < c.cfg.MinArticles {
		return nil, &ErrNotEnoughArticles{Got: len(embeddings), Min: c.cfg.MinArticles}
	}
	if c.cfg.MaxArticles > 0 && len(embeddings) > c.cfg.MaxArticles {
		embeddings = embeddings[:c.cfg.MaxArticles]
		docs = docs[:c.cfg.MaxArticles]
	}

	reduced := reduceDimensions(embeddings, c.cfg.ReducedDims, c.cfg.RandomSeed)
	labels := densityCluster(reduced, c.cfg.MinClusterSize)

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	termsByLabel := classBasedTFIDF(labels, texts, c.cfg.TopTermsCount)

	membersByLabel := map[int][]int{}
	for i, l := range labels {
		if l == -1 {
			continue
		}
		membersByLabel[l] = append(membersByLabel[l], i)
	}

	centroids := map[int][]float32{}
	clusters := make([]Cluster, 0, len(membersByLabel))
	for label, indices := range membersByLabel {
		members := make([][]float32, len(indices))
		memberIDs := make([]uuid.UUID, len(indices))
		for i, idx := range indices {
			members[i] = embeddings[idx]
			memberIDs[i] = docs[idx].ID
		}
		cen := centroid(members, true)
		centroids[label] = cen
		terms := termsByLabel[label]
		clusters = append(clusters, Cluster{
			TopicID:        label,
			Label:          buildLabel(terms, c.cfg.LabelTermCount),
			TopTerms:       terms,
			MemberIndices:  indices,
			MemberIDs:      memberIDs,
			Centroid:       cen,
			CoherenceScore: coherenceScore(members),
		})
	}

	// Tie-break: spec.md §4.4 — "two clusters tying on top term → tie-break
	// by higher coherence, then lower topic_id." Sort deterministically so
	// persistence order is stable.
	sort.Slice(clusters, func(i, j int) bool {
		ti, tj := leadTerm(clusters[i].TopTerms), leadTerm(clusters[j].TopTerms)
		if ti != tj {
			return ti < tj
		}
		if clusters[i].CoherenceScore != clusters[j].CoherenceScore {
			return clusters[i].CoherenceScore > clusters[j].CoherenceScore
		}
		return clusters[i].TopicID < clusters[j].TopicID
	})

	outliers := findOutliers(embeddings, labels, centroids, texts)

	return &Result{Clusters: clusters, Outliers: outliers}, nil
}

func leadTerm(terms []TermWeight) string {
	if len(terms) == 0 {
		return ""
	}
	return terms[0].Term
}
