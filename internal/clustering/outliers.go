package clustering

import (
	"math"
	"strings"
)

// categoryKeywords is a small rule-based lexicon used to assign a
// potential_category to an outlier from its text, per spec.md §4.4's
// "rule-based potential_category from keyword heuristics" requirement.
var categoryKeywords = map[string][]string{
	"emerging_tech":    {"ai", "blockchain", "quantum", "robotics", "automation"},
	"regulatory":       {"regulation", "compliance", "law", "policy", "legal"},
	"market_movement":  {"acquisition", "merger", "funding", "ipo", "valuation"},
	"consumer_trend":   {"consumer", "lifestyle", "demand", "behavior"},
	"niche_interest":   {},
}

// classifyOutlier assigns a potential_category by keyword presence,
// defaulting to "niche_interest" when nothing matches.
func classifyOutlier(text string) string {
	lower := strings.ToLower(text)
	for category, keywords := range categoryKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return category
			}
		}
	}
	return "niche_interest"
}

// Outlier is one topic_id=-1 point surfaced with its nearest cluster and
// distance, rather than silently dropped (spec.md §4.4).
type Outlier struct {
	Index             int
	NearestTopicID    int
	EmbeddingDistance float64
	PotentialCategory string
}

// findOutliers computes, for every noise-labeled point, its nearest
// cluster centroid and distance.
func findOutliers(embeddings [][]float32, labels []int, centroids map[int][]float32, texts []string) []Outlier {
	var outliers []Outlier
	for i, label := range labels {
		if label != -1 {
			continue
		}
		nearestTopic := -1
		nearestDist := math.Inf(1)
		for topic, c := range centroids {
			d := euclideanF32(embeddings[i], c)
			if d < nearestDist {
				nearestDist = d
				nearestTopic = topic
			}
		}
		text := ""
		if i < len(texts) {
			text = texts[i]
		}
		outliers = append(outliers, Outlier{
			Index:             i,
			NearestTopicID:    nearestTopic,
			EmbeddingDistance: nearestDist,
			PotentialCategory: classifyOutlier(text),
		})
	}
	return outliers
}

func euclideanF32(a, b []float32) float64 {
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
