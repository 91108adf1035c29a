package gap

// Config controls GapAnalyzer thresholds and weights, grounded on
// original_source/.../gap_analyzer.py's GapAnalysisConfig.
type Config struct {
	ExcellentThreshold        float64
	GoodThreshold             float64
	WeakThreshold             float64
	StrengthSignificantThresh float64
	PriorityWeights           map[string]float64
	PriorityDistribution      map[string]int // {high, medium, low}
	EffortDistribution        map[string]float64
	MaxRoadmapItems           int
}

// DefaultConfig matches spec.md §4.7's defaults and the worked example in
// spec.md §8 scenario 6.
func DefaultConfig() Config {
	return Config{
		ExcellentThreshold:        1.5,
		GoodThreshold:             0.8,
		WeakThreshold:             0.3,
		StrengthSignificantThresh: 1.5,
		PriorityWeights: map[string]float64{
			"coverage_gap":        0.35,
			"topic_potential":     0.25,
			"velocity":            0.2,
			"competitor_presence": 0.15,
			"effort_estimate":     0.05,
		},
		PriorityDistribution: map[string]int{"high": 3, "medium": 4, "low": 3},
		EffortDistribution:   map[string]float64{"easy": 0.3, "medium": 0.5, "complex": 0.2},
		MaxRoadmapItems:      10,
	}
}
