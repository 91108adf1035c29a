package temporal

// Window is one rolling window the analyzer computes volume/ratio for.
type Window struct {
	Name string
	Days int
}

// Config controls TemporalAnalyzer thresholds and weights, grounded on
// original_source/.../temporal_analyzer.py's TemporalConfig.
type Config struct {
	Windows                 []Window
	AccelerationThreshold   float64
	DecelerationThreshold   float64
	HotThreshold            float64
	ColdThreshold           float64
	MainstreamThreshold     int
	NicheThreshold          int
	DriftDetectionEnabled   bool
	DriftThreshold          float64
	PotentialScoreWeights   map[string]float64
}

// DefaultConfig matches spec.md §4.5's defaults exactly.
func DefaultConfig() Config {
	return Config{
		Windows: []Window{
			{Name: "7d", Days: 7},
			{Name: "30d", Days: 30},
			{Name: "90d", Days: 90},
			{Name: "365d", Days: 365},
		},
		AccelerationThreshold: 1.5,
		DecelerationThreshold: 0.67,
		HotThreshold:          0.4,
		ColdThreshold:         0.05,
		MainstreamThreshold:   5,
		NicheThreshold:        1,
		DriftDetectionEnabled: true,
		DriftThreshold:        0.3,
		PotentialScoreWeights: map[string]float64{
			"velocity":  0.3,
			"freshness": 0.25,
			"diversity": 0.15,
			"cohesion":  0.2,
			"size":      0.1,
		},
	}
}
