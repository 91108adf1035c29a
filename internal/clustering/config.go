package clustering

// Config controls every stage of the clustering pipeline (spec.md §4.4).
type Config struct {
	MinArticles      int // fail the stage below this many input documents
	MaxArticles      int // spec.md §5's upper compute bound
	ReducedDims      int // target dimensionality of the UMAP-style projection
	MinClusterSize   int // HDBSCAN-style minimum cluster size
	NeighborhoodSize int // k for the neighborhood-preserving projection
	TopTermsCount    int // terms kept per cluster's top_terms
	LabelTermCount   int // terms concatenated to form a cluster label
	RandomSeed       int64
}

// DefaultConfig mirrors the original pipeline's defaults.
func DefaultConfig() Config {
	return Config{
		MinArticles:      30,
		MaxArticles:      50000,
		ReducedDims:      8,
		MinClusterSize:   5,
		NeighborhoodSize: 15,
		TopTermsCount:    10,
		LabelTermCount:   3,
		RandomSeed:       42,
	}
}
