package clustering

import "math"

// reduceDimensions projects an N×D embedding matrix down to targetDims
// using a deterministic random projection (Johnson–Lindenstrauss), a
// neighborhood-distance-preserving stand-in for a full UMAP implementation
// — no dimensionality-reduction library exists anywhere in the example
// pack to ground a richer version on (see DESIGN.md). The projection is
// seeded so repeated runs on identical input are reproducible, matching
// the "verify by fixing seed" expectation in spec.md §8.
func reduceDimensions(vectors [][]float32, targetDims int, seed int64) [][]float64 {
	if len(vectors) == 0 {
		return nil
	}
	srcDims := len(vectors[0])
	if targetDims <= 0 || targetDims >= srcDims {
		targetDims = srcDims
	}
	proj := randomProjectionMatrix(srcDims, targetDims, seed)
	out := make([][]float64, len(vectors))
	for i, v := range vectors {
		row := make([]float64, targetDims)
		for j := 0; j < targetDims; j++ {
			var sum float64
			for k := 0; k < srcDims && k < len(v); k++ {
				sum += float64(v[k]) * proj[j][k]
			}
			row[j] = sum
		}
		out[i] = row
	}
	return out
}

// randomProjectionMatrix builds a deterministic pseudo-random Gaussian-ish
// projection matrix using a simple linear congruential generator, avoiding
// a dependency on math/rand's global state for reproducibility across runs.
func randomProjectionMatrix(srcDims, targetDims int, seed int64) [][]float64 {
	state := uint64(seed) | 1
	next := func() float64 {
		state = state*6364136223846793005 + 1442695040888963407
		// map to roughly N(0,1) via Box-Muller on two uniform draws
		u1 := float64(state>>11) / float64(1<<53)
		state = state*6364136223846793005 + 1442695040888963407
		u2 := float64(state>>11) / float64(1<<53)
		if u1 < 1e-12 {
			u1 = 1e-12
		}
		return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	}
	scale := 1.0 / math.Sqrt(float64(targetDims))
	m := make([][]float64, targetDims)
	for i := range m {
		m[i] = make([]float64, srcDims)
		for j := range m[i] {
			m[i][j] = next() * scale
		}
	}
	return m
}
