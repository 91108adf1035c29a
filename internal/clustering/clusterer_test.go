package clustering

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func syntheticEmbeddings(n, dims int, seed int) ([][]float32, []Document) {
	embeddings := make([][]float32, n)
	docs := make([]Document, n)
	state := uint32(seed)
	next := func() float32 {
		state = state*1664525 + 1013904223
		return float32(state%1000) / 1000.0
	}
	for i := 0; i < n; i++ {
		v := make([]float32, dims)
		// cluster members drift around one of three centers
		center := float32(i % 3)
		for d := 0; d < dims; d++ {
			v[d] = center + next()*0.1
		}
		embeddings[i] = v
		docs[i] = Document{ID: uuid.New(), Text: "sample article about technology and markets"}
	}
	return embeddings, docs
}

func TestClusterer_NotEnoughArticles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinArticles = 30
	c := New(cfg)
	embeddings, docs := syntheticEmbeddings(29, 16, 1)
	_, err := c.Cluster(embeddings, docs)
	require.Error(t, err)
	require.Equal(t, "Not enough articles (29). Minimum: 30", err.Error())
}

func TestClusterer_ExactlyMinArticlesSucceeds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinArticles = 30
	cfg.MinClusterSize = 3
	c := New(cfg)
	embeddings, docs := syntheticEmbeddings(30, 16, 2)
	result, err := c.Cluster(embeddings, docs)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(result.Clusters), 1)
	for _, cl := range result.Clusters {
		require.Equal(t, len(cl.MemberIndices), len(cl.MemberIDs))
		for _, idx := range cl.MemberIndices {
			require.GreaterOrEqual(t, idx, 0)
			require.Less(t, idx, 30)
		}
	}
}
