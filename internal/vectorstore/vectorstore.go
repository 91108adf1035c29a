// Package vectorstore is a thin REST client adapter (C2) over an external
// Qdrant-shaped vector database: upsert points, scroll by filter, similarity
// search, and per-domain collection management. Grounded on the call shape
// of original_source/.../embedding_fetcher.py's QdrantClient usage
// (collections/points/scroll endpoints), re-expressed as Go HTTP calls —
// no Qdrant Go SDK exists anywhere in the example pack, so a minimal REST
// client is the honest option rather than inventing an ungrounded dependency.
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Distance is the similarity metric a collection is configured with.
type Distance string

const DistanceCosine Distance = "Cosine"

// Point is one vector entry with its payload metadata.
type Point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Filter is a simplified must-match-any filter over a payload field, the
// only shape EmbeddingFetcher needs (domain ∈ {...}).
type Filter struct {
	Key string
	Any []string
}

// CollectionInfo mirrors the {name, points_count, status, vectors_count}
// shape EmbeddingFetcher.get_collection_info returns.
type CollectionInfo struct {
	Name         string `json:"name"`
	PointsCount  int64  `json:"points_count"`
	Status       string `json:"status"`
	VectorsCount int64  `json:"vectors_count"`
}

// ScrollResult is one page of a Scroll call.
type ScrollResult struct {
	Points     []Point
	NextOffset string // empty means exhausted
}

// Client is an HTTP-backed VectorStore adapter.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New constructs a Client. timeout bounds every request per spec.md §5
// (default 10s for vector-store calls).
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, http: &http.Client{Timeout: timeout}}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("vectorstore: marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("vectorstore: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("vectorstore: request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrCollectionNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("vectorstore: %s %s returned status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("vectorstore: decode response: %w", err)
		}
	}
	return nil
}

// ErrCollectionNotFound is returned when a collection does not exist,
// including by Scroll on a missing collection. CollectionExists does not
// return it: it reports absence as false.
var ErrCollectionNotFound = fmt.Errorf("vectorstore: collection not found")

// ListCollections returns the names of all collections the server hosts.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	var out struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := c.do(ctx, http.MethodGet, "/collections", nil, &out); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(out.Result.Collections))
	for _, col := range out.Result.Collections {
		names = append(names, col.Name)
	}
	return names, nil
}

// CollectionExists reports whether collection is present, never erroring
// on absence (only on genuine transport failures).
func (c *Client) CollectionExists(ctx context.Context, collection string) (bool, error) {
	names, err := c.ListCollections(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == collection {
			return true, nil
		}
	}
	return false, nil
}

// CreateCollection creates collection with the given vector size and
// distance metric. Any error status from the server, including one for a
// collection that already exists, is returned as an error.
func (c *Client) CreateCollection(ctx context.Context, collection string, size int, dist Distance) error {
	body := map[string]any{
		"vectors": map[string]any{"size": size, "distance": dist},
	}
	return c.do(ctx, http.MethodPut, "/collections/"+collection, body, nil)
}

// GetCollectionInfo fetches point-count/status for diagnostics.
func (c *Client) GetCollectionInfo(ctx context.Context, collection string) (*CollectionInfo, error) {
	var out struct {
		Result struct {
			PointsCount  int64  `json:"points_count"`
			VectorsCount *int64 `json:"vectors_count"`
			Status       string `json:"status"`
		} `json:"result"`
	}
	if err := c.do(ctx, http.MethodGet, "/collections/"+collection, nil, &out); err != nil {
		return nil, err
	}
	vc := out.Result.PointsCount
	if out.Result.VectorsCount != nil {
		vc = *out.Result.VectorsCount
	}
	return &CollectionInfo{
		Name:         collection,
		PointsCount:  out.Result.PointsCount,
		Status:       out.Result.Status,
		VectorsCount: vc,
	}, nil
}

// Upsert writes points into collection.
func (c *Client) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	body := map[string]any{"points": points}
	return c.do(ctx, http.MethodPut, "/collections/"+collection+"/points?wait=true", body, nil)
}

// Scroll pages through points matching filter, batchSize per call, starting
// at offset (empty for the first page). withVectors controls payload size.
func (c *Client) Scroll(ctx context.Context, collection string, filter *Filter, batchSize int, offset string, withVectors bool) (*ScrollResult, error) {
	body := map[string]any{
		"limit":        batchSize,
		"with_payload": true,
		"with_vector":  withVectors,
	}
	if offset != "" {
		body["offset"] = offset
	}
	if filter != nil {
		body["filter"] = map[string]any{
			"must": []map[string]any{
				{"key": filter.Key, "match": map[string]any{"any": filter.Any}},
			},
		}
	}
	var out struct {
		Result struct {
			Points []struct {
				ID      any            `json:"id"`
				Vector  []float32      `json:"vector"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
			NextPageOffset any `json:"next_page_offset"`
		} `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, "/collections/"+collection+"/points/scroll", body, &out); err != nil {
		return nil, err
	}
	res := &ScrollResult{}
	for _, p := range out.Result.Points {
		res.Points = append(res.Points, Point{ID: fmt.Sprintf("%v", p.ID), Vector: p.Vector, Payload: p.Payload})
	}
	if out.Result.NextPageOffset != nil {
		res.NextOffset = fmt.Sprintf("%v", out.Result.NextPageOffset)
	}
	return res, nil
}

// Retrieve fetches points by id.
func (c *Client) Retrieve(ctx context.Context, collection string, ids []string) ([]Point, error) {
	body := map[string]any{"ids": ids, "with_payload": true, "with_vector": true}
	var out struct {
		Result []struct {
			ID      any            `json:"id"`
			Vector  []float32      `json:"vector"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, "/collections/"+collection+"/points", body, &out); err != nil {
		return nil, err
	}
	points := make([]Point, 0, len(out.Result))
	for _, p := range out.Result {
		points = append(points, Point{ID: fmt.Sprintf("%v", p.ID), Vector: p.Vector, Payload: p.Payload})
	}
	return points, nil
}

// Search runs a cosine similarity search for the top-k nearest points to
// vector, filtering results below scoreThreshold.
func (c *Client) Search(ctx context.Context, collection string, vector []float32, k int, scoreThreshold float64) ([]Point, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	if scoreThreshold > 0 {
		body["score_threshold"] = scoreThreshold
	}
	var out struct {
		Result []struct {
			ID      any            `json:"id"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, "/collections/"+collection+"/points/search", body, &out); err != nil {
		return nil, err
	}
	points := make([]Point, 0, len(out.Result))
	for _, p := range out.Result {
		points = append(points, Point{ID: fmt.Sprintf("%v", p.ID), Payload: p.Payload})
	}
	return points, nil
}

// NewPointID generates a fresh point identifier.
func NewPointID() string {
	return uuid.New().String()
}
