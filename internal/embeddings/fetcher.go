// Package embeddings implements EmbeddingFetcher (C3): retrieval of article
// embeddings and payload metadata for a set of domains and a time window.
// Grounded line-for-line on original_source/.../embedding_fetcher.py.
package embeddings

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/agenceeditorial/auditengine/internal/logging"
	"github.com/agenceeditorial/auditengine/internal/vectorstore"
)

// Config configures fetch behavior.
type Config struct {
	CollectionPrefix    string
	BatchSize           int
	NormalizeEmbeddings bool
}

// DefaultConfig matches the original's defaults (batch_size=1000,
// normalize_embeddings=true when configured upstream).
func DefaultConfig() Config {
	return Config{CollectionPrefix: "articles__", BatchSize: 1000, NormalizeEmbeddings: true}
}

// Document is one fetched embedding plus its payload metadata, augmented
// with its position (Index) and fetched point id (DocumentID), mirroring
// the original's per-point "index"/"document_id" metadata fields.
type Document struct {
	Index      int
	DocumentID string
	Embedding  []float32
	Payload    map[string]any
}

// Fetcher retrieves embeddings from the vector store for the clustering
// stage.
type Fetcher struct {
	client *vectorstore.Client
	cfg    Config
	log    *logging.Logger
}

// New constructs a Fetcher.
func New(client *vectorstore.Client, cfg Config, log *logging.Logger) *Fetcher {
	if log == nil {
		log = logging.Global
	}
	return &Fetcher{client: client, cfg: cfg, log: log}
}

// FetchResult is the (embeddings, metadata, ids) triple spec.md §4.3 names.
type FetchResult struct {
	Embeddings [][]float32
	Documents  []Document
	Dropped    int // rows dropped for NaN/date-filter/nil-vector reasons
}

// Fetch retrieves embeddings for domains within maxAgeDays (0 = no cutoff),
// capped at limit (0 = unlimited). It never errors on a missing or empty
// collection — it logs a diagnostic and returns an empty result, per
// spec.md §4.2/§4.3.
func (f *Fetcher) Fetch(ctx context.Context, collection string, domains []string, maxAgeDays int, limit int) (*FetchResult, error) {
	exists, err := f.client.CollectionExists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		f.log.Error("embeddings", "collection_missing",
			"collection does not exist; run the scraping pipeline first",
			map[string]any{"collection": collection})
		return &FetchResult{}, nil
	}
	info, err := f.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return nil, err
	}
	if info.PointsCount == 0 {
		f.log.Warn("embeddings", "collection_empty", "collection has zero points", map[string]any{"collection": collection})
		return &FetchResult{}, nil
	}

	var cutoff time.Time
	hasCutoff := maxAgeDays > 0
	if hasCutoff {
		cutoff = time.Now().UTC().AddDate(0, 0, -maxAgeDays)
	}

	var filter *vectorstore.Filter
	if len(domains) > 0 {
		filter = &vectorstore.Filter{Key: "domain", Any: domains}
	}

	batch := f.cfg.BatchSize
	if batch <= 0 {
		batch = 1000
	}

	var result FetchResult
	offset := ""
	totalScanned := 0
	for {
		page, err := f.client.Scroll(ctx, collection, filter, batch, offset, true)
		if err != nil {
			msg := err.Error()
			category := "unknown_error"
			switch {
			case strings.Contains(msg, "not found") || strings.Contains(msg, "doesn't exist"):
				category = "collection_not_found"
			case strings.Contains(msg, "timeout") || strings.Contains(msg, "connection"):
				category = "connection_error"
			}
			f.log.Error("embeddings", "scroll_error", err.Error(), map[string]any{"category": category})
			break
		}
		for _, point := range page.Points {
			totalScanned++
			if len(point.Vector) == 0 {
				result.Dropped++
				continue
			}
			if hasCutoff {
				keep := true
				if raw, ok := point.Payload["published_date"].(string); ok {
					pub, perr := parseISODate(raw)
					if perr == nil {
						if pub.Before(cutoff) {
							keep = false
						}
					}
					// parse failure: keep the article anyway (original's behavior)
				}
				if !keep {
					result.Dropped++
					continue
				}
			}
			if hasNaN(point.Vector) {
				result.Dropped++
				continue
			}
			idx := len(result.Documents)
			result.Embeddings = append(result.Embeddings, point.Vector)
			result.Documents = append(result.Documents, Document{
				Index:      idx,
				DocumentID: point.ID,
				Embedding:  point.Vector,
				Payload:    point.Payload,
			})
			if limit > 0 && len(result.Documents) >= limit {
				offset = ""
				break
			}
		}
		if offset = page.NextOffset; offset == "" || (limit > 0 && len(result.Documents) >= limit) {
			break
		}
	}

	if f.cfg.NormalizeEmbeddings {
		normalizeRows(result.Embeddings)
	}

	if totalScanned == 0 && len(domains) > 0 {
		f.diagnoseEmptyDomainFilter(ctx, collection)
	}

	return &result, nil
}

// diagnoseEmptyDomainFilter samples the collection without a filter to log
// which domains are actually present, mirroring the original's
// misconfiguration diagnostic.
func (f *Fetcher) diagnoseEmptyDomainFilter(ctx context.Context, collection string) {
	page, err := f.client.Scroll(ctx, collection, nil, 10, "", false)
	if err != nil || len(page.Points) == 0 {
		f.log.Warn("embeddings", "diagnosis", "collection appears to be empty", nil)
		return
	}
	seen := map[string]struct{}{}
	for _, p := range page.Points {
		if d, ok := p.Payload["domain"].(string); ok {
			seen[d] = struct{}{}
		}
	}
	domains := make([]string, 0, len(seen))
	for d := range seen {
		domains = append(domains, d)
	}
	f.log.Warn("embeddings", "diagnosis",
		"collection contains articles from different domains",
		map[string]any{"available_domains": domains})
}

func parseISODate(raw string) (time.Time, error) {
	s := raw
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func hasNaN(v []float32) bool {
	for _, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return true
		}
	}
	return false
}

func normalizeRows(rows [][]float32) {
	for i, row := range rows {
		var sumSq float64
		for _, x := range row {
			sumSq += float64(x) * float64(x)
		}
		norm := math.Sqrt(sumSq)
		if norm == 0 {
			norm = 1
		}
		for j := range row {
			rows[i][j] = float32(float64(row[j]) / norm)
		}
	}
}
