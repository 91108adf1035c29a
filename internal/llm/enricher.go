package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agenceeditorial/auditengine/internal/cache"
	"github.com/agenceeditorial/auditengine/internal/logging"
)

// TrendSynthesis is SynthesizeTrend's contract (spec.md §4.6).
type TrendSynthesis struct {
	Synthesis       string   `json:"synthesis"`
	SaturatedAngles []string `json:"saturated_angles"`
	Opportunities   []string `json:"opportunities"`
}

// ArticleAngle is one entry of GenerateArticleAngles' result.
type ArticleAngle struct {
	Title                string   `json:"title"`
	Hook                 string   `json:"hook"`
	Outline              []string `json:"outline"`
	EffortLevel          string   `json:"effort_level"`
	DifferentiationScore float64  `json:"differentiation_score"`
}

// OutlierAnalysis is AnalyzeOutliers' result.
type OutlierAnalysis struct {
	CommonThread       string `json:"common_thread"`
	DisruptionPotential string `json:"disruption_potential"`
	Recommendation     string `json:"recommendation"` // ignore|watch|investigate
}

// Enricher implements LLMEnricher (C6). Its call-shape is reconstructed
// from agent_trend_pipeline.py's _execute_stage_3_llm usage (the original
// LLMEnricher class file itself wasn't among the retrieved original_source
// files); its JSON-handling is grounded on the sibling ArticleLLMEnricher
// implementation's five-strategy parser.
type Enricher struct {
	client  *Client
	model   string
	handles *cache.ModelHandleCache
	owner   *ModelOwner
	log     *logging.Logger
}

// NewEnricher constructs an Enricher bound to one model. owner is the
// process-wide GPU-model owner singleton every inference call acquires
// before talking to the backend and releases afterward, so a concurrent
// vision or image-generation caller never races the text LLM for the same
// device; nil disables the acquire/release dance (single-model deployments
// with no competing GPU consumer).
func NewEnricher(client *Client, model string, owner *ModelOwner, log *logging.Logger) *Enricher {
	if log == nil {
		log = logging.Global
	}
	return &Enricher{client: client, model: model, handles: cache.NewModelHandleCache(), owner: owner, log: log}
}

// withOwner acquires OwnerOllamaLLM for the duration of fn, releasing it
// afterward regardless of outcome. A nil owner runs fn unguarded.
func (e *Enricher) withOwner(fn func() error) error {
	if e.owner == nil {
		return fn()
	}
	if err := e.owner.Acquire(OwnerOllamaLLM); err != nil {
		return err
	}
	defer e.owner.Release()
	return fn()
}

// handle returns (creating if absent) the cached per-model connection
// handle, keyed by "<model>_<timeout>" exactly as the original's
// self._llm_cache was keyed.
func (e *Enricher) handle(timeout time.Duration) any {
	return e.handles.GetOrCreate(e.model, timeout, func() any {
		return e.client
	})
}

// SynthesizeTrend synthesizes a cluster's narrative. Called on top-N
// clusters by potential_score (default 10) by the TrendPipeline stage 3.
func (e *Enricher) SynthesizeTrend(ctx context.Context, label string, keywords []string, volume int, velocity float64, velocityTrend, diversity string, sampleDocs []string) (*TrendSynthesis, error) {
	e.handle(60 * time.Second)
	prompt := buildSynthesisPrompt(label, keywords, volume, velocity, velocityTrend, diversity, sampleDocs)
	var raw string
	err := e.withOwner(func() error {
		var cerr error
		raw, cerr = e.client.Complete(ctx, e.model, prompt)
		return cerr
	})
	if err != nil {
		return nil, err
	}
	parsed := ParseJSONResponse(raw, e.log)
	return &TrendSynthesis{
		Synthesis:       stringField(parsed, "synthesis"),
		SaturatedAngles: stringSliceField(parsed, "saturated_angles"),
		Opportunities:   stringSliceField(parsed, "opportunities"),
	}, nil
}

// GenerateArticleAngles produces n article angle candidates for a cluster.
func (e *Enricher) GenerateArticleAngles(ctx context.Context, label string, keywords, saturatedAngles, opportunities []string, n int) ([]ArticleAngle, error) {
	e.handle(60 * time.Second)
	prompt := buildAnglesPrompt(label, keywords, saturatedAngles, opportunities, n)
	var raw string
	err := e.withOwner(func() error {
		var cerr error
		raw, cerr = e.client.Complete(ctx, e.model, prompt)
		return cerr
	})
	if err != nil {
		return nil, err
	}
	parsed := ParseJSONResponse(raw, e.log)
	items, _ := parsed["angles"].([]any)
	angles := make([]ArticleAngle, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		angles = append(angles, ArticleAngle{
			Title:                stringField(m, "title"),
			Hook:                 stringField(m, "hook"),
			Outline:              stringSliceField(m, "outline"),
			EffortLevel:          stringField(m, "effort_level"),
			DifferentiationScore: floatField(m, "differentiation_score"),
		})
	}
	return angles, nil
}

// AnalyzeOutliers analyzes a batch of weak-signal outlier texts for a
// common thread and disruption potential.
func (e *Enricher) AnalyzeOutliers(ctx context.Context, categories []string, texts []string) (*OutlierAnalysis, error) {
	e.handle(60 * time.Second)
	prompt := buildOutlierPrompt(categories, texts)
	var raw string
	err := e.withOwner(func() error {
		var cerr error
		raw, cerr = e.client.Complete(ctx, e.model, prompt)
		return cerr
	})
	if err != nil {
		return nil, err
	}
	parsed := ParseJSONResponse(raw, e.log)
	return &OutlierAnalysis{
		CommonThread:        stringField(parsed, "common_thread"),
		DisruptionPotential: stringField(parsed, "disruption_potential"),
		Recommendation:      stringField(parsed, "recommendation"),
	}, nil
}

func buildSynthesisPrompt(label string, keywords []string, volume int, velocity float64, velocityTrend, diversity string, samples []string) string {
	return fmt.Sprintf(
		"Topic: %s\nKeywords: %s\nVolume: %d, Velocity: %.2f (%s), Diversity: %s\nSample articles:\n%s\n\nRespond with JSON: {\"synthesis\": str, \"saturated_angles\": [str], \"opportunities\": [str]}",
		label, strings.Join(keywords, ", "), volume, velocity, velocityTrend, diversity, strings.Join(samples, "\n- "))
}

func buildAnglesPrompt(label string, keywords, saturated, opportunities []string, n int) string {
	return fmt.Sprintf(
		"Topic: %s\nKeywords: %s\nSaturated angles: %s\nOpportunities: %s\nGenerate %d article angles as JSON: {\"angles\": [{\"title\":str,\"hook\":str,\"outline\":[str],\"effort_level\":str,\"differentiation_score\":float}]}",
		label, strings.Join(keywords, ", "), strings.Join(saturated, "; "), strings.Join(opportunities, "; "), n)
}

func buildOutlierPrompt(categories, texts []string) string {
	return fmt.Sprintf(
		"Weak-signal outliers, categories: %s\nTexts:\n%s\n\nRespond with JSON: {\"common_thread\":str,\"disruption_potential\":str,\"recommendation\":\"ignore|watch|investigate\"}",
		strings.Join(categories, ", "), strings.Join(texts, "\n- "))
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func stringSliceField(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func floatField(m map[string]any, key string) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return 0
}
