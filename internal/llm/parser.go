// Package llm implements LLMEnricher (C6): trend synthesis, article angle
// generation, and weak-signal analysis over an external chat-completion
// service, plus the five-strategy JSON response parser and the GPU-model
// owner singleton (spec.md §4.6, §5). The parser is grounded verbatim on
// original_source/.../article_enrichment/llm_enricher.py's
// _parse_json_response/_fix_json_common_issues.
package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/agenceeditorial/auditengine/internal/logging"
)

var (
	fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	fencedAnyRe  = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
	trailingCommaBraceRe = regexp.MustCompile(`,\s*}`)
	trailingCommaBracketRe = regexp.MustCompile(`,\s*]`)
	singleQuotedKeyRe = regexp.MustCompile(`'([^']*)':\s*`)
)

// ParseJSONResponse applies the five-strategy parser to an LLM's raw text
// response, in the exact order and fix-then-retry sequence of the original:
// (1) ```json fenced block, (2) generic fenced block, (3) first "{" to last
// "}", (4) whole-response parse, (5) {"raw_response": s} fallback.
func ParseJSONResponse(response string, log *logging.Logger) map[string]any {
	if log == nil {
		log = logging.Global
	}

	if m := fencedJSONRe.FindStringSubmatch(response); m != nil {
		if v, ok := tryParse(m[1]); ok {
			return v
		}
	}

	if m := fencedAnyRe.FindStringSubmatch(response); m != nil {
		candidate := strings.TrimPrefix(strings.TrimSpace(m[1]), "json")
		if v, ok := tryParse(candidate); ok {
			return v
		}
	}

	if start := strings.Index(response, "{"); start >= 0 {
		if end := strings.LastIndex(response, "}"); end > start {
			if v, ok := tryParse(response[start : end+1]); ok {
				return v
			}
		}
	}

	if v, ok := tryParse(response); ok {
		return v
	}

	log.Warn("llm", "json_parse_failed", "all parser strategies failed; returning raw_response stub", nil)
	return map[string]any{"raw_response": response}
}

func tryParse(s string) (map[string]any, bool) {
	var v map[string]any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v, true
	}
	fixed := fixCommonIssues(s)
	if err := json.Unmarshal([]byte(fixed), &v); err == nil {
		return v, true
	}
	return nil, false
}

// fixCommonIssues repairs trailing commas and single-quoted object keys —
// deliberately NOT touching unquoted keys, matching the original's
// documented conservatism (too aggressive a fix breaks otherwise-valid JSON).
func fixCommonIssues(s string) string {
	s = strings.TrimSpace(s)
	s = trailingCommaBraceRe.ReplaceAllString(s, "}")
	s = trailingCommaBracketRe.ReplaceAllString(s, "]")
	s = singleQuotedKeyRe.ReplaceAllString(s, `"$1": `)
	return s
}
