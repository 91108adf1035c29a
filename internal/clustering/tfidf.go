package clustering

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenRe = regexp.MustCompile(`[a-zA-Z]{3,}`)
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {},
	"all": {}, "can": {}, "has": {}, "have": {}, "this": {}, "that": {}, "with": {},
	"from": {}, "was": {}, "were": {}, "will": {}, "your": {}, "its": {}, "into": {},
	"about": {}, "their": {}, "they": {}, "them": {}, "than": {}, "then": {},
}

func tokenize(text string) []string {
	toks := tokenRe.FindAllString(strings.ToLower(text), -1)
	out := toks[:0]
	for _, t := range toks {
		if _, stop := stopwords[t]; !stop {
			out = append(out, t)
		}
	}
	return out
}

// classBasedTFIDF computes term importance per cluster by treating each
// cluster's concatenated document text as one "class" document, per
// spec.md §4.4 step 3 (class-based TF-IDF across cluster-document joined
// texts). Returns, per cluster label, the topK terms ordered by weight
// descending.
func classBasedTFIDF(labels []int, texts []string, topK int) map[int][]TermWeight {
	classText := map[int][]string{}
	for i, label := range labels {
		classText[label] = append(classText[label], tokenize(texts[i])...)
	}

	docFreq := map[string]int{}
	classTermFreq := map[int]map[string]int{}
	for label, toks := range classText {
		tf := map[string]int{}
		for _, tok := range toks {
			tf[tok]++
		}
		classTermFreq[label] = tf
		for term := range tf {
			docFreq[term]++
		}
	}
	numClasses := float64(len(classText))

	result := make(map[int][]TermWeight, len(classText))
	for label, tf := range classTermFreq {
		totalInClass := 0
		for _, c := range tf {
			totalInClass += c
		}
		if totalInClass == 0 {
			continue
		}
		weights := make([]TermWeight, 0, len(tf))
		for term, count := range tf {
			termFreq := float64(count) / float64(totalInClass)
			idf := math.Log(1 + numClasses/float64(1+docFreq[term]))
			weights = append(weights, TermWeight{Term: term, Weight: termFreq * idf})
		}
		sort.Slice(weights, func(i, j int) bool {
			if weights[i].Weight != weights[j].Weight {
				return weights[i].Weight > weights[j].Weight
			}
			return weights[i].Term < weights[j].Term
		})
		if topK > 0 && len(weights) > topK {
			weights = weights[:topK]
		}
		result[label] = weights
	}
	return result
}

// TermWeight mirrors models.TermWeight without importing models, kept local
// to this package's computation boundary and converted at the call site.
type TermWeight struct {
	Term   string
	Weight float64
}

// buildLabel concatenates the top N terms into a human label, lowercased
// and trimmed per spec.md §4.4 step 4.
func buildLabel(terms []TermWeight, n int) string {
	if len(terms) == 0 {
		return "uncategorized"
	}
	if n > len(terms) {
		n = len(terms)
	}
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, strings.TrimSpace(strings.ToLower(terms[i].Term)))
	}
	return strings.Join(parts, " ")
}
