package gap

import (
	"sort"

	"github.com/agenceeditorial/auditengine/internal/models"
)

// Recommendation is the minimal shape the roadmap builder needs from an
// ArticleRecommendation.
type Recommendation struct {
	ID             int64
	TopicClusterID int64
	EffortLevel    string // easy|medium|complex; defaults to "medium" if unset
}

// RoadmapItem is one constructed roadmap row, pre-persistence.
type RoadmapItem struct {
	PriorityOrder     int
	PriorityTier      models.PriorityTier
	GapTopicClusterID int64
	RecommendationID  int64
	EstimatedEffort   models.EffortLevel
}

// BuildRoadmap assigns gaps (already sorted descending by priority) to
// {high,medium,low} tiers subject to priority_distribution quotas, picks a
// recommendation per gap via the effort-balance rule, and caps the result
// at max_roadmap_items. Grounded line-for-line on gap_analyzer.py's
// build_roadmap/_select_reco_with_effort_balance.
func (a *Analyzer) BuildRoadmap(gaps []models.EditorialGap, recs []Recommendation) []RoadmapItem {
	recoByTopic := map[int64][]Recommendation{}
	for _, r := range recs {
		effort := r.EffortLevel
		if effort == "" {
			effort = "medium"
		}
		r.EffortLevel = effort
		recoByTopic[r.TopicClusterID] = append(recoByTopic[r.TopicClusterID], r)
	}

	maxItems := a.cfg.MaxRoadmapItems
	effortTargets := map[string]int{}
	for effort, frac := range a.cfg.EffortDistribution {
		effortTargets[effort] = int(float64(maxItems) * frac)
	}
	effortCounts := map[string]int{}

	tierCounts := map[string]int{}
	var items []RoadmapItem
	order := 1
	for _, g := range gaps {
		if len(items) >= maxItems {
			break
		}
		tier, ok := assignTier(g.PriorityScore, tierCounts, a.cfg.PriorityDistribution)
		if !ok {
			continue
		}
		topicRecos := recoByTopic[g.TopicClusterID]
		reco, ok := selectRecoWithEffortBalance(topicRecos, effortCounts, effortTargets)
		if !ok {
			continue
		}
		tierCounts[tier]++
		effortCounts[reco.EffortLevel]++
		items = append(items, RoadmapItem{
			PriorityOrder:     order,
			PriorityTier:      models.PriorityTier(tier),
			GapTopicClusterID: g.TopicClusterID,
			RecommendationID:  reco.ID,
			EstimatedEffort:   models.EffortLevel(reco.EffortLevel),
		})
		order++
	}
	return items
}

func assignTier(priorityScore float64, tierCounts map[string]int, distribution map[string]int) (string, bool) {
	switch {
	case priorityScore >= 0.7 && tierCounts["high"] < distribution["high"]:
		return "high", true
	case priorityScore >= 0.4 && tierCounts["medium"] < distribution["medium"]:
		return "medium", true
	case tierCounts["low"] < distribution["low"]:
		return "low", true
	default:
		return "", false
	}
}

// effortOrder is the canonical ordering used to break diff ties
// deterministically (easy before medium before complex), since the
// distribution map itself carries no ordering.
var effortOrder = []string{"easy", "medium", "complex"}

// selectRecoWithEffortBalance sorts effort levels by (target-current)
// descending and picks the first with an available recommendation of that
// effort, falling back to the first recommendation overall.
func selectRecoWithEffortBalance(candidates []Recommendation, effortCounts, effortTargets map[string]int) (Recommendation, bool) {
	if len(candidates) == 0 {
		return Recommendation{}, false
	}
	byEffort := map[string][]Recommendation{}
	for _, c := range candidates {
		byEffort[c.EffortLevel] = append(byEffort[c.EffortLevel], c)
	}
	efforts := make([]string, 0, len(byEffort))
	for _, e := range effortOrder {
		if _, ok := byEffort[e]; ok {
			efforts = append(efforts, e)
		}
	}
	for e := range byEffort {
		found := false
		for _, known := range effortOrder {
			if e == known {
				found = true
				break
			}
		}
		if !found {
			efforts = append(efforts, e)
		}
	}
	sort.SliceStable(efforts, func(i, j int) bool {
		di := effortTargets[efforts[i]] - effortCounts[efforts[i]]
		dj := effortTargets[efforts[j]] - effortCounts[efforts[j]]
		return di > dj
	})
	for _, e := range efforts {
		if len(byEffort[e]) > 0 {
			return byEffort[e][0], true
		}
	}
	return candidates[0], true
}
