// Package gap implements GapAnalyzer (C7): per-cluster coverage scoring,
// gap/strength identification, and roadmap construction. Grounded
// line-for-line on original_source/.../gap_analyzer.py.
package gap

import (
	"math"
	"sort"

	"github.com/agenceeditorial/auditengine/internal/models"
)

// ClusterMembers is the per-cluster membership view the analyzer needs:
// which domains published into this cluster.
type ClusterMembers struct {
	TopicClusterID int64
	Label          string
	MemberDomains  []string // one entry per member article
}

// Coverage is one cluster's coverage score, pre-sort.
type Coverage struct {
	TopicClusterID  int64
	Label           string
	ClientCount     int
	CompetitorCount int
	NumCompetitors  int
	Score           float64
	Level           models.CoverageLevel
}

// Analyzer computes coverage, gaps, strengths, and the roadmap.
type Analyzer struct {
	cfg Config
}

// New constructs an Analyzer.
func New(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// AnalyzeCoverage computes Coverage for every cluster, sorted ascending by
// score (gaps first), exactly as gap_analyzer.py's analyze_coverage does.
func (a *Analyzer) AnalyzeCoverage(clientDomain string, clusters []ClusterMembers) []Coverage {
	out := make([]Coverage, 0, len(clusters))
	for _, c := range clusters {
		if len(c.MemberDomains) == 0 {
			continue
		}
		clientCount, competitorCount := 0, 0
		domains := map[string]struct{}{}
		for _, d := range c.MemberDomains {
			domains[d] = struct{}{}
			if d == clientDomain {
				clientCount++
			} else {
				competitorCount++
			}
		}
		var score float64
		if competitorCount > 0 {
			numCompetitors := len(domains)
			if _, hasClient := domains[clientDomain]; hasClient {
				numCompetitors--
			}
			avgCompetitor := float64(competitorCount)
			if numCompetitors > 0 {
				avgCompetitor = float64(competitorCount) / float64(numCompetitors)
			}
			if avgCompetitor > 0 {
				score = float64(clientCount) / avgCompetitor
			}
		} else if clientCount > 0 {
			score = 1.0
		}
		out = append(out, Coverage{
			TopicClusterID:  c.TopicClusterID,
			Label:           c.Label,
			ClientCount:     clientCount,
			CompetitorCount: competitorCount,
			NumCompetitors:  len(domains),
			Score:           round4(score),
			Level:           a.classifyLevel(score),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	return out
}

func (a *Analyzer) classifyLevel(score float64) models.CoverageLevel {
	switch {
	case score >= a.cfg.ExcellentThreshold:
		return models.CoverageExcellent
	case score >= a.cfg.GoodThreshold:
		return models.CoverageGood
	case score >= a.cfg.WeakThreshold:
		return models.CoverageWeak
	default:
		return models.CoverageGap
	}
}

// TopicPotential supplies TemporalAnalyzer output the priority-score
// formula needs, keyed by TopicClusterID.
type TopicPotential struct {
	PotentialScore float64
	Velocity       float64
}

// IdentifyGaps filters coverage rows to level ∈ {gap, weak}, computes
// priority_score, and sorts descending by priority.
func (a *Analyzer) IdentifyGaps(coverage []Coverage, potentials map[int64]TopicPotential) []models.EditorialGap {
	var gaps []models.EditorialGap
	for _, c := range coverage {
		if c.Level != models.CoverageGap && c.Level != models.CoverageWeak {
			continue
		}
		pot := potentials[c.TopicClusterID]
		priority := a.calculatePriorityScore(c.Score, pot.PotentialScore, pot.Velocity, c.NumCompetitors)
		gaps = append(gaps, models.EditorialGap{
			TopicClusterID:  c.TopicClusterID,
			Label:           c.Label,
			CoverageScore:   c.Score,
			PriorityScore:   priority,
			Diagnostic:      buildDiagnostic(c),
			OpportunityDesc: buildOpportunity(c),
			RiskAssessment:  buildRisk(c.Score, pot.Velocity, c.NumCompetitors),
		})
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i].PriorityScore > gaps[j].PriorityScore })
	return gaps
}

// IdentifyStrengths filters coverage rows at/above the significance
// threshold, sorted descending by advantage.
func (a *Analyzer) IdentifyStrengths(coverage []Coverage) []models.ClientStrength {
	var strengths []models.ClientStrength
	for _, c := range coverage {
		if c.Score < a.cfg.StrengthSignificantThresh {
			continue
		}
		strengths = append(strengths, models.ClientStrength{
			TopicClusterID: c.TopicClusterID,
			Label:          c.Label,
			CoverageScore:  c.Score,
			AdvantageScore: round4(c.Score - 1.0),
			Description:    buildStrengthDescription(c),
		})
	}
	sort.Slice(strengths, func(i, j int) bool { return strengths[i].AdvantageScore > strengths[j].AdvantageScore })
	return strengths
}

func (a *Analyzer) calculatePriorityScore(coverageScore, topicPotential, velocity float64, numSources int) float64 {
	coverageGap := 1 - math.Min(coverageScore, 1.0)
	if topicPotential == 0 {
		topicPotential = 0.5
	}
	velocityScore := math.Min(velocity/2.0, 1.0)
	competitorScore := math.Min(float64(numSources)/10.0, 1.0)
	effortScore := 0.5

	w := a.cfg.PriorityWeights
	score := coverageGap*w["coverage_gap"] + topicPotential*w["topic_potential"] + velocityScore*w["velocity"] + competitorScore*w["competitor_presence"] + effortScore*w["effort_estimate"]
	return round4(score)
}

func buildDiagnostic(c Coverage) string {
	return "Critical gap on '" + c.Label + "': client coverage significantly trails competitors."
}

func buildStrengthDescription(c Coverage) string {
	return "Client leads competitors on '" + c.Label + "' with sustained editorial coverage."
}

func buildOpportunity(c Coverage) string {
	return "Opportunity to establish editorial presence on '" + c.Label + "'."
}

func buildRisk(coverageScore, velocity float64, numSources int) string {
	switch {
	case coverageScore < 0.1 && velocity > 1.5 && numSources >= 5:
		return "high"
	case coverageScore < 0.3 && velocity > 1.0:
		return "medium"
	default:
		return "low"
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
