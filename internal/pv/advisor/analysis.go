package advisor

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"github.com/Chihaouimed/PV/internal/shared/llm"
)

// TechnicianStats aggregate of a technician's evaluations
type TechnicianStats struct {
	TechnicianName       string         `json:"technician_name"`
	EvaluationCount      int            `json:"evaluation_count"`
	RatedCount           int            `json:"rated_count"`
	AverageRating        float64        `json:"average_rating"` // 1-5, 0 when unrated
	RatingDistribution   map[string]int `json:"rating_distribution"`
	KnowledgeScore       float64        `json:"knowledge_score"` // 1-4
	ProfessionalismScore float64        `json:"professionalism_score"`
	CommunicationScore   float64        `json:"communication_score"`
	InterventionCount    int            `json:"intervention_count"`
	AvgPerformanceRatio  float64        `json:"avg_performance_ratio"`
	RecentFeedback       []string       `json:"recent_feedback,omitempty"`
}

const maxFeedback = 5

// ComputeStats aggregates evaluations, canceled ones are ignored.
func ComputeStats(name string, evals []entity.Evaluation) TechnicianStats {
	st := TechnicianStats{TechnicianName: name, RatingDistribution: map[string]int{}}

	var ratingSum, prSum float64
	var prCount int
	var know, prof, comm scoreAvg
	interventions := map[string]bool{}

	for _, e := range evals {
		if e.State == entity.EvalStateCanceled {
			continue
		}
		st.EvaluationCount++
		if e.TechnicianRating >= 1 && e.TechnicianRating <= 5 {
			st.RatedCount++
			ratingSum += float64(e.TechnicianRating)
			st.RatingDistribution[fmt.Sprint(e.TechnicianRating)]++
		}
		know.add(entity.GradeScore(e.TechnicianKnowledge))
		prof.add(entity.GradeScore(e.TechnicianProfessionalism))
		comm.add(entity.GradeScore(e.TechnicianCommunication))
		if e.PerformanceRatio > 0 {
			prSum += e.PerformanceRatio
			prCount++
		}
		if e.InterventionID != nil {
			interventions[*e.InterventionID] = true
		}
		if fb := strings.TrimSpace(e.TechnicianFeedback); fb != "" && len(st.RecentFeedback) < maxFeedback {
			st.RecentFeedback = append(st.RecentFeedback, fb)
		}
	}

	if st.RatedCount > 0 {
		st.AverageRating = round2(ratingSum / float64(st.RatedCount))
	}
	if prCount > 0 {
		st.AvgPerformanceRatio = round2(prSum / float64(prCount))
	}
	st.KnowledgeScore = know.value()
	st.ProfessionalismScore = prof.value()
	st.CommunicationScore = comm.value()
	st.InterventionCount = len(interventions)
	return st
}

type scoreAvg struct {
	sum, n int
}

func (s *scoreAvg) add(score int) {
	if score > 0 {
		s.sum += score
		s.n++
	}
}

func (s scoreAvg) value() float64 {
	if s.n == 0 {
		return 0
	}
	return round2(float64(s.sum) / float64(s.n))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PerformanceAnalysis model or fallback assessment of a technician
type PerformanceAnalysis struct {
	OverallRating    string   `json:"overall_rating" validate:"oneof=excellent good average needs_improvement"`
	Summary          string   `json:"summary" validate:"required"`
	Strengths        []string `json:"strengths"`
	ImprovementAreas []string `json:"improvement_areas"`
	Recommendations  []string `json:"recommendations"`
}

func parseAnalysis(raw string) (*PerformanceAnalysis, error) {
	raw = llm.StripFences(raw)
	if !strings.HasPrefix(raw, "{") {
		return nil, fmt.Errorf("analysis is not a JSON object")
	}
	var a PerformanceAnalysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return &a, nil
}

func (a *PerformanceAnalysis) normalize(stats TechnicianStats) {
	a.OverallRating = strings.ToLower(strings.TrimSpace(a.OverallRating))
	if !entity.ValidPerformanceRatings[a.OverallRating] {
		a.OverallRating = RatingFromStats(stats)
	}
	a.Summary = strings.TrimSpace(a.Summary)
	a.Strengths = cleanList(a.Strengths)
	a.ImprovementAreas = cleanList(a.ImprovementAreas)
	a.Recommendations = cleanList(a.Recommendations)
}

// RatingFromStats maps the average rating (or the criteria scores when no
// evaluation carries a rating) onto the four performance ratings.
func RatingFromStats(st TechnicianStats) string {
	if st.RatedCount > 0 {
		switch {
		case st.AverageRating >= 4.5:
			return entity.RatingExcellent
		case st.AverageRating >= 3.5:
			return entity.RatingGood
		case st.AverageRating >= 2.5:
			return entity.RatingAverage
		default:
			return entity.RatingNeedsImprovement
		}
	}
	crit := criteriaAverage(st)
	switch {
	case crit == 0:
		return entity.RatingAverage
	case crit >= 3.5:
		return entity.RatingExcellent
	case crit >= 2.75:
		return entity.RatingGood
	case crit >= 2:
		return entity.RatingAverage
	default:
		return entity.RatingNeedsImprovement
	}
}

func criteriaAverage(st TechnicianStats) float64 {
	var sum float64
	var n int
	for _, v := range []float64{st.KnowledgeScore, st.ProfessionalismScore, st.CommunicationScore} {
		if v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

var criteria = []struct {
	score       func(TechnicianStats) float64
	strength    string
	improvement string
	advice      string
}{
	{
		score:       func(s TechnicianStats) float64 { return s.KnowledgeScore },
		strength:    "Connaissances techniques solides",
		improvement: "Connaissances techniques à renforcer",
		advice:      "Suivre une formation constructeur sur les onduleurs et le diagnostic des strings",
	},
	{
		score:       func(s TechnicianStats) float64 { return s.ProfessionalismScore },
		strength:    "Professionnalisme apprécié des clients",
		improvement: "Professionnalisme à améliorer",
		advice:      "Revoir les procédures d'intervention et de sécurité avec le responsable technique",
	},
	{
		score:       func(s TechnicianStats) float64 { return s.CommunicationScore },
		strength:    "Bonne communication avec les clients",
		improvement: "Communication avec les clients à améliorer",
		advice:      "Systématiser le compte rendu oral au client en fin d'intervention",
	},
}

// FallbackAnalysis deterministic analysis built from the statistics alone.
func FallbackAnalysis(st TechnicianStats) *PerformanceAnalysis {
	a := &PerformanceAnalysis{
		OverallRating:    RatingFromStats(st),
		Strengths:        []string{},
		ImprovementAreas: []string{},
		Recommendations:  []string{},
	}

	if st.RatedCount > 0 {
		a.Summary = fmt.Sprintf("%s a reçu %d évaluation(s), dont %d notée(s), avec une note moyenne de %.2f/5.",
			st.TechnicianName, st.EvaluationCount, st.RatedCount, st.AverageRating)
	} else {
		a.Summary = fmt.Sprintf("%s a reçu %d évaluation(s) sans note globale.", st.TechnicianName, st.EvaluationCount)
	}

	for _, c := range criteria {
		v := c.score(st)
		switch {
		case v >= 3:
			a.Strengths = append(a.Strengths, c.strength)
		case v > 0 && v <= 2:
			a.ImprovementAreas = append(a.ImprovementAreas, c.improvement)
			a.Recommendations = append(a.Recommendations, c.advice)
		}
	}
	if st.AvgPerformanceRatio >= 0.8 {
		a.Strengths = append(a.Strengths, fmt.Sprintf("Installations suivies performantes (PR moyen %.2f)", st.AvgPerformanceRatio))
	}
	if st.RatedCount < 3 {
		a.Recommendations = append(a.Recommendations, "Collecter davantage d'évaluations pour fiabiliser l'analyse")
	}
	if len(a.Recommendations) == 0 {
		a.Recommendations = append(a.Recommendations, "Maintenir le niveau actuel et partager les bonnes pratiques avec l'équipe")
	}
	return a
}
