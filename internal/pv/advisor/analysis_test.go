package advisor

import (
	"context"
	"testing"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"github.com/Chihaouimed/PV/internal/shared/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func sampleEvaluations() []entity.Evaluation {
	return []entity.Evaluation{
		{TechnicianRating: 5, TechnicianKnowledge: entity.GradeExcellent, TechnicianProfessionalism: entity.GradeGood,
			TechnicianCommunication: entity.GradePoor, PerformanceRatio: 0.82, InterventionID: ptr("it-1"), TechnicianFeedback: "Très compétent"},
		{TechnicianRating: 4, TechnicianKnowledge: entity.GradeGood, TechnicianProfessionalism: entity.GradeExcellent,
			TechnicianCommunication: entity.GradeAverage, PerformanceRatio: 0.86, InterventionID: ptr("it-2")},
		{TechnicianRating: 1, State: entity.EvalStateCanceled, InterventionID: ptr("it-3")},
		{State: entity.EvalStateDone, InterventionID: ptr("it-2")},
	}
}

func TestComputeStats(t *testing.T) {
	st := ComputeStats("Karim", sampleEvaluations())

	assert.Equal(t, 3, st.EvaluationCount)
	assert.Equal(t, 2, st.RatedCount)
	assert.InDelta(t, 4.5, st.AverageRating, 1e-9)
	assert.Equal(t, map[string]int{"5": 1, "4": 1}, st.RatingDistribution)
	assert.InDelta(t, 3.5, st.KnowledgeScore, 1e-9)
	assert.InDelta(t, 3.5, st.ProfessionalismScore, 1e-9)
	assert.InDelta(t, 1.5, st.CommunicationScore, 1e-9)
	assert.InDelta(t, 0.84, st.AvgPerformanceRatio, 1e-9)
	assert.Equal(t, 2, st.InterventionCount)
	assert.Equal(t, []string{"Très compétent"}, st.RecentFeedback)
}

func TestRatingFromStats(t *testing.T) {
	assert.Equal(t, entity.RatingExcellent, RatingFromStats(TechnicianStats{RatedCount: 2, AverageRating: 4.5}))
	assert.Equal(t, entity.RatingGood, RatingFromStats(TechnicianStats{RatedCount: 2, AverageRating: 3.5}))
	assert.Equal(t, entity.RatingAverage, RatingFromStats(TechnicianStats{RatedCount: 1, AverageRating: 3}))
	assert.Equal(t, entity.RatingNeedsImprovement, RatingFromStats(TechnicianStats{RatedCount: 1, AverageRating: 2}))
	assert.Equal(t, entity.RatingGood, RatingFromStats(TechnicianStats{KnowledgeScore: 3, CommunicationScore: 3}))
	assert.Equal(t, entity.RatingAverage, RatingFromStats(TechnicianStats{}))
}

func TestTechnicianAnalysis_FromModel(t *testing.T) {
	fake := &fakeCompleter{content: `{
		"overall_rating": "good",
		"summary": "Technicien fiable",
		"strengths": ["Rigueur"],
		"improvement_areas": ["Communication"],
		"recommendations": ["Formation relation client", ""]
	}`}
	st := ComputeStats("Karim", sampleEvaluations())

	res, err := New(fake, nil).TechnicianAnalysis(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, entity.PlanSourceAI, res.Source)
	assert.Equal(t, entity.RatingGood, res.OverallRating)
	assert.Equal(t, []string{"Formation relation client"}, res.Recommendations)
	assert.Contains(t, res.HTMLContent, "rating-good")
	assert.Contains(t, res.HTMLContent, "Technicien fiable")
	assert.Contains(t, fake.user, `"technician_name": "Karim"`)
}

func TestTechnicianAnalysis_Fallback(t *testing.T) {
	st := ComputeStats("Karim", sampleEvaluations())

	for name, content := range map[string]string{
		"missing summary": `{"overall_rating":"good"}`,
		"garbage":         `n/a`,
	} {
		t.Run(name, func(t *testing.T) {
			res, err := New(&fakeCompleter{content: content}, nil).TechnicianAnalysis(context.Background(), st)
			require.NoError(t, err)
			assert.Equal(t, entity.PlanSourceFallback, res.Source)
			assert.Equal(t, entity.RatingExcellent, res.OverallRating)
		})
	}

	t.Run("no key", func(t *testing.T) {
		res, err := New(&fakeCompleter{err: llm.ErrNoAPIKey}, nil).TechnicianAnalysis(context.Background(), st)
		require.NoError(t, err)
		assert.Equal(t, entity.PlanSourceFallback, res.Source)
		assert.Contains(t, res.Strengths, "Connaissances techniques solides")
		assert.Contains(t, res.ImprovementAreas, "Communication avec les clients à améliorer")
		assert.Contains(t, res.HTMLContent, "Points forts")
	})

	t.Run("invalid rating is replaced from stats", func(t *testing.T) {
		res, err := New(&fakeCompleter{content: `{"overall_rating":"superb","summary":"ok"}`}, nil).TechnicianAnalysis(context.Background(), st)
		require.NoError(t, err)
		assert.Equal(t, entity.PlanSourceAI, res.Source)
		assert.Equal(t, entity.RatingExcellent, res.OverallRating)
	})
}
