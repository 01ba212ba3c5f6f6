package service

import (
	"context"
	"strings"
	"testing"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"github.com/Chihaouimed/PV/internal/pv/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluationService_Relations(t *testing.T) {
	svcs, db := setupServices(t, Options{})
	ctx := context.Background()
	testutil.SeedClient(t, db, "cli-a", "Client A", "")
	testutil.SeedClient(t, db, "cli-b", "Client B", "")
	testutil.SeedInstallation(t, db, "inst-a", "INST-2024-0001", "cli-a")
	testutil.SeedInstallation(t, db, "inst-b", "INST-2024-0002", "cli-b")
	testutil.SeedEmployee(t, db, "emp-1", "Karim")

	it, err := svcs.Intervention.Create(ctx, &CreateInterventionInput{
		Type:           entity.InterventionMaintenance,
		InstallationID: strPtr("inst-a"),
		TechnicianID:   strPtr("emp-1"),
	}, "")
	require.NoError(t, err)

	t.Run("technician taken from the intervention", func(t *testing.T) {
		ev, err := svcs.Evaluation.Create(ctx, &EvaluationInput{
			InstallationID:   "inst-a",
			InterventionID:   &it.ID,
			TechnicianRating: 4,
			PanelCondition:   entity.GradeGood,
		}, "")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(ev.Name, "EVAL-"))
		assert.Equal(t, "cli-a", *ev.ClientID)
		require.NotNil(t, ev.TechnicianID)
		assert.Equal(t, "emp-1", *ev.TechnicianID)
		assert.Equal(t, entity.EvalStateDraft, ev.State)
	})

	t.Run("installation of another client", func(t *testing.T) {
		_, err := svcs.Evaluation.Create(ctx, &EvaluationInput{
			ClientID:       strPtr("cli-b"),
			InstallationID: "inst-a",
		}, "")
		assert.ErrorIs(t, err, ErrDomainMismatch)
	})

	t.Run("intervention on another installation", func(t *testing.T) {
		_, err := svcs.Evaluation.Create(ctx, &EvaluationInput{
			InstallationID: "inst-b",
			InterventionID: &it.ID,
		}, "")
		assert.ErrorIs(t, err, ErrDomainMismatch)
	})

	t.Run("field checks", func(t *testing.T) {
		for name, in := range map[string]*EvaluationInput{
			"no installation": {},
			"rating too high": {InstallationID: "inst-a", TechnicianRating: 6},
			"unknown grade":   {InstallationID: "inst-a", InverterCondition: "superb"},
			"negative energy": {InstallationID: "inst-a", EnergyProduced: -3},
		} {
			_, err := svcs.Evaluation.Create(ctx, in, "")
			assert.ErrorIs(t, err, ErrValidation, name)
		}
	})

	t.Run("prefilled from the intervention", func(t *testing.T) {
		ev, err := svcs.Intervention.CreateEvaluation(ctx, it.ID, &EvaluationInput{TechnicianRating: 5}, "")
		require.NoError(t, err)
		assert.Equal(t, "inst-a", ev.InstallationID)
		assert.Equal(t, "cli-a", *ev.ClientID)
		assert.Equal(t, it.ID, *ev.InterventionID)

		done, err := svcs.Evaluation.SetState(ctx, ev.ID, entity.EvalStateDone)
		require.NoError(t, err)
		assert.Equal(t, entity.EvalStateDone, done.State)

		_, err = svcs.Evaluation.SetState(ctx, ev.ID, "archived")
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestTechnicianService_AnalyzePerformance(t *testing.T) {
	svcs, db := setupServices(t, Options{})
	ctx := context.Background()
	testutil.SeedClient(t, db, "cli-a", "Client A", "")
	testutil.SeedInstallation(t, db, "inst-a", "INST-2024-0001", "cli-a")
	testutil.SeedEmployee(t, db, "emp-1", "Karim")

	t.Run("without evaluations", func(t *testing.T) {
		out, err := svcs.Technician.AnalyzePerformance(ctx, "emp-1")
		require.NoError(t, err)
		assert.False(t, out.Success)
		assert.Equal(t, "Aucune évaluation trouvée pour Karim.", out.Message)
		assert.Nil(t, out.Analysis)

		emp, err := svcs.Technician.Get(ctx, "emp-1")
		require.NoError(t, err)
		assert.Empty(t, emp.PerformanceRating)
	})

	it, err := svcs.Intervention.Create(ctx, &CreateInterventionInput{
		Type:           entity.InterventionMaintenance,
		InstallationID: strPtr("inst-a"),
		TechnicianID:   strPtr("emp-1"),
	}, "")
	require.NoError(t, err)
	for _, rating := range []int{5, 4} {
		_, err := svcs.Intervention.CreateEvaluation(ctx, it.ID, &EvaluationInput{
			TechnicianRating:    rating,
			TechnicianKnowledge: entity.GradeExcellent,
		}, "")
		require.NoError(t, err)
	}

	t.Run("statistics fallback without a model", func(t *testing.T) {
		out, err := svcs.Technician.AnalyzePerformance(ctx, "emp-1")
		require.NoError(t, err)
		assert.True(t, out.Success)
		require.NotNil(t, out.Analysis)
		assert.Equal(t, entity.PlanSourceFallback, out.Analysis.Source)
		assert.Equal(t, 2, out.Analysis.Stats.EvaluationCount)

		emp, err := svcs.Technician.Get(ctx, "emp-1")
		require.NoError(t, err)
		assert.Equal(t, entity.RatingExcellent, emp.PerformanceRating)
		assert.NotEmpty(t, emp.AIAnalysisHTML)
		assert.NotNil(t, emp.LastAIAnalysisAt)
		assert.EqualValues(t, 2, emp.EvaluationCount)
	})

	_, err = svcs.Technician.AnalyzePerformance(ctx, "missing")
	assert.Error(t, err)
}

func TestTechnicianService_CreateInactive(t *testing.T) {
	svcs, _ := setupServices(t, Options{})
	ctx := context.Background()

	inactive := false
	e, err := svcs.Technician.Create(ctx, &EmployeeInput{Name: "Sami", Active: &inactive})
	require.NoError(t, err)

	got, err := svcs.Technician.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	_, err = svcs.Technician.Create(ctx, &EmployeeInput{Name: " "})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestInterventionService_UpdateKeepsEvaluationsInStep(t *testing.T) {
	svcs, db := setupServices(t, Options{})
	ctx := context.Background()
	testutil.SeedClient(t, db, "cli-a", "Client A", "")
	testutil.SeedInstallation(t, db, "inst-a", "INST-2024-0001", "cli-a")
	testutil.SeedInstallation(t, db, "inst-b", "INST-2024-0002", "cli-a")
	testutil.SeedEmployee(t, db, "emp-1", "Karim")
	testutil.SeedEmployee(t, db, "emp-2", "Amira")

	it, err := svcs.Intervention.Create(ctx, &CreateInterventionInput{
		Type:           entity.InterventionMaintenance,
		InstallationID: strPtr("inst-a"),
		TechnicianID:   strPtr("emp-1"),
	}, "")
	require.NoError(t, err)
	ev, err := svcs.Intervention.CreateEvaluation(ctx, it.ID, &EvaluationInput{TechnicianRating: 4}, "")
	require.NoError(t, err)
	require.Equal(t, "emp-1", *ev.TechnicianID)

	t.Run("reassigned technician follows", func(t *testing.T) {
		_, err := svcs.Intervention.Update(ctx, it.ID, &UpdateInterventionInput{TechnicianID: strPtr("emp-2")})
		require.NoError(t, err)

		got, err := svcs.Evaluation.Get(ctx, ev.ID)
		require.NoError(t, err)
		require.NotNil(t, got.TechnicianID)
		assert.Equal(t, "emp-2", *got.TechnicianID)

		old, err := svcs.Technician.ListEvaluations(ctx, "emp-1")
		require.NoError(t, err)
		assert.Empty(t, old)
		current, err := svcs.Technician.ListEvaluations(ctx, "emp-2")
		require.NoError(t, err)
		assert.Len(t, current, 1)
	})

	t.Run("installation is locked once evaluated", func(t *testing.T) {
		_, err := svcs.Intervention.Update(ctx, it.ID, &UpdateInterventionInput{InstallationID: strPtr("inst-b")})
		assert.ErrorIs(t, err, ErrDomainMismatch)

		got, err := svcs.Intervention.Get(ctx, it.ID)
		require.NoError(t, err)
		assert.Equal(t, "inst-a", *got.InstallationID)
	})
}
