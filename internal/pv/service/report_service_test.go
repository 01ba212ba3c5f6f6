package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"github.com/Chihaouimed/PV/internal/pv/repository"
	"github.com/Chihaouimed/PV/internal/pv/testutil"
	"github.com/Chihaouimed/PV/internal/shared/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketsOf(t *testing.T) {
	b := bucketsOf(time.Date(2024, 1, 8, 14, 30, 0, 0, time.UTC))
	assert.Equal(t, Buckets{Year: "2024", Month: "01", Quarter: "Q1", Week: "02", Day: "08", Hour: "14"}, b)

	b = bucketsOf(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "Q4", b.Quarter)
	assert.Equal(t, "01", b.Week, "ISO week of the following year")

	b = bucketsOf(time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2021", b.Year)
	assert.Equal(t, "53", b.Week)
}

func TestReportService_DashboardEmpty(t *testing.T) {
	svcs, _ := setupServices(t, Options{})

	d, err := svcs.Report.Dashboard(context.Background(), repository.Period{})
	require.NoError(t, err)
	assert.Zero(t, d.TotalInstallations)
	assert.Zero(t, d.ResolutionRate)
	assert.Zero(t, d.AvgDelayHours)
	assert.Zero(t, d.PaymentRate)
	assert.InDelta(t, (30 * 24 * time.Hour).Hours(), d.To.Sub(d.From).Hours(), 1e-6)

	_, err = svcs.Report.Dashboard(context.Background(), repository.Period{
		From: time.Now(),
		To:   time.Now().Add(-time.Hour),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

// seedActivity creates two complaints, two interventions (one closed) and
// two responses of 100 paid and 300 unpaid.
func seedActivity(t *testing.T, svcs *Services) (first, second *entity.Intervention) {
	t.Helper()
	ctx := context.Background()

	early := time.Now().Add(-3 * time.Hour)
	late := time.Now().Add(-2 * time.Hour)
	c1, err := svcs.Complaint.Create(ctx, &CreateComplaintInput{
		InstallationID: strPtr("inst-a"),
		OccurredAt:     &early,
		Description:    "Onduleur hors service",
	}, "")
	require.NoError(t, err)
	_, err = svcs.Complaint.Create(ctx, &CreateComplaintInput{
		InstallationID: strPtr("inst-a"),
		OccurredAt:     &late,
		Description:    "Production faible",
	}, "")
	require.NoError(t, err)

	first, err = svcs.Complaint.CreateIntervention(ctx, c1.ID, entity.InterventionRepair, "")
	require.NoError(t, err)
	second, err = svcs.Intervention.Create(ctx, &CreateInterventionInput{
		Type:           entity.InterventionMaintenance,
		InstallationID: strPtr("inst-a"),
		TechnicianID:   strPtr("emp-1"),
	}, "")
	require.NoError(t, err)
	_, err = svcs.Intervention.SetState(ctx, second.ID, entity.InterventionStateClosed)
	require.NoError(t, err)

	_, err = svcs.Intervention.CreateResponse(ctx, second.ID, &ResponseInput{AmountDue: 100, Paid: entity.PaidYes}, "")
	require.NoError(t, err)
	_, err = svcs.Intervention.CreateResponse(ctx, second.ID, &ResponseInput{AmountDue: 300}, "")
	require.NoError(t, err)
	return first, second
}

func TestReportService_Dashboard(t *testing.T) {
	svcs, db := setupServices(t, Options{})
	ctx := context.Background()
	testutil.SeedClient(t, db, "cli-a", "Client A", "")
	testutil.SeedInstallation(t, db, "inst-a", "INST-2024-0001", "cli-a")
	testutil.SeedEmployee(t, db, "emp-1", "Karim")
	_, err := svcs.Installation.Create(ctx, &CreateInstallationInput{Name: "Projet en étude"})
	require.NoError(t, err)
	seedActivity(t, svcs)

	d, err := svcs.Report.Dashboard(ctx, repository.Period{
		From: time.Now().Add(-24 * time.Hour),
		To:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, d.TotalInstallations)
	assert.EqualValues(t, 1, d.ActiveInstallations)
	assert.EqualValues(t, 2, d.TotalComplaints)
	assert.EqualValues(t, 2, d.TotalInterventions)
	assert.InDelta(t, 50, d.ResolutionRate, 1e-9)
	assert.InDelta(t, 3, d.AvgDelayHours, 0.1)
	assert.InDelta(t, 400, d.TotalInvoiced, 1e-9)
	assert.InDelta(t, 100, d.TotalPaid, 1e-9)
	assert.InDelta(t, 25, d.PaymentRate, 1e-9)

	t.Run("period excludes older activity", func(t *testing.T) {
		d, err := svcs.Report.Dashboard(ctx, repository.Period{
			From: time.Now().Add(-48 * time.Hour),
			To:   time.Now().Add(-24 * time.Hour),
		})
		require.NoError(t, err)
		assert.EqualValues(t, 2, d.TotalInstallations)
		assert.Zero(t, d.TotalComplaints)
		assert.Zero(t, d.TotalInterventions)
		assert.Zero(t, d.TotalInvoiced)
	})
}

func TestReportService_Rows(t *testing.T) {
	svcs, db := setupServices(t, Options{})
	ctx := context.Background()
	testutil.SeedClient(t, db, "cli-a", "Client A", "")
	testutil.SeedInstallation(t, db, "inst-a", "INST-2024-0001", "cli-a")
	testutil.SeedEmployee(t, db, "emp-1", "Karim")
	first, second := seedActivity(t, svcs)

	lastMonth := time.Now().AddDate(0, -1, 0)
	_, err := svcs.Intervention.CreateEvaluation(ctx, second.ID, &EvaluationInput{TechnicianRating: 2, EvaluatedOn: &lastMonth}, "")
	require.NoError(t, err)
	_, err = svcs.Intervention.CreateEvaluation(ctx, second.ID, &EvaluationInput{TechnicianRating: 4}, "")
	require.NoError(t, err)
	_, err = svcs.Intervention.CreateEvaluation(ctx, second.ID, &EvaluationInput{}, "")
	require.NoError(t, err)

	period := repository.Period{From: time.Now().Add(-24 * time.Hour), To: time.Now().Add(time.Hour)}

	t.Run("installations", func(t *testing.T) {
		rows, err := svcs.Report.InstallationReport(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Client A", rows[0].ClientName)
		assert.Zero(t, rows[0].ModuleCount)
		assert.Empty(t, rows[0].Year)
	})

	t.Run("complaints", func(t *testing.T) {
		rows, err := svcs.Report.ComplaintReport(ctx, period)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		byCount := map[int]ComplaintReportRow{}
		for _, r := range rows {
			byCount[r.InterventionCount] = r
		}
		assert.InDelta(t, 3, byCount[1].DelayHours, 0.1)
		assert.InDelta(t, 2, byCount[0].DelayHours, 0.1)
		assert.Equal(t, "Centrale INST-2024-0001", byCount[0].InstallationName)
	})

	t.Run("interventions", func(t *testing.T) {
		rows, err := svcs.Report.InterventionReport(ctx, period)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		byID := map[string]InterventionReportRow{}
		for _, r := range rows {
			byID[r.InterventionID] = r
		}

		open := byID[first.ID]
		require.NotNil(t, open.DurationDays)
		assert.Zero(t, open.TotalAmount)
		assert.False(t, open.IsPaid)
		assert.Nil(t, open.TechnicianRating)

		closed := byID[second.ID]
		assert.Equal(t, "Karim", closed.TechnicianName)
		assert.Equal(t, "Client A", closed.ClientName)
		assert.InDelta(t, 400, closed.TotalAmount, 1e-9)
		assert.InDelta(t, 100, closed.PaidAmount, 1e-9)
		assert.False(t, closed.IsPaid)
		require.NotNil(t, closed.DurationDays)
		assert.InDelta(t, 0, *closed.DurationDays, 0.01)
		require.NotNil(t, closed.TechnicianRating)
		assert.Equal(t, 4, *closed.TechnicianRating)
		assert.Equal(t, 1, closed.Count)
	})

	t.Run("export", func(t *testing.T) {
		f, name, err := svcs.Report.Export(ctx, ReportInterventions, period)
		require.NoError(t, err)
		defer f.Close()
		assert.True(t, strings.HasPrefix(name, "pv_interventions_"))

		rows, err := f.GetRows("Interventions")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, interventionExportHeaders[0], rows[0][0])

		_, _, err = svcs.Report.Export(ctx, "weather", period)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestAttachmentService_LocalStore(t *testing.T) {
	store := storage.NewLocalStore(t.TempDir())
	svcs, _ := setupServices(t, Options{Store: store})
	ctx := context.Background()

	att, err := svcs.Attachment.Upload(ctx, &UploadInput{
		OwnerType:   "intervention",
		OwnerID:     "int-1",
		FileName:    "../../photo onduleur.JPG",
		ContentType: "image/jpeg",
		Size:        5,
		Content:     strings.NewReader("jpeg!"),
		UploadedBy:  "test-user-001",
	})
	require.NoError(t, err)
	assert.Equal(t, "photo onduleur.JPG", att.FileName)
	assert.True(t, strings.HasPrefix(att.ObjectKey, "interventions/int-1/"))
	assert.True(t, strings.HasSuffix(att.ObjectKey, ".jpg"))
	assert.Equal(t, storage.BackendLocal, att.Storage)

	list, err := svcs.Attachment.List(ctx, "intervention", "int-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, rc, err := svcs.Attachment.Open(ctx, "intervention", "int-1", att.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "jpeg!", string(data))

	_, _, err = svcs.Attachment.Open(ctx, "intervention", "int-2", att.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, svcs.Attachment.Delete(ctx, "intervention", "int-1", att.ID))
	_, _, err = svcs.Attachment.Open(ctx, "intervention", "int-1", att.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	t.Run("without storage", func(t *testing.T) {
		bare, _ := setupServices(t, Options{})
		_, err := bare.Attachment.Upload(ctx, &UploadInput{FileName: "a.txt", Content: strings.NewReader("a")})
		assert.ErrorIs(t, err, ErrStorageDisabled)
	})
}
