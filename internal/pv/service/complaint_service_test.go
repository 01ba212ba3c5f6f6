package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"github.com/Chihaouimed/PV/internal/pv/testutil"
	"github.com/Chihaouimed/PV/internal/shared/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplaintService_Create(t *testing.T) {
	svcs, db := setupServices(t, Options{})
	ctx := context.Background()
	testutil.SeedClient(t, db, "cli-a", "Client A", "a@test.tn")
	testutil.SeedClient(t, db, "cli-b", "Client B", "b@test.tn")
	testutil.SeedInstallation(t, db, "inst-a", "INST-2024-0001", "cli-a")

	t.Run("client and address come from the installation", func(t *testing.T) {
		c, err := svcs.Complaint.Create(ctx, &CreateComplaintInput{
			InstallationID: strPtr("inst-a"),
			Description:    "Onduleur en panne, aucune production depuis ce matin",
		}, "test-user-001")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(c.Name, "REC-"))
		assert.Equal(t, "cli-a", *c.ClientID)
		assert.Equal(t, "Zone industrielle, Sfax", c.Address)
		assert.Equal(t, entity.PriorityHigh, c.Priority)
		assert.Equal(t, entity.PartInverter, c.Category)
		assert.Equal(t, entity.ComplaintStateOpen, c.State)
	})

	t.Run("installation of another client", func(t *testing.T) {
		_, err := svcs.Complaint.Create(ctx, &CreateComplaintInput{
			ClientID:       strPtr("cli-b"),
			InstallationID: strPtr("inst-a"),
			Description:    "Compteur bloqué",
		}, "")
		assert.ErrorIs(t, err, ErrDomainMismatch)
	})

	t.Run("explicit priority is kept", func(t *testing.T) {
		c, err := svcs.Complaint.Create(ctx, &CreateComplaintInput{
			Description: "Incendie sur le toit",
			Priority:    entity.PriorityLow,
		}, "")
		require.NoError(t, err)
		assert.Equal(t, entity.PriorityLow, c.Priority)

		_, err = svcs.Complaint.Create(ctx, &CreateComplaintInput{Description: "x", Priority: "urgent"}, "")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("category follows the alarm part", func(t *testing.T) {
		testutil.SeedAlarm(t, db, "alarm-1", entity.PartModule, "M-01", "Point chaud détecté")
		c, err := svcs.Complaint.Create(ctx, &CreateComplaintInput{
			InstallationID: strPtr("inst-a"),
			AlarmCodeID:    strPtr("alarm-1"),
			Description:    "Le client signale une alarme sur l'onduleur",
		}, "")
		require.NoError(t, err)
		assert.Equal(t, entity.PartModule, c.Category)
	})

	t.Run("description is required", func(t *testing.T) {
		_, err := svcs.Complaint.Create(ctx, &CreateComplaintInput{Description: "   "}, "")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestComplaintService_ActionPlan(t *testing.T) {
	svcs, db := setupServices(t, Options{})
	ctx := context.Background()
	testutil.SeedAlarm(t, db, "alarm-1", entity.PartInverter, "E-017", "Défaut isolement")

	without, err := svcs.Complaint.Create(ctx, &CreateComplaintInput{Description: "Production faible"}, "")
	require.NoError(t, err)
	_, err = svcs.Complaint.ActionPlan(ctx, without.ID)
	assert.ErrorIs(t, err, ErrNoAlarmCode)

	with, err := svcs.Complaint.Create(ctx, &CreateComplaintInput{
		Description: "Alarme E-017",
		AlarmCodeID: strPtr("alarm-1"),
	}, "")
	require.NoError(t, err)

	alarm, err := svcs.Complaint.ActionPlan(ctx, with.ID)
	require.NoError(t, err)
	assert.True(t, alarm.HasPlan())
	assert.Equal(t, entity.PlanSourceFallback, alarm.PlanSource)
	assert.NotEmpty(t, alarm.ActionPlan)

	again, err := svcs.Complaint.ActionPlan(ctx, with.ID)
	require.NoError(t, err)
	assert.Equal(t, alarm.ActionPlanHTML, again.ActionPlanHTML)
}

func TestComplaintService_Close(t *testing.T) {
	sender := &fakeSender{}
	svcs, db := setupServices(t, Options{Mailer: sender})
	ctx := context.Background()
	testutil.SeedClient(t, db, "cli-a", "Client A", "client@test.tn")
	testutil.SeedInstallation(t, db, "inst-a", "INST-2024-0001", "cli-a")

	c, err := svcs.Complaint.Create(ctx, &CreateComplaintInput{
		InstallationID: strPtr("inst-a"),
		Description:    "Disjoncteur déclenché",
	}, "")
	require.NoError(t, err)

	closed, err := svcs.Complaint.Close(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ComplaintStateClosed, closed.State)
	require.NotNil(t, closed.ClosedAt)

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "client@test.tn", msgs[0].To)
	assert.Contains(t, msgs[0].Subject, c.Name)
	assert.Contains(t, msgs[0].PlainBody, "Centrale INST-2024-0001")

	_, err = svcs.Complaint.Close(ctx, c.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	t.Run("no mail without client address", func(t *testing.T) {
		other, err := svcs.Complaint.Create(ctx, &CreateComplaintInput{Description: "Câble arraché"}, "")
		require.NoError(t, err)
		_, err = svcs.Complaint.SetState(ctx, other.ID, entity.ComplaintStateClosed)
		require.NoError(t, err)
		assert.Len(t, sender.messages(), 1)
	})
}

func TestComplaintService_CreateIntervention(t *testing.T) {
	svcs, db := setupServices(t, Options{})
	ctx := context.Background()
	testutil.SeedClient(t, db, "cli-a", "Client A", "")
	testutil.SeedInstallation(t, db, "inst-a", "INST-2024-0001", "cli-a")
	testutil.SeedInstallation(t, db, "inst-b", "INST-2024-0002", "cli-a")
	testutil.SeedAlarm(t, db, "alarm-1", entity.PartInverter, "E-017", "Défaut isolement")

	c, err := svcs.Complaint.Create(ctx, &CreateComplaintInput{
		InstallationID: strPtr("inst-a"),
		AlarmCodeID:    strPtr("alarm-1"),
		Description:    "Alarme isolement",
	}, "")
	require.NoError(t, err)

	it, err := svcs.Complaint.CreateIntervention(ctx, c.ID, entity.InterventionRepair, "test-user-001")
	require.NoError(t, err)
	assert.Equal(t, "inst-a", *it.InstallationID)
	assert.Equal(t, c.ID, *it.ComplaintID)
	assert.Equal(t, "Défaut isolement", it.AlarmCode)
	assert.Equal(t, entity.InterventionStateDraft, it.State)

	n, err := svcs.Complaint.InterventionCount(ctx, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	t.Run("installation must match the complaint", func(t *testing.T) {
		_, err := svcs.Intervention.Create(ctx, &CreateInterventionInput{
			Type:           entity.InterventionRepair,
			ComplaintID:    &c.ID,
			InstallationID: strPtr("inst-b"),
		}, "")
		assert.ErrorIs(t, err, ErrDomainMismatch)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := svcs.Complaint.CreateIntervention(ctx, c.ID, "teleportation", "")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestComplaintService_CloseDoesNotWaitOnBusyPools(t *testing.T) {
	ctx := context.Background()
	aiPool, err := worker.NewPool(ctx, "ai", 1, nil)
	require.NoError(t, err)
	mailPool, err := worker.NewPool(ctx, "mail", 1, nil, worker.Nonblocking())
	require.NoError(t, err)

	release := make(chan struct{})
	busy := make(chan struct{}, 2)
	for _, p := range []*worker.Pool{aiPool, mailPool} {
		require.NoError(t, p.Submit(ctx, func(context.Context) {
			busy <- struct{}{}
			<-release
		}))
	}
	<-busy
	<-busy
	defer func() {
		close(release)
		aiPool.Shutdown(time.Second)
		mailPool.Shutdown(time.Second)
	}()

	sender := &fakeSender{}
	svcs, db := setupServices(t, Options{Mailer: sender, Pool: aiPool, MailPool: mailPool})
	testutil.SeedClient(t, db, "cli-a", "Client A", "client@test.tn")
	testutil.SeedInstallation(t, db, "inst-a", "INST-2024-0001", "cli-a")

	c, err := svcs.Complaint.Create(ctx, &CreateComplaintInput{
		InstallationID: strPtr("inst-a"),
		Description:    "Onduleur en défaut",
	}, "")
	require.NoError(t, err)

	begin := time.Now()
	closed, err := svcs.Complaint.Close(ctx, c.ID)
	require.NoError(t, err)
	assert.Less(t, time.Since(begin), 500*time.Millisecond)
	assert.Equal(t, entity.ComplaintStateClosed, closed.State)

	assert.Eventually(t, func() bool { return len(sender.messages()) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestComplaintService_AddressFollowsInstallation(t *testing.T) {
	svcs, db := setupServices(t, Options{})
	ctx := context.Background()
	testutil.SeedClient(t, db, "cli-a", "Client A", "")
	testutil.SeedInstallation(t, db, "inst-a", "INST-2024-0001", "cli-a")

	c, err := svcs.Complaint.Create(ctx, &CreateComplaintInput{
		InstallationID: strPtr("inst-a"),
		Description:    "Production nulle",
	}, "")
	require.NoError(t, err)
	require.Equal(t, "Zone industrielle, Sfax", c.Address)

	_, err = svcs.Installation.Update(ctx, "inst-a", &UpdateInstallationInput{Address: strPtr("Route de Gabès km 4, Sfax")})
	require.NoError(t, err)

	got, err := svcs.Complaint.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Route de Gabès km 4, Sfax", got.Address)

	items, _, err := svcs.Complaint.List(ctx, 1, 20, map[string]string{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Route de Gabès km 4, Sfax", items[0].Address)

	it, err := svcs.Complaint.CreateIntervention(ctx, c.ID, entity.InterventionRepair, "")
	require.NoError(t, err)
	assert.Equal(t, "Route de Gabès km 4, Sfax", it.Address)
}
