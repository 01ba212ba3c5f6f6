package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"github.com/Chihaouimed/PV/internal/pv/repository"
	"github.com/Chihaouimed/PV/internal/pv/testutil"
	"github.com/Chihaouimed/PV/internal/shared/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

type fakeSender struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (f *fakeSender) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) messages() []mail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mail.Message(nil), f.sent...)
}

func setupServices(t *testing.T, opts Options) (*Services, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	if opts.Logger == nil {
		opts.Logger = testutil.Logger()
	}
	return NewServices(repository.NewRepositories(db), opts), db
}

func TestCatalogService_InverterReferenceUnique(t *testing.T) {
	svcs, _ := setupServices(t, Options{})
	ctx := context.Background()

	inv, err := svcs.Catalog.CreateInverter(ctx, &InverterInput{Reference: " SUN2000-5KTL ", PowerKVA: "5"})
	require.NoError(t, err)
	assert.Equal(t, "SUN2000-5KTL", inv.Reference)

	_, err = svcs.Catalog.CreateInverter(ctx, &InverterInput{Reference: "SUN2000-5KTL"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	_, err = svcs.Catalog.CreateInverter(ctx, &InverterInput{Reference: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	t.Run("update keeping its own reference", func(t *testing.T) {
		updated, err := svcs.Catalog.UpdateInverter(ctx, inv.ID, &InverterInput{Reference: "SUN2000-5KTL", PowerKVA: "6"})
		require.NoError(t, err)
		assert.Equal(t, "6", updated.PowerKVA)
	})
}

func TestCatalogService_ModuleReference(t *testing.T) {
	svcs, _ := setupServices(t, Options{})
	ctx := context.Background()

	first, err := svcs.Catalog.CreateModule(ctx, &ModuleInput{Power: "550 Wc"})
	require.NoError(t, err)
	second, err := svcs.Catalog.CreateModule(ctx, &ModuleInput{Power: "410 Wc"})
	require.NoError(t, err)

	year := time.Now().Year()
	assert.Equal(t, fmt.Sprintf("PVM-%d-0001", year), first.Reference)
	assert.Equal(t, fmt.Sprintf("PVM-%d-0002", year), second.Reference)
}

func TestInstallationService_CreateWithEquipment(t *testing.T) {
	svcs, db := setupServices(t, Options{})
	ctx := context.Background()
	testutil.SeedClient(t, db, "cli-1", "Société Solaire", "contact@solaire.tn")

	mod, err := svcs.Catalog.CreateModule(ctx, &ModuleInput{Power: "550 Wc"})
	require.NoError(t, err)
	inv, err := svcs.Catalog.CreateInverter(ctx, &InverterInput{Reference: "SG10RT"})
	require.NoError(t, err)

	inst, err := svcs.Installation.Create(ctx, &CreateInstallationInput{
		Name:        "Toiture entrepôt",
		ClientID:    strPtr("cli-1"),
		Type:        entity.InstallationTypeResidential,
		ModuleIDs:   []string{mod.ID, mod.ID},
		InverterIDs: []string{inv.ID},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(inst.Code, "INST-"))
	assert.Equal(t, entity.InstallationStateDraft, inst.State)
	assert.Len(t, inst.Modules, 1)
	assert.Len(t, inst.Inverters, 1)

	t.Run("unknown equipment", func(t *testing.T) {
		_, err := svcs.Installation.SetEquipment(ctx, inst.ID, []string{"missing"}, nil)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := svcs.Installation.Create(ctx, &CreateInstallationInput{Name: "X", Type: "spatial"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("state machine", func(t *testing.T) {
		got, err := svcs.Installation.SetState(ctx, inst.ID, entity.InstallationStateInProgress)
		require.NoError(t, err)
		assert.Equal(t, entity.InstallationStateInProgress, got.State)

		_, err = svcs.Installation.SetState(ctx, inst.ID, "exploded")
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestResponseService_CreateAndMarkPaid(t *testing.T) {
	svcs, db := setupServices(t, Options{})
	ctx := context.Background()
	testutil.SeedClient(t, db, "cli-1", "Client", "")
	testutil.SeedInstallation(t, db, "inst-1", "INST-2024-0001", "cli-1")

	it, err := svcs.Intervention.Create(ctx, &CreateInterventionInput{
		Type:           entity.InterventionMaintenance,
		InstallationID: strPtr("inst-1"),
	}, "test-user-001")
	require.NoError(t, err)
	assert.Equal(t, "Zone industrielle, Sfax", it.Address)

	resp, err := svcs.Intervention.CreateResponse(ctx, it.ID, &ResponseInput{AmountDue: 150}, "test-user-001")
	require.NoError(t, err)
	assert.Equal(t, entity.PaidNo, resp.Paid)
	assert.False(t, resp.ClosedAt.IsZero())

	paid, err := svcs.Response.MarkPaid(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaidYes, paid.Paid)

	_, err = svcs.Response.Create(ctx, &ResponseInput{InterventionID: it.ID, AmountDue: -1}, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svcs.Response.Create(ctx, &ResponseInput{InterventionID: it.ID, Paid: "maybe"}, "")
	assert.ErrorIs(t, err, ErrValidation)

	n, err := svcs.Intervention.ResponseCount(ctx, it.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
