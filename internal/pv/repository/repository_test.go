package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"github.com/Chihaouimed/PV/internal/pv/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestSequenceRepository_GenerateCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewSequenceRepository(db)
	ctx := context.Background()

	first, err := repo.GenerateCode(ctx, SeqComplaint, 2024)
	require.NoError(t, err)
	assert.Equal(t, "REC-2024-0001", first)

	second, err := repo.GenerateCode(ctx, SeqComplaint, 2024)
	require.NoError(t, err)
	assert.Equal(t, "REC-2024-0002", second)

	t.Run("counters are per code and year", func(t *testing.T) {
		code, err := repo.GenerateCode(ctx, SeqComplaint, 2025)
		require.NoError(t, err)
		assert.Equal(t, "REC-2025-0001", code)

		code, err = repo.GenerateCode(ctx, SeqIntervention, 2024)
		require.NoError(t, err)
		assert.Equal(t, "INT-2024-0001", code)
	})
}

func TestInverterRepository_DuplicateReference(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewInverterRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.Inverter{ID: "inv-1", Reference: "SUN2000-5KTL"}))
	err := repo.Create(ctx, &entity.Inverter{ID: "inv-2", Reference: "SUN2000-5KTL"})
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := repo.FindByReference(ctx, "SUN2000-5KTL")
	require.NoError(t, err)
	assert.Equal(t, "inv-1", found.ID)

	_, err = repo.FindByReference(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAlarmRepository_FindByKeyAndHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewAlarmRepository(db)
	ctx := context.Background()

	brand := &entity.InverterBrand{ID: "brand-1", Name: "Huawei"}
	require.NoError(t, db.Create(brand).Error)
	require.NoError(t, repo.Create(ctx, &entity.AlarmCode{ID: "al-1", Part: entity.PartInverter, BrandID: strPtr("brand-1"), Code: "2001", Name: "Tension DC élevée"}))
	require.NoError(t, repo.Create(ctx, &entity.AlarmCode{ID: "al-2", Part: entity.PartModule, Code: "M01", Name: "Point chaud"}))

	found, err := repo.FindByKey(ctx, entity.PartInverter, strPtr("brand-1"), "2001")
	require.NoError(t, err)
	assert.Equal(t, "al-1", found.ID)

	found, err = repo.FindByKey(ctx, entity.PartModule, nil, "M01")
	require.NoError(t, err)
	assert.Equal(t, "al-2", found.ID)

	_, err = repo.FindByKey(ctx, entity.PartInverter, nil, "2001")
	assert.ErrorIs(t, err, ErrNotFound)

	client := testutil.SeedClient(t, db, "cl-1", "Ben Salah", "")
	inst := testutil.SeedInstallation(t, db, "in-1", "INST-2024-0001", client.ID)
	for id, name := range map[string]string{"rec-1": "REC-2024-0001", "rec-2": "REC-2024-0002"} {
		require.NoError(t, db.Create(&entity.Complaint{
			ID: id, Name: name, OccurredAt: time.Now(), AvailableAt: time.Now(),
			Description: "Onduleur en défaut", InstallationID: &inst.ID, AlarmCodeID: strPtr("al-1"), State: entity.ComplaintStateOpen,
		}).Error)
	}

	hist, err := repo.History(ctx, "al-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), hist.ComplaintCount)
	assert.Equal(t, []string{entity.InstallationTypeResidential}, hist.InstallationTypes)

	ids, err := repo.ListWithoutPlan(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	require.NoError(t, repo.SavePlan(ctx, "al-1", []byte(`{"severity":"high"}`), "<p>plan</p>", entity.PlanSourceAI, time.Now()))
	ids, err = repo.ListWithoutPlan(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"al-2"}, ids)
}

func TestAlarmRepository_UniquePartBrandCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewAlarmRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Create(&entity.InverterBrand{ID: "brand-1", Name: "Huawei"}).Error)

	require.NoError(t, repo.Create(ctx, &entity.AlarmCode{ID: "al-1", Part: entity.PartInverter, Code: "2001", Name: "Tension DC élevée"}))
	err := db.Create(&entity.AlarmCode{ID: "al-2", Part: entity.PartInverter, Code: "2001", Name: "Doublon"}).Error
	assert.Error(t, err, "brandless alarms share one key")
	err = repo.Create(ctx, &entity.AlarmCode{ID: "al-3", Part: entity.PartInverter, Code: "2001", Name: "Doublon"})
	assert.ErrorIs(t, err, ErrDuplicate)

	require.NoError(t, repo.Create(ctx, &entity.AlarmCode{ID: "al-4", Part: entity.PartInverter, BrandID: strPtr("brand-1"), Code: "2001", Name: "Huawei 2001"}))
	err = repo.Create(ctx, &entity.AlarmCode{ID: "al-5", Part: entity.PartInverter, BrandID: strPtr("brand-1"), Code: "2001", Name: "Doublon"})
	assert.ErrorIs(t, err, ErrDuplicate)

	t.Run("update onto an existing key", func(t *testing.T) {
		other, err := repo.FindByID(ctx, "al-4")
		require.NoError(t, err)
		other.BrandID = nil
		other.Brand = nil
		assert.ErrorIs(t, repo.Update(ctx, other), ErrDuplicate)
	})
}

func TestInstallationRepository_EquipmentAndClientFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewInstallationRepository(db)
	ctx := context.Background()

	testutil.SeedClient(t, db, "cl-1", "Client A", "")
	testutil.SeedClient(t, db, "cl-2", "Client B", "")
	inst := testutil.SeedInstallation(t, db, "in-1", "INST-2024-0001", "cl-1")
	testutil.SeedInstallation(t, db, "in-2", "INST-2024-0002", "cl-2")

	modules := []entity.PVModule{{ID: "m-1", Reference: "PVM-2024-0001"}, {ID: "m-2", Reference: "PVM-2024-0002"}}
	require.NoError(t, db.Create(&modules).Error)
	inverters := []entity.Inverter{{ID: "i-1", Reference: "INV-A"}}
	require.NoError(t, db.Create(&inverters).Error)

	require.NoError(t, repo.ReplaceEquipment(ctx, inst, modules, inverters))

	loaded, err := repo.FindByID(ctx, "in-1")
	require.NoError(t, err)
	assert.Len(t, loaded.Modules, 2)
	assert.Len(t, loaded.Inverters, 1)

	list, err := repo.ListByClient(ctx, "cl-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "in-1", list[0].ID)

	items, total, err := repo.FindAll(ctx, 1, 20, map[string]string{"keyword": "inst-2024-0002"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "in-2", items[0].ID)

	require.NoError(t, repo.Archive(ctx, "in-1"))
	list, err = repo.ListByClient(ctx, "cl-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	reports := NewReportRepository(db)
	mods, invs, err := reports.EquipmentCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), mods["in-1"])
	assert.Equal(t, int64(1), invs["in-1"])
	assert.Zero(t, mods["in-2"])
}

func TestReportRepository_BillingTotals(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewReportRepository(db)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, db.Create(&entity.Intervention{ID: "it-1", Name: "INT-2024-0001", Type: entity.InterventionRepair, State: entity.InterventionStateClosed}).Error)
	responses := []entity.Response{
		{ID: "r-1", Name: "REP-2024-0001", InterventionID: "it-1", ClosedAt: now.Add(-time.Hour), AmountDue: 100, Paid: entity.PaidYes},
		{ID: "r-2", Name: "REP-2024-0002", InterventionID: "it-1", ClosedAt: now.Add(-2 * time.Hour), AmountDue: 50, Paid: entity.PaidNo},
		{ID: "r-3", Name: "REP-2024-0003", InterventionID: "it-1", ClosedAt: now.AddDate(0, -3, 0), AmountDue: 999, Paid: entity.PaidYes},
	}
	require.NoError(t, db.Create(&responses).Error)

	invoiced, paid, err := repo.BillingTotals(ctx, Period{From: now.AddDate(0, 0, -30), To: now})
	require.NoError(t, err)
	assert.InDelta(t, 150.0, invoiced, 0.001)
	assert.InDelta(t, 100.0, paid, 0.001)

	total, closed, err := repo.InterventionCounts(ctx, Period{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(1), closed)
}
