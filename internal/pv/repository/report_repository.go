package repository

import (
	"context"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"gorm.io/gorm"
)

// ReportRepository read-only queries feeding reports and dashboard KPIs
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Period closed time range, zero bounds are open
type Period struct {
	From time.Time
	To   time.Time
}

func (p Period) apply(db *gorm.DB, column string) *gorm.DB {
	if !p.From.IsZero() {
		db = db.Where(column+" >= ?", p.From)
	}
	if !p.To.IsZero() {
		db = db.Where(column+" <= ?", p.To)
	}
	return db
}

// Installations every installation with its client
func (r *ReportRepository) Installations(ctx context.Context) ([]entity.Installation, error) {
	var items []entity.Installation
	err := r.db.WithContext(ctx).
		Preload("Client").
		Order("commissioning_date DESC").
		Find(&items).Error
	return items, err
}

// EquipmentCounts module and inverter counts keyed by installation id
func (r *ReportRepository) EquipmentCounts(ctx context.Context) (modules, inverters map[string]int64, err error) {
	if modules, err = r.countJoin(ctx, "pv_installation_modules"); err != nil {
		return nil, nil, err
	}
	if inverters, err = r.countJoin(ctx, "pv_installation_inverters"); err != nil {
		return nil, nil, err
	}
	return modules, inverters, nil
}

func (r *ReportRepository) countJoin(ctx context.Context, table string) (map[string]int64, error) {
	var rows []struct {
		InstallationID string
		N              int64
	}
	err := r.db.WithContext(ctx).
		Table(table).
		Select("installation_id, COUNT(*) AS n").
		Group("installation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.InstallationID] = row.N
	}
	return out, nil
}

// Complaints complaints whose occurred_at falls in the period
func (r *ReportRepository) Complaints(ctx context.Context, p Period) ([]entity.Complaint, error) {
	var items []entity.Complaint
	err := p.apply(r.db.WithContext(ctx), "occurred_at").
		Preload("Installation").
		Preload("AlarmCode").
		Order("occurred_at DESC").
		Find(&items).Error
	return items, err
}

// InterventionStamp creation time of an intervention linked to a complaint
type InterventionStamp struct {
	ComplaintID string
	CreatedAt   time.Time
}

// InterventionStamps creation times of interventions opened for the given complaints
func (r *ReportRepository) InterventionStamps(ctx context.Context, complaintIDs []string) ([]InterventionStamp, error) {
	var rows []InterventionStamp
	if len(complaintIDs) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).
		Model(&entity.Intervention{}).
		Select("complaint_id, created_at").
		Where("complaint_id IN ?", complaintIDs).
		Order("created_at ASC").
		Scan(&rows).Error
	return rows, err
}

// Interventions interventions created in the period
func (r *ReportRepository) Interventions(ctx context.Context, p Period) ([]entity.Intervention, error) {
	var items []entity.Intervention
	err := p.apply(r.db.WithContext(ctx), "created_at").
		Preload("Installation.Client").
		Preload("Technician").
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// ResponsesFor responses of the given interventions
func (r *ReportRepository) ResponsesFor(ctx context.Context, interventionIDs []string) ([]entity.Response, error) {
	var items []entity.Response
	if len(interventionIDs) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).
		Where("intervention_id IN ?", interventionIDs).
		Find(&items).Error
	return items, err
}

// EvaluationsFor rated evaluations of the given interventions, latest first
func (r *ReportRepository) EvaluationsFor(ctx context.Context, interventionIDs []string) ([]entity.Evaluation, error) {
	var items []entity.Evaluation
	if len(interventionIDs) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).
		Where("intervention_id IN ? AND technician_rating > 0", interventionIDs).
		Order("evaluated_on DESC, created_at DESC").
		Find(&items).Error
	return items, err
}

// InstallationCounts total installations and those in progress
func (r *ReportRepository) InstallationCounts(ctx context.Context) (total, active int64, err error) {
	if err = r.db.WithContext(ctx).Model(&entity.Installation{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = r.db.WithContext(ctx).
		Model(&entity.Installation{}).
		Where("state = ?", entity.InstallationStateInProgress).
		Count(&active).Error
	return total, active, err
}

// InterventionCounts interventions created in the period and how many are closed
func (r *ReportRepository) InterventionCounts(ctx context.Context, p Period) (total, closed int64, err error) {
	base := func() *gorm.DB {
		return p.apply(r.db.WithContext(ctx).Model(&entity.Intervention{}), "created_at")
	}
	if err = base().Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = base().Where("state = ?", entity.InterventionStateClosed).Count(&closed).Error
	return total, closed, err
}

// BillingTotals invoiced and paid amounts of responses closed in the period
func (r *ReportRepository) BillingTotals(ctx context.Context, p Period) (invoiced, paid float64, err error) {
	base := func() *gorm.DB {
		return p.apply(r.db.WithContext(ctx).Model(&entity.Response{}), "closed_at")
	}
	if err = base().Select("COALESCE(SUM(amount_due), 0)").Scan(&invoiced).Error; err != nil {
		return 0, 0, err
	}
	err = base().Where("paid = ?", entity.PaidYes).Select("COALESCE(SUM(amount_due), 0)").Scan(&paid).Error
	return invoiced, paid, err
}
