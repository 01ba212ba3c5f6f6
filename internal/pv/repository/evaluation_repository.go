package repository

import (
	"context"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"gorm.io/gorm"
)

// EvaluationRepository evaluation repository
type EvaluationRepository struct {
	db *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

func (r *EvaluationRepository) FindByID(ctx context.Context, id string) (*entity.Evaluation, error) {
	var ev entity.Evaluation
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Installation").
		Preload("Intervention").
		Preload("Technician").
		Where("id = ?", id).
		First(&ev).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ev, nil
}

// FindAll filters: client_id, installation_id, intervention_id, technician_id, state
func (r *EvaluationRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Evaluation, int64, error) {
	var items []entity.Evaluation
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Evaluation{})
	for _, col := range []string{"client_id", "installation_id", "intervention_id", "technician_id", "state"} {
		if v := filters[col]; v != "" {
			query = query.Where(col+" = ?", v)
		}
	}
	query = keywordLike(query, filters["keyword"], "name", "issues_found", "recommendations")

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Installation").
		Preload("Technician").
		Scopes(paginate(page, pageSize)).
		Order("evaluated_on DESC, created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *EvaluationRepository) ListByIntervention(ctx context.Context, interventionID string) ([]entity.Evaluation, error) {
	var items []entity.Evaluation
	err := r.db.WithContext(ctx).
		Where("intervention_id = ?", interventionID).
		Order("evaluated_on DESC").
		Find(&items).Error
	return items, err
}

// ListByTechnician evaluations of a technician, canceled ones excluded
func (r *EvaluationRepository) ListByTechnician(ctx context.Context, technicianID string) ([]entity.Evaluation, error) {
	var items []entity.Evaluation
	err := r.db.WithContext(ctx).
		Preload("Installation").
		Where("technician_id = ? AND state <> ?", technicianID, entity.EvalStateCanceled).
		Order("evaluated_on DESC").
		Find(&items).Error
	return items, err
}

func (r *EvaluationRepository) CountByTechnician(ctx context.Context, technicianID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&entity.Evaluation{}).
		Where("technician_id = ? AND state <> ?", technicianID, entity.EvalStateCanceled).
		Count(&n).Error
	return n, err
}

// CountByTechnicians evaluation counts keyed by technician id
func (r *EvaluationRepository) CountByTechnicians(ctx context.Context, technicianIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(technicianIDs))
	if len(technicianIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		TechnicianID string
		N            int64
	}
	err := r.db.WithContext(ctx).
		Model(&entity.Evaluation{}).
		Select("technician_id, COUNT(*) AS n").
		Where("technician_id IN ? AND state <> ?", technicianIDs, entity.EvalStateCanceled).
		Group("technician_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.TechnicianID] = row.N
	}
	return counts, nil
}

func (r *EvaluationRepository) Create(ctx context.Context, ev *entity.Evaluation) error {
	return translate(r.db.WithContext(ctx).Omit("Client", "Installation", "Intervention", "Technician").Create(ev).Error)
}

func (r *EvaluationRepository) Update(ctx context.Context, ev *entity.Evaluation) error {
	return translate(r.db.WithContext(ctx).Omit("Client", "Installation", "Intervention", "Technician").Save(ev).Error)
}

func (r *EvaluationRepository) UpdateState(ctx context.Context, id, state string) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Evaluation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"state":      state,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *EvaluationRepository) CountByIntervention(ctx context.Context, interventionID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&entity.Evaluation{}).
		Where("intervention_id = ?", interventionID).
		Count(&n).Error
	return n, err
}

// SyncTechnician points every evaluation of the intervention at its current technician.
func (r *EvaluationRepository) SyncTechnician(ctx context.Context, interventionID string, technicianID *string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Evaluation{}).
		Where("intervention_id = ?", interventionID).
		Updates(map[string]interface{}{
			"technician_id": technicianID,
			"updated_at":    time.Now(),
		}).Error
}
