package repository

import (
	"context"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"gorm.io/gorm"
)

// InterventionRepository intervention repository
type InterventionRepository struct {
	db *gorm.DB
}

func NewInterventionRepository(db *gorm.DB) *InterventionRepository {
	return &InterventionRepository{db: db}
}

// FindByID loads an intervention with complaint, installation, technician, team and agenda
func (r *InterventionRepository) FindByID(ctx context.Context, id string) (*entity.Intervention, error) {
	var it entity.Intervention
	err := r.db.WithContext(ctx).
		Preload("Installation").
		Preload("Complaint").
		Preload("Technician").
		Preload("Team").
		Preload("AgendaLines", func(db *gorm.DB) *gorm.DB {
			return db.Order("scheduled_at ASC")
		}).
		Where("id = ?", id).
		First(&it).Error
	if err != nil {
		return nil, translate(err)
	}
	return &it, nil
}

// FindAll filters: complaint_id, installation_id, technician_id, type, state, keyword
func (r *InterventionRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Intervention, int64, error) {
	var items []entity.Intervention
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Intervention{})
	for _, col := range []string{"complaint_id", "installation_id", "technician_id", "type", "state"} {
		if v := filters[col]; v != "" {
			query = query.Where(col+" = ?", v)
		}
	}
	query = keywordLike(query, filters["keyword"], "name", "address", "alarm_code")

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Installation").
		Preload("Technician").
		Scopes(paginate(page, pageSize)).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByComplaint interventions opened for a complaint, oldest first
func (r *InterventionRepository) ListByComplaint(ctx context.Context, complaintID string) ([]entity.Intervention, error) {
	var items []entity.Intervention
	err := r.db.WithContext(ctx).
		Preload("Technician").
		Where("complaint_id = ?", complaintID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *InterventionRepository) CountByComplaint(ctx context.Context, complaintID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.Intervention{}).Where("complaint_id = ?", complaintID).Count(&n).Error
	return n, err
}

func (r *InterventionRepository) Create(ctx context.Context, it *entity.Intervention) error {
	return translate(r.db.WithContext(ctx).Omit("Installation", "Complaint", "Technician", "Team.*", "AgendaLines").Create(it).Error)
}

func (r *InterventionRepository) Update(ctx context.Context, it *entity.Intervention) error {
	return translate(r.db.WithContext(ctx).Omit("Installation", "Complaint", "Technician", "Team", "AgendaLines").Save(it).Error)
}

// ReplaceTeam swaps the assigned team members
func (r *InterventionRepository) ReplaceTeam(ctx context.Context, it *entity.Intervention, team []entity.Employee) error {
	return r.db.WithContext(ctx).Model(it).Association("Team").Replace(team)
}

func (r *InterventionRepository) UpdateState(ctx context.Context, id, state string) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Intervention{}).
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

func (r *InterventionRepository) AddAgendaLine(ctx context.Context, line *entity.AgendaLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *InterventionRepository) ListAgendaLines(ctx context.Context, interventionID string) ([]entity.AgendaLine, error) {
	var lines []entity.AgendaLine
	err := r.db.WithContext(ctx).
		Where("intervention_id = ?", interventionID).
		Order("scheduled_at ASC").
		Find(&lines).Error
	return lines, err
}

func (r *InterventionRepository) RemoveAgendaLine(ctx context.Context, interventionID, lineID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND intervention_id = ?", lineID, interventionID).
		Delete(&entity.AgendaLine{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
