package repository

import (
	"context"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"gorm.io/gorm"
)

// ResponseRepository response (closure/billing) repository
type ResponseRepository struct {
	db *gorm.DB
}

func NewResponseRepository(db *gorm.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

func (r *ResponseRepository) FindByID(ctx context.Context, id string) (*entity.Response, error) {
	var resp entity.Response
	err := r.db.WithContext(ctx).
		Preload("Intervention.Installation").
		Where("id = ?", id).
		First(&resp).Error
	if err != nil {
		return nil, translate(err)
	}
	return &resp, nil
}

// FindAll filters: intervention_id, paid, keyword
func (r *ResponseRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Response, int64, error) {
	var items []entity.Response
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Response{})
	if id := filters["intervention_id"]; id != "" {
		query = query.Where("intervention_id = ?", id)
	}
	if paid := filters["paid"]; paid != "" {
		query = query.Where("paid = ?", paid)
	}
	query = keywordLike(query, filters["keyword"], "name")

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Intervention.Installation").
		Scopes(paginate(page, pageSize)).
		Order("closed_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ResponseRepository) ListByIntervention(ctx context.Context, interventionID string) ([]entity.Response, error) {
	var items []entity.Response
	err := r.db.WithContext(ctx).
		Where("intervention_id = ?", interventionID).
		Order("closed_at ASC").
		Find(&items).Error
	return items, err
}

func (r *ResponseRepository) CountByIntervention(ctx context.Context, interventionID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.Response{}).Where("intervention_id = ?", interventionID).Count(&n).Error
	return n, err
}

func (r *ResponseRepository) Create(ctx context.Context, resp *entity.Response) error {
	return translate(r.db.WithContext(ctx).Omit("Intervention").Create(resp).Error)
}

func (r *ResponseRepository) Update(ctx context.Context, resp *entity.Response) error {
	return translate(r.db.WithContext(ctx).Omit("Intervention").Save(resp).Error)
}
