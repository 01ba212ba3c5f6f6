package repository

import (
	"context"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"gorm.io/gorm"
)

// EmployeeRepository employee repository
type EmployeeRepository struct {
	crud[entity.Employee]
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{crud: crud[entity.Employee]{db: db}, db: db}
}

// FindAll filters: active, keyword
func (r *EmployeeRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Employee, int64, error) {
	var items []entity.Employee
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Employee{})
	switch filters["active"] {
	case "true":
		query = query.Where("active = ?", true)
	case "false":
		query = query.Where("active = ?", false)
	}
	query = keywordLike(query, filters["keyword"], "name", "email", "job_title")

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Omit("ai_analysis_html").
		Scopes(paginate(page, pageSize)).
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *EmployeeRepository) FindByIDs(ctx context.Context, ids []string) ([]entity.Employee, error) {
	var items []entity.Employee
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

// SaveAnalysis stores the latest performance analysis
func (r *EmployeeRepository) SaveAnalysis(ctx context.Context, id, rating, html string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Employee{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"performance_rating":  rating,
			"ai_analysis_html":    html,
			"last_ai_analysis_at": at,
			"updated_at":          at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
