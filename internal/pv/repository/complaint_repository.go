package repository

import (
	"context"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"gorm.io/gorm"
)

// ComplaintRepository complaint repository
type ComplaintRepository struct {
	db *gorm.DB
}

func NewComplaintRepository(db *gorm.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

func (r *ComplaintRepository) FindByID(ctx context.Context, id string) (*entity.Complaint, error) {
	var c entity.Complaint
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Installation").
		Preload("AlarmCode").
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// FindAll filters: client_id, installation_id, alarm_code_id, priority, category, state, keyword
func (r *ComplaintRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Complaint, int64, error) {
	var items []entity.Complaint
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Complaint{})
	for _, col := range []string{"client_id", "installation_id", "alarm_code_id", "priority", "category", "state"} {
		if v := filters[col]; v != "" {
			query = query.Where(col+" = ?", v)
		}
	}
	query = keywordLike(query, filters["keyword"], "name", "description", "address")

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Client").
		Preload("Installation").
		Preload("AlarmCode").
		Scopes(paginate(page, pageSize)).
		Order("occurred_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ComplaintRepository) Create(ctx context.Context, c *entity.Complaint) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *ComplaintRepository) Update(ctx context.Context, c *entity.Complaint) error {
	return translate(r.db.WithContext(ctx).Omit("Client", "Installation", "AlarmCode").Save(c).Error)
}

// UpdateState moves the complaint to state, closedAt is set only when closing
func (r *ComplaintRepository) UpdateState(ctx context.Context, id, state string, closedAt *time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Complaint{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"state":      state,
			"closed_at":  closedAt,
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
