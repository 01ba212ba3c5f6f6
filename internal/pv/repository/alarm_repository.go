package repository

import (
	"context"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AlarmRepository alarm code repository
type AlarmRepository struct {
	crud[entity.AlarmCode]
	db *gorm.DB
}

func NewAlarmRepository(db *gorm.DB) *AlarmRepository {
	return &AlarmRepository{crud: crud[entity.AlarmCode]{db: db}, db: db}
}

func (r *AlarmRepository) FindByID(ctx context.Context, id string) (*entity.AlarmCode, error) {
	var a entity.AlarmCode
	if err := r.db.WithContext(ctx).Preload("Brand").Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// FindByKey looks up the (part, brand, code) triple; a nil brand matches alarms without one
func (r *AlarmRepository) FindByKey(ctx context.Context, part string, brandID *string, code string) (*entity.AlarmCode, error) {
	var a entity.AlarmCode
	brandKey := ""
	if brandID != nil {
		brandKey = *brandID
	}
	query := r.db.WithContext(ctx).Where("part = ? AND brand_key = ? AND code = ?", part, brandKey, code)
	if err := query.First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// FindAll filters: part, brand_id, has_plan, keyword
func (r *AlarmRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.AlarmCode, int64, error) {
	var items []entity.AlarmCode
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.AlarmCode{})
	if part := filters["part"]; part != "" {
		query = query.Where("part = ?", part)
	}
	if brandID := filters["brand_id"]; brandID != "" {
		query = query.Where("brand_id = ?", brandID)
	}
	switch filters["has_plan"] {
	case "true":
		query = query.Where("action_plan_html <> ''")
	case "false":
		query = query.Where("action_plan_html IS NULL OR action_plan_html = ''")
	}
	query = keywordLike(query, filters["keyword"], "name", "code")

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Omit("action_plan", "action_plan_html").
		Preload("Brand").
		Scopes(paginate(page, pageSize)).
		Order("part ASC, code ASC").
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListWithoutPlan ids of alarms that still lack an action plan
func (r *AlarmRepository) ListWithoutPlan(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&entity.AlarmCode{}).
		Where("action_plan_html IS NULL OR action_plan_html = ''").
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// SavePlan stores a generated plan
func (r *AlarmRepository) SavePlan(ctx context.Context, id string, plan datatypes.JSON, html, source string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&entity.AlarmCode{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"action_plan":       plan,
			"action_plan_html":  html,
			"plan_source":       source,
			"plan_generated_at": at,
			"updated_at":        at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AlarmHistory complaint history of an alarm code
type AlarmHistory struct {
	ComplaintCount    int64
	InstallationTypes []string
}

// History counts complaints raised with the alarm and the installation types they hit
func (r *AlarmRepository) History(ctx context.Context, alarmID string) (*AlarmHistory, error) {
	h := &AlarmHistory{}
	err := r.db.WithContext(ctx).
		Model(&entity.Complaint{}).
		Where("alarm_code_id = ?", alarmID).
		Count(&h.ComplaintCount).Error
	if err != nil {
		return nil, err
	}
	err = r.db.WithContext(ctx).
		Model(&entity.Installation{}).
		Distinct("pv_installations.type").
		Joins("JOIN pv_complaints ON pv_complaints.installation_id = pv_installations.id").
		Where("pv_complaints.alarm_code_id = ? AND pv_installations.type <> ''", alarmID).
		Order("pv_installations.type").
		Pluck("pv_installations.type", &h.InstallationTypes).Error
	if err != nil {
		return nil, err
	}
	return h, nil
}
