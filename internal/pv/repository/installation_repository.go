package repository

import (
	"context"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"gorm.io/gorm"
)

// InstallationRepository installation repository
type InstallationRepository struct {
	db *gorm.DB
}

func NewInstallationRepository(db *gorm.DB) *InstallationRepository {
	return &InstallationRepository{db: db}
}

// FindByID loads an installation with client, district, breakers and equipment
func (r *InstallationRepository) FindByID(ctx context.Context, id string) (*entity.Installation, error) {
	var inst entity.Installation
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("District").
		Preload("ExistingBreaker").
		Preload("STEGBreaker").
		Preload("Modules.Brand").
		Preload("Inverters.Brand").
		Where("id = ?", id).
		First(&inst).Error
	if err != nil {
		return nil, translate(err)
	}
	return &inst, nil
}

// FindAll filters: client_id, state, type, active, keyword
func (r *InstallationRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Installation, int64, error) {
	var items []entity.Installation
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Installation{})
	if clientID := filters["client_id"]; clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if state := filters["state"]; state != "" {
		query = query.Where("state = ?", state)
	}
	if typ := filters["type"]; typ != "" {
		query = query.Where("type = ?", typ)
	}
	switch filters["active"] {
	case "true":
		query = query.Where("active = ?", true)
	case "false":
		query = query.Where("active = ?", false)
	}
	query = keywordLike(query, filters["keyword"], "code", "name", "address")

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Client").
		Scopes(paginate(page, pageSize)).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByClient active installations of a client
func (r *InstallationRepository) ListByClient(ctx context.Context, clientID string) ([]entity.Installation, error) {
	var items []entity.Installation
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND active = ?", clientID, true).
		Order("code ASC").
		Find(&items).Error
	return items, err
}

func (r *InstallationRepository) Create(ctx context.Context, inst *entity.Installation) error {
	return translate(r.db.WithContext(ctx).Create(inst).Error)
}

// Update saves scalar columns only, equipment goes through ReplaceEquipment
func (r *InstallationRepository) Update(ctx context.Context, inst *entity.Installation) error {
	return translate(r.db.WithContext(ctx).Omit("Client", "District", "ExistingBreaker", "STEGBreaker", "Modules", "Inverters").Save(inst).Error)
}

// ReplaceEquipment swaps the module and inverter sets of an installation
func (r *InstallationRepository) ReplaceEquipment(ctx context.Context, inst *entity.Installation, modules []entity.PVModule, inverters []entity.Inverter) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(inst).Association("Modules").Replace(modules); err != nil {
			return err
		}
		return tx.Model(inst).Association("Inverters").Replace(inverters)
	})
}

// UpdateState sets the lifecycle state
func (r *InstallationRepository) UpdateState(ctx context.Context, id, state string) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Installation{}).
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

// Archive sets active=false
func (r *InstallationRepository) Archive(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Installation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"active":     false,
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
