package repository

import (
	"context"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"gorm.io/gorm"
)

// ClientRepository client repository
type ClientRepository struct {
	crud[entity.Client]
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{crud: crud[entity.Client]{db: db}, db: db}
}

// FindAll lists clients, filters: keyword
func (r *ClientRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Client, int64, error) {
	var items []entity.Client
	var total int64

	query := keywordLike(r.db.WithContext(ctx).Model(&entity.Client{}), filters["keyword"], "name", "email", "phone")
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Scopes(paginate(page, pageSize)).Order("name ASC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// BrandRepository inverter/module brand repository
type BrandRepository struct {
	crud[entity.InverterBrand]
	db *gorm.DB
}

func NewBrandRepository(db *gorm.DB) *BrandRepository {
	return &BrandRepository{crud: crud[entity.InverterBrand]{db: db}, db: db}
}

func (r *BrandRepository) FindAll(ctx context.Context) ([]entity.InverterBrand, error) {
	var items []entity.InverterBrand
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

// DistrictRepository STEG district repository
type DistrictRepository struct {
	crud[entity.STEGDistrict]
	db *gorm.DB
}

func NewDistrictRepository(db *gorm.DB) *DistrictRepository {
	return &DistrictRepository{crud: crud[entity.STEGDistrict]{db: db}, db: db}
}

func (r *DistrictRepository) FindAll(ctx context.Context) ([]entity.STEGDistrict, error) {
	var items []entity.STEGDistrict
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

// BreakerRepository breaker rating repository
type BreakerRepository struct {
	crud[entity.BreakerRating]
	db *gorm.DB
}

func NewBreakerRepository(db *gorm.DB) *BreakerRepository {
	return &BreakerRepository{crud: crud[entity.BreakerRating]{db: db}, db: db}
}

func (r *BreakerRepository) FindAll(ctx context.Context) ([]entity.BreakerRating, error) {
	var items []entity.BreakerRating
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

// ModuleRepository PV module repository
type ModuleRepository struct {
	crud[entity.PVModule]
	db *gorm.DB
}

func NewModuleRepository(db *gorm.DB) *ModuleRepository {
	return &ModuleRepository{crud: crud[entity.PVModule]{db: db}, db: db}
}

// FindByID loads a module with its brand
func (r *ModuleRepository) FindByID(ctx context.Context, id string) (*entity.PVModule, error) {
	var m entity.PVModule
	if err := r.db.WithContext(ctx).Preload("Brand").Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *ModuleRepository) FindByIDs(ctx context.Context, ids []string) ([]entity.PVModule, error) {
	var items []entity.PVModule
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

func (r *ModuleRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PVModule, int64, error) {
	var items []entity.PVModule
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.PVModule{})
	if brandID := filters["brand_id"]; brandID != "" {
		query = query.Where("brand_id = ?", brandID)
	}
	query = keywordLike(query, filters["keyword"], "reference", "power")
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Brand").Scopes(paginate(page, pageSize)).Order("reference ASC").Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// InverterRepository inverter repository
type InverterRepository struct {
	crud[entity.Inverter]
	db *gorm.DB
}

func NewInverterRepository(db *gorm.DB) *InverterRepository {
	return &InverterRepository{crud: crud[entity.Inverter]{db: db}, db: db}
}

func (r *InverterRepository) FindByID(ctx context.Context, id string) (*entity.Inverter, error) {
	var inv entity.Inverter
	err := r.db.WithContext(ctx).
		Preload("Brand").
		Preload("BreakerRating").
		Where("id = ?", id).
		First(&inv).Error
	if err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

// FindByReference looks an inverter up by its unique reference
func (r *InverterRepository) FindByReference(ctx context.Context, reference string) (*entity.Inverter, error) {
	var inv entity.Inverter
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&inv).Error; err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (r *InverterRepository) FindByIDs(ctx context.Context, ids []string) ([]entity.Inverter, error) {
	var items []entity.Inverter
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

func (r *InverterRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Inverter, int64, error) {
	var items []entity.Inverter
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Inverter{})
	if brandID := filters["brand_id"]; brandID != "" {
		query = query.Where("brand_id = ?", brandID)
	}
	query = keywordLike(query, filters["keyword"], "reference")
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Brand").Preload("BreakerRating").
		Scopes(paginate(page, pageSize)).Order("reference ASC").Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
