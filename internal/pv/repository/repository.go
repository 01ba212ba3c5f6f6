package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Repositories repository set
type Repositories struct {
	Client       *ClientRepository
	Brand        *BrandRepository
	District     *DistrictRepository
	Breaker      *BreakerRepository
	Module       *ModuleRepository
	Inverter     *InverterRepository
	Installation *InstallationRepository
	Alarm        *AlarmRepository
	Complaint    *ComplaintRepository
	Intervention *InterventionRepository
	Response     *ResponseRepository
	Evaluation   *EvaluationRepository
	Employee     *EmployeeRepository
	Attachment   *AttachmentRepository
	Sequence     *SequenceRepository
	Report       *ReportRepository
}

// NewRepositories creates all repositories on one connection.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Client:       NewClientRepository(db),
		Brand:        NewBrandRepository(db),
		District:     NewDistrictRepository(db),
		Breaker:      NewBreakerRepository(db),
		Module:       NewModuleRepository(db),
		Inverter:     NewInverterRepository(db),
		Installation: NewInstallationRepository(db),
		Alarm:        NewAlarmRepository(db),
		Complaint:    NewComplaintRepository(db),
		Intervention: NewInterventionRepository(db),
		Response:     NewResponseRepository(db),
		Evaluation:   NewEvaluationRepository(db),
		Employee:     NewEmployeeRepository(db),
		Attachment:   NewAttachmentRepository(db),
		Sequence:     NewSequenceRepository(db),
		Report:       NewReportRepository(db),
	}
}

// crud shared single-table operations
type crud[T any] struct {
	db *gorm.DB
}

func (c crud[T]) FindByID(ctx context.Context, id string) (*T, error) {
	var rec T
	if err := c.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (c crud[T]) Create(ctx context.Context, rec *T) error {
	return translate(c.db.WithContext(ctx).Create(rec).Error)
}

func (c crud[T]) Update(ctx context.Context, rec *T) error {
	return translate(c.db.WithContext(ctx).Omit(clause.Associations).Save(rec).Error)
}

func (c crud[T]) Delete(ctx context.Context, id string) error {
	var rec T
	res := c.db.WithContext(ctx).Where("id = ?", id).Delete(&rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// paginate applies offset/limit, page is 1-based.
func paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page < 1 {
			page = 1
		}
		if pageSize < 1 {
			pageSize = 20
		}
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

// keywordLike case-insensitive LIKE over several columns, works on postgres and sqlite.
func keywordLike(db *gorm.DB, keyword string, columns ...string) *gorm.DB {
	if keyword == "" || len(columns) == 0 {
		return db
	}
	pattern := "%" + strings.ToLower(keyword) + "%"
	conds := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		conds[i] = "LOWER(" + col + ") LIKE ?"
		args[i] = pattern
	}
	return db.Where(strings.Join(conds, " OR "), args...)
}
