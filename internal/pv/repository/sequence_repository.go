package repository

import (
	"context"
	"fmt"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sequence codes
const (
	SeqInstallation = "INST"
	SeqModule       = "PVM"
	SeqComplaint    = "REC"
	SeqIntervention = "INT"
	SeqResponse     = "REP"
	SeqEvaluation   = "EVAL"
)

// SequenceRepository per-year counters for reference codes
type SequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next increments and returns the counter of (code, year), starting at 1
func (r *SequenceRepository) Next(ctx context.Context, code string, year int) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq := entity.Sequence{Code: code, Year: year}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
			return err
		}
		err := tx.Model(&entity.Sequence{}).
			Where("code = ? AND year = ?", code, year).
			UpdateColumn("next_value", gorm.Expr("next_value + 1")).Error
		if err != nil {
			return err
		}
		var cur entity.Sequence
		if err := tx.Where("code = ? AND year = ?", code, year).First(&cur).Error; err != nil {
			return err
		}
		next = cur.NextValue
		return nil
	})
	return next, err
}

// GenerateCode returns "<code>-<year>-<NNNN>"
func (r *SequenceRepository) GenerateCode(ctx context.Context, code string, year int) (string, error) {
	n, err := r.Next(ctx, code, year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%04d", code, year, n), nil
}
