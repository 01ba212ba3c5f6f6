package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/advisor"
	"github.com/Chihaouimed/PV/internal/pv/entity"
	"github.com/Chihaouimed/PV/internal/pv/repository"
	"github.com/Chihaouimed/PV/internal/shared/worker"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// AlarmService alarm-code knowledge base and action plans
type AlarmService struct {
	repo    *repository.AlarmRepository
	brands  *repository.BrandRepository
	advisor *advisor.Advisor
	pool    *worker.Pool
	logger  *zap.Logger
}

func NewAlarmService(repo *repository.AlarmRepository, brands *repository.BrandRepository, adv *advisor.Advisor, pool *worker.Pool, logger *zap.Logger) *AlarmService {
	return &AlarmService{repo: repo, brands: brands, advisor: adv, pool: pool, logger: logger}
}

type AlarmInput struct {
	Name    string  `json:"name" binding:"required"`
	Part    string  `json:"part" binding:"required"`
	BrandID *string `json:"brand_id"`
	Code    string  `json:"code" binding:"required"`
}

// normalize trims fields and clears the brand of non-inverter alarms.
func (in *AlarmInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Part = strings.TrimSpace(in.Part)
	in.Code = strings.TrimSpace(in.Code)
	switch {
	case in.Name == "":
		return invalid("alarm name is required")
	case in.Code == "":
		return invalid("alarm code is required")
	case !entity.ValidParts[in.Part]:
		return invalid("unknown part %q", in.Part)
	}
	in.BrandID = optionalID(in.BrandID)
	if in.Part != entity.PartInverter {
		in.BrandID = nil
	}
	return nil
}

func (s *AlarmService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.AlarmCode, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

func (s *AlarmService) Get(ctx context.Context, id string) (*entity.AlarmCode, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *AlarmService) Create(ctx context.Context, input *AlarmInput) (*entity.AlarmCode, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}
	if err := s.checkBrand(ctx, input.BrandID); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, input, ""); err != nil {
		return nil, err
	}
	a := &entity.AlarmCode{
		ID:      newID(),
		Name:    input.Name,
		Part:    input.Part,
		BrandID: input.BrandID,
		Code:    input.Code,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create alarm code: %w", err)
	}
	return s.repo.FindByID(ctx, a.ID)
}

// Update changes the alarm identity; a stored plan is kept.
func (s *AlarmService) Update(ctx context.Context, id string, input *AlarmInput) (*entity.AlarmCode, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}
	if err := s.checkBrand(ctx, input.BrandID); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, input, id); err != nil {
		return nil, err
	}
	a.Name, a.Part, a.BrandID, a.Code = input.Name, input.Part, input.BrandID, input.Code
	a.Brand = nil
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update alarm code: %w", err)
	}
	return s.repo.FindByID(ctx, id)
}

func (s *AlarmService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *AlarmService) checkBrand(ctx context.Context, brandID *string) error {
	if brandID == nil {
		return nil
	}
	if _, err := s.brands.FindByID(ctx, *brandID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("unknown inverter brand %q", *brandID)
		}
		return err
	}
	return nil
}

// checkUnique enforces one alarm per (part, brand, code).
func (s *AlarmService) checkUnique(ctx context.Context, input *AlarmInput, selfID string) error {
	existing, err := s.repo.FindByKey(ctx, input.Part, input.BrandID, input.Code)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return fmt.Errorf("alarm %s/%s already defined: %w", input.Part, input.Code, repository.ErrDuplicate)
	}
	return nil
}

// GenerateActionPlan (re)builds and stores the plan of an alarm. AI failures
// end in the fallback plan, so only storage errors are returned.
func (s *AlarmService) GenerateActionPlan(ctx context.Context, id string) (*entity.AlarmCode, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	hist, err := s.repo.History(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load alarm history: %w", err)
	}

	data := advisor.AlarmData{
		Code:              a.Code,
		Name:              a.Name,
		Part:              a.Part,
		ComplaintCount:    hist.ComplaintCount,
		InstallationTypes: hist.InstallationTypes,
	}
	if a.Brand != nil {
		data.Brand = a.Brand.Name
	}

	res, err := s.advisor.ActionPlan(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SavePlan(ctx, id, datatypes.JSON(res.JSON), res.HTML, res.Source, time.Now()); err != nil {
		return nil, fmt.Errorf("save action plan: %w", err)
	}
	s.logger.Info("action plan generated",
		zap.String("alarm_id", id),
		zap.String("code", a.Code),
		zap.String("source", res.Source))
	return s.repo.FindByID(ctx, id)
}

// GetActionPlan returns the alarm with its plan, generating one when absent.
func (s *AlarmService) GetActionPlan(ctx context.Context, id string) (*entity.AlarmCode, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.HasPlan() {
		return a, nil
	}
	return s.GenerateActionPlan(ctx, id)
}

// BatchResult outcome of GenerateMissingPlans
type BatchResult struct {
	Total     int      `json:"total"`
	Generated int      `json:"generated"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failed_ids,omitempty"`

	// Skipped alarms never attempted because the batch was cancelled
	Skipped    int      `json:"skipped"`
	SkippedIDs []string `json:"skipped_ids,omitempty"`
}

// GenerateMissingPlans builds plans for every alarm lacking one, on the
// worker pool when one is configured. Total always equals
// Generated + Failed + Skipped.
func (s *AlarmService) GenerateMissingPlans(ctx context.Context) (*BatchResult, error) {
	ids, err := s.repo.ListWithoutPlan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list alarms without plan: %w", err)
	}
	res := &BatchResult{Total: len(ids)}

	var mu sync.Mutex
	done := make(map[string]bool, len(ids))
	record := func(id string, err error) {
		mu.Lock()
		defer mu.Unlock()
		done[id] = true
		if err != nil {
			res.Failed++
			res.FailedIDs = append(res.FailedIDs, id)
			s.logger.Warn("batch plan generation failed", zap.String("alarm_id", id), zap.Error(err))
			return
		}
		res.Generated++
	}
	skipRest := func() {
		mu.Lock()
		defer mu.Unlock()
		for _, id := range ids {
			if !done[id] {
				res.Skipped++
				res.SkippedIDs = append(res.SkippedIDs, id)
			}
		}
		if res.Skipped > 0 {
			s.logger.Warn("batch plan generation interrupted", zap.Int("skipped", res.Skipped))
		}
	}

	if s.pool == nil {
		for _, id := range ids {
			if ctx.Err() != nil {
				break
			}
			_, err := s.GenerateActionPlan(ctx, id)
			record(id, err)
		}
		skipRest()
		return res, ctx.Err()
	}

	tasks := make([]worker.Task, len(ids))
	for i, id := range ids {
		id := id
		tasks[i] = func(ctx context.Context) {
			_, err := s.GenerateActionPlan(ctx, id)
			record(id, err)
		}
	}
	err = s.pool.Run(ctx, tasks)
	skipRest()
	return res, err
}
