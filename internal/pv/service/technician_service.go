package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/advisor"
	"github.com/Chihaouimed/PV/internal/pv/entity"
	"github.com/Chihaouimed/PV/internal/pv/repository"
	"go.uber.org/zap"
)

// TechnicianService employees and their AI performance analysis
type TechnicianService struct {
	repo    *repository.EmployeeRepository
	evals   *repository.EvaluationRepository
	advisor *advisor.Advisor
	logger  *zap.Logger
}

func NewTechnicianService(repo *repository.EmployeeRepository, evals *repository.EvaluationRepository, adv *advisor.Advisor, logger *zap.Logger) *TechnicianService {
	return &TechnicianService{repo: repo, evals: evals, advisor: adv, logger: logger}
}

type EmployeeInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	JobTitle string `json:"job_title"`
	Active   *bool  `json:"active"`
}

// AnalysisOutcome result of AnalyzePerformance
type AnalysisOutcome struct {
	Success  bool                    `json:"success"`
	Message  string                  `json:"message"`
	Analysis *advisor.AnalysisResult `json:"analysis,omitempty"`
}

// List employees with their evaluation counts.
func (s *TechnicianService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Employee, int64, error) {
	items, total, err := s.repo.FindAll(ctx, page, pageSize, filters)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	counts, err := s.evals.CountByTechnicians(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		items[i].EvaluationCount = counts[items[i].ID]
	}
	return items, total, nil
}

func (s *TechnicianService) Get(ctx context.Context, id string) (*entity.Employee, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.EvaluationCount, err = s.evals.CountByTechnician(ctx, id); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *TechnicianService) Create(ctx context.Context, input *EmployeeInput) (*entity.Employee, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid("employee name is required")
	}
	e := &entity.Employee{
		ID:       newID(),
		Name:     name,
		Email:    strings.TrimSpace(input.Email),
		Phone:    input.Phone,
		JobTitle: input.JobTitle,
		Active:   true,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}
	// the column defaults to true, an inactive hire needs a second write
	if input.Active != nil && !*input.Active {
		e.Active = false
		if err := s.repo.Update(ctx, e); err != nil {
			return nil, fmt.Errorf("create employee: %w", err)
		}
	}
	return e, nil
}

func (s *TechnicianService) Update(ctx context.Context, id string, input *EmployeeInput) (*entity.Employee, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		e.Name = name
	}
	e.Email = strings.TrimSpace(input.Email)
	e.Phone = input.Phone
	e.JobTitle = input.JobTitle
	if input.Active != nil {
		e.Active = *input.Active
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("update employee: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *TechnicianService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *TechnicianService) EvaluationCount(ctx context.Context, id string) (int64, error) {
	return s.evals.CountByTechnician(ctx, id)
}

func (s *TechnicianService) ListEvaluations(ctx context.Context, id string) ([]entity.Evaluation, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.evals.ListByTechnician(ctx, id)
}

// AnalyzePerformance assesses the technician from their evaluations and stores
// the rating and report. Without any evaluation nothing is stored and
// Success is false.
func (s *TechnicianService) AnalyzePerformance(ctx context.Context, id string) (*AnalysisOutcome, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	evals, err := s.evals.ListByTechnician(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load evaluations: %w", err)
	}
	stats := advisor.ComputeStats(e.Name, evals)
	if stats.EvaluationCount == 0 {
		return &AnalysisOutcome{
			Success: false,
			Message: fmt.Sprintf("Aucune évaluation trouvée pour %s.", e.Name),
		}, nil
	}

	res, err := s.advisor.TechnicianAnalysis(ctx, stats)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveAnalysis(ctx, id, res.OverallRating, res.HTMLContent, time.Now()); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}

	msg := "Analyse de performance générée."
	if res.Source == entity.PlanSourceFallback {
		msg = "Analyse générée à partir des statistiques (service IA indisponible)."
	}
	s.logger.Info("technician analysis stored",
		zap.String("employee_id", id),
		zap.String("rating", res.OverallRating),
		zap.String("source", res.Source))
	return &AnalysisOutcome{Success: true, Message: msg, Analysis: res}, nil
}
