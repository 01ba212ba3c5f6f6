package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"github.com/Chihaouimed/PV/internal/pv/repository"
	"github.com/Chihaouimed/PV/internal/shared/sse"
	"go.uber.org/zap"
)

// EvaluationService installation and technician evaluations
type EvaluationService struct {
	repo          *repository.EvaluationRepository
	installations *repository.InstallationRepository
	interventions *repository.InterventionRepository
	seq           *repository.SequenceRepository
	hub           *sse.Hub
	logger        *zap.Logger
}

func NewEvaluationService(repos *repository.Repositories, hub *sse.Hub, logger *zap.Logger) *EvaluationService {
	return &EvaluationService{
		repo:          repos.Evaluation,
		installations: repos.Installation,
		interventions: repos.Intervention,
		seq:           repos.Sequence,
		hub:           hub,
		logger:        logger,
	}
}

// EvaluationInput create and full update payload
type EvaluationInput struct {
	ClientID       *string    `json:"client_id"`
	InstallationID string     `json:"installation_id"`
	EvaluatedOn    *time.Time `json:"evaluated_on"`
	InterventionID *string    `json:"intervention_id"`

	PerformanceRatio  float64 `json:"performance_ratio"`
	EnergyProduced    float64 `json:"energy_produced"`
	SystemEfficiency  float64 `json:"system_efficiency"`
	PanelCondition    string  `json:"panel_condition"`
	InverterCondition string  `json:"inverter_condition"`
	IssuesFound       string  `json:"issues_found"`
	Recommendations   string  `json:"recommendations"`

	TechnicianRating          int    `json:"technician_rating"`
	TechnicianKnowledge       string `json:"technician_knowledge"`
	TechnicianProfessionalism string `json:"technician_professionalism"`
	TechnicianCommunication   string `json:"technician_communication"`
	TechnicianFeedback        string `json:"technician_feedback"`
}

func (in *EvaluationInput) check() error {
	if in.TechnicianRating < 0 || in.TechnicianRating > 5 {
		return invalid("technician rating must be between 1 and 5")
	}
	grades := map[string]string{
		"panel_condition":            in.PanelCondition,
		"inverter_condition":         in.InverterCondition,
		"technician_knowledge":       in.TechnicianKnowledge,
		"technician_professionalism": in.TechnicianProfessionalism,
		"technician_communication":   in.TechnicianCommunication,
	}
	for field, grade := range grades {
		if grade != "" && !entity.ValidGrades[grade] {
			return invalid("%s: unknown grade %q", field, grade)
		}
	}
	if in.PerformanceRatio < 0 || in.EnergyProduced < 0 || in.SystemEfficiency < 0 {
		return invalid("measurements cannot be negative")
	}
	return nil
}

func (in *EvaluationInput) apply(ev *entity.Evaluation) {
	ev.ClientID = optionalID(in.ClientID)
	ev.InstallationID = strings.TrimSpace(in.InstallationID)
	ev.InterventionID = optionalID(in.InterventionID)
	if in.EvaluatedOn != nil {
		ev.EvaluatedOn = *in.EvaluatedOn
	}
	ev.PerformanceRatio = in.PerformanceRatio
	ev.EnergyProduced = in.EnergyProduced
	ev.SystemEfficiency = in.SystemEfficiency
	ev.PanelCondition = in.PanelCondition
	ev.InverterCondition = in.InverterCondition
	ev.IssuesFound = in.IssuesFound
	ev.Recommendations = in.Recommendations
	ev.TechnicianRating = in.TechnicianRating
	ev.TechnicianKnowledge = in.TechnicianKnowledge
	ev.TechnicianProfessionalism = in.TechnicianProfessionalism
	ev.TechnicianCommunication = in.TechnicianCommunication
	ev.TechnicianFeedback = in.TechnicianFeedback
}

func (s *EvaluationService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Evaluation, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

func (s *EvaluationService) Get(ctx context.Context, id string) (*entity.Evaluation, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *EvaluationService) Create(ctx context.Context, input *EvaluationInput, createdBy string) (*entity.Evaluation, error) {
	if err := input.check(); err != nil {
		return nil, err
	}
	now := time.Now()
	ev := &entity.Evaluation{
		ID:          newID(),
		EvaluatedOn: now,
		State:       entity.EvalStateDraft,
		CreatedBy:   createdBy,
	}
	input.apply(ev)
	if err := s.resolve(ctx, ev); err != nil {
		return nil, err
	}

	name, err := s.seq.GenerateCode(ctx, repository.SeqEvaluation, now.Year())
	if err != nil {
		return nil, fmt.Errorf("generate evaluation reference: %w", err)
	}
	ev.Name = name
	if err := s.repo.Create(ctx, ev); err != nil {
		return nil, fmt.Errorf("create evaluation: %w", err)
	}
	s.hub.PublishTicketUpdate(sse.TicketUpdate{Kind: "evaluation", ID: ev.ID, Name: ev.Name, Action: "created", State: ev.State})
	return s.repo.FindByID(ctx, ev.ID)
}

func (s *EvaluationService) Update(ctx context.Context, id string, input *EvaluationInput) (*entity.Evaluation, error) {
	ev, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.check(); err != nil {
		return nil, err
	}
	input.apply(ev)
	if err := s.resolve(ctx, ev); err != nil {
		return nil, err
	}
	ev.Client, ev.Installation, ev.Intervention, ev.Technician = nil, nil, nil, nil
	if err := s.repo.Update(ctx, ev); err != nil {
		return nil, fmt.Errorf("update evaluation: %w", err)
	}
	return s.repo.FindByID(ctx, id)
}

// resolve enforces installation ∈ client and intervention ∈ installation,
// and takes the technician from the intervention.
func (s *EvaluationService) resolve(ctx context.Context, ev *entity.Evaluation) error {
	if ev.InstallationID == "" {
		return invalid("installation is required")
	}
	inst, err := s.installations.FindByID(ctx, ev.InstallationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("unknown installation %q", ev.InstallationID)
		}
		return err
	}
	if ev.ClientID == nil {
		ev.ClientID = inst.ClientID
	} else if !sameID(ev.ClientID, inst.ClientID) {
		return fmt.Errorf("%w: installation %s does not belong to the selected client", ErrDomainMismatch, inst.Code)
	}

	ev.TechnicianID = nil
	if ev.InterventionID != nil {
		it, err := s.interventions.FindByID(ctx, *ev.InterventionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return invalid("unknown intervention %q", *ev.InterventionID)
			}
			return err
		}
		if it.InstallationID == nil || *it.InstallationID != ev.InstallationID {
			return fmt.Errorf("%w: intervention %s was not carried out on installation %s", ErrDomainMismatch, it.Name, inst.Code)
		}
		ev.TechnicianID = it.TechnicianID
	}
	return nil
}

// SetState moves the evaluation to draft, in_progress, done or canceled.
func (s *EvaluationService) SetState(ctx context.Context, id, state string) (*entity.Evaluation, error) {
	if !entity.ValidEvalStates[state] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, state)
	}
	ev, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateState(ctx, id, state); err != nil {
		return nil, err
	}
	s.hub.PublishTicketUpdate(sse.TicketUpdate{Kind: "evaluation", ID: ev.ID, Name: ev.Name, Action: "state_changed", State: state})
	return s.repo.FindByID(ctx, id)
}
