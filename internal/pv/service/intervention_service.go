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

// InterventionService work orders (fiches d'intervention)
type InterventionService struct {
	repo          *repository.InterventionRepository
	complaints    *repository.ComplaintRepository
	installations *repository.InstallationRepository
	employees     *repository.EmployeeRepository
	responseRepo  *repository.ResponseRepository
	evalRepo      *repository.EvaluationRepository
	seq           *repository.SequenceRepository

	responses   *ResponseService
	evaluations *EvaluationService
	hub         *sse.Hub
	logger      *zap.Logger
}

func NewInterventionService(repos *repository.Repositories, responses *ResponseService, evaluations *EvaluationService,
	hub *sse.Hub, logger *zap.Logger) *InterventionService {
	return &InterventionService{
		repo:          repos.Intervention,
		complaints:    repos.Complaint,
		installations: repos.Installation,
		employees:     repos.Employee,
		responseRepo:  repos.Response,
		evalRepo:      repos.Evaluation,
		seq:           repos.Sequence,
		responses:     responses,
		evaluations:   evaluations,
		hub:           hub,
		logger:        logger,
	}
}

type AgendaLineInput struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
	Description string     `json:"description" binding:"required"`
}

type CreateInterventionInput struct {
	Type           string            `json:"type" binding:"required"`
	InstallationID *string           `json:"installation_id"`
	Address        string            `json:"address"`
	ComplaintID    *string           `json:"complaint_id"`
	AlarmCode      string            `json:"alarm_code"`
	TechnicianID   *string           `json:"technician_id"`
	TeamIDs        []string          `json:"team_ids"`
	Report         string            `json:"report"`
	AgendaLines    []AgendaLineInput `json:"agenda_lines"`
}

type UpdateInterventionInput struct {
	Type           *string  `json:"type"`
	InstallationID *string  `json:"installation_id"`
	Address        *string  `json:"address"`
	ComplaintID    *string  `json:"complaint_id"`
	AlarmCode      *string  `json:"alarm_code"`
	TechnicianID   *string  `json:"technician_id"`
	TeamIDs        []string `json:"team_ids"`
	Report         *string  `json:"report"`
}

func (s *InterventionService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Intervention, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

func (s *InterventionService) Get(ctx context.Context, id string) (*entity.Intervention, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *InterventionService) Create(ctx context.Context, input *CreateInterventionInput, createdBy string) (*entity.Intervention, error) {
	typ := strings.TrimSpace(input.Type)
	if !entity.ValidInterventionTypes[typ] {
		return nil, invalid("unknown intervention type %q", input.Type)
	}
	lines, err := agendaLines(input.AgendaLines)
	if err != nil {
		return nil, err
	}

	it := &entity.Intervention{
		ID:             newID(),
		Type:           typ,
		InstallationID: optionalID(input.InstallationID),
		Address:        strings.TrimSpace(input.Address),
		ComplaintID:    optionalID(input.ComplaintID),
		AlarmCode:      strings.TrimSpace(input.AlarmCode),
		State:          entity.InterventionStateDraft,
		TechnicianID:   optionalID(input.TechnicianID),
		Report:         input.Report,
		CreatedBy:      createdBy,
	}
	if err := s.resolve(ctx, it); err != nil {
		return nil, err
	}
	team, err := s.team(ctx, input.TeamIDs)
	if err != nil {
		return nil, err
	}

	name, err := s.seq.GenerateCode(ctx, repository.SeqIntervention, time.Now().Year())
	if err != nil {
		return nil, fmt.Errorf("generate intervention reference: %w", err)
	}
	it.Name = name
	if err := s.repo.Create(ctx, it); err != nil {
		return nil, fmt.Errorf("create intervention: %w", err)
	}
	if len(team) > 0 {
		if err := s.repo.ReplaceTeam(ctx, it, team); err != nil {
			return nil, fmt.Errorf("assign team: %w", err)
		}
	}
	for i := range lines {
		lines[i].InterventionID = it.ID
		if err := s.repo.AddAgendaLine(ctx, &lines[i]); err != nil {
			return nil, fmt.Errorf("add agenda line: %w", err)
		}
	}

	s.logger.Info("intervention created", zap.String("name", it.Name), zap.String("type", it.Type))
	s.hub.PublishTicketUpdate(sse.TicketUpdate{Kind: "intervention", ID: it.ID, Name: it.Name, Action: "created", State: it.State})
	return s.repo.FindByID(ctx, it.ID)
}

func (s *InterventionService) Update(ctx context.Context, id string, input *UpdateInterventionInput) (*entity.Intervention, error) {
	it, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prevInstallation, prevTechnician := strValue(it.InstallationID), strValue(it.TechnicianID)
	if input.Type != nil {
		typ := strings.TrimSpace(*input.Type)
		if !entity.ValidInterventionTypes[typ] {
			return nil, invalid("unknown intervention type %q", *input.Type)
		}
		it.Type = typ
	}
	if input.InstallationID != nil {
		it.InstallationID = optionalID(input.InstallationID)
	}
	if input.Address != nil {
		it.Address = strings.TrimSpace(*input.Address)
	}
	if input.ComplaintID != nil {
		it.ComplaintID = optionalID(input.ComplaintID)
	}
	if input.AlarmCode != nil {
		it.AlarmCode = strings.TrimSpace(*input.AlarmCode)
	}
	if input.TechnicianID != nil {
		it.TechnicianID = optionalID(input.TechnicianID)
	}
	if input.Report != nil {
		it.Report = *input.Report
	}
	if err := s.resolve(ctx, it); err != nil {
		return nil, err
	}
	// evaluations are bound to the installation the intervention was carried out on
	if strValue(it.InstallationID) != prevInstallation {
		n, err := s.evalRepo.CountByIntervention(ctx, id)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, fmt.Errorf("%w: intervention %s already has %d evaluation(s) on its installation", ErrDomainMismatch, it.Name, n)
		}
	}

	it.Installation, it.Complaint, it.Technician = nil, nil, nil
	if err := s.repo.Update(ctx, it); err != nil {
		return nil, fmt.Errorf("update intervention: %w", err)
	}
	if strValue(it.TechnicianID) != prevTechnician {
		if err := s.evalRepo.SyncTechnician(ctx, id, it.TechnicianID); err != nil {
			return nil, fmt.Errorf("reassign evaluations: %w", err)
		}
	}
	if input.TeamIDs != nil {
		if _, err := s.SetTeam(ctx, id, input.TeamIDs); err != nil {
			return nil, err
		}
	}
	s.hub.PublishTicketUpdate(sse.TicketUpdate{Kind: "intervention", ID: it.ID, Name: it.Name, Action: "updated", State: it.State})
	return s.repo.FindByID(ctx, id)
}

// resolve fills installation and address from the complaint and checks the
// installation matches the complaint's one.
func (s *InterventionService) resolve(ctx context.Context, it *entity.Intervention) error {
	if it.ComplaintID != nil {
		c, err := s.complaints.FindByID(ctx, *it.ComplaintID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return invalid("unknown complaint %q", *it.ComplaintID)
			}
			return err
		}
		if it.InstallationID == nil {
			it.InstallationID = c.InstallationID
		} else if c.InstallationID != nil && *c.InstallationID != *it.InstallationID {
			return fmt.Errorf("%w: intervention installation differs from complaint %s", ErrDomainMismatch, c.Name)
		}
	}
	if it.InstallationID != nil && it.Address == "" {
		inst, err := s.installations.FindByID(ctx, *it.InstallationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return invalid("unknown installation %q", *it.InstallationID)
			}
			return err
		}
		it.Address = inst.Address
	}
	if it.TechnicianID != nil {
		if _, err := s.employees.FindByID(ctx, *it.TechnicianID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return invalid("unknown technician %q", *it.TechnicianID)
			}
			return err
		}
	}
	return nil
}

func (s *InterventionService) team(ctx context.Context, ids []string) ([]entity.Employee, error) {
	ids = uniqueIDs(ids)
	team, err := s.employees.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(team) != len(ids) {
		return nil, invalid("unknown employee in team")
	}
	return team, nil
}

// SetTeam replaces the team assigned to the intervention.
func (s *InterventionService) SetTeam(ctx context.Context, id string, employeeIDs []string) (*entity.Intervention, error) {
	it, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	team, err := s.team(ctx, employeeIDs)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceTeam(ctx, &entity.Intervention{ID: it.ID}, team); err != nil {
		return nil, fmt.Errorf("assign team: %w", err)
	}
	return s.repo.FindByID(ctx, id)
}

// SetState moves the intervention to draft, in_progress or closed.
func (s *InterventionService) SetState(ctx context.Context, id, state string) (*entity.Intervention, error) {
	if !entity.ValidInterventionStates[state] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, state)
	}
	it, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateState(ctx, id, state); err != nil {
		return nil, err
	}
	s.hub.PublishTicketUpdate(sse.TicketUpdate{Kind: "intervention", ID: it.ID, Name: it.Name, Action: "state_changed", State: state})
	return s.repo.FindByID(ctx, id)
}

// ========== Agenda ==========

func agendaLines(inputs []AgendaLineInput) ([]entity.AgendaLine, error) {
	lines := make([]entity.AgendaLine, 0, len(inputs))
	for _, in := range inputs {
		line, err := agendaLine(in)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	return lines, nil
}

func agendaLine(in AgendaLineInput) (*entity.AgendaLine, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, invalid("agenda line description is required")
	}
	at := time.Now()
	if in.ScheduledAt != nil {
		at = *in.ScheduledAt
	}
	return &entity.AgendaLine{ID: newID(), ScheduledAt: at, Description: desc}, nil
}

func (s *InterventionService) AddAgendaLine(ctx context.Context, id string, input *AgendaLineInput) (*entity.AgendaLine, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	line, err := agendaLine(*input)
	if err != nil {
		return nil, err
	}
	line.InterventionID = id
	if err := s.repo.AddAgendaLine(ctx, line); err != nil {
		return nil, fmt.Errorf("add agenda line: %w", err)
	}
	return line, nil
}

func (s *InterventionService) ListAgendaLines(ctx context.Context, id string) ([]entity.AgendaLine, error) {
	return s.repo.ListAgendaLines(ctx, id)
}

func (s *InterventionService) RemoveAgendaLine(ctx context.Context, id, lineID string) error {
	return s.repo.RemoveAgendaLine(ctx, id, lineID)
}

// ========== Responses & evaluations ==========

// CreateResponse closes out the intervention with a response ticket;
// closed_at defaults to now.
func (s *InterventionService) CreateResponse(ctx context.Context, id string, input *ResponseInput, createdBy string) (*entity.Response, error) {
	in := *input
	in.InterventionID = id
	return s.responses.Create(ctx, &in, createdBy)
}

func (s *InterventionService) ListResponses(ctx context.Context, id string) ([]entity.Response, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.responseRepo.ListByIntervention(ctx, id)
}

func (s *InterventionService) ResponseCount(ctx context.Context, id string) (int64, error) {
	return s.responseRepo.CountByIntervention(ctx, id)
}

// CreateEvaluation opens an evaluation prefilled with the intervention,
// its installation, the installation's client and the technician.
func (s *InterventionService) CreateEvaluation(ctx context.Context, id string, input *EvaluationInput, createdBy string) (*entity.Evaluation, error) {
	it, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if it.InstallationID == nil {
		return nil, invalid("intervention %s has no installation to evaluate", it.Name)
	}
	in := *input
	in.InterventionID = &it.ID
	in.InstallationID = *it.InstallationID
	if in.ClientID == nil && it.Installation != nil {
		in.ClientID = it.Installation.ClientID
	}
	return s.evaluations.Create(ctx, &in, createdBy)
}

func (s *InterventionService) ListEvaluations(ctx context.Context, id string) ([]entity.Evaluation, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.evalRepo.ListByIntervention(ctx, id)
}
