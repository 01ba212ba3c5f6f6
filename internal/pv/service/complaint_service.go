package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"github.com/Chihaouimed/PV/internal/pv/heuristic"
	"github.com/Chihaouimed/PV/internal/pv/repository"
	"github.com/Chihaouimed/PV/internal/shared/mail"
	"github.com/Chihaouimed/PV/internal/shared/sse"
	"github.com/Chihaouimed/PV/internal/shared/worker"
	"go.uber.org/zap"
)

// ComplaintService customer complaints (réclamations)
type ComplaintService struct {
	repo          *repository.ComplaintRepository
	installations *repository.InstallationRepository
	alarmRepo     *repository.AlarmRepository
	interventions *repository.InterventionRepository
	seq           *repository.SequenceRepository

	alarms          *AlarmService
	interventionSvc *InterventionService
	mailer          mail.Sender
	hub             *sse.Hub
	mailPool        *worker.Pool
	logger          *zap.Logger
}

func NewComplaintService(repos *repository.Repositories, alarms *AlarmService, interventionSvc *InterventionService,
	mailer mail.Sender, hub *sse.Hub, mailPool *worker.Pool, logger *zap.Logger) *ComplaintService {
	return &ComplaintService{
		repo:            repos.Complaint,
		installations:   repos.Installation,
		alarmRepo:       repos.Alarm,
		interventions:   repos.Intervention,
		seq:             repos.Sequence,
		alarms:          alarms,
		interventionSvc: interventionSvc,
		mailer:          mailer,
		hub:             hub,
		mailPool:        mailPool,
		logger:          logger,
	}
}

type CreateComplaintInput struct {
	OccurredAt     *time.Time `json:"occurred_at"`
	ClientID       *string    `json:"client_id"`
	InstallationID *string    `json:"installation_id"`
	Description    string     `json:"description" binding:"required"`
	AlarmCodeID    *string    `json:"alarm_code_id"`
	Priority       string     `json:"priority"`
	AvailableAt    *time.Time `json:"available_at"`
	AlarmCause     string     `json:"alarm_cause"`
}

type UpdateComplaintInput struct {
	OccurredAt     *time.Time `json:"occurred_at"`
	ClientID       *string    `json:"client_id"`
	InstallationID *string    `json:"installation_id"`
	Description    *string    `json:"description"`
	AlarmCodeID    *string    `json:"alarm_code_id"`
	Priority       *string    `json:"priority"`
	AvailableAt    *time.Time `json:"available_at"`
	AlarmCause     *string    `json:"alarm_cause"`
}

func (s *ComplaintService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Complaint, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

func (s *ComplaintService) Get(ctx context.Context, id string) (*entity.Complaint, error) {
	return s.repo.FindByID(ctx, id)
}

// Create registers a complaint. The address comes from the installation; the
// priority is inferred from the text when not given, the category always is.
func (s *ComplaintService) Create(ctx context.Context, input *CreateComplaintInput, createdBy string) (*entity.Complaint, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, invalid("description is required")
	}
	now := time.Now()
	c := &entity.Complaint{
		ID:             newID(),
		OccurredAt:     now,
		ClientID:       optionalID(input.ClientID),
		InstallationID: optionalID(input.InstallationID),
		Description:    description,
		AlarmCodeID:    optionalID(input.AlarmCodeID),
		Priority:       strings.TrimSpace(input.Priority),
		AvailableAt:    now,
		AlarmCause:     strings.TrimSpace(input.AlarmCause),
		State:          entity.ComplaintStateOpen,
		CreatedBy:      createdBy,
	}
	if input.OccurredAt != nil {
		c.OccurredAt = *input.OccurredAt
	}
	if input.AvailableAt != nil {
		c.AvailableAt = *input.AvailableAt
	}
	if err := s.resolve(ctx, c); err != nil {
		return nil, err
	}

	name, err := s.seq.GenerateCode(ctx, repository.SeqComplaint, now.Year())
	if err != nil {
		return nil, fmt.Errorf("generate complaint reference: %w", err)
	}
	c.Name = name
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create complaint: %w", err)
	}

	s.logger.Info("complaint created",
		zap.String("name", c.Name),
		zap.String("priority", c.Priority),
		zap.String("category", c.Category))
	s.hub.PublishTicketUpdate(sse.TicketUpdate{Kind: "complaint", ID: c.ID, Name: c.Name, Action: "created", State: c.State})
	return s.repo.FindByID(ctx, c.ID)
}

func (s *ComplaintService) Update(ctx context.Context, id string, input *UpdateComplaintInput) (*entity.Complaint, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.OccurredAt != nil {
		c.OccurredAt = *input.OccurredAt
	}
	if input.ClientID != nil {
		clientID := optionalID(input.ClientID)
		// changing the client resets the installation unless a new one is given
		if !sameID(clientID, c.ClientID) && input.InstallationID == nil {
			c.InstallationID = nil
		}
		c.ClientID = clientID
	}
	if input.InstallationID != nil {
		c.InstallationID = optionalID(input.InstallationID)
	}
	if input.Description != nil {
		d := strings.TrimSpace(*input.Description)
		if d == "" {
			return nil, invalid("description is required")
		}
		c.Description = d
	}
	if input.AlarmCodeID != nil {
		c.AlarmCodeID = optionalID(input.AlarmCodeID)
	}
	if input.Priority != nil {
		c.Priority = strings.TrimSpace(*input.Priority)
	}
	if input.AvailableAt != nil {
		c.AvailableAt = *input.AvailableAt
	}
	if input.AlarmCause != nil {
		c.AlarmCause = strings.TrimSpace(*input.AlarmCause)
	}
	if err := s.resolve(ctx, c); err != nil {
		return nil, err
	}

	c.Client, c.Installation, c.AlarmCode = nil, nil, nil
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update complaint: %w", err)
	}
	s.hub.PublishTicketUpdate(sse.TicketUpdate{Kind: "complaint", ID: c.ID, Name: c.Name, Action: "updated", State: c.State})
	return s.repo.FindByID(ctx, id)
}

// resolve checks the client/installation pair, derives the address and
// fills priority and category.
func (s *ComplaintService) resolve(ctx context.Context, c *entity.Complaint) error {
	c.Address = ""
	if c.InstallationID != nil {
		inst, err := s.installations.FindByID(ctx, *c.InstallationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return invalid("unknown installation %q", *c.InstallationID)
			}
			return err
		}
		if c.ClientID == nil {
			c.ClientID = inst.ClientID
		} else if !sameID(c.ClientID, inst.ClientID) {
			return fmt.Errorf("%w: installation %s does not belong to the selected client", ErrDomainMismatch, inst.Code)
		}
		c.Address = inst.Address
	}

	var alarm *entity.AlarmCode
	if c.AlarmCodeID != nil {
		a, err := s.alarmRepo.FindByID(ctx, *c.AlarmCodeID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return invalid("unknown alarm code %q", *c.AlarmCodeID)
			}
			return err
		}
		alarm = a
	}

	text := strings.Join([]string{c.Description, c.AlarmCause}, " ")
	if alarm != nil {
		text += " " + alarm.Name
	}
	if c.Priority == "" {
		c.Priority = heuristic.InferPriority(text)
	} else if !entity.ValidPriorities[c.Priority] {
		return invalid("unknown priority %q", c.Priority)
	}
	if alarm != nil {
		c.Category = alarm.Part
	} else {
		c.Category = heuristic.InferCategory(text)
	}
	return nil
}

// SetState moves an open complaint to in_progress or back to open. Closing
// goes through Close.
func (s *ComplaintService) SetState(ctx context.Context, id, state string) (*entity.Complaint, error) {
	if state == entity.ComplaintStateClosed {
		return s.Close(ctx, id)
	}
	if !entity.ValidComplaintStates[state] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, state)
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateState(ctx, id, state, nil); err != nil {
		return nil, err
	}
	s.hub.PublishTicketUpdate(sse.TicketUpdate{Kind: "complaint", ID: c.ID, Name: c.Name, Action: "state_changed", State: state})
	return s.repo.FindByID(ctx, id)
}

// Close closes the complaint and notifies the client by e-mail when an
// address is known. Mail failures are logged only.
func (s *ComplaintService) Close(ctx context.Context, id string) (*entity.Complaint, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.State == entity.ComplaintStateClosed {
		return nil, fmt.Errorf("%w: complaint %s is already closed", ErrInvalidState, c.Name)
	}
	now := time.Now()
	if err := s.repo.UpdateState(ctx, id, entity.ComplaintStateClosed, &now); err != nil {
		return nil, err
	}
	c.State = entity.ComplaintStateClosed
	c.ClosedAt = &now

	s.notifyClosed(ctx, c)
	s.hub.PublishTicketUpdate(sse.TicketUpdate{Kind: "complaint", ID: c.ID, Name: c.Name, Action: "closed", State: c.State})
	return s.repo.FindByID(ctx, id)
}

func (s *ComplaintService) notifyClosed(ctx context.Context, c *entity.Complaint) {
	if c.Client == nil || strings.TrimSpace(c.Client.Email) == "" {
		return
	}
	msg := closureMessage(c)
	send := func(ctx context.Context) {
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.logger.Warn("complaint closure e-mail failed", zap.String("complaint", c.Name), zap.Error(err))
		}
	}
	if s.mailPool == nil {
		send(ctx)
		return
	}
	if err := s.mailPool.SubmitDetached(send); err != nil {
		// never hold the closing request on a saturated pool
		s.logger.Debug("mail pool unavailable, sending on its own goroutine", zap.Error(err))
		go send(context.WithoutCancel(ctx))
	}
}

func closureMessage(c *entity.Complaint) mail.Message {
	installation := ""
	if c.Installation != nil {
		installation = c.Installation.Name
	}
	plain := fmt.Sprintf("Bonjour %s,\n\nVotre réclamation %s", c.Client.Name, c.Name)
	if installation != "" {
		plain += fmt.Sprintf(" concernant l'installation %s", installation)
	}
	plain += " a été clôturée.\n\nCordialement,\nL'équipe maintenance PV"
	return mail.Message{
		To:        c.Client.Email,
		Subject:   fmt.Sprintf("Réclamation %s clôturée", c.Name),
		PlainBody: plain,
	}
}

// ActionPlan returns the linked alarm carrying its plan, generating the plan
// when missing. ErrNoAlarmCode when no alarm is linked.
func (s *ComplaintService) ActionPlan(ctx context.Context, id string) (*entity.AlarmCode, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.AlarmCodeID == nil {
		return nil, ErrNoAlarmCode
	}
	return s.alarms.GetActionPlan(ctx, *c.AlarmCodeID)
}

// CreateIntervention opens a work order prefilled from the complaint.
func (s *ComplaintService) CreateIntervention(ctx context.Context, id, typ, createdBy string) (*entity.Intervention, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	input := &CreateInterventionInput{
		Type:           typ,
		InstallationID: c.InstallationID,
		Address:        c.Address,
		ComplaintID:    &c.ID,
	}
	if c.AlarmCode != nil {
		input.AlarmCode = c.AlarmCode.Name
	}
	return s.interventionSvc.Create(ctx, input, createdBy)
}

func (s *ComplaintService) ListInterventions(ctx context.Context, id string) ([]entity.Intervention, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.interventions.ListByComplaint(ctx, id)
}

func (s *ComplaintService) InterventionCount(ctx context.Context, id string) (int64, error) {
	return s.interventions.CountByComplaint(ctx, id)
}
