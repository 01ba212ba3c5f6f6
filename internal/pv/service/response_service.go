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

// ResponseService closure and billing tickets (fiches de réponse)
type ResponseService struct {
	repo          *repository.ResponseRepository
	interventions *repository.InterventionRepository
	seq           *repository.SequenceRepository
	hub           *sse.Hub
	logger        *zap.Logger
}

func NewResponseService(repos *repository.Repositories, hub *sse.Hub, logger *zap.Logger) *ResponseService {
	return &ResponseService{
		repo:          repos.Response,
		interventions: repos.Intervention,
		seq:           repos.Sequence,
		hub:           hub,
		logger:        logger,
	}
}

type ResponseInput struct {
	InterventionID string     `json:"intervention_id"`
	ClosedAt       *time.Time `json:"closed_at"`
	AmountDue      float64    `json:"amount_due"`
	Paid           string     `json:"paid"`
}

type UpdateResponseInput struct {
	ClosedAt  *time.Time `json:"closed_at"`
	AmountDue *float64   `json:"amount_due"`
	Paid      *string    `json:"paid"`
}

func checkPaid(paid string) error {
	if paid != entity.PaidYes && paid != entity.PaidNo {
		return invalid("paid must be %q or %q", entity.PaidYes, entity.PaidNo)
	}
	return nil
}

func (s *ResponseService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Response, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

func (s *ResponseService) Get(ctx context.Context, id string) (*entity.Response, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ResponseService) Create(ctx context.Context, input *ResponseInput, createdBy string) (*entity.Response, error) {
	interventionID := strings.TrimSpace(input.InterventionID)
	if interventionID == "" {
		return nil, invalid("intervention is required")
	}
	if _, err := s.interventions.FindByID(ctx, interventionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("unknown intervention %q", interventionID)
		}
		return nil, err
	}
	if input.AmountDue < 0 {
		return nil, invalid("amount due cannot be negative")
	}
	paid := strings.TrimSpace(input.Paid)
	if paid == "" {
		paid = entity.PaidNo
	}
	if err := checkPaid(paid); err != nil {
		return nil, err
	}

	now := time.Now()
	resp := &entity.Response{
		ID:             newID(),
		InterventionID: interventionID,
		ClosedAt:       now,
		AmountDue:      input.AmountDue,
		Paid:           paid,
		CreatedBy:      createdBy,
	}
	if input.ClosedAt != nil {
		resp.ClosedAt = *input.ClosedAt
	}
	name, err := s.seq.GenerateCode(ctx, repository.SeqResponse, now.Year())
	if err != nil {
		return nil, fmt.Errorf("generate response reference: %w", err)
	}
	resp.Name = name
	if err := s.repo.Create(ctx, resp); err != nil {
		return nil, fmt.Errorf("create response: %w", err)
	}

	s.hub.PublishTicketUpdate(sse.TicketUpdate{Kind: "response", ID: resp.ID, Name: resp.Name, Action: "created"})
	return s.repo.FindByID(ctx, resp.ID)
}

func (s *ResponseService) Update(ctx context.Context, id string, input *UpdateResponseInput) (*entity.Response, error) {
	resp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.ClosedAt != nil {
		resp.ClosedAt = *input.ClosedAt
	}
	if input.AmountDue != nil {
		if *input.AmountDue < 0 {
			return nil, invalid("amount due cannot be negative")
		}
		resp.AmountDue = *input.AmountDue
	}
	if input.Paid != nil {
		if err := checkPaid(*input.Paid); err != nil {
			return nil, err
		}
		resp.Paid = *input.Paid
	}
	resp.Intervention = nil
	if err := s.repo.Update(ctx, resp); err != nil {
		return nil, fmt.Errorf("update response: %w", err)
	}
	return s.repo.FindByID(ctx, id)
}

// MarkPaid flags the response as paid.
func (s *ResponseService) MarkPaid(ctx context.Context, id string) (*entity.Response, error) {
	resp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if resp.IsPaid() {
		return resp, nil
	}
	resp.Paid = entity.PaidYes
	resp.Intervention = nil
	if err := s.repo.Update(ctx, resp); err != nil {
		return nil, fmt.Errorf("mark response paid: %w", err)
	}
	s.logger.Info("response marked paid", zap.String("name", resp.Name), zap.Float64("amount", resp.AmountDue))
	s.hub.PublishTicketUpdate(sse.TicketUpdate{Kind: "response", ID: resp.ID, Name: resp.Name, Action: "paid"})
	return s.repo.FindByID(ctx, id)
}
