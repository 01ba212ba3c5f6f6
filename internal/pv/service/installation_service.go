package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"github.com/Chihaouimed/PV/internal/pv/repository"
)

type InstallationService struct {
	repo      *repository.InstallationRepository
	modules   *repository.ModuleRepository
	inverters *repository.InverterRepository
	seq       *repository.SequenceRepository
}

func NewInstallationService(repos *repository.Repositories) *InstallationService {
	return &InstallationService{
		repo:      repos.Installation,
		modules:   repos.Module,
		inverters: repos.Inverter,
		seq:       repos.Sequence,
	}
}

// CreateInstallationInput create request
type CreateInstallationInput struct {
	Name              string     `json:"name" binding:"required"`
	ClientID          *string    `json:"client_id"`
	CommissioningDate *time.Time `json:"commissioning_date"`
	Address           string     `json:"address"`
	Type              string     `json:"type"`
	DistrictID        *string    `json:"district_id"`
	STEGReference     int        `json:"steg_reference"`
	MeterType         string     `json:"meter_type"`
	ExistingBreakerID *string    `json:"existing_breaker_id"`
	STEGBreakerID     *string    `json:"steg_breaker_id"`
	SubscribedPower   float64    `json:"subscribed_power"`
	AnnualConsumption int        `json:"annual_consumption"`
	ModuleIDs         []string   `json:"module_ids"`
	InverterIDs       []string   `json:"inverter_ids"`
}

// UpdateInstallationInput partial update, nil fields are left untouched
type UpdateInstallationInput struct {
	Name              *string    `json:"name"`
	ClientID          *string    `json:"client_id"`
	CommissioningDate *time.Time `json:"commissioning_date"`
	Address           *string    `json:"address"`
	Type              *string    `json:"type"`
	DistrictID        *string    `json:"district_id"`
	STEGReference     *int       `json:"steg_reference"`
	MeterType         *string    `json:"meter_type"`
	ExistingBreakerID *string    `json:"existing_breaker_id"`
	STEGBreakerID     *string    `json:"steg_breaker_id"`
	SubscribedPower   *float64   `json:"subscribed_power"`
	AnnualConsumption *int       `json:"annual_consumption"`
	ModuleIDs         []string   `json:"module_ids"`
	InverterIDs       []string   `json:"inverter_ids"`
}

func (s *InstallationService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Installation, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

func (s *InstallationService) Get(ctx context.Context, id string) (*entity.Installation, error) {
	return s.repo.FindByID(ctx, id)
}

// ListByClient active installations selectable for a client
func (s *InstallationService) ListByClient(ctx context.Context, clientID string) ([]entity.Installation, error) {
	return s.repo.ListByClient(ctx, clientID)
}

func (s *InstallationService) Create(ctx context.Context, input *CreateInstallationInput) (*entity.Installation, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid("installation name is required")
	}
	if err := checkInstallationEnums(input.Type, input.MeterType); err != nil {
		return nil, err
	}

	code, err := s.seq.GenerateCode(ctx, repository.SeqInstallation, time.Now().Year())
	if err != nil {
		return nil, fmt.Errorf("generate installation code: %w", err)
	}
	inst := &entity.Installation{
		ID:                newID(),
		Code:              code,
		Name:              name,
		ClientID:          optionalID(input.ClientID),
		CommissioningDate: input.CommissioningDate,
		Address:           input.Address,
		Type:              input.Type,
		DistrictID:        optionalID(input.DistrictID),
		STEGReference:     input.STEGReference,
		MeterType:         input.MeterType,
		ExistingBreakerID: optionalID(input.ExistingBreakerID),
		STEGBreakerID:     optionalID(input.STEGBreakerID),
		SubscribedPower:   input.SubscribedPower,
		AnnualConsumption: input.AnnualConsumption,
		Active:            true,
		State:             entity.InstallationStateDraft,
	}
	if err := s.repo.Create(ctx, inst); err != nil {
		return nil, fmt.Errorf("create installation: %w", err)
	}
	if len(input.ModuleIDs) > 0 || len(input.InverterIDs) > 0 {
		if err := s.replaceEquipment(ctx, inst, input.ModuleIDs, input.InverterIDs); err != nil {
			return nil, err
		}
	}
	return s.repo.FindByID(ctx, inst.ID)
}

func (s *InstallationService) Update(ctx context.Context, id string, input *UpdateInstallationInput) (*entity.Installation, error) {
	inst, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, invalid("installation name is required")
		}
		inst.Name = name
	}
	if input.ClientID != nil {
		inst.ClientID = optionalID(input.ClientID)
	}
	if input.CommissioningDate != nil {
		inst.CommissioningDate = input.CommissioningDate
	}
	if input.Address != nil {
		inst.Address = *input.Address
	}
	if input.Type != nil {
		inst.Type = *input.Type
	}
	if input.DistrictID != nil {
		inst.DistrictID = optionalID(input.DistrictID)
	}
	if input.STEGReference != nil {
		inst.STEGReference = *input.STEGReference
	}
	if input.MeterType != nil {
		inst.MeterType = *input.MeterType
	}
	if input.ExistingBreakerID != nil {
		inst.ExistingBreakerID = optionalID(input.ExistingBreakerID)
	}
	if input.STEGBreakerID != nil {
		inst.STEGBreakerID = optionalID(input.STEGBreakerID)
	}
	if input.SubscribedPower != nil {
		inst.SubscribedPower = *input.SubscribedPower
	}
	if input.AnnualConsumption != nil {
		inst.AnnualConsumption = *input.AnnualConsumption
	}
	if err := checkInstallationEnums(inst.Type, inst.MeterType); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, inst); err != nil {
		return nil, fmt.Errorf("update installation: %w", err)
	}
	if input.ModuleIDs != nil || input.InverterIDs != nil {
		moduleIDs, inverterIDs := input.ModuleIDs, input.InverterIDs
		if moduleIDs == nil {
			moduleIDs = equipmentIDs(inst.Modules, func(m entity.PVModule) string { return m.ID })
		}
		if inverterIDs == nil {
			inverterIDs = equipmentIDs(inst.Inverters, func(i entity.Inverter) string { return i.ID })
		}
		if err := s.replaceEquipment(ctx, inst, moduleIDs, inverterIDs); err != nil {
			return nil, err
		}
	}
	return s.repo.FindByID(ctx, id)
}

// SetEquipment replaces the module and inverter sets.
func (s *InstallationService) SetEquipment(ctx context.Context, id string, moduleIDs, inverterIDs []string) (*entity.Installation, error) {
	inst, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.replaceEquipment(ctx, inst, moduleIDs, inverterIDs); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *InstallationService) replaceEquipment(ctx context.Context, inst *entity.Installation, moduleIDs, inverterIDs []string) error {
	moduleIDs, inverterIDs = uniqueIDs(moduleIDs), uniqueIDs(inverterIDs)

	modules, err := s.modules.FindByIDs(ctx, moduleIDs)
	if err != nil {
		return err
	}
	if len(modules) != len(moduleIDs) {
		return invalid("unknown PV module in selection")
	}
	inverters, err := s.inverters.FindByIDs(ctx, inverterIDs)
	if err != nil {
		return err
	}
	if len(inverters) != len(inverterIDs) {
		return invalid("unknown inverter in selection")
	}
	if err := s.repo.ReplaceEquipment(ctx, inst, modules, inverters); err != nil {
		return fmt.Errorf("replace equipment: %w", err)
	}
	return nil
}

// SetState moves the installation to draft, in_progress or in_stop.
func (s *InstallationService) SetState(ctx context.Context, id, state string) (*entity.Installation, error) {
	if !entity.ValidInstallationStates[state] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, state)
	}
	if err := s.repo.UpdateState(ctx, id, state); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Archive hides the installation from client selections.
func (s *InstallationService) Archive(ctx context.Context, id string) error {
	return s.repo.Archive(ctx, id)
}

func checkInstallationEnums(typ, meter string) error {
	if typ != "" && !entity.ValidInstallationTypes[typ] {
		return invalid("unknown installation type %q", typ)
	}
	if meter != "" && !entity.ValidMeterTypes[meter] {
		return invalid("unknown meter type %q", meter)
	}
	return nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func equipmentIDs[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}
