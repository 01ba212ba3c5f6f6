package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"github.com/Chihaouimed/PV/internal/pv/repository"
)

// CatalogService clients and equipment reference data
type CatalogService struct {
	clients   *repository.ClientRepository
	brands    *repository.BrandRepository
	districts *repository.DistrictRepository
	breakers  *repository.BreakerRepository
	modules   *repository.ModuleRepository
	inverters *repository.InverterRepository
	seq       *repository.SequenceRepository
}

func NewCatalogService(repos *repository.Repositories) *CatalogService {
	return &CatalogService{
		clients:   repos.Client,
		brands:    repos.Brand,
		districts: repos.District,
		breakers:  repos.Breaker,
		modules:   repos.Module,
		inverters: repos.Inverter,
		seq:       repos.Sequence,
	}
}

// ========== Clients ==========

type ClientInput struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (s *CatalogService) ListClients(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Client, int64, error) {
	return s.clients.FindAll(ctx, page, pageSize, filters)
}

func (s *CatalogService) GetClient(ctx context.Context, id string) (*entity.Client, error) {
	return s.clients.FindByID(ctx, id)
}

func (s *CatalogService) CreateClient(ctx context.Context, input *ClientInput) (*entity.Client, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid("client name is required")
	}
	c := &entity.Client{
		ID:      newID(),
		Name:    name,
		Email:   strings.TrimSpace(input.Email),
		Phone:   input.Phone,
		Address: input.Address,
	}
	if err := s.clients.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

func (s *CatalogService) UpdateClient(ctx context.Context, id string, input *ClientInput) (*entity.Client, error) {
	c, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		c.Name = name
	}
	c.Email = strings.TrimSpace(input.Email)
	c.Phone = input.Phone
	c.Address = input.Address
	if err := s.clients.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return c, nil
}

func (s *CatalogService) DeleteClient(ctx context.Context, id string) error {
	return s.clients.Delete(ctx, id)
}

// ========== Brands, districts, breaker ratings ==========

// NamedInput input of the small name/code reference tables
type NamedInput struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code"`
}

func (in *NamedInput) clean() (string, string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", "", invalid("name is required")
	}
	return name, strings.TrimSpace(in.Code), nil
}

func (s *CatalogService) ListBrands(ctx context.Context) ([]entity.InverterBrand, error) {
	return s.brands.FindAll(ctx)
}

func (s *CatalogService) CreateBrand(ctx context.Context, input *NamedInput) (*entity.InverterBrand, error) {
	name, code, err := input.clean()
	if err != nil {
		return nil, err
	}
	b := &entity.InverterBrand{ID: newID(), Name: name, Code: code}
	if err := s.brands.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create brand: %w", err)
	}
	return b, nil
}

func (s *CatalogService) UpdateBrand(ctx context.Context, id string, input *NamedInput) (*entity.InverterBrand, error) {
	name, code, err := input.clean()
	if err != nil {
		return nil, err
	}
	b, err := s.brands.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Name, b.Code = name, code
	if err := s.brands.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("update brand: %w", err)
	}
	return b, nil
}

func (s *CatalogService) DeleteBrand(ctx context.Context, id string) error {
	return s.brands.Delete(ctx, id)
}

func (s *CatalogService) ListDistricts(ctx context.Context) ([]entity.STEGDistrict, error) {
	return s.districts.FindAll(ctx)
}

func (s *CatalogService) CreateDistrict(ctx context.Context, input *NamedInput) (*entity.STEGDistrict, error) {
	name, _, err := input.clean()
	if err != nil {
		return nil, err
	}
	d := &entity.STEGDistrict{ID: newID(), Name: name}
	if err := s.districts.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create district: %w", err)
	}
	return d, nil
}

func (s *CatalogService) UpdateDistrict(ctx context.Context, id string, input *NamedInput) (*entity.STEGDistrict, error) {
	name, _, err := input.clean()
	if err != nil {
		return nil, err
	}
	d, err := s.districts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Name = name
	if err := s.districts.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("update district: %w", err)
	}
	return d, nil
}

func (s *CatalogService) DeleteDistrict(ctx context.Context, id string) error {
	return s.districts.Delete(ctx, id)
}

func (s *CatalogService) ListBreakers(ctx context.Context) ([]entity.BreakerRating, error) {
	return s.breakers.FindAll(ctx)
}

func (s *CatalogService) CreateBreaker(ctx context.Context, input *NamedInput) (*entity.BreakerRating, error) {
	name, code, err := input.clean()
	if err != nil {
		return nil, err
	}
	b := &entity.BreakerRating{ID: newID(), Name: name, Code: code}
	if err := s.breakers.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create breaker rating: %w", err)
	}
	return b, nil
}

func (s *CatalogService) UpdateBreaker(ctx context.Context, id string, input *NamedInput) (*entity.BreakerRating, error) {
	name, code, err := input.clean()
	if err != nil {
		return nil, err
	}
	b, err := s.breakers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Name, b.Code = name, code
	if err := s.breakers.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("update breaker rating: %w", err)
	}
	return b, nil
}

func (s *CatalogService) DeleteBreaker(ctx context.Context, id string) error {
	return s.breakers.Delete(ctx, id)
}

// ========== PV modules ==========

type ModuleInput struct {
	BrandID *string `json:"brand_id"`
	Power   string  `json:"power"`
}

func (s *CatalogService) ListModules(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PVModule, int64, error) {
	return s.modules.FindAll(ctx, page, pageSize, filters)
}

func (s *CatalogService) GetModule(ctx context.Context, id string) (*entity.PVModule, error) {
	return s.modules.FindByID(ctx, id)
}

// CreateModule allocates the next PVM-YYYY-NNNN reference.
func (s *CatalogService) CreateModule(ctx context.Context, input *ModuleInput) (*entity.PVModule, error) {
	ref, err := s.seq.GenerateCode(ctx, repository.SeqModule, time.Now().Year())
	if err != nil {
		return nil, fmt.Errorf("generate module reference: %w", err)
	}
	m := &entity.PVModule{
		ID:        newID(),
		Reference: ref,
		BrandID:   optionalID(input.BrandID),
		Power:     strings.TrimSpace(input.Power),
	}
	if err := s.modules.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create module: %w", err)
	}
	return s.modules.FindByID(ctx, m.ID)
}

func (s *CatalogService) UpdateModule(ctx context.Context, id string, input *ModuleInput) (*entity.PVModule, error) {
	m, err := s.modules.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.BrandID = optionalID(input.BrandID)
	m.Power = strings.TrimSpace(input.Power)
	if err := s.modules.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("update module: %w", err)
	}
	return s.modules.FindByID(ctx, id)
}

func (s *CatalogService) DeleteModule(ctx context.Context, id string) error {
	return s.modules.Delete(ctx, id)
}

// ========== Inverters ==========

type InverterInput struct {
	Reference       string  `json:"reference" binding:"required"`
	BrandID         *string `json:"brand_id"`
	PowerKVA        string  `json:"power_kva"`
	BreakerRatingID *string `json:"breaker_rating_id"`
	TotalPowerAG    string  `json:"total_power_ag"`
}

func (s *CatalogService) ListInverters(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Inverter, int64, error) {
	return s.inverters.FindAll(ctx, page, pageSize, filters)
}

func (s *CatalogService) GetInverter(ctx context.Context, id string) (*entity.Inverter, error) {
	return s.inverters.FindByID(ctx, id)
}

// CreateInverter rejects an empty or already used reference.
func (s *CatalogService) CreateInverter(ctx context.Context, input *InverterInput) (*entity.Inverter, error) {
	ref := strings.TrimSpace(input.Reference)
	if ref == "" {
		return nil, invalid("inverter reference is required")
	}
	if err := s.checkInverterReference(ctx, ref, ""); err != nil {
		return nil, err
	}
	inv := &entity.Inverter{
		ID:              newID(),
		Reference:       ref,
		BrandID:         optionalID(input.BrandID),
		PowerKVA:        strings.TrimSpace(input.PowerKVA),
		BreakerRatingID: optionalID(input.BreakerRatingID),
		TotalPowerAG:    strings.TrimSpace(input.TotalPowerAG),
	}
	if err := s.inverters.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create inverter: %w", err)
	}
	return s.inverters.FindByID(ctx, inv.ID)
}

func (s *CatalogService) UpdateInverter(ctx context.Context, id string, input *InverterInput) (*entity.Inverter, error) {
	inv, err := s.inverters.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ref := strings.TrimSpace(input.Reference)
	if ref == "" {
		return nil, invalid("inverter reference is required")
	}
	if ref != inv.Reference {
		if err := s.checkInverterReference(ctx, ref, id); err != nil {
			return nil, err
		}
	}
	inv.Reference = ref
	inv.BrandID = optionalID(input.BrandID)
	inv.PowerKVA = strings.TrimSpace(input.PowerKVA)
	inv.BreakerRatingID = optionalID(input.BreakerRatingID)
	inv.TotalPowerAG = strings.TrimSpace(input.TotalPowerAG)
	if err := s.inverters.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("update inverter: %w", err)
	}
	return s.inverters.FindByID(ctx, id)
}

func (s *CatalogService) DeleteInverter(ctx context.Context, id string) error {
	return s.inverters.Delete(ctx, id)
}

func (s *CatalogService) checkInverterReference(ctx context.Context, ref, selfID string) error {
	existing, err := s.inverters.FindByReference(ctx, ref)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return fmt.Errorf("inverter reference %q: %w", ref, repository.ErrDuplicate)
	}
	return nil
}
