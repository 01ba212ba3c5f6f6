package entity

import "time"

// Installation solar PV installation at a client site
type Installation struct {
	ID                string     `json:"id" gorm:"primaryKey;size:32"`
	Code              string     `json:"code" gorm:"size:32;not null;uniqueIndex"`
	Name              string     `json:"name" gorm:"size:200;not null"`
	ClientID          *string    `json:"client_id" gorm:"size:32;index"`
	CommissioningDate *time.Time `json:"commissioning_date" gorm:"type:date"`
	Address           string     `json:"address" gorm:"size:500"`
	Type              string     `json:"type" gorm:"size:20"`
	DistrictID        *string    `json:"district_id" gorm:"size:32;index"`
	STEGReference     int        `json:"steg_reference"`
	MeterType         string     `json:"meter_type" gorm:"size:20"`
	ExistingBreakerID *string    `json:"existing_breaker_id" gorm:"size:32"`
	STEGBreakerID     *string    `json:"steg_breaker_id" gorm:"size:32"`
	SubscribedPower   float64    `json:"subscribed_power"`
	AnnualConsumption int        `json:"annual_consumption"`
	Active            bool       `json:"active" gorm:"not null;default:true"`
	State             string     `json:"state" gorm:"size:20;not null;default:draft;index"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	Client          *Client        `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	District        *STEGDistrict  `json:"district,omitempty" gorm:"foreignKey:DistrictID"`
	ExistingBreaker *BreakerRating `json:"existing_breaker,omitempty" gorm:"foreignKey:ExistingBreakerID"`
	STEGBreaker     *BreakerRating `json:"steg_breaker,omitempty" gorm:"foreignKey:STEGBreakerID"`
	Modules         []PVModule     `json:"modules,omitempty" gorm:"many2many:pv_installation_modules;"`
	Inverters       []Inverter     `json:"inverters,omitempty" gorm:"many2many:pv_installation_inverters;"`
}

func (Installation) TableName() string {
	return "pv_installations"
}

// Installation states
const (
	InstallationStateDraft      = "draft"
	InstallationStateInProgress = "in_progress"
	InstallationStateStopped    = "in_stop"
)

// Installation types
const (
	InstallationTypeResidential = "bt_residentiel"
	InstallationTypeCommercial  = "bt_commercial"
	InstallationTypeIndustrial  = "mt_industriel"
)

// Meter types
const (
	MeterSinglePhase = "monophase"
	MeterThreePhase  = "triphase"
)

// ValidInstallationStates allowed target states
var ValidInstallationStates = map[string]bool{
	InstallationStateDraft:      true,
	InstallationStateInProgress: true,
	InstallationStateStopped:    true,
}

var ValidInstallationTypes = map[string]bool{
	InstallationTypeResidential: true,
	InstallationTypeCommercial:  true,
	InstallationTypeIndustrial:  true,
}

var ValidMeterTypes = map[string]bool{
	MeterSinglePhase: true,
	MeterThreePhase:  true,
}
