package entity

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AlarmCode knowledge-base entry for an equipment alarm
type AlarmCode struct {
	ID      string  `json:"id" gorm:"primaryKey;size:32"`
	Name    string  `json:"name" gorm:"size:200;not null"`
	Part    string  `json:"part" gorm:"size:20;not null;uniqueIndex:uk_alarm_part_brand_code,priority:1"`
	BrandID *string `json:"brand_id" gorm:"size:32;index"`
	Code    string  `json:"code" gorm:"size:64;not null;uniqueIndex:uk_alarm_part_brand_code,priority:3"`

	// BrandKey mirrors BrandID with "" for no brand, NULLs never collide in a unique index
	BrandKey string `json:"-" gorm:"size:32;not null;default:'';uniqueIndex:uk_alarm_part_brand_code,priority:2"`

	// generated action plan
	ActionPlan      datatypes.JSON `json:"action_plan,omitempty"`
	ActionPlanHTML  string         `json:"action_plan_html,omitempty" gorm:"type:text"`
	PlanSource      string         `json:"plan_source,omitempty" gorm:"size:20"` // ai/fallback
	PlanGeneratedAt *time.Time     `json:"plan_generated_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Brand *InverterBrand `json:"brand,omitempty" gorm:"foreignKey:BrandID"`
}

func (AlarmCode) TableName() string {
	return "pv_alarm_codes"
}

func (a *AlarmCode) BeforeSave(*gorm.DB) error {
	a.BrandKey = ""
	if a.BrandID != nil {
		a.BrandKey = *a.BrandID
	}
	return nil
}

// HasPlan reports whether an action plan was generated.
func (a *AlarmCode) HasPlan() bool {
	return a.ActionPlanHTML != ""
}

// Equipment parts an alarm can relate to
const (
	PartInverter     = "onduleur"
	PartModule       = "module"
	PartInstallation = "installation"
	PartBattery      = "batterie"
	PartOther        = "autre"
)

var ValidParts = map[string]bool{
	PartInverter:     true,
	PartModule:       true,
	PartInstallation: true,
	PartBattery:      true,
	PartOther:        true,
}

// Plan sources
const (
	PlanSourceAI       = "ai"
	PlanSourceFallback = "fallback"
)
