package entity

import (
	"fmt"
	"strings"
	"time"
)

// Client customer owning installations (res.partner)
type Client struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	Email     string    `json:"email" gorm:"size:200"`
	Phone     string    `json:"phone" gorm:"size:50"`
	Address   string    `json:"address" gorm:"size:500"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Client) TableName() string {
	return "pv_clients"
}

// InverterBrand manufacturer of inverters and modules
type InverterBrand struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Code      string    `json:"code" gorm:"size:50"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (InverterBrand) TableName() string {
	return "pv_inverter_brands"
}

// STEGDistrict utility district
type STEGDistrict struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (STEGDistrict) TableName() string {
	return "pv_steg_districts"
}

// BreakerRating circuit breaker calibre, Code holds the intensity
type BreakerRating struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Code      string    `json:"code" gorm:"size:50"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BreakerRating) TableName() string {
	return "pv_breaker_ratings"
}

// PVModule solar panel model
type PVModule struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Reference string    `json:"reference" gorm:"size:32;not null;uniqueIndex"`
	BrandID   *string   `json:"brand_id" gorm:"size:32;index"`
	Power     string    `json:"power" gorm:"size:50"` // Wc
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Brand *InverterBrand `json:"brand,omitempty" gorm:"foreignKey:BrandID"`
}

func (PVModule) TableName() string {
	return "pv_modules"
}

// DisplayName "<reference> - <brand> <power>"
func (m *PVModule) DisplayName() string {
	return displayName(m.Reference, m.Brand, m.Power)
}

// Inverter PV inverter
type Inverter struct {
	ID              string    `json:"id" gorm:"primaryKey;size:32"`
	Reference       string    `json:"reference" gorm:"size:64;not null;uniqueIndex"`
	BrandID         *string   `json:"brand_id" gorm:"size:32;index"`
	PowerKVA        string    `json:"power_kva" gorm:"size:50"`
	BreakerRatingID *string   `json:"breaker_rating_id" gorm:"size:32"`
	TotalPowerAG    string    `json:"total_power_ag" gorm:"size:50"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Brand         *InverterBrand `json:"brand,omitempty" gorm:"foreignKey:BrandID"`
	BreakerRating *BreakerRating `json:"breaker_rating,omitempty" gorm:"foreignKey:BreakerRatingID"`
}

func (Inverter) TableName() string {
	return "pv_inverters"
}

// DisplayName "<reference> - <brand> <power>"
func (i *Inverter) DisplayName() string {
	return displayName(i.Reference, i.Brand, i.PowerKVA)
}

func displayName(ref string, brand *InverterBrand, power string) string {
	brandName := ""
	if brand != nil {
		brandName = brand.Name
	}
	return strings.TrimRight(fmt.Sprintf("%s - %s %s", ref, brandName, power), " ")
}
