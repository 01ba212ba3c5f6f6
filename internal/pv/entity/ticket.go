package entity

import (
	"time"

	"gorm.io/gorm"
)

// Complaint customer claim (réclamation) raised against an installation
type Complaint struct {
	ID             string     `json:"id" gorm:"primaryKey;size:32"`
	Name           string     `json:"name" gorm:"size:32;not null;uniqueIndex"`
	OccurredAt     time.Time  `json:"occurred_at" gorm:"not null;index"`
	ClientID       *string    `json:"client_id" gorm:"size:32;index"`
	InstallationID *string    `json:"installation_id" gorm:"size:32;index"`
	Address        string     `json:"address" gorm:"size:500"`
	Description    string     `json:"description" gorm:"type:text;not null"`
	AlarmCodeID    *string    `json:"alarm_code_id" gorm:"size:32;index"`
	Priority       string     `json:"priority" gorm:"size:20"`
	Category       string     `json:"category" gorm:"size:20"`
	AvailableAt    time.Time  `json:"available_at" gorm:"not null"`
	AlarmCause     string     `json:"alarm_cause" gorm:"type:text"`
	State          string     `json:"state" gorm:"size:20;not null;default:open"`
	ClosedAt       *time.Time `json:"closed_at"`
	CreatedBy      string     `json:"created_by" gorm:"size:32"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Client       *Client       `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Installation *Installation `json:"installation,omitempty" gorm:"foreignKey:InstallationID"`
	AlarmCode    *AlarmCode    `json:"alarm_code,omitempty" gorm:"foreignKey:AlarmCodeID"`
}

func (Complaint) TableName() string {
	return "pv_complaints"
}

// AfterFind follows the installation address; the stored column only covers
// complaints read without their installation.
func (c *Complaint) AfterFind(*gorm.DB) error {
	if c.Installation != nil {
		c.Address = c.Installation.Address
	}
	return nil
}

// Complaint priorities
const (
	PriorityLow    = "basse"
	PriorityMedium = "moyenne"
	PriorityHigh   = "haute"
)

var ValidPriorities = map[string]bool{
	PriorityLow:    true,
	PriorityMedium: true,
	PriorityHigh:   true,
}

// Complaint states
const (
	ComplaintStateOpen       = "open"
	ComplaintStateInProgress = "in_progress"
	ComplaintStateClosed     = "closed"
)

// Intervention work order (fiche d'intervention)
type Intervention struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	Name           string    `json:"name" gorm:"size:32;not null;uniqueIndex"`
	Type           string    `json:"type" gorm:"size:20;not null"`
	InstallationID *string   `json:"installation_id" gorm:"size:32;index"`
	Address        string    `json:"address" gorm:"size:500"`
	ComplaintID    *string   `json:"complaint_id" gorm:"size:32;index"`
	AlarmCode      string    `json:"alarm_code" gorm:"size:200"`
	State          string    `json:"state" gorm:"size:20;not null;default:draft;index"`
	TechnicianID   *string   `json:"technician_id" gorm:"size:32;index"`
	Report         string    `json:"report" gorm:"type:text"` // closing summary
	CreatedBy      string    `json:"created_by" gorm:"size:32"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Installation *Installation `json:"installation,omitempty" gorm:"foreignKey:InstallationID"`
	Complaint    *Complaint    `json:"complaint,omitempty" gorm:"foreignKey:ComplaintID"`
	Technician   *Employee     `json:"technician,omitempty" gorm:"foreignKey:TechnicianID"`
	AgendaLines  []AgendaLine  `json:"agenda_lines,omitempty" gorm:"foreignKey:InterventionID"`
	Team         []Employee    `json:"team,omitempty" gorm:"many2many:pv_intervention_team;"`
}

func (Intervention) TableName() string {
	return "pv_interventions"
}

// Intervention types
const (
	InterventionMaintenance  = "maintenance"
	InterventionInstallation = "installation"
	InterventionRepair       = "reparation"
	InterventionInspection   = "inspection"
	InterventionOther        = "autre"
)

var ValidInterventionTypes = map[string]bool{
	InterventionMaintenance:  true,
	InterventionInstallation: true,
	InterventionRepair:       true,
	InterventionInspection:   true,
	InterventionOther:        true,
}

// Intervention states
const (
	InterventionStateDraft      = "draft"
	InterventionStateInProgress = "in_progress"
	InterventionStateClosed     = "closed"
)

var ValidInterventionStates = map[string]bool{
	InterventionStateDraft:      true,
	InterventionStateInProgress: true,
	InterventionStateClosed:     true,
}

// AgendaLine planned step of an intervention
type AgendaLine struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	InterventionID string    `json:"intervention_id" gorm:"size:32;not null;index"`
	ScheduledAt    time.Time `json:"scheduled_at" gorm:"not null"`
	Description    string    `json:"description" gorm:"type:text;not null"`
	CreatedAt      time.Time `json:"created_at"`
}

func (AgendaLine) TableName() string {
	return "pv_intervention_agenda_lines"
}

// Response closure and billing record (fiche de réponse)
type Response struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	Name           string    `json:"name" gorm:"size:32;not null;uniqueIndex"`
	InterventionID string    `json:"intervention_id" gorm:"size:32;not null;index"`
	ClosedAt       time.Time `json:"closed_at" gorm:"not null;index"`
	AmountDue      float64   `json:"amount_due" gorm:"type:decimal(10,2);default:0"`
	Paid           string    `json:"paid" gorm:"size:3;not null;default:non"`
	CreatedBy      string    `json:"created_by" gorm:"size:32"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Intervention *Intervention `json:"intervention,omitempty" gorm:"foreignKey:InterventionID"`
}

func (Response) TableName() string {
	return "pv_responses"
}

// IsPaid reports the oui/non flag as a bool.
func (r *Response) IsPaid() bool {
	return r.Paid == PaidYes
}

const (
	PaidYes = "oui"
	PaidNo  = "non"
)

var ValidComplaintStates = map[string]bool{
	ComplaintStateOpen:       true,
	ComplaintStateInProgress: true,
	ComplaintStateClosed:     true,
}
