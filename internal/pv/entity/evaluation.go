package entity

import "time"

// Evaluation installation and technician evaluation after an intervention
type Evaluation struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	Name           string    `json:"name" gorm:"size:32;not null;uniqueIndex"`
	ClientID       *string   `json:"client_id" gorm:"size:32;index"`
	InstallationID string    `json:"installation_id" gorm:"size:32;not null;index"`
	EvaluatedOn    time.Time `json:"evaluated_on" gorm:"type:date;not null"`
	InterventionID *string   `json:"intervention_id" gorm:"size:32;index"`
	TechnicianID   *string   `json:"technician_id" gorm:"size:32;index"`

	// installation
	PerformanceRatio  float64 `json:"performance_ratio"`
	EnergyProduced    float64 `json:"energy_produced"` // kWh
	SystemEfficiency  float64 `json:"system_efficiency"`
	PanelCondition    string  `json:"panel_condition" gorm:"size:20"`
	InverterCondition string  `json:"inverter_condition" gorm:"size:20"`
	IssuesFound       string  `json:"issues_found" gorm:"type:text"`
	Recommendations   string  `json:"recommendations" gorm:"type:text"`

	// technician
	TechnicianRating          int    `json:"technician_rating"` // 1-5, 0 = not rated
	TechnicianKnowledge       string `json:"technician_knowledge" gorm:"size:20"`
	TechnicianProfessionalism string `json:"technician_professionalism" gorm:"size:20"`
	TechnicianCommunication   string `json:"technician_communication" gorm:"size:20"`
	TechnicianFeedback        string `json:"technician_feedback" gorm:"type:text"`

	State     string    `json:"state" gorm:"size:20;not null;default:draft;index"`
	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Client       *Client       `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Installation *Installation `json:"installation,omitempty" gorm:"foreignKey:InstallationID"`
	Intervention *Intervention `json:"intervention,omitempty" gorm:"foreignKey:InterventionID"`
	Technician   *Employee     `json:"technician,omitempty" gorm:"foreignKey:TechnicianID"`
}

func (Evaluation) TableName() string {
	return "pv_evaluations"
}

// Evaluation states
const (
	EvalStateDraft      = "draft"
	EvalStateInProgress = "in_progress"
	EvalStateDone       = "done"
	EvalStateCanceled   = "canceled"
)

var ValidEvalStates = map[string]bool{
	EvalStateDraft:      true,
	EvalStateInProgress: true,
	EvalStateDone:       true,
	EvalStateCanceled:   true,
}

// Condition grades shared by panel, inverter and technician criteria
const (
	GradeExcellent = "excellent"
	GradeGood      = "good"
	GradeAverage   = "average"
	GradePoor      = "poor"
)

var ValidGrades = map[string]bool{
	GradeExcellent: true,
	GradeGood:      true,
	GradeAverage:   true,
	GradePoor:      true,
}

// GradeScore maps a qualitative grade onto 1-4.
func GradeScore(grade string) int {
	switch grade {
	case GradeExcellent:
		return 4
	case GradeGood:
		return 3
	case GradeAverage:
		return 2
	case GradePoor:
		return 1
	default:
		return 0
	}
}
