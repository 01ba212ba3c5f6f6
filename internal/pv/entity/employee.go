package entity

import "time"

// Employee technician record with AI performance analysis
type Employee struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	Name     string `json:"name" gorm:"size:100;not null"`
	Email    string `json:"email" gorm:"size:200"`
	Phone    string `json:"phone" gorm:"size:50"`
	JobTitle string `json:"job_title" gorm:"size:100"`
	Active   bool   `json:"active" gorm:"not null;default:true"`

	LastAIAnalysisAt  *time.Time `json:"last_ai_analysis_at"`
	AIAnalysisHTML    string     `json:"ai_analysis_html,omitempty" gorm:"type:text"`
	PerformanceRating string     `json:"performance_rating" gorm:"size:20"`

	EvaluationCount int64 `json:"evaluation_count" gorm:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Employee) TableName() string {
	return "pv_employees"
}

// Performance ratings
const (
	RatingExcellent        = "excellent"
	RatingGood             = "good"
	RatingAverage          = "average"
	RatingNeedsImprovement = "needs_improvement"
)

var ValidPerformanceRatings = map[string]bool{
	RatingExcellent:        true,
	RatingGood:             true,
	RatingAverage:          true,
	RatingNeedsImprovement: true,
}

// Attachment file linked to a record, stored in MinIO or on local disk
type Attachment struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	OwnerType   string    `json:"owner_type" gorm:"size:30;not null;index:idx_attachment_owner"`
	OwnerID     string    `json:"owner_id" gorm:"size:32;not null;index:idx_attachment_owner"`
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	ContentType string    `json:"content_type" gorm:"size:100"`
	Size        int64     `json:"size"`
	ObjectKey   string    `json:"object_key" gorm:"size:500;not null"`
	Storage     string    `json:"storage" gorm:"size:10"` // minio/local
	UploadedBy  string    `json:"uploaded_by" gorm:"size:32"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Attachment) TableName() string {
	return "pv_attachments"
}

// Sequence per-year counter backing reference codes
type Sequence struct {
	Code      string `gorm:"primaryKey;size:20"`
	Year      int    `gorm:"primaryKey;autoIncrement:false"`
	NextValue int    `gorm:"not null;default:0"`
}

func (Sequence) TableName() string {
	return "pv_sequences"
}

// AllModels lists every table for AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&Client{},
		&InverterBrand{},
		&STEGDistrict{},
		&BreakerRating{},
		&PVModule{},
		&Inverter{},
		&Installation{},
		&AlarmCode{},
		&Employee{},
		&Complaint{},
		&Intervention{},
		&AgendaLine{},
		&Response{},
		&Evaluation{},
		&Attachment{},
		&Sequence{},
	}
}
