package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/advisor"
	"github.com/Chihaouimed/PV/internal/pv/repository"
	"github.com/Chihaouimed/PV/internal/shared/mail"
	"github.com/Chihaouimed/PV/internal/shared/sse"
	"github.com/Chihaouimed/PV/internal/shared/storage"
	"github.com/Chihaouimed/PV/internal/shared/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrInvalidState   = errors.New("invalid state")
	ErrDomainMismatch = errors.New("related records do not match")
	ErrNoAlarmCode    = errors.New("no alarm code linked to this complaint")
)

// Services service set
type Services struct {
	Catalog      *CatalogService
	Installation *InstallationService
	Alarm        *AlarmService
	Complaint    *ComplaintService
	Intervention *InterventionService
	Response     *ResponseService
	Evaluation   *EvaluationService
	Technician   *TechnicianService
	Attachment   *AttachmentService
	Report       *ReportService
}

// Options optional collaborators; nil members disable the matching feature.
type Options struct {
	Advisor        *advisor.Advisor
	Mailer         mail.Sender
	Hub            *sse.Hub
	Store          storage.Store
	Redis          *redis.Client
	Pool           *worker.Pool
	MailPool       *worker.Pool
	ReportCacheTTL time.Duration
	ReportWindow   time.Duration
	Logger         *zap.Logger
}

// NewServices wires every service on top of repos.
func NewServices(repos *repository.Repositories, opts Options) *Services {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	adv := opts.Advisor
	if adv == nil {
		adv = advisor.New(nil, logger)
	}
	mailer := opts.Mailer
	if mailer == nil {
		mailer = mail.NewMailer(mail.Config{}, logger)
	}

	alarmSvc := NewAlarmService(repos.Alarm, repos.Brand, adv, opts.Pool, logger)
	evalSvc := NewEvaluationService(repos, opts.Hub, logger)
	responseSvc := NewResponseService(repos, opts.Hub, logger)
	interventionSvc := NewInterventionService(repos, responseSvc, evalSvc, opts.Hub, logger)

	return &Services{
		Catalog:      NewCatalogService(repos),
		Installation: NewInstallationService(repos),
		Alarm:        alarmSvc,
		Complaint:    NewComplaintService(repos, alarmSvc, interventionSvc, mailer, opts.Hub, opts.MailPool, logger),
		Intervention: interventionSvc,
		Response:     responseSvc,
		Evaluation:   evalSvc,
		Technician:   NewTechnicianService(repos.Employee, repos.Evaluation, adv, logger),
		Attachment:   NewAttachmentService(repos.Attachment, opts.Store, logger),
		Report:       NewReportService(repos.Report, opts.Redis, opts.ReportCacheTTL, opts.ReportWindow, logger),
	}
}

func newID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// optionalID turns "" into nil
func optionalID(id *string) *string {
	if id == nil {
		return nil
	}
	v := strings.TrimSpace(*id)
	if v == "" {
		return nil
	}
	return &v
}

func strValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func sameID(a, b *string) bool {
	return strValue(a) == strValue(b)
}
