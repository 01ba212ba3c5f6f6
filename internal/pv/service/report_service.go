package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"github.com/Chihaouimed/PV/internal/pv/repository"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const dashboardCachePrefix = "pv:dashboard:"

// ReportService dashboard KPIs, analytical report rows and their XLSX export
type ReportService struct {
	repo   *repository.ReportRepository
	rdb    *redis.Client
	ttl    time.Duration
	window time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewReportService(repo *repository.ReportRepository, rdb *redis.Client, ttl, window time.Duration, logger *zap.Logger) *ReportService {
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	return &ReportService{repo: repo, rdb: rdb, ttl: ttl, window: window, logger: logger, now: time.Now}
}

// Dashboard KPIs over a period
type Dashboard struct {
	From                time.Time `json:"from"`
	To                  time.Time `json:"to"`
	TotalInstallations  int64     `json:"total_installations"`
	ActiveInstallations int64     `json:"active_installations"`
	TotalComplaints     int64     `json:"total_complaints"`
	TotalInterventions  int64     `json:"total_interventions"`
	ResolutionRate      float64   `json:"resolution_rate"`
	AvgDelayHours       float64   `json:"avg_delay_hours"`
	TotalInvoiced       float64   `json:"total_invoiced"`
	TotalPaid           float64   `json:"total_paid"`
	PaymentRate         float64   `json:"payment_rate"`
	GeneratedAt         time.Time `json:"generated_at"`
}

// Buckets time dimensions used to group report rows
type Buckets struct {
	Year    string `json:"year"`
	Month   string `json:"month"`
	Quarter string `json:"quarter"`
	Week    string `json:"week,omitempty"`
	Day     string `json:"day,omitempty"`
	Hour    string `json:"hour,omitempty"`
}

func bucketsOf(t time.Time) Buckets {
	_, week := t.ISOWeek()
	return Buckets{
		Year:    t.Format("2006"),
		Month:   t.Format("01"),
		Quarter: fmt.Sprintf("Q%d", (int(t.Month())-1)/3+1),
		Week:    fmt.Sprintf("%02d", week),
		Day:     t.Format("02"),
		Hour:    t.Format("15"),
	}
}

type InstallationReportRow struct {
	InstallationID    string     `json:"installation_id"`
	Name              string     `json:"name"`
	Code              string     `json:"code"`
	ClientID          *string    `json:"client_id"`
	ClientName        string     `json:"client_name"`
	CommissioningDate *time.Time `json:"commissioning_date"`
	Type              string     `json:"type"`
	DistrictID        *string    `json:"district_id"`
	SubscribedPower   float64    `json:"subscribed_power"`
	AnnualConsumption int        `json:"annual_consumption"`
	State             string     `json:"state"`
	ModuleCount       int64      `json:"module_count"`
	InverterCount     int64      `json:"inverter_count"`
	Year              string     `json:"year,omitempty"`
	Month             string     `json:"month,omitempty"`
	Quarter           string     `json:"quarter,omitempty"`
}

type ComplaintReportRow struct {
	ComplaintID       string    `json:"complaint_id"`
	Name              string    `json:"name"`
	OccurredAt        time.Time `json:"occurred_at"`
	ClientID          *string   `json:"client_id"`
	InstallationID    *string   `json:"installation_id"`
	InstallationName  string    `json:"installation_name"`
	AlarmCodeID       *string   `json:"alarm_code_id"`
	AlarmCodeName     string    `json:"alarm_code_name"`
	Priority          string    `json:"priority"`
	State             string    `json:"state"`
	AvailableAt       time.Time `json:"available_at"`
	InterventionCount int       `json:"intervention_count"`
	DelayHours        float64   `json:"delay_hours"`
	Buckets
}

type InterventionReportRow struct {
	InterventionID   string    `json:"intervention_id"`
	Name             string    `json:"name"`
	CreatedAt        time.Time `json:"created_at"`
	Type             string    `json:"type"`
	InstallationID   *string   `json:"installation_id"`
	InstallationName string    `json:"installation_name"`
	ClientID         *string   `json:"client_id"`
	ClientName       string    `json:"client_name"`
	TechnicianID     *string   `json:"technician_id"`
	TechnicianName   string    `json:"technician_name"`
	ComplaintID      *string   `json:"complaint_id"`
	State            string    `json:"state"`
	// nil for a closed intervention without any response
	DurationDays     *float64 `json:"duration_days"`
	TotalAmount      float64  `json:"total_amount"`
	PaidAmount       float64  `json:"paid_amount"`
	IsPaid           bool     `json:"is_paid"`
	TechnicianRating *int     `json:"technician_rating"`
	Count            int      `json:"count"`
	Buckets
}

// normalize fills the default window ending now when the period is empty.
func (s *ReportService) normalize(p repository.Period) (repository.Period, bool) {
	if p.From.IsZero() && p.To.IsZero() {
		to := s.now()
		return repository.Period{From: to.Add(-s.window), To: to}, true
	}
	return p, false
}

// Dashboard computes the KPIs for the period. The default window is cached
// under a fixed key, explicit periods under their bounds.
func (s *ReportService) Dashboard(ctx context.Context, p repository.Period) (*Dashboard, error) {
	if !p.From.IsZero() && !p.To.IsZero() && p.To.Before(p.From) {
		return nil, invalid("period end is before its start")
	}
	p, isDefault := s.normalize(p)
	key := dashboardCachePrefix + "default"
	if !isDefault {
		key = fmt.Sprintf("%s%d:%d", dashboardCachePrefix, p.From.Unix(), p.To.Unix())
	}

	if s.rdb != nil && s.ttl > 0 {
		if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
			var d Dashboard
			if err := json.Unmarshal([]byte(cached), &d); err == nil {
				return &d, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	d, err := s.computeDashboard(ctx, p)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil && s.ttl > 0 {
		if data, err := json.Marshal(d); err == nil {
			if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
				s.logger.Warn("dashboard cache write failed", zap.Error(err))
			}
		}
	}
	return d, nil
}

// InvalidateDashboard drops every cached dashboard.
func (s *ReportService) InvalidateDashboard(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}
	iter := s.rdb.Scan(ctx, 0, dashboardCachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (s *ReportService) computeDashboard(ctx context.Context, p repository.Period) (*Dashboard, error) {
	d := &Dashboard{From: p.From, To: p.To, GeneratedAt: s.now()}

	var err error
	if d.TotalInstallations, d.ActiveInstallations, err = s.repo.InstallationCounts(ctx); err != nil {
		return nil, fmt.Errorf("count installations: %w", err)
	}

	complaints, err := s.repo.Complaints(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("load complaints: %w", err)
	}
	d.TotalComplaints = int64(len(complaints))

	var closed int64
	if d.TotalInterventions, closed, err = s.repo.InterventionCounts(ctx, p); err != nil {
		return nil, fmt.Errorf("count interventions: %w", err)
	}
	d.ResolutionRate = percent(float64(closed), float64(d.TotalInterventions))

	first, _, err := s.interventionStamps(ctx, complaints)
	if err != nil {
		return nil, err
	}
	var sum float64
	var n int
	for _, c := range complaints {
		if at, ok := first[c.ID]; ok {
			sum += at.Sub(c.OccurredAt).Hours()
			n++
		}
	}
	if n > 0 {
		d.AvgDelayHours = sum / float64(n)
	}

	if d.TotalInvoiced, d.TotalPaid, err = s.repo.BillingTotals(ctx, p); err != nil {
		return nil, fmt.Errorf("billing totals: %w", err)
	}
	d.PaymentRate = percent(d.TotalPaid, d.TotalInvoiced)
	return d, nil
}

// interventionStamps earliest intervention time and intervention count per complaint.
func (s *ReportService) interventionStamps(ctx context.Context, complaints []entity.Complaint) (map[string]time.Time, map[string]int, error) {
	ids := make([]string, len(complaints))
	for i := range complaints {
		ids[i] = complaints[i].ID
	}
	stamps, err := s.repo.InterventionStamps(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load intervention stamps: %w", err)
	}
	first := make(map[string]time.Time, len(stamps))
	counts := make(map[string]int, len(stamps))
	for _, st := range stamps {
		counts[st.ComplaintID]++
		if at, ok := first[st.ComplaintID]; !ok || st.CreatedAt.Before(at) {
			first[st.ComplaintID] = st.CreatedAt
		}
	}
	return first, counts, nil
}

func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

func (s *ReportService) InstallationReport(ctx context.Context) ([]InstallationReportRow, error) {
	items, err := s.repo.Installations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load installations: %w", err)
	}
	modules, inverters, err := s.repo.EquipmentCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count equipment: %w", err)
	}

	rows := make([]InstallationReportRow, 0, len(items))
	for _, inst := range items {
		row := InstallationReportRow{
			InstallationID:    inst.ID,
			Name:              inst.Name,
			Code:              inst.Code,
			ClientID:          inst.ClientID,
			CommissioningDate: inst.CommissioningDate,
			Type:              inst.Type,
			DistrictID:        inst.DistrictID,
			SubscribedPower:   inst.SubscribedPower,
			AnnualConsumption: inst.AnnualConsumption,
			State:             inst.State,
			ModuleCount:       modules[inst.ID],
			InverterCount:     inverters[inst.ID],
		}
		if inst.Client != nil {
			row.ClientName = inst.Client.Name
		}
		if inst.CommissioningDate != nil {
			b := bucketsOf(*inst.CommissioningDate)
			row.Year, row.Month, row.Quarter = b.Year, b.Month, b.Quarter
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ComplaintReport one row per complaint of the period. The delay runs from
// the complaint to its first intervention, or to now when none was opened.
func (s *ReportService) ComplaintReport(ctx context.Context, p repository.Period) ([]ComplaintReportRow, error) {
	complaints, err := s.repo.Complaints(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("load complaints: %w", err)
	}
	first, counts, err := s.interventionStamps(ctx, complaints)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rows := make([]ComplaintReportRow, 0, len(complaints))
	for _, c := range complaints {
		end := now
		if at, ok := first[c.ID]; ok {
			end = at
		}
		row := ComplaintReportRow{
			ComplaintID:       c.ID,
			Name:              c.Name,
			OccurredAt:        c.OccurredAt,
			ClientID:          c.ClientID,
			InstallationID:    c.InstallationID,
			AlarmCodeID:       c.AlarmCodeID,
			Priority:          c.Priority,
			State:             c.State,
			AvailableAt:       c.AvailableAt,
			InterventionCount: counts[c.ID],
			DelayHours:        end.Sub(c.OccurredAt).Hours(),
			Buckets:           bucketsOf(c.OccurredAt),
		}
		if c.Installation != nil {
			row.InstallationName = c.Installation.Name
		}
		if c.AlarmCode != nil {
			row.AlarmCodeName = c.AlarmCode.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// InterventionReport one row per intervention of the period with its billing
// and the rating of its first evaluation.
func (s *ReportService) InterventionReport(ctx context.Context, p repository.Period) ([]InterventionReportRow, error) {
	items, err := s.repo.Interventions(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("load interventions: %w", err)
	}
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	responses, err := s.repo.ResponsesFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	evals, err := s.repo.EvaluationsFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load evaluations: %w", err)
	}

	byIntervention := make(map[string][]entity.Response)
	for _, r := range responses {
		byIntervention[r.InterventionID] = append(byIntervention[r.InterventionID], r)
	}
	// latest rated evaluation wins
	ratings := make(map[string]int)
	for _, ev := range evals {
		if ev.InterventionID == nil {
			continue
		}
		if _, seen := ratings[*ev.InterventionID]; !seen {
			ratings[*ev.InterventionID] = ev.TechnicianRating
		}
	}

	now := s.now()
	rows := make([]InterventionReportRow, 0, len(items))
	for _, it := range items {
		row := InterventionReportRow{
			InterventionID: it.ID,
			Name:           it.Name,
			CreatedAt:      it.CreatedAt,
			Type:           it.Type,
			InstallationID: it.InstallationID,
			TechnicianID:   it.TechnicianID,
			ComplaintID:    it.ComplaintID,
			State:          it.State,
			Count:          1,
			Buckets:        bucketsOf(it.CreatedAt),
		}
		row.Day, row.Hour = "", ""
		if it.Installation != nil {
			row.InstallationName = it.Installation.Name
			row.ClientID = it.Installation.ClientID
			if it.Installation.Client != nil {
				row.ClientName = it.Installation.Client.Name
			}
		}
		if it.Technician != nil {
			row.TechnicianName = it.Technician.Name
		}

		resps := byIntervention[it.ID]
		var lastClosed time.Time
		unpaid := 0
		for _, r := range resps {
			row.TotalAmount += r.AmountDue
			if r.IsPaid() {
				row.PaidAmount += r.AmountDue
			} else {
				unpaid++
			}
			if r.ClosedAt.After(lastClosed) {
				lastClosed = r.ClosedAt
			}
		}
		row.IsPaid = len(resps) > 0 && unpaid == 0

		switch {
		case it.State != entity.InterventionStateClosed:
			days := now.Sub(it.CreatedAt).Hours() / 24
			row.DurationDays = &days
		case !lastClosed.IsZero():
			days := lastClosed.Sub(it.CreatedAt).Hours() / 24
			row.DurationDays = &days
		}

		if rating, ok := ratings[it.ID]; ok && rating > 0 {
			r := rating
			row.TechnicianRating = &r
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Report kinds accepted by Export
const (
	ReportInstallations = "installations"
	ReportComplaints    = "complaints"
	ReportInterventions = "interventions"
)

var (
	installationExportHeaders = []string{
		"Code", "Installation", "Client", "Mise en service", "Type", "Puissance souscrite",
		"Consommation annuelle", "État", "Modules", "Onduleurs", "Année", "Trimestre",
	}
	complaintExportHeaders = []string{
		"Référence", "Date", "Installation", "Code alarme", "Priorité", "État",
		"Interventions", "Délai (h)", "Année", "Mois", "Semaine",
	}
	interventionExportHeaders = []string{
		"Référence", "Date", "Type", "Installation", "Client", "Technicien", "État",
		"Durée (j)", "Montant total", "Montant payé", "Payé", "Note technicien",
	}
)

// Export renders one report as a single-sheet workbook and returns it with
// its download file name.
func (s *ReportService) Export(ctx context.Context, kind string, p repository.Period) (*excelize.File, string, error) {
	var (
		headers []string
		cells   [][]interface{}
		sheet   string
	)
	switch kind {
	case ReportInstallations:
		rows, err := s.InstallationReport(ctx)
		if err != nil {
			return nil, "", err
		}
		sheet, headers = "Installations", installationExportHeaders
		for _, r := range rows {
			var commissioned interface{}
			if r.CommissioningDate != nil {
				commissioned = r.CommissioningDate.Format("2006-01-02")
			}
			cells = append(cells, []interface{}{
				r.Code, r.Name, r.ClientName, commissioned, r.Type, r.SubscribedPower,
				r.AnnualConsumption, r.State, r.ModuleCount, r.InverterCount, r.Year, r.Quarter,
			})
		}
	case ReportComplaints:
		rows, err := s.ComplaintReport(ctx, p)
		if err != nil {
			return nil, "", err
		}
		sheet, headers = "Réclamations", complaintExportHeaders
		for _, r := range rows {
			cells = append(cells, []interface{}{
				r.Name, r.OccurredAt.Format("2006-01-02 15:04"), r.InstallationName, r.AlarmCodeName,
				r.Priority, r.State, r.InterventionCount, round2(r.DelayHours), r.Year, r.Month, r.Week,
			})
		}
	case ReportInterventions:
		rows, err := s.InterventionReport(ctx, p)
		if err != nil {
			return nil, "", err
		}
		sheet, headers = "Interventions", interventionExportHeaders
		for _, r := range rows {
			var duration, rating interface{}
			if r.DurationDays != nil {
				duration = round2(*r.DurationDays)
			}
			if r.TechnicianRating != nil {
				rating = *r.TechnicianRating
			}
			paid := entity.PaidNo
			if r.IsPaid {
				paid = entity.PaidYes
			}
			cells = append(cells, []interface{}{
				r.Name, r.CreatedAt.Format("2006-01-02"), r.Type, r.InstallationName, r.ClientName,
				r.TechnicianName, r.State, duration, r.TotalAmount, r.PaidAmount, paid, rating,
			})
		}
	default:
		return nil, "", invalid("unknown report %q", kind)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", err
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
		f.SetColWidth(sheet, col, col, 16)
	}
	for i, row := range cells {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, "", fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	filename := fmt.Sprintf("pv_%s_%s.xlsx", kind, s.now().Format("20060102"))
	s.logger.Info("report exported", zap.String("kind", kind), zap.Int("rows", len(cells)))
	return f, filename, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
