package advisor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Chihaouimed/PV/internal/pv/heuristic"
	"github.com/Chihaouimed/PV/internal/shared/llm"
)

const noDiagnostic = "Diagnostic non disponible."

// Technical levels of an action step
const (
	LevelBasic        = "basic"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// FlexInt accepts 3, 3.5 or "3" from model output; unparsable text decodes to 0.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*f = FlexInt(v)
		return nil
	}
	// "2-4" or "2 heures": keep the leading number
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	v, _ := strconv.Atoi(s[:end])
	*f = FlexInt(v)
	return nil
}

// ActionStep one troubleshooting step
type ActionStep struct {
	Step              int      `json:"step" validate:"min=1"`
	Description       string   `json:"description" validate:"required"`
	EstimatedTime     FlexInt  `json:"estimated_time" validate:"min=0"` // minutes
	RequiresTools     []string `json:"requires_tools"`
	RequiresParts     []string `json:"requires_parts"`
	TechnicalLevel    string   `json:"technical_level" validate:"oneof=basic intermediate advanced"`
	SafetyPrecautions []string `json:"safety_precautions"`
}

// ActionPlan structured resolution plan for an alarm
type ActionPlan struct {
	Diagnostic              string       `json:"diagnostic" validate:"required"`
	Severity                string       `json:"severity" validate:"oneof=low medium high critical"`
	EstimatedResolutionTime FlexInt      `json:"estimated_resolution_time" validate:"min=0"` // hours
	RequiresSpecialist      bool         `json:"requires_specialist"`
	ActionSteps             []ActionStep `json:"action_steps" validate:"dive"`
	PreventionMeasures      []string     `json:"prevention_measures"`
	AdditionalNotes         string       `json:"additional_notes"`
	DocumentationReferences []string     `json:"documentation_references"`
}

// parsePlan decodes a model answer; anything but a JSON object is an error.
func parsePlan(raw string) (*ActionPlan, error) {
	raw = llm.StripFences(raw)
	if !strings.HasPrefix(raw, "{") {
		return nil, fmt.Errorf("action plan is not a JSON object")
	}
	var p ActionPlan
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode action plan: %w", err)
	}
	return &p, nil
}

// normalize fills defaults the model omitted. inferredSeverity replaces a
// missing or unknown severity.
func (p *ActionPlan) normalize(inferredSeverity string) {
	p.Diagnostic = strings.TrimSpace(p.Diagnostic)
	if p.Diagnostic == "" {
		p.Diagnostic = noDiagnostic
	}

	p.Severity = strings.ToLower(strings.TrimSpace(p.Severity))
	if !heuristic.ValidSeverity(p.Severity) {
		p.Severity = inferredSeverity
		if !heuristic.ValidSeverity(p.Severity) {
			p.Severity = heuristic.SeverityMedium
		}
	}
	if p.EstimatedResolutionTime < 0 {
		p.EstimatedResolutionTime = 0
	}

	steps := make([]ActionStep, 0, len(p.ActionSteps))
	for _, s := range p.ActionSteps {
		s.Description = strings.TrimSpace(s.Description)
		if s.Description == "" {
			continue
		}
		s.Step = len(steps) + 1
		if s.EstimatedTime < 0 {
			s.EstimatedTime = 0
		}
		s.TechnicalLevel = strings.ToLower(strings.TrimSpace(s.TechnicalLevel))
		switch s.TechnicalLevel {
		case LevelBasic, LevelIntermediate, LevelAdvanced:
		default:
			s.TechnicalLevel = LevelBasic
		}
		s.RequiresTools = cleanList(s.RequiresTools)
		s.RequiresParts = cleanList(s.RequiresParts)
		s.SafetyPrecautions = cleanList(s.SafetyPrecautions)
		steps = append(steps, s)
	}
	p.ActionSteps = steps
	p.PreventionMeasures = cleanList(p.PreventionMeasures)
	p.DocumentationReferences = cleanList(p.DocumentationReferences)
	p.AdditionalNotes = strings.TrimSpace(p.AdditionalNotes)
}

// cleanList trims entries, drops blanks and never returns nil
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// AlarmData context sent to the model
type AlarmData struct {
	Code              string   `json:"code"`
	Name              string   `json:"name"`
	Part              string   `json:"part"`
	Brand             string   `json:"brand,omitempty"`
	ComplaintCount    int64    `json:"complaint_count"`
	InstallationTypes []string `json:"installation_types,omitempty"`
	AlarmCause        string   `json:"alarm_cause,omitempty"`
}

// text used for keyword inference
func (d AlarmData) text() string {
	return strings.Join([]string{d.Name, d.Code, d.AlarmCause}, " ")
}
