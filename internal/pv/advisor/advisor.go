// Package advisor turns alarm and evaluation data into action plans and
// technician assessments. The language model is consulted first; any failure,
// missing key or malformed answer yields a deterministic fallback instead.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"github.com/Chihaouimed/PV/internal/pv/heuristic"
	"github.com/Chihaouimed/PV/internal/shared/llm"
	"github.com/Chihaouimed/PV/internal/shared/richtext"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Advisor AI assistant with deterministic fallbacks
type Advisor struct {
	llm      llm.Completer
	renderer *richtext.Renderer
	validate *validator.Validate
	logger   *zap.Logger
}

// New creates an advisor; a nil completer always falls back.
func New(completer llm.Completer, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{
		llm:      completer,
		renderer: richtext.NewRenderer(),
		validate: validator.New(),
		logger:   logger,
	}
}

// PlanResult generated plan with its rendering
type PlanResult struct {
	Plan   *ActionPlan `json:"plan"`
	JSON   []byte      `json:"-"`
	HTML   string      `json:"html_content"`
	Source string      `json:"source"` // ai/fallback
}

// ActionPlan asks the model for a plan and falls back on any failure.
// Only rendering errors are returned.
func (a *Advisor) ActionPlan(ctx context.Context, data AlarmData) (*PlanResult, error) {
	source := entity.PlanSourceAI
	plan, err := a.askPlan(ctx, data)
	if err != nil {
		a.logger.Warn("action plan generation failed, using fallback",
			zap.String("alarm_code", data.Code),
			zap.String("part", data.Part),
			zap.Error(err))
		plan = FallbackPlan(data)
		source = entity.PlanSourceFallback
	}

	raw, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("marshal action plan: %w", err)
	}
	html, err := a.renderPlan(plan)
	if err != nil {
		return nil, err
	}
	return &PlanResult{Plan: plan, JSON: raw, HTML: html, Source: source}, nil
}

func (a *Advisor) askPlan(ctx context.Context, data AlarmData) (*ActionPlan, error) {
	if a.llm == nil {
		return nil, llm.ErrNoAPIKey
	}
	user, err := actionPlanPrompt(data)
	if err != nil {
		return nil, err
	}
	content, err := a.llm.Complete(ctx, actionPlanSystemPrompt, user)
	if err != nil {
		return nil, err
	}
	plan, err := parsePlan(content)
	if err != nil {
		return nil, err
	}
	plan.normalize(heuristic.InferSeverity(data.text()))
	if err := a.validate.Struct(plan); err != nil {
		return nil, fmt.Errorf("invalid action plan: %w", err)
	}
	return plan, nil
}

// AnalysisResult technician assessment with its rendering
type AnalysisResult struct {
	*PerformanceAnalysis
	Stats       TechnicianStats `json:"stats"`
	HTMLContent string          `json:"html_content"`
	Source      string          `json:"source"` // ai/fallback
}

// TechnicianAnalysis asks the model to assess the statistics and falls back on any failure.
func (a *Advisor) TechnicianAnalysis(ctx context.Context, stats TechnicianStats) (*AnalysisResult, error) {
	source := entity.PlanSourceAI
	analysis, err := a.askAnalysis(ctx, stats)
	if err != nil {
		a.logger.Warn("technician analysis failed, using fallback",
			zap.String("technician", stats.TechnicianName),
			zap.Error(err))
		analysis = FallbackAnalysis(stats)
		source = entity.PlanSourceFallback
	}

	html, err := a.renderAnalysis(analysis, stats)
	if err != nil {
		return nil, err
	}
	return &AnalysisResult{PerformanceAnalysis: analysis, Stats: stats, HTMLContent: html, Source: source}, nil
}

func (a *Advisor) askAnalysis(ctx context.Context, stats TechnicianStats) (*PerformanceAnalysis, error) {
	if a.llm == nil {
		return nil, llm.ErrNoAPIKey
	}
	user, err := analysisPrompt(stats)
	if err != nil {
		return nil, err
	}
	content, err := a.llm.Complete(ctx, analysisSystemPrompt, user)
	if err != nil {
		return nil, err
	}
	analysis, err := parseAnalysis(content)
	if err != nil {
		return nil, err
	}
	analysis.normalize(stats)
	if err := a.validate.Struct(analysis); err != nil {
		return nil, fmt.Errorf("invalid analysis: %w", err)
	}
	return analysis, nil
}
