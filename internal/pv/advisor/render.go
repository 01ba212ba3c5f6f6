package advisor

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Chihaouimed/PV/internal/pv/entity"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var tmplFuncs = template.FuncMap{
	// a Caser is stateful, one per call
	"title": func(s string) string { return cases.Title(language.French).String(s) },
	"yesno": func(b bool) string {
		if b {
			return "Oui"
		}
		return "Non"
	},
	"ratingLabel": func(r string) string { return ratingLabels[r] },
}

var ratingLabels = map[string]string{
	entity.RatingExcellent:        "Excellent",
	entity.RatingGood:             "Bon",
	entity.RatingAverage:          "Moyen",
	entity.RatingNeedsImprovement: "À améliorer",
}

const planTemplate = `<div class="action-plan">
<div class="diagnostic-section">
<h3>Diagnostic</h3>
<p>{{.Plan.Diagnostic}}</p>
<div class="severity-box severity-{{.Plan.Severity}}"><strong>Gravité:</strong> {{title .Plan.Severity}}</div>
<div class="details-box">
<div><strong>Temps estimé:</strong> {{.Plan.EstimatedResolutionTime}} heure(s)</div>
<div><strong>Spécialiste requis:</strong> {{yesno .Plan.RequiresSpecialist}}</div>
</div>
</div>
<div class="steps-section">
<h3>Plan d'action</h3>
<ol>
{{- range .Plan.ActionSteps}}
<li><div class="step-box">
<div class="step-header"><strong>{{.Description}}</strong> <span class="tech-level tech-level-{{.TechnicalLevel}}">{{title .TechnicalLevel}}</span></div>
<div class="step-details">
<div><strong>Temps estimé:</strong> {{.EstimatedTime}} minutes</div>
{{- if .RequiresTools}}
<div class="tools"><strong>Outils nécessaires:</strong><ul>{{range .RequiresTools}}<li>{{.}}</li>{{end}}</ul></div>
{{- end}}
{{- if .RequiresParts}}
<div class="parts"><strong>Pièces nécessaires:</strong><ul>{{range .RequiresParts}}<li>{{.}}</li>{{end}}</ul></div>
{{- end}}
{{- if .SafetyPrecautions}}
<div class="safety-warnings"><strong>Précautions de sécurité:</strong><ul>{{range .SafetyPrecautions}}<li>{{.}}</li>{{end}}</ul></div>
{{- end}}
</div>
</div></li>
{{- end}}
</ol>
</div>
{{- if .Plan.PreventionMeasures}}
<div class="prevention-section">
<h3>Mesures préventives</h3>
<ul>{{range .Plan.PreventionMeasures}}<li>{{.}}</li>{{end}}</ul>
</div>
{{- end}}
{{- if .Notes}}
<div class="notes-section">
<h3>Notes supplémentaires</h3>
{{.Notes}}
</div>
{{- end}}
{{- if .Plan.DocumentationReferences}}
<div class="documentation-section">
<h3>Références</h3>
<ul>{{range .Plan.DocumentationReferences}}<li>{{.}}</li>{{end}}</ul>
</div>
{{- end}}
</div>`

const analysisTemplate = `<div class="technician-analysis">
<div class="rating-box rating-{{.Analysis.OverallRating}}"><strong>Évaluation globale:</strong> {{ratingLabel .Analysis.OverallRating}}</div>
<div class="stats-box">
<div><strong>Évaluations:</strong> {{.Stats.EvaluationCount}}</div>
<div><strong>Note moyenne:</strong> {{if .Stats.RatedCount}}{{printf "%.2f" .Stats.AverageRating}}/5{{else}}N/A{{end}}</div>
<div><strong>Interventions évaluées:</strong> {{.Stats.InterventionCount}}</div>
</div>
<div class="summary-section"><h3>Synthèse</h3><p>{{.Analysis.Summary}}</p></div>
{{- if .Analysis.Strengths}}
<div class="strengths-section"><h3>Points forts</h3><ul>{{range .Analysis.Strengths}}<li>{{.}}</li>{{end}}</ul></div>
{{- end}}
{{- if .Analysis.ImprovementAreas}}
<div class="improvement-section"><h3>Axes d'amélioration</h3><ul>{{range .Analysis.ImprovementAreas}}<li>{{.}}</li>{{end}}</ul></div>
{{- end}}
{{- if .Analysis.Recommendations}}
<div class="recommendations-section"><h3>Recommandations</h3><ul>{{range .Analysis.Recommendations}}<li>{{.}}</li>{{end}}</ul></div>
{{- end}}
</div>`

var (
	planTmpl     = template.Must(template.New("plan").Funcs(tmplFuncs).Parse(planTemplate))
	analysisTmpl = template.Must(template.New("analysis").Funcs(tmplFuncs).Parse(analysisTemplate))
)

// renderPlan renders a plan; additional notes are markdown.
func (a *Advisor) renderPlan(plan *ActionPlan) (string, error) {
	var notes template.HTML
	if plan.AdditionalNotes != "" {
		out, err := a.renderer.Markdown(plan.AdditionalNotes)
		if err != nil {
			return "", err
		}
		notes = template.HTML(out)
	}

	var buf bytes.Buffer
	err := planTmpl.Execute(&buf, struct {
		Plan  *ActionPlan
		Notes template.HTML
	}{plan, notes})
	if err != nil {
		return "", fmt.Errorf("render action plan: %w", err)
	}
	return a.renderer.Sanitize(buf.String()), nil
}

func (a *Advisor) renderAnalysis(an *PerformanceAnalysis, st TechnicianStats) (string, error) {
	var buf bytes.Buffer
	err := analysisTmpl.Execute(&buf, struct {
		Analysis *PerformanceAnalysis
		Stats    TechnicianStats
	}{an, st})
	if err != nil {
		return "", fmt.Errorf("render analysis: %w", err)
	}
	return a.renderer.Sanitize(buf.String()), nil
}
