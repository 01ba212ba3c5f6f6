// Package heuristic infers severity, priority and equipment category from
// free-text alarm names and complaint descriptions. Matching is keyword based,
// case and accent insensitive, and fully deterministic.
package heuristic

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Severity levels of an action plan
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// ValidSeverity reports whether s is one of the four severity levels.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// keywords are stored folded (lowercase, no accents)
var (
	criticalKeywords = []string{
		"incendie", "feu", "fumee", "fumees", "brule", "brulure", "arc", "arc electrique",
		"electrocution", "electrise", "court-circuit", "courts-circuits", "explosion",
		"surchauffe", "fire", "smoke",
	}
	highKeywords = []string{
		"panne", "pannes", "arret", "arrete", "hors service", "defaut isolement", "isolement",
		"surtension", "sous-tension", "defaut terre", "fuite", "disjonction", "disjoncte",
		"grid loss", "reseau absent", "pas de production", "aucune production", "fault", "failure",
	}
	lowKeywords = []string{
		"information", "info", "avertissement", "nettoyage", "poussiere", "mise a jour",
		"notification", "rappel", "warning",
	}

	categoryKeywords = []struct {
		category string
		words    []string
	}{
		{"batterie", []string{"batterie", "batteries", "battery", "bms", "stockage"}},
		{"onduleur", []string{"onduleur", "onduleurs", "inverter", "mppt", "igbt"}},
		{"module", []string{"module", "modules", "panneau", "panneaux", "cellule", "cellules", "hot spot", "point chaud", "string", "strings", "diode", "diodes"}},
		{"installation", []string{"cable", "cables", "cablage", "compteur", "disjoncteur", "tableau", "coffret", "terre", "parafoudre", "reseau", "steg"}},
	}
)

// transformers keep state, so each call gets a fresh chain
func newFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Fold lowercases text and strips diacritics.
func Fold(text string) string {
	folded, _, err := transform.String(newFolder(), text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}

// InferSeverity maps free text to low, medium, high or critical; medium when nothing matches.
func InferSeverity(text string) string {
	folded := Fold(text)
	switch {
	case containsAny(folded, criticalKeywords):
		return SeverityCritical
	case containsAny(folded, highKeywords):
		return SeverityHigh
	case containsAny(folded, lowKeywords):
		return SeverityLow
	}
	return SeverityMedium
}

// Complaint priorities
const (
	PriorityLow    = "basse"
	PriorityMedium = "moyenne"
	PriorityHigh   = "haute"
)

// PriorityForSeverity maps a severity onto the complaint priority scale.
func PriorityForSeverity(severity string) string {
	switch severity {
	case SeverityCritical, SeverityHigh:
		return PriorityHigh
	case SeverityLow:
		return PriorityLow
	}
	return PriorityMedium
}

// InferPriority derives a complaint priority from free text.
func InferPriority(text string) string {
	return PriorityForSeverity(InferSeverity(text))
}

// InferCategory returns the equipment part the text refers to, "autre" when unknown.
func InferCategory(text string) string {
	folded := Fold(text)
	for _, c := range categoryKeywords {
		if containsAny(folded, c.words) {
			return c.category
		}
	}
	return "autre"
}

// containsAny matches keywords as whole words or whole phrases
func containsAny(folded string, keywords []string) bool {
	padded := " " + strings.Join(tokenize(folded), " ") + " "
	for _, kw := range keywords {
		if strings.Contains(padded, " "+strings.Join(tokenize(kw), " ")+" ") {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
