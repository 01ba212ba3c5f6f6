package advisor

import (
	"github.com/Chihaouimed/PV/internal/pv/entity"
	"github.com/Chihaouimed/PV/internal/pv/heuristic"
)

// partTemplate canned troubleshooting for one equipment part
type partTemplate struct {
	diagnostic string
	steps      []ActionStep
	prevention []string
}

var partTemplates = map[string]partTemplate{
	entity.PartInverter: {
		diagnostic: "Défaut signalé par l'onduleur. Vérifier l'alimentation DC, la connexion réseau AC et l'historique d'événements de l'onduleur.",
		steps: []ActionStep{
			{Description: "Relever le code et l'historique des alarmes sur l'afficheur ou la supervision de l'onduleur", EstimatedTime: 15, TechnicalLevel: LevelBasic},
			{Description: "Contrôler les tensions DC d'entrée par string et la tension AC réseau", EstimatedTime: 30, TechnicalLevel: LevelIntermediate,
				RequiresTools: []string{"Multimètre", "Pince ampèremétrique"}, SafetyPrecautions: []string{"Porter des gants isolants", "Vérifier l'absence de tension avant toute intervention"}},
			{Description: "Redémarrer l'onduleur selon la procédure constructeur et vérifier la reprise de production", EstimatedTime: 20, TechnicalLevel: LevelIntermediate,
				SafetyPrecautions: []string{"Ouvrir le sectionneur DC avant le disjoncteur AC"}},
			{Description: "Si le défaut persiste, contacter le support du fabricant avec le numéro de série et les relevés", EstimatedTime: 30, TechnicalLevel: LevelBasic},
		},
		prevention: []string{"Nettoyer les grilles de ventilation de l'onduleur", "Mettre à jour le firmware lors des visites de maintenance"},
	},
	entity.PartModule: {
		diagnostic: "Anomalie au niveau des modules photovoltaïques. Rechercher un ombrage, un encrassement, un point chaud ou un défaut de connectique.",
		steps: []ActionStep{
			{Description: "Inspection visuelle des modules: casse, délamination, salissures, ombrages", EstimatedTime: 30, TechnicalLevel: LevelBasic,
				SafetyPrecautions: []string{"Utiliser un harnais pour tout travail en toiture"}},
			{Description: "Mesurer la tension à vide et le courant de court-circuit de chaque string", EstimatedTime: 45, TechnicalLevel: LevelIntermediate,
				RequiresTools: []string{"Multimètre", "Testeur de string PV"}, SafetyPrecautions: []string{"Ne jamais déconnecter un connecteur MC4 en charge"}},
			{Description: "Contrôler les modules suspects à la caméra thermique", EstimatedTime: 30, TechnicalLevel: LevelAdvanced,
				RequiresTools: []string{"Caméra thermique"}},
			{Description: "Remplacer les modules ou connecteurs défectueux", EstimatedTime: 60, TechnicalLevel: LevelIntermediate,
				RequiresParts: []string{"Module de remplacement", "Connecteurs MC4"}},
		},
		prevention: []string{"Planifier un nettoyage régulier des panneaux", "Contrôler annuellement la connectique"},
	},
	entity.PartBattery: {
		diagnostic: "Alarme du système de stockage. Vérifier l'état de charge, la température et les communications du BMS.",
		steps: []ActionStep{
			{Description: "Lire l'état de charge, les tensions de cellules et les alarmes du BMS", EstimatedTime: 20, TechnicalLevel: LevelIntermediate},
			{Description: "Vérifier la température du local et la ventilation des batteries", EstimatedTime: 15, TechnicalLevel: LevelBasic,
				SafetyPrecautions: []string{"Aérer le local avant intervention"}},
			{Description: "Contrôler le serrage et l'état des connexions de puissance", EstimatedTime: 30, TechnicalLevel: LevelAdvanced,
				RequiresTools: []string{"Clé dynamométrique isolée"}, SafetyPrecautions: []string{"Porter des équipements de protection contre l'arc électrique"}},
		},
		prevention: []string{"Maintenir le local batteries dans la plage de température du fabricant"},
	},
	entity.PartInstallation: {
		diagnostic: "Défaut au niveau de l'installation (câblage, protections ou raccordement réseau).",
		steps: []ActionStep{
			{Description: "Contrôler l'état des protections AC/DC: disjoncteurs, fusibles, parafoudres", EstimatedTime: 20, TechnicalLevel: LevelBasic},
			{Description: "Vérifier le câblage et mesurer l'isolement des circuits", EstimatedTime: 45, TechnicalLevel: LevelAdvanced,
				RequiresTools: []string{"Mégohmmètre", "Multimètre"}, SafetyPrecautions: []string{"Consigner l'installation avant les mesures d'isolement"}},
			{Description: "Vérifier le compteur et le raccordement au réseau STEG", EstimatedTime: 20, TechnicalLevel: LevelIntermediate},
		},
		prevention: []string{"Réaliser une vérification annuelle des protections et du serrage des borniers"},
	},
}

var genericTemplate = partTemplate{
	diagnostic: "Alarme non référencée. Un diagnostic sur site est nécessaire.",
	steps: []ActionStep{
		{Description: "Relever les informations de l'alarme et l'état de l'installation", EstimatedTime: 15, TechnicalLevel: LevelBasic},
		{Description: "Effectuer un contrôle visuel et électrique de l'installation", EstimatedTime: 45, TechnicalLevel: LevelIntermediate,
			RequiresTools: []string{"Multimètre"}, SafetyPrecautions: []string{"Vérifier l'absence de tension avant toute intervention"}},
	},
	prevention: []string{"Consigner l'alarme pour enrichir la base de connaissances"},
}

var resolutionHours = map[string]int{
	heuristic.SeverityLow:      1,
	heuristic.SeverityMedium:   2,
	heuristic.SeverityHigh:     4,
	heuristic.SeverityCritical: 8,
}

// FallbackPlan deterministic plan from the alarm part and the severity inferred from its text.
func FallbackPlan(data AlarmData) *ActionPlan {
	tpl, ok := partTemplates[data.Part]
	if !ok {
		tpl = genericTemplate
	}
	severity := heuristic.InferSeverity(data.text())

	steps := make([]ActionStep, len(tpl.steps))
	for i, s := range tpl.steps {
		s.RequiresTools = append([]string{}, s.RequiresTools...)
		s.RequiresParts = append([]string{}, s.RequiresParts...)
		s.SafetyPrecautions = append([]string{}, s.SafetyPrecautions...)
		steps[i] = s
	}
	if severity == heuristic.SeverityCritical {
		steps = append([]ActionStep{{
			Description:       "Mettre l'installation en sécurité: ouvrir les sectionneurs DC et AC et interdire l'accès",
			EstimatedTime:     10,
			TechnicalLevel:    LevelBasic,
			SafetyPrecautions: []string{"Ne pas intervenir seul", "Prévenir les secours en cas de fumée ou d'incendie"},
		}}, steps...)
	}

	plan := &ActionPlan{
		Diagnostic:              tpl.diagnostic,
		Severity:                severity,
		EstimatedResolutionTime: FlexInt(resolutionHours[severity]),
		RequiresSpecialist:      severity == heuristic.SeverityHigh || severity == heuristic.SeverityCritical || data.Part == entity.PartBattery,
		ActionSteps:             steps,
		PreventionMeasures:      append([]string{}, tpl.prevention...),
		AdditionalNotes:         "Plan générique généré sans assistance IA. À compléter après diagnostic sur site.",
		DocumentationReferences: []string{},
	}
	plan.normalize(severity)
	return plan
}
