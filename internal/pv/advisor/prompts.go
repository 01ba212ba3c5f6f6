package advisor

import (
	"encoding/json"
	"fmt"
)

const actionPlanSystemPrompt = `Tu es un expert en maintenance d'installations photovoltaïques et en résolution de problèmes.
Analyse les données d'alarme fournies pour générer un plan d'action détaillé pour résoudre le problème.

Le plan d'action doit inclure:
1. Un diagnostic du problème basé sur le code d'alarme
2. Des étapes détaillées de dépannage et de résolution
3. Une estimation de la gravité du problème
4. Des pièces ou outils nécessaires pour la réparation
5. Des mesures préventives pour éviter que ce problème ne se reproduise

Réponds en français avec un objet JSON structuré exactement comme ceci:
{
    "diagnostic": string,
    "severity": "low"|"medium"|"high"|"critical",
    "estimated_resolution_time": int,
    "requires_specialist": boolean,
    "action_steps": [
        {
            "step": int,
            "description": string,
            "estimated_time": int,
            "requires_tools": [string],
            "requires_parts": [string],
            "technical_level": "basic"|"intermediate"|"advanced",
            "safety_precautions": [string]
        }
    ],
    "prevention_measures": [string],
    "additional_notes": string,
    "documentation_references": [string]
}
estimated_resolution_time est en heures, estimated_time en minutes.
additional_notes peut contenir du markdown simple.`

const actionPlanUserPrompt = `Voici les données d'alarme à analyser:
%s

Analyse ce code d'alarme en tenant compte du type d'installation, de la marque de l'onduleur ou du module,
et de toute information historique sur des problèmes similaires si disponible.

Fournis un plan d'action détaillé pour résoudre le problème en fonction du contexte spécifique.

Réponds uniquement avec l'objet JSON demandé.`

const analysisSystemPrompt = `Tu es un responsable technique qui évalue les techniciens de maintenance d'installations photovoltaïques.
À partir des statistiques d'évaluation fournies, rédige une analyse de performance objective et constructive.

Réponds en français avec un objet JSON structuré exactement comme ceci:
{
    "overall_rating": "excellent"|"good"|"average"|"needs_improvement",
    "summary": string,
    "strengths": [string],
    "improvement_areas": [string],
    "recommendations": [string]
}`

const analysisUserPrompt = `Voici les statistiques d'évaluation du technicien:
%s

Les notes vont de 1 (faible) à 5 (excellent); les critères qualitatifs vont de 1 (poor) à 4 (excellent).
Base ton analyse uniquement sur ces données.

Réponds uniquement avec l'objet JSON demandé.`

func actionPlanPrompt(data AlarmData) (string, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal alarm data: %w", err)
	}
	return fmt.Sprintf(actionPlanUserPrompt, b), nil
}

func analysisPrompt(stats TechnicianStats) (string, error) {
	b, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal technician stats: %w", err)
	}
	return fmt.Sprintf(analysisUserPrompt, b), nil
}
