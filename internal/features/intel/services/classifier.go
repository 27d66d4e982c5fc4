package services

import (
	"strings"
)

// Classification is the severity tier and threat-type label assigned to an
// article at ingest time.
type Classification struct {
	Severity string `json:"severity"`
	Type     string `json:"type"`
}

type severityTier struct {
	severity string
	types    []string
	keywords []string
}

// severityTiers is checked in priority order; the first tier with a keyword
// hit wins. The tables are fixed configuration data, never rebuilt per call.
var severityTiers = []severityTier{
	{
		severity: "critical",
		types:    []string{"Ransomware", "Zero-Day", "RCE", "Vulnerabilidad Crítica"},
		keywords: []string{
			"ransomware", "zero-day", "zero day", "rce", "remote code execution",
			"critical vulnerability", "actively exploited", "exploit in the wild",
			"vulnerabilidad crítica", "explotación activa", "0-day",
		},
	},
	{
		severity: "high",
		types:    []string{"Malware", "APT", "Data Breach", "Ataque Dirigido"},
		keywords: []string{
			"malware", "apt", "advanced persistent", "data breach", "hack",
			"breach", "compromise", "attack campaign", "trojan", "backdoor",
			"filtración", "violación de datos", "compromiso", "troyano",
		},
	},
	{
		severity: "medium",
		types:    []string{"Phishing", "Vulnerabilidad", "Exploit", "Botnet"},
		keywords: []string{
			"phishing", "vulnerability", "exploit", "botnet", "ddos",
			"denial of service", "cve-", "security flaw", "weakness",
			"vulnerabilidad", "debilidad de seguridad", "suplantación",
		},
	},
	{
		severity: "low",
		types:    []string{"Actualización", "Parche", "Advisory", "Advertencia"},
		keywords: []string{
			"patch", "update", "advisory", "warning", "recommendation",
			"parche", "actualización", "recomendación", "aviso",
		},
	},
}

// infoClassification is returned when no tier's keywords match at all.
var infoClassification = Classification{Severity: "info", Type: "Información"}

// ThreatClassifier maps article text to a severity tier and threat type.
type ThreatClassifier struct{}

// Classify runs a single deterministic pass over the tiers. On the first
// keyword hit the tier is fixed; the type refines to a tier label literally
// present in the text, falling back to the tier's first listed type.
func (ThreatClassifier) Classify(title, content string) Classification {
	text := strings.ToLower(title + " " + content)

	for _, tier := range severityTiers {
		for _, keyword := range tier.keywords {
			if !strings.Contains(text, keyword) {
				continue
			}
			for _, threatType := range tier.types {
				if strings.Contains(text, strings.ToLower(threatType)) {
					return Classification{Severity: tier.severity, Type: threatType}
				}
			}
			return Classification{Severity: tier.severity, Type: tier.types[0]}
		}
	}

	return infoClassification
}
