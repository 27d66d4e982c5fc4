package services

import (
	"fmt"
	"strings"
)

// minRelevantLength is the combined text length below which the security
// vocabulary check is skipped: short blurbs carry too little signal to judge.
const minRelevantLength = 50

// excludedKeywords flag promotional and event content. Matching any of these
// rejects the entry before the relevance check runs.
var excludedKeywords = []string{
	"virtual event", "evento virtual", "webinar", "register now", "regístrate",
	"registration", "registro", "view agenda", "ver agenda", "save the date",
	"join us", "únete", "conference", "conferencia", "summit", "looking ahead to",
	"outlook 20", "predictions for", "predicciones", "forecast", "próximamente",
	"coming soon", "save your spot", "rsvp", "attendance", "asistencia",
}

// relevantKeywords is the security vocabulary an entry must touch to pass.
var relevantKeywords = []string{
	"vulnerability", "vulnerabilidad", "exploit", "breach", "brecha", "hack",
	"malware", "ransomware", "phishing", "attack", "ataque", "threat", "amenaza",
	"cve-", "zero-day", "patch", "parche", "backdoor", "trojan", "apt",
	"data leak", "filtración", "security flaw", "fallo de seguridad", "compromise",
	"compromiso", "botnet", "ddos", "injection", "inyección", "credential",
	"credencial", "password", "contraseña", "authentication", "autenticación",
}

// ContentFilter is the two-stage keyword gate applied before ingestion.
type ContentFilter struct{}

// Accept decides whether an entry is worth ingesting. Stage one always runs
// first: an event-like entry is rejected even when it also mentions security
// terms. The returned reason names the matched term or the missing signal.
func (ContentFilter) Accept(title, summary string) (bool, string) {
	text := strings.ToLower(title + " " + summary)

	for _, keyword := range excludedKeywords {
		if strings.Contains(text, keyword) {
			return false, fmt.Sprintf("event/promotional content (%q)", keyword)
		}
	}

	if len(text) > minRelevantLength {
		for _, keyword := range relevantKeywords {
			if strings.Contains(text, keyword) {
				return true, ""
			}
		}
		return false, "no relevant security content"
	}

	return true, ""
}
