package services

import (
	"regexp"
	"strings"
)

// maxIOCs bounds storage and display cost per article.
const maxIOCs = 20

// iocPatterns scan the full text independently; there is no precedence
// between patterns. Overlaps between the hash patterns are disambiguated by
// their exact length requirements.
var iocPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"ip", regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)},
	{"domain", regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}\b`)},
	{"cve", regexp.MustCompile(`(?i)CVE-\d{4}-\d{4,7}`)},
	{"md5", regexp.MustCompile(`\b[a-fA-F0-9]{32}\b`)},
	{"sha256", regexp.MustCompile(`\b[a-fA-F0-9]{64}\b`)},
}

// IOCExtractor scans article text for indicators of compromise.
type IOCExtractor struct{}

// Extract returns the deduplicated union of all pattern matches, in first
// appearance order, capped at maxIOCs.
func (IOCExtractor) Extract(text string) []string {
	if text == "" {
		return nil
	}

	var iocs []string
	seen := make(map[string]bool)

	for _, pattern := range iocPatterns {
		for _, match := range pattern.re.FindAllString(text, -1) {
			if pattern.name == "domain" && strings.HasSuffix(match, ".com.html") {
				continue
			}
			if seen[match] {
				continue
			}
			seen[match] = true
			iocs = append(iocs, match)
		}
	}

	if len(iocs) > maxIOCs {
		iocs = iocs[:maxIOCs]
	}
	return iocs
}
