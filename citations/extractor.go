// Package citations extracts structured legal references from answer text.
//
// Extraction is heuristic pattern matching: false positives and negatives are
// expected noise. Each category's list is independently deduplicated
// (case-sensitive exact match) and preserves first-seen order; the same
// substring may legitimately appear in more than one category.
package citations

import (
	"slices"
	"strings"
)

// References holds the three extracted reference lists. Each list is unique
// and order-preserving.
type References struct {
	Legislation []string
	Cases       []string
	Forms       []string
}

// Extract applies the recognizer rules to text and returns the extracted
// legislation, case law and form references. It is a pure function: no shared
// state is read or mutated.
func Extract(text string) References {
	refs := References{
		Legislation: []string{},
		Cases:       []string{},
		Forms:       []string{},
	}

	for _, pattern := range legislationPatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			refs.Legislation = appendUnique(refs.Legislation, normalizeLegislation(strings.TrimSpace(match)))
		}
	}

	for _, pattern := range casePatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			refs.Cases = appendUnique(refs.Cases, strings.TrimSpace(match))
		}
	}

	for _, pattern := range formPatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			refs.Forms = appendUnique(refs.Forms, strings.TrimSpace(match))
		}
	}

	// No primary case matches, but the text likely contains report citations.
	if len(refs.Cases) == 0 && strings.Contains(text, "[") && strings.Contains(text, "]") {
		refs.Cases = extractReportCitations(text, refs.Cases)
	}

	return refs
}

// normalizeLegislation appends the canonical year to known acts cited without one.
func normalizeLegislation(legislation string) string {
	lower := strings.ToLower(legislation)
	for _, rule := range yearNormalizations {
		if strings.Contains(lower, rule.contains) && !strings.Contains(legislation, rule.year) {
			legislation += " " + rule.year
		}
	}
	return legislation
}

// extractReportCitations scans for "[YYYY] COURT N" citations and prepends the
// preceding sentence fragment as the presumed case name when it is non-empty
// and shorter than 100 characters.
func extractReportCitations(text string, cases []string) []string {
	for _, loc := range reportCitationPattern.FindAllStringIndex(text, -1) {
		citation := strings.TrimSpace(text[loc[0]:loc[1]])

		preceding := strings.TrimSpace(text[:loc[0]])
		sentences := strings.Split(preceding, ".")
		context := strings.TrimSpace(sentences[len(sentences)-1])

		if context != "" && len(context) < 100 {
			cases = appendUnique(cases, context+" "+citation)
		} else {
			cases = appendUnique(cases, citation)
		}
	}
	return cases
}

// appendUnique appends value unless it is already present (exact match).
func appendUnique(list []string, value string) []string {
	if slices.Contains(list, value) {
		return list
	}
	return append(list, value)
}
