package citations

import "regexp"

// Recognizer rules for UK legal references. The ordering of each list is
// significant: matches are inserted in pattern order, then in order of
// appearance within the text.

// legislationPatterns match named-act references (with optional year) and the
// generic "Section N of the X Act" phrasing. Matching is case-insensitive.
var legislationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:the )?(?:UK )?Insolvency Act(?: \d{4})?`),
	regexp.MustCompile(`(?i)(?:the )?(?:UK )?Companies Act(?: \d{4})?`),
	regexp.MustCompile(`(?i)(?:the )?(?:UK )?Enterprise Act(?: \d{4})?`),
	regexp.MustCompile(`(?i)(?:the )?(?:UK )?Bankruptcy(?:\sand\sInsolvency)? Act(?: \d{4})?`),
	regexp.MustCompile(`(?i)(?:the )?(?:UK )?Company Directors Disqualification Act(?: \d{4})?`),
	regexp.MustCompile(`(?i)(?:Section|s\.?|Sec\.?) \d+[A-Za-z]* of the [A-Za-z\s]+ Act(?: \d{4})?`),
}

// yearNormalizations append a canonical year to known acts cited without one.
// Keyed by a lowercase substring of the match; the year is appended when the
// match does not already contain it.
var yearNormalizations = []struct {
	contains string
	year     string
}{
	{"insolvency act", "1986"},
	{"companies act", "2006"},
}

// casePatterns match party-versus-party citations, "Re ..." references and
// judicial review style names. Matching is case-sensitive: party names are
// expected to be capitalized.
var casePatterns = []*regexp.Regexp{
	// "Salomon v A Salomon & Co Ltd" style: capitalized tokens (single
	// capitals and abbreviations included) joined by "&" either side of "v".
	regexp.MustCompile(`[A-Z][A-Za-z]*(?:\s+(?:[A-Z][A-Za-z]*|&))* v\.? [A-Z][A-Za-z]*(?:\s+(?:[A-Z][A-Za-z]*|&))*`),
	regexp.MustCompile(`Re \w+(?:\s+\w+)*(?:\s+\[\d{4}\])?(?:\s+[A-Z]+\s+\d+)?`),
	regexp.MustCompile(`R \((?:on the application of )?\w+(?:\s+\w+)*\) v\.? \w+(?:\s+\w+)*`),
}

// reportCitationPattern matches bracketed-year report citations of the form
// "[YYYY] COURT NUMBER". Used by the fallback heuristic when no primary case
// pattern matched.
var reportCitationPattern = regexp.MustCompile(`\[\d{4}\]\s+[A-Z]+\s+\d+`)

// formPatterns match official form references. Matching is case-insensitive.
var formPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Form\s+[0-9.]+(?: \([A-Za-z]+\))?`),
	regexp.MustCompile(`(?i)(?:Official )?Receiver Form [0-9.]+`),
	regexp.MustCompile(`(?i)(?:Notice|Statement) of [A-Za-z\s]+`),
}
