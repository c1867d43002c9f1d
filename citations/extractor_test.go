package citations

import (
	"slices"
	"testing"
)

func TestExtractLegislationYearAppended(t *testing.T) {
	refs := Extract("Under the Insolvency Act provides for several procedures.")
	if !slices.Contains(refs.Legislation, "the Insolvency Act 1986") {
		t.Errorf("Expected 'the Insolvency Act 1986' in legislation, got %v", refs.Legislation)
	}
}

func TestExtractLegislationNoDuplicateWithYear(t *testing.T) {
	refs := Extract("Administration is governed by the Insolvency Act 1986 in most cases.")
	count := 0
	for _, l := range refs.Legislation {
		if l == "the Insolvency Act 1986" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected exactly one 'the Insolvency Act 1986' entry, got %d (%v)", count, refs.Legislation)
	}
}

func TestExtractCompaniesActNormalization(t *testing.T) {
	refs := Extract("Directors' duties are set out in the Companies Act.")
	if !slices.Contains(refs.Legislation, "the Companies Act 2006") {
		t.Errorf("Expected 'the Companies Act 2006', got %v", refs.Legislation)
	}
}

func TestExtractSectionReference(t *testing.T) {
	refs := Extract("A creditor may rely on Section 123 of the Insolvency Act 1986 to show inability to pay.")
	if !slices.Contains(refs.Legislation, "Section 123 of the Insolvency Act 1986") {
		t.Errorf("Expected section reference in legislation, got %v", refs.Legislation)
	}
}

func TestExtractCaseName(t *testing.T) {
	refs := Extract("The case of Salomon v A Salomon & Co Ltd established separate corporate personality.")
	if !slices.Contains(refs.Cases, "Salomon v A Salomon & Co Ltd") {
		t.Errorf("Expected 'Salomon v A Salomon & Co Ltd' in cases, got %v", refs.Cases)
	}
}

func TestExtractForms(t *testing.T) {
	refs := Extract("For formal proceedings you might need Form 4.19 (Scot) from the court.")
	if !slices.Contains(refs.Forms, "Form 4.19 (Scot)") {
		t.Errorf("Expected 'Form 4.19 (Scot)' in forms, got %v", refs.Forms)
	}
}

func TestExtractNoticeForm(t *testing.T) {
	refs := Extract("File a Notice of Intention to Appoint an Administrator with the court")
	if len(refs.Forms) == 0 {
		t.Fatalf("Expected a Notice form match, got none")
	}
}

func TestExtractFormsDeduplicated(t *testing.T) {
	refs := Extract("Submit Form 6.1 and then Form 6.1 again if rejected.")
	count := 0
	for _, f := range refs.Forms {
		if f == "Form 6.1" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected one 'Form 6.1' entry, got %d (%v)", count, refs.Forms)
	}
}

func TestExtractReportCitationFallback(t *testing.T) {
	text := "the principle was confirmed on appeal. see the decision reported at [2019] EWHC 123 for details"
	refs := Extract(text)
	want := "see the decision reported at [2019] EWHC 123"
	if !slices.Contains(refs.Cases, want) {
		t.Errorf("Expected fallback case %q, got %v", want, refs.Cases)
	}
}

func TestExtractFallbackSkippedWhenPrimaryMatched(t *testing.T) {
	text := "In Powdrill v Watson [1995] AC 394 the court considered administrators' liability."
	refs := Extract(text)
	if len(refs.Cases) == 0 {
		t.Fatal("Expected a primary case match")
	}
	// The bare citation must not be added by the fallback once a primary
	// pattern has matched.
	for _, c := range refs.Cases {
		if c == "[1995] AC 394" {
			t.Errorf("Fallback citation appended despite primary match: %v", refs.Cases)
		}
	}
}

func TestExtractDeterministic(t *testing.T) {
	text := "Under the Insolvency Act 1986 and the Companies Act, see Salomon v A Salomon & Co Ltd and Form 4.19 (Scot)."
	first := Extract(text)
	second := Extract(text)

	if !slices.Equal(first.Legislation, second.Legislation) ||
		!slices.Equal(first.Cases, second.Cases) ||
		!slices.Equal(first.Forms, second.Forms) {
		t.Errorf("Extraction is not deterministic: %v vs %v", first, second)
	}
}

func TestExtractEmptyTextYieldsEmptyLists(t *testing.T) {
	refs := Extract("")
	if len(refs.Legislation) != 0 || len(refs.Cases) != 0 || len(refs.Forms) != 0 {
		t.Errorf("Expected all lists empty for empty text, got %v", refs)
	}
	// Empty results are still non-nil so callers can serialize them as [].
	if refs.Legislation == nil || refs.Cases == nil || refs.Forms == nil {
		t.Error("Expected non-nil lists")
	}
}
