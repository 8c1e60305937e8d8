package types

import "testing"

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		input string
		want  Verdict
		ok    bool
	}{
		{"needs_work", VerdictNeedsWork, true},
		{"decent", VerdictDecent, true},
		{"strong", VerdictStrong, true},
		{"excellent", VerdictExcellent, true},
		{"Excellent", "", false},
		{"exceptional", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseVerdict(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Expected (%q, %v), got (%q, %v)", tt.want, tt.ok, got, ok)
			}
		})
	}
}

func TestPartialAnalysisIsEmpty(t *testing.T) {
	var nilAnalysis *PartialAnalysis
	if !nilAnalysis.IsEmpty() {
		t.Error("Expected nil analysis to be empty")
	}
	if !(&PartialAnalysis{}).IsEmpty() {
		t.Error("Expected zero analysis to be empty")
	}
	if (&PartialAnalysis{QuickWins: []QuickWin{{Title: "x"}}}).IsEmpty() {
		t.Error("Expected analysis with quick wins not to be empty")
	}
	if (&PartialAnalysis{ATSAnalysis: &ATSAnalysis{}}).HasScalars() {
		t.Error("Expected ATS-only analysis to have no headline scalars")
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	verdict := VerdictStrong
	original := &PartialAnalysis{
		OverallScore: intPtr(80),
		Verdict:      &verdict,
		RoastSummary: strPtr("solid"),
		Sections: []Section{
			{Name: "Skills", Improvements: []string{"add Go"}},
		},
		ATSAnalysis: &ATSAnalysis{Score: intPtr(55), MissingKeywords: []string{"kubernetes"}},
	}

	clone := original.Clone()
	*clone.OverallScore = 10
	*clone.Verdict = VerdictNeedsWork
	clone.Sections[0].Improvements[0] = "changed"
	clone.ATSAnalysis.MissingKeywords[0] = "changed"
	*clone.ATSAnalysis.Score = 1

	if *original.OverallScore != 80 {
		t.Errorf("Expected original score 80, got %d", *original.OverallScore)
	}
	if *original.Verdict != VerdictStrong {
		t.Errorf("Expected original verdict strong, got %s", *original.Verdict)
	}
	if original.Sections[0].Improvements[0] != "add Go" {
		t.Errorf("Expected original improvements untouched, got %v", original.Sections[0].Improvements)
	}
	if original.ATSAnalysis.MissingKeywords[0] != "kubernetes" || *original.ATSScore() != 55 {
		t.Errorf("Expected original ATS analysis untouched, got %+v", original.ATSAnalysis)
	}
}
