package ai

import (
	"strings"
	"testing"

	"resumeroast/internal/stream"
	"resumeroast/internal/types"
)

func TestValidateAnalysisAcceptsSample(t *testing.T) {
	analysis := stream.ExtractPartial(defaultMockResponse)
	if warnings := ValidateAnalysis(analysis); len(warnings) != 0 {
		t.Errorf("Expected sample response to validate, got %v", warnings)
	}
}

func TestValidateAnalysisReportsGaps(t *testing.T) {
	score := 140
	verdict := types.Verdict("meh")
	analysis := &types.PartialAnalysis{OverallScore: &score, Verdict: &verdict}

	warnings := ValidateAnalysis(analysis)
	if len(warnings) == 0 {
		t.Fatal("Expected warnings for incomplete analysis")
	}

	joined := strings.Join(warnings, "\n")
	for _, want := range []string{"overallScore", "verdict", "roastSummary", "sections"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected a warning mentioning %q, got:\n%s", want, joined)
		}
	}
}

func TestValidateAnalysisNil(t *testing.T) {
	if warnings := ValidateAnalysis(nil); len(warnings) != 1 {
		t.Errorf("Expected one warning for nil analysis, got %v", warnings)
	}
}

func TestGeminiSchemaMatchesRequiredFields(t *testing.T) {
	schema := buildGeminiSchema()
	if len(schema.Required) != 6 {
		t.Errorf("Expected 6 required fields, got %v", schema.Required)
	}
	if schema.PropertyOrdering[0] != "overallScore" {
		t.Errorf("Expected overallScore first, got %v", schema.PropertyOrdering)
	}
	for _, name := range schema.PropertyOrdering {
		if _, ok := schema.Properties[name]; !ok {
			t.Errorf("Ordered property %q missing from schema", name)
		}
	}
}
