package ai

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/genai"

	"resumeroast/internal/types"
)

// analysisJSONSchema describes a complete analysis. Finalized results that do
// not match it are still returned; the mismatches become warnings.
const analysisJSONSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["overallScore", "verdict", "roastSummary", "sections", "atsAnalysis", "quickWins"],
  "properties": {
    "overallScore": {"type": "integer", "minimum": 0, "maximum": 100},
    "verdict": {"enum": ["needs_work", "decent", "strong", "excellent"]},
    "roastSummary": {"type": "string", "minLength": 1},
    "sections": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "score", "severity", "feedback"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "score": {"type": "integer", "minimum": 0, "maximum": 100},
          "severity": {"enum": ["critical", "warning", "good"]},
          "feedback": {"type": "string"},
          "improvements": {"type": "array", "items": {"type": "string"}},
          "original": {"type": "string"},
          "improved": {"type": "string"},
          "improvementNotes": {"type": "string"}
        }
      }
    },
    "atsAnalysis": {
      "type": "object",
      "required": ["score"],
      "properties": {
        "score": {"type": "integer", "minimum": 0, "maximum": 100},
        "missingKeywords": {"type": "array", "items": {"type": "string"}},
        "presentKeywords": {"type": "array", "items": {"type": "string"}},
        "suggestions": {"type": "array", "items": {"type": "string"}}
      }
    },
    "quickWins": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "description", "impact"],
        "properties": {
          "title": {"type": "string"},
          "description": {"type": "string"},
          "impact": {"enum": ["high", "medium", "low"]}
        }
      }
    },
    "rewrittenSummary": {"type": "string"}
  }
}`

var compiledAnalysisSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(analysisJSONSchema))
})

// ValidateAnalysis checks a finalized analysis against the expected schema and
// returns one warning per violation. Nil means the analysis is complete.
func ValidateAnalysis(analysis *types.PartialAnalysis) []string {
	if analysis == nil {
		return []string{"analysis is missing"}
	}

	schema, err := compiledAnalysisSchema()
	if err != nil {
		return []string{fmt.Sprintf("analysis schema unavailable: %v", err)}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(analysis))
	if err != nil {
		return []string{fmt.Sprintf("analysis could not be validated: %v", err)}
	}
	if result.Valid() {
		return nil
	}

	warnings := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		warnings = append(warnings, desc.String())
	}
	return warnings
}

// buildGeminiSchema mirrors analysisJSONSchema for Gemini's structured output.
// Property ordering keeps the scalar fields first in the streamed response.
func buildGeminiSchema() *genai.Schema {
	stringArray := &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	score := &genai.Schema{Type: genai.TypeInteger, Minimum: genai.Ptr(0.0), Maximum: genai.Ptr(100.0)}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"overallScore": score,
			"verdict": {
				Type: genai.TypeString,
				Enum: []string{"needs_work", "decent", "strong", "excellent"},
			},
			"roastSummary": {Type: genai.TypeString},
			"sections": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":             {Type: genai.TypeString},
						"score":            score,
						"severity":         {Type: genai.TypeString, Enum: []string{"critical", "warning", "good"}},
						"feedback":         {Type: genai.TypeString},
						"improvements":     stringArray,
						"original":         {Type: genai.TypeString},
						"improved":         {Type: genai.TypeString},
						"improvementNotes": {Type: genai.TypeString},
					},
					Required: []string{"name", "score", "severity", "feedback", "improvements"},
				},
			},
			"atsAnalysis": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"score":           score,
					"missingKeywords": stringArray,
					"presentKeywords": stringArray,
					"suggestions":     stringArray,
				},
				Required: []string{"score", "missingKeywords", "presentKeywords", "suggestions"},
			},
			"quickWins": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":       {Type: genai.TypeString},
						"description": {Type: genai.TypeString},
						"impact":      {Type: genai.TypeString, Enum: []string{"high", "medium", "low"}},
					},
					Required: []string{"title", "description", "impact"},
				},
			},
			"rewrittenSummary": {Type: genai.TypeString},
		},
		Required: []string{"overallScore", "verdict", "roastSummary", "sections", "atsAnalysis", "quickWins"},
		PropertyOrdering: []string{
			"overallScore", "verdict", "roastSummary", "sections",
			"atsAnalysis", "quickWins", "rewrittenSummary",
		},
	}
}
