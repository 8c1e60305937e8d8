package formatters

import (
	"fmt"
	"strings"

	"resumeroast/internal/sections"
	"resumeroast/internal/types"
)

// SectionsTextFormatter lists detected resume sections
type SectionsTextFormatter struct{}

func (stf *SectionsTextFormatter) Format(data any) (string, error) {
	detected, ok := data.([]sections.Detected)
	if !ok {
		return "", fmt.Errorf("expected []sections.Detected, got %T", data)
	}
	if len(detected) == 0 {
		return "No sections detected\n", nil
	}

	var output strings.Builder
	fmt.Fprintf(&output, "=== SECTIONS (%d) ===\n", len(detected))
	for _, d := range detected {
		fmt.Fprintf(&output, "%-16s bytes %d-%d, %d words\n", d.Name, d.Start, d.End, len(strings.Fields(d.Content)))
	}
	return output.String(), nil
}

func (stf *SectionsTextFormatter) SupportedType() string {
	return TypeSections
}

// SectionsMarkdownFormatter renders detected sections with their content
type SectionsMarkdownFormatter struct{}

func (smf *SectionsMarkdownFormatter) Format(data any) (string, error) {
	detected, ok := data.([]sections.Detected)
	if !ok {
		return "", fmt.Errorf("expected []sections.Detected, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Resume Sections\n\n")
	if len(detected) == 0 {
		output.WriteString("_No sections detected._\n")
		return output.String(), nil
	}
	for _, d := range detected {
		fmt.Fprintf(&output, "## %s\n\n", d.Name)
		if d.Content != "" {
			output.WriteString(d.Content)
			output.WriteString("\n\n")
		}
	}
	return output.String(), nil
}

func (smf *SectionsMarkdownFormatter) SupportedType() string {
	return TypeSections
}

// ParsedTextFormatter writes extracted resume text as is
type ParsedTextFormatter struct{}

func (ptf *ParsedTextFormatter) Format(data any) (string, error) {
	var text string
	switch v := data.(type) {
	case types.ParseResponse:
		text = v.Text
	case *types.ParseResponse:
		text = v.Text
	default:
		return "", fmt.Errorf("expected types.ParseResponse, got %T", data)
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text, nil
}

func (ptf *ParsedTextFormatter) SupportedType() string {
	return TypeParsed
}
