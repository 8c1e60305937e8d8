package formatters

import (
	"fmt"
	"strings"

	"resumeroast/internal/types"
)

// RoastTextFormatter handles text formatting for roast results
type RoastTextFormatter struct{}

func (rtf *RoastTextFormatter) Format(data any) (string, error) {
	result, err := toRoastResult(data)
	if err != nil {
		return "", err
	}
	analysis := result.Analysis

	var output strings.Builder

	output.WriteString("=== RESUME ROAST ===\n")
	if analysis.OverallScore != nil {
		fmt.Fprintf(&output, "Overall score: %d/100", *analysis.OverallScore)
		if analysis.Verdict != nil {
			fmt.Fprintf(&output, " (%s)", verdictLabel(*analysis.Verdict))
		}
		output.WriteString("\n")
	}
	if analysis.RoastSummary != nil {
		output.WriteString("\n")
		output.WriteString(*analysis.RoastSummary)
		output.WriteString("\n")
	}
	output.WriteString("\n")

	if len(analysis.Sections) > 0 {
		output.WriteString("=== SECTIONS ===\n")
		for _, section := range analysis.Sections {
			fmt.Fprintf(&output, "[%s] %s: %d/100\n", strings.ToUpper(string(section.Severity)), section.Name, section.Score)
			if section.Feedback != "" {
				output.WriteString(indent(section.Feedback, "  "))
				output.WriteString("\n")
			}
			for _, improvement := range section.Improvements {
				fmt.Fprintf(&output, "  - %s\n", improvement)
			}
			output.WriteString("\n")
		}
	}

	if ats := analysis.ATSAnalysis; ats != nil {
		output.WriteString("=== ATS ANALYSIS ===\n")
		if ats.Score != nil {
			fmt.Fprintf(&output, "Score: %d/100\n", *ats.Score)
		}
		if len(ats.MissingKeywords) > 0 {
			fmt.Fprintf(&output, "Missing keywords: %s\n", strings.Join(ats.MissingKeywords, ", "))
		}
		if len(ats.PresentKeywords) > 0 {
			fmt.Fprintf(&output, "Present keywords: %s\n", strings.Join(ats.PresentKeywords, ", "))
		}
		if len(ats.Suggestions) > 0 {
			output.WriteString("Suggestions:\n")
			for _, suggestion := range ats.Suggestions {
				fmt.Fprintf(&output, "  - %s\n", suggestion)
			}
		}
		output.WriteString("\n")
	}

	if len(analysis.QuickWins) > 0 {
		output.WriteString("=== QUICK WINS ===\n")
		for _, win := range analysis.QuickWins {
			fmt.Fprintf(&output, "[%s] %s\n", strings.ToUpper(string(win.Impact)), win.Title)
			if win.Description != "" {
				output.WriteString(indent(win.Description, "  "))
				output.WriteString("\n")
			}
		}
		output.WriteString("\n")
	}

	if analysis.RewrittenSummary != nil {
		output.WriteString("=== REWRITTEN SUMMARY ===\n")
		output.WriteString(*analysis.RewrittenSummary)
		output.WriteString("\n\n")
	}

	if len(result.SectionDiffs) > 0 {
		output.WriteString("=== CHANGES ===\n")
		for _, d := range result.SectionDiffs {
			fmt.Fprintf(&output, "%s (%s)\n", d.Name, statsLine(d.Stats))
			output.WriteString(indent(wordDiff(d.Segments), "  "))
			output.WriteString("\n\n")
		}
	}

	if len(result.Warnings) > 0 {
		output.WriteString("=== WARNINGS ===\n")
		for _, warning := range result.Warnings {
			fmt.Fprintf(&output, "  - %s\n", warning)
		}
		output.WriteString("\n")
	}

	fmt.Fprintf(&output, "Model: %s (%s), parse: %s", result.Model, result.Provider, result.Method)
	if result.Usage != nil {
		fmt.Fprintf(&output, ", tokens: %d", result.Usage.TotalTokens)
	}
	output.WriteString("\n")

	return output.String(), nil
}

func (rtf *RoastTextFormatter) SupportedType() string {
	return TypeRoastResult
}

// RoastMarkdownFormatter handles markdown formatting for roast results
type RoastMarkdownFormatter struct{}

func (rmf *RoastMarkdownFormatter) Format(data any) (string, error) {
	result, err := toRoastResult(data)
	if err != nil {
		return "", err
	}
	analysis := result.Analysis

	var output strings.Builder

	output.WriteString("# Resume Roast\n\n")
	if analysis.OverallScore != nil {
		fmt.Fprintf(&output, "**Overall Score:** %d/100", *analysis.OverallScore)
		if analysis.Verdict != nil {
			fmt.Fprintf(&output, ", **Verdict:** %s", verdictLabel(*analysis.Verdict))
		}
		output.WriteString("\n\n")
	}
	if analysis.RoastSummary != nil {
		fmt.Fprintf(&output, "> %s\n\n", strings.ReplaceAll(*analysis.RoastSummary, "\n", "\n> "))
	}

	if len(analysis.Sections) > 0 {
		output.WriteString("## Sections\n\n")
		output.WriteString("| Section | Score | Severity |\n")
		output.WriteString("|---------|-------|----------|\n")
		for _, section := range analysis.Sections {
			fmt.Fprintf(&output, "| %s | %d | %s |\n", section.Name, section.Score, section.Severity)
		}
		output.WriteString("\n")

		for _, section := range analysis.Sections {
			fmt.Fprintf(&output, "### %s\n\n", section.Name)
			if section.Feedback != "" {
				output.WriteString(section.Feedback)
				output.WriteString("\n\n")
			}
			for _, improvement := range section.Improvements {
				fmt.Fprintf(&output, "- %s\n", improvement)
			}
			if len(section.Improvements) > 0 {
				output.WriteString("\n")
			}
			if section.ImprovementNotes != "" {
				fmt.Fprintf(&output, "_%s_\n\n", section.ImprovementNotes)
			}
		}
	}

	if ats := analysis.ATSAnalysis; ats != nil {
		output.WriteString("## ATS Analysis\n\n")
		if ats.Score != nil {
			fmt.Fprintf(&output, "**Score:** %d/100\n\n", *ats.Score)
		}
		if len(ats.MissingKeywords) > 0 {
			fmt.Fprintf(&output, "**Missing keywords:** %s\n\n", codeList(ats.MissingKeywords))
		}
		if len(ats.PresentKeywords) > 0 {
			fmt.Fprintf(&output, "**Present keywords:** %s\n\n", codeList(ats.PresentKeywords))
		}
		for _, suggestion := range ats.Suggestions {
			fmt.Fprintf(&output, "- %s\n", suggestion)
		}
		if len(ats.Suggestions) > 0 {
			output.WriteString("\n")
		}
	}

	if len(analysis.QuickWins) > 0 {
		output.WriteString("## Quick Wins\n\n")
		for i, win := range analysis.QuickWins {
			fmt.Fprintf(&output, "%d. **%s** (%s impact): %s\n", i+1, win.Title, win.Impact, win.Description)
		}
		output.WriteString("\n")
	}

	if analysis.RewrittenSummary != nil {
		output.WriteString("## Rewritten Summary\n\n")
		output.WriteString(*analysis.RewrittenSummary)
		output.WriteString("\n\n")
	}

	if len(result.SectionDiffs) > 0 {
		output.WriteString("## Changes\n\n")
		for _, d := range result.SectionDiffs {
			fmt.Fprintf(&output, "### %s\n\n", d.Name)
			fmt.Fprintf(&output, "%s\n\n", d.Stats)
			output.WriteString(markdownDiff(d.Segments))
			output.WriteString("\n\n")
		}
	}

	if len(result.Warnings) > 0 {
		output.WriteString("## Warnings\n\n")
		for _, warning := range result.Warnings {
			fmt.Fprintf(&output, "- %s\n", warning)
		}
		output.WriteString("\n")
	}

	fmt.Fprintf(&output, "---\n_Model: %s (%s), parse: %s_\n", result.Model, result.Provider, result.Method)

	return output.String(), nil
}

func (rmf *RoastMarkdownFormatter) SupportedType() string {
	return TypeRoastResult
}

func verdictLabel(v types.Verdict) string {
	return strings.ReplaceAll(string(v), "_", " ")
}

func codeList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "`" + item + "`"
	}
	return strings.Join(quoted, ", ")
}
