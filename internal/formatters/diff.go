package formatters

import (
	"fmt"
	"strings"

	"resumeroast/internal/diff"
)

// DiffTextFormatter renders diffs in git word-diff style
type DiffTextFormatter struct{}

func (dtf *DiffTextFormatter) Format(data any) (string, error) {
	results, err := toDiffResults(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	for i, r := range results {
		if i > 0 {
			output.WriteString("\n")
		}
		if r.Name != "" {
			fmt.Fprintf(&output, "=== %s ===\n", strings.ToUpper(r.Name))
		}
		fmt.Fprintf(&output, "%s\n\n", r.Stats)
		output.WriteString(wordDiff(r.Segments))
		output.WriteString("\n")
	}
	return output.String(), nil
}

func (dtf *DiffTextFormatter) SupportedType() string {
	return TypeDiffResult
}

// DiffMarkdownFormatter renders diffs with strikethrough deletions and bold insertions
type DiffMarkdownFormatter struct{}

func (dmf *DiffMarkdownFormatter) Format(data any) (string, error) {
	results, err := toDiffResults(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	output.WriteString("# Resume Diff\n\n")
	for _, r := range results {
		if r.Name != "" {
			fmt.Fprintf(&output, "## %s\n\n", r.Name)
		}
		fmt.Fprintf(&output, "| Added | Removed | Unchanged |\n|-------|---------|-----------|\n| %d | %d | %d |\n\n",
			r.Stats.Added, r.Stats.Removed, r.Stats.Unchanged)
		output.WriteString(markdownDiff(r.Segments))
		output.WriteString("\n\n")
	}
	return output.String(), nil
}

func (dmf *DiffMarkdownFormatter) SupportedType() string {
	return TypeDiffResult
}

// DiffPatchFormatter renders diffs as patch text that applies to the original
type DiffPatchFormatter struct{}

func (dpf *DiffPatchFormatter) Format(data any) (string, error) {
	results, err := toDiffResults(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	for _, r := range results {
		if len(results) > 1 && r.Name != "" {
			fmt.Fprintf(&output, "# %s\n", r.Name)
		}
		output.WriteString(r.Patch())
	}
	return output.String(), nil
}

func (dpf *DiffPatchFormatter) SupportedType() string {
	return TypeDiffResult
}

// DiffANSIFormatter renders diffs inline with terminal colours
type DiffANSIFormatter struct{}

func (daf *DiffANSIFormatter) Format(data any) (string, error) {
	results, err := toDiffResults(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	for i, r := range results {
		if i > 0 {
			output.WriteString("\n")
		}
		if r.Name != "" {
			fmt.Fprintf(&output, "\x1b[1m%s\x1b[0m (%s)\n", r.Name, statsLine(r.Stats))
		}
		output.WriteString(diff.PrettyText(r.Segments))
		output.WriteString("\n")
	}
	return output.String(), nil
}

func (daf *DiffANSIFormatter) SupportedType() string {
	return TypeDiffResult
}
