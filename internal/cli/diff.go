package cli

import (
	"context"
	"fmt"

	"resumeroast/internal/ai"
	"resumeroast/internal/common"
	"resumeroast/internal/diff"
	"resumeroast/internal/sections"

	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff [original-file] [improved-file]",
	Short: "Show a word-level diff between two versions of a resume",
	Long: `Compare two resume files word by word. With --by-section the files are
split at recognised section headings (Summary, Experience, Skills, ...) and
each section is diffed against its counterpart.

Formats: text ([-removed-]{+added+}), markdown, patch, ansi, json and yaml.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveFormat(cmd, &diffConfig, diffSample())
	},
	RunE: runDiff,
}

var diffConfig common.CommandConfig

var diffBySection bool

type diffInput struct {
	original string
	improved string
}

func init() {
	diffCmd.Flags().BoolVar(&diffBySection, "by-section", false, "Diff each detected resume section separately")
	addOutputFlags(diffCmd, &diffConfig, diff.Result{})
}

func diffSample() any {
	if diffBySection {
		return []diff.Result{}
	}
	return diff.Result{}
}

func runDiff(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	createInput := func(contents []string) (diffInput, error) {
		if len(contents) != 2 {
			return diffInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		return diffInput{original: contents[0], improved: contents[1]}, nil
	}

	logDetails := func(input diffInput, cfg common.CommandConfig) {
		logger.Debug("Computing diff",
			"original_chars", len(input.original),
			"improved_chars", len(input.improved),
			"by_section", diffBySection,
			"output_format", cfg.OutputFormat)
	}

	diffOperation := func(ctx context.Context, input diffInput) (any, *ai.TokenUsage, error) {
		if diffBySection {
			return diffSections(input.original, input.improved), nil, nil
		}
		return diff.NewResult("", input.original, input.improved), nil, nil
	}

	cmdConfig := diffConfig
	cmdConfig.MaxFileSize = cfg.App.MaxFileSize
	cmdConfig.Stdout = cmd.OutOrStdout()

	if err := common.RunCommand(cmd.Context(), logger, cmdConfig, args, createInput, diffOperation, logDetails); err != nil {
		return fmt.Errorf("failed to diff files: %w", err)
	}
	return nil
}

// diffSections pairs sections by name. Sections are returned in the order
// they appear in original, followed by sections only present in improved.
// Text without any recognised heading is diffed as a single unnamed result.
func diffSections(original, improved string) []diff.Result {
	before := sections.Detect(original)
	after := sections.Detect(improved)
	if len(before) == 0 && len(after) == 0 {
		return []diff.Result{diff.NewResult("", original, improved)}
	}

	afterByName := sections.ByName(after)
	results := make([]diff.Result, 0, len(before)+len(after))
	seen := make(map[string]bool, len(before))

	for _, b := range before {
		seen[b.Name] = true
		results = append(results, diff.NewResult(b.Name, b.Content, afterByName[b.Name].Content))
	}
	for _, a := range after {
		if !seen[a.Name] {
			results = append(results, diff.NewResult(a.Name, "", a.Content))
		}
	}
	return results
}
