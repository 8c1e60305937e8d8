package cli

import (
	"context"
	"fmt"

	"resumeroast/internal/ai"
	"resumeroast/internal/common"
	"resumeroast/internal/sections"

	"github.com/spf13/cobra"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections [resume-file]",
	Short: "List the sections detected in a resume",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveFormat(cmd, &sectionsConfig, []sections.Detected{})
	},
	RunE: runSections,
}

var sectionsConfig common.CommandConfig

func init() {
	addOutputFlags(sectionsCmd, &sectionsConfig, []sections.Detected{})
}

func runSections(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	createInput := func(contents []string) (string, error) {
		if len(contents) != 1 {
			return "", fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return contents[0], nil
	}

	detectOperation := func(ctx context.Context, text string) ([]sections.Detected, *ai.TokenUsage, error) {
		return sections.Detect(text), nil, nil
	}

	cmdConfig := sectionsConfig
	cmdConfig.MaxFileSize = cfg.App.MaxFileSize
	cmdConfig.Stdout = cmd.OutOrStdout()

	if err := common.RunCommand(cmd.Context(), logger, cmdConfig, args, createInput, detectOperation, nil); err != nil {
		return fmt.Errorf("failed to detect sections: %w", err)
	}
	return nil
}
