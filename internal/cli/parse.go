package cli

import (
	"context"
	"fmt"

	"resumeroast/internal/ai"
	"resumeroast/internal/common"
	"resumeroast/internal/types"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [resume-file]",
	Short: "Extract plain text from a resume",
	Long: `Extract the text a roast would be based on. PDFs must have a text layer;
scanned documents are rejected.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveFormat(cmd, &parseConfig, types.ParseResponse{})
	},
	RunE: runParse,
}

var parseConfig common.CommandConfig

func init() {
	addOutputFlags(parseCmd, &parseConfig, types.ParseResponse{})
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	createInput := func(contents []string) (string, error) {
		if len(contents) != 1 {
			return "", fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return contents[0], nil
	}

	parseOperation := func(ctx context.Context, text string) (types.ParseResponse, *ai.TokenUsage, error) {
		return types.ParseResponse{Success: true, Text: text}, nil, nil
	}

	cmdConfig := parseConfig
	cmdConfig.MaxFileSize = cfg.App.MaxFileSize
	cmdConfig.Stdout = cmd.OutOrStdout()

	if err := common.RunCommand(cmd.Context(), logger, cmdConfig, args, createInput, parseOperation, nil); err != nil {
		return fmt.Errorf("failed to parse resume: %w", err)
	}
	return nil
}
