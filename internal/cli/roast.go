package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"resumeroast/internal/ai"
	"resumeroast/internal/common"
	"resumeroast/internal/types"

	"github.com/spf13/cobra"
)

var roastCmd = &cobra.Command{
	Use:   "roast [resume-file]",
	Short: "Roast a resume for a target role",
	Long: `Send a resume to the configured AI provider and print a scored review:
per-section feedback with suggested rewrites, an ATS check, quick wins and
a rewritten summary. The resume may be plain text, markdown or a PDF with a
text layer.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveFormat(cmd, &roastConfig, &ai.RoastResult{})
	},
	RunE: runRoast,
}

var roastConfig common.CommandConfig

var roastOptions struct {
	role        string
	company     string
	showPartial bool
}

func init() {
	roastCmd.Flags().StringVarP(&roastOptions.role, "role", "r", "", "Target role, e.g. \"Senior Backend Engineer\" (required)")
	roastCmd.Flags().StringVarP(&roastOptions.company, "company", "c", "", "Target company")
	roastCmd.Flags().BoolVar(&roastOptions.showPartial, "show-partial", false, "Print progress to stderr while the analysis streams in")
	_ = roastCmd.MarkFlagRequired("role")
	addOutputFlags(roastCmd, &roastConfig, &ai.RoastResult{})
}

func runRoast(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	aiService, err := ai.NewService(&cfg.AI, cfg.Prompts, nil, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() {
		if err := aiService.Close(); err != nil {
			logger.LogError(err, "Failed to close AI service")
		}
	}()

	createInput := func(contents []string) (*types.AnalysisRequest, error) {
		if len(contents) != 1 {
			return nil, fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return &types.AnalysisRequest{
			ResumeText: contents[0],
			TargetRole: roastOptions.role,
			Company:    roastOptions.company,
		}, nil
	}

	logDetails := func(input *types.AnalysisRequest, cfg common.CommandConfig) {
		logger.Info("Starting resume roast",
			"resume_chars", len(input.ResumeText),
			"target_role", input.TargetRole,
			"output_format", cfg.OutputFormat)
	}

	var onPartial func(*types.PartialAnalysis)
	if roastOptions.showPartial {
		progress := cmd.ErrOrStderr()
		onPartial = func(p *types.PartialAnalysis) {
			printProgress(progress, p)
		}
	}

	roastOperation := func(ctx context.Context, req *types.AnalysisRequest) (*ai.RoastResult, *ai.TokenUsage, error) {
		result, err := aiService.Roast(ctx, req, onPartial)
		if err != nil {
			return nil, nil, err
		}
		return result, result.Usage, nil
	}

	cmdConfig := roastConfig
	cmdConfig.MaxFileSize = cfg.App.MaxFileSize
	cmdConfig.Stdout = cmd.OutOrStdout()

	if err := common.RunCommand(cmd.Context(), logger, cmdConfig, args, createInput, roastOperation, logDetails); err != nil {
		return fmt.Errorf("failed to roast resume: %w", err)
	}
	logger.Info("Resume roast completed successfully")
	return nil
}

// printProgress writes a one-line summary of what has streamed in so far
func printProgress(w io.Writer, p *types.PartialAnalysis) {
	var parts []string
	if p.OverallScore != nil {
		parts = append(parts, fmt.Sprintf("score %d", *p.OverallScore))
	}
	if p.Verdict != nil {
		parts = append(parts, fmt.Sprintf("verdict %s", *p.Verdict))
	}
	if n := len(p.Sections); n > 0 {
		parts = append(parts, fmt.Sprintf("%d sections", n))
	}
	if p.ATSAnalysis != nil {
		parts = append(parts, "ats")
	}
	if n := len(p.QuickWins); n > 0 {
		parts = append(parts, fmt.Sprintf("%d quick wins", n))
	}
	if p.RewrittenSummary != nil {
		parts = append(parts, "summary rewrite")
	}
	if len(parts) == 0 {
		parts = append(parts, "waiting for first field")
	}
	fmt.Fprintf(w, "[partial] %s\n", strings.Join(parts, ", "))
}
