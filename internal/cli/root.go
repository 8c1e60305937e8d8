package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"resumeroast/internal/common"
	"resumeroast/internal/config"
	"resumeroast/internal/errors"
	"resumeroast/internal/formatters"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

// skipRuntime marks commands that run without configuration
const skipRuntime = "skip-runtime"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "resumeroast",
	Short: "Roast your resume with AI and see exactly what to change",
	Long: `Resumeroast reviews a resume against a target role using an LLM.
It scores each section, checks ATS compatibility, suggests quick wins and
shows every rewrite as a word-level diff against your original text.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadRuntime,
}

// Execute runs the root command. Configuration and the logger are loaded
// once the command line is parsed so --config can take effect.
func Execute(ctx context.Context) error {
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// loadRuntime loads configuration and attaches it with a logger to the command context
func loadRuntime(cmd *cobra.Command, args []string) error {
	if !needsRuntime(cmd) {
		return nil
	}

	cfg, err := config.LoadConfigFrom(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Logs go to stderr so command output on stdout stays clean
	level, err := errors.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger := errors.NewLoggerWithWriter(os.Stderr, level)

	logger.Debug("Starting resumeroast",
		"version", Version,
		"command", cmd.Name(),
		"log_level", cfg.App.LogLevel,
		"ai_provider", cfg.AI.Provider)

	// Attach the config and logger to the context, making them available to all subcommands
	ctx := context.WithValue(cmd.Context(), configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	cmd.SetContext(ctx)
	return nil
}

// needsRuntime reports whether cmd uses configuration. Help, completion and
// commands annotated with skipRuntime run without it.
func needsRuntime(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
		if c.Annotations[skipRuntime] == "true" {
			return false
		}
	}
	return true
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// resolveFormat applies the configured default format, then checks the
// format is both allowed by configuration and able to render sample.
func resolveFormat(cmd *cobra.Command, cmdConfig *common.CommandConfig, sample any) error {
	cfg := getConfigFromContext(cmd.Context())
	if cmdConfig.OutputFormat == "" {
		cmdConfig.OutputFormat = cfg.App.DefaultFormat
	}
	if err := common.ValidateOutputFormat(cmdConfig.OutputFormat, cfg.App.SupportedFormats); err != nil {
		return err
	}
	return common.ValidateFormatFor(cmdConfig.OutputFormat, sample)
}

// addOutputFlags registers --output and --format with completion for formats that can render sample
func addOutputFlags(cmd *cobra.Command, cmdConfig *common.CommandConfig, sample any) {
	cmd.Flags().StringVarP(&cmdConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cmdConfig.OutputFormat, "format", "",
		fmt.Sprintf("Output format: %s", strings.Join(formatters.GlobalRegistry.FormatsFor(sample), ", ")))

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return formatters.GlobalRegistry.FormatsFor(sample), cobra.ShellCompDirectiveNoFileComp
	})
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./config.yaml, $HOME/.resumeroast or /etc/resumeroast)")

	rootCmd.AddCommand(roastCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(sectionsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
