package common

import (
	"fmt"
	"slices"

	"resumeroast/internal/formatters"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// ValidateFormatFor checks that the registry can render sample in format.
// sample only needs the right type; its contents are not inspected.
func ValidateFormatFor(format string, sample any) error {
	if formatters.GlobalRegistry.Supports(sample, format) {
		return nil
	}
	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, formatters.GlobalRegistry.FormatsFor(sample))
}

// GetSupportedFormats returns the list of supported formats
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}
