package formatters

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"resumeroast/internal/ai"
	"resumeroast/internal/diff"
	"resumeroast/internal/sections"
	"resumeroast/internal/types"
)

// Data type keys used by the registry
const (
	TypeAny         = "any"
	TypeRoastResult = "RoastResult"
	TypeDiffResult  = "DiffResult"
	TypeDiffResults = "DiffResults"
	TypeSections    = "Sections"
	TypeParsed      = "ParseResponse"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", TypeAny, &JSONFormatter{})
	registry.RegisterFormatter("yaml", TypeAny, &YAMLFormatter{})
	registry.RegisterFormatter("text", TypeRoastResult, &RoastTextFormatter{})
	registry.RegisterFormatter("markdown", TypeRoastResult, &RoastMarkdownFormatter{})
	registry.RegisterFormatter("text", TypeDiffResult, &DiffTextFormatter{})
	registry.RegisterFormatter("text", TypeDiffResults, &DiffTextFormatter{})
	registry.RegisterFormatter("markdown", TypeDiffResult, &DiffMarkdownFormatter{})
	registry.RegisterFormatter("markdown", TypeDiffResults, &DiffMarkdownFormatter{})
	registry.RegisterFormatter("patch", TypeDiffResult, &DiffPatchFormatter{})
	registry.RegisterFormatter("patch", TypeDiffResults, &DiffPatchFormatter{})
	registry.RegisterFormatter("ansi", TypeDiffResult, &DiffANSIFormatter{})
	registry.RegisterFormatter("ansi", TypeDiffResults, &DiffANSIFormatter{})
	registry.RegisterFormatter("text", TypeSections, &SectionsTextFormatter{})
	registry.RegisterFormatter("markdown", TypeSections, &SectionsMarkdownFormatter{})
	registry.RegisterFormatter("text", TypeParsed, &ParsedTextFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	formatter, ok := fr.lookup(format, getDataType(data))
	if !ok {
		return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, getDataType(data))
	}
	return formatter.Format(data)
}

// Supports reports whether data can be rendered in format.
func (fr *FormatterRegistry) Supports(data any, format string) bool {
	_, ok := fr.lookup(format, getDataType(data))
	return ok
}

func (fr *FormatterRegistry) lookup(format, dataType string) (Formatter, bool) {
	formatters, exists := fr.formatters[format]
	if !exists {
		return nil, false
	}
	// Try specific formatter first, then fall back to the generic one
	if formatter, exists := formatters[dataType]; exists {
		return formatter, true
	}
	formatter, exists := formatters[TypeAny]
	return formatter, exists
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

// FormatsFor returns the formats that can render data, sorted
func (fr *FormatterRegistry) FormatsFor(data any) []string {
	var formats []string
	for _, format := range fr.GetSupportedFormats() {
		if fr.Supports(data, format) {
			formats = append(formats, format)
		}
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case *ai.RoastResult, ai.RoastResult:
		return TypeRoastResult
	case diff.Result, *diff.Result:
		return TypeDiffResult
	case []diff.Result:
		return TypeDiffResults
	case []sections.Detected:
		return TypeSections
	case types.ParseResponse, *types.ParseResponse:
		return TypeParsed
	default:
		return TypeAny
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return TypeAny
}

// YAMLFormatter handles YAML formatting for any data type
type YAMLFormatter struct{}

func (yf *YAMLFormatter) Format(data any) (string, error) {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (yf *YAMLFormatter) SupportedType() string {
	return TypeAny
}

// wrapWords surrounds the non-whitespace core of text with open and close,
// leaving leading and trailing whitespace outside the markers.
func wrapWords(text, open, closing string) string {
	core := strings.TrimFunc(text, unicode.IsSpace)
	if core == "" {
		return text
	}
	start := strings.Index(text, core)
	return text[:start] + open + core + closing + text[start+len(core):]
}

// inlineDiff renders segments as a single string, marking removed and added
// runs with the given delimiters.
func inlineDiff(segs []diff.Segment, delOpen, delClose, addOpen, addClose string) string {
	var b strings.Builder
	for _, seg := range segs {
		switch seg.Kind {
		case diff.Removed:
			b.WriteString(wrapWords(seg.Text, delOpen, delClose))
		case diff.Added:
			b.WriteString(wrapWords(seg.Text, addOpen, addClose))
		default:
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

func wordDiff(segs []diff.Segment) string {
	return inlineDiff(segs, "[-", "-]", "{+", "+}")
}

func markdownDiff(segs []diff.Segment) string {
	return inlineDiff(segs, "~~", "~~", "**", "**")
}

func statsLine(s diff.Summary) string {
	return fmt.Sprintf("+%d -%d =%d", s.Added, s.Removed, s.Unchanged)
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

func toDiffResults(data any) ([]diff.Result, error) {
	switch v := data.(type) {
	case diff.Result:
		return []diff.Result{v}, nil
	case *diff.Result:
		if v == nil {
			return nil, fmt.Errorf("expected DiffResult, got nil")
		}
		return []diff.Result{*v}, nil
	case []diff.Result:
		return v, nil
	default:
		return nil, fmt.Errorf("expected DiffResult, got %T", data)
	}
}

func toRoastResult(data any) (*ai.RoastResult, error) {
	switch v := data.(type) {
	case *ai.RoastResult:
		if v == nil || v.Analysis == nil {
			return nil, fmt.Errorf("expected RoastResult with an analysis, got nil")
		}
		return v, nil
	case ai.RoastResult:
		return toRoastResult(&v)
	default:
		return nil, fmt.Errorf("expected RoastResult, got %T", data)
	}
}

// GlobalRegistry is the formatter registry shared by the CLI
var GlobalRegistry = NewFormatterRegistry()
