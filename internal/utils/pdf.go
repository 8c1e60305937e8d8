package utils

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"resumeroast/internal/errors"
)

// minExtractedChars is the shortest text a real (non-scanned) resume PDF yields.
const minExtractedChars = 10

var (
	horizontalSpace = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

// ExtractResumeText returns the plain text of a resume file. PDFs are
// detected by extension or magic bytes; anything else must be UTF-8 text.
func ExtractResumeText(filename string, data []byte) (string, error) {
	if IsPDFFile(filename) || bytes.HasPrefix(data, []byte("%PDF-")) {
		return ExtractPDFText(data)
	}

	if !utf8.Valid(data) {
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("%s is neither a PDF nor UTF-8 text", filename), nil)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.NewValidationError(errors.ErrCodeEmptyResume,
			fmt.Sprintf("%s is empty", filename), nil)
	}
	return text, nil
}

// ExtractPDFText pulls the text layer out of a PDF document.
func ExtractPDFText(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewIOError(errors.ErrCodePDFUnreadable,
				"Unable to read PDF. The file may be corrupted or password-protected.",
				fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodePDFUnreadable,
			"Unable to read PDF. The file may be corrupted or password-protected.", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodePDFUnreadable,
			"Unable to extract text from PDF", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", errors.NewIOError(errors.ErrCodePDFUnreadable,
			"Unable to extract text from PDF", err)
	}

	text = NormalizeWhitespace(buf.String())
	if len(text) < minExtractedChars {
		return "", errors.NewValidationError(errors.ErrCodeScannedPDF,
			"Scanned PDF not supported. Please upload a text-based PDF.", nil).
			WithContext("extracted_chars", len(text))
	}
	return text, nil
}

// NormalizeWhitespace collapses horizontal whitespace runs, normalizes line
// endings and squeezes blank lines while keeping paragraph breaks.
func NormalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = horizontalSpace.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(s)
}
