package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"resumeroast/internal/errors"
	"resumeroast/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger *errors.Logger
}

// NewFileProcessor creates a new file processor instance
func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

// ReadFile reads raw bytes from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			// Log the error but don't override the main operation result
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return content, nil
}

// ReadResume reads a resume file and returns its plain text, extracting the
// text layer of PDFs.
func (fp *FileProcessor) ReadResume(filename string) (string, error) {
	data, err := fp.ReadFile(filename)
	if err != nil {
		return "", err
	}

	text, err := utils.ExtractResumeText(filepath.Base(filename), data)
	if err != nil {
		return "", err
	}

	fp.logger.Debug("Extracted resume text",
		"filename", filename,
		"file_size", utils.FormatFileSize(int64(len(data))),
		"text_chars", len(text),
		"pdf", utils.IsPDFFile(filename))
	return text, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		err := os.MkdirAll(dir, 0750)
		if err != nil {
			return errors.NewIOError(errors.ErrCodeOutputFailed,
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	err := os.WriteFile(filename, []byte(content), 0600)
	if err != nil {
		return errors.NewIOError(errors.ErrCodeOutputFailed,
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateAndReadFiles validates and extracts the text of multiple input files.
// maxSize of zero or less falls back to utils.DefaultMaxResumeSize.
func (fp *FileProcessor) ValidateAndReadFiles(maxSize int64, filenames ...string) ([]string, error) {
	if maxSize <= 0 {
		maxSize = utils.DefaultMaxResumeSize
	}
	contents := make([]string, len(filenames))

	for i, filename := range filenames {
		if err := utils.ValidateInputFile(filename, maxSize); err != nil {
			code := errors.ErrCodeFileNotReadable
			if info, statErr := os.Stat(filename); statErr == nil && !info.IsDir() && info.Size() > maxSize {
				code = errors.ErrCodeFileTooLarge
			} else if os.IsNotExist(statErr) {
				code = errors.ErrCodeFileNotFound
			}
			return nil, errors.NewValidationError(code,
				fmt.Sprintf("Invalid file %s", filename), err)
		}

		// Warn about files that are neither text nor PDF
		if !utils.IsTextFile(filename) && !utils.IsPDFFile(filename) {
			fp.logger.Warn("File may not be a text or PDF file", "filename", filename)
		}

		text, err := fp.ReadResume(filename)
		if err != nil {
			return nil, err // Error already wrapped by ReadResume
		}

		contents[i] = text
	}

	return contents, nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
