// Package validation checks command line inputs and output locations before
// a batch starts, so that a bad path fails fast with a typed error.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/ingest"
)

// FileValidator validates input files and output directories.
type FileValidator struct {
	logger  *slog.Logger
	maxSize int64
}

// NewFileValidator creates a validator. maxSize caps input files in bytes;
// zero disables the cap.
func NewFileValidator(logger *slog.Logger, maxSize int64) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger:  logger.With(slog.String("component", "validation")),
		maxSize: maxSize,
	}
}

// ValidateInputFile checks that path is a readable, non-empty regular file
// in a supported format and returns that format.
func (v *FileValidator) ValidateInputFile(path string) (ingest.Format, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Input file does not exist",
			slog.String("file", path))
		return "", apperrors.NewNotFoundError(fmt.Sprintf("input file %s", path))
	}
	if err != nil {
		v.logger.Error("Failed to stat input file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return "", apperrors.NewStorageError(fmt.Sprintf("failed to stat %s", path), err)
	}
	if info.IsDir() {
		return "", apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	format, err := ingest.DetectFormat(path)
	if err != nil {
		return "", err
	}
	if info.Size() == 0 {
		return "", apperrors.NewAppValidationError(fmt.Sprintf("%s is empty", path))
	}
	if v.maxSize > 0 && info.Size() > v.maxSize {
		return "", apperrors.NewAppValidationError(
			fmt.Sprintf("%s is %d bytes, larger than the %d byte limit", path, info.Size(), v.maxSize))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("Input file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return "", apperrors.NewStorageError(fmt.Sprintf("%s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("Input file validated",
		slog.String("file", path),
		slog.String("format", string(format)),
		slog.Int64("size", info.Size()))
	return format, nil
}

// ValidateOutputDirectory creates dir if needed and verifies it is writable.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	probe, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)

	v.logger.Debug("Output directory validated",
		slog.String("directory", filepath.Clean(dir)))
	return nil
}
