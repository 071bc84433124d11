// Package validation checks input and output paths before a run touches
// them, so a bad path fails fast instead of after a long load.
package validation

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "turnoutcli/internal/errors"
)

// FileValidator checks the files a run reads and writes
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputFile checks that path is a readable, non-empty regular file
// in a supported format. Legacy .xls workbooks and Excel lock files
// (~$name.xlsx) are rejected; any other extension is read as delimited
// text.
func (v *FileValidator) ValidateInputFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Input file does not exist",
			slog.String("file", path))
		return apperrors.NewIOError("input file does not exist", err).WithContext("path", path)
	}
	if err != nil {
		return apperrors.NewIOError("failed to stat input file", err).WithContext("path", path)
	}
	if info.IsDir() {
		v.logger.Error("Input path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewIOError("input path is a directory", nil).WithContext("path", path)
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		return apperrors.NewConfigError("input file is an Excel lock file", nil).WithContext("path", path)
	}
	if strings.EqualFold(filepath.Ext(path), ".xls") {
		return apperrors.NewConfigError("legacy .xls workbooks are not supported, save as .xlsx", nil).
			WithContext("path", path)
	}

	if info.Size() == 0 {
		return apperrors.NewSchemaError("input file is empty").WithContext("path", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("Input file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewIOError("input file is not readable", err).WithContext("path", path)
	}
	file.Close()

	v.logger.Debug("Input file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputFile ensures the directory for path exists and is
// writable. The file itself is not created.
func (v *FileValidator) ValidateOutputFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewIOError("failed to create output directory", err).WithContext("path", dir)
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return apperrors.NewIOError("output path is a directory", nil).WithContext("path", path)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewIOError("output directory is not writable", err).WithContext("path", dir)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}
