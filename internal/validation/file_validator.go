package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "cgmdose/internal/errors"
	"cgmdose/internal/files"
)

// FileValidator checks the input and output locations of a run before any
// file is processed.
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

// ValidateInputDirectory validates that dir exists, is a directory and holds
// at least one CSV or XLSX export. It returns the number of exports found.
func (v *FileValidator) ValidateInputDirectory(dir string) (int, error) {
	if dir == "" {
		return 0, apperrors.NewAppValidationError("input directory is required")
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist",
			slog.String("directory", dir))
		return 0, apperrors.NewNotFoundError(fmt.Sprintf("input directory %s", dir))
	}
	if err != nil {
		return 0, apperrors.NewAppError(apperrors.ErrTypeValidation,
			fmt.Sprintf("failed to stat directory %s", dir), err)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory",
			slog.String("path", dir))
		return 0, apperrors.NewAppValidationError(fmt.Sprintf("%s is not a directory", dir))
	}

	exports, err := files.NewDiscovery("").FindExports(dir)
	if err != nil {
		return 0, apperrors.NewAppError(apperrors.ErrTypeValidation, "failed to list input directory", err)
	}
	if len(exports) == 0 {
		v.logger.Warn("No export files found",
			slog.String("directory", dir))
		return 0, apperrors.NewNotFoundError(fmt.Sprintf("CSV or XLSX exports in %s", dir))
	}

	v.logger.Info("Input directory validated",
		slog.String("directory", dir),
		slog.Int("files_found", len(exports)))
	return len(exports), nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if dir == "" {
		return apperrors.NewAppValidationError("output directory is required")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewAppError(apperrors.ErrTypeValidation,
			fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewAppError(apperrors.ErrTypeValidation,
			fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateExportFile checks that path is a readable CSV or XLSX file and not
// an Excel lock file.
func (v *FileValidator) ValidateExportFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return apperrors.NewNotFoundError(fmt.Sprintf("file %s", path))
	}
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrTypeValidation,
			fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		return apperrors.NewAppValidationError(fmt.Sprintf("file %s is a temporary Excel file", path))
	}
	if !files.IsExport(base) {
		return apperrors.NewAppValidationError(
			fmt.Sprintf("file %s is not a CSV or XLSX export (extension: %s)", path, filepath.Ext(base)))
	}

	file, err := os.Open(path)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrTypeValidation,
			fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}
