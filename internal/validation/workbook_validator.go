// Package validation checks candidate workbook files before parsing or
// persisting anything.
package validation

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// xlsx files are zip archives; the magic is the zip local-file signature.
var zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// WorkbookValidator validates uploaded and batch-discovered workbook files.
type WorkbookValidator struct {
	logger *slog.Logger
}

// NewWorkbookValidator creates a workbook validator.
func NewWorkbookValidator(logger *slog.Logger) *WorkbookValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookValidator{logger: logger}
}

// ValidateWorkbook checks that path is a readable, plausible .xlsx workbook.
// It rejects directories, wrong extensions, Excel lock files and files whose
// leading bytes are not a zip archive.
func (v *WorkbookValidator) ValidateWorkbook(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a workbook", path)
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		return fmt.Errorf("%s is an Excel lock file", path)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".xlsx" {
		return fmt.Errorf("%s is not an .xlsx workbook (extension %s)", path, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, len(zipMagic))
	if _, err := f.Read(head); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if !bytes.Equal(head, zipMagic) {
		return fmt.Errorf("%s does not look like a workbook (bad file signature)", path)
	}

	v.logger.Debug("workbook validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateSize rejects workbooks above the configured upload ceiling.
func (v *WorkbookValidator) ValidateSize(path string, maxBytes int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return fmt.Errorf("workbook %s is %d bytes, above the %d byte limit",
			filepath.Base(path), info.Size(), maxBytes)
	}
	return nil
}
