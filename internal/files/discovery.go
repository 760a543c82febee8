// Package files finds RFQ workbooks on disk for batch ingestion.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a discovered workbook.
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// FindWorkbooks finds the .xlsx files directly under dir, skipping Excel
// lock files (~$...), sorted oldest first so batch loads replay history in
// order.
func FindWorkbooks(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".xlsx") {
			continue
		}
		if strings.HasPrefix(name, "~$") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(dir, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// LatestWorkbook returns the most recently modified workbook in the set.
func LatestWorkbook(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}
	latest := files[0]
	for _, f := range files[1:] {
		if f.ModTime.After(latest.ModTime) {
			latest = f
		}
	}
	return latest, true
}
