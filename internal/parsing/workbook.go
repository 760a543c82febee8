package parsing

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
)

// sheetSkipKeywords marks workbook sheets that never hold bid data.
var sheetSkipKeywords = []string{"dashboard", "terms", "condition", "sheet2", "alternative"}

// ParseFile opens an RFQ comparison workbook, selects the sheet holding the
// bid table and runs detection and extraction on it. An empty sheetName
// asks for auto-selection: skip-listed sheets are ignored and the sheet
// with the most rows wins.
func ParseFile(path, sheetName string, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName, err = pickDataSheet(f)
		if err != nil {
			return nil, err
		}
	}

	grid, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}

	result, err := DetectAndExtract(grid, sheetName)
	if err != nil {
		return nil, err
	}

	logger.Info("workbook parsed",
		slog.String("path", path),
		slog.String("sheet", sheetName),
		slog.String("format", string(result.Variant)),
		slog.Int("items", len(result.Items)),
		slog.Int("bids", len(result.Bids)),
		slog.Int("bidders", len(result.Bidders)))

	return result, nil
}

// ListSheets returns the workbook's sheet names in workbook order.
func ListSheets(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// pickDataSheet chooses the sheet most likely to hold the bid table:
// the non-skip-listed sheet with the most rows, falling back to the first
// sheet when everything is skip-listed.
func pickDataSheet(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}

	best := ""
	bestRows := -1
	for _, name := range sheets {
		if skipSheet(name) {
			continue
		}
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		if len(rows) > bestRows {
			bestRows = len(rows)
			best = name
		}
	}
	if best == "" {
		best = sheets[0]
	}
	return best, nil
}

func skipSheet(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range sheetSkipKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
