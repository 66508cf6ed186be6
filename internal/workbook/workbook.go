// Package workbook reads and writes single-sheet xlsx files as contracts.Grid.
package workbook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/volscan/internal/contracts"
)

// Read returns the first sheet of the workbook at path as formatted cell text
func Read(path string) (contracts.Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	grid := make(contracts.Grid, len(rows))
	for i, row := range rows {
		grid[i] = row
	}
	return grid, nil
}

// Exists reports whether path names an existing file
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Write saves grid as a new single-sheet workbook. The file is staged next to path
// and renamed into place so readers never observe a half-written workbook.
func Write(path string, grid contracts.Grid) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for r, row := range grid {
		for c, value := range row {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("cell (%d,%d): %w", r, c, err)
			}
			if err := f.SetCellValue(sheet, cell, cellValue(value)); err != nil {
				return fmt.Errorf("set %s: %w", cell, err)
			}
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	// excelize validates the extension, so the staging name keeps .xlsx
	staging := filepath.Join(dir, "~staging-"+filepath.Base(path))
	if err := f.SaveAs(staging); err != nil {
		return fmt.Errorf("save staging workbook: %w", err)
	}
	if err := os.Rename(staging, path); err != nil {
		os.Remove(staging)
		return fmt.Errorf("replace workbook %s: %w", path, err)
	}
	return nil
}

// cellValue writes plain numbers as numbers so Excel does not flag them as text
func cellValue(value string) interface{} {
	trimmed := strings.TrimSpace(value)
	if trimmed != value || strings.ContainsAny(trimmed, "eE") {
		return value
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		if strconv.FormatFloat(f, 'f', -1, 64) == trimmed {
			return f
		}
	}
	return value
}
