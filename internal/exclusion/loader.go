package exclusion

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/wonny/volscan/internal/workbook"
	"github.com/wonny/volscan/pkg/config"
	"github.com/wonny/volscan/pkg/logger"
)

// Loader reads the exclusion sources from disk
// ⭐ SSOT: 제외 목록 파일 읽기는 여기서만
type Loader struct {
	list1     string
	list2     string
	fragments string
	logger    *logger.Logger
}

// NewLoader creates a loader for the configured exclusion files
func NewLoader(cfg config.ScannerConfig, log *logger.Logger) *Loader {
	return &Loader{
		list1:     cfg.ExclusionList1,
		list2:     cfg.ExclusionList2,
		fragments: cfg.FragmentWorkbook,
		logger:    log.Component("exclusion"),
	}
}

// Load builds a Resolver. Unreadable sources degrade to empty sets with a warning;
// exclusion never blocks a channel run.
func (l *Loader) Load(ctx context.Context) *Resolver {
	if ctx.Err() != nil {
		return Empty()
	}

	fragments := l.warnOnError("fragment workbook", l.fragments, ReadFragments)
	list1 := l.warnOnError("exclusion list 1", l.list1, ReadSymbols)
	list2 := l.warnOnError("exclusion list 2", l.list2, ReadSymbols)

	resolver := NewResolver(fragments, list1, list2)
	f, s1, s2 := resolver.Sizes()
	l.logger.WithFields(map[string]interface{}{
		"fragments": f,
		"list1":     s1,
		"list2":     s2,
	}).Debug("Exclusion sources loaded")

	return resolver
}

func (l *Loader) warnOnError(source, path string, read func(string) ([]string, error)) []string {
	if path == "" {
		return nil
	}
	values, err := read(path)
	if IsMissing(err) {
		l.logger.WithFields(map[string]interface{}{
			"source": source,
			"path":   path,
		}).Warn("Exclusion source not found, using empty list")
		return nil
	}
	if err != nil {
		l.logger.WithFields(map[string]interface{}{
			"source": source,
			"path":   path,
		}).WithError(err).Warn("Exclusion source unavailable, using empty list")
		return nil
	}
	return values
}

// ReadSymbols reads a line-delimited symbol list; blank lines are skipped
func ReadSymbols(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open symbol list: %w", err)
	}
	defer file.Close()

	var symbols []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if line != "" {
			symbols = append(symbols, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read symbol list: %w", err)
	}
	return symbols, nil
}

// ReadFragments reads the first column of the fragment workbook below its header row
func ReadFragments(path string) ([]string, error) {
	ok, err := workbook.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("fragment workbook: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("fragment workbook %s: %w", path, fs.ErrNotExist)
	}
	grid, err := workbook.Read(path)
	if err != nil {
		return nil, fmt.Errorf("fragment workbook: %w", err)
	}

	var fragments []string
	for _, cell := range grid.Column(0, 1) {
		cell = strings.ToLower(strings.TrimSpace(cell))
		if cell != "" {
			fragments = append(fragments, cell)
		}
	}
	return fragments, nil
}

// IsMissing reports whether err came from an absent source file
func IsMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
