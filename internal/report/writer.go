package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wonny/volscan/internal/contracts"
)

// Writer persists the per-channel exclusion report
// ⭐ SSOT: 제외 리포트 파일 형식은 여기서만
type Writer struct {
	dir    string
	create func(path string) (io.WriteCloser, error)
}

// NewWriter creates a report writer rooted at dir
func NewWriter(dir string) *Writer {
	return &Writer{
		dir: dir,
		create: func(path string) (io.WriteCloser, error) {
			return os.Create(path)
		},
	}
}

// Path returns {dir}/YYYYMMDD/excluded_symbols_column_N.txt
func (w *Writer) Path(ch contracts.Channel, day time.Time) string {
	return filepath.Join(w.dir, day.Format("20060102"), fmt.Sprintf("excluded_symbols_column_%d.txt", ch.Number()))
}

// Write overwrites the channel's report for day with every rejection
func (w *Writer) Write(ch contracts.Channel, day time.Time, rejected []contracts.Rejection) (string, error) {
	path := w.Path(ch, day)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	file, err := w.create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}

	out := bufio.NewWriter(file)
	fmt.Fprintf(out, "Exclusion report for column %d\n", ch.Number())
	fmt.Fprintln(out, strings.Repeat("=", 50))
	for _, r := range rejected {
		fmt.Fprintf(out, "Symbol: %s, Reason: %s\n", r.Symbol, r.Reason.Detail)
	}

	// Close 오류도 리포트 유실이므로 반환
	if err := errors.Join(out.Flush(), file.Close()); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
