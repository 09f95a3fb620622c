// Package pipeline reads and writes log rows and filled points as JSONL,
// one JSON object per line. JSONL is the export/import format and the
// format liftlog writes when stdout is a pipe.
package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/derickschaefer/liftlog/internal/model"
)

// ReadRows reads LogRow records from r. Blank lines and lines starting with
// "//" are skipped. Every record needs a valid "date"; errors carry the line
// number.
func ReadRows(r io.Reader) ([]model.LogRow, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	rows := []model.LogRow{}
	lineNum := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineNum++
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		var row model.LogRow
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, fmt.Errorf("line %d: invalid record: %w", lineNum, err)
		}
		if row.Date.IsZero() {
			return nil, fmt.Errorf("line %d: missing date", lineNum)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return rows, nil
}

// WriteRows writes rows as JSONL to w.
func WriteRows(w io.Writer, rows []model.LogRow) error {
	enc := json.NewEncoder(w)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("writing %s: %w", r.Date, err)
		}
	}
	return nil
}

// WritePoints writes filled points as JSONL to w. Absent values are null.
func WritePoints(w io.Writer, points []model.FilledPoint) error {
	enc := json.NewEncoder(w)
	for _, p := range points {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("writing %s: %w", p.Date, err)
		}
	}
	return nil
}

// IsTTY returns true if stdout is a terminal (not a pipe).
func IsTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
