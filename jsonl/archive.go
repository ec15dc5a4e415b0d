// Package jsonl reads and writes history records as JSON Lines files, for
// offline export and as a standalone history source.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/codereview"
)

// Compile-time interface verification.
var _ codereview.HistoryArchive = (*Archive)(nil)

// maxLineSize is the maximum size for a single JSONL line (4MB).
// Records carry both the original and optimized code.
const maxLineSize = 4 * 1024 * 1024

// Archive loads and saves HistoryRecord lists as JSONL.
type Archive struct{}

// NewArchive creates a new Archive.
func NewArchive() *Archive {
	return &Archive{}
}

// Load reads every record in the file at path, in file order. Blank lines are
// skipped.
func (a *Archive) Load(path string) ([]codereview.HistoryRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records := []codereview.HistoryRecord{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var r codereview.HistoryRecord
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		records = append(records, r)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// Save writes records to path, replacing any existing file and creating
// parent directories if needed.
func (a *Archive) Save(path string, records []codereview.HistoryRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}
