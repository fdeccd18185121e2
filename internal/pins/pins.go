// Package pins derives and reads the parcel identifier list.
package pins

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"strings"

	"github.com/ppiankov/taxscroll/internal/model"
)

// FromRecords returns the unique, non-empty pin values of the records, sorted
func FromRecords(records []map[string]any) []string {
	seen := make(map[string]bool, len(records))
	var pins []string

	for _, r := range records {
		pin, _ := r[model.FieldPIN].(string)
		pin = strings.TrimSpace(pin)
		if pin == "" || seen[pin] {
			continue
		}
		seen[pin] = true
		pins = append(pins, pin)
	}

	slices.Sort(pins)
	return pins
}

// FromRecordsFile reads a record artifact and returns its sorted unique pins
func FromRecordsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}

	return FromRecords(records), nil
}

// Write stores one identifier per line, each line newline-terminated
func Write(path string, pins []string) error {
	var b strings.Builder
	for _, pin := range pins {
		b.WriteString(pin)
		b.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write identifiers: %w", err)
	}
	return nil
}

// Options selects which identifiers of a list to retrieve
type Options struct {
	MaxPINs    int             // <= 0 means no limit
	Shuffle    bool            // Randomize order before the other options apply
	StopBefore string          // Keep only identifiers listed before this one
	Rand       func(n int) int // Shuffle source; defaults to math/rand/v2
}

// Read loads an identifier list. Blank lines and lines starting with # are skipped
// and duplicates are dropped.
func Read(path string, opts Options) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var pins []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			pins = append(pins, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return Select(pins, opts)
}

// Select applies the options to a list: shuffle, then stop-before, then the limit
func Select(pins []string, opts Options) ([]string, error) {
	pins = slices.Clone(pins)

	if opts.Shuffle {
		intn := rand.IntN
		if opts.Rand != nil {
			intn = opts.Rand
		}
		for i := len(pins) - 1; i > 0; i-- {
			j := intn(i + 1)
			pins[i], pins[j] = pins[j], pins[i]
		}
	}

	if opts.StopBefore != "" {
		i := slices.Index(pins, opts.StopBefore)
		if i < 0 {
			return nil, fmt.Errorf("stop-before identifier %s not in list", opts.StopBefore)
		}
		pins = pins[:i]
	}

	if opts.MaxPINs > 0 && len(pins) > opts.MaxPINs {
		pins = pins[:opts.MaxPINs]
	}

	return pins, nil
}
