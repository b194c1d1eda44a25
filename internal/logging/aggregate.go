package logging

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"
)

// LogEntry is one parsed line of a stagewatch log.
type LogEntry struct {
	Timestamp time.Time      `json:"time"`
	Level     string         `json:"level"`
	Message   string         `json:"msg"`
	RunID     string         `json:"run_id,omitempty"`
	Step      string         `json:"step,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// LogFilter selects log entries. Zero-valued fields match everything and
// set fields are combined with AND.
type LogFilter struct {
	// Level keeps entries at or above this level (DEBUG < INFO < WARN < ERROR).
	Level string
	// Since keeps entries at or after this time.
	Since time.Time
	// Until keeps entries at or before this time.
	Until time.Time
	// RunID keeps entries from one run.
	RunID string
	// Step keeps entries tagged with this step name.
	Step string
	// MessageContains keeps entries whose message contains this substring.
	MessageContains string
	// Pattern keeps entries whose message or attribute values match.
	Pattern *regexp.Regexp
}

var levelOrder = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ReadEntries parses every JSON line in the log file at path, sorted by
// timestamp. Lines that are not valid JSON are skipped.
func ReadEntries(path string) ([]LogEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no log file found: %w", err)
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	entries, err := ParseEntries(file)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(entries, func(a, b LogEntry) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return entries, nil
}

// ParseEntries parses JSON log lines from r in input order.
func ParseEntries(r io.Reader) ([]LogEntry, error) {
	var entries []LogEntry
	scanner := bufio.NewScanner(r)

	const maxScanTokenSize = 1024 * 1024
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanTokenSize)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := ParseEntry(line)
		if err != nil {
			// Partial recovery from corrupted logs.
			continue
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file: %w", err)
	}
	return entries, nil
}

// ParseEntry parses a single JSON log line.
func ParseEntry(line string) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return LogEntry{}, fmt.Errorf("invalid JSON: %w", err)
	}

	entry := LogEntry{Attrs: make(map[string]any)}

	if ts, ok := raw["time"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			entry.Timestamp = t
		}
	}
	entry.Level, _ = raw["level"].(string)
	entry.Message, _ = raw["msg"].(string)
	entry.RunID, _ = raw["run_id"].(string)

	for k, v := range raw {
		switch k {
		case "time", "level", "msg", "run_id":
		case "step":
			// Progress entries log the step index under the same key as the
			// step-name tag; only the name is context.
			if name, ok := v.(string); ok {
				entry.Step = name
			} else {
				entry.Attrs[k] = v
			}
		default:
			entry.Attrs[k] = v
		}
	}

	return entry, nil
}

// FilterEntries returns the entries that match filter.
func FilterEntries(entries []LogEntry, filter LogFilter) []LogEntry {
	var filtered []LogEntry
	for _, entry := range entries {
		if filter.Matches(entry) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// Matches reports whether entry passes every criterion in f.
func (f LogFilter) Matches(entry LogEntry) bool {
	if f.Level != "" {
		want, okWant := levelOrder[strings.ToUpper(f.Level)]
		got, okGot := levelOrder[entry.Level]
		if okWant && okGot && got < want {
			return false
		}
	}

	if !f.Since.IsZero() && entry.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && entry.Timestamp.After(f.Until) {
		return false
	}

	if f.RunID != "" && entry.RunID != f.RunID {
		return false
	}
	if f.Step != "" && entry.Step != f.Step {
		return false
	}

	if f.MessageContains != "" && !strings.Contains(entry.Message, f.MessageContains) {
		return false
	}

	if f.Pattern != nil {
		text := entry.Message
		for _, v := range entry.Attrs {
			text += " " + fmt.Sprint(v)
		}
		if !f.Pattern.MatchString(text) {
			return false
		}
	}

	return true
}

// RunIDs returns the distinct run IDs in entries, in order of first appearance.
func RunIDs(entries []LogEntry) []string {
	var ids []string
	for _, entry := range entries {
		if entry.RunID != "" && !slices.Contains(ids, entry.RunID) {
			ids = append(ids, entry.RunID)
		}
	}
	return ids
}

// ExportEntries writes entries to w as "json", "text" or "csv".
func ExportEntries(w io.Writer, entries []LogEntry, format string) error {
	switch strings.ToLower(format) {
	case "json":
		return exportJSON(w, entries)
	case "text":
		return exportText(w, entries)
	case "csv":
		return exportCSV(w, entries)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: json, text, csv)", format)
	}
}

func exportJSON(w io.Writer, entries []LogEntry) error {
	if entries == nil {
		entries = []LogEntry{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}

// FormatText renders an entry as a single human-readable line:
// [TIMESTAMP] LEVEL - MESSAGE (context) {attrs}
func FormatText(entry LogEntry) string {
	parts := []string{
		fmt.Sprintf("[%s]", entry.Timestamp.Format("2006-01-02 15:04:05.000")),
		entry.Level,
		"-",
		entry.Message,
	}

	var context []string
	if entry.RunID != "" {
		context = append(context, "run="+entry.RunID)
	}
	if entry.Step != "" {
		context = append(context, "step="+entry.Step)
	}
	if len(context) > 0 {
		parts = append(parts, fmt.Sprintf("(%s)", strings.Join(context, ", ")))
	}

	if len(entry.Attrs) > 0 {
		// json.Marshal sorts map keys, so the output is stable.
		attrs, _ := json.Marshal(entry.Attrs)
		parts = append(parts, string(attrs))
	}

	return strings.Join(parts, " ")
}

func exportText(w io.Writer, entries []LogEntry) error {
	for _, entry := range entries {
		if _, err := fmt.Fprintln(w, FormatText(entry)); err != nil {
			return fmt.Errorf("failed to write text entry: %w", err)
		}
	}
	return nil
}

func exportCSV(w io.Writer, entries []LogEntry) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"timestamp", "level", "message", "run_id", "step", "attrs"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, entry := range entries {
		attrs := ""
		if len(entry.Attrs) > 0 {
			if b, err := json.Marshal(entry.Attrs); err == nil {
				attrs = string(b)
			}
		}

		record := []string{
			entry.Timestamp.Format(time.RFC3339Nano),
			entry.Level,
			entry.Message,
			entry.RunID,
			entry.Step,
			attrs,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
