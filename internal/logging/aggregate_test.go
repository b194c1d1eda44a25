package logging

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestReadEntries(t *testing.T) {
	t.Run("parses entries written by the logger", func(t *testing.T) {
		dir := t.TempDir()

		logger, err := NewLogger(dir, LevelDebug)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}

		logger.WithRun("run-1").WithStep("Data Validation").Info("step advanced", "index", 1)
		logger.WithRun("run-1").Debug("tool call", "tool", "get_stock_data")
		logger.WithRun("run-2").Error("input ended", "code", 500)
		_ = logger.Close()

		entries, err := ReadEntries(filepath.Join(dir, LogFileName))
		if err != nil {
			t.Fatalf("ReadEntries failed: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}

		first := entries[0]
		if first.Message != "step advanced" {
			t.Errorf("Message = %q, want %q", first.Message, "step advanced")
		}
		if first.Level != "INFO" {
			t.Errorf("Level = %q, want INFO", first.Level)
		}
		if first.RunID != "run-1" {
			t.Errorf("RunID = %q, want run-1", first.RunID)
		}
		if first.Step != "Data Validation" {
			t.Errorf("Step = %q, want %q", first.Step, "Data Validation")
		}
		// JSON numbers decode as float64
		if first.Attrs["index"] != float64(1) {
			t.Errorf("Attrs[index] = %v, want 1", first.Attrs["index"])
		}
		if entries[1].Attrs["tool"] != "get_stock_data" {
			t.Errorf("Attrs[tool] = %v", entries[1].Attrs["tool"])
		}
		if entries[2].Attrs["code"] != float64(500) {
			t.Errorf("Attrs[code] = %v, want 500", entries[2].Attrs["code"])
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadEntries(filepath.Join(t.TempDir(), LogFileName))
		if err == nil || !strings.Contains(err.Error(), "no log file found") {
			t.Errorf("expected 'no log file found' error, got: %v", err)
		}
	})
}

func TestParseEntries_SkipsInvalidLines(t *testing.T) {
	input := strings.Join([]string{
		`{"time":"2026-01-02T10:00:00Z","level":"INFO","msg":"one"}`,
		`not json`,
		``,
		`{"time":"2026-01-02T10:00:01Z","level":"WARN","msg":"two"}`,
	}, "\n")

	entries, err := ParseEntries(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].Message != "two" {
		t.Errorf("entries[1].Message = %q, want two", entries[1].Message)
	}
}

func TestParseEntry(t *testing.T) {
	entry, err := ParseEntry(`{"time":"2026-01-02T10:00:00.5Z","level":"DEBUG","msg":"m","run_id":"r","step":"s","extra":true}`)
	if err != nil {
		t.Fatalf("ParseEntry failed: %v", err)
	}
	want := time.Date(2026, 1, 2, 10, 0, 0, 500_000_000, time.UTC)
	if !entry.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", entry.Timestamp, want)
	}
	if entry.RunID != "r" || entry.Step != "s" {
		t.Errorf("RunID/Step = %q/%q", entry.RunID, entry.Step)
	}
	if entry.Attrs["extra"] != true {
		t.Errorf("Attrs[extra] = %v", entry.Attrs["extra"])
	}

	indexed, err := ParseEntry(`{"level":"INFO","msg":"step advanced","step":3}`)
	if err != nil {
		t.Fatalf("ParseEntry failed: %v", err)
	}
	if indexed.Step != "" || indexed.Attrs["step"] != float64(3) {
		t.Errorf("numeric step should stay in attrs, got Step=%q Attrs=%v", indexed.Step, indexed.Attrs)
	}

	if _, err := ParseEntry("{broken"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func testEntries() []LogEntry {
	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	return []LogEntry{
		{Timestamp: base, Level: LevelDebug, Message: "tool call", RunID: "a", Attrs: map[string]any{"tool": "get_news"}},
		{Timestamp: base.Add(time.Minute), Level: LevelInfo, Message: "step advanced", RunID: "a", Step: "Market Analyst Analysis"},
		{Timestamp: base.Add(2 * time.Minute), Level: LevelWarn, Message: "ignoring step regression", RunID: "b"},
		{Timestamp: base.Add(3 * time.Minute), Level: LevelError, Message: "display failed", RunID: "b"},
	}
}

func TestFilterEntries(t *testing.T) {
	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter LogFilter
		want   []string
	}{
		{"empty filter", LogFilter{}, []string{"tool call", "step advanced", "ignoring step regression", "display failed"}},
		{"min level warn", LogFilter{Level: "warn"}, []string{"ignoring step regression", "display failed"}},
		{"since", LogFilter{Since: base.Add(2 * time.Minute)}, []string{"ignoring step regression", "display failed"}},
		{"until", LogFilter{Until: base.Add(time.Minute)}, []string{"tool call", "step advanced"}},
		{"run", LogFilter{RunID: "a"}, []string{"tool call", "step advanced"}},
		{"step", LogFilter{Step: "Market Analyst Analysis"}, []string{"step advanced"}},
		{"message contains", LogFilter{MessageContains: "step"}, []string{"step advanced", "ignoring step regression"}},
		{"pattern matches attrs", LogFilter{Pattern: regexp.MustCompile("news")}, []string{"tool call"}},
		{"combined", LogFilter{RunID: "b", Level: "error"}, []string{"display failed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterEntries(testEntries(), tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.want))
			}
			for i, entry := range got {
				if entry.Message != tt.want[i] {
					t.Errorf("entry %d = %q, want %q", i, entry.Message, tt.want[i])
				}
			}
		})
	}
}

func TestRunIDs(t *testing.T) {
	ids := RunIDs(testEntries())
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("RunIDs = %v, want [a b]", ids)
	}
}

func TestExportEntries(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := ExportEntries(&buf, testEntries(), "json"); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		var decoded []LogEntry
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 4 || decoded[1].Step != "Market Analyst Analysis" {
			t.Errorf("unexpected decoded entries: %+v", decoded)
		}
	})

	t.Run("json with no entries", func(t *testing.T) {
		var buf bytes.Buffer
		if err := ExportEntries(&buf, nil, "JSON"); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if strings.TrimSpace(buf.String()) != "[]" {
			t.Errorf("got %q, want []", buf.String())
		}
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		if err := ExportEntries(&buf, testEntries(), "text"); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 4 {
			t.Fatalf("got %d lines, want 4", len(lines))
		}
		want := `[2026-01-02 10:00:00.000] DEBUG - tool call (run=a) {"tool":"get_news"}`
		if lines[0] != want {
			t.Errorf("line 0 = %q, want %q", lines[0], want)
		}
		if !strings.Contains(lines[1], "(run=a, step=Market Analyst Analysis)") {
			t.Errorf("line 1 missing context: %q", lines[1])
		}
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		if err := ExportEntries(&buf, testEntries(), "csv"); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		records, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatalf("invalid CSV: %v", err)
		}
		if len(records) != 5 {
			t.Fatalf("got %d records, want header + 4", len(records))
		}
		if records[0][3] != "run_id" || records[2][4] != "Market Analyst Analysis" {
			t.Errorf("unexpected records: %v", records[:3])
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		err := ExportEntries(&bytes.Buffer{}, nil, "xml")
		if err == nil || !strings.Contains(err.Error(), "unsupported export format") {
			t.Errorf("expected unsupported format error, got %v", err)
		}
	})
}
