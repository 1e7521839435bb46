package logger

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LogEntry represents a parsed log entry
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Category  string                 `json:"category"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LogReader reads category log files written by MultiLogger
type LogReader struct {
	logsDir      string
	pollInterval time.Duration
}

// NewLogReader creates a new log reader
func NewLogReader(logsDir string) *LogReader {
	return &LogReader{
		logsDir:      logsDir,
		pollInterval: 250 * time.Millisecond,
	}
}

// GetLogPath returns the path to a category log file for a specific date
func (lr *LogReader) GetLogPath(category LogCategory, date time.Time) string {
	filename := fmt.Sprintf("%s-%s.log", category, date.Format(dateLayout))
	return filepath.Join(lr.logsDir, filename)
}

// ReadLogs returns the last limit entries of a category log file. A
// missing file yields no entries.
func (lr *LogReader) ReadLogs(category LogCategory, date time.Time, limit int) ([]LogEntry, error) {
	file, err := os.Open(lr.GetLogPath(category, date))
	if err != nil {
		if os.IsNotExist(err) {
			return []LogEntry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}

	entries := make([]LogEntry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, parseLine(category, line))
	}
	return entries, nil
}

// SearchLogs returns entries whose message, level or fields contain query
func (lr *LogReader) SearchLogs(category LogCategory, date time.Time, query string, limit int) ([]LogEntry, error) {
	entries, err := lr.ReadLogs(category, date, 0)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var filtered []LogEntry
	for _, entry := range entries {
		if entry.matches(query) {
			filtered = append(filtered, entry)
		}
	}

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	return filtered, nil
}

// TailLogs sends entries appended to today's category file until ctx is
// done. Existing content is skipped.
func (lr *LogReader) TailLogs(ctx context.Context, category LogCategory, entries chan<- LogEntry) error {
	path := lr.GetLogPath(category, time.Now())

	var file *os.File
	for file == nil {
		f, err := os.Open(path)
		switch {
		case err == nil:
			file = f
		case os.IsNotExist(err):
			if err := lr.wait(ctx); err != nil {
				return nil
			}
		default:
			return err
		}
	}
	defer file.Close()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return err
	}

	reader := bufio.NewReader(file)
	var partial strings.Builder
	for {
		chunk, err := reader.ReadString('\n')
		partial.WriteString(chunk)
		if errors.Is(err, io.EOF) {
			if err := lr.wait(ctx); err != nil {
				return nil
			}
			continue
		}
		if err != nil {
			return err
		}

		line := strings.TrimSpace(partial.String())
		partial.Reset()
		if line == "" {
			continue
		}
		select {
		case entries <- parseLine(category, line):
		case <-ctx.Done():
			return nil
		}
	}
}

func (lr *LogReader) wait(ctx context.Context) error {
	select {
	case <-time.After(lr.pollInterval):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// parseLine decodes one JSON log line. Keys other than the standard ones
// are collected into Fields; non-JSON lines become plain messages.
func parseLine(category LogCategory, line string) LogEntry {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return LogEntry{
			Level:    "info",
			Message:  line,
			Category: string(category),
		}
	}

	entry := LogEntry{Category: string(category)}
	for key, value := range raw {
		switch key {
		case "timestamp":
			entry.Timestamp = fmt.Sprint(value)
		case "level":
			entry.Level = fmt.Sprint(value)
		case "message":
			entry.Message = fmt.Sprint(value)
		default:
			if entry.Fields == nil {
				entry.Fields = make(map[string]interface{})
			}
			entry.Fields[key] = value
		}
	}
	return entry
}

func (e LogEntry) matches(query string) bool {
	if strings.Contains(strings.ToLower(e.Message), query) ||
		strings.Contains(strings.ToLower(e.Level), query) {
		return true
	}
	for _, v := range e.Fields {
		if strings.Contains(strings.ToLower(fmt.Sprint(v)), query) {
			return true
		}
	}
	return false
}
