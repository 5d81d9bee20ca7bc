package logger

import (
	"bufio"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
)

type LogEntry struct {
	Id        string                 `json:"id"`
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Module    string                 `json:"module,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// LogQuery filters entries read back from a JSON log file.
type LogQuery struct {
	Level   string
	ErrorID string
	Limit   int
	Offset  int
}

// ReadLogs scans the JSON log file newest first. It reads the whole file, which is
// fine for the rotated 10 MB segments lumberjack keeps.
func ReadLogs(filePath string, q LogQuery) ([]LogEntry, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []LogEntry{}, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		var entry LogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if q.Level != "" && entry.Level != q.Level {
			continue
		}
		if q.ErrorID != "" && fmt.Sprint(entry.Details["error_id"]) != q.ErrorID {
			continue
		}
		if entry.Id == "" {
			entry.Id = fmt.Sprintf("%x", md5.Sum(line))
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan log file: %w", err)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	if q.Offset >= len(entries) {
		return []LogEntry{}, nil
	}
	end := q.Offset + q.Limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[q.Offset:end], nil
}
