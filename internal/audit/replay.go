package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// TimestampFormat is the layout used in audit entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// ReplayFilter holds filtering criteria for replaying an entity's history.
type ReplayFilter struct {
	UID  string
	From time.Time // zero value = no lower bound
	To   time.Time // zero value = no upper bound
}

// ReplaySummary aggregates the replayed entries for one entity.
type ReplaySummary struct {
	Total          int    `json:"total"`
	SetCount       int    `json:"set_count"`
	DeleteCount    int    `json:"delete_count"`
	InsertCount    int    `json:"insert_count"`
	AppendCount    int    `json:"append_count"`
	LastVersion    int    `json:"last_version"`
	FirstTimestamp string `json:"first_timestamp"`
	LastTimestamp  string `json:"last_timestamp"`
}

// ReplayResult holds filtered entries and summary for one entity.
type ReplayResult struct {
	UID     string        `json:"uid"`
	Entries []Entry       `json:"entries"`
	Summary ReplaySummary `json:"summary"`
}

// Replay reads the audit trail and reconstructs the edit history of one
// entity, optionally bounded in time.
func Replay(path string, filter ReplayFilter) (*ReplayResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit trail: %w", err)
	}
	defer f.Close()

	result := &ReplayResult{
		UID: filter.UID,
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // skip malformed lines
		}

		if entry.UID != filter.UID {
			continue
		}

		if !filter.From.IsZero() || !filter.To.IsZero() {
			ts, err := time.Parse(TimestampFormat, entry.Timestamp)
			if err != nil {
				continue // skip unparseable timestamps
			}
			if !filter.From.IsZero() && ts.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && ts.After(filter.To) {
				continue
			}
		}

		result.Entries = append(result.Entries, entry)
		updateSummary(&result.Summary, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit trail: %w", err)
	}

	return result, nil
}

func updateSummary(s *ReplaySummary, entry Entry) {
	s.Total++

	for _, e := range entry.Edits {
		switch e.Kind {
		case "set":
			s.SetCount++
		case "delete":
			s.DeleteCount++
		case "insert":
			s.InsertCount++
		case "append":
			s.AppendCount++
		}
	}

	if entry.Version > s.LastVersion {
		s.LastVersion = entry.Version
	}

	if s.FirstTimestamp == "" {
		s.FirstTimestamp = entry.Timestamp
	}
	s.LastTimestamp = entry.Timestamp
}
