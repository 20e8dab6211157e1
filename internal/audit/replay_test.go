package audit

import (
	"path/filepath"
	"testing"
	"time"
)

// writeTestTrail creates a temp audit trail with known entries.
func writeTestTrail(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-audit.jsonl")
	log, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()

	base := time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC)

	entries := []Entry{
		{Timestamp: base.Format(TimestampFormat), UID: "trade:aaa", Version: 2, Actor: "ops", Edits: []Edit{{Field: "qty", Kind: "set", Value: float64(10)}}},
		{Timestamp: base.Add(2 * time.Second).Format(TimestampFormat), UID: "trade:aaa", Version: 3, Actor: "ops", Edits: []Edit{{Field: "qty", Kind: "set", Value: float64(15)}, {Field: "note", Kind: "delete"}}},
		{Timestamp: base.Add(4 * time.Second).Format(TimestampFormat), UID: "trade:bbb", Version: 2, Actor: "ops", Edits: []Edit{{Field: "qty", Kind: "set", Value: float64(7)}}},
		{Timestamp: base.Add(6 * time.Second).Format(TimestampFormat), UID: "trade:aaa", Version: 4, Actor: "risk", Edits: []Edit{{Field: "refs", Kind: "append", Index: 1, Value: "r2"}}},
	}

	for _, e := range entries {
		if err := log.Record(e); err != nil {
			t.Fatal(err)
		}
	}

	return path
}

func TestReplayFiltersByUID(t *testing.T) {
	path := writeTestTrail(t)

	result, err := Replay(path, ReplayFilter{UID: "trade:aaa"})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Entries) != 3 {
		t.Errorf("expected 3 entries for trade:aaa, got %d", len(result.Entries))
	}
	for _, e := range result.Entries {
		if e.UID != "trade:aaa" {
			t.Errorf("unexpected uid: %s", e.UID)
		}
	}
}

func TestReplaySummaryCounts(t *testing.T) {
	path := writeTestTrail(t)

	result, err := Replay(path, ReplayFilter{UID: "trade:aaa"})
	if err != nil {
		t.Fatal(err)
	}

	s := result.Summary
	if s.Total != 3 {
		t.Errorf("total = %d, want 3", s.Total)
	}
	if s.SetCount != 2 || s.DeleteCount != 1 || s.AppendCount != 1 {
		t.Errorf("counts = %+v", s)
	}
	if s.LastVersion != 4 {
		t.Errorf("last version = %d, want 4", s.LastVersion)
	}
	if s.FirstTimestamp == "" || s.LastTimestamp <= s.FirstTimestamp {
		t.Errorf("timestamps = %q .. %q", s.FirstTimestamp, s.LastTimestamp)
	}
}

func TestReplayTimeRange(t *testing.T) {
	path := writeTestTrail(t)
	base := time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC)

	result, err := Replay(path, ReplayFilter{
		UID:  "trade:aaa",
		From: base.Add(1 * time.Second),
		To:   base.Add(5 * time.Second),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry in range, got %d", len(result.Entries))
	}
	if result.Entries[0].Version != 3 {
		t.Errorf("entry version = %d, want 3", result.Entries[0].Version)
	}
}

func TestReplayUnknownUID(t *testing.T) {
	path := writeTestTrail(t)

	result, err := Replay(path, ReplayFilter{UID: "trade:absent"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 0 || result.Summary.Total != 0 {
		t.Errorf("expected empty replay, got %+v", result)
	}
}

func TestReplayMissingFile(t *testing.T) {
	if _, err := Replay(filepath.Join(t.TempDir(), "nope.jsonl"), ReplayFilter{UID: "x"}); err == nil {
		t.Error("expected error for missing file")
	}
}
