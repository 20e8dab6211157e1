package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders a ReplayResult as a human-readable text timeline.
func FormatTimeline(result *ReplayResult) string {
	if len(result.Entries) == 0 {
		return fmt.Sprintf("Entity: %s | No entries found.\n", result.UID)
	}

	var b strings.Builder

	first := result.Summary.FirstTimestamp
	last := result.Summary.LastTimestamp
	firstTime := formatDateRange(first)
	lastTime := formatTimeOnly(last)
	b.WriteString(fmt.Sprintf("Entity: %s | %s–%s UTC\n", result.UID, firstTime, lastTime))
	b.WriteString(separator + "\n")

	for _, e := range result.Entries {
		ts := formatTimeOnly(e.Timestamp)
		b.WriteString(fmt.Sprintf("%-10s v%-5d %-16s %-24s %d edits\n",
			ts, e.Version, truncate(e.Actor, 16), truncate(e.Reason, 24), len(e.Edits)))
		for _, edit := range e.Edits {
			b.WriteString("           " + formatEdit(edit) + "\n")
		}
	}

	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(result.Summary))

	return b.String()
}

// FormatJSON renders a ReplayResult as indented JSON.
func FormatJSON(result *ReplayResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal replay result: %w", err)
	}
	return string(data), nil
}

func formatEdit(e Edit) string {
	target := e.Field
	switch {
	case e.Key != "":
		target = fmt.Sprintf("%s[%s]", e.Field, e.Key)
	case e.Indexed:
		target = fmt.Sprintf("%s[%d]", e.Field, e.Index)
	}
	if e.Kind == "delete" {
		return fmt.Sprintf("delete %s", target)
	}
	return fmt.Sprintf("%s %s = %v", e.Kind, target, e.Value)
}

func formatDateRange(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatTimeOnly(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func formatSummary(s ReplaySummary) string {
	parts := []string{}
	if s.SetCount > 0 {
		parts = append(parts, fmt.Sprintf("%d set", s.SetCount))
	}
	if s.DeleteCount > 0 {
		parts = append(parts, fmt.Sprintf("%d delete", s.DeleteCount))
	}
	if s.InsertCount > 0 {
		parts = append(parts, fmt.Sprintf("%d insert", s.InsertCount))
	}
	if s.AppendCount > 0 {
		parts = append(parts, fmt.Sprintf("%d append", s.AppendCount))
	}
	if len(parts) == 0 {
		parts = append(parts, "no edits")
	}
	return fmt.Sprintf("Summary: %d revisions | %s | last version %d\n",
		s.Total, strings.Join(parts, ", "), s.LastVersion)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
