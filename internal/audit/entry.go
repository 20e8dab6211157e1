package audit

// Edit is the flattened form of one staged write, as recorded in the trail.
// Indexed marks sequence edits, keeping an index of zero distinguishable
// from a scalar edit.
type Edit struct {
	Field   string `json:"field"`
	Kind    string `json:"kind"`
	Key     string `json:"key,omitempty"`
	Index   int    `json:"index,omitempty"`
	Indexed bool   `json:"indexed,omitempty"`
	Value   any    `json:"value,omitempty"`
}

// Entry is one line in the hash-chained JSONL audit trail: a committed
// revision with the edits that produced it. Field order is fixed by the
// struct so json.Marshal output hashes reproducibly.
type Entry struct {
	Timestamp string `json:"ts"`
	UID       string `json:"uid"`
	Version   int    `json:"version"`
	Session   string `json:"session"`
	Actor     string `json:"actor"`
	Reason    string `json:"reason"`
	Edits     []Edit `json:"edits"`
	PrevHash  string `json:"prev_hash"`
}
