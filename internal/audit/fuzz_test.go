package audit

import (
	"os"
	"path/filepath"
	"testing"
)

func FuzzVerify(f *testing.F) {
	// Seed with a valid 3-entry chain
	tmpDir := f.TempDir()
	validTrail := filepath.Join(tmpDir, "valid.jsonl")
	al, err := Open(validTrail)
	if err != nil {
		f.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		al.Record(Entry{
			UID:     "trade:fuzz",
			Version: i + 1,
			Actor:   "ops",
			Reason:  "fuzz seed",
			Edits:   []Edit{{Field: "qty", Kind: "set", Value: i}},
		})
	}
	al.Close()
	validData, _ := os.ReadFile(validTrail)
	f.Add(validData)

	// Empty
	f.Add([]byte{})

	// Single garbage line
	f.Add([]byte(`{"not":"a valid entry"}` + "\n"))

	// Totally invalid
	f.Add([]byte(`not json`))

	f.Fuzz(func(t *testing.T, data []byte) {
		tmpFile := filepath.Join(t.TempDir(), "fuzz.jsonl")
		os.WriteFile(tmpFile, data, 0644)

		// Must not panic
		Verify(tmpFile)
	})
}
