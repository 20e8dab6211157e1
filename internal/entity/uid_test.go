package entity

import (
	"errors"
	"strings"
	"testing"
)

func TestMakeUIDValidation(t *testing.T) {
	u, err := MakeUID("trade", "a1-b2_c3#d@e")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.String() != "trade:a1-b2_c3#d@e" {
		t.Errorf("rendered %q", u.String())
	}

	for _, bad := range []struct{ ns, id string }{
		{"", "x"},
		{"trade", ""},
		{"tra de", "x"},
		{"trade", "x:y"},
	} {
		if _, err := MakeUID(bad.ns, bad.id); !errors.Is(err, ErrInvalidUID) {
			t.Errorf("MakeUID(%q, %q): got %v, want ErrInvalidUID", bad.ns, bad.id, err)
		}
	}
}

func TestParseUIDRoundTrip(t *testing.T) {
	u, err := ParseUID("trade:0001")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Namespace != "trade" || u.ID != "0001" {
		t.Errorf("parsed %+v", u)
	}
	if _, err := ParseUID("nodelimiter"); !errors.Is(err, ErrInvalidUID) {
		t.Errorf("got %v, want ErrInvalidUID", err)
	}
}

func TestNewUIDUsesNamespace(t *testing.T) {
	u, err := NewUID("trade")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if u.Namespace != "trade" || u.ID == "" {
		t.Errorf("minted %+v", u)
	}
	if u.IsZero() {
		t.Error("minted UID should not be zero")
	}
	if !(UID{}).IsZero() {
		t.Error("zero UID should report zero")
	}
}

func TestFactorySequencesPerNamespace(t *testing.T) {
	f := NewFactory()
	a1, _ := f.New("a")
	a2, _ := f.New("a")
	b1, _ := f.New("b")
	if !strings.HasSuffix(a1.String(), "00000001") || !strings.HasSuffix(a2.String(), "00000002") {
		t.Errorf("namespace a sequence: %s, %s", a1, a2)
	}
	if !strings.HasSuffix(b1.String(), "00000001") {
		t.Errorf("namespace b should start over: %s", b1)
	}
}
