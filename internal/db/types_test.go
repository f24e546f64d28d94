package db

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDocumentKindValid(t *testing.T) {
	tests := []struct {
		kind     DocumentKind
		expected bool
	}{
		{KindResume, true},
		{KindCoverLetter, true},
		{DocumentKind(""), false},
		{DocumentKind("letter"), false},
		{DocumentKind("Resume"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.Valid(); got != tt.expected {
				t.Errorf("Valid(%q) = %v, expected %v", tt.kind, got, tt.expected)
			}
		})
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range ValidStatuses {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false, expected true", s)
		}
	}
	for _, s := range []string{"", "applied", "Hired", "Interview"} {
		if ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = true, expected false", s)
		}
	}
}

func TestDateJSON(t *testing.T) {
	d := Date{Time: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)}
	data, err := json.Marshal(&d)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(data) != `"2025-03-14"` {
		t.Errorf("Marshal = %s, expected %q", data, "2025-03-14")
	}

	var parsed Date
	if err := json.Unmarshal([]byte(`"2024-12-01"`), &parsed); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if parsed.Format("2006-01-02") != "2024-12-01" {
		t.Errorf("Unmarshal = %s, expected 2024-12-01", parsed.Format("2006-01-02"))
	}

	var zero Date
	data, err = json.Marshal(&zero)
	if err != nil {
		t.Fatalf("Marshal zero error: %v", err)
	}
	if string(data) != "null" {
		t.Errorf("Marshal zero = %s, expected null", data)
	}
}
