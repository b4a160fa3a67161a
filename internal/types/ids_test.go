package types

import (
	"strings"
	"testing"
)

func TestNewPatternID(t *testing.T) {
	a, b := NewPatternID(), NewPatternID()
	if a == b {
		t.Fatalf("NewPatternID() returned %s twice", a)
	}
	if _, err := ParsePatternID(string(a)); err != nil {
		t.Errorf("ParsePatternID(NewPatternID()) error = %v", err)
	}
	if string(a) >= string(b) {
		t.Errorf("ids not time ordered: %s >= %s", a, b)
	}
}

func TestParsePatternID(t *testing.T) {
	id := string(NewPatternID())

	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"canonical", id, false},
		{"upper case", strings.ToUpper(id), true},
		{"urn form", "urn:uuid:" + id, true},
		{"braces", "{" + id + "}", true},
		{"garbage", "not-a-uuid", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePatternID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParsePatternID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}
