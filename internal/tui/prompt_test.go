package tui

import (
	"bytes"
	"os"
	"testing"
)

func TestValidateBrief(t *testing.T) {
	tests := []struct {
		name    string
		brief   string
		wantErr bool
	}{
		{"empty", "", true},
		{"whitespace", "   \n\t", true},
		{"too short", "todo app", true},
		{"short after trim", "  todo app  ", true},
		{"exact minimum", "abcdefghij", false},
		{"realistic", "Build a personal expense tracker", false},
		{"multibyte counted as runes", "été été été", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBrief(tt.brief)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBrief(%q) error = %v, wantErr %v", tt.brief, err, tt.wantErr)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}

	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if IsTerminal(f) {
		t.Error("a regular file is not a terminal")
	}
}
