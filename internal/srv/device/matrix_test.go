package device

import (
	"errors"
	"strings"
	"testing"

	"github.com/warthog618/go-gpiocdev"
)

type fakeChip struct {
	names  []string
	failAt int
}

func (c *fakeChip) Lines() int { return len(c.names) }

func (c *fakeChip) LineInfo(offset int) (gpiocdev.LineInfo, error) {
	if offset == c.failAt {
		return gpiocdev.LineInfo{}, errors.New("permission denied")
	}
	return gpiocdev.LineInfo{Offset: offset, Name: c.names[offset]}, nil
}

func TestFindLineOffset(t *testing.T) {
	chip := &fakeChip{names: []string{"ID_SDA", "ID_SCL", "GPIO2", "GPIO17", "GPIO17"}, failAt: -1}
	tests := []struct {
		name    string
		want    int
		wantErr string
	}{
		{"3", 3, ""},
		{"0", 0, ""},
		{"GPIO2", 2, ""},
		{"GPIO17", 3, ""},
		{"5", 0, "out of range"},
		{"-1", 0, "out of range"},
		{"GPIO27", 0, "unable to find line GPIO27"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := findLineOffset(chip, tt.name)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("findLineOffset(%q) error = %v, want %q", tt.name, err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("findLineOffset(%q) = %d, %v; want %d", tt.name, got, err, tt.want)
			}
		})
	}
}

func TestFindLineOffsetInfoError(t *testing.T) {
	chip := &fakeChip{names: []string{"GPIO0", "GPIO1", "GPIO2"}, failAt: 1}
	if _, err := findLineOffset(chip, "GPIO2"); err == nil || !strings.Contains(err.Error(), "permission denied") {
		t.Errorf("findLineOffset() error = %v, want the line info error", err)
	}
	// Offsets do not need line info
	if got, err := findLineOffset(chip, "2"); err != nil || got != 2 {
		t.Errorf("findLineOffset(\"2\") = %d, %v", got, err)
	}
}
