package inventory

import (
	"testing"
	"time"
)

func TestParseExpiryDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-05-01T10:30:00Z", time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)},
		{"2024-05-01T10:30:00+09:00", time.Date(2024, 5, 1, 1, 30, 0, 0, time.UTC)},
		{"2024-05-01T10:30:00", time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)},
		{"2024-05-01T10:30:00.123", time.Date(2024, 5, 1, 10, 30, 0, 123000000, time.UTC)},
		{" 2024-05-01 ", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := ParseExpiryDate(tt.in)
		if err != nil {
			t.Errorf("ParseExpiryDate(%q) error: %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseExpiryDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseExpiryDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "tomorrow", "05/01/2024", "2024-13-01"} {
		if _, err := ParseExpiryDate(in); err == nil {
			t.Errorf("ParseExpiryDate(%q) should fail", in)
		}
	}
}
