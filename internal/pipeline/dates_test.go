package pipeline

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{in: "2024-01-05", want: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), ok: true},
		{in: "2024-1-5", want: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), ok: true},
		{in: "2024-11-5", want: time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC), ok: true},
		{in: "2024/3/9", want: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), ok: true},
		{in: " 3/9/2024 ", want: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), ok: true},
		{in: "Mar 9, 2024", want: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), ok: true},
		{in: "", ok: false},
		{in: "soon", ok: false},
		{in: "2024-13-1", ok: false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMonthOf_UnpaddedISO(t *testing.T) {
	m, ok := MonthOf("2024-2-7")
	if !ok || m != time.February {
		t.Errorf("MonthOf = %v, %v; want February, true", m, ok)
	}
}
