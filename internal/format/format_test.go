package format_test

import (
	"testing"

	"github.com/wangku-app/wangku-api/internal/format"
)

func TestRupiah_Grouping(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "Rp0"},
		{500, "Rp500"},
		{500000, "Rp500.000"},
		{750000, "Rp750.000"},
		{1234567, "Rp1.234.567"},
	}
	for _, c := range cases {
		if got := format.Rupiah(c.in); got != c.want {
			t.Errorf("Rupiah(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDate_CalendarInput(t *testing.T) {
	if got := format.Date("2026-09-05"); got != "5/9/2026" {
		t.Errorf("Date = %q, want 5/9/2026", got)
	}
}

func TestDate_RFC3339Input(t *testing.T) {
	if got := format.Date("2026-01-02T10:30:00Z"); got != "2/1/2026" {
		t.Errorf("Date = %q, want 2/1/2026", got)
	}
}

func TestDate_UnparseableInputPassesThrough(t *testing.T) {
	if got := format.Date("besok"); got != "besok" {
		t.Errorf("Date = %q, want input unchanged", got)
	}
}
