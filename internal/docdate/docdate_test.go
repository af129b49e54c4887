package docdate_test

import (
	"testing"
	"time"

	"docketline/internal/docdate"
)

func TestParseDateFormats(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2024-03-01", "2024-03-01"},
		{"3/1/2024", "2024-03-01"},
		{"03/01/24", "2024-03-01"},
		{"January 5, 2025", "2025-01-05"},
		{"Jan 5 2025", "2025-01-05"},
		{"5 January 2025", "2025-01-05"},
		{"JANUARY 5, 2025", "2025-01-05"},
		{"Jan. 5, 2025", "2025-01-05"},
	}
	for _, c := range cases {
		got, err := docdate.ParseDate(c.in)
		if err != nil {
			t.Errorf("ParseDate(%q): %v", c.in, err)
			continue
		}
		if got.Format("2006-01-02") != c.want {
			t.Errorf("ParseDate(%q) = %s, want %s", c.in, got.Format("2006-01-02"), c.want)
		}
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "not a date", "13/45/2024", "Monthuary 5, 2024"} {
		if _, err := docdate.ParseDate(in); err == nil {
			t.Errorf("ParseDate(%q): expected error", in)
		}
	}
}

func TestExtractServedAndHearing(t *testing.T) {
	text := `SUMMONS AND COMPLAINT
You are hereby notified that this complaint was served on March 1, 2024.
Hearing set for January 5, 2025 in Department 12.`
	ex := docdate.Extract(text)
	if ex.Served == nil {
		t.Fatal("expected served date")
	}
	if ex.Served.Value != "2024-03-01" {
		t.Errorf("served = %s, want 2024-03-01", ex.Served.Value)
	}
	if ex.Served.Confidence != 0.9 {
		t.Errorf("served confidence = %v, want 0.9 for a first-tier pattern", ex.Served.Confidence)
	}
	if ex.Served.Source != "regex" {
		t.Errorf("served source = %s, want regex", ex.Served.Source)
	}
	if ex.Hearing == nil || ex.Hearing.Value != "2025-01-05" {
		t.Fatalf("hearing = %+v, want 2025-01-05", ex.Hearing)
	}
	if ex.Filed != nil {
		t.Errorf("filed = %+v, want nil", ex.Filed)
	}
}

func TestExtractLaterTierConfidence(t *testing.T) {
	ex := docdate.Extract("Date filed: 2024-02-10")
	if ex.Filed == nil {
		t.Fatal("expected filed date")
	}
	if ex.Filed.Confidence != 0.7 {
		t.Errorf("confidence = %v, want 0.7 for a second-tier pattern", ex.Filed.Confidence)
	}
}

func TestExtractYearBounds(t *testing.T) {
	ex := docdate.Extract("Filed on 1/1/1987. Served on 2040-01-01.")
	if ex.Filed != nil {
		t.Errorf("filed = %+v, want nil for pre-2000 year", ex.Filed)
	}
	if ex.Served != nil {
		t.Errorf("served = %+v, want nil for post-2035 year", ex.Served)
	}
}

func TestExtractSkipsUnparsableMatch(t *testing.T) {
	// First pattern matches an invalid date; the next valid occurrence wins.
	ex := docdate.Extract("Served on 13/45/2024. Served on 2024-04-02.")
	if ex.Served == nil || ex.Served.Value != "2024-04-02" {
		t.Fatalf("served = %+v, want 2024-04-02", ex.Served)
	}
}

func TestFallbackFiled(t *testing.T) {
	uploaded := time.Date(2024, 6, 15, 23, 30, 0, 0, time.UTC)
	d := docdate.FallbackFiled(uploaded)
	if d.Value != "2024-06-15" {
		t.Errorf("value = %s, want 2024-06-15", d.Value)
	}
	if d.Confidence != 0.2 {
		t.Errorf("confidence = %v, want 0.2", d.Confidence)
	}
	if d.Source != "upload-timestamp" {
		t.Errorf("source = %s, want upload-timestamp", d.Source)
	}
}
