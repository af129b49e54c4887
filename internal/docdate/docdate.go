package docdate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"docketline/internal/domain"
)

// Extraction holds the three dated facts the pipeline cares about. Each
// category is nil when no pattern produced a usable date.
type Extraction struct {
	Filed   *domain.ExtractedDate
	Served  *domain.ExtractedDate
	Hearing *domain.ExtractedDate
}

const (
	minYear = 2000
	maxYear = 2035

	firstTierConfidence = 0.9
	laterTierConfidence = 0.7
	uploadConfidence    = 0.2

	sourceRegex  = "regex"
	sourceUpload = "upload-timestamp"
)

// datePat matches the date forms ParseDate understands: ISO, US slash, and
// named month in either order.
const datePat = `((?:\d{4}-\d{2}-\d{2})|(?:\d{1,2}/\d{1,2}/\d{2,4})|(?:[A-Za-z]{3,9}\.?\s+\d{1,2},?\s+\d{4})|(?:\d{1,2}\s+[A-Za-z]{3,9}\.?\s+\d{4}))`

// Pattern tiers per category, most contextually specific first. Within a
// category the first pattern that yields a parseable in-range date wins, even
// if a later pattern would also match; early patterns are the most reliable.
var (
	filedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)filed\s+(?:on\s+)?` + datePat),
		regexp.MustCompile(`(?i)date\s+filed[:\s]+` + datePat),
		regexp.MustCompile(`(?i)filing\s+date[:\s]+` + datePat),
	}
	servedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)served\s+(?:on\s+)?(?:you\s+on\s+)?` + datePat),
		regexp.MustCompile(`(?i)date\s+of\s+service[:\s]+` + datePat),
		regexp.MustCompile(`(?i)service\s+(?:was\s+)?(?:made|completed)\s+on\s+` + datePat),
	}
	hearingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)hearing\s+(?:is\s+)?(?:set|scheduled)\s+for\s+` + datePat),
		regexp.MustCompile(`(?i)hearing\s+date[:\s]+` + datePat),
		regexp.MustCompile(`(?i)hearing\s+on\s+` + datePat),
		regexp.MustCompile(`(?i)come\s+on\s+for\s+hearing\s+on\s+` + datePat),
	}
)

// Extract scans raw document text for filed, served and hearing dates using
// the ordered pattern cascade. The cascade is a heuristic, not a parser.
func Extract(text string) Extraction {
	return Extraction{
		Filed:   extractCategory(text, filedPatterns),
		Served:  extractCategory(text, servedPatterns),
		Hearing: extractCategory(text, hearingPatterns),
	}
}

func extractCategory(text string, patterns []*regexp.Regexp) *domain.ExtractedDate {
	for tier, pat := range patterns {
		for _, m := range pat.FindAllStringSubmatch(text, -1) {
			t, err := ParseDate(m[1])
			if err != nil {
				continue
			}
			if t.Year() < minYear || t.Year() > maxYear {
				// Likely OCR noise.
				continue
			}
			conf := laterTierConfidence
			if tier == 0 {
				conf = firstTierConfidence
			}
			return &domain.ExtractedDate{
				Value:      t.Format("2006-01-02"),
				Confidence: conf,
				Source:     sourceRegex,
				Snippet:    strings.TrimSpace(m[0]),
			}
		}
	}
	return nil
}

// FallbackFiled builds a filed date from the upload timestamp. Callers use it
// only when nothing better was extracted; the low confidence marks it.
func FallbackFiled(uploadedAt time.Time) *domain.ExtractedDate {
	return &domain.ExtractedDate{
		Value:      uploadedAt.UTC().Format("2006-01-02"),
		Confidence: uploadConfidence,
		Source:     sourceUpload,
	}
}

var usDatePat = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2,4})$`)

var namedMonthLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// ParseDate tries the three supported date formats in order: ISO, numeric US
// (2-digit years normalized to 2000+), and named month. The first parser that
// succeeds wins.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if m := usDatePat.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return time.Time{}, fmt.Errorf("invalid numeric date %q", s)
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
	}
	normalized := normalizeMonthCase(strings.ReplaceAll(s, ".", ""))
	for _, layout := range namedMonthLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// normalizeMonthCase title-cases alphabetic runs so "JANUARY 5, 2025" and
// "january 5, 2025" both parse with the stdlib layouts.
func normalizeMonthCase(s string) string {
	var b strings.Builder
	startOfWord := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			if startOfWord {
				r -= 'a' - 'A'
			}
			startOfWord = false
		case r >= 'A' && r <= 'Z':
			if !startOfWord {
				r += 'a' - 'A'
			}
			startOfWord = false
		default:
			startOfWord = true
		}
		b.WriteRune(r)
	}
	return b.String()
}
