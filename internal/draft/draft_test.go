package draft_test

import (
	"strings"
	"testing"

	"docketline/internal/domain"
	"docketline/internal/draft"
)

func strptr(s string) *string { return &s }

func testMatter() domain.Matter {
	return domain.Matter{
		ID:         "m-1",
		Title:      "Acme v. Doe",
		CaseNumber: "2:24-cv-01234",
		Court:      "United States District Court",
	}
}

func TestBuildDiscoveryResponse(t *testing.T) {
	sub := "Interrogatories"
	r := draft.Build(draft.Input{
		Matter: testMatter(),
		Filing: domain.Filing{
			DocType:    domain.DocDiscoveryRequest,
			DocSubtype: &sub,
			FileName:   "rogs-set-one.pdf",
			ServedDate: &domain.ExtractedDate{Value: "2024-03-01"},
		},
		ActionType:      "serve",
		RequiredDocType: strptr(domain.DocDiscoveryResponse),
	})
	if r == nil {
		t.Fatal("expected a draft")
	}
	if r.TemplateType != draft.TemplateDiscoveryResponse {
		t.Fatalf("template = %s", r.TemplateType)
	}
	if r.Title != "Draft Responses to Interrogatories" {
		t.Fatalf("title = %q", r.Title)
	}
	for _, want := range []string{
		"RESPONSES TO INTERROGATORIES",
		"UNITED STATES DISTRICT COURT",
		"Case No. 2:24-cv-01234",
		"GENERAL OBJECTIONS",
		"Responding to: rogs-set-one.pdf (2024-03-01)",
	} {
		if !strings.Contains(r.Content, want) {
			t.Errorf("content missing %q", want)
		}
	}
}

func TestBuildDiscoveryResponseForDraftAction(t *testing.T) {
	// A draft-typed action gets the discovery template even without a
	// required doc type.
	r := draft.Build(draft.Input{
		Matter:     testMatter(),
		Filing:     domain.Filing{DocType: domain.DocDiscoveryRequest, FileName: "rfp.pdf"},
		ActionType: "draft",
	})
	if r == nil || r.TemplateType != draft.TemplateDiscoveryResponse {
		t.Fatalf("got %+v", r)
	}
	if !strings.Contains(r.Content, "RESPONSES TO DISCOVERY REQUESTS") {
		t.Error("expected generic request kind without a subtype")
	}
}

func TestBuildOppositionMemo(t *testing.T) {
	r := draft.Build(draft.Input{
		Matter: testMatter(),
		Filing: domain.Filing{
			DocType:   domain.DocMotion,
			FileName:  "motion-to-compel.pdf",
			FiledDate: &domain.ExtractedDate{Value: "2024-04-10"},
			Facts:     map[string]string{"motionTitle": "Motion to Compel"},
		},
		ActionType:      "file",
		RequiredDocType: strptr(domain.DocMotion),
	})
	if r == nil {
		t.Fatal("expected a draft")
	}
	if r.TemplateType != draft.TemplateOppositionMemo {
		t.Fatalf("template = %s", r.TemplateType)
	}
	if r.Title != "Draft Opposition to Motion to Compel" {
		t.Fatalf("title = %q", r.Title)
	}
	for _, want := range []string{
		"IN OPPOSITION TO MOTION TO COMPEL",
		"V. CONCLUSION",
		"Responding to: motion-to-compel.pdf (2024-04-10)",
	} {
		if !strings.Contains(r.Content, want) {
			t.Errorf("content missing %q", want)
		}
	}
}

func TestBuildOppositionNeedsMotionFiling(t *testing.T) {
	// A Motion requirement whose triggering filing is not itself a Motion
	// yields nothing.
	r := draft.Build(draft.Input{
		Matter:          testMatter(),
		Filing:          domain.Filing{DocType: domain.DocOrder, FileName: "order.pdf"},
		ActionType:      "file",
		RequiredDocType: strptr(domain.DocMotion),
	})
	if r != nil {
		t.Fatalf("got %+v, want nil", r)
	}
}

func TestBuildNoTemplate(t *testing.T) {
	r := draft.Build(draft.Input{
		Matter:          testMatter(),
		Filing:          domain.Filing{DocType: domain.DocOrder, FileName: "order.pdf"},
		ActionType:      "review",
		RequiredDocType: strptr(domain.DocAnswer),
	})
	if r != nil {
		t.Fatalf("got %+v, want nil", r)
	}
}

func TestCaptionPlaceholders(t *testing.T) {
	// Missing court and case number stay bracketed instead of being invented.
	r := draft.Build(draft.Input{
		Matter:     domain.Matter{ID: "m-2", Title: "Untitled"},
		Filing:     domain.Filing{DocType: domain.DocDiscoveryRequest, FileName: "rogs.pdf"},
		ActionType: "draft",
	})
	if r == nil {
		t.Fatal("expected a draft")
	}
	for _, want := range []string{"[COURT NAME]", "Case No. [CASE NUMBER]", "[PLAINTIFF NAME]", "[DATE]"} {
		if !strings.Contains(r.Content, want) {
			t.Errorf("content missing placeholder %q", want)
		}
	}
}
