package classify_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docketline/internal/classify"
	"docketline/internal/domain"
)

type fakeCompleter struct {
	reply string
	err   error
	user  string
}

func (f *fakeCompleter) Complete(_ context.Context, _, user string) (string, error) {
	f.user = user
	return f.reply, f.err
}

func TestClassifyParsesReply(t *testing.T) {
	fc := &fakeCompleter{reply: `Sure, here is the classification:
{"documentType":"Discovery Request","documentSubtype":"Interrogatories","category":"discovery","confidence":0.92,"servedDate":"2024-03-01","parties":["Acme Corp","John Doe"],"facts":{"setNumber":"One"}}
Let me know if you need anything else.`}
	c := classify.Classifier{Completer: fc}
	res := c.Classify(context.Background(), classify.Request{Text: "INTERROGATORIES, SET ONE", FileName: "rogs.pdf"})
	if res.Type != domain.DocDiscoveryRequest {
		t.Fatalf("type = %s", res.Type)
	}
	if res.Subtype == nil || *res.Subtype != "Interrogatories" {
		t.Fatalf("subtype = %v", res.Subtype)
	}
	if res.Category != domain.CategoryDiscovery {
		t.Fatalf("category = %s", res.Category)
	}
	if res.Confidence != 0.92 {
		t.Fatalf("confidence = %v", res.Confidence)
	}
	if res.ServedDate == nil || res.ServedDate.Value != "2024-03-01" {
		t.Fatalf("served = %+v", res.ServedDate)
	}
	if res.ServedDate.Source != "classifier" {
		t.Fatalf("served source = %s", res.ServedDate.Source)
	}
	if len(res.Parties) != 2 || res.Facts["setNumber"] != "One" {
		t.Fatalf("parties/facts = %v %v", res.Parties, res.Facts)
	}
}

func TestClassifyClampsConfidenceAndInvalidEnums(t *testing.T) {
	fc := &fakeCompleter{reply: `{"documentType":"Motion","category":"nonsense","confidence":3.5}`}
	res := classify.Classifier{Completer: fc}.Classify(context.Background(), classify.Request{FileName: "x.pdf"})
	if res.Confidence != 1 {
		t.Fatalf("confidence = %v, want clamped to 1", res.Confidence)
	}
	if res.Category != domain.CategoryMotion {
		t.Fatalf("category = %s, want motion default for Motion doc type", res.Category)
	}

	fc = &fakeCompleter{reply: `{"documentType":"Writ of Mandamus","category":"pleading","confidence":0.8}`}
	res = classify.Classifier{Completer: fc}.Classify(context.Background(), classify.Request{FileName: "x.pdf"})
	if res.Type != domain.DocOther {
		t.Fatalf("type = %s, want Other for unknown doc type", res.Type)
	}
}

func TestClassifyFailsClosed(t *testing.T) {
	cases := []struct {
		name string
		fc   *fakeCompleter
	}{
		{"completer error", &fakeCompleter{err: errors.New("capability unavailable")}},
		{"no json", &fakeCompleter{reply: "I could not classify this document."}},
		{"bad json", &fakeCompleter{reply: `{"documentType": }`}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := classify.Classifier{Completer: c.fc}.Classify(context.Background(), classify.Request{FileName: "x.pdf"})
			if res.Type != domain.DocOther || res.Category != domain.CategoryAdminOps {
				t.Fatalf("type/category = %s/%s", res.Type, res.Category)
			}
			if res.Confidence != 0 {
				t.Fatalf("confidence = %v, want 0", res.Confidence)
			}
			if res.Facts["classificationError"] == "" {
				t.Fatal("expected classificationError fact")
			}
		})
	}
}

func TestClassifyRejectsOutOfRangeDates(t *testing.T) {
	fc := &fakeCompleter{reply: `{"documentType":"Order","category":"order-ruling","confidence":0.9,"filedDate":"1997-01-01","hearingDate":"garbage"}`}
	res := classify.Classifier{Completer: fc}.Classify(context.Background(), classify.Request{FileName: "order.pdf"})
	if res.FiledDate != nil {
		t.Fatalf("filed = %+v, want nil for pre-2000 year", res.FiledDate)
	}
	if res.HearingDate != nil {
		t.Fatalf("hearing = %+v, want nil for unparsable date", res.HearingDate)
	}
}

func TestClassifyTruncatesDocumentText(t *testing.T) {
	fc := &fakeCompleter{reply: `{"documentType":"Other","category":"admin-operations","confidence":0.5}`}
	c := classify.Classifier{Completer: fc, MaxChars: 100}
	long := strings.Repeat("a", 500)
	c.Classify(context.Background(), classify.Request{Text: long, FileName: "big.pdf"})
	if strings.Count(fc.user, "a") > 100 {
		t.Fatalf("prompt contains %d text chars, want at most 100", strings.Count(fc.user, "a"))
	}
}

func TestByFileName(t *testing.T) {
	cases := []struct {
		name    string
		docType string
		subtype string
	}{
		{"2024-01-05 Complaint for Damages.pdf", domain.DocComplaint, ""},
		{"Defendants Motion to Compel Further Responses.pdf", domain.DocMotion, "Motion to Compel"},
		{"MOTION FOR SUMMARY JUDGMENT.docx", domain.DocMotion, "Motion for Summary Judgment"},
		{"Interrogatories Set One.pdf", domain.DocDiscoveryRequest, "Interrogatories"},
		{"Notice of Deposition of J. Smith.pdf", domain.DocNotice, "Notice of Deposition"},
		{"Proof of Service.pdf", domain.DocFilingConfirmation, ""},
		{"quarterly-report.xlsx", domain.DocOther, ""},
	}
	for _, c := range cases {
		res := classify.ByFileName(c.name)
		if res.Type != c.docType {
			t.Errorf("%s: type = %s, want %s", c.name, res.Type, c.docType)
		}
		switch {
		case c.subtype == "" && res.Subtype != nil:
			t.Errorf("%s: subtype = %q, want none", c.name, *res.Subtype)
		case c.subtype != "" && (res.Subtype == nil || *res.Subtype != c.subtype):
			t.Errorf("%s: subtype = %v, want %q", c.name, res.Subtype, c.subtype)
		}
		if res.Confidence != 0 {
			t.Errorf("%s: confidence = %v, want 0", c.name, res.Confidence)
		}
	}
}
