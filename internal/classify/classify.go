package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"docketline/internal/docdate"
	"docketline/internal/domain"
)

// Completer is the external text-generation capability. Implementations must
// return free-form text containing one JSON object matching the classification
// shape; surrounding prose is tolerated.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// MatterContext is optional case information included in the prompt.
type MatterContext struct {
	CaseNumber string
	Court      string
	Parties    []string
}

type Request struct {
	Text     string
	FileName string
	Matter   *MatterContext
}

// Result is a document classification. Dates carry their own confidence and
// provenance; Facts is free-form key/value output.
type Result struct {
	Type        string
	Subtype     *string
	Category    string
	Confidence  float64
	FiledDate   *domain.ExtractedDate
	ServedDate  *domain.ExtractedDate
	HearingDate *domain.ExtractedDate
	AnchorDate  *string
	Parties     []string
	Facts       map[string]string
	RelatedDoc  *string
}

type Classifier struct {
	Completer Completer
	MaxChars  int
}

const defaultMaxChars = 8000

// Classify determines what a document is. It never returns an error:
// capability failures and unparsable replies fail closed to a zero-confidence
// "Other" result so classification can never block ingestion.
func (c Classifier) Classify(ctx context.Context, req Request) Result {
	if c.Completer == nil {
		return failClosed(fmt.Errorf("no completer configured"))
	}
	raw, err := c.Completer.Complete(ctx, systemPrompt, c.userPrompt(req))
	if err != nil {
		return failClosed(err)
	}
	obj, ok := firstJSONObject(raw)
	if !ok {
		return failClosed(fmt.Errorf("no JSON object in reply"))
	}
	var reply classifierReply
	if err := json.Unmarshal([]byte(obj), &reply); err != nil {
		return failClosed(fmt.Errorf("decode reply: %w", err))
	}
	return reply.toResult()
}

func failClosed(err error) Result {
	return Result{
		Type:       domain.DocOther,
		Category:   domain.CategoryAdminOps,
		Confidence: 0,
		Facts:      map[string]string{"classificationError": err.Error()},
	}
}

// classifierReply is the JSON shape the capability is instructed to emit.
type classifierReply struct {
	DocumentType           string            `json:"documentType"`
	DocumentSubtype        string            `json:"documentSubtype"`
	Category               string            `json:"category"`
	Confidence             float64           `json:"confidence"`
	FiledDate              string            `json:"filedDate"`
	ServedDate             string            `json:"servedDate"`
	HearingDate            string            `json:"hearingDate"`
	ResponseDeadlineAnchor string            `json:"responseDeadlineAnchor"`
	Parties                []string          `json:"parties"`
	Facts                  map[string]string `json:"facts"`
	RelatedDocument        string            `json:"relatedDocument"`
}

func (r classifierReply) toResult() Result {
	res := Result{
		Type:       r.DocumentType,
		Category:   r.Category,
		Confidence: clamp01(r.Confidence),
		Parties:    r.Parties,
		Facts:      r.Facts,
	}
	if !validDocType(res.Type) {
		res.Type = domain.DocOther
	}
	if !validCategory(res.Category) {
		res.Category = defaultCategoryFor(res.Type)
	}
	if r.DocumentSubtype != "" {
		sub := r.DocumentSubtype
		res.Subtype = &sub
	}
	if r.RelatedDocument != "" {
		rel := r.RelatedDocument
		res.RelatedDoc = &rel
	}
	res.FiledDate = replyDate(r.FiledDate, res.Confidence)
	res.ServedDate = replyDate(r.ServedDate, res.Confidence)
	res.HearingDate = replyDate(r.HearingDate, res.Confidence)
	if anchor := replyDate(r.ResponseDeadlineAnchor, res.Confidence); anchor != nil {
		res.AnchorDate = &anchor.Value
	}
	return res
}

// replyDate validates a capability-provided date through the same parser and
// year bounds the extractor uses.
func replyDate(s string, confidence float64) *domain.ExtractedDate {
	if s == "" {
		return nil
	}
	t, err := docdate.ParseDate(s)
	if err != nil {
		return nil
	}
	if t.Year() < 2000 || t.Year() > 2035 {
		return nil
	}
	return &domain.ExtractedDate{
		Value:      t.Format("2006-01-02"),
		Confidence: confidence,
		Source:     "classifier",
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func validDocType(t string) bool {
	for _, known := range domain.DocTypes() {
		if t == known {
			return true
		}
	}
	return false
}

func validCategory(c string) bool {
	for _, known := range domain.Categories() {
		if c == known {
			return true
		}
	}
	return false
}

func defaultCategoryFor(docType string) string {
	switch docType {
	case domain.DocComplaint, domain.DocAnswer, domain.DocReply:
		return domain.CategoryPleading
	case domain.DocMotion, domain.DocOpposition:
		return domain.CategoryMotion
	case domain.DocDiscoveryRequest, domain.DocDiscoveryResponse, domain.DocSubpoena:
		return domain.CategoryDiscovery
	case domain.DocOrder:
		return domain.CategoryOrderRuling
	case domain.DocNotice, domain.DocCorrespondence, domain.DocSettlementAgreement:
		return domain.CategoryCorrespondence
	default:
		return domain.CategoryAdminOps
	}
}

const systemPrompt = `You are a litigation docketing assistant. Classify the legal document and reply with exactly one JSON object using this shape:
{
  "documentType": one of ["Complaint","Answer","Motion","Opposition","Reply","Discovery Request","Discovery Response","Order","Notice","Subpoena","Settlement Agreement","Correspondence","Filing Confirmation","Other"],
  "documentSubtype": optional subtype such as "Motion to Compel", "Interrogatories", "Notice of Deposition",
  "category": one of ["pleading","motion","discovery","order-ruling","correspondence","admin-operations"],
  "confidence": number between 0 and 1,
  "filedDate": "YYYY-MM-DD" or "",
  "servedDate": "YYYY-MM-DD" or "",
  "hearingDate": "YYYY-MM-DD" or "",
  "responseDeadlineAnchor": "YYYY-MM-DD" or "",
  "parties": list of party names mentioned,
  "facts": object with keys like judge, court, attorney, setNumber, motionTitle,
  "relatedDocument": reference to the document this one responds to, or ""
}
Output only values you can support from the text. Use "" or [] when unknown.`

func (c Classifier) userPrompt(req Request) string {
	maxChars := c.MaxChars
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	text := req.Text
	if len(text) > maxChars {
		text = text[:maxChars]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "File name: %s\n", req.FileName)
	if m := req.Matter; m != nil {
		if m.CaseNumber != "" {
			fmt.Fprintf(&b, "Case number: %s\n", m.CaseNumber)
		}
		if m.Court != "" {
			fmt.Fprintf(&b, "Court: %s\n", m.Court)
		}
		if len(m.Parties) > 0 {
			fmt.Fprintf(&b, "Known parties: %s\n", strings.Join(m.Parties, "; "))
		}
	}
	fmt.Fprintf(&b, "\nDocument text:\n%s\n", text)
	return b.String()
}

// firstJSONObject returns the first balanced JSON object in s, tolerating
// prose around it and braces inside string literals.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
