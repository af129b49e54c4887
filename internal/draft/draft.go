// Package draft renders first-draft response documents for actions that call
// for one. Fields the matter store cannot supply are left as bracketed
// placeholders for attorney input; the builder never invents caption data.
package draft

import (
	"fmt"
	"strings"

	"docketline/internal/domain"
)

const (
	TemplateDiscoveryResponse = "discovery-response"
	TemplateOppositionMemo    = "opposition-memo"
)

// Input is everything a template needs: the matter caption, the filing being
// responded to, and the requesting action's type and required document type.
type Input struct {
	Matter          domain.Matter
	Filing          domain.Filing
	ActionType      string
	RequiredDocType *string
}

type Rendered struct {
	TemplateType string
	Title        string
	Content      string
}

// Build returns a rendered draft, or nil when no template applies. Only two
// combinations produce output: a Discovery Response requirement (or a draft
// action), and a Motion requirement (or a file action) whose triggering
// filing is itself a Motion.
func Build(in Input) *Rendered {
	switch {
	case requires(in, domain.DocDiscoveryResponse) || in.ActionType == "draft":
		return discoveryResponse(in)
	case (requires(in, domain.DocMotion) || in.ActionType == "file") && in.Filing.DocType == domain.DocMotion:
		return oppositionMemo(in)
	}
	return nil
}

func requires(in Input, docType string) bool {
	return in.RequiredDocType != nil && *in.RequiredDocType == docType
}

func discoveryResponse(in Input) *Rendered {
	requestKind := "DISCOVERY REQUESTS"
	if in.Filing.DocSubtype != nil {
		requestKind = strings.ToUpper(*in.Filing.DocSubtype)
	}
	body := fmt.Sprintf(discoveryResponseTemplate, caption(in.Matter), requestKind, sourceFooter(in.Filing))
	return &Rendered{
		TemplateType: TemplateDiscoveryResponse,
		Title:        fmt.Sprintf("Draft Responses to %s", titleCaseKind(requestKind)),
		Content:      body,
	}
}

func oppositionMemo(in Input) *Rendered {
	motionTitle := "[MOTION TITLE]"
	if t, ok := in.Filing.Facts["motionTitle"]; ok && t != "" {
		motionTitle = t
	}
	body := fmt.Sprintf(oppositionMemoTemplate, caption(in.Matter), strings.ToUpper(motionTitle), sourceFooter(in.Filing))
	return &Rendered{
		TemplateType: TemplateOppositionMemo,
		Title:        fmt.Sprintf("Draft Opposition to %s", motionTitle),
		Content:      body,
	}
}

// caption renders the standard caption block. Party and judge names are not
// hydrated from the matter store, so they stay bracketed.
func caption(m domain.Matter) string {
	court := m.Court
	if court == "" {
		court = "[COURT NAME]"
	}
	caseNumber := m.CaseNumber
	if caseNumber == "" {
		caseNumber = "[CASE NUMBER]"
	}
	return fmt.Sprintf(`%s

[PLAINTIFF NAME],
                    Plaintiff,
        v.                                  Case No. %s

[DEFENDANT NAME],                           Assigned to: Hon. [JUDGE NAME]
                    Defendant.
`, strings.ToUpper(court), caseNumber)
}

func sourceFooter(f domain.Filing) string {
	date := "[DATE]"
	switch {
	case f.ServedDate != nil:
		date = f.ServedDate.Value
	case f.FiledDate != nil:
		date = f.FiledDate.Value
	}
	return fmt.Sprintf("Responding to: %s (%s)", f.FileName, date)
}

func titleCaseKind(upper string) string {
	words := strings.Fields(strings.ToLower(upper))
	for i, w := range words {
		if w == "for" || w == "of" || w == "to" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

const discoveryResponseTemplate = `%s

RESPONDING PARTY'S RESPONSES TO %s

PRELIMINARY STATEMENT

Responding Party has not completed its investigation of the facts relating to
this action, has not completed discovery, and has not completed preparation
for trial. The responses below are given without prejudice to Responding
Party's right to produce evidence of subsequently discovered facts.

GENERAL OBJECTIONS

1. Responding Party objects to each request to the extent it seeks
   information protected by the attorney-client privilege or the attorney
   work-product doctrine.
2. Responding Party objects to each request to the extent it is overly
   broad, unduly burdensome, or not reasonably calculated to lead to the
   discovery of admissible evidence.
3. Responding Party objects to each request to the extent it seeks
   information not within Responding Party's possession, custody, or control.

RESPONSES

REQUEST NO. 1: [RESTATE REQUEST]

RESPONSE TO REQUEST NO. 1: Subject to and without waiving the foregoing
objections, Responding Party responds as follows: [RESPONSE]

REQUEST NO. 2: [RESTATE REQUEST]

RESPONSE TO REQUEST NO. 2: Subject to and without waiving the foregoing
objections, Responding Party responds as follows: [RESPONSE]

[CONTINUE NUMBERED RESPONSES]

Dated: [DATE]

                                            [ATTORNEY NAME]
                                            Attorney for [PARTY]

---
%s
`

const oppositionMemoTemplate = `%s

MEMORANDUM OF POINTS AND AUTHORITIES IN OPPOSITION TO %s

I. INTRODUCTION

[SUMMARIZE WHY THE MOTION SHOULD BE DENIED]

II. STATEMENT OF FACTS

[RELEVANT FACTUAL BACKGROUND]

III. LEGAL STANDARD

[GOVERNING STANDARD FOR THIS MOTION]

IV. ARGUMENT

A. [FIRST GROUND FOR DENIAL]

[ARGUMENT]

B. [SECOND GROUND FOR DENIAL]

[ARGUMENT]

V. CONCLUSION

For the foregoing reasons, the motion should be denied in its entirety.

Dated: [DATE]

                                            [ATTORNEY NAME]
                                            Attorney for [PARTY]

---
%s
`
