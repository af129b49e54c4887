package classify

import (
	"strings"

	"docketline/internal/domain"
)

type filenameRule struct {
	keyword  string
	docType  string
	subtype  string
	category string
}

// Ordered, first match wins. More specific keywords come before the generic
// ones they contain ("motion to compel" before "motion").
var filenameRules = []filenameRule{
	{"motion to compel", domain.DocMotion, "Motion to Compel", domain.CategoryMotion},
	{"motion to dismiss", domain.DocMotion, "Motion to Dismiss", domain.CategoryMotion},
	{"summary judgment", domain.DocMotion, "Motion for Summary Judgment", domain.CategoryMotion},
	{"opposition", domain.DocOpposition, "", domain.CategoryMotion},
	{"motion", domain.DocMotion, "", domain.CategoryMotion},
	{"interrogator", domain.DocDiscoveryRequest, "Interrogatories", domain.CategoryDiscovery},
	{"request for production", domain.DocDiscoveryRequest, "Requests for Production", domain.CategoryDiscovery},
	{"requests for production", domain.DocDiscoveryRequest, "Requests for Production", domain.CategoryDiscovery},
	{"request for admission", domain.DocDiscoveryRequest, "Requests for Admission", domain.CategoryDiscovery},
	{"requests for admission", domain.DocDiscoveryRequest, "Requests for Admission", domain.CategoryDiscovery},
	{"discovery response", domain.DocDiscoveryResponse, "", domain.CategoryDiscovery},
	{"responses to", domain.DocDiscoveryResponse, "", domain.CategoryDiscovery},
	{"notice of deposition", domain.DocNotice, "Notice of Deposition", domain.CategoryCorrespondence},
	{"deposition", domain.DocNotice, "Notice of Deposition", domain.CategoryCorrespondence},
	{"notice of hearing", domain.DocNotice, "Notice of Hearing", domain.CategoryCorrespondence},
	{"certificate of service", domain.DocFilingConfirmation, "", domain.CategoryAdminOps},
	{"proof of service", domain.DocFilingConfirmation, "", domain.CategoryAdminOps},
	{"filing confirmation", domain.DocFilingConfirmation, "", domain.CategoryAdminOps},
	{"complaint", domain.DocComplaint, "", domain.CategoryPleading},
	{"answer", domain.DocAnswer, "", domain.CategoryPleading},
	{"reply", domain.DocReply, "", domain.CategoryPleading},
	{"subpoena", domain.DocSubpoena, "", domain.CategoryDiscovery},
	{"settlement", domain.DocSettlementAgreement, "", domain.CategoryCorrespondence},
	{"order", domain.DocOrder, "", domain.CategoryOrderRuling},
	{"notice", domain.DocNotice, "", domain.CategoryCorrespondence},
	{"letter", domain.DocCorrespondence, "", domain.CategoryCorrespondence},
}

// ByFileName classifies from the filename alone. Pure, fast and offline; the
// pipeline uses it when the capability is unavailable. It returns only
// type/subtype/category and never sets confidence or dates.
func ByFileName(name string) Result {
	lowered := strings.ToLower(name)
	for _, rule := range filenameRules {
		if !strings.Contains(lowered, rule.keyword) {
			continue
		}
		res := Result{
			Type:     rule.docType,
			Category: rule.category,
		}
		if rule.subtype != "" {
			sub := rule.subtype
			res.Subtype = &sub
		}
		return res
	}
	return Result{Type: domain.DocOther, Category: domain.CategoryAdminOps}
}
