package engine

import (
	"context"

	"docketline/internal/domain"
)

// Docket phases, least to most advanced.
const (
	PhaseInitial    = "initial"
	PhasePleadings  = "pleadings"
	PhasePostAnswer = "post-answer"
	PhaseMotions    = "motions"
	PhaseDiscovery  = "discovery"
	PhaseSettlement = "settlement"
)

// CasePhase reports the matter's procedural stage from its filings.
func (e Engine) CasePhase(ctx context.Context, matterID string) (string, error) {
	if _, err := e.Repo.GetMatter(ctx, matterID); err != nil {
		return "", err
	}
	filings, err := e.Repo.ListFilings(ctx, matterID)
	if err != nil {
		return "", err
	}
	return PhaseOf(filings), nil
}

// PhaseOf classifies matter progress from the filing types seen so far. The
// checks run in a fixed order and the last one that matches wins: settlement
// over discovery over motions over post-answer over pleadings over initial.
func PhaseOf(filings []domain.Filing) string {
	phase := PhaseInitial
	if hasDocType(filings, domain.DocComplaint) {
		phase = PhasePleadings
	}
	if hasDocType(filings, domain.DocAnswer) {
		phase = PhasePostAnswer
	}
	if hasCategory(filings, domain.CategoryMotion) {
		phase = PhaseMotions
	}
	if hasCategory(filings, domain.CategoryDiscovery) {
		phase = PhaseDiscovery
	}
	if hasDocType(filings, domain.DocSettlementAgreement) {
		phase = PhaseSettlement
	}
	return phase
}

func hasDocType(filings []domain.Filing, docType string) bool {
	for _, f := range filings {
		if f.DocType == docType {
			return true
		}
	}
	return false
}

func hasCategory(filings []domain.Filing, category string) bool {
	for _, f := range filings {
		if f.Category == category {
			return true
		}
	}
	return false
}
