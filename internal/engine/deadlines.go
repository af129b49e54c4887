package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"docketline/internal/domain"
	"docketline/internal/events"
)

const dateLayout = "2006-01-02"

// noDueDateDays is the days-remaining assigned to deadlines without a due
// date so they never rank as urgent.
const noDueDateDays = 999

// ApplyDeadlineRules materializes deadlines for every rule triggered by a
// filing. The anchor date prefers the served date, then the filed date, then
// the classifier's response-deadline anchor. Re-running for the same filing
// creates nothing new.
func (e Engine) ApplyDeadlineRules(ctx context.Context, filingID, actorID string) ([]domain.Deadline, error) {
	f, err := e.Repo.GetFiling(ctx, filingID)
	if err != nil {
		return nil, err
	}
	m, err := e.Repo.GetMatter(ctx, f.MatterID)
	if err != nil {
		return nil, err
	}
	if e.Config != nil {
		if _, err := e.SeedJurisdiction(ctx, m.Jurisdiction, actorID); err != nil {
			return nil, err
		}
	}
	rules, err := e.Repo.MatchingRules(ctx, m.Jurisdiction, f.DocType, f.DocSubtype)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, nil
	}
	anchorEvent, anchorDate := deadlineAnchor(f)
	if anchorDate == "" {
		return nil, nil
	}
	anchor, err := time.Parse(dateLayout, anchorDate)
	if err != nil {
		return nil, fmt.Errorf("anchor date %q: %w", anchorDate, err)
	}

	now := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var created []domain.Deadline
	for _, rule := range rules {
		due := anchor.AddDate(0, 0, rule.OffsetDays).Format(dateLayout)
		d := domain.Deadline{
			ID:             uuid.NewSHA1(uuid.NameSpaceOID, []byte(f.ID+"|"+rule.ID)).String(),
			MatterID:       m.ID,
			FilingID:       &f.ID,
			RuleID:         &rule.ID,
			Title:          fmt.Sprintf("%s (%s)", rule.ActionRequired, rule.Source),
			ActionRequired: rule.ActionRequired,
			DueDate:        &due,
			AnchorEvent:    anchorEvent,
			AnchorDate:     anchorDate,
			Source:         rule.Source,
			Criticality:    rule.Criticality,
			Status:         domain.DeadlineStatusPending,
			CreatedAt:      now,
		}
		inserted, err := e.Repo.InsertDeadlineTx(ctx, tx, d)
		if err != nil {
			return nil, fmt.Errorf("insert deadline: %w", err)
		}
		if !inserted {
			continue
		}
		if err := e.Events.Append(ctx, tx, "deadline.created", m.ID, "deadline", d.ID, actor(actorID), events.EventPayload{
			"due_date":    due,
			"source":      rule.Source,
			"criticality": rule.Criticality,
		}); err != nil {
			return nil, err
		}
		created = append(created, d)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

func deadlineAnchor(f domain.Filing) (event, date string) {
	switch {
	case f.ServedDate != nil:
		return "served", f.ServedDate.Value
	case f.FiledDate != nil:
		return "filed", f.FiledDate.Value
	case f.AnchorDate != nil:
		return "anchor", *f.AnchorDate
	}
	return "", ""
}

// daysRemaining is the whole days left until a due date, rounded up so a
// deadline due later today still counts as zero, not negative.
func (e Engine) daysRemaining(due *string) int {
	if due == nil {
		return noDueDateDays
	}
	t, err := time.Parse(dateLayout, *due)
	if err != nil {
		return noDueDateDays
	}
	diff := t.Sub(e.now().UTC())
	return int(math.Ceil(diff.Hours() / 24))
}

func priorityFor(daysRemaining int, criticality string) string {
	switch {
	case daysRemaining <= 0:
		return domain.PriorityCritical
	case daysRemaining <= 3:
		return domain.PriorityUrgent
	case daysRemaining <= 7:
		return domain.PriorityHigh
	case daysRemaining <= 14:
		return domain.PriorityMedium
	}
	if criticality == "hard" {
		return domain.PriorityMedium
	}
	return domain.PriorityLow
}
