package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"docketline/internal/board"
	"docketline/internal/domain"
	"docketline/internal/events"
	"docketline/internal/repo"
)

// GenerateNextActions returns a prioritized candidate action for every open
// deadline of a matter that has no open action yet, soonest first. Nothing is
// persisted; CreateActionsFromDeadlines is the writing counterpart.
func (e Engine) GenerateNextActions(ctx context.Context, matterID string) ([]domain.Action, error) {
	ds, err := e.Repo.OpenDeadlinesWithoutAction(ctx, matterID)
	if err != nil {
		return nil, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	var candidates []domain.Action
	for _, d := range ds {
		a, err := e.candidateFor(ctx, d, now)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, a)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DaysRemaining < candidates[j].DaysRemaining
	})
	return candidates, nil
}

func (e Engine) candidateFor(ctx context.Context, d domain.Deadline, now string) (domain.Action, error) {
	days := e.daysRemaining(d.DueDate)
	var requiredDocType *string
	if d.RuleID != nil {
		rule, err := e.Repo.GetRule(ctx, *d.RuleID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return domain.Action{}, err
		}
		if err == nil {
			requiredDocType = rule.ResultDocType
		}
	}
	return domain.Action{
		ID:              uuid.NewSHA1(uuid.NameSpaceOID, []byte("action|"+d.ID)).String(),
		MatterID:        d.MatterID,
		DeadlineID:      &d.ID,
		FilingID:        d.FilingID,
		Title:           d.ActionRequired,
		Description:     fmt.Sprintf("Required by %s, anchored to the %s date %s.", d.Source, d.AnchorEvent, d.AnchorDate),
		Type:            inferActionType(d.ActionRequired),
		RequiredDocType: requiredDocType,
		Status:          domain.ActionStatusDraft,
		Priority:        priorityFor(days, d.Criticality),
		DueDate:         d.DueDate,
		DaysRemaining:   days,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// CreateActionsFromDeadlines persists the candidate actions for a matter with
// an initial audit entry each and returns their ids. Deadlines that already
// have an open action are skipped, so repeated calls create nothing new.
func (e Engine) CreateActionsFromDeadlines(ctx context.Context, matterID, assigneeID, actorID string) ([]string, error) {
	candidates, err := e.GenerateNextActions(ctx, matterID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var ids []string
	for _, a := range candidates {
		a.AssigneeID = optionalString(assigneeID)
		inserted, err := e.Repo.InsertActionTx(ctx, tx, a)
		if err != nil {
			return nil, fmt.Errorf("insert action: %w", err)
		}
		if !inserted {
			continue
		}
		details, _ := json.Marshal(map[string]string{"status": a.Status, "priority": a.Priority})
		if err := e.Repo.AppendAuditTx(ctx, tx, domain.AuditEntry{
			ActionID: a.ID,
			Event:    "created",
			TS:       a.CreatedAt,
			Actor:    actor(actorID),
			Details:  string(details),
		}); err != nil {
			return nil, err
		}
		if err := e.Events.Append(ctx, tx, "action.created", matterID, "action", a.ID, actor(actorID), events.EventPayload{
			"title":    a.Title,
			"priority": a.Priority,
			"due_date": a.DueDate,
		}); err != nil {
			return nil, err
		}
		ids = append(ids, a.ID)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateActionStatus sets an action's lifecycle status. Any of the six
// statuses is accepted from any other; the transition graph is not enforced.
// Exactly one audit entry records the old and new status. Reaching served or
// confirmed completes the linked deadline, and a linked board task is pushed
// the mapped status best-effort after commit.
func (e Engine) UpdateActionStatus(ctx context.Context, actionID, status, actorID string) (domain.Action, error) {
	if !validActionStatus(status) {
		return domain.Action{}, fmt.Errorf("unknown action status %s", status)
	}
	a, err := e.Repo.GetAction(ctx, actionID)
	if err != nil {
		return domain.Action{}, err
	}
	oldStatus := a.Status
	now := e.now().UTC().Format(time.RFC3339)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return a, err
	}
	defer tx.Rollback()

	if err := e.Repo.UpdateActionStatusTx(ctx, tx, a.ID, status, now); err != nil {
		return a, err
	}
	details, _ := json.Marshal(map[string]string{"from": oldStatus, "to": status})
	if err := e.Repo.AppendAuditTx(ctx, tx, domain.AuditEntry{
		ActionID: a.ID,
		Event:    "status.changed",
		TS:       now,
		Actor:    actor(actorID),
		Details:  string(details),
	}); err != nil {
		return a, err
	}
	if terminalActionStatus(status) && a.DeadlineID != nil {
		d, err := e.Repo.GetDeadlineTx(ctx, tx, *a.DeadlineID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return a, err
		}
		if err == nil && d.Status != domain.DeadlineStatusCompleted {
			if err := e.Repo.CompleteDeadlineTx(ctx, tx, d.ID, now); err != nil {
				return a, err
			}
			if err := e.Events.Append(ctx, tx, "deadline.completed", a.MatterID, "deadline", d.ID, actor(actorID), events.EventPayload{
				"completed_by": a.ID,
			}); err != nil {
				return a, err
			}
		}
	}
	if err := e.Events.Append(ctx, tx, "action.updated", a.MatterID, "action", a.ID, actor(actorID), events.EventPayload{
		"from_status": oldStatus,
		"to_status":   status,
	}); err != nil {
		return a, err
	}
	if err := tx.Commit(); err != nil {
		return a, err
	}
	a.Status = status
	a.UpdatedAt = now

	// Board sync is fire-and-forget; a board outage never fails the update.
	if e.Board != nil && a.BoardTaskID != nil {
		_ = e.Board.UpdateTaskStatus(ctx, *a.BoardTaskID, board.MapActionStatus(status))
	}
	return a, nil
}

// CreateBoardTasksFromActions creates one board task per open action that has
// none yet, under the "Action Items" group. Returns the ids of actions linked
// on this call.
func (e Engine) CreateBoardTasksFromActions(ctx context.Context, matterID, actorID string) ([]string, error) {
	if e.Board == nil {
		return nil, errors.New("no board configured")
	}
	actions, err := e.Repo.OpenActions(ctx, matterID)
	if err != nil {
		return nil, err
	}
	var linked []string
	for _, a := range actions {
		if a.BoardTaskID != nil {
			continue
		}
		dueDate := ""
		if a.DueDate != nil {
			dueDate = *a.DueDate
		}
		taskID, err := e.Board.CreateTask(ctx, board.Task{
			Title:       a.Title,
			Description: a.Description,
			Group:       board.ActionItemsGroup,
			DueDate:     dueDate,
			Priority:    a.Priority,
		})
		if err != nil {
			return linked, fmt.Errorf("create board task for %s: %w", a.ID, err)
		}
		now := e.now().UTC().Format(time.RFC3339)
		if err := e.Repo.SetActionBoardTask(ctx, a.ID, taskID, now); err != nil {
			return linked, err
		}
		linked = append(linked, a.ID)
	}
	return linked, nil
}

// RefreshActionSchedules recomputes days-remaining and priority for every
// open action of a matter and persists the changes.
func (e Engine) RefreshActionSchedules(ctx context.Context, matterID string) ([]domain.Action, error) {
	actions, err := e.Repo.OpenActions(ctx, matterID)
	if err != nil {
		return nil, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	for i, a := range actions {
		days := e.daysRemaining(a.DueDate)
		criticality := "soft"
		if a.DeadlineID != nil {
			d, err := e.Repo.GetDeadline(ctx, *a.DeadlineID)
			if err == nil {
				criticality = d.Criticality
			}
		}
		priority := priorityFor(days, criticality)
		if days == a.DaysRemaining && priority == a.Priority {
			continue
		}
		if err := e.Repo.UpdateActionSchedule(ctx, a.ID, days, priority, now); err != nil {
			return nil, err
		}
		actions[i].DaysRemaining = days
		actions[i].Priority = priority
		actions[i].UpdatedAt = now
	}
	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].DaysRemaining < actions[j].DaysRemaining
	})
	return actions, nil
}

func inferActionType(actionText string) string {
	switch {
	case lowerContains(actionText, "file"):
		return "file"
	case lowerContains(actionText, "serve"):
		return "serve"
	case lowerContains(actionText, "draft"),
		lowerContains(actionText, "respond"),
		lowerContains(actionText, "response"):
		return "draft"
	case lowerContains(actionText, "review"):
		return "review"
	case lowerContains(actionText, "prepare"):
		return "prepare"
	}
	return "task"
}

func validActionStatus(s string) bool {
	switch s {
	case domain.ActionStatusDraft, domain.ActionStatusReview, domain.ActionStatusFinal,
		domain.ActionStatusFile, domain.ActionStatusServed, domain.ActionStatusConfirmed:
		return true
	}
	return false
}

func terminalActionStatus(s string) bool {
	return s == domain.ActionStatusServed || s == domain.ActionStatusConfirmed
}
