package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"docketline/internal/domain"
	"docketline/internal/draft"
	"docketline/internal/events"
)

// GenerateDraftForAction renders and persists a first-draft document for an
// action. A nil document with a nil error means no template applies; callers
// must not treat that as a failure.
func (e Engine) GenerateDraftForAction(ctx context.Context, actionID, actorID string) (*domain.DraftDocument, error) {
	a, err := e.Repo.GetAction(ctx, actionID)
	if err != nil {
		return nil, err
	}
	if a.FilingID == nil {
		return nil, nil
	}
	f, err := e.Repo.GetFiling(ctx, *a.FilingID)
	if err != nil {
		return nil, err
	}
	m, err := e.Repo.GetMatter(ctx, a.MatterID)
	if err != nil {
		return nil, err
	}
	rendered := draft.Build(draft.Input{
		Matter:          m,
		Filing:          f,
		ActionType:      a.Type,
		RequiredDocType: a.RequiredDocType,
	})
	if rendered == nil {
		return nil, nil
	}
	d := domain.DraftDocument{
		ID:           uuid.New().String(),
		MatterID:     m.ID,
		FilingID:     f.ID,
		DeadlineID:   a.DeadlineID,
		ActionID:     &a.ID,
		TemplateType: rendered.TemplateType,
		Title:        rendered.Title,
		Content:      rendered.Content,
		CreatedAt:    e.now().UTC().Format(time.RFC3339),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertDraftTx(ctx, tx, d); err != nil {
		return nil, err
	}
	if err := e.Events.Append(ctx, tx, "draft.created", m.ID, "draft", d.ID, actor(actorID), events.EventPayload{
		"template": d.TemplateType,
		"title":    d.Title,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &d, nil
}
