package repo

import (
	"context"
	"database/sql"

	"docketline/internal/domain"
)

const draftColumns = `id,matter_id,filing_id,deadline_id,action_id,template_type,title,content,created_at`

func (r Repo) InsertDraftTx(ctx context.Context, tx *sql.Tx, d domain.DraftDocument) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO draft_documents(`+draftColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		d.ID, d.MatterID, d.FilingID, nullableStringPtr(d.DeadlineID), nullableStringPtr(d.ActionID),
		d.TemplateType, d.Title, d.Content, d.CreatedAt)
	return err
}

func (r Repo) GetDraft(ctx context.Context, id string) (domain.DraftDocument, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+draftColumns+` FROM draft_documents WHERE id=?`, id)
	if err != nil {
		return domain.DraftDocument{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.DraftDocument{}, err
		}
		return domain.DraftDocument{}, ErrNotFound
	}
	return scanDraft(rows)
}

func (r Repo) ListDrafts(ctx context.Context, matterID string) ([]domain.DraftDocument, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+draftColumns+` FROM draft_documents WHERE matter_id=? ORDER BY created_at DESC, id`, matterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.DraftDocument
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func scanDraft(rows *sql.Rows) (domain.DraftDocument, error) {
	var d domain.DraftDocument
	var deadlineID, actionID sql.NullString
	err := rows.Scan(&d.ID, &d.MatterID, &d.FilingID, &deadlineID, &actionID, &d.TemplateType, &d.Title, &d.Content, &d.CreatedAt)
	if err != nil {
		return d, err
	}
	if deadlineID.Valid {
		d.DeadlineID = &deadlineID.String
	}
	if actionID.Valid {
		d.ActionID = &actionID.String
	}
	return d, nil
}
