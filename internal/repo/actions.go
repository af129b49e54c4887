package repo

import (
	"context"
	"database/sql"
	"strings"

	"docketline/internal/domain"
)

const actionColumns = `id,matter_id,deadline_id,filing_id,title,description,type,required_doc_type,status,priority,due_date,days_remaining,assignee_id,board_task_id,created_at,updated_at`

// InsertActionTx inserts an action unless its deadline already has an open
// action. It reports whether a row was written.
func (r Repo) InsertActionTx(ctx context.Context, tx *sql.Tx, a domain.Action) (bool, error) {
	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO actions(`+actionColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.MatterID, nullableStringPtr(a.DeadlineID), nullableStringPtr(a.FilingID), a.Title, nullable(a.Description),
		a.Type, nullableStringPtr(a.RequiredDocType), a.Status, a.Priority,
		nullableStringPtr(a.DueDate), a.DaysRemaining, nullableStringPtr(a.AssigneeID), nullableStringPtr(a.BoardTaskID),
		a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r Repo) GetAction(ctx context.Context, id string) (domain.Action, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+actionColumns+` FROM actions WHERE id=?`, id)
	if err != nil {
		return domain.Action{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Action{}, err
		}
		return domain.Action{}, ErrNotFound
	}
	return scanAction(rows)
}

func (r Repo) GetActionTx(ctx context.Context, tx *sql.Tx, id string) (domain.Action, error) {
	rows, err := tx.QueryContext(ctx, `SELECT `+actionColumns+` FROM actions WHERE id=?`, id)
	if err != nil {
		return domain.Action{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Action{}, err
		}
		return domain.Action{}, ErrNotFound
	}
	return scanAction(rows)
}

// ListActions returns a matter's actions, optionally filtered by status,
// ordered by days remaining ascending.
func (r Repo) ListActions(ctx context.Context, matterID, status string) ([]domain.Action, error) {
	clauses := []string{"matter_id=?"}
	args := []any{matterID}
	if status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, status)
	}
	query := `SELECT ` + actionColumns + ` FROM actions WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY days_remaining, created_at, id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// OpenActions returns a matter's actions that are not yet served or confirmed.
func (r Repo) OpenActions(ctx context.Context, matterID string) ([]domain.Action, error) {
	query := `SELECT ` + actionColumns + ` FROM actions WHERE matter_id=? AND status NOT IN ('served','confirmed') ORDER BY days_remaining, created_at, id`
	rows, err := r.DB.QueryContext(ctx, query, matterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r Repo) UpdateActionStatusTx(ctx context.Context, tx *sql.Tx, id, status, updatedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE actions SET status=?, updated_at=? WHERE id=?`, status, updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) SetActionBoardTask(ctx context.Context, id, boardTaskID, updatedAt string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE actions SET board_task_id=?, updated_at=? WHERE id=?`, boardTaskID, updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) SetActionAssignee(ctx context.Context, id, assigneeID, updatedAt string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE actions SET assignee_id=?, updated_at=? WHERE id=?`, nullable(assigneeID), updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) UpdateActionSchedule(ctx context.Context, id string, days int, priority, updatedAt string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE actions SET days_remaining=?, priority=?, updated_at=? WHERE id=?`, days, priority, updatedAt, id)
	return err
}

// AppendAuditTx writes one audit trail entry for an action.
func (r Repo) AppendAuditTx(ctx context.Context, tx *sql.Tx, e domain.AuditEntry) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO action_audit(action_id,event,ts,actor,details_json) VALUES (?,?,?,?,?)`,
		e.ActionID, e.Event, e.TS, e.Actor, nullable(e.Details))
	return err
}

// ListAudit returns an action's audit trail in recording order.
func (r Repo) ListAudit(ctx context.Context, actionID string) ([]domain.AuditEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,action_id,event,ts,actor,details_json FROM action_audit WHERE action_id=? ORDER BY id`, actionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.ActionID, &e.Event, &e.TS, &e.Actor, &details); err != nil {
			return nil, err
		}
		if details.Valid {
			e.Details = details.String
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func scanAction(rows *sql.Rows) (domain.Action, error) {
	var a domain.Action
	var deadlineID, filingID, description, requiredDocType, dueDate, assigneeID, boardTaskID sql.NullString
	err := rows.Scan(&a.ID, &a.MatterID, &deadlineID, &filingID, &a.Title, &description,
		&a.Type, &requiredDocType, &a.Status, &a.Priority,
		&dueDate, &a.DaysRemaining, &assigneeID, &boardTaskID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return a, err
	}
	if deadlineID.Valid {
		a.DeadlineID = &deadlineID.String
	}
	if filingID.Valid {
		a.FilingID = &filingID.String
	}
	if description.Valid {
		a.Description = description.String
	}
	if requiredDocType.Valid {
		a.RequiredDocType = &requiredDocType.String
	}
	if dueDate.Valid {
		a.DueDate = &dueDate.String
	}
	if assigneeID.Valid {
		a.AssigneeID = &assigneeID.String
	}
	if boardTaskID.Valid {
		a.BoardTaskID = &boardTaskID.String
	}
	return a, nil
}
