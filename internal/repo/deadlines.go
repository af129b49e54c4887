package repo

import (
	"context"
	"database/sql"
	"strings"

	"docketline/internal/domain"
)

const deadlineColumns = `id,matter_id,filing_id,rule_id,title,action_required,due_date,anchor_event,anchor_date,source,criticality,status,completed_at,created_at`

// InsertDeadlineTx inserts a deadline unless one already exists for the same
// filing and rule. It reports whether a row was written.
func (r Repo) InsertDeadlineTx(ctx context.Context, tx *sql.Tx, d domain.Deadline) (bool, error) {
	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO deadlines(`+deadlineColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		d.ID, d.MatterID, nullableStringPtr(d.FilingID), nullableStringPtr(d.RuleID), d.Title, d.ActionRequired,
		nullableStringPtr(d.DueDate), d.AnchorEvent, d.AnchorDate, d.Source, d.Criticality, d.Status,
		nullableStringPtr(d.CompletedAt), d.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r Repo) GetDeadline(ctx context.Context, id string) (domain.Deadline, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+deadlineColumns+` FROM deadlines WHERE id=?`, id)
	if err != nil {
		return domain.Deadline{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Deadline{}, err
		}
		return domain.Deadline{}, ErrNotFound
	}
	return scanDeadline(rows)
}

func (r Repo) GetDeadlineTx(ctx context.Context, tx *sql.Tx, id string) (domain.Deadline, error) {
	rows, err := tx.QueryContext(ctx, `SELECT `+deadlineColumns+` FROM deadlines WHERE id=?`, id)
	if err != nil {
		return domain.Deadline{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Deadline{}, err
		}
		return domain.Deadline{}, ErrNotFound
	}
	return scanDeadline(rows)
}

// ListDeadlines returns a matter's deadlines, optionally filtered by status,
// ordered by due date with undated deadlines last.
func (r Repo) ListDeadlines(ctx context.Context, matterID, status string) ([]domain.Deadline, error) {
	clauses := []string{"matter_id=?"}
	args := []any{matterID}
	if status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, status)
	}
	query := `SELECT ` + deadlineColumns + ` FROM deadlines WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY due_date IS NULL, due_date, created_at, id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDeadlines(rows)
}

// OpenDeadlinesWithoutAction returns pending or in-progress deadlines of a
// matter that have no open action attached.
func (r Repo) OpenDeadlinesWithoutAction(ctx context.Context, matterID string) ([]domain.Deadline, error) {
	query := `SELECT ` + deadlineColumns + ` FROM deadlines d
WHERE d.matter_id=? AND d.status IN ('pending','in-progress')
AND NOT EXISTS (SELECT 1 FROM actions a WHERE a.deadline_id=d.id AND a.status NOT IN ('served','confirmed'))
ORDER BY d.due_date IS NULL, d.due_date, d.created_at, d.id`
	rows, err := r.DB.QueryContext(ctx, query, matterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDeadlines(rows)
}

func (r Repo) UpdateDeadlineStatusTx(ctx context.Context, tx *sql.Tx, id, status string) error {
	res, err := tx.ExecContext(ctx, `UPDATE deadlines SET status=? WHERE id=?`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteDeadlineTx marks a deadline completed with a completion timestamp.
func (r Repo) CompleteDeadlineTx(ctx context.Context, tx *sql.Tx, id, completedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE deadlines SET status='completed', completed_at=? WHERE id=?`, completedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func collectDeadlines(rows *sql.Rows) ([]domain.Deadline, error) {
	var res []domain.Deadline
	for rows.Next() {
		d, err := scanDeadline(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func scanDeadline(rows *sql.Rows) (domain.Deadline, error) {
	var d domain.Deadline
	var filingID, ruleID, dueDate, completedAt sql.NullString
	err := rows.Scan(&d.ID, &d.MatterID, &filingID, &ruleID, &d.Title, &d.ActionRequired,
		&dueDate, &d.AnchorEvent, &d.AnchorDate, &d.Source, &d.Criticality, &d.Status,
		&completedAt, &d.CreatedAt)
	if err != nil {
		return d, err
	}
	if filingID.Valid {
		d.FilingID = &filingID.String
	}
	if ruleID.Valid {
		d.RuleID = &ruleID.String
	}
	if dueDate.Valid {
		d.DueDate = &dueDate.String
	}
	if completedAt.Valid {
		d.CompletedAt = &completedAt.String
	}
	return d, nil
}
