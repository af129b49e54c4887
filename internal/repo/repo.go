package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"docketline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func (r Repo) InsertMatter(ctx context.Context, m domain.Matter) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO matters(id,title,case_number,court,jurisdiction,status,created_at) VALUES (?,?,?,?,?,?,?)`,
		m.ID, m.Title, nullable(m.CaseNumber), nullable(m.Court), m.Jurisdiction, m.Status, m.CreatedAt)
	return err
}

func (r Repo) InsertMatterTx(ctx context.Context, tx *sql.Tx, m domain.Matter) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO matters(id,title,case_number,court,jurisdiction,status,created_at) VALUES (?,?,?,?,?,?,?)`,
		m.ID, m.Title, nullable(m.CaseNumber), nullable(m.Court), m.Jurisdiction, m.Status, m.CreatedAt)
	return err
}

func scanMatter(row *sql.Row) (domain.Matter, error) {
	var m domain.Matter
	var caseNumber, court sql.NullString
	err := row.Scan(&m.ID, &m.Title, &caseNumber, &court, &m.Jurisdiction, &m.Status, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	if caseNumber.Valid {
		m.CaseNumber = caseNumber.String
	}
	if court.Valid {
		m.Court = court.String
	}
	return m, err
}

func (r Repo) GetMatter(ctx context.Context, id string) (domain.Matter, error) {
	return scanMatter(r.DB.QueryRowContext(ctx, `SELECT id,title,case_number,court,jurisdiction,status,created_at FROM matters WHERE id=?`, id))
}

// SingleMatter returns the only matter in the workspace, or an error when the
// workspace holds zero or more than one.
func (r Repo) SingleMatter(ctx context.Context) (domain.Matter, error) {
	items, err := r.ListMatters(ctx)
	if err != nil {
		return domain.Matter{}, err
	}
	if len(items) == 0 {
		return domain.Matter{}, ErrNotFound
	}
	if len(items) > 1 {
		return domain.Matter{}, fmt.Errorf("multiple matters exist; specify --matter")
	}
	return items[0], nil
}

func (r Repo) ListMatters(ctx context.Context) ([]domain.Matter, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,title,case_number,court,jurisdiction,status,created_at FROM matters ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Matter
	for rows.Next() {
		var m domain.Matter
		var caseNumber, court sql.NullString
		if err := rows.Scan(&m.ID, &m.Title, &caseNumber, &court, &m.Jurisdiction, &m.Status, &m.CreatedAt); err != nil {
			return nil, err
		}
		if caseNumber.Valid {
			m.CaseNumber = caseNumber.String
		}
		if court.Valid {
			m.Court = court.String
		}
		res = append(res, m)
	}
	return res, nil
}

func (r Repo) UpdateMatterStatus(ctx context.Context, id, status string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE matters SET status=? WHERE id=?`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- deadline rules ---

func (r Repo) InsertRuleTx(ctx context.Context, tx *sql.Tx, rule domain.DeadlineRule) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO deadline_rules(id,jurisdiction,source,trigger_type,trigger_subtype,offset_days,criticality,action_required,result_doc_type) VALUES (?,?,?,?,?,?,?,?,?)`,
		rule.ID, rule.Jurisdiction, rule.Source, rule.TriggerType, nullableStringPtr(rule.TriggerSubtype), rule.OffsetDays, rule.Criticality, rule.ActionRequired, nullableStringPtr(rule.ResultDocType))
	return err
}

func (r Repo) CountRules(ctx context.Context, jurisdiction string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM deadline_rules WHERE jurisdiction=?`, jurisdiction).Scan(&n)
	return n, err
}

func (r Repo) ListRules(ctx context.Context, jurisdiction string) ([]domain.DeadlineRule, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,jurisdiction,source,trigger_type,trigger_subtype,offset_days,criticality,action_required,result_doc_type FROM deadline_rules WHERE jurisdiction=? ORDER BY trigger_type, id`, jurisdiction)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

// MatchingRules selects rules triggered by a filing's type and subtype. A rule
// with no trigger_subtype matches any subtype of its trigger_type.
func (r Repo) MatchingRules(ctx context.Context, jurisdiction, docType string, docSubtype *string) ([]domain.DeadlineRule, error) {
	clauses := []string{"jurisdiction=?", "trigger_type=?"}
	args := []any{jurisdiction, docType}
	if docSubtype != nil && *docSubtype != "" {
		clauses = append(clauses, "(trigger_subtype IS NULL OR trigger_subtype=?)")
		args = append(args, *docSubtype)
	} else {
		clauses = append(clauses, "trigger_subtype IS NULL")
	}
	query := `SELECT id,jurisdiction,source,trigger_type,trigger_subtype,offset_days,criticality,action_required,result_doc_type FROM deadline_rules WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

func (r Repo) GetRule(ctx context.Context, id string) (domain.DeadlineRule, error) {
	var rule domain.DeadlineRule
	var subtype, resultDoc sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT id,jurisdiction,source,trigger_type,trigger_subtype,offset_days,criticality,action_required,result_doc_type FROM deadline_rules WHERE id=?`, id).
		Scan(&rule.ID, &rule.Jurisdiction, &rule.Source, &rule.TriggerType, &subtype, &rule.OffsetDays, &rule.Criticality, &rule.ActionRequired, &resultDoc)
	if err == sql.ErrNoRows {
		return rule, ErrNotFound
	}
	if subtype.Valid {
		rule.TriggerSubtype = &subtype.String
	}
	if resultDoc.Valid {
		rule.ResultDocType = &resultDoc.String
	}
	return rule, err
}

func collectRules(rows *sql.Rows) ([]domain.DeadlineRule, error) {
	var res []domain.DeadlineRule
	for rows.Next() {
		var rule domain.DeadlineRule
		var subtype, resultDoc sql.NullString
		if err := rows.Scan(&rule.ID, &rule.Jurisdiction, &rule.Source, &rule.TriggerType, &subtype, &rule.OffsetDays, &rule.Criticality, &rule.ActionRequired, &resultDoc); err != nil {
			return nil, err
		}
		if subtype.Valid {
			rule.TriggerSubtype = &subtype.String
		}
		if resultDoc.Valid {
			rule.ResultDocType = &resultDoc.String
		}
		res = append(res, rule)
	}
	return res, rows.Err()
}

// --- events ---

func (r Repo) LatestEvents(ctx context.Context, limit int, matterID, evtType, entityKind, entityID string) ([]domain.Event, error) {
	return r.LatestEventsFrom(ctx, limit, 0, matterID, evtType, entityKind, entityID)
}

func (r Repo) LatestEventsFrom(ctx context.Context, limit int, cursor int64, matterID, evtType, entityKind, entityID string) ([]domain.Event, error) {
	clauses := []string{"1=1"}
	var args []any
	if matterID != "" {
		clauses = append(clauses, "matter_id=?")
		args = append(args, matterID)
	}
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	if entityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, entityKind)
	}
	if entityID != "" {
		clauses = append(clauses, "entity_id=?")
		args = append(args, entityID)
	}
	if cursor > 0 {
		clauses = append(clauses, "id<?")
		args = append(args, cursor)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := fmt.Sprintf(`SELECT id,ts,type,matter_id,entity_kind,entity_id,actor_id,payload_json FROM events %s ORDER BY id DESC LIMIT ?`, where)
	args = append(args, limit)
	return r.collectEvents(ctx, query, args...)
}

// EventsAfter returns events with IDs greater than the cursor in ascending order.
func (r Repo) EventsAfter(ctx context.Context, limit int, cursor int64, matterID string) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	clauses := []string{"1=1"}
	var args []any
	if matterID != "" {
		clauses = append(clauses, "matter_id=?")
		args = append(args, matterID)
	}
	if cursor > 0 {
		clauses = append(clauses, "id>?")
		args = append(args, cursor)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := fmt.Sprintf(`SELECT id,ts,type,matter_id,entity_kind,entity_id,actor_id,payload_json FROM events %s ORDER BY id ASC LIMIT ?`, where)
	args = append(args, limit)
	return r.collectEvents(ctx, query, args...)
}

// LatestEventID returns the most recent event ID for a matter, or across
// all matters when matterID is empty.
func (r Repo) LatestEventID(ctx context.Context, matterID string) (int64, error) {
	query := `SELECT COALESCE(MAX(id),0) FROM events`
	var args []any
	if matterID != "" {
		query += ` WHERE matter_id=?`
		args = append(args, matterID)
	}
	row := r.DB.QueryRowContext(ctx, query, args...)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r Repo) collectEvents(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var matterID, entityID, payload sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &matterID, &e.EntityKind, &entityID, &e.ActorID, &payload); err != nil {
			return nil, err
		}
		if matterID.Valid {
			e.MatterID = matterID.String
		}
		if entityID.Valid {
			e.EntityID = entityID.String
		}
		if payload.Valid {
			e.Payload = payload.String
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// --- helpers ---

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}
