package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"docketline/internal/domain"
)

const filingColumns = `id,matter_id,doc_type,doc_subtype,category,confidence,
filed_date,filed_confidence,filed_source,
served_date,served_confidence,served_source,
hearing_date,hearing_confidence,hearing_source,
anchor_date,parties_json,facts_json,related_doc,file_name,uploaded_at,created_at`

func (r Repo) InsertFilingTx(ctx context.Context, tx *sql.Tx, f domain.Filing) error {
	partiesJSON, err := marshalOrNil(f.Parties, len(f.Parties) > 0)
	if err != nil {
		return err
	}
	factsJSON, err := marshalOrNil(f.Facts, len(f.Facts) > 0)
	if err != nil {
		return err
	}
	filedV, filedC, filedS := splitDate(f.FiledDate)
	servedV, servedC, servedS := splitDate(f.ServedDate)
	hearingV, hearingC, hearingS := splitDate(f.HearingDate)
	_, err = tx.ExecContext(ctx, `INSERT INTO filings(`+filingColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		f.ID, f.MatterID, f.DocType, nullableStringPtr(f.DocSubtype), f.Category, f.Confidence,
		filedV, filedC, filedS,
		servedV, servedC, servedS,
		hearingV, hearingC, hearingS,
		nullableStringPtr(f.AnchorDate), partiesJSON, factsJSON, nullableStringPtr(f.RelatedDoc), f.FileName, f.UploadedAt, f.CreatedAt)
	return err
}

func (r Repo) GetFiling(ctx context.Context, id string) (domain.Filing, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+filingColumns+` FROM filings WHERE id=?`, id)
	if err != nil {
		return domain.Filing{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Filing{}, err
		}
		return domain.Filing{}, ErrNotFound
	}
	return scanFiling(rows)
}

func (r Repo) ListFilings(ctx context.Context, matterID string) ([]domain.Filing, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+filingColumns+` FROM filings WHERE matter_id=? ORDER BY created_at DESC, id`, matterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Filing
	for rows.Next() {
		f, err := scanFiling(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, f)
	}
	return res, rows.Err()
}

// LatestFilingOfType returns the most recent filing of a matter with the given
// document type, or ErrNotFound.
func (r Repo) LatestFilingOfType(ctx context.Context, matterID, docType string) (domain.Filing, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+filingColumns+` FROM filings WHERE matter_id=? AND doc_type=? ORDER BY created_at DESC, id LIMIT 1`, matterID, docType)
	if err != nil {
		return domain.Filing{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Filing{}, err
		}
		return domain.Filing{}, ErrNotFound
	}
	return scanFiling(rows)
}

func (r Repo) CountFilings(ctx context.Context, matterID, docType string) (int, error) {
	query := `SELECT count(*) FROM filings WHERE matter_id=?`
	args := []any{matterID}
	if docType != "" {
		query += ` AND doc_type=?`
		args = append(args, docType)
	}
	var n int
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

func (r Repo) CountFilingsByCategory(ctx context.Context, matterID, category string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM filings WHERE matter_id=? AND category=?`, matterID, category).Scan(&n)
	return n, err
}

func scanFiling(rows *sql.Rows) (domain.Filing, error) {
	var f domain.Filing
	var docSubtype, anchorDate, partiesJSON, factsJSON, relatedDoc sql.NullString
	var filedV, filedS, servedV, servedS, hearingV, hearingS sql.NullString
	var filedC, servedC, hearingC sql.NullFloat64
	err := rows.Scan(&f.ID, &f.MatterID, &f.DocType, &docSubtype, &f.Category, &f.Confidence,
		&filedV, &filedC, &filedS,
		&servedV, &servedC, &servedS,
		&hearingV, &hearingC, &hearingS,
		&anchorDate, &partiesJSON, &factsJSON, &relatedDoc, &f.FileName, &f.UploadedAt, &f.CreatedAt)
	if err != nil {
		return f, err
	}
	if docSubtype.Valid {
		f.DocSubtype = &docSubtype.String
	}
	if anchorDate.Valid {
		f.AnchorDate = &anchorDate.String
	}
	if relatedDoc.Valid {
		f.RelatedDoc = &relatedDoc.String
	}
	f.FiledDate = joinDate(filedV, filedC, filedS)
	f.ServedDate = joinDate(servedV, servedC, servedS)
	f.HearingDate = joinDate(hearingV, hearingC, hearingS)
	if partiesJSON.Valid && partiesJSON.String != "" {
		if err := json.Unmarshal([]byte(partiesJSON.String), &f.Parties); err != nil {
			return f, err
		}
	}
	if factsJSON.Valid && factsJSON.String != "" {
		if err := json.Unmarshal([]byte(factsJSON.String), &f.Facts); err != nil {
			return f, err
		}
	}
	return f, nil
}

func splitDate(d *domain.ExtractedDate) (value, confidence, source any) {
	if d == nil {
		return nil, nil, nil
	}
	return d.Value, d.Confidence, d.Source
}

func joinDate(value sql.NullString, confidence sql.NullFloat64, source sql.NullString) *domain.ExtractedDate {
	if !value.Valid {
		return nil
	}
	d := &domain.ExtractedDate{Value: value.String}
	if confidence.Valid {
		d.Confidence = confidence.Float64
	}
	if source.Valid {
		d.Source = source.String
	}
	return d
}

func marshalOrNil(v any, ok bool) (any, error) {
	if !ok {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
