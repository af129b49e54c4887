package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"docketline/internal/board"
	"docketline/internal/classify"
	"docketline/internal/config"
	"docketline/internal/docdate"
	"docketline/internal/domain"
	"docketline/internal/events"
	"docketline/internal/repo"
)

type Engine struct {
	DB         *sql.DB
	Repo       repo.Repo
	Events     events.Writer
	Config     *config.Config
	Classifier *classify.Classifier
	Board      board.Client
	Now        func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// InitMatter creates a matter and seeds its jurisdiction's rule catalog.
func (e Engine) InitMatter(ctx context.Context, title, caseNumber, court, jurisdiction, actorID string) (domain.Matter, error) {
	if e.Config == nil {
		return domain.Matter{}, errors.New("config not loaded")
	}
	if title == "" {
		return domain.Matter{}, errors.New("title is required")
	}
	if jurisdiction == "" {
		jurisdiction = e.Config.Matter.Jurisdiction
	}
	if _, ok := e.Config.Jurisdictions[jurisdiction]; !ok {
		return domain.Matter{}, fmt.Errorf("jurisdiction %s has no rule catalog", jurisdiction)
	}
	if court == "" {
		court = e.Config.Jurisdictions[jurisdiction].Court
	}
	now := e.now().UTC().Format(time.RFC3339)
	m := domain.Matter{
		ID:           uuid.New().String(),
		Title:        title,
		CaseNumber:   caseNumber,
		Court:        court,
		Jurisdiction: jurisdiction,
		Status:       "open",
		CreatedAt:    now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Matter{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertMatterTx(ctx, tx, m); err != nil {
		return domain.Matter{}, fmt.Errorf("insert matter: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "matter.created", m.ID, "matter", m.ID, actor(actorID), events.EventPayload{
		"title":        m.Title,
		"jurisdiction": m.Jurisdiction,
	}); err != nil {
		return domain.Matter{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Matter{}, err
	}
	if _, err := e.SeedJurisdiction(ctx, jurisdiction, actorID); err != nil {
		return m, err
	}
	return m, nil
}

// SeedJurisdiction installs a jurisdiction's rule catalog from config. It is a
// no-op when the jurisdiction already has rules; it returns the number seeded.
func (e Engine) SeedJurisdiction(ctx context.Context, jurisdiction, actorID string) (int, error) {
	if e.Config == nil {
		return 0, errors.New("config not loaded")
	}
	jc, ok := e.Config.Jurisdictions[jurisdiction]
	if !ok {
		return 0, fmt.Errorf("jurisdiction %s has no rule catalog", jurisdiction)
	}
	n, err := e.Repo.CountRules(ctx, jurisdiction)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, rc := range jc.Rules {
		rule := domain.DeadlineRule{
			ID:             uuid.NewSHA1(uuid.NameSpaceOID, []byte(jurisdiction+"|"+rc.Source+"|"+rc.Trigger+"|"+rc.TriggerSubtype)).String(),
			Jurisdiction:   jurisdiction,
			Source:         rc.Source,
			TriggerType:    rc.Trigger,
			TriggerSubtype: optionalString(rc.TriggerSubtype),
			OffsetDays:     rc.OffsetDays,
			Criticality:    rc.Criticality,
			ActionRequired: rc.Action,
			ResultDocType:  optionalString(rc.ResultDocType),
		}
		if err := e.Repo.InsertRuleTx(ctx, tx, rule); err != nil {
			return 0, fmt.Errorf("seed rule %s: %w", rc.Source, err)
		}
	}
	if err := e.Events.Append(ctx, tx, "jurisdiction.seeded", "", "jurisdiction", jurisdiction, actor(actorID), events.EventPayload{
		"rules": len(jc.Rules),
	}); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(jc.Rules), nil
}

// IngestOptions are parameters for ingesting one document's extracted text.
type IngestOptions struct {
	MatterID   string
	FileName   string
	Text       string
	UploadedAt time.Time
	AssigneeID string
	ActorID    string
}

// IngestResult is the outcome of the full ingestion pipeline: the classified
// filing, the deadlines its rules produced, and the ids of actions created.
type IngestResult struct {
	Filing    domain.Filing
	Deadlines []domain.Deadline
	ActionIDs []string
}

// IngestFiling runs the pipeline for one document: classify, extract dates,
// persist the filing, materialize rule deadlines, then derive actions.
func (e Engine) IngestFiling(ctx context.Context, opts IngestOptions) (IngestResult, error) {
	if e.Config == nil {
		return IngestResult{}, errors.New("config not loaded")
	}
	if opts.FileName == "" {
		return IngestResult{}, errors.New("file name is required")
	}
	m, err := e.Repo.GetMatter(ctx, opts.MatterID)
	if err != nil {
		return IngestResult{}, err
	}
	uploadedAt := opts.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = e.now()
	}

	res := e.classifyDocument(ctx, m, opts.FileName, opts.Text)
	extraction := docdate.Extract(opts.Text)
	filed := firstDate(extraction.Filed, res.FiledDate)
	served := firstDate(extraction.Served, res.ServedDate)
	hearing := firstDate(extraction.Hearing, res.HearingDate)
	if filed == nil && served == nil && res.AnchorDate == nil {
		filed = docdate.FallbackFiled(uploadedAt)
	}

	now := e.now().UTC().Format(time.RFC3339)
	f := domain.Filing{
		ID:          uuid.New().String(),
		MatterID:    m.ID,
		DocType:     res.Type,
		DocSubtype:  res.Subtype,
		Category:    res.Category,
		Confidence:  res.Confidence,
		FiledDate:   filed,
		ServedDate:  served,
		HearingDate: hearing,
		AnchorDate:  res.AnchorDate,
		Parties:     res.Parties,
		Facts:       res.Facts,
		RelatedDoc:  res.RelatedDoc,
		FileName:    opts.FileName,
		UploadedAt:  uploadedAt.UTC().Format(time.RFC3339),
		CreatedAt:   now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return IngestResult{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertFilingTx(ctx, tx, f); err != nil {
		return IngestResult{}, fmt.Errorf("insert filing: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "filing.ingested", m.ID, "filing", f.ID, actor(opts.ActorID), events.EventPayload{
		"doc_type":   f.DocType,
		"category":   f.Category,
		"confidence": f.Confidence,
		"file_name":  f.FileName,
	}); err != nil {
		return IngestResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return IngestResult{}, err
	}

	deadlines, err := e.ApplyDeadlineRules(ctx, f.ID, opts.ActorID)
	if err != nil {
		return IngestResult{Filing: f}, err
	}
	actionIDs, err := e.CreateActionsFromDeadlines(ctx, m.ID, opts.AssigneeID, opts.ActorID)
	if err != nil {
		return IngestResult{Filing: f, Deadlines: deadlines}, err
	}
	return IngestResult{Filing: f, Deadlines: deadlines, ActionIDs: actionIDs}, nil
}

// classifyDocument runs the configured classifier and falls back to filename
// keywords when no classifier is wired or the classification failed closed.
func (e Engine) classifyDocument(ctx context.Context, m domain.Matter, fileName, text string) classify.Result {
	if e.Classifier == nil {
		return classify.ByFileName(fileName)
	}
	res := e.Classifier.Classify(ctx, classify.Request{
		Text:     text,
		FileName: fileName,
		Matter: &classify.MatterContext{
			CaseNumber: m.CaseNumber,
			Court:      m.Court,
		},
	})
	if res.Confidence == 0 {
		fb := classify.ByFileName(fileName)
		res.Type = fb.Type
		res.Subtype = fb.Subtype
		res.Category = fb.Category
	}
	return res
}

func firstDate(dates ...*domain.ExtractedDate) *domain.ExtractedDate {
	for _, d := range dates {
		if d != nil {
			return d
		}
	}
	return nil
}

func actor(actorID string) string {
	if actorID == "" {
		return "system"
	}
	return actorID
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func lowerContains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
