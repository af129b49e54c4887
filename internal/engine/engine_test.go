package engine_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"docketline/internal/config"
	"docketline/internal/db"
	"docketline/internal/domain"
	"docketline/internal/engine"
	"docketline/internal/migrate"
)

type testEnv struct {
	Engine engine.Engine
	Matter domain.Matter
	Ctx    context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("federal")
	eng := engine.New(conn, cfg)
	eng.Now = func() time.Time { return time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	m, err := eng.InitMatter(ctx, "Acme v. Doe", "2:24-cv-01234", "", "", "tester")
	if err != nil {
		t.Fatalf("init matter: %v", err)
	}
	return &testEnv{Engine: eng, Matter: m, Ctx: ctx}
}

func (env *testEnv) ingest(t *testing.T, fileName, text string) engine.IngestResult {
	t.Helper()
	res, err := env.Engine.IngestFiling(env.Ctx, engine.IngestOptions{
		MatterID: env.Matter.ID,
		FileName: fileName,
		Text:     text,
		ActorID:  "tester",
	})
	if err != nil {
		t.Fatalf("ingest %s: %v", fileName, err)
	}
	return res
}

func TestInitMatterDefaults(t *testing.T) {
	env := newTestEnv(t)
	if env.Matter.Jurisdiction != "federal" {
		t.Fatalf("jurisdiction = %s", env.Matter.Jurisdiction)
	}
	if env.Matter.Court != "United States District Court" {
		t.Fatalf("court = %s", env.Matter.Court)
	}
	n, err := env.Engine.Repo.CountRules(env.Ctx, "federal")
	if err != nil {
		t.Fatal(err)
	}
	if n == 0 {
		t.Fatal("expected seeded rule catalog")
	}
	// Seeding again is a no-op.
	seeded, err := env.Engine.SeedJurisdiction(env.Ctx, "federal", "tester")
	if err != nil {
		t.Fatal(err)
	}
	if seeded != 0 {
		t.Fatalf("reseed created %d rules", seeded)
	}
}

func TestIngestComplaintPipeline(t *testing.T) {
	env := newTestEnv(t)
	res := env.ingest(t, "complaint.pdf", "COMPLAINT FOR DAMAGES\nThis complaint was served on March 1, 2024.")

	if res.Filing.DocType != domain.DocComplaint {
		t.Fatalf("doc type = %s", res.Filing.DocType)
	}
	if res.Filing.Category != domain.CategoryPleading {
		t.Fatalf("category = %s", res.Filing.Category)
	}
	if res.Filing.ServedDate == nil || res.Filing.ServedDate.Value != "2024-03-01" {
		t.Fatalf("served = %+v", res.Filing.ServedDate)
	}

	if len(res.Deadlines) != 1 {
		t.Fatalf("deadlines = %d, want 1", len(res.Deadlines))
	}
	d := res.Deadlines[0]
	if d.AnchorEvent != "served" || d.AnchorDate != "2024-03-01" {
		t.Fatalf("anchor = %s %s", d.AnchorEvent, d.AnchorDate)
	}
	if d.DueDate == nil || *d.DueDate != "2024-03-22" {
		t.Fatalf("due = %v, want 2024-03-22 (served + 21 days)", d.DueDate)
	}
	if d.Criticality != "hard" || d.Status != domain.DeadlineStatusPending {
		t.Fatalf("criticality/status = %s/%s", d.Criticality, d.Status)
	}
	if !strings.Contains(d.Title, "FRCP 12(a)(1)(A)") {
		t.Fatalf("title %q missing rule citation", d.Title)
	}

	if len(res.ActionIDs) != 1 {
		t.Fatalf("actions = %d, want 1", len(res.ActionIDs))
	}
	a, err := env.Engine.Repo.GetAction(env.Ctx, res.ActionIDs[0])
	if err != nil {
		t.Fatal(err)
	}
	if a.Type != "file" {
		t.Fatalf("action type = %s", a.Type)
	}
	if a.DaysRemaining != 17 {
		t.Fatalf("days remaining = %d, want 17", a.DaysRemaining)
	}
	if a.Priority != domain.PriorityMedium {
		t.Fatalf("priority = %s, want medium (>14 days, hard deadline)", a.Priority)
	}
	if a.RequiredDocType == nil || *a.RequiredDocType != domain.DocAnswer {
		t.Fatalf("required doc type = %v", a.RequiredDocType)
	}
	if a.Status != domain.ActionStatusDraft {
		t.Fatalf("status = %s", a.Status)
	}
}

func TestIngestIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	res := env.ingest(t, "complaint.pdf", "Served on March 1, 2024.")
	if len(res.Deadlines) != 1 || len(res.ActionIDs) != 1 {
		t.Fatalf("first pass: %d deadlines, %d actions", len(res.Deadlines), len(res.ActionIDs))
	}

	again, err := env.Engine.ApplyDeadlineRules(env.Ctx, res.Filing.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Fatalf("re-applying rules created %d deadlines", len(again))
	}
	ids, err := env.Engine.CreateActionsFromDeadlines(env.Ctx, env.Matter.ID, "", "tester")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Fatalf("re-generating created %d actions", len(ids))
	}
}

func TestAnchorPrefersServedOverFiled(t *testing.T) {
	env := newTestEnv(t)
	res := env.ingest(t, "complaint.pdf", "Filed on March 1, 2024. Served on March 3, 2024.")
	if len(res.Deadlines) != 1 {
		t.Fatalf("deadlines = %d", len(res.Deadlines))
	}
	d := res.Deadlines[0]
	if d.AnchorEvent != "served" || d.AnchorDate != "2024-03-03" {
		t.Fatalf("anchor = %s %s, want served 2024-03-03", d.AnchorEvent, d.AnchorDate)
	}
}

func TestUploadFallbackAnchor(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.Engine.IngestFiling(env.Ctx, engine.IngestOptions{
		MatterID:   env.Matter.ID,
		FileName:   "order.pdf",
		Text:       "The court rules as follows.",
		UploadedAt: time.Date(2024, 3, 5, 16, 0, 0, 0, time.UTC),
		ActorID:    "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Filing.FiledDate == nil || res.Filing.FiledDate.Value != "2024-03-05" {
		t.Fatalf("filed = %+v, want upload-date fallback", res.Filing.FiledDate)
	}
	if res.Filing.FiledDate.Source != "upload-timestamp" {
		t.Fatalf("source = %s", res.Filing.FiledDate.Source)
	}
	if len(res.Deadlines) != 1 {
		t.Fatalf("deadlines = %d", len(res.Deadlines))
	}
	d := res.Deadlines[0]
	if d.AnchorEvent != "filed" {
		t.Fatalf("anchor event = %s", d.AnchorEvent)
	}
	if d.DueDate == nil || *d.DueDate != "2024-03-12" {
		t.Fatalf("due = %v, want 2024-03-12 (upload + 7 days)", d.DueDate)
	}
}

func TestSubtypeRuleMatching(t *testing.T) {
	env := newTestEnv(t)
	res := env.ingest(t, "Interrogatories Set One.pdf", "You are required to respond.")
	if res.Filing.DocSubtype == nil || *res.Filing.DocSubtype != "Interrogatories" {
		t.Fatalf("subtype = %v", res.Filing.DocSubtype)
	}
	if len(res.Deadlines) != 1 {
		t.Fatalf("deadlines = %d, want only the interrogatories rule", len(res.Deadlines))
	}
	if res.Deadlines[0].Source != "FRCP 33(b)(2)" {
		t.Fatalf("source = %s", res.Deadlines[0].Source)
	}
}

func TestOverdueDeadlineIsCritical(t *testing.T) {
	env := newTestEnv(t)
	// Served 2024-02-01 + 21 days puts the due date well before Now.
	res := env.ingest(t, "complaint.pdf", "Served on February 1, 2024.")
	a, err := env.Engine.Repo.GetAction(env.Ctx, res.ActionIDs[0])
	if err != nil {
		t.Fatal(err)
	}
	if a.DaysRemaining >= 0 {
		t.Fatalf("days remaining = %d, want negative", a.DaysRemaining)
	}
	if a.Priority != domain.PriorityCritical {
		t.Fatalf("priority = %s, want critical for an overdue deadline", a.Priority)
	}
}

func TestRefreshActionSchedules(t *testing.T) {
	env := newTestEnv(t)
	res := env.ingest(t, "complaint.pdf", "Served on March 1, 2024.")

	// Two weeks pass; the same deadline is now two days out.
	env.Engine.Now = func() time.Time { return time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC) }
	actions, err := env.Engine.RefreshActionSchedules(env.Ctx, env.Matter.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) != 1 {
		t.Fatalf("actions = %d", len(actions))
	}
	if actions[0].DaysRemaining != 2 {
		t.Fatalf("days remaining = %d, want 2", actions[0].DaysRemaining)
	}
	if actions[0].Priority != domain.PriorityUrgent {
		t.Fatalf("priority = %s, want urgent", actions[0].Priority)
	}
	// Persisted, not just recomputed.
	stored, err := env.Engine.Repo.GetAction(env.Ctx, res.ActionIDs[0])
	if err != nil {
		t.Fatal(err)
	}
	if stored.DaysRemaining != 2 || stored.Priority != domain.PriorityUrgent {
		t.Fatalf("stored schedule = %d/%s", stored.DaysRemaining, stored.Priority)
	}
}

func TestGenerateNextActionsDoesNotPersist(t *testing.T) {
	env := newTestEnv(t)
	env.ingest(t, "order.pdf", "The court orders compliance.")
	env.ingest(t, "complaint.pdf", "Served on March 1, 2024.")

	// Drop the persisted actions so only deadlines remain.
	if _, err := env.Engine.DB.Exec(`DELETE FROM actions`); err != nil {
		t.Fatal(err)
	}
	candidates, err := env.Engine.GenerateNextActions(env.Ctx, env.Matter.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(candidates))
	}
	if candidates[0].DaysRemaining > candidates[1].DaysRemaining {
		t.Fatal("candidates not sorted soonest first")
	}
	persisted, err := env.Engine.Repo.ListActions(env.Ctx, env.Matter.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(persisted) != 0 {
		t.Fatalf("preview persisted %d actions", len(persisted))
	}
}

func TestUpdateActionStatusCompletesDeadline(t *testing.T) {
	env := newTestEnv(t)
	res := env.ingest(t, "complaint.pdf", "Served on March 1, 2024.")
	actionID := res.ActionIDs[0]

	a, err := env.Engine.UpdateActionStatus(env.Ctx, actionID, domain.ActionStatusServed, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != domain.ActionStatusServed {
		t.Fatalf("status = %s", a.Status)
	}
	d, err := env.Engine.Repo.GetDeadline(env.Ctx, res.Deadlines[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if d.Status != domain.DeadlineStatusCompleted {
		t.Fatalf("deadline status = %s, want completed", d.Status)
	}
	if d.CompletedAt == nil {
		t.Fatal("expected completed_at")
	}

	audit, err := env.Engine.Repo.ListAudit(env.Ctx, actionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(audit) != 2 {
		t.Fatalf("audit entries = %d, want created + status change", len(audit))
	}
	if audit[0].Event != "created" || audit[1].Event != "status.changed" {
		t.Fatalf("audit events = %s, %s", audit[0].Event, audit[1].Event)
	}
	if !strings.Contains(audit[1].Details, `"from":"draft"`) || !strings.Contains(audit[1].Details, `"to":"served"`) {
		t.Fatalf("audit details = %s", audit[1].Details)
	}

	// Confirming afterwards adds exactly one more entry and leaves the
	// deadline completed.
	if _, err := env.Engine.UpdateActionStatus(env.Ctx, actionID, domain.ActionStatusConfirmed, "tester"); err != nil {
		t.Fatal(err)
	}
	audit, err = env.Engine.Repo.ListAudit(env.Ctx, actionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(audit) != 3 {
		t.Fatalf("audit entries = %d, want 3", len(audit))
	}
}

func TestUpdateActionStatusSkipsValidationOfOrder(t *testing.T) {
	env := newTestEnv(t)
	res := env.ingest(t, "complaint.pdf", "Served on March 1, 2024.")
	actionID := res.ActionIDs[0]

	// Any known status is reachable from any other; there is no transition
	// graph.
	a, err := env.Engine.UpdateActionStatus(env.Ctx, actionID, domain.ActionStatusConfirmed, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != domain.ActionStatusConfirmed {
		t.Fatalf("status = %s", a.Status)
	}
	a, err = env.Engine.UpdateActionStatus(env.Ctx, actionID, domain.ActionStatusDraft, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != domain.ActionStatusDraft {
		t.Fatalf("status = %s", a.Status)
	}

	_, err = env.Engine.UpdateActionStatus(env.Ctx, actionID, "closed", "tester")
	if err == nil || !strings.Contains(err.Error(), "unknown action status") {
		t.Fatalf("err = %v, want unknown action status", err)
	}
}

func TestCasePhaseProgression(t *testing.T) {
	env := newTestEnv(t)
	phase, err := env.Engine.CasePhase(env.Ctx, env.Matter.ID)
	if err != nil {
		t.Fatal(err)
	}
	if phase != engine.PhaseInitial {
		t.Fatalf("phase = %s", phase)
	}
	env.ingest(t, "complaint.pdf", "Served on March 1, 2024.")
	if phase, _ = env.Engine.CasePhase(env.Ctx, env.Matter.ID); phase != engine.PhasePleadings {
		t.Fatalf("phase = %s, want pleadings", phase)
	}
	env.ingest(t, "answer.pdf", "Defendant answers.")
	if phase, _ = env.Engine.CasePhase(env.Ctx, env.Matter.ID); phase != engine.PhasePostAnswer {
		t.Fatalf("phase = %s, want post-answer", phase)
	}
	env.ingest(t, "motion to compel.pdf", "Motion.")
	if phase, _ = env.Engine.CasePhase(env.Ctx, env.Matter.ID); phase != engine.PhaseMotions {
		t.Fatalf("phase = %s, want motions", phase)
	}
	env.ingest(t, "interrogatories.pdf", "Set one.")
	if phase, _ = env.Engine.CasePhase(env.Ctx, env.Matter.ID); phase != engine.PhaseDiscovery {
		t.Fatalf("phase = %s, want discovery", phase)
	}
	env.ingest(t, "settlement agreement.pdf", "The parties agree.")
	if phase, _ = env.Engine.CasePhase(env.Ctx, env.Matter.ID); phase != engine.PhaseSettlement {
		t.Fatalf("phase = %s, want settlement", phase)
	}
}

func TestPhaseOfLastMatchWins(t *testing.T) {
	mk := func(docType, category string) domain.Filing {
		return domain.Filing{DocType: docType, Category: category}
	}
	cases := []struct {
		name    string
		filings []domain.Filing
		want    string
	}{
		{"empty", nil, engine.PhaseInitial},
		{"answer without complaint", []domain.Filing{mk(domain.DocAnswer, domain.CategoryPleading)}, engine.PhasePostAnswer},
		{"discovery beats motions", []domain.Filing{
			mk(domain.DocMotion, domain.CategoryMotion),
			mk(domain.DocDiscoveryRequest, domain.CategoryDiscovery),
		}, engine.PhaseDiscovery},
		{"settlement beats everything", []domain.Filing{
			mk(domain.DocComplaint, domain.CategoryPleading),
			mk(domain.DocDiscoveryRequest, domain.CategoryDiscovery),
			mk(domain.DocSettlementAgreement, domain.CategoryCorrespondence),
		}, engine.PhaseSettlement},
	}
	for _, c := range cases {
		if got := engine.PhaseOf(c.filings); got != c.want {
			t.Errorf("%s: phase = %s, want %s", c.name, got, c.want)
		}
	}
}

func TestGenerateDraftForDiscoveryAction(t *testing.T) {
	env := newTestEnv(t)
	res := env.ingest(t, "Interrogatories Set One.pdf", "Responses are required.")
	d, err := env.Engine.GenerateDraftForAction(env.Ctx, res.ActionIDs[0], "tester")
	if err != nil {
		t.Fatal(err)
	}
	if d == nil {
		t.Fatal("expected a draft")
	}
	if d.TemplateType != "discovery-response" {
		t.Fatalf("template = %s", d.TemplateType)
	}
	if d.FilingID != res.Filing.ID {
		t.Fatalf("filing id = %s", d.FilingID)
	}
	drafts, err := env.Engine.Repo.ListDrafts(env.Ctx, env.Matter.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(drafts) != 1 {
		t.Fatalf("drafts = %d", len(drafts))
	}
}

func TestGenerateDraftNoTemplate(t *testing.T) {
	env := newTestEnv(t)
	res := env.ingest(t, "order.pdf", "The court orders compliance.")
	// An Order's action (review) has no draft template.
	d, err := env.Engine.GenerateDraftForAction(env.Ctx, res.ActionIDs[0], "tester")
	if err != nil {
		t.Fatal(err)
	}
	if d != nil {
		t.Fatalf("got draft %+v, want nil", d)
	}
}

func TestBoardSyncRequiresBoard(t *testing.T) {
	env := newTestEnv(t)
	env.ingest(t, "complaint.pdf", "Served on March 1, 2024.")
	_, err := env.Engine.CreateBoardTasksFromActions(env.Ctx, env.Matter.ID, "tester")
	if err == nil || !strings.Contains(err.Error(), "no board configured") {
		t.Fatalf("err = %v, want no board configured", err)
	}
}

func TestEventLog(t *testing.T) {
	env := newTestEnv(t)
	env.ingest(t, "complaint.pdf", "Served on March 1, 2024.")
	events, err := env.Engine.Repo.LatestEvents(env.Ctx, 50, env.Matter.ID, "", "", "")
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, evt := range events {
		seen[evt.Type] = true
	}
	for _, want := range []string{"matter.created", "filing.ingested", "deadline.created", "action.created"} {
		if !seen[want] {
			t.Errorf("missing event %s in %v", want, seen)
		}
	}
}
