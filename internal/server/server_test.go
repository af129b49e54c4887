package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"docketline/internal/config"
	"docketline/internal/db"
	"docketline/internal/engine"
	"docketline/internal/migrate"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	cfg := config.Default("federal")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, cfg)
	e.Now = func() time.Time { return time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC) }
	handler, err := New(Config{Engine: e, BasePath: "/v0"})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func TestIngestThroughAPI(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/matters", map[string]any{
		"title":       "Acme v. Doe",
		"case_number": "2:24-cv-01234",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create matter status %d: %s", res.StatusCode, string(data))
	}
	var matter MatterResponse
	if err := json.Unmarshal(data, &matter); err != nil {
		t.Fatalf("unmarshal matter: %v", err)
	}
	if matter.Jurisdiction != "federal" {
		t.Fatalf("jurisdiction = %s", matter.Jurisdiction)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/matters/"+matter.ID+"/filings", map[string]any{
		"file_name": "complaint.pdf",
		"text":      "COMPLAINT FOR DAMAGES\nServed on March 1, 2024.",
	}, map[string]string{"X-Actor-Id": "tester"})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("ingest status %d: %s", res.StatusCode, string(data))
	}
	var ingest IngestResponse
	if err := json.Unmarshal(data, &ingest); err != nil {
		t.Fatalf("unmarshal ingest: %v", err)
	}
	if ingest.Filing.DocType != "Complaint" {
		t.Fatalf("doc type = %s", ingest.Filing.DocType)
	}
	if len(ingest.Deadlines) != 1 || len(ingest.ActionIDs) != 1 {
		t.Fatalf("deadlines/actions = %d/%d", len(ingest.Deadlines), len(ingest.ActionIDs))
	}
	if ingest.Deadlines[0].DueDate == nil || *ingest.Deadlines[0].DueDate != "2024-03-22" {
		t.Fatalf("due = %v", ingest.Deadlines[0].DueDate)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/matters/"+matter.ID+"/deadlines?status=pending", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list deadlines status %d: %s", res.StatusCode, string(data))
	}
	var deadlines []DeadlineResponse
	if err := json.Unmarshal(data, &deadlines); err != nil {
		t.Fatalf("unmarshal deadlines: %v", err)
	}
	if len(deadlines) != 1 {
		t.Fatalf("pending deadlines = %d", len(deadlines))
	}

	actionID := ingest.ActionIDs[0]
	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/v0/matters/"+matter.ID+"/actions/"+actionID+"/status", map[string]any{
		"status": "served",
	}, map[string]string{"X-Actor-Id": "tester"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("set status %d: %s", res.StatusCode, string(data))
	}
	var action ActionResponse
	if err := json.Unmarshal(data, &action); err != nil {
		t.Fatalf("unmarshal action: %v", err)
	}
	if action.Status != "served" {
		t.Fatalf("status = %s", action.Status)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/matters/"+matter.ID+"/deadlines?status=completed", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list completed status %d", res.StatusCode)
	}
	if err := json.Unmarshal(data, &deadlines); err != nil {
		t.Fatalf("unmarshal deadlines: %v", err)
	}
	if len(deadlines) != 1 {
		t.Fatalf("completed deadlines = %d", len(deadlines))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/matters/"+matter.ID+"/actions/"+actionID+"/audit", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("audit status %d: %s", res.StatusCode, string(data))
	}
	var audit []AuditEntryResponse
	if err := json.Unmarshal(data, &audit); err != nil {
		t.Fatalf("unmarshal audit: %v", err)
	}
	if len(audit) != 2 {
		t.Fatalf("audit entries = %d", len(audit))
	}
	if audit[1].Actor != "tester" {
		t.Fatalf("actor = %s, want value from X-Actor-Id", audit[1].Actor)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/matters/"+matter.ID+"/status", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("matter status %d: %s", res.StatusCode, string(data))
	}
	var status map[string]any
	if err := json.Unmarshal(data, &status); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if status["phase"] != "pleadings" {
		t.Fatalf("phase = %v", status["phase"])
	}
}

func TestDraftEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	_, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/matters", map[string]any{"title": "Acme v. Doe"}, nil)
	var matter MatterResponse
	if err := json.Unmarshal(data, &matter); err != nil {
		t.Fatal(err)
	}
	_, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/matters/"+matter.ID+"/filings", map[string]any{
		"file_name": "Interrogatories Set One.pdf",
		"text":      "Responses are required within thirty days.",
	}, nil)
	var ingest IngestResponse
	if err := json.Unmarshal(data, &ingest); err != nil {
		t.Fatal(err)
	}
	if len(ingest.ActionIDs) != 1 {
		t.Fatalf("actions = %d", len(ingest.ActionIDs))
	}

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/matters/"+matter.ID+"/actions/"+ingest.ActionIDs[0]+"/draft", map[string]any{}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("draft status %d: %s", res.StatusCode, string(data))
	}
	var generated GenerateDraftResponse
	if err := json.Unmarshal(data, &generated); err != nil {
		t.Fatal(err)
	}
	if generated.Draft == nil {
		t.Fatal("expected a draft")
	}
	if generated.Draft.TemplateType != "discovery-response" {
		t.Fatalf("template = %s", generated.Draft.TemplateType)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/matters/"+matter.ID+"/drafts", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list drafts status %d", res.StatusCode)
	}
	var drafts []DraftResponse
	if err := json.Unmarshal(data, &drafts); err != nil {
		t.Fatal(err)
	}
	if len(drafts) != 1 {
		t.Fatalf("drafts = %d", len(drafts))
	}
}

func TestErrorEnvelope(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	type envelope struct {
		Error apiErrorBody `json:"error"`
	}

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/matters/does-not-exist", nil, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d: %s", res.StatusCode, string(data))
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Error.Code != "not_found" {
		t.Fatalf("code = %s", env.Error.Code)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/matters", map[string]any{"title": ""}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", res.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Error.Code != "bad_request" {
		t.Fatalf("code = %s", env.Error.Code)
	}

	// Unknown action status maps to 400.
	_, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/matters", map[string]any{"title": "Acme v. Doe"}, nil)
	var matter MatterResponse
	if err := json.Unmarshal(data, &matter); err != nil {
		t.Fatal(err)
	}
	_, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/matters/"+matter.ID+"/filings", map[string]any{
		"file_name": "complaint.pdf", "text": "Served on March 1, 2024.",
	}, nil)
	var ingest IngestResponse
	if err := json.Unmarshal(data, &ingest); err != nil {
		t.Fatal(err)
	}
	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/v0/matters/"+matter.ID+"/actions/"+ingest.ActionIDs[0]+"/status", map[string]any{
		"status": "closed",
	}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", res.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Error.Code != "bad_request" {
		t.Fatalf("code = %s", env.Error.Code)
	}
}

func TestFilingNotFoundInOtherMatter(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	_, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/matters", map[string]any{"title": "Acme v. Doe"}, nil)
	var first MatterResponse
	if err := json.Unmarshal(data, &first); err != nil {
		t.Fatal(err)
	}
	_, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/matters", map[string]any{"title": "Beta v. Roe"}, nil)
	var second MatterResponse
	if err := json.Unmarshal(data, &second); err != nil {
		t.Fatal(err)
	}
	_, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/matters/"+first.ID+"/filings", map[string]any{
		"file_name": "notice.pdf", "text": "Notice of hearing.",
	}, nil)
	var ingest IngestResponse
	if err := json.Unmarshal(data, &ingest); err != nil {
		t.Fatal(err)
	}

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/matters/"+second.ID+"/filings/"+ingest.Filing.ID, nil, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/matters/"+first.ID+"/filings/"+ingest.Filing.ID, nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", res.StatusCode, string(data))
	}
}
