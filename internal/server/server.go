package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"docketline/internal/engine"
	"docketline/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"matter not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

type requestKey struct{}
type bodyBytesKey struct{}

// apiError models the error envelope every endpoint returns.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Docketline API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			ctx = context.WithValue(ctx, bodyBytesKey{}, bodyBytes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	hcfg := huma.DefaultConfig("Docketline API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerMatters(group, cfg.Engine)
	registerFilings(group, cfg.Engine)
	registerDeadlines(group, cfg.Engine)
	registerActions(group, cfg.Engine)
	registerDrafts(group, cfg.Engine)
	registerRules(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	startCalendarDispatcher(cfg.Engine)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "unknown action status"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	case strings.Contains(lowered, "no rule catalog"),
		strings.Contains(lowered, "no board configured"):
		return newAPIError(http.StatusUnprocessableEntity, "validation_failed", msg, nil)
	case strings.Contains(lowered, "invalid") || strings.Contains(lowered, "missing") || strings.Contains(lowered, "required"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func bodyBytes(ctx context.Context) []byte {
	b, _ := ctx.Value(bodyBytesKey{}).([]byte)
	return b
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Docketline API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerMatters(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-matter",
		Method:        http.MethodPost,
		Path:          "/matters",
		Summary:       "Create matter",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateMatterRequest `json:"body"`
	}) (*struct {
		Body MatterResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.Title == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "title is required", nil)
		}
		m, err := e.InitMatter(ctx,
			input.Body.Title,
			stringOrEmpty(input.Body.CaseNumber),
			stringOrEmpty(input.Body.Court),
			stringOrEmpty(input.Body.Jurisdiction),
			actorFromRequest(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MatterResponse `json:"body"`
		}{Body: matterResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-matters",
		Method:      http.MethodGet,
		Path:        "/matters",
		Summary:     "List matters",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []MatterResponse `json:"body"`
	}, error) {
		items, err := e.Repo.ListMatters(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []MatterResponse `json:"body"`
		}{Body: mapMatters(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-matter",
		Method:      http.MethodGet,
		Path:        "/matters/{matter_id}",
		Summary:     "Get matter",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MatterID string `path:"matter_id"`
	}) (*struct {
		Body MatterResponse `json:"body"`
	}, error) {
		m, err := e.Repo.GetMatter(ctx, input.MatterID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MatterResponse `json:"body"`
		}{Body: matterResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "matter-status",
		Method:      http.MethodGet,
		Path:        "/matters/{matter_id}/status",
		Summary:     "Matter status and docket phase",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MatterID string `path:"matter_id"`
	}) (*struct {
		Body map[string]any `json:"body"`
	}, error) {
		m, err := e.Repo.GetMatter(ctx, input.MatterID)
		if err != nil {
			return nil, handleError(err)
		}
		phase, err := e.CasePhase(ctx, m.ID)
		if err != nil {
			return nil, handleError(err)
		}
		filings, err := e.Repo.ListFilings(ctx, m.ID)
		if err != nil {
			return nil, handleError(err)
		}
		openDeadlines, err := e.Repo.ListDeadlines(ctx, m.ID, "pending")
		if err != nil {
			return nil, handleError(err)
		}
		openActions, err := e.Repo.OpenActions(ctx, m.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]any `json:"body"`
		}{Body: map[string]any{
			"matter_id":         m.ID,
			"status":            m.Status,
			"phase":             phase,
			"filings":           len(filings),
			"pending_deadlines": len(openDeadlines),
			"open_actions":      len(openActions),
		}}, nil
	})
}

func registerFilings(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "ingest-filing",
		Method:        http.MethodPost,
		Path:          "/matters/{matter_id}/filings",
		Summary:       "Ingest filing text",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		MatterID string              `path:"matter_id"`
		Body     IngestFilingRequest `json:"body"`
	}) (*struct {
		Body IngestResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.FileName == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "file_name is required", nil)
		}
		var uploadedAt time.Time
		if input.Body.UploadedAt != nil {
			t, err := time.Parse(time.RFC3339, *input.Body.UploadedAt)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid uploaded_at", map[string]any{"error": err.Error()})
			}
			uploadedAt = t
		}
		res, err := e.IngestFiling(ctx, engine.IngestOptions{
			MatterID:   input.MatterID,
			FileName:   input.Body.FileName,
			Text:       input.Body.Text,
			UploadedAt: uploadedAt,
			AssigneeID: stringOrEmpty(input.Body.AssigneeID),
			ActorID:    actorFromRequest(ctx),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body IngestResponse `json:"body"`
		}{Body: ingestResponse(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-filings",
		Method:      http.MethodGet,
		Path:        "/matters/{matter_id}/filings",
		Summary:     "List filings",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MatterID string `path:"matter_id"`
	}) (*struct {
		Body []FilingResponse `json:"body"`
	}, error) {
		if _, err := e.Repo.GetMatter(ctx, input.MatterID); err != nil {
			return nil, handleError(err)
		}
		items, err := e.Repo.ListFilings(ctx, input.MatterID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []FilingResponse `json:"body"`
		}{Body: mapFilings(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-filing",
		Method:      http.MethodGet,
		Path:        "/matters/{matter_id}/filings/{id}",
		Summary:     "Get filing",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MatterID string `path:"matter_id"`
		ID       string `path:"id"`
	}) (*struct {
		Body FilingResponse `json:"body"`
	}, error) {
		f, err := e.Repo.GetFiling(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		if f.MatterID != input.MatterID {
			return nil, newAPIError(http.StatusNotFound, "not_found", "filing not found in matter", nil)
		}
		return &struct {
			Body FilingResponse `json:"body"`
		}{Body: filingResponse(f)}, nil
	})
}

func registerDeadlines(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-deadlines",
		Method:      http.MethodGet,
		Path:        "/matters/{matter_id}/deadlines",
		Summary:     "List deadlines",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MatterID string `path:"matter_id"`
		Status   string `query:"status" enum:"pending,in-progress,completed"`
	}) (*struct {
		Body []DeadlineResponse `json:"body"`
	}, error) {
		if _, err := e.Repo.GetMatter(ctx, input.MatterID); err != nil {
			return nil, handleError(err)
		}
		items, err := e.Repo.ListDeadlines(ctx, input.MatterID, input.Status)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []DeadlineResponse `json:"body"`
		}{Body: mapDeadlines(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "apply-deadline-rules",
		Method:      http.MethodPost,
		Path:        "/matters/{matter_id}/deadlines/apply",
		Summary:     "Apply deadline rules to a filing",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		MatterID string            `path:"matter_id"`
		Body     ApplyRulesRequest `json:"body"`
	}) (*struct {
		Body []DeadlineResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.FilingID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "filing_id is required", nil)
		}
		f, err := e.Repo.GetFiling(ctx, input.Body.FilingID)
		if err != nil {
			return nil, handleError(err)
		}
		if f.MatterID != input.MatterID {
			return nil, newAPIError(http.StatusNotFound, "not_found", "filing not found in matter", nil)
		}
		created, err := e.ApplyDeadlineRules(ctx, f.ID, actorFromRequest(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []DeadlineResponse `json:"body"`
		}{Body: mapDeadlines(created)}, nil
	})
}

func registerActions(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-actions",
		Method:      http.MethodGet,
		Path:        "/matters/{matter_id}/actions",
		Summary:     "List actions",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MatterID string `path:"matter_id"`
		Status   string `query:"status" enum:"draft,review,final,file,served,confirmed"`
	}) (*struct {
		Body []ActionResponse `json:"body"`
	}, error) {
		if _, err := e.Repo.GetMatter(ctx, input.MatterID); err != nil {
			return nil, handleError(err)
		}
		items, err := e.Repo.ListActions(ctx, input.MatterID, input.Status)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ActionResponse `json:"body"`
		}{Body: mapActions(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "next-actions",
		Method:      http.MethodGet,
		Path:        "/matters/{matter_id}/actions/next",
		Summary:     "Preview next actions",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MatterID string `path:"matter_id"`
	}) (*struct {
		Body []ActionResponse `json:"body"`
	}, error) {
		if _, err := e.Repo.GetMatter(ctx, input.MatterID); err != nil {
			return nil, handleError(err)
		}
		items, err := e.GenerateNextActions(ctx, input.MatterID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ActionResponse `json:"body"`
		}{Body: mapActions(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "generate-actions",
		Method:        http.MethodPost,
		Path:          "/matters/{matter_id}/actions/generate",
		Summary:       "Create actions from open deadlines",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusNotFound,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		MatterID string                 `path:"matter_id"`
		Body     GenerateActionsRequest `json:"body"`
	}) (*struct {
		Body []string `json:"body"`
	}, error) {
		if _, err := e.Repo.GetMatter(ctx, input.MatterID); err != nil {
			return nil, handleError(err)
		}
		ids, err := e.CreateActionsFromDeadlines(ctx, input.MatterID, stringOrEmpty(input.Body.AssigneeID), actorFromRequest(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		if ids == nil {
			ids = []string{}
		}
		return &struct {
			Body []string `json:"body"`
		}{Body: ids}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-action-status",
		Method:      http.MethodPatch,
		Path:        "/matters/{matter_id}/actions/{id}/status",
		Summary:     "Set action status",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		MatterID string                 `path:"matter_id"`
		ID       string                 `path:"id"`
		Body     SetActionStatusRequest `json:"body"`
	}) (*struct {
		Body ActionResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.Status == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "status is required", nil)
		}
		a, err := e.Repo.GetAction(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		if a.MatterID != input.MatterID {
			return nil, newAPIError(http.StatusNotFound, "not_found", "action not found in matter", nil)
		}
		updated, err := e.UpdateActionStatus(ctx, input.ID, input.Body.Status, actorFromRequest(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ActionResponse `json:"body"`
		}{Body: actionResponse(updated)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "action-audit",
		Method:      http.MethodGet,
		Path:        "/matters/{matter_id}/actions/{id}/audit",
		Summary:     "Action audit trail",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MatterID string `path:"matter_id"`
		ID       string `path:"id"`
	}) (*struct {
		Body []AuditEntryResponse `json:"body"`
	}, error) {
		a, err := e.Repo.GetAction(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		if a.MatterID != input.MatterID {
			return nil, newAPIError(http.StatusNotFound, "not_found", "action not found in matter", nil)
		}
		entries, err := e.Repo.ListAudit(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []AuditEntryResponse `json:"body"`
		}{Body: mapAudit(entries)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "sync-board",
		Method:      http.MethodPost,
		Path:        "/matters/{matter_id}/board/sync",
		Summary:     "Create board tasks for open actions",
		Errors: []int{
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		MatterID string `path:"matter_id"`
	}) (*struct {
		Body []string `json:"body"`
	}, error) {
		if _, err := e.Repo.GetMatter(ctx, input.MatterID); err != nil {
			return nil, handleError(err)
		}
		linked, err := e.CreateBoardTasksFromActions(ctx, input.MatterID, actorFromRequest(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		if linked == nil {
			linked = []string{}
		}
		return &struct {
			Body []string `json:"body"`
		}{Body: linked}, nil
	})
}

func registerDrafts(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "generate-draft",
		Method:      http.MethodPost,
		Path:        "/matters/{matter_id}/actions/{id}/draft",
		Summary:     "Generate first-draft document",
		Errors: []int{
			http.StatusNotFound,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		MatterID string `path:"matter_id"`
		ID       string `path:"id"`
	}) (*struct {
		Body GenerateDraftResponse `json:"body"`
	}, error) {
		a, err := e.Repo.GetAction(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		if a.MatterID != input.MatterID {
			return nil, newAPIError(http.StatusNotFound, "not_found", "action not found in matter", nil)
		}
		d, err := e.GenerateDraftForAction(ctx, input.ID, actorFromRequest(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		resp := GenerateDraftResponse{}
		if d != nil {
			dd := draftResponse(*d)
			resp.Draft = &dd
		}
		return &struct {
			Body GenerateDraftResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-drafts",
		Method:      http.MethodGet,
		Path:        "/matters/{matter_id}/drafts",
		Summary:     "List draft documents",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MatterID string `path:"matter_id"`
	}) (*struct {
		Body []DraftResponse `json:"body"`
	}, error) {
		if _, err := e.Repo.GetMatter(ctx, input.MatterID); err != nil {
			return nil, handleError(err)
		}
		items, err := e.Repo.ListDrafts(ctx, input.MatterID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []DraftResponse `json:"body"`
		}{Body: mapDrafts(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-draft",
		Method:      http.MethodGet,
		Path:        "/matters/{matter_id}/drafts/{id}",
		Summary:     "Get draft document",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MatterID string `path:"matter_id"`
		ID       string `path:"id"`
	}) (*struct {
		Body DraftResponse `json:"body"`
	}, error) {
		d, err := e.Repo.GetDraft(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		if d.MatterID != input.MatterID {
			return nil, newAPIError(http.StatusNotFound, "not_found", "draft not found in matter", nil)
		}
		return &struct {
			Body DraftResponse `json:"body"`
		}{Body: draftResponse(d)}, nil
	})
}

func registerRules(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-rules",
		Method:      http.MethodGet,
		Path:        "/rules",
		Summary:     "List deadline rules",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Jurisdiction string `query:"jurisdiction"`
	}) (*struct {
		Body []RuleResponse `json:"body"`
	}, error) {
		if input.Jurisdiction == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "jurisdiction is required", nil)
		}
		if _, err := e.SeedJurisdiction(ctx, input.Jurisdiction, actorFromRequest(ctx)); err != nil {
			return nil, handleError(err)
		}
		items, err := e.Repo.ListRules(ctx, input.Jurisdiction)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []RuleResponse `json:"body"`
		}{Body: mapRules(items)}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/matters/{matter_id}/events",
		Summary:     "List docket events",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MatterID   string `path:"matter_id"`
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind"`
		EntityID   string `query:"entity_id"`
		Limit      int    `query:"limit" default:"50"`
	}) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		if _, err := e.Repo.GetMatter(ctx, input.MatterID); err != nil {
			return nil, handleError(err)
		}
		limit := input.Limit
		if limit <= 0 || limit > 500 {
			limit = 50
		}
		items, err := e.Repo.LatestEvents(ctx, limit, input.MatterID, input.Type, input.EntityKind, input.EntityID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: mapEvents(items)}, nil
	})
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// actorFromRequest reports the caller identity for audit purposes, taken from
// the X-Actor-Id header when present.
func actorFromRequest(ctx context.Context) string {
	r, _ := ctx.Value(requestKey{}).(*http.Request)
	if r == nil {
		return ""
	}
	return r.Header.Get("X-Actor-Id")
}
