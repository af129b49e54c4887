package server

import (
	"docketline/internal/domain"
	"docketline/internal/engine"
)

// Request payloads

type CreateMatterRequest struct {
	Title        string  `json:"title"`
	CaseNumber   *string `json:"case_number,omitempty"`
	Court        *string `json:"court,omitempty"`
	Jurisdiction *string `json:"jurisdiction,omitempty"`
}

type IngestFilingRequest struct {
	FileName   string  `json:"file_name"`
	Text       string  `json:"text"`
	UploadedAt *string `json:"uploaded_at,omitempty" format:"date-time"`
	AssigneeID *string `json:"assignee_id,omitempty"`
}

type ApplyRulesRequest struct {
	FilingID string `json:"filing_id"`
}

type GenerateActionsRequest struct {
	AssigneeID *string `json:"assignee_id,omitempty"`
}

type SetActionStatusRequest struct {
	Status string `json:"status" enum:"draft,review,final,file,served,confirmed"`
}

// Response payloads

type MatterResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	CaseNumber   string `json:"case_number,omitempty"`
	Court        string `json:"court,omitempty"`
	Jurisdiction string `json:"jurisdiction"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at" format:"date-time"`
}

type ExtractedDateResponse struct {
	Value      string  `json:"value" format:"date"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	Snippet    string  `json:"snippet,omitempty"`
}

type FilingResponse struct {
	ID          string                 `json:"id"`
	MatterID    string                 `json:"matter_id"`
	DocType     string                 `json:"doc_type"`
	DocSubtype  *string                `json:"doc_subtype,omitempty"`
	Category    string                 `json:"category"`
	Confidence  float64                `json:"confidence"`
	FiledDate   *ExtractedDateResponse `json:"filed_date,omitempty"`
	ServedDate  *ExtractedDateResponse `json:"served_date,omitempty"`
	HearingDate *ExtractedDateResponse `json:"hearing_date,omitempty"`
	AnchorDate  *string                `json:"anchor_date,omitempty" format:"date"`
	Parties     []string               `json:"parties,omitempty"`
	Facts       map[string]string      `json:"facts,omitempty"`
	RelatedDoc  *string                `json:"related_doc,omitempty"`
	FileName    string                 `json:"file_name"`
	UploadedAt  string                 `json:"uploaded_at" format:"date-time"`
	CreatedAt   string                 `json:"created_at" format:"date-time"`
}

type DeadlineResponse struct {
	ID             string  `json:"id"`
	MatterID       string  `json:"matter_id"`
	FilingID       *string `json:"filing_id,omitempty"`
	RuleID         *string `json:"rule_id,omitempty"`
	Title          string  `json:"title"`
	ActionRequired string  `json:"action_required"`
	DueDate        *string `json:"due_date,omitempty" format:"date"`
	AnchorEvent    string  `json:"anchor_event"`
	AnchorDate     string  `json:"anchor_date" format:"date"`
	Source         string  `json:"source"`
	Criticality    string  `json:"criticality" enum:"hard,soft"`
	Status         string  `json:"status" enum:"pending,in-progress,completed"`
	CompletedAt    *string `json:"completed_at,omitempty" format:"date-time"`
	CreatedAt      string  `json:"created_at" format:"date-time"`
}

type ActionResponse struct {
	ID              string  `json:"id"`
	MatterID        string  `json:"matter_id"`
	DeadlineID      *string `json:"deadline_id,omitempty"`
	FilingID        *string `json:"filing_id,omitempty"`
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	Type            string  `json:"type" enum:"file,serve,draft,review,prepare,task"`
	RequiredDocType *string `json:"required_doc_type,omitempty"`
	Status          string  `json:"status" enum:"draft,review,final,file,served,confirmed"`
	Priority        string  `json:"priority" enum:"critical,urgent,high,medium,low"`
	DueDate         *string `json:"due_date,omitempty" format:"date"`
	DaysRemaining   int     `json:"days_remaining"`
	AssigneeID      *string `json:"assignee_id,omitempty"`
	BoardTaskID     *string `json:"board_task_id,omitempty"`
	CreatedAt       string  `json:"created_at" format:"date-time"`
	UpdatedAt       string  `json:"updated_at" format:"date-time"`
}

type AuditEntryResponse struct {
	ID       int64  `json:"id"`
	ActionID string `json:"action_id"`
	Event    string `json:"event"`
	TS       string `json:"ts" format:"date-time"`
	Actor    string `json:"actor"`
	Details  string `json:"details,omitempty"`
}

type DraftResponse struct {
	ID           string  `json:"id"`
	MatterID     string  `json:"matter_id"`
	FilingID     string  `json:"filing_id"`
	DeadlineID   *string `json:"deadline_id,omitempty"`
	ActionID     *string `json:"action_id,omitempty"`
	TemplateType string  `json:"template_type"`
	Title        string  `json:"title"`
	Content      string  `json:"content"`
	CreatedAt    string  `json:"created_at" format:"date-time"`
}

type RuleResponse struct {
	ID             string  `json:"id"`
	Jurisdiction   string  `json:"jurisdiction"`
	Source         string  `json:"source"`
	TriggerType    string  `json:"trigger_type"`
	TriggerSubtype *string `json:"trigger_subtype,omitempty"`
	OffsetDays     int     `json:"offset_days"`
	Criticality    string  `json:"criticality" enum:"hard,soft"`
	ActionRequired string  `json:"action_required"`
	ResultDocType  *string `json:"result_doc_type,omitempty"`
}

type IngestResponse struct {
	Filing    FilingResponse     `json:"filing"`
	Deadlines []DeadlineResponse `json:"deadlines"`
	ActionIDs []string           `json:"action_ids,omitempty"`
}

type GenerateDraftResponse struct {
	Draft *DraftResponse `json:"draft"`
}

type EventResponse struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	MatterID   string `json:"matter_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload,omitempty"`
}

// Converters

func matterResponse(m domain.Matter) MatterResponse {
	return MatterResponse{
		ID:           m.ID,
		Title:        m.Title,
		CaseNumber:   m.CaseNumber,
		Court:        m.Court,
		Jurisdiction: m.Jurisdiction,
		Status:       m.Status,
		CreatedAt:    m.CreatedAt,
	}
}

func mapMatters(items []domain.Matter) []MatterResponse {
	res := make([]MatterResponse, 0, len(items))
	for _, m := range items {
		res = append(res, matterResponse(m))
	}
	return res
}

func dateResponse(d *domain.ExtractedDate) *ExtractedDateResponse {
	if d == nil {
		return nil
	}
	return &ExtractedDateResponse{Value: d.Value, Confidence: d.Confidence, Source: d.Source, Snippet: d.Snippet}
}

func filingResponse(f domain.Filing) FilingResponse {
	return FilingResponse{
		ID:          f.ID,
		MatterID:    f.MatterID,
		DocType:     f.DocType,
		DocSubtype:  f.DocSubtype,
		Category:    f.Category,
		Confidence:  f.Confidence,
		FiledDate:   dateResponse(f.FiledDate),
		ServedDate:  dateResponse(f.ServedDate),
		HearingDate: dateResponse(f.HearingDate),
		AnchorDate:  f.AnchorDate,
		Parties:     f.Parties,
		Facts:       f.Facts,
		RelatedDoc:  f.RelatedDoc,
		FileName:    f.FileName,
		UploadedAt:  f.UploadedAt,
		CreatedAt:   f.CreatedAt,
	}
}

func mapFilings(items []domain.Filing) []FilingResponse {
	res := make([]FilingResponse, 0, len(items))
	for _, f := range items {
		res = append(res, filingResponse(f))
	}
	return res
}

func deadlineResponse(d domain.Deadline) DeadlineResponse {
	return DeadlineResponse{
		ID:             d.ID,
		MatterID:       d.MatterID,
		FilingID:       d.FilingID,
		RuleID:         d.RuleID,
		Title:          d.Title,
		ActionRequired: d.ActionRequired,
		DueDate:        d.DueDate,
		AnchorEvent:    d.AnchorEvent,
		AnchorDate:     d.AnchorDate,
		Source:         d.Source,
		Criticality:    d.Criticality,
		Status:         d.Status,
		CompletedAt:    d.CompletedAt,
		CreatedAt:      d.CreatedAt,
	}
}

func mapDeadlines(items []domain.Deadline) []DeadlineResponse {
	res := make([]DeadlineResponse, 0, len(items))
	for _, d := range items {
		res = append(res, deadlineResponse(d))
	}
	return res
}

func actionResponse(a domain.Action) ActionResponse {
	return ActionResponse{
		ID:              a.ID,
		MatterID:        a.MatterID,
		DeadlineID:      a.DeadlineID,
		FilingID:        a.FilingID,
		Title:           a.Title,
		Description:     a.Description,
		Type:            a.Type,
		RequiredDocType: a.RequiredDocType,
		Status:          a.Status,
		Priority:        a.Priority,
		DueDate:         a.DueDate,
		DaysRemaining:   a.DaysRemaining,
		AssigneeID:      a.AssigneeID,
		BoardTaskID:     a.BoardTaskID,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func mapActions(items []domain.Action) []ActionResponse {
	res := make([]ActionResponse, 0, len(items))
	for _, a := range items {
		res = append(res, actionResponse(a))
	}
	return res
}

func auditResponse(e domain.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{ID: e.ID, ActionID: e.ActionID, Event: e.Event, TS: e.TS, Actor: e.Actor, Details: e.Details}
}

func mapAudit(items []domain.AuditEntry) []AuditEntryResponse {
	res := make([]AuditEntryResponse, 0, len(items))
	for _, e := range items {
		res = append(res, auditResponse(e))
	}
	return res
}

func draftResponse(d domain.DraftDocument) DraftResponse {
	return DraftResponse{
		ID:           d.ID,
		MatterID:     d.MatterID,
		FilingID:     d.FilingID,
		DeadlineID:   d.DeadlineID,
		ActionID:     d.ActionID,
		TemplateType: d.TemplateType,
		Title:        d.Title,
		Content:      d.Content,
		CreatedAt:    d.CreatedAt,
	}
}

func mapDrafts(items []domain.DraftDocument) []DraftResponse {
	res := make([]DraftResponse, 0, len(items))
	for _, d := range items {
		res = append(res, draftResponse(d))
	}
	return res
}

func ruleResponse(r domain.DeadlineRule) RuleResponse {
	return RuleResponse{
		ID:             r.ID,
		Jurisdiction:   r.Jurisdiction,
		Source:         r.Source,
		TriggerType:    r.TriggerType,
		TriggerSubtype: r.TriggerSubtype,
		OffsetDays:     r.OffsetDays,
		Criticality:    r.Criticality,
		ActionRequired: r.ActionRequired,
		ResultDocType:  r.ResultDocType,
	}
}

func mapRules(items []domain.DeadlineRule) []RuleResponse {
	res := make([]RuleResponse, 0, len(items))
	for _, r := range items {
		res = append(res, ruleResponse(r))
	}
	return res
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		MatterID:   e.MatterID,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    e.Payload,
	}
}

func mapEvents(items []domain.Event) []EventResponse {
	res := make([]EventResponse, 0, len(items))
	for _, e := range items {
		res = append(res, eventResponse(e))
	}
	return res
}

func ingestResponse(r engine.IngestResult) IngestResponse {
	return IngestResponse{
		Filing:    filingResponse(r.Filing),
		Deadlines: mapDeadlines(r.Deadlines),
		ActionIDs: r.ActionIDs,
	}
}
