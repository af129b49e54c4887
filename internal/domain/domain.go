package domain

type Matter struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	CaseNumber   string `json:"case_number,omitempty"`
	Court        string `json:"court,omitempty"`
	Jurisdiction string `json:"jurisdiction"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at" format:"date-time"`
}

// ExtractedDate is a date pulled from document text together with how sure we
// are about it and where it came from.
type ExtractedDate struct {
	Value      string  `json:"value" format:"date"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	Snippet    string  `json:"snippet,omitempty"`
}

type Filing struct {
	ID          string            `json:"id"`
	MatterID    string            `json:"matter_id"`
	DocType     string            `json:"doc_type"`
	DocSubtype  *string           `json:"doc_subtype,omitempty"`
	Category    string            `json:"category" enum:"pleading,motion,discovery,order-ruling,correspondence,admin-operations"`
	Confidence  float64           `json:"confidence"`
	FiledDate   *ExtractedDate    `json:"filed_date,omitempty"`
	ServedDate  *ExtractedDate    `json:"served_date,omitempty"`
	HearingDate *ExtractedDate    `json:"hearing_date,omitempty"`
	AnchorDate  *string           `json:"anchor_date,omitempty" format:"date"`
	Parties     []string          `json:"parties,omitempty"`
	Facts       map[string]string `json:"facts,omitempty"`
	RelatedDoc  *string           `json:"related_doc,omitempty"`
	FileName    string            `json:"file_name"`
	UploadedAt  string            `json:"uploaded_at" format:"date-time"`
	CreatedAt   string            `json:"created_at" format:"date-time"`
}

type DeadlineRule struct {
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

type Deadline struct {
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

type Action struct {
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

// AuditEntry is one row of an Action's append-only trail. ID is the monotonic
// sequence within the table; entries for one action are ordered by it.
type AuditEntry struct {
	ID       int64  `json:"id"`
	ActionID string `json:"action_id"`
	Event    string `json:"event"`
	TS       string `json:"ts" format:"date-time"`
	Actor    string `json:"actor"`
	Details  string `json:"details_json,omitempty"`
}

type DraftDocument struct {
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

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	MatterID   string `json:"matter_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

// Filing classification vocabulary. These are the closed enumerations the
// classifier validates against.
const (
	DocComplaint           = "Complaint"
	DocAnswer              = "Answer"
	DocMotion              = "Motion"
	DocOpposition          = "Opposition"
	DocReply               = "Reply"
	DocDiscoveryRequest    = "Discovery Request"
	DocDiscoveryResponse   = "Discovery Response"
	DocOrder               = "Order"
	DocNotice              = "Notice"
	DocSubpoena            = "Subpoena"
	DocSettlementAgreement = "Settlement Agreement"
	DocCorrespondence      = "Correspondence"
	DocFilingConfirmation  = "Filing Confirmation"
	DocOther               = "Other"
)

const (
	CategoryPleading       = "pleading"
	CategoryMotion         = "motion"
	CategoryDiscovery      = "discovery"
	CategoryOrderRuling    = "order-ruling"
	CategoryCorrespondence = "correspondence"
	CategoryAdminOps       = "admin-operations"
)

// Action lifecycle statuses, in forward order. The engine reacts to whatever
// status a caller sets; it does not enforce the transition graph.
const (
	ActionStatusDraft     = "draft"
	ActionStatusReview    = "review"
	ActionStatusFinal     = "final"
	ActionStatusFile      = "file"
	ActionStatusServed    = "served"
	ActionStatusConfirmed = "confirmed"
)

const (
	DeadlineStatusPending    = "pending"
	DeadlineStatusInProgress = "in-progress"
	DeadlineStatusCompleted  = "completed"
)

const (
	PriorityCritical = "critical"
	PriorityUrgent   = "urgent"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// DocTypes lists every recognized document type.
func DocTypes() []string {
	return []string{
		DocComplaint, DocAnswer, DocMotion, DocOpposition, DocReply,
		DocDiscoveryRequest, DocDiscoveryResponse, DocOrder, DocNotice,
		DocSubpoena, DocSettlementAgreement, DocCorrespondence,
		DocFilingConfirmation, DocOther,
	}
}

// Categories lists every category bucket.
func Categories() []string {
	return []string{
		CategoryPleading, CategoryMotion, CategoryDiscovery,
		CategoryOrderRuling, CategoryCorrespondence, CategoryAdminOps,
	}
}
