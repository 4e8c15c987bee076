package activity

import "time"

// Action describes what happened to an RFQ.
type Action string

const (
	ActionRFQCreated    Action = "rfq_created"
	ActionRFQUpdated    Action = "rfq_updated"
	ActionLineDeleted   Action = "line_deleted"
	ActionRFQShared     Action = "rfq_shared"
	ActionQuoteReceived Action = "quote_received"
	ActionRFQArchived   Action = "rfq_archived"
	ActionPOGenerated   Action = "po_generated"
	ActionRiskAudited   Action = "risk_audited"
)

// Entry is a single activity record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ActorID   string    `json:"actor_id"`
	Action    Action    `json:"action"`
	RfqID     string    `json:"rfq_id"`
	Summary   string    `json:"summary"`
}
