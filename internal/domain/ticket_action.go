package domain

import "time"

// Action summaries recorded by the workflow.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// TicketAction is an immutable audit trail entry. One row is appended for
// every mutating workflow call against the owning ticket.
type TicketAction struct {
	ID        string
	TicketID  string
	UserID    string
	Action    string
	Notes     *string
	CreatedAt time.Time
}
