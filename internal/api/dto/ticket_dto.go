package dto

import (
	"time"

	"github.com/ondapiu/ticketdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string  `json:"title" validate:"required,min=3,max=200"`
	Description string  `json:"description" validate:"required,min=5"`
	Priority    string  `json:"priority" validate:"omitempty"`
	AssigneeID  *string `json:"assignee_id"`
	Attachment  *string `json:"attachment"`
}

// UpdateTicketRequest payload; absent fields are left untouched.
type UpdateTicketRequest struct {
	Status     *string `json:"status"`
	Priority   *string `json:"priority"`
	AssigneeID *string `json:"assignee_id"`
	Attachment *string `json:"attachment"`
	Notes      *string `json:"notes"`
}

// TicketResponse representation.
type TicketResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Status      domain.TicketStatus   `json:"status"`
	StatusLabel string                `json:"status_label"`
	Priority    domain.TicketPriority `json:"priority"`
	Attachment  *string               `json:"attachment,omitempty"`
	CreatorID   string                `json:"creator_id"`
	AssigneeID  *string               `json:"assignee_id,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// TicketActionResponse is one audit trail entry.
type TicketActionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
