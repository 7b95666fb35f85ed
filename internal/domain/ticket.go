package domain

import (
	"fmt"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// ParseTicketStatus resolves a status from its member name. Only canonical
// names are accepted (case-folded); display labels are never coerced.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	switch TicketStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case TicketStatusOpen:
		return TicketStatusOpen, nil
	case TicketStatusInProgress:
		return TicketStatusInProgress, nil
	case TicketStatusClosed:
		return TicketStatusClosed, nil
	}
	return "", fmt.Errorf("invalid ticket status %q", raw)
}

// ParseTicketPriority resolves a priority from its member name.
func ParseTicketPriority(raw string) (TicketPriority, error) {
	switch TicketPriority(strings.ToUpper(strings.TrimSpace(raw))) {
	case TicketPriorityLow:
		return TicketPriorityLow, nil
	case TicketPriorityMedium:
		return TicketPriorityMedium, nil
	case TicketPriorityHigh:
		return TicketPriorityHigh, nil
	case TicketPriorityCritical:
		return TicketPriorityCritical, nil
	}
	return "", fmt.Errorf("invalid ticket priority %q", raw)
}

// Label returns the user-facing status label.
func (s TicketStatus) Label() string {
	switch s {
	case TicketStatusOpen:
		return "Aperto"
	case TicketStatusInProgress:
		return "In lavorazione"
	case TicketStatusClosed:
		return "Chiuso"
	}
	return string(s)
}

// Label returns the user-facing priority label.
func (p TicketPriority) Label() string {
	switch p {
	case TicketPriorityLow:
		return "Bassa"
	case TicketPriorityMedium:
		return "Media"
	case TicketPriorityHigh:
		return "Alta"
	case TicketPriorityCritical:
		return "Critica"
	}
	return string(p)
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	Attachment  *string
	CreatorID   string
	AssigneeID  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
