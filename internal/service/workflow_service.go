package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ondapiu/ticketdesk/internal/config"
	"github.com/ondapiu/ticketdesk/internal/domain"
	"github.com/ondapiu/ticketdesk/internal/events"
	"github.com/ondapiu/ticketdesk/internal/repository"
	apperrors "github.com/ondapiu/ticketdesk/pkg/util"
)

const (
	minTitleRunes       = 3
	minDescriptionRunes = 5
)

// WorkflowService applies validated state changes to tickets and records
// every mutation in the action log, atomically.
type WorkflowService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	logNoop    bool
}

// WorkflowDependencies bundles collaborators for the workflow service.
type WorkflowDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
}

// NewWorkflowService constructs the service.
func NewWorkflowService(cfg config.WorkflowConfig, deps WorkflowDependencies) *WorkflowService {
	return &WorkflowService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		logNoop:    cfg.LogNoopUpdates,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	AssigneeID  *string
	Attachment  *string
}

// TicketChanges carries the optional fields of an update. A present
// AssigneeID with an empty value clears the assignment.
type TicketChanges struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	AssigneeID *string
	Attachment *string
}

// CreateTicket validates input and creates an OPEN ticket together with its
// "created" audit entry in one transaction.
func (s *WorkflowService) CreateTicket(ctx context.Context, creatorID string, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if utf8.RuneCountInString(title) < minTitleRunes {
		return nil, apperrors.NewValidationError("title too short", map[string]any{"min": minTitleRunes})
	}
	if utf8.RuneCountInString(description) < minDescriptionRunes {
		return nil, apperrors.NewValidationError("description too short", map[string]any{"min": minDescriptionRunes})
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Status:      domain.TicketStatusOpen,
		Priority:    input.Priority,
		Attachment:  input.Attachment,
		CreatorID:   creatorID,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if input.AssigneeID != nil && *input.AssigneeID != "" {
			if _, err := tx.Users().GetByID(ctx, *input.AssigneeID); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return apperrors.NewNotFound("assignee", map[string]any{"user_id": *input.AssigneeID})
				}
				return err
			}
			ticket.AssigneeID = input.AssigneeID
		}
		if err := tx.Tickets().Create(ctx, ticket); err != nil {
			return err
		}
		action := &domain.TicketAction{
			TicketID: ticket.ID,
			UserID:   creatorID,
			Action:   domain.ActionCreated,
		}
		return tx.Actions().Create(ctx, action)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  creatorID,
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Priority: ticket.Priority,
		},
	})
	return ticket, nil
}

// ApplyUpdate applies the present-and-different fields of changes to the
// ticket and appends one audit entry describing them. Field writes and the
// audit append share a transaction: either all persist or none do. Any
// status value inside the enum is accepted; there is no forbidden
// transition.
func (s *WorkflowService) ApplyUpdate(ctx context.Context, ticketID string, changes TicketChanges, actorID string, notes *string) (*domain.Ticket, error) {
	var updated *domain.Ticket

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
			}
			return err
		}

		var descs []string

		if changes.Status != nil && *changes.Status != ticket.Status {
			descs = append(descs, fmt.Sprintf("Status: %s → %s", ticket.Status, *changes.Status))
			ticket.Status = *changes.Status
		}
		if changes.Priority != nil && *changes.Priority != ticket.Priority {
			descs = append(descs, fmt.Sprintf("Priority: %s → %s", ticket.Priority, *changes.Priority))
			ticket.Priority = *changes.Priority
		}
		if changes.AssigneeID != nil {
			desc, err := s.applyAssigneeChange(ctx, tx, ticket, *changes.AssigneeID)
			if err != nil {
				return err
			}
			if desc != "" {
				descs = append(descs, desc)
			}
		}
		if changes.Attachment != nil {
			if desc := applyAttachmentChange(ticket, *changes.Attachment); desc != "" {
				descs = append(descs, desc)
			}
		}

		if len(descs) == 0 {
			updated = ticket
			if !s.logNoop {
				return nil
			}
			return tx.Actions().Create(ctx, &domain.TicketAction{
				TicketID: ticket.ID,
				UserID:   actorID,
				Action:   domain.ActionUpdated,
				Notes:    notes,
			})
		}

		if err := tx.Tickets().Update(ctx, ticket); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
			}
			return err
		}
		updated = ticket
		return tx.Actions().Create(ctx, &domain.TicketAction{
			TicketID: ticket.ID,
			UserID:   actorID,
			Action:   strings.Join(descs, "; "),
			Notes:    notes,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: updated.ID,
		ActorID:  actorID,
		Payload: events.TicketUpdatedPayload{
			Summary: string(updated.Status),
			Status:  updated.Status,
		},
	})
	return updated, nil
}

func (s *WorkflowService) applyAssigneeChange(ctx context.Context, tx repository.Store, ticket *domain.Ticket, newAssigneeID string) (string, error) {
	oldName := "unassigned"
	if ticket.AssigneeID != nil {
		if old, err := tx.Users().GetByID(ctx, *ticket.AssigneeID); err == nil {
			oldName = old.Name
		}
	}

	if newAssigneeID == "" {
		if ticket.AssigneeID == nil {
			return "", nil
		}
		ticket.AssigneeID = nil
		return fmt.Sprintf("Assignee: %s → unassigned", oldName), nil
	}

	assignee, err := tx.Users().GetByID(ctx, newAssigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NewNotFound("assignee", map[string]any{"user_id": newAssigneeID})
		}
		return "", err
	}
	if ticket.AssigneeID != nil && *ticket.AssigneeID == newAssigneeID {
		return "", nil
	}
	ticket.AssigneeID = &assignee.ID
	return fmt.Sprintf("Assignee: %s → %s", oldName, assignee.Name), nil
}

func applyAttachmentChange(ticket *domain.Ticket, newAttachment string) string {
	oldName := "none"
	if ticket.Attachment != nil {
		oldName = *ticket.Attachment
	}
	if newAttachment == "" {
		if ticket.Attachment == nil {
			return ""
		}
		ticket.Attachment = nil
		return fmt.Sprintf("Attachment: %s → none", oldName)
	}
	if ticket.Attachment != nil && *ticket.Attachment == newAttachment {
		return ""
	}
	ticket.Attachment = &newAttachment
	return fmt.Sprintf("Attachment: %s → %s", oldName, newAttachment)
}

// GetTicket fetches a ticket by ID.
func (s *WorkflowService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// ListTickets returns tickets matching the filter, newest update first.
func (s *WorkflowService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.store.Tickets().ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListActions returns the audit trail for a ticket in applied order.
func (s *WorkflowService) ListActions(ctx context.Context, ticketID string) ([]domain.TicketAction, error) {
	if _, err := s.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	actions, err := s.store.Actions().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return actions, nil
}

func (s *WorkflowService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
