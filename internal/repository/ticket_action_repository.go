package repository

import (
	"context"

	"github.com/ondapiu/ticketdesk/internal/domain"
)

// TicketActionRepository stores the append-only audit trail.
type TicketActionRepository interface {
	Create(ctx context.Context, action *domain.TicketAction) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketAction, error)
}

type ticketActionRepository struct {
	db DB
}

// NewTicketActionRepository builds repository.
func NewTicketActionRepository(db DB) TicketActionRepository {
	return &ticketActionRepository{db: db}
}

func (r *ticketActionRepository) Create(ctx context.Context, action *domain.TicketAction) error {
	const query = `
        INSERT INTO ticket_actions (ticket_id, user_id, action, notes)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		action.TicketID,
		action.UserID,
		action.Action,
		action.Notes,
	).Scan(&action.ID, &action.CreatedAt)
}

func (r *ticketActionRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketAction, error) {
	// seq breaks created_at ties with insertion order.
	const query = `
        SELECT id, ticket_id, user_id, action, notes, created_at
        FROM ticket_actions WHERE ticket_id=$1 ORDER BY created_at ASC, seq ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketAction
	for rows.Next() {
		var action domain.TicketAction
		if err := rows.Scan(
			&action.ID,
			&action.TicketID,
			&action.UserID,
			&action.Action,
			&action.Notes,
			&action.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, action)
	}
	return result, rows.Err()
}
