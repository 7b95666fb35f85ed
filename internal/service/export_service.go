package service

import (
	"context"
	"io"

	"github.com/ondapiu/ticketdesk/internal/domain"
	"github.com/ondapiu/ticketdesk/internal/export"
	"github.com/ondapiu/ticketdesk/internal/observability"
	"github.com/ondapiu/ticketdesk/internal/repository"
	apperrors "github.com/ondapiu/ticketdesk/pkg/util"
)

// ExportService renders filtered ticket collections to tabular artifacts.
type ExportService struct {
	store    repository.Store
	exporter *export.Exporter
	metrics  *observability.Metrics
}

// ExportDependencies bundles collaborators for the export service.
type ExportDependencies struct {
	Store    repository.Store
	Exporter *export.Exporter
	Metrics  *observability.Metrics
}

// NewExportService constructs the service.
func NewExportService(deps ExportDependencies) *ExportService {
	return &ExportService{
		store:    deps.Store,
		exporter: deps.Exporter,
		metrics:  deps.Metrics,
	}
}

// ExportTickets writes the ticket collection (optionally filtered by
// status) to w in descending update-time order and returns the media type
// actually produced.
func (s *ExportService) ExportTickets(ctx context.Context, w io.Writer, status *domain.TicketStatus, format export.Format) (string, error) {
	tickets, err := s.store.Tickets().ListWithFilter(ctx, repository.TicketFilter{Status: status})
	if err != nil {
		return "", apperrors.MapError(err)
	}

	rows := make([]export.Row, 0, len(tickets))
	creatorNames := make(map[string]string)
	for _, ticket := range tickets {
		name, ok := creatorNames[ticket.CreatorID]
		if !ok {
			creator, err := s.store.Users().GetByID(ctx, ticket.CreatorID)
			if err != nil {
				return "", apperrors.MapError(err)
			}
			name = creator.Name
			creatorNames[ticket.CreatorID] = name
		}
		rows = append(rows, export.Row{
			Title:       ticket.Title,
			Description: ticket.Description,
			CreatorName: name,
			StatusLabel: ticket.Status.Label(),
			CreatedAt:   ticket.CreatedAt,
		})
	}

	mediaType, err := s.exporter.Export(w, rows, format)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	s.metrics.RecordExport(mediaType)
	return mediaType, nil
}
