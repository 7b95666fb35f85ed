package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ondapiu/ticketdesk/internal/api/dto"
	"github.com/ondapiu/ticketdesk/internal/auth"
	"github.com/ondapiu/ticketdesk/internal/domain"
	"github.com/ondapiu/ticketdesk/internal/export"
	"github.com/ondapiu/ticketdesk/internal/repository"
	"github.com/ondapiu/ticketdesk/internal/service"
	"github.com/ondapiu/ticketdesk/internal/uploads"
	apperrors "github.com/ondapiu/ticketdesk/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	workflow *service.WorkflowService
	exports  *service.ExportService
	files    *uploads.Store
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(workflow *service.WorkflowService, exports *service.ExportService, files *uploads.Store) *TicketsHandler {
	return &TicketsHandler{workflow: workflow, exports: exports, files: files}
}

// Create handles POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	input := service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		Attachment:  req.Attachment,
	}
	if req.Priority != "" {
		priority, err := domain.ParseTicketPriority(req.Priority)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		input.Priority = priority
	}

	ticket, err := h.workflow.CreateTicket(c.Context(), principal.User.ID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// List handles GET /tickets (admin). Optional ?status= filters the set.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	filter := repository.TicketFilter{}
	if statusStr := c.Query("status"); statusStr != "" && !strings.EqualFold(statusStr, "all") {
		status, err := domain.ParseTicketStatus(statusStr)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		filter.Status = &status
	}
	tickets, err := h.workflow.ListTickets(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// ListMine handles GET /tickets/mine: tickets created by or assigned to the caller.
func (h *TicketsHandler) ListMine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	created, err := h.workflow.ListTickets(c.Context(), repository.TicketFilter{CreatorID: &principal.User.ID})
	if err != nil {
		return err
	}
	assigned, err := h.workflow.ListTickets(c.Context(), repository.TicketFilter{AssigneeID: &principal.User.ID})
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(created))
	merged := make([]domain.Ticket, 0, len(created)+len(assigned))
	for _, t := range created {
		seen[t.ID] = struct{}{}
		merged = append(merged, t)
	}
	for _, t := range assigned {
		if _, dup := seen[t.ID]; !dup {
			merged = append(merged, t)
		}
	}
	return c.JSON(fiber.Map{"data": ticketResponses(merged)})
}

// Get handles GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	_, ticket, err := h.accessibleTicket(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Update handles POST /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	principal, _, err := h.accessibleTicket(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	changes := service.TicketChanges{
		AssigneeID: req.AssigneeID,
		Attachment: req.Attachment,
	}
	if req.Status != nil {
		status, err := domain.ParseTicketStatus(*req.Status)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		changes.Status = &status
	}
	if req.Priority != nil {
		priority, err := domain.ParseTicketPriority(*req.Priority)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		changes.Priority = &priority
	}

	ticket, err := h.workflow.ApplyUpdate(c.Context(), c.Params("id"), changes, principal.User.ID, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Actions handles GET /tickets/:id/actions.
func (h *TicketsHandler) Actions(c *fiber.Ctx) error {
	if _, _, err := h.accessibleTicket(c); err != nil {
		return err
	}
	actions, err := h.workflow.ListActions(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.TicketActionResponse, 0, len(actions))
	for _, action := range actions {
		items = append(items, dto.TicketActionResponse{
			ID:        action.ID,
			UserID:    action.UserID,
			Action:    action.Action,
			Notes:     action.Notes,
			CreatedAt: action.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Export handles GET /tickets/export (admin).
func (h *TicketsHandler) Export(c *fiber.Ctx) error {
	var status *domain.TicketStatus
	if statusStr := c.Query("status"); statusStr != "" && !strings.EqualFold(statusStr, "all") {
		parsed, err := domain.ParseTicketStatus(statusStr)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		status = &parsed
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	mediaType, err := h.exports.ExportTickets(c.Context(), c.Response().BodyWriter(), status, format)
	if err != nil {
		return err
	}
	filename := "tickets.csv"
	if mediaType == export.MediaTypeXLSX {
		filename = "tickets.xlsx"
	}
	c.Set(fiber.HeaderContentType, mediaType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return nil
}

// UploadAttachment handles POST /tickets/:id/attachment: saves the file to
// the blob directory and records the resolved filename via the workflow.
func (h *TicketsHandler) UploadAttachment(c *fiber.Ctx) error {
	principal, _, err := h.accessibleTicket(c)
	if err != nil {
		return err
	}
	fileHeader, err := c.FormFile("attachment")
	if err != nil {
		return apperrors.NewValidationError("attachment file required", nil)
	}
	f, err := fileHeader.Open()
	if err != nil {
		return apperrors.MapError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	resolved, err := h.files.Save(fileHeader.Filename, f)
	if err != nil {
		return apperrors.MapError(err)
	}

	ticket, err := h.workflow.ApplyUpdate(c.Context(), c.Params("id"), service.TicketChanges{
		Attachment: &resolved,
	}, principal.User.ID, nil)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// DownloadAttachment handles GET /attachments/:name.
func (h *TicketsHandler) DownloadAttachment(c *fiber.Ctx) error {
	name := c.Params("name")
	reader, err := h.files.Open(name)
	if err != nil {
		return apperrors.NewNotFound("attachment", map[string]any{"name": name})
	}
	c.Set(fiber.HeaderContentType, "application/octet-stream")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.SendStream(reader)
}

func (h *TicketsHandler) accessibleTicket(c *fiber.Ctx) (*auth.Principal, *domain.Ticket, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.workflow.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return nil, nil, err
	}
	if !canAccessTicket(principal.User, ticket) {
		return nil, nil, apperrors.NewPermissionDenied("access denied")
	}
	return principal, ticket, nil
}

func canAccessTicket(user *domain.User, ticket *domain.Ticket) bool {
	if user.IsAdmin {
		return true
	}
	if ticket.CreatorID == user.ID {
		return true
	}
	return ticket.AssigneeID != nil && *ticket.AssigneeID == user.ID
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      ticket.Status,
		StatusLabel: ticket.Status.Label(),
		Priority:    ticket.Priority,
		Attachment:  ticket.Attachment,
		CreatorID:   ticket.CreatorID,
		AssigneeID:  ticket.AssigneeID,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

func ticketResponses(tickets []domain.Ticket) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return items
}
