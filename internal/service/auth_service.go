package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ondapiu/ticketdesk/internal/auth"
	"github.com/ondapiu/ticketdesk/internal/config"
	"github.com/ondapiu/ticketdesk/internal/domain"
	"github.com/ondapiu/ticketdesk/internal/events"
	"github.com/ondapiu/ticketdesk/internal/repository"
	apperrors "github.com/ondapiu/ticketdesk/pkg/util"
)

const minPasswordRunes = 6

// AuthService coordinates authentication and admin user management.
type AuthService struct {
	store       repository.Store
	tokenMgr    *auth.TokenManager
	revocations *auth.Revocations
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	bcryptCost  int
	admin       config.AdminConfig
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	Store       repository.Store
	Revocations *auth.Revocations
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		store:       deps.Store,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		revocations: deps.Revocations,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
		bcryptCost:  cfg.Auth.BcryptCost,
		admin:       cfg.Admin,
	}
}

// UserRegisterInput describes an admin-initiated registration.
type UserRegisterInput struct {
	Name     string
	Email    string
	Password string
	IsAdmin  bool
}

// Authenticate verifies credentials (case-insensitive email) and issues a
// session token.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.store.Users().GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewAuthError("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewAuthError("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.IsAdmin)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// Logout revokes the presented session token.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := s.revocations.Revoke(ctx, claims); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// RegisterUser creates a new account. Admin-only at the transport layer.
func (s *AuthService) RegisterUser(ctx context.Context, input UserRegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if utf8.RuneCountInString(input.Password) < minPasswordRunes {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"min": minPasswordRunes})
	}

	if _, err := s.store.Users().GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		IsAdmin:      input.IsAdmin,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// DeleteUser removes an account unless it is an admin, the actor themself,
// or referenced by any ticket as creator or assignee.
func (s *AuthService) DeleteUser(ctx context.Context, actor *domain.User, targetID string) error {
	var deleted *domain.User

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		target, err := tx.Users().GetByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("user", map[string]any{"user_id": targetID})
			}
			return err
		}
		if target.IsAdmin {
			return apperrors.NewConflict("admin accounts cannot be deleted", nil)
		}
		if actor != nil && target.ID == actor.ID {
			return apperrors.NewConflict("cannot delete your own account", nil)
		}
		refs, err := tx.Tickets().CountUserReferences(ctx, target.ID)
		if err != nil {
			return err
		}
		if refs > 0 {
			return apperrors.NewConflict("user is referenced by tickets", map[string]any{"ticket_count": refs})
		}
		deleted = target
		return tx.Users().Delete(ctx, target.ID)
	})
	if err != nil {
		return apperrors.MapError(err)
	}

	if s.dispatcher != nil && deleted != nil {
		actorID := ""
		if actor != nil {
			actorID = actor.ID
		}
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventUserDeleted,
			ActorID:   actorID,
			Timestamp: time.Now(),
			Payload:   events.UserDeletedPayload{UserID: deleted.ID, Email: deleted.Email},
		})
	}
	return nil
}

// ResetPassword sets a new password for the target account. Admin-only at
// the transport layer.
func (s *AuthService) ResetPassword(ctx context.Context, targetID, newPassword string) error {
	if utf8.RuneCountInString(newPassword) < minPasswordRunes {
		return apperrors.NewValidationError("password too short", map[string]any{"min": minPasswordRunes})
	}
	user, err := s.store.Users().GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": targetID})
		}
		return apperrors.MapError(err)
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	user.PasswordHash = hash
	if err := s.store.Users().Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ListUsers returns every account, oldest first.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// EnsureAdmin seeds the bootstrap admin identity from configuration. An
// existing account with the seed email is promoted to admin instead of
// duplicated.
func (s *AuthService) EnsureAdmin(ctx context.Context) error {
	if s.admin.Email == "" || s.admin.Password == "" {
		if s.logger != nil {
			s.logger.Warn("ADMIN_EMAIL/ADMIN_PASSWORD not set; skipping admin bootstrap")
		}
		return nil
	}

	existing, err := s.store.Users().GetByEmail(ctx, s.admin.Email)
	if err == nil {
		if existing.IsAdmin {
			return nil
		}
		existing.IsAdmin = true
		if err := s.store.Users().Update(ctx, existing); err != nil {
			return apperrors.MapError(err)
		}
		if s.logger != nil {
			s.logger.Info("promoted existing user to admin", zap.String("email", existing.Email))
		}
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(s.admin.Password, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	admin := &domain.User{
		Name:         s.admin.Name,
		Email:        strings.ToLower(s.admin.Email),
		PasswordHash: hash,
		IsAdmin:      true,
	}
	if err := s.store.Users().Create(ctx, admin); err != nil {
		return apperrors.MapError(err)
	}
	if s.logger != nil {
		s.logger.Info("seeded bootstrap admin", zap.String("email", admin.Email))
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
