package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ondapiu/ticketdesk/internal/config"
	"github.com/ondapiu/ticketdesk/internal/domain"
	apperrors "github.com/ondapiu/ticketdesk/pkg/util"
)

func newAuth(store *memStore, admin config.AdminConfig) *AuthService {
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 15,
			BcryptCost:            bcrypt.MinCost,
		},
		Admin: admin,
	}
	return NewAuthService(cfg, AuthDependencies{Store: store})
}

func TestRegisterAndAuthenticate(t *testing.T) {
	store := newMemStore()
	svc := newAuth(store, config.AdminConfig{})

	created, err := svc.RegisterUser(context.Background(), UserRegisterInput{
		Name:     "Mario Rossi",
		Email:    "Mario.Rossi@Example.com",
		Password: "segreto1",
	})
	require.NoError(t, err)
	assert.Equal(t, "mario.rossi@example.com", created.Email)
	assert.False(t, created.IsAdmin)

	// email lookup is case-insensitive and trims whitespace
	user, token, exp, err := svc.Authenticate(context.Background(), "  MARIO.rossi@example.COM ", "segreto1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.NotEmpty(t, token)
	assert.False(t, exp.IsZero())

	_, _, _, err = svc.Authenticate(context.Background(), "mario.rossi@example.com", "sbagliata")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "AUTH_FAILED"))

	_, _, _, err = svc.Authenticate(context.Background(), "nessuno@example.com", "segreto1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "AUTH_FAILED"))
}

func TestRegisterUserValidation(t *testing.T) {
	store := newMemStore()
	svc := newAuth(store, config.AdminConfig{})

	_, err := svc.RegisterUser(context.Background(), UserRegisterInput{
		Name:     "",
		Email:    "a@example.com",
		Password: "segreto1",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = svc.RegisterUser(context.Background(), UserRegisterInput{
		Name:     "Mario",
		Email:    "a@example.com",
		Password: "corta",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = svc.RegisterUser(context.Background(), UserRegisterInput{
		Name:     "Mario",
		Email:    "a@example.com",
		Password: "segreto1",
	})
	require.NoError(t, err)

	_, err = svc.RegisterUser(context.Background(), UserRegisterInput{
		Name:     "Altro Mario",
		Email:    "A@example.com",
		Password: "segreto2",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestDeleteUserGuards(t *testing.T) {
	store := newMemStore()
	svc := newAuth(store, config.AdminConfig{})

	admin := store.seedUser("Admin", "admin@example.com", true)
	other := store.seedUser("Luisa", "luisa@example.com", false)
	referenced := store.seedUser("Paolo", "paolo@example.com", false)

	require.NoError(t, store.Tickets().Create(context.Background(), &domain.Ticket{
		Title:       "Printer jam",
		Description: "Stuck again",
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityMedium,
		CreatorID:   referenced.ID,
	}))

	t.Run("admin target refused", func(t *testing.T) {
		err := svc.DeleteUser(context.Background(), &other, admin.ID)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "CONFLICT"))
	})

	t.Run("self deletion refused", func(t *testing.T) {
		err := svc.DeleteUser(context.Background(), &other, other.ID)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "CONFLICT"))
	})

	t.Run("ticket reference refused", func(t *testing.T) {
		err := svc.DeleteUser(context.Background(), &admin, referenced.ID)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "CONFLICT"))
	})

	t.Run("assignee reference refused", func(t *testing.T) {
		assignee := store.seedUser("Gina", "gina@example.com", false)
		require.NoError(t, store.Tickets().Create(context.Background(), &domain.Ticket{
			Title:       "VPN down",
			Description: "No office network",
			Status:      domain.TicketStatusOpen,
			Priority:    domain.TicketPriorityMedium,
			CreatorID:   referenced.ID,
			AssigneeID:  &assignee.ID,
		}))
		err := svc.DeleteUser(context.Background(), &admin, assignee.ID)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "CONFLICT"))
	})

	t.Run("missing target", func(t *testing.T) {
		err := svc.DeleteUser(context.Background(), &admin, "33333333-3333-3333-3333-333333333333")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	})

	t.Run("unreferenced non-admin deleted", func(t *testing.T) {
		err := svc.DeleteUser(context.Background(), &admin, other.ID)
		require.NoError(t, err)
		_, err = store.Users().GetByID(context.Background(), other.ID)
		require.Error(t, err)
	})
}

func TestResetPassword(t *testing.T) {
	store := newMemStore()
	svc := newAuth(store, config.AdminConfig{})

	user, err := svc.RegisterUser(context.Background(), UserRegisterInput{
		Name:     "Mario",
		Email:    "mario@example.com",
		Password: "vecchia1",
	})
	require.NoError(t, err)

	err = svc.ResetPassword(context.Background(), user.ID, "corta")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	err = svc.ResetPassword(context.Background(), "44444444-4444-4444-4444-444444444444", "nuova123")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	require.NoError(t, svc.ResetPassword(context.Background(), user.ID, "nuova123"))

	_, _, _, err = svc.Authenticate(context.Background(), "mario@example.com", "vecchia1")
	require.Error(t, err)
	_, _, _, err = svc.Authenticate(context.Background(), "mario@example.com", "nuova123")
	require.NoError(t, err)
}

func TestEnsureAdmin(t *testing.T) {
	t.Run("skips when unset", func(t *testing.T) {
		store := newMemStore()
		svc := newAuth(store, config.AdminConfig{})
		require.NoError(t, svc.EnsureAdmin(context.Background()))
		users, err := svc.ListUsers(context.Background())
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("creates missing admin", func(t *testing.T) {
		store := newMemStore()
		svc := newAuth(store, config.AdminConfig{
			Name:     "Root",
			Email:    "Root@Example.com",
			Password: "bootstrap1",
		})
		require.NoError(t, svc.EnsureAdmin(context.Background()))

		user, _, _, err := svc.Authenticate(context.Background(), "root@example.com", "bootstrap1")
		require.NoError(t, err)
		assert.True(t, user.IsAdmin)
	})

	t.Run("promotes existing user", func(t *testing.T) {
		store := newMemStore()
		svc := newAuth(store, config.AdminConfig{
			Name:     "Root",
			Email:    "mario@example.com",
			Password: "bootstrap1",
		})
		existing, err := svc.RegisterUser(context.Background(), UserRegisterInput{
			Name:     "Mario",
			Email:    "mario@example.com",
			Password: "segreto1",
		})
		require.NoError(t, err)

		require.NoError(t, svc.EnsureAdmin(context.Background()))

		promoted, err := store.Users().GetByID(context.Background(), existing.ID)
		require.NoError(t, err)
		assert.True(t, promoted.IsAdmin)

		users, err := svc.ListUsers(context.Background())
		require.NoError(t, err)
		assert.Len(t, users, 1)

		// password stays the user's own, not the seed one
		_, _, _, err = svc.Authenticate(context.Background(), "mario@example.com", "segreto1")
		require.NoError(t, err)
	})

	t.Run("idempotent", func(t *testing.T) {
		store := newMemStore()
		svc := newAuth(store, config.AdminConfig{
			Name:     "Root",
			Email:    "root@example.com",
			Password: "bootstrap1",
		})
		require.NoError(t, svc.EnsureAdmin(context.Background()))
		require.NoError(t, svc.EnsureAdmin(context.Background()))
		users, err := svc.ListUsers(context.Background())
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})
}
