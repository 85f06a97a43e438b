package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/trailquest/trailquest-backend/pkg/db/models"
	"github.com/trailquest/trailquest-backend/pkg/enums"
	pkgerrors "github.com/trailquest/trailquest-backend/pkg/errors"
)

type stubStore struct {
	users map[uuid.UUID]*models.User

	profileWrites map[uuid.UUID]map[string]any
	deactivated   []uuid.UUID
	listErr       error
}

func newStubStore() *stubStore {
	return &stubStore{
		users:         map[uuid.UUID]*models.User{},
		profileWrites: map[uuid.UUID]map[string]any{},
	}
}

func (s *stubStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStore) UpdateProfile(_ context.Context, id uuid.UUID, fields map[string]any) error {
	s.profileWrites[id] = fields
	user, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if name, ok := fields["name"].(string); ok {
		user.Name = name
	}
	if email, ok := fields["email"].(string); ok {
		user.Email = email
	}
	if photo, ok := fields["photo"].(string); ok {
		user.Photo = &photo
	}
	return nil
}

func (s *stubStore) Deactivate(_ context.Context, id uuid.UUID) error {
	s.deactivated = append(s.deactivated, id)
	if user, ok := s.users[id]; ok {
		user.Active = false
	}
	return nil
}

func (s *stubStore) List(_ context.Context, limit, offset int) ([]models.User, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := []models.User{}
	for _, u := range s.users {
		if u.Active {
			out = append(out, *u)
		}
	}
	return out, nil
}

func seed(store *stubStore) *models.User {
	user := &models.User{
		ID:     uuid.New(),
		Name:   "Leo",
		Email:  "leo@example.com",
		Role:   enums.RoleUser,
		Active: true,
	}
	store.users[user.ID] = user
	return user
}

func TestGetMe(t *testing.T) {
	store := newStubStore()
	user := seed(store)
	svc := NewService(store, nil)

	dto, err := svc.GetMe(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, user.ID, dto.ID)
	assert.Equal(t, "leo@example.com", dto.Email)
}

func TestGetMeGoneUser(t *testing.T) {
	svc := NewService(newStubStore(), nil)

	_, err := svc.GetMe(context.Background(), uuid.New())

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestUpdateMeNormalizesFields(t *testing.T) {
	store := newStubStore()
	user := seed(store)
	svc := NewService(store, nil)

	name := "  New Name  "
	email := "New@Example.COM"
	dto, err := svc.UpdateMe(context.Background(), user.ID, UpdateMeRequest{
		Name:  &name,
		Email: &email,
	})
	require.NoError(t, err)

	assert.Equal(t, "New Name", dto.Name)
	assert.Equal(t, "new@example.com", dto.Email)

	fields := store.profileWrites[user.ID]
	assert.Equal(t, "New Name", fields["name"])
	assert.Equal(t, "new@example.com", fields["email"])
	assert.NotContains(t, fields, "password_hash")
}

func TestUpdateMeEmptyRequestIsNoop(t *testing.T) {
	store := newStubStore()
	user := seed(store)
	svc := NewService(store, nil)

	dto, err := svc.UpdateMe(context.Background(), user.ID, UpdateMeRequest{})
	require.NoError(t, err)

	assert.Equal(t, "Leo", dto.Name)
	assert.Empty(t, store.profileWrites)
}

func TestDeleteMeDeactivates(t *testing.T) {
	store := newStubStore()
	user := seed(store)
	svc := NewService(store, nil)

	require.NoError(t, svc.DeleteMe(context.Background(), user.ID))

	assert.Equal(t, []uuid.UUID{user.ID}, store.deactivated)
	assert.False(t, store.users[user.ID].Active)
}

func TestListExcludesPasswordMaterial(t *testing.T) {
	store := newStubStore()
	user := seed(store)
	user.PasswordHash = "$argon2id$v=19$..."
	svc := NewService(store, nil)

	list, err := svc.List(context.Background(), 50, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	assert.Equal(t, user.Email, list[0].Email)
	// The DTO simply has no credential fields; nothing to leak.
}

func TestListWrapsStoreError(t *testing.T) {
	store := newStubStore()
	store.listErr = assert.AnError
	svc := NewService(store, nil)

	_, err := svc.List(context.Background(), 50, 0)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInternal, typed.Code())
}
