package credentials

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/ankitmishra23v/micro-fit/internal/apperrors"
)

// Storage keys for the three persisted slots
const (
	authTokenKey    = "__auth_token"
	refreshTokenKey = "__refresh_token"
	userDataKey     = "__user_data"
)

// UserData is the minimal cached identity. It mirrors what the backend
// returns on login; the server remains the source of truth.
type UserData struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	ID        string `json:"id"`
}

// Store is the single source of truth for what is durably saved on-device:
// the access token, the refresh token, and the cached user profile. Each
// slot is read and written independently; Clear removes all three as a
// batch.
type Store struct {
	backend Backend
}

// NewStore creates a credential store over the given device storage backend
func NewStore(backend Backend) (*Store, error) {
	if backend == nil {
		return nil, errors.New("[NewStore] backend is required")
	}
	return &Store{backend: backend}, nil
}

// SetAuthToken persists the access token. Empty tokens fail validation
// before touching storage.
func (s *Store) SetAuthToken(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.NewValidationError("auth token must be a non-empty string")
	}
	if err := s.backend.SetItem(ctx, authTokenKey, token); err != nil {
		return apperrors.NewStorageError("set auth token", err)
	}
	return nil
}

// GetAuthToken returns the persisted access token, or ok=false when no token
// is stored.
func (s *Store) GetAuthToken(ctx context.Context) (string, bool, error) {
	token, ok, err := s.backend.GetItem(ctx, authTokenKey)
	if err != nil {
		return "", false, apperrors.NewStorageError("get auth token", err)
	}
	return token, ok, nil
}

// SetRefreshToken persists the refresh token. Empty tokens fail validation
// before touching storage.
func (s *Store) SetRefreshToken(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.NewValidationError("refresh token must be a non-empty string")
	}
	if err := s.backend.SetItem(ctx, refreshTokenKey, token); err != nil {
		return apperrors.NewStorageError("set refresh token", err)
	}
	return nil
}

// GetRefreshToken returns the persisted refresh token, or ok=false when no
// token is stored.
func (s *Store) GetRefreshToken(ctx context.Context) (string, bool, error) {
	token, ok, err := s.backend.GetItem(ctx, refreshTokenKey)
	if err != nil {
		return "", false, apperrors.NewStorageError("get refresh token", err)
	}
	return token, ok, nil
}

// SetUserData serializes and persists the cached profile
func (s *Store) SetUserData(ctx context.Context, user *UserData) error {
	if user == nil {
		return apperrors.NewValidationError("user data must be an object")
	}
	data, err := json.Marshal(user)
	if err != nil {
		return apperrors.NewValidationError("user data is not serializable")
	}
	if err := s.backend.SetItem(ctx, userDataKey, string(data)); err != nil {
		return apperrors.NewStorageError("set user data", err)
	}
	return nil
}

// GetUserData returns the cached profile, or ok=false when none is stored
func (s *Store) GetUserData(ctx context.Context) (*UserData, bool, error) {
	raw, ok, err := s.backend.GetItem(ctx, userDataKey)
	if err != nil {
		return nil, false, apperrors.NewStorageError("get user data", err)
	}
	if !ok {
		return nil, false, nil
	}
	var user UserData
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false, apperrors.NewStorageError("decode user data", err)
	}
	return &user, true, nil
}

// Clear removes all three slots as one batch. Clearing an already-empty
// store succeeds.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.RemoveItems(ctx, authTokenKey, refreshTokenKey, userDataKey); err != nil {
		return apperrors.NewStorageError("clear", err)
	}
	return nil
}
