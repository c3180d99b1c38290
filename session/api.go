package session

import (
	"context"

	"github.com/ankitmishra23v/micro-fit/credentials"
)

// LoginResult holds everything the backend returns on a successful login
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Profile      credentials.UserData
}

// Registration holds the fields for a new account
type Registration struct {
	Email     string
	FirstName string
	Password  string
	LoginType string
}

// API is the backend collaborator the controller drives. Implementations
// return AuthError for rejected credentials or registrations, carrying the
// backend's message when one is available.
type API interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, registration Registration) error
	Logout(ctx context.Context) error
}

// TokenRefresher rotates the access token through the request gateway's
// shared refresh episode.
type TokenRefresher interface {
	RefreshNow(ctx context.Context) (string, error)
}

// DeviceRegistrar is the push-notification side channel invoked best-effort
// after a successful login.
type DeviceRegistrar interface {
	RegisterDevice(ctx context.Context, userID string) error
}
