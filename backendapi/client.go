// Package backendapi implements the session.API collaborator against the
// MicroFit backend's JSON-over-HTTPS endpoints, routed through the request
// gateway.
package backendapi

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ankitmishra23v/micro-fit/credentials"
	"github.com/ankitmishra23v/micro-fit/gateway"
	"github.com/ankitmishra23v/micro-fit/internal/apperrors"
	"github.com/ankitmishra23v/micro-fit/session"
)

// Backend endpoint paths
const (
	registerPath = "users/register"
	loginPath    = "users/login"
	logoutPath   = "users/logout"
)

// Fallback messages when the backend supplies none
const (
	loginFailedMsg  = "Login failed."
	signUpFailedMsg = "Sign up failed."
)

var _ session.API = (*Client)(nil)

// Client calls the backend's user endpoints through the request gateway
type Client struct {
	gw  *gateway.Client
	log zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the client's logger
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a backend API client over the given gateway
func New(gw *gateway.Client, options ...Option) (*Client, error) {
	if gw == nil {
		return nil, errors.New("[backendapi.New] gateway is required")
	}
	client := &Client{gw: gw, log: zerolog.Nop()}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	ID        string `json:"_id"`
}

type loginResponse struct {
	Data struct {
		AccessToken  string      `json:"accessToken"`
		RefreshToken string      `json:"refreshToken"`
		User         userPayload `json:"user"`
	} `json:"data"`
}

// Login exchanges credentials for a token pair and the user's profile
func (c *Client) Login(ctx context.Context, email, password string) (*session.LoginResult, error) {
	resp, err := c.gw.Post(ctx, loginPath, loginRequest{Email: email, Password: password})
	if err != nil {
		c.log.Debug().Err(err).Str("email", email).Msg("login rejected")
		return nil, authError(err, loginFailedMsg)
	}

	var payload loginResponse
	if err := resp.DecodeJSON(&payload); err != nil {
		return nil, apperrors.NewAuthError("", loginFailedMsg, resp.StatusCode, err)
	}
	if payload.Data.AccessToken == "" || payload.Data.RefreshToken == "" {
		return nil, apperrors.NewAuthError("", loginFailedMsg, resp.StatusCode,
			errors.New("[Client.Login] response missing tokens"))
	}

	return &session.LoginResult{
		AccessToken:  payload.Data.AccessToken,
		RefreshToken: payload.Data.RefreshToken,
		Profile: credentials.UserData{
			Email:     payload.Data.User.Email,
			FirstName: payload.Data.User.FirstName,
			ID:        payload.Data.User.ID,
		},
	}, nil
}

type registerRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	Password  string `json:"password"`
	LoginType string `json:"loginType"`
}

// Register creates a new account. It performs no local persistence; the
// user must still log in.
func (c *Client) Register(ctx context.Context, registration Registration) error {
	_, err := c.gw.Post(ctx, registerPath, registerRequest{
		Email:     registration.Email,
		FirstName: registration.FirstName,
		Password:  registration.Password,
		LoginType: registration.LoginType,
	})
	if err != nil {
		c.log.Debug().Err(err).Str("email", registration.Email).Msg("registration rejected")
		return authError(err, signUpFailedMsg)
	}
	return nil
}

// Logout notifies the backend that the bearer's session is ending
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.gw.Post(ctx, logoutPath, nil); err != nil {
		return err
	}
	return nil
}

// Registration aliases the session package's registration fields
type Registration = session.Registration

// authError converts a gateway failure into an AuthError, surfacing the
// backend-provided message when one is available.
func authError(err error, fallback string) error {
	var reqErr *gateway.RequestError
	if errors.As(err, &reqErr) {
		return apperrors.NewAuthError(reqErr.BackendMessage, fallback, reqErr.Status, err)
	}
	return apperrors.NewAuthError("", fallback, 0, err)
}
