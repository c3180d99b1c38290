package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ankitmishra23v/micro-fit/credentials"
)

// State is the controller's authentication state
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
)

// Session is the in-memory view of the current credentials. The cached
// profile may lag the credential store briefly; the access token used to
// authorize requests is always read from the store at send time, never from
// here.
type Session struct {
	AccessToken  string
	RefreshToken string
	Profile      *credentials.UserData
}

// Deps holds all collaborator dependencies for the Controller
type Deps struct {
	API         API
	Credentials *credentials.Store
	Refresher   TokenRefresher  // optional; enables the proactive refresh timer
	Registrar   DeviceRegistrar // optional; push-notification registration after login
}

// Controller exposes authentication intent operations to the rest of the
// app and keeps in-memory session state consistent with the credential
// store.
type Controller struct {
	deps    Deps
	log     zerolog.Logger
	nowTime func() time.Time // injectable for testing

	lock         sync.RWMutex
	state        State
	session      Session
	refreshTimer *time.Timer
}

// Option defines a function type to modify the Controller instance
type Option func(*Controller)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Controller) {
		c.nowTime = nowFunc
	}
}

// WithLogger sets the controller's logger
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// NewController initializes a Controller with required dependencies
func NewController(deps Deps, options ...Option) (*Controller, error) {
	if deps.API == nil {
		return nil, errors.New("[NewController] API is required")
	}
	if deps.Credentials == nil {
		return nil, errors.New("[NewController] credential store is required")
	}

	controller := &Controller{
		deps:    deps,
		log:     zerolog.Nop(),
		nowTime: time.Now,
		state:   StateUnauthenticated,
	}
	for _, opt := range options {
		opt(controller)
	}
	return controller, nil
}

// IsAuthenticated reports whether an access token is currently held in
// memory. No I/O.
func (c *Controller) IsAuthenticated() bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.state == StateAuthenticated && c.session.AccessToken != ""
}

// State returns the current authentication state
func (c *Controller) State() State {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.state
}

// Profile returns the cached identity, or nil when unauthenticated
func (c *Controller) Profile() *credentials.UserData {
	c.lock.RLock()
	defer c.lock.RUnlock()
	if c.session.Profile == nil {
		return nil
	}
	profile := *c.session.Profile
	return &profile
}

// Login authenticates against the backend, persists the returned
// credentials, then publishes the in-memory session in one step so the
// token, refresh token, and profile become visible together.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	previous := c.beginAuthenticating()

	result, err := c.deps.API.Login(ctx, email, password)
	if err != nil {
		c.setState(previous)
		return err
	}

	if err := c.persistLogin(ctx, result); err != nil {
		// Partial writes must never leave a usable subset behind. The
		// rollback clear also wipes any previous session's slots, so the
		// in-memory state must drop to unauthenticated with it.
		if clearErr := c.deps.Credentials.Clear(ctx); clearErr != nil {
			c.log.Error().Err(clearErr).Msg("failed to clear store after partial login persist")
		}
		c.lock.Lock()
		c.stopRefreshTimerLocked()
		c.state = StateUnauthenticated
		c.session = Session{}
		c.lock.Unlock()
		return err
	}

	profile := result.Profile
	c.lock.Lock()
	c.state = StateAuthenticated
	c.session = Session{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		Profile:      &profile,
	}
	c.lock.Unlock()

	c.scheduleRefresh(result.AccessToken)
	c.registerDevice(ctx, profile.ID)

	c.log.Info().Str("email", profile.Email).Msg("logged in")
	return nil
}

// SignUp registers a new account. Registration is decoupled from session
// establishment: the caller stays in whatever state they were in and must
// still log in.
func (c *Controller) SignUp(ctx context.Context, registration Registration) error {
	return c.deps.API.Register(ctx, registration)
}

// Logout notifies the backend best-effort, then clears the credential store
// and the in-memory session. A store clear failure is returned and leaves
// the caller authenticated so cleanup can be retried.
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.deps.API.Logout(ctx); err != nil {
		c.log.Warn().Err(err).Msg("backend logout failed, continuing local cleanup")
	}

	if err := c.deps.Credentials.Clear(ctx); err != nil {
		return err
	}

	c.lock.Lock()
	c.stopRefreshTimerLocked()
	c.state = StateUnauthenticated
	c.session = Session{}
	c.lock.Unlock()

	c.log.Info().Msg("logged out")
	return nil
}

// InitializeAuth rehydrates the session from the credential store at
// process start. It never returns an error: storage failures or missing
// slots degrade to the unauthenticated state with a logged diagnostic. No
// network call is made.
func (c *Controller) InitializeAuth(ctx context.Context) {
	accessToken, haveToken, err := c.deps.Credentials.GetAuthToken(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("error initializing auth")
		return
	}
	refreshToken, haveRefresh, err := c.deps.Credentials.GetRefreshToken(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("error initializing auth")
		return
	}
	profile, haveProfile, err := c.deps.Credentials.GetUserData(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("error initializing auth")
		return
	}
	if !haveToken || !haveRefresh || !haveProfile {
		return
	}

	c.lock.Lock()
	c.state = StateAuthenticated
	c.session = Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Profile:      profile,
	}
	c.lock.Unlock()

	c.scheduleRefresh(accessToken)
	c.log.Info().Str("email", profile.Email).Msg("session rehydrated")
}

func (c *Controller) persistLogin(ctx context.Context, result *LoginResult) error {
	if err := c.deps.Credentials.SetAuthToken(ctx, result.AccessToken); err != nil {
		return err
	}
	if err := c.deps.Credentials.SetRefreshToken(ctx, result.RefreshToken); err != nil {
		return err
	}
	profile := result.Profile
	return c.deps.Credentials.SetUserData(ctx, &profile)
}

func (c *Controller) registerDevice(ctx context.Context, userID string) {
	if c.deps.Registrar == nil {
		return
	}
	if err := c.deps.Registrar.RegisterDevice(ctx, userID); err != nil {
		c.log.Warn().Err(err).Msg("device registration failed")
	}
}

func (c *Controller) beginAuthenticating() State {
	c.lock.Lock()
	defer c.lock.Unlock()
	previous := c.state
	c.state = StateAuthenticating
	return previous
}

func (c *Controller) setState(state State) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.state = state
}
