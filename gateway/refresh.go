package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/ankitmishra23v/micro-fit/internal/apperrors"
)

type refreshResult struct {
	token string
	err   error
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshNow forces a token rotation through the shared refresh episode.
// The session controller's proactive timer uses this so timer-driven and
// 401-driven refreshes can never run two network calls at once.
func (c *Client) RefreshNow(ctx context.Context) (string, error) {
	return c.refreshSession(ctx)
}

// refreshSession returns a fresh access token, starting a refresh episode
// if none is in flight or joining the existing one otherwise. The
// refreshing flag is set under the lock before any I/O, so a second caller
// can never start a second episode. A waiter's context cancellation
// abandons only that waiter; the episode itself runs on a detached context.
func (c *Client) refreshSession(ctx context.Context) (string, error) {
	c.lock.Lock()
	if c.refreshing {
		waiter := make(chan refreshResult, 1)
		c.waiters = append(c.waiters, waiter)
		c.lock.Unlock()

		select {
		case result := <-waiter:
			return result.token, result.err
		case <-ctx.Done():
			return "", classifyTransport(ctx, ctx.Err())
		}
	}
	c.refreshing = true
	c.lock.Unlock()

	token, err := c.doRefresh(context.WithoutCancel(ctx))

	c.lock.Lock()
	c.refreshing = false
	waiters := c.waiters
	c.waiters = nil
	c.lock.Unlock()

	for _, waiter := range waiters {
		waiter <- refreshResult{token: token, err: err}
	}
	return token, err
}

// doRefresh performs the single refresh network call for an episode. Any
// failure is irrecoverable: local credentials are cleared and the
// session-expired hook fires before the error is returned.
func (c *Client) doRefresh(ctx context.Context) (string, error) {
	refreshToken, ok, err := c.creds.GetRefreshToken(ctx)
	if err == nil && !ok {
		err = apperrors.ErrRefreshTokenMissing
	}
	if err != nil {
		return "", c.expireSession(ctx, err)
	}

	rotated, err := c.postRefresh(ctx, refreshToken)
	if err != nil {
		return "", c.expireSession(ctx, err)
	}

	if err := c.creds.SetAuthToken(ctx, rotated.AccessToken); err != nil {
		return "", c.expireSession(ctx, err)
	}
	if rotated.RefreshToken != "" {
		if err := c.creds.SetRefreshToken(ctx, rotated.RefreshToken); err != nil {
			return "", c.expireSession(ctx, err)
		}
	}

	c.log.Debug().Msg("access token rotated")
	return rotated.AccessToken, nil
}

// postRefresh calls the refresh endpoint directly, bypassing Do so the
// refresh request itself is never intercepted.
func (c *Client) postRefresh(ctx context.Context, refreshToken string) (*refreshResponse, error) {
	payload, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.postRefresh] marshal")
	}

	target, err := c.resolve(refreshPath, nil)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "[Client.postRefresh] new request")
	}
	httpReq.Header.Set("Content-Type", contentTypeJSON)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.postRefresh] send")
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.postRefresh] read body")
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, errors.Errorf("[Client.postRefresh] refresh rejected with status %d", httpResp.StatusCode)
	}

	var rotated refreshResponse
	if err := json.Unmarshal(body, &rotated); err != nil {
		return nil, errors.Wrap(err, "[Client.postRefresh] unmarshal")
	}
	if rotated.AccessToken == "" {
		return nil, errors.New("[Client.postRefresh] response missing access token")
	}
	return &rotated, nil
}

// expireSession clears local credentials, fires the session-expired hook,
// and wraps the cause so every caller of the failed episode sees a
// SessionExpiredError.
func (c *Client) expireSession(ctx context.Context, cause error) error {
	c.log.Warn().Err(cause).Msg("token refresh failed, expiring session")
	if err := c.creds.Clear(ctx); err != nil {
		c.log.Error().Err(err).Msg("failed to clear credentials on session expiry")
	}
	c.onSessionExpired()
	return &apperrors.SessionExpiredError{Err: cause}
}
