package session

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshLeeway is how long before token expiry the proactive refresh fires
const refreshLeeway = time.Minute

// scheduleRefresh arms a timer to rotate the access token shortly before it
// expires. This is an optimization on top of the gateway's reactive 401
// path, which remains the correctness backstop: both routes funnel into the
// same single-flight refresh episode. Tokens whose expiry cannot be decoded
// simply get no timer.
func (c *Controller) scheduleRefresh(accessToken string) {
	if c.deps.Refresher == nil {
		return
	}

	expiry, ok := tokenExpiry(accessToken)
	if !ok {
		return
	}
	delay := expiry.Sub(c.nowTime()) - refreshLeeway
	if delay <= 0 {
		return
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	c.stopRefreshTimerLocked()
	c.refreshTimer = time.AfterFunc(delay, c.refreshInBackground)
}

func (c *Controller) stopRefreshTimerLocked() {
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
}

// refreshInBackground runs when the proactive timer fires. An irrecoverable
// refresh failure has already cleared the credential store inside the
// gateway, so only the in-memory session needs tearing down here.
func (c *Controller) refreshInBackground() {
	token, err := c.deps.Refresher.RefreshNow(context.Background())
	if err != nil {
		c.log.Warn().Err(err).Msg("proactive token refresh failed, logging out")
		c.lock.Lock()
		c.stopRefreshTimerLocked()
		c.state = StateUnauthenticated
		c.session = Session{}
		c.lock.Unlock()
		return
	}

	c.lock.Lock()
	c.session.AccessToken = token
	c.lock.Unlock()

	c.scheduleRefresh(token)
}

// tokenExpiry extracts the exp claim without verifying the signature; the
// client treats tokens as opaque bearer strings otherwise.
func tokenExpiry(accessToken string) (time.Time, bool) {
	token, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	expiry, err := token.Claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return time.Time{}, false
	}
	return expiry.Time, true
}
