package gateway

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ankitmishra23v/micro-fit/credentials"
	"github.com/ankitmishra23v/micro-fit/internal/config"
)

const contentTypeJSON = "application/json"

// refreshPath is the backend endpoint that mints a new access token
const refreshPath = "users/refresh-token"

// Client is the sole pathway by which API calls leave the device. It
// attaches the current access token to every outbound request, intercepts
// authorization failures, and coordinates a single shared token-refresh
// episode across any number of in-flight requests.
type Client struct {
	baseURL          *url.URL
	httpClient       *http.Client
	creds            *credentials.Store
	onSessionExpired func()
	log              zerolog.Logger

	lock       sync.Mutex
	refreshing bool
	waiters    []chan refreshResult
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (primarily for testing)
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the client's logger
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithOnSessionExpired registers the hook invoked after an irrecoverable
// refresh failure, once local credentials have been cleared. The UI layer
// uses it to navigate to the unauthenticated entry point.
func WithOnSessionExpired(hook func()) Option {
	return func(c *Client) {
		c.onSessionExpired = hook
	}
}

// New creates a request gateway for the configured backend
func New(cfg config.ClientConfig, creds *credentials.Store, options ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("[gateway.New] config is required")
	}
	if creds == nil {
		return nil, errors.New("[gateway.New] credential store is required")
	}

	baseURL, err := url.Parse(cfg.GetAPIBaseURL())
	if err != nil {
		return nil, errors.Wrap(err, "[gateway.New] invalid base URL")
	}

	client := &Client{
		baseURL:          baseURL,
		httpClient:       &http.Client{Timeout: cfg.GetRequestTimeout()},
		creds:            creds,
		onSessionExpired: func() {},
		log:              zerolog.Nop(),
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

// Do sends the request with the current access token attached. A 401
// response joins the shared refresh episode and the request is replayed
// exactly once with the new token; every other failure is returned to the
// caller as a typed error without retry.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	body, err := marshalBody(req.Body)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, req, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		token, err := c.refreshSession(ctx)
		if err != nil {
			return nil, err
		}
		resp, err = c.sendWithToken(ctx, req, body, token)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyStatus(resp.StatusCode, resp.Body)
	}
	return resp, nil
}

// Get issues a GET request
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post issues a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put issues a PUT request with a JSON body
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Delete issues a DELETE request
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// send reads the access token fresh from the credential store and issues
// the request with it. Reading from the store rather than any in-memory
// copy keeps the bearer header current across rotations.
func (c *Client) send(ctx context.Context, req Request, body []byte) (*Response, error) {
	token, _, err := c.creds.GetAuthToken(ctx)
	if err != nil {
		return nil, err
	}
	return c.sendWithToken(ctx, req, body, token)
}

func (c *Client) sendWithToken(ctx context.Context, req Request, body []byte, token string) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req, body, token)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Debug().Err(err).Str("path", req.Path).Msg("request transport failure")
		return nil, classifyTransport(ctx, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}
	return &Response{StatusCode: httpResp.StatusCode, Body: respBody}, nil
}

func (c *Client) buildRequest(ctx context.Context, req Request, body []byte, token string) (*http.Request, error) {
	target, err := c.resolve(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.buildRequest] new request")
	}

	if body != nil {
		httpReq.Header.Set("Content-Type", contentTypeJSON)
	}
	httpReq.Header.Set("X-Request-ID", uuid.New().String())
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return httpReq, nil
}

func (c *Client) resolve(path string, query url.Values) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", errors.Wrap(err, "[Client.resolve] invalid path")
	}
	target := c.baseURL.ResolveReference(ref)
	if query != nil {
		target.RawQuery = query.Encode()
	}
	return target.String(), nil
}
