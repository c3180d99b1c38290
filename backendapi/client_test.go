package backendapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ankitmishra23v/micro-fit/backendapi"
	"github.com/ankitmishra23v/micro-fit/credentials"
	"github.com/ankitmishra23v/micro-fit/credentials/backendfake"
	"github.com/ankitmishra23v/micro-fit/gateway"
	"github.com/ankitmishra23v/micro-fit/internal/apperrors"
	"github.com/ankitmishra23v/micro-fit/session"
)

type testConfig struct {
	baseURL string
}

func (c testConfig) GetAPIBaseURL() string { return c.baseURL + "/" }

func (c testConfig) GetRequestTimeout() time.Duration { return 5 * time.Second }

func setupAPI(t *testing.T, server *httptest.Server) (*backendapi.Client, *credentials.Store) {
	t.Helper()

	store, err := credentials.NewStore(backendfake.NewFakeBackend())
	require.NoError(t, err)

	gw, err := gateway.New(testConfig{baseURL: server.URL}, store)
	require.NoError(t, err)

	client, err := backendapi.New(gw)
	require.NoError(t, err)
	return client, store
}

func TestClient_Login(t *testing.T) {
	t.Run("maps the backend response including _id", func(t *testing.T) {
		var seenBody map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/users/login", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&seenBody))
			_, _ = w.Write([]byte(`{"data":{"accessToken":"T1","refreshToken":"R1","user":{"email":"a@b.com","firstName":"A","_id":"u1"}}}`))
		}))
		defer server.Close()

		client, _ := setupAPI(t, server)
		result, err := client.Login(context.Background(), "a@b.com", "Secret1!")
		require.NoError(t, err)

		require.Equal(t, "a@b.com", seenBody["email"])
		require.Equal(t, "Secret1!", seenBody["password"])
		require.Equal(t, "T1", result.AccessToken)
		require.Equal(t, "R1", result.RefreshToken)
		require.Equal(t, "a@b.com", result.Profile.Email)
		require.Equal(t, "A", result.Profile.FirstName)
		require.Equal(t, "u1", result.Profile.ID)
	})

	t.Run("surfaces the backend rejection message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Invalid email or password"}`))
		}))
		defer server.Close()

		client, _ := setupAPI(t, server)
		_, err := client.Login(context.Background(), "a@b.com", "wrong")

		var authErr *apperrors.AuthError
		require.ErrorAs(t, err, &authErr)
		require.Equal(t, "Invalid email or password", authErr.Message)
		require.Equal(t, http.StatusBadRequest, authErr.Status)
	})

	t.Run("falls back to a generic message when the backend has none", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		client, _ := setupAPI(t, server)
		server.Close()

		_, err := client.Login(context.Background(), "a@b.com", "Secret1!")

		var authErr *apperrors.AuthError
		require.ErrorAs(t, err, &authErr)
		require.Equal(t, "Login failed.", authErr.Message)
	})

	t.Run("rejects a response missing tokens", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":{"user":{"email":"a@b.com"}}}`))
		}))
		defer server.Close()

		client, _ := setupAPI(t, server)
		_, err := client.Login(context.Background(), "a@b.com", "Secret1!")

		var authErr *apperrors.AuthError
		require.ErrorAs(t, err, &authErr)
	})
}

func TestClient_LogsRejections(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Invalid email or password"}`))
	}))
	defer server.Close()

	store, err := credentials.NewStore(backendfake.NewFakeBackend())
	require.NoError(t, err)
	gw, err := gateway.New(testConfig{baseURL: server.URL}, store)
	require.NoError(t, err)

	var buf bytes.Buffer
	client, err := backendapi.New(gw, backendapi.WithLogger(zerolog.New(&buf)))
	require.NoError(t, err)

	_, err = client.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	require.Contains(t, buf.String(), "login rejected")

	buf.Reset()
	err = client.Register(context.Background(), session.Registration{Email: "a@b.com"})
	require.Error(t, err)
	require.Contains(t, buf.String(), "registration rejected")
}

func TestClient_Register(t *testing.T) {
	t.Run("posts the registration fields", func(t *testing.T) {
		var seenBody map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/users/register", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&seenBody))
			_, _ = w.Write([]byte(`{"message":"created"}`))
		}))
		defer server.Close()

		client, _ := setupAPI(t, server)
		err := client.Register(context.Background(), session.Registration{
			Email:     "new@b.com",
			FirstName: "New",
			Password:  "Secret1!",
			LoginType: "email",
		})
		require.NoError(t, err)
		require.Equal(t, "new@b.com", seenBody["email"])
		require.Equal(t, "New", seenBody["firstName"])
		require.Equal(t, "email", seenBody["loginType"])
	})

	t.Run("surfaces a duplicate email rejection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"Email already registered"}`))
		}))
		defer server.Close()

		client, _ := setupAPI(t, server)
		err := client.Register(context.Background(), session.Registration{Email: "dup@b.com"})

		var authErr *apperrors.AuthError
		require.ErrorAs(t, err, &authErr)
		require.Equal(t, "Email already registered", authErr.Message)
	})
}

func TestClient_Logout(t *testing.T) {
	var seenAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/logout", r.URL.Path)
		seenAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, store := setupAPI(t, server)
	require.NoError(t, store.SetAuthToken(context.Background(), "T1"))

	require.NoError(t, client.Logout(context.Background()))
	require.Equal(t, "Bearer T1", seenAuth)
}
