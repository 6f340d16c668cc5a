// Package client is the Go chat client: REST calls against the message API,
// a websocket subscription to the notification relay, and the ChatBox that
// keeps a rendered message list in sync with the server.
package client

import (
	"bytes"
	"chatbox-backend/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// NetworkError reports a failed request: either the transport failed or the
// server answered with an unexpected status.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// API talks to the chat server's REST endpoints.
type API struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string

	log *zap.Logger
}

// NewAPI creates a client for the server at baseURL (e.g. http://localhost:8080).
// A nil httpClient gets a default client with a 10s timeout.
func NewAPI(baseURL string, httpClient *http.Client, logger *zap.Logger) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        logger.Named("api_client"),
	}
}

// BaseURL returns the server address without a trailing slash.
func (a *API) BaseURL() string { return a.baseURL }

// Token returns the access token set by Login or SetToken.
func (a *API) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *API) SetToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
}

// Signup registers a new account. It does not log in.
func (a *API) Signup(ctx context.Context, name, email, password string) (*models.UserResponse, error) {
	var out models.UserResponse
	req := models.SignupRequest{Name: name, Email: email, Password: password}
	if err := a.do(ctx, "signup", http.MethodPost, "/v1/auth/signup", req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for an access token and keeps the token for later calls.
func (a *API) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	req := models.LoginRequest{Email: email, Password: password}
	if err := a.do(ctx, "login", http.MethodPost, "/v1/auth/login", req, http.StatusOK, &out); err != nil {
		return nil, err
	}
	a.SetToken(out.AccessToken)
	return &out, nil
}

// ListMessages fetches the full ordered message list.
func (a *API) ListMessages(ctx context.Context) ([]models.MessageResponse, error) {
	var out []models.MessageResponse
	if err := a.do(ctx, "list messages", http.MethodGet, "/messages", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.MessageResponse{}
	}
	return out, nil
}

// CreateMessage posts a new message as the logged-in user.
func (a *API) CreateMessage(ctx context.Context, text string) (*models.MessageResponse, error) {
	var out models.CreateMessageResponse
	req := models.CreateMessageRequest{Text: text}
	if err := a.do(ctx, "create message", http.MethodPost, "/message", req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out.Message, nil
}

func (a *API) do(ctx context.Context, op, method, path string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := a.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var apiErr models.ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", msg)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	a.log.Debug("request done", zap.String("op", op), zap.Int("status", resp.StatusCode))
	return nil
}
