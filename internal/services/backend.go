package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/rivora/internal/models"
	"github.com/desertthunder/rivora/internal/shared"
	"golang.org/x/oauth2"
)

const generationsPath = "/rest/v1/generations"

// errForbidden marks a 403; it always travels wrapped in [shared.ErrAPIRequest].
var errForbidden = errors.New("forbidden")

// BackendService talks to the hosted backend: GoTrue-style auth under /auth/v1 and PostgREST tables under /rest/v1.
//
// Every request carries the project's anon key in the apikey header. Table and user requests add the signed-in user's
// bearer token through an [oauth2.Transport], refreshing it with the stored refresh token when it has expired.
//
// BackendService implements [gallery.RemoteStore].
type BackendService struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// NewBackendService creates a backend client. A nil client uses [http.DefaultClient].
func NewBackendService(baseURL, anonKey string, client *http.Client) *BackendService {
	if client == nil {
		client = http.DefaultClient
	}
	return &BackendService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: client,
	}
}

// apiKeyTransport adds the apikey header to every request.
type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("apikey", t.key)
	return t.base.RoundTrip(r)
}

func (b *BackendService) baseTransport() http.RoundTripper {
	base := b.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &apiKeyTransport{key: b.anonKey, base: base}
}

// anonClient sends requests with the anon key only.
func (b *BackendService) anonClient() *http.Client {
	return &http.Client{Transport: b.baseTransport(), Timeout: b.httpClient.Timeout}
}

// userClient sends requests as identity.
func (b *BackendService) userClient(ctx context.Context, identity models.Identity) *http.Client {
	src := oauth2.ReuseTokenSource(identityToken(identity), &refreshSource{ctx: ctx, backend: b, refreshToken: identity.RefreshToken})
	return &http.Client{
		Transport: &oauth2.Transport{Source: src, Base: b.baseTransport()},
		Timeout:   b.httpClient.Timeout,
	}
}

func identityToken(identity models.Identity) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  identity.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: identity.RefreshToken,
		Expiry:       identity.Expiry,
	}
}

// refreshSource exchanges a refresh token for a new session.
type refreshSource struct {
	ctx          context.Context
	backend      *BackendService
	refreshToken string
}

func (r *refreshSource) Token() (*oauth2.Token, error) {
	if r.refreshToken == "" {
		return nil, fmt.Errorf("%w: session expired", shared.ErrNotAuthenticated)
	}
	identity, err := r.backend.token(r.ctx, "refresh_token", map[string]string{"refresh_token": r.refreshToken})
	if err != nil {
		return nil, err
	}
	return identityToken(*identity), nil
}

// session is the GoTrue token response.
type session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (s session) identity(now time.Time) *models.Identity {
	identity := &models.Identity{
		UserID:       s.User.ID,
		Email:        s.User.Email,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
	if s.ExpiresIn > 0 {
		identity.Expiry = now.Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return identity
}

// SignIn exchanges email and password for a session.
func (b *BackendService) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrMissingCredentials)
	}
	return b.token(ctx, "password", map[string]string{"email": email, "password": password})
}

func (b *BackendService) token(ctx context.Context, grant string, payload map[string]string) (*models.Identity, error) {
	endpoint := b.baseURL + "/auth/v1/token?grant_type=" + url.QueryEscape(grant)

	var s session
	if err := b.do(ctx, b.anonClient(), http.MethodPost, endpoint, payload, nil, &s); err != nil {
		if errors.Is(err, shared.ErrAPIRequest) {
			return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
		}
		return nil, err
	}
	if s.AccessToken == "" || s.User.ID == "" {
		return nil, fmt.Errorf("%w: token response has no session", shared.ErrAuthFailed)
	}
	return s.identity(time.Now()), nil
}

// SignUp registers a new account. The returned identity is nil when the backend requires email confirmation first.
func (b *BackendService) SignUp(ctx context.Context, email, password string) (*models.Identity, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrMissingCredentials)
	}

	var s session
	payload := map[string]string{"email": email, "password": password}
	if err := b.do(ctx, b.anonClient(), http.MethodPost, b.baseURL+"/auth/v1/signup", payload, nil, &s); err != nil {
		return nil, err
	}
	if s.AccessToken == "" {
		return nil, nil
	}
	return s.identity(time.Now()), nil
}

// User validates the session and returns the identity with the backend's current user id and email.
func (b *BackendService) User(ctx context.Context, identity models.Identity) (*models.Identity, error) {
	if identity.AccessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}

	var user struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := b.do(ctx, b.userClient(ctx, identity), http.MethodGet, b.baseURL+"/auth/v1/user", nil, nil, &user); err != nil {
		return nil, err
	}

	identity.UserID = user.ID
	identity.Email = user.Email
	return &identity, nil
}

// SignOut revokes the session on the backend.
func (b *BackendService) SignOut(ctx context.Context, identity models.Identity) error {
	if identity.AccessToken == "" {
		return nil
	}
	return b.do(ctx, b.userClient(ctx, identity), http.MethodPost, b.baseURL+"/auth/v1/logout", nil, nil, nil)
}

// insertRow is the insert payload; the backend assigns id and created_at.
type insertRow struct {
	UserID     string           `json:"user_id"`
	Type       models.MediaType `json:"type"`
	Prompt     string           `json:"prompt"`
	URL        string           `json:"url"`
	IsFavorite bool             `json:"is_favorite"`
}

// FetchItems lists identity's generations, newest first.
func (b *BackendService) FetchItems(ctx context.Context, identity models.Identity) ([]models.StoredItem, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+identity.UserID)
	q.Set("order", "created_at.desc")

	var rows []models.StoredItem
	if err := b.do(ctx, b.userClient(ctx, identity), http.MethodGet, b.baseURL+generationsPath+"?"+q.Encode(), nil, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// InsertItem stores item and returns the stored row echoed by the backend.
//
// Row policies may allow the insert but refuse to read the row back. When the
// representation request is rejected with 401 or 403 the insert is sent again
// with return=minimal and a nil row is returned, so the caller keeps its local id.
func (b *BackendService) InsertItem(ctx context.Context, identity models.Identity, item models.StoredItem) (*models.StoredItem, error) {
	row := insertRow{
		UserID:     identity.UserID,
		Type:       item.Type,
		Prompt:     item.Prompt,
		URL:        item.URL,
		IsFavorite: item.IsFavorite,
	}
	client := b.userClient(ctx, identity)
	headers := map[string]string{"Prefer": "return=representation"}

	var rows []models.StoredItem
	err := b.do(ctx, client, http.MethodPost, b.baseURL+generationsPath, row, headers, &rows)
	if errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, errForbidden) {
		headers["Prefer"] = "return=minimal"
		if err := b.do(ctx, client, http.MethodPost, b.baseURL+generationsPath, row, headers, nil); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// UpdateItem patches the row with id owned by identity.
func (b *BackendService) UpdateItem(ctx context.Context, identity models.Identity, id int64, fields map[string]any) error {
	q := url.Values{}
	q.Set("id", "eq."+strconv.FormatInt(id, 10))
	q.Set("user_id", "eq."+identity.UserID)

	return b.do(ctx, b.userClient(ctx, identity), http.MethodPatch, b.baseURL+generationsPath+"?"+q.Encode(), fields, nil, nil)
}

// do sends payload as JSON and decodes a 2xx body into out when both are non-nil.
func (b *BackendService) do(ctx context.Context, client *http.Client, method, endpoint string, payload any, headers map[string]string, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, shared.ErrAuthFailed) {
			return err
		}
		return fmt.Errorf("%w: %w", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", shared.ErrNetwork, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, errorMessage(data))
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %w: %s", shared.ErrAPIRequest, errForbidden, errorMessage(data))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: %d %s", shared.ErrAPIRequest, resp.StatusCode, errorMessage(data))
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessage extracts the human readable part of a backend error body.
func errorMessage(data []byte) string {
	var e struct {
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(data, &e); err == nil {
		for _, m := range []string{e.Message, e.Msg, e.ErrorDescription} {
			if m != "" {
				return m
			}
		}
	}
	return strings.TrimSpace(string(data))
}
