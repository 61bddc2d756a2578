// Package dossierclient talks to a remote dossier API and satisfies the colab
// collaborator interfaces over HTTP.
package dossierclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/travel-agency/internal"
	"github.com/frahmantamala/travel-agency/internal/colab"
)

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

var (
	_ colab.ProfileSource    = (*Client)(nil)
	_ colab.SuggestionLookup = (*Client)(nil)
	_ colab.AssignmentWriter = (*Client)(nil)
	_ colab.SnapshotLoader   = (*Client)(nil)
)

func NewClient(config Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		token:      config.Token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// WithToken returns a copy of the client authenticating with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	payload := map[string]string{"email": email, "password": password}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", payload, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

func (c *Client) ListProfiles(ctx context.Context) ([]colab.Profile, error) {
	var resp struct {
		Profiles []colab.Profile `json:"profiles"`
	}
	if err := c.do(ctx, http.MethodGet, "/profiles", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Profiles, nil
}

// SuggestUser reports found=false when the API has no hint for the pair.
func (c *Client) SuggestUser(ctx context.Context, moduleID, billingClientID int64) (int64, bool, error) {
	q := url.Values{}
	q.Set("module_id", strconv.FormatInt(moduleID, 10))
	q.Set("billing_client_id", strconv.FormatInt(billingClientID, 10))

	var resp struct {
		SuggestedUserID *int64 `json:"suggested_user_id"`
	}
	if err := c.do(ctx, http.MethodGet, "/suggestions?"+q.Encode(), nil, &resp); err != nil {
		return 0, false, err
	}
	if resp.SuggestedUserID == nil || *resp.SuggestedUserID <= 0 {
		return 0, false, nil
	}
	return *resp.SuggestedUserID, true, nil
}

func (c *Client) CreateAssignment(ctx context.Context, dossierID, moduleID, userID int64) error {
	payload := map[string]int64{"module_id": moduleID, "user_id": userID}
	path := fmt.Sprintf("/dossiers/%d/assignments", dossierID)
	return c.do(ctx, http.MethodPost, path, payload, nil)
}

func (c *Client) ReplaceAssignment(ctx context.Context, dossierID, moduleID, newUserID int64) error {
	payload := map[string]int64{"user_id": newUserID}
	path := fmt.Sprintf("/dossiers/%d/assignments/%d", dossierID, moduleID)
	return c.do(ctx, http.MethodPatch, path, payload, nil)
}

func (c *Client) LoadSnapshot(ctx context.Context, dossierID int64) (*colab.Snapshot, error) {
	var resp struct {
		ID              int64                     `json:"id"`
		BillingClientID int64                     `json:"billing_client_id"`
		Assignments     []colab.CurrentAssignment `json:"assignments"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/dossiers/%d", dossierID), nil, &resp); err != nil {
		return nil, err
	}
	return &colab.Snapshot{
		DossierID:       resp.ID,
		BillingClientID: resp.BillingClientID,
		Assignments:     resp.Assignments,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(method, path, resp)
	}

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}

// decodeError turns the API error envelope back into an AppError so callers
// can match it with errors.Is against the package sentinels.
func (c *Client) decodeError(method, path string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var envelope struct {
		Error *struct {
			Type    internal.ErrorType `json:"type"`
			Code    internal.ErrorCode `json:"code"`
			Message string             `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error != nil && envelope.Error.Code != "" {
		c.logger.Debug("dossier API error", "method", method, "path", path, "status", resp.StatusCode, "code", envelope.Error.Code)
		return &internal.AppError{
			Type:       envelope.Error.Type,
			Code:       envelope.Error.Code,
			Message:    envelope.Error.Message,
			StatusCode: resp.StatusCode,
		}
	}

	c.logger.Debug("dossier API error", "method", method, "path", path, "status", resp.StatusCode)
	return internal.NewExternalError(
		fmt.Sprintf("dossier API returned status %d", resp.StatusCode),
		internal.ErrCodeUpstreamFailed,
		fmt.Errorf("%s %s: %s", method, path, strings.TrimSpace(string(data))),
	)
}
