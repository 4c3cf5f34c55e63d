// File: internal/egov/client.go
package egov

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"dga_gateway_backend/internal/config"

	"go.uber.org/zap"
)

// The provider endpoints are fixed; they are fields on the client only so
// tests can point them at a local server.
const (
	defaultValidateURL = "https://api.egov.go.th/ws/auth/validate"
	defaultDeprocURL   = "https://api.egov.go.th/ws/dga/czp/uat/v1/core/shield/data/deproc"
	defaultNotifyURL   = "https://api.egov.go.th/ws/dga/czp/uat/v1/core/notification/push"
)

// Bounded excerpt sizes for error diagnostics, so raw provider bodies never
// leak into responses or logs in full.
const (
	validateExcerptLimit = 300
	deprocExcerptLimit   = 800
)

// DeprocCasing selects the JSON field name carrying the app id in the
// deproc request. The two API versions disagree on it and the provider is
// casing-sensitive, so both spellings are kept.
type DeprocCasing string

const (
	DeprocCasingAppId DeprocCasing = "AppId"
	DeprocCasingAppid DeprocCasing = "Appid"
)

// CallError is a failed provider call, tagged with which call failed.
type CallError struct {
	Call       string // "validate", "deproc" or "notification"
	StatusCode int
	Excerpt    string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("egov %s failed HTTP %d: %s", e.Call, e.StatusCode, e.Excerpt)
}

// DeprocResult carries the decoded deproc body along with a bounded raw
// excerpt for diagnostics. Payload is nil when the body was empty or not
// valid JSON.
type DeprocResult struct {
	Payload interface{}
	Excerpt string
}

// NotificationItem is one push target in a notification request.
type NotificationItem struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type notificationRequest struct {
	AppID        string             `json:"appId"`
	Data         []NotificationItem `json:"data"`
	SendDateTime string             `json:"sendDateTime"`
}

// Client issues the three outbound calls against the eGov (DGA) API. Each
// call hits the live provider (no response caching) and never retries;
// retry policy, if any, belongs to the caller.
type Client struct {
	httpClient *http.Client
	cfg        *config.Config
	logger     *zap.Logger

	validateURL string
	deprocURL   string
	notifyURL   string
}

// NewClient creates a provider client with a bounded per-call timeout.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.EgovTimeout},
		cfg:         cfg,
		logger:      logger.Named("EgovClient"),
		validateURL: defaultValidateURL,
		deprocURL:   defaultDeprocURL,
		notifyURL:   defaultNotifyURL,
	}
}

// ValidateToken exchanges the consumer credentials for a short-lived
// provider token. Success requires an HTTP success status AND a body with a
// non-empty Result string; anything else fails with a validate CallError.
func (c *Client) ValidateToken(ctx context.Context) (string, error) {
	q := url.Values{}
	q.Set("ConsumerSecret", c.cfg.ConsumerSecret)
	q.Set("AgentID", c.cfg.AgentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.validateURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build validate request: %w", err)
	}
	c.setCommonHeaders(req, "")

	status, body, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("validate request failed: %w", err)
	}

	decoded, _ := ParseLoose(body)
	if status >= 200 && status < 300 {
		if m, ok := decoded.(map[string]interface{}); ok {
			if result, ok := m["Result"].(string); ok && result != "" {
				return result, nil
			}
		}
	}

	return "", &CallError{Call: "validate", StatusCode: status, Excerpt: excerpt(body, validateExcerptLimit)}
}

// DecryptPayload posts the mini-app token to the deproc endpoint and hands
// back the raw decoded body; extracting the citizen record is the caller's
// job. Non-success statuses fail with a deproc CallError carrying a longer
// excerpt for diagnostics.
func (c *Client) DecryptPayload(ctx context.Context, appID, mToken, token string, casing DeprocCasing) (*DeprocResult, error) {
	payload, err := json.Marshal(map[string]string{
		string(casing): appID,
		"MToken":       mToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deproc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.deprocURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build deproc request: %w", err)
	}
	c.setCommonHeaders(req, token)

	status, body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("deproc request failed: %w", err)
	}

	if status < 200 || status >= 300 {
		return nil, &CallError{Call: "deproc", StatusCode: status, Excerpt: excerpt(body, deprocExcerptLimit)}
	}

	decoded, _ := ParseLoose(body)
	return &DeprocResult{Payload: decoded, Excerpt: excerpt(body, deprocExcerptLimit)}, nil
}

// SendNotification pushes one message to one user through the provider's
// notification endpoint, stamping the send time in ISO-8601 form. The
// caller decides whether a failure here is fatal.
func (c *Client) SendNotification(ctx context.Context, appID, userID, message, token string) (interface{}, error) {
	payload, err := json.Marshal(notificationRequest{
		AppID:        appID,
		Data:         []NotificationItem{{Message: message, UserID: userID}},
		SendDateTime: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.notifyURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build notification request: %w", err)
	}
	c.setCommonHeaders(req, token)

	status, body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("notification request failed: %w", err)
	}

	if status < 200 || status >= 300 {
		return nil, &CallError{Call: "notification", StatusCode: status, Excerpt: excerpt(body, validateExcerptLimit)}
	}

	decoded, ok := ParseLoose(body)
	if !ok {
		return string(body), nil
	}
	return decoded, nil
}

// setCommonHeaders applies the headers every provider call needs. The
// token header is only set for calls made after validation. Cache-Control
// mirrors the no-store requirement: every call must hit the live provider.
func (c *Client) setCommonHeaders(req *http.Request, token string) {
	req.Header.Set("Consumer-Key", c.cfg.ConsumerKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	if token != "" {
		req.Header.Set("Token", token)
	}
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// Mirror the provider's flaky-body behavior: a truncated read is
		// treated as an empty body, not a transport failure.
		c.logger.Warn("Failed to read provider response body", zap.Error(err), zap.String("url", req.URL.Path))
		body = nil
	}
	return resp.StatusCode, body, nil
}

// excerpt bounds a raw body for inclusion in errors and logs. The cut
// backs off to a rune boundary so Thai provider messages are never split
// mid-character.
func excerpt(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	for limit > 0 && !utf8.RuneStart(body[limit]) {
		limit--
	}
	return string(body[:limit])
}
