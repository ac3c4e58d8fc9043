// Package ajax talks to the WordPress admin-ajax endpoint of the ACPT plugin.
package ajax

import (
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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/acptdev/condrules/internal/telemetry"
	"github.com/acptdev/condrules/internal/visibility"
)

const (
	// DefaultPath is used when no endpoint is configured.
	DefaultPath = "/wp-admin/admin-ajax.php"

	ActionCheckIsVisible = "checkIsVisibleAction"
	ActionLanguages      = "languagesAction"
)

// ErrUnexpectedStatus is wrapped by errors for non-2xx responses.
var ErrUnexpectedStatus = errors.New("unexpected status")

// ResolveEndpoint returns the admin-ajax URL: ajaxURL when it is absolute,
// otherwise ajaxURL (or DefaultPath when empty) resolved against siteURL.
func ResolveEndpoint(siteURL, ajaxURL string) (string, error) {
	ref := strings.TrimSpace(ajaxURL)
	if ref == "" {
		ref = DefaultPath
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid ajax URL %q: %w", ref, err)
	}
	if refURL.IsAbs() {
		return refURL.String(), nil
	}

	base, err := url.Parse(strings.TrimSpace(siteURL))
	if err != nil {
		return "", fmt.Errorf("invalid site URL %q: %w", siteURL, err)
	}
	if !base.IsAbs() {
		return "", fmt.Errorf("site URL %q must be absolute to resolve %q", siteURL, ref)
	}
	return base.ResolveReference(refURL).String(), nil
}

// Client is an HTTP client for the admin-ajax endpoint
type Client struct {
	Endpoint   string
	Cookie     string // forwarded as-is for authenticated admin sessions
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// NewClient creates a new admin-ajax client. A zero timeout disables the
// request deadline.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		Endpoint: endpoint,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		Logger: zerolog.Nop(),
	}
}

// Evaluate posts the current observations with action checkIsVisibleAction
// and decodes the returned visibility decision.
func (c *Client) Evaluate(ctx context.Context, req visibility.EvaluateRequest) (visibility.Decision, error) {
	ctx, span := otel.Tracer(telemetry.ServiceName).Start(ctx, "ajax.Evaluate")
	defer span.End()
	span.SetAttributes(
		attribute.String("acpt.element_id", req.ElementID),
		attribute.String("acpt.belongs_to", req.BelongsTo),
		attribute.Int("acpt.values", len(req.Values)),
	)

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := c.post(ctx, ActionCheckIsVisible, url.Values{"data": {string(payload)}})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	decision, err := visibility.ParseDecision(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed decision")
		return nil, err
	}
	span.SetAttributes(attribute.Int("acpt.targets", len(decision)))
	return decision, nil
}

// FetchTranslations posts action languagesAction and returns the plugin's
// UI translations.
func (c *Client) FetchTranslations(ctx context.Context) (Translations, error) {
	ctx, span := otel.Tracer(telemetry.ServiceName).Start(ctx, "ajax.FetchTranslations")
	defer span.End()

	body, err := c.post(ctx, ActionLanguages, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var t Translations
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, fmt.Errorf("failed to decode translations: %w", err)
	}
	return t, nil
}

// post sends a form-encoded request with the given action and returns the
// response body of a 2xx answer.
func (c *Client) post(ctx context.Context, action string, form url.Values) ([]byte, error) {
	if form == nil {
		form = url.Values{}
	}
	form.Set("action", action)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.Cookie != "" {
		req.Header.Set("Cookie", c.Cookie)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		telemetry.AjaxRequests.WithLabelValues(action, "error").Inc()
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	telemetry.AjaxRequests.WithLabelValues(action, strconv.Itoa(resp.StatusCode)).Inc()
	c.Logger.Debug().
		Str("action", action).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Msg("admin-ajax response")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("API error (status %d): %s: %w", resp.StatusCode, strings.TrimSpace(string(body)), ErrUnexpectedStatus)
	}
	return body, nil
}
