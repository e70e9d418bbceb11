// Package relay delivers contact drafts through the hosted transactional email
// service.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/codecraftpk/craftsite/internal/config"
	"github.com/codecraftpk/craftsite/internal/contact"
	"github.com/codecraftpk/craftsite/internal/errors"
	"github.com/codecraftpk/craftsite/internal/logging"
	"github.com/codecraftpk/craftsite/internal/version"
)

// DefaultFailureText is the error text used when the service rejects a
// request without a body.
const DefaultFailureText = "Email send failed"

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 4 << 10

// Request is the JSON body the service expects.
type Request struct {
	ServiceID      string         `json:"service_id"`
	TemplateID     string         `json:"template_id"`
	UserID         string         `json:"user_id"`
	TemplateParams TemplateParams `json:"template_params"`
}

// TemplateParams are the fields substituted into the email template.
type TemplateParams struct {
	FromName  string `json:"from_name"`
	FromEmail string `json:"from_email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	ToEmail   string `json:"to_email"`
	ReplyTo   string `json:"reply_to"`
}

// Client sends drafts to the relay endpoint. It implements contact.Relay.
type Client struct {
	cfg    config.RelayConfig
	client *http.Client
	logger logging.Logger
}

var _ contact.Relay = (*Client)(nil)

// NewClient creates a client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg config.RelayConfig, httpClient *http.Client, logger logging.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Client{
		cfg:    cfg,
		client: httpClient,
		logger: logger.WithComponent("relay"),
	}
}

// BuildRequest maps a draft onto the service's field names. Replies go to the
// submitter.
func (c *Client) BuildRequest(d contact.Draft) Request {
	return Request{
		ServiceID:  c.cfg.ServiceID,
		TemplateID: c.cfg.TemplateID,
		UserID:     c.cfg.PublicKey,
		TemplateParams: TemplateParams{
			FromName:  d.Name,
			FromEmail: d.Email,
			Subject:   d.Subject,
			Message:   d.Message,
			ToEmail:   c.cfg.ToEmail,
			ReplyTo:   d.Email,
		},
	}
}

// Send issues exactly one POST for d. A non-2xx response becomes an error
// whose message is the trimmed response body.
func (c *Client) Send(ctx context.Context, d contact.Draft) error {
	data, err := json.Marshal(c.BuildRequest(d))
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeRelayTransport, "failed to marshal relay request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(data))
	if err != nil {
		return errors.NewRelayError(errors.ErrCodeRelayTransport, "failed to create relay request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	perf := logging.StartOperation(c.logger, "relay_send")
	resp, err := c.client.Do(req)
	if err != nil {
		perf.EndWithError(ctx, err)
		return errors.NewRelayError(errors.ErrCodeRelayTransport, "failed to reach email relay", err).
			WithContext("endpoint", c.cfg.Endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		text := strings.TrimSpace(string(body))
		if text == "" {
			text = DefaultFailureText
		}
		relayErr := errors.NewRelayError(errors.ErrCodeRelayStatus, text, nil).
			WithContext("status", resp.StatusCode)
		perf.EndWithError(ctx, relayErr)
		return relayErr
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	perf.End(ctx)
	c.logger.Debug(ctx, "Relay accepted message", "status", resp.StatusCode)
	return nil
}

// Describe returns a loggable summary of the configuration with the public key
// masked.
func (c *Client) Describe() string {
	return fmt.Sprintf("endpoint=%s service=%s template=%s key=%s to=%s",
		c.cfg.Endpoint, c.cfg.ServiceID, c.cfg.TemplateID, mask(c.cfg.PublicKey), c.cfg.ToEmail)
}

func mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}
