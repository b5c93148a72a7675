// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package promote

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"designforge/internal/logging"
	"designforge/internal/models"
)

// SignatureHeader carries "sha256=<hex HMAC of the body>".
const SignatureHeader = "X-Designforge-Signature"

// RequestCompleted is the webhook body sent when a user request has been
// turned into a design.
type RequestCompleted struct {
	Event     string    `json:"event"`
	RequestID uuid.UUID `json:"request_id"`
	DesignID  uuid.UUID `json:"design_id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"image_url"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// WebhookOptions configures a request-completion webhook.
type WebhookOptions struct {
	URL        string
	Secret     string
	SiteURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Webhook notifies an external endpoint that a request was completed.
// Designs not driven by a request are skipped.
type Webhook struct {
	url     string
	secret  []byte
	siteURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewWebhook creates a request-completion notifier.
func NewWebhook(opts WebhookOptions) (*Webhook, error) {
	if opts.URL == "" {
		return nil, errors.New("webhook url is empty")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Webhook{
		url:     opts.URL,
		secret:  []byte(opts.Secret),
		siteURL: opts.SiteURL,
		client:  opts.HTTPClient,
		logger:  logger,
	}, nil
}

// Name identifies the promoter in logs.
func (w *Webhook) Name() string {
	return "request-webhook"
}

// Promote posts a RequestCompleted event for request-driven designs.
func (w *Webhook) Promote(ctx context.Context, d *models.Design, _ []byte) error {
	if d.RequestID == nil {
		return nil
	}

	body, err := json.Marshal(RequestCompleted{
		Event:     "request.completed",
		RequestID: *d.RequestID,
		DesignID:  d.ID,
		Slug:      d.Slug,
		Title:     d.Title,
		ImageURL:  d.ImageURL,
		URL:       DesignURL(w.siteURL, d.Slug),
		CreatedAt: d.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if len(w.secret) > 0 {
		req.Header.Set(SignatureHeader, "sha256="+Sign(w.secret, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, snippet)
	}

	w.logger.Info("request completion delivered", "request_id", *d.RequestID, "design_id", d.ID)
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
