// Package webhook delivers supervisor notifications to a Discord-compatible
// webhook endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"autoheal/internal/heal"

	"golang.org/x/time/rate"
)

const (
	DefaultUsername = "Docker Autoheal"
	embedTitle      = "Container Status Update"
	defaultTimeout  = 10 * time.Second
	// maxErrorBody bounds how much of a failed response is quoted in errors.
	maxErrorBody = 512

	// Discord allows 5 webhook posts per 2 seconds.
	defaultBurst    = 5
	defaultInterval = 400 * time.Millisecond
)

var (
	_ heal.Notifier = (*Notifier)(nil)
	_ heal.Notifier = Nop{}
)

// Payload is the JSON body posted to the webhook.
type Payload struct {
	Content  string  `json:"content"`
	Username string  `json:"username"`
	Embeds   []Embed `json:"embeds"`
}

type Embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

// Notifier posts each message once. It never retries; callers log failures.
type Notifier struct {
	URL      string
	Username string
	Client   *http.Client
	Clock    heal.Clock
	// Limiter paces posts when set. Notify blocks for a token.
	Limiter *rate.Limiter
}

// New returns a Notifier for url, or Nop when url is empty.
func New(url string) heal.Notifier {
	url = strings.TrimSpace(url)
	if url == "" {
		return Nop{}
	}
	return &Notifier{
		URL:     url,
		Limiter: rate.NewLimiter(rate.Every(defaultInterval), defaultBurst),
	}
}

func (n *Notifier) Notify(ctx context.Context, message string) error {
	if n.Limiter != nil {
		if err := n.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for webhook rate limit: %w", err)
		}
	}
	body, err := json.Marshal(n.payload(message))
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client().Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("webhook returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (n *Notifier) payload(message string) Payload {
	username := n.Username
	if username == "" {
		username = DefaultUsername
	}
	var now time.Time
	if n.Clock != nil {
		now = n.Clock.Now()
	} else {
		now = time.Now()
	}
	return Payload{
		Content:  message,
		Username: username,
		Embeds: []Embed{{
			Title:       embedTitle,
			Description: message,
			Timestamp:   now.UTC().Format(time.RFC3339),
		}},
	}
}

func (n *Notifier) client() *http.Client {
	if n.Client != nil {
		return n.Client
	}
	return &http.Client{Timeout: defaultTimeout}
}

// Nop discards every message. It stands in when no endpoint is configured.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }
