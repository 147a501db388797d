package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Button is an optional quick-reply attached to an assistant message.
type Button struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// Message is one reply entry from the conversational webhook.
type Message struct {
	RecipientID string   `json:"recipient_id"`
	Text        string   `json:"text,omitempty"`
	Buttons     []Button `json:"buttons,omitempty"`
}

// Sender is the outbound boundary the widget talks through; Relay is the
// production implementation and tests substitute their own.
type Sender interface {
	Send(ctx context.Context, sender, message string) ([]Message, error)
}

// Relay posts messages to the conversational-AI webhook and decodes the
// reply turns. A non-2xx status is a transport failure.
type Relay struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// RelayOption configures the relay.
type RelayOption func(*Relay)

// WithHTTPClient overrides the HTTP client used for webhook calls.
func WithHTTPClient(client *http.Client) RelayOption {
	return func(r *Relay) {
		if client != nil {
			r.client = client
		}
	}
}

// WithTimeout bounds each webhook call.
func WithTimeout(timeout time.Duration) RelayOption {
	return func(r *Relay) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// NewRelay builds a relay for the given webhook URL.
func NewRelay(url string, opts ...RelayOption) *Relay {
	r := &Relay{
		url:     url,
		client:  http.DefaultClient,
		timeout: 15 * time.Second,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

type relayRequest struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// Send posts one message and returns the webhook's reply turns in order.
func (r *Relay) Send(ctx context.Context, sender, message string) ([]Message, error) {
	if r.url == "" {
		return nil, errors.New("chat: relay url is not configured")
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if r.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	body, err := json.Marshal(relayRequest{Sender: sender, Message: message})
	if err != nil {
		return nil, fmt.Errorf("chat: encode relay request: %w", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New("chat: unexpected relay status " + resp.Status)
	}

	var replies []Message
	if err := json.NewDecoder(resp.Body).Decode(&replies); err != nil {
		return nil, fmt.Errorf("chat: decode relay response: %w", err)
	}
	return replies, nil
}
