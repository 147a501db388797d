package chat

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

const (
	defaultGreeting = "Hi there! Ready to plan your next amazing trip?"
	defaultFallback = "Unable to reach the travel assistant right now."
)

// Widget is one chat session: a transcript plus the relay it forwards user
// messages through. Like a form session it is single-threaded; the composing
// flag doubles as the single-in-flight guard for the send control.
type Widget struct {
	transcript *Transcript
	relay      Sender
	sender     string
	fallback   string
	sanitizer  *bluemonday.Policy
}

// WidgetOption configures a widget.
type WidgetOption func(*Widget)

// WithSenderID overrides the generated session identifier sent to the
// webhook.
func WithSenderID(id string) WidgetOption {
	return func(w *Widget) {
		if id != "" {
			w.sender = id
		}
	}
}

// WithGreeting replaces the seeded assistant greeting; an empty string
// removes it.
func WithGreeting(greeting string) WidgetOption {
	return func(w *Widget) {
		w.transcript = NewTranscript(greeting)
	}
}

// WithFallback replaces the assistant-unreachable turn text.
func WithFallback(text string) WidgetOption {
	return func(w *Widget) {
		if text != "" {
			w.fallback = text
		}
	}
}

// NewWidget builds a chat session around the given relay.
func NewWidget(relay Sender, opts ...WidgetOption) *Widget {
	w := &Widget{
		transcript: NewTranscript(defaultGreeting),
		relay:      relay,
		sender:     uuid.NewString(),
		fallback:   defaultFallback,
		sanitizer:  bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(w)
	}
	return w
}

// Transcript exposes the session transcript.
func (w *Widget) Transcript() *Transcript { return w.transcript }

// SenderID returns the session identifier used on the wire.
func (w *Widget) SenderID() string { return w.sender }

// Send forwards one user message. The local turn is always appended before
// any reply; reply turns are appended in relay order, skipping entries with
// no text. On transport failure exactly one fallback assistant turn is
// appended instead, and the error goes no further. The composing marker is
// cleared whichever way the call settles. Blank input, or a call while a
// previous send is still in flight, is a no-op.
func (w *Widget) Send(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" || w.transcript.composing {
		return
	}

	w.transcript.append(OriginUser, text)
	w.transcript.composing = true
	defer func() { w.transcript.composing = false }()

	replies, err := w.relay.Send(ctx, w.sender, text)
	if err != nil {
		w.transcript.append(OriginAssistant, w.fallback)
		return
	}
	for _, reply := range replies {
		if reply.Text == "" {
			continue
		}
		w.transcript.append(OriginAssistant, w.sanitize(reply.Text))
	}
}

// sanitize strips markup from remote assistant text before it is rendered.
func (w *Widget) sanitize(text string) string {
	return strings.TrimSpace(w.sanitizer.Sanitize(text))
}
