// Package chatapi exposes the itinerary chat widget as a drop-in net/http
// component: one POST endpoint that forwards a user message through the
// widget and returns the updated transcript.
package chatapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bonhomiee/formflow/pkg/chat"
)

// HTTPError lets guards carry their own status code.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusError is a plain HTTPError implementation.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

type sendRequest struct {
	Message string `json:"message"`
}

type transcriptResponse struct {
	Data      []chat.Turn `json:"data"`
	Composing bool        `json:"composing"`
}

// Handler builds the chat endpoint with default options plus any overrides.
func Handler(widget *chat.Widget, fns ...OptionFn) http.Handler {
	return NewHandler(widget, fns...)
}

// NewHandler builds the chat endpoint handler around one widget session.
func NewHandler(widget *chat.Widget, fns ...OptionFn) http.Handler {
	opts := NewOptions(fns...)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r == nil || widget == nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		switch r.Method {
		case http.MethodPost:
		case http.MethodGet:
			writeTranscript(w, widget)
			return
		default:
			w.Header().Set("Allow", http.MethodGet+", "+http.MethodPost)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
		}

		var req sendRequest
		body := http.MaxBytesReader(w, r.Body, opts.MaxBodyBytes)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		widget.Send(r.Context(), req.Message)
		writeTranscript(w, widget)
	})
}

func writeTranscript(w http.ResponseWriter, widget *chat.Widget) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(transcriptResponse{
		Data:      widget.Transcript().Turns(),
		Composing: widget.Transcript().Composing(),
	})
}

func writeGuardError(w http.ResponseWriter, err error) {
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		if c := httpErr.StatusCode(); c > 0 {
			code = c
		}
	}
	http.Error(w, http.StatusText(code), code)
}
