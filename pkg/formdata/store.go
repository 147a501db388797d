// Package formdata implements the in-memory field store backing one form
// session. Values and surfaced validation errors live side by side; editing a
// field always clears its error slot. Unknown field names read as zero values
// rather than failing.
package formdata

import (
	"sort"
	"strings"

	"github.com/bonhomiee/formflow/pkg/upload"
)

// Store maps field names to their current values for the active session.
// A field may hold a string, a string list, a single document or a labelled
// document batch. The store is not safe for concurrent use; a session is a
// single event-driven flow.
type Store struct {
	values   map[string]any
	errors   map[string]string
	defaults map[string]string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		values:   make(map[string]any),
		errors:   make(map[string]string),
		defaults: make(map[string]string),
	}
}

// SetDefault records the value a field returns to on Reset and seeds the
// current value when the field is still unset.
func (s *Store) SetDefault(name, value string) {
	s.defaults[name] = value
	if _, ok := s.values[name]; !ok {
		s.values[name] = value
	}
}

// Set stores a string value and clears any previously surfaced error for the
// field.
func (s *Store) Set(name, value string) {
	s.values[name] = value
	delete(s.errors, name)
}

// SetList replaces a list value.
func (s *Store) SetList(name string, values []string) {
	s.values[name] = append([]string(nil), values...)
	delete(s.errors, name)
}

// Toggle adds the option to a list field when absent and removes it when
// present, matching multi-select chip behavior.
func (s *Store) Toggle(name, option string) {
	current := s.List(name)
	next := current[:0:0]
	found := false
	for _, have := range current {
		if have == option {
			found = true
			continue
		}
		next = append(next, have)
	}
	if !found {
		next = append(next, option)
	}
	s.values[name] = next
	delete(s.errors, name)
}

// Attach stores a single document. Callers are expected to run the upload
// policy first; the store never holds a rejected document.
func (s *Store) Attach(name string, doc upload.Document) {
	s.values[name] = doc
	delete(s.errors, name)
}

// Detach removes a single document value.
func (s *Store) Detach(name string) {
	delete(s.values, name)
	delete(s.errors, name)
}

// SetBatch replaces a labelled document batch.
func (s *Store) SetBatch(name string, docs []upload.Named) {
	s.values[name] = append([]upload.Named(nil), docs...)
	delete(s.errors, name)
}

// String returns the field's string value, or "" when absent or non-string.
func (s *Store) String(name string) string {
	v, _ := s.values[name].(string)
	return v
}

// List returns the field's list value, or nil when absent.
func (s *Store) List(name string) []string {
	v, _ := s.values[name].([]string)
	return v
}

// Document returns the attached document and whether one is present.
func (s *Store) Document(name string) (upload.Document, bool) {
	v, ok := s.values[name].(upload.Document)
	return v, ok
}

// Batch returns the labelled document batch for the field, or nil.
func (s *Store) Batch(name string) []upload.Named {
	v, _ := s.values[name].([]upload.Named)
	return v
}

// Empty reports whether the field holds no meaningful value: a blank string
// after trimming, an empty list, or no attached document.
func (s *Store) Empty(name string) bool {
	switch v := s.values[name].(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case upload.Document:
		return false
	case []upload.Named:
		return len(v) == 0
	default:
		return true
	}
}

// SetError surfaces a validation message for the field.
func (s *Store) SetError(name, message string) {
	if message == "" {
		delete(s.errors, name)
		return
	}
	s.errors[name] = message
}

// FieldError returns the surfaced message for the field, or "".
func (s *Store) FieldError(name string) string {
	return s.errors[name]
}

// HasErrors reports whether any of the named fields carry a surfaced error.
// With no arguments it considers every field.
func (s *Store) HasErrors(names ...string) bool {
	if len(names) == 0 {
		return len(s.errors) > 0
	}
	for _, name := range names {
		if s.errors[name] != "" {
			return true
		}
	}
	return false
}

// ClearErrors drops every surfaced field error without touching values.
func (s *Store) ClearErrors() {
	s.errors = make(map[string]string)
}

// Reset restores declared defaults and drops everything else, including
// surfaced errors.
func (s *Store) Reset() {
	s.values = make(map[string]any)
	s.errors = make(map[string]string)
	for name, value := range s.defaults {
		s.values[name] = value
	}
}

// Snapshot returns a JSON-serialisable copy of the store for the submission
// boundary. Documents collapse to their metadata; payload bytes never leave
// the session. Keys are emitted deterministically.
func (s *Store) Snapshot() map[string]any {
	out := make(map[string]any, len(s.values))
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		switch v := s.values[name].(type) {
		case string:
			out[name] = v
		case []string:
			out[name] = append([]string(nil), v...)
		case upload.Document:
			out[name] = documentMeta(v)
		case []upload.Named:
			batch := make([]any, 0, len(v))
			for _, named := range v {
				entry := documentMeta(named.Document)
				entry["label"] = named.Label
				batch = append(batch, entry)
			}
			out[name] = batch
		}
	}
	return out
}

func documentMeta(doc upload.Document) map[string]any {
	return map[string]any{
		"filename": doc.Filename,
		"mimeType": doc.MIME,
		"size":     doc.Size,
	}
}
