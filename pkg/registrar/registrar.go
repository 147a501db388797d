// Package registrar provides implementations of the registration side of the
// async submission boundary. The product has no real registration backend;
// Simulated stands in for it while SchemaGuard validates outgoing payloads
// against the declared registration contract before delegating.
package registrar

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed registration.yaml
var registrationSpec []byte

// Submission records one registrar invocation.
type Submission struct {
	FormID   string
	Snapshot map[string]any
}

// Simulated accepts every registration without persisting anything, matching
// the product behavior where success is client-side only. Err, when set,
// makes every call fail; useful for exercising the failure path.
type Simulated struct {
	Err error

	mu    sync.Mutex
	calls []Submission
}

// Register implements the wizard registrar contract.
func (s *Simulated) Register(_ context.Context, formID string, snapshot map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Submission{FormID: formID, Snapshot: snapshot})
	return s.Err
}

// Submissions returns a copy of every recorded call.
func (s *Simulated) Submissions() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Submission(nil), s.calls...)
}

// Next is the delegate interface SchemaGuard wraps; it matches
// wizard.Registrar structurally.
type Next interface {
	Register(ctx context.Context, formID string, snapshot map[string]any) error
}

// SchemaGuard validates snapshots against the embedded registration contract
// before invoking the wrapped registrar. Invalid payloads never reach the
// delegate.
type SchemaGuard struct {
	next   Next
	schema *openapi3.Schema
}

// NewSchemaGuard loads the embedded registration document and wraps next.
func NewSchemaGuard(next Next) (*SchemaGuard, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(registrationSpec)
	if err != nil {
		return nil, fmt.Errorf("registrar: load registration contract: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("registrar: invalid registration contract: %w", err)
	}
	ref, ok := doc.Components.Schemas["Registration"]
	if !ok || ref.Value == nil {
		return nil, fmt.Errorf("registrar: registration contract misses the Registration schema")
	}
	return &SchemaGuard{next: next, schema: ref.Value}, nil
}

// Register implements the wizard registrar contract.
func (g *SchemaGuard) Register(ctx context.Context, formID string, snapshot map[string]any) error {
	normalized, err := normalize(snapshot)
	if err != nil {
		return fmt.Errorf("registrar: encode snapshot: %w", err)
	}
	if err := g.schema.VisitJSON(normalized, openapi3.MultiErrors()); err != nil {
		return fmt.Errorf("registrar: snapshot violates registration contract: %w", err)
	}
	return g.next.Register(ctx, formID, snapshot)
}

// normalize round-trips the snapshot through JSON so numeric types match what
// the schema validator expects.
func normalize(snapshot map[string]any) (any, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
