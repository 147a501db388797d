// Package wizard drives one staged form session: it owns the field store,
// the current stage, the stage banner, and the submission boundary. Stage
// arity and field rules come from a manifest; nothing here is specific to a
// single signup variant.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/bonhomiee/formflow/pkg/formdata"
	"github.com/bonhomiee/formflow/pkg/manifest"
	"github.com/bonhomiee/formflow/pkg/rules"
	"github.com/bonhomiee/formflow/pkg/upload"
)

// Registrar is the registration call site of the async submission boundary.
// On a successful terminal submit it is invoked exactly once with the fully
// assembled store snapshot.
type Registrar interface {
	Register(ctx context.Context, formID string, snapshot map[string]any) error
}

// RegistrarFunc adapts a function to the Registrar interface.
type RegistrarFunc func(ctx context.Context, formID string, snapshot map[string]any) error

// Register implements Registrar.
func (f RegistrarFunc) Register(ctx context.Context, formID string, snapshot map[string]any) error {
	return f(ctx, formID, snapshot)
}

// ErrSubmitInFlight is returned when SubmitFinal is called while a previous
// submission has not settled. Callers disable the submit control for the
// duration of the call; this guard backs that rule up.
var ErrSubmitInFlight = errors.New("wizard: submission already in progress")

// ErrNotTerminal is returned when SubmitFinal is called before the last stage.
var ErrNotTerminal = errors.New("wizard: submit is only permitted at the terminal stage")

const mandatoryMessage = "All mandatory fields must be filled"

// Result reports the outcome of a terminal submission.
type Result struct {
	Registered bool
	// NavigateHome signals the router boundary: the session's final
	// observable action on success is a redirect to the landing route.
	NavigateHome bool
	Banner       string
}

// Option configures a session.
type Option func(*Session)

// WithRegistrar sets the registration boundary. The default simulates
// success without persisting anything.
func WithRegistrar(r Registrar) Option {
	return func(s *Session) {
		if r != nil {
			s.registrar = r
		}
	}
}

// WithStrengthOracle injects the password strength capability.
func WithStrengthOracle(o rules.StrengthOracle) Option {
	return func(s *Session) { s.strength = o }
}

// WithPhoneOracle injects the phone structural-validity capability.
func WithPhoneOracle(o rules.PhoneOracle) Option {
	return func(s *Session) { s.phone = o }
}

// Session is the single-threaded workflow state for one form. It is driven
// by UI events run to completion; it is not safe for concurrent use.
type Session struct {
	form  manifest.Form
	store *formdata.Store
	stage int
	total int

	banner   string
	inFlight bool

	registrar Registrar
	strength  rules.StrengthOracle
	phone     rules.PhoneOracle

	compiled map[string][]rules.Rule
	derived  map[string][]manifest.Field
}

// NewSession builds a session for the given form. The form must already have
// passed manifest.Validate; rule compilation re-checks the check kinds it
// consumes.
func NewSession(form manifest.Form, opts ...Option) (*Session, error) {
	if err := manifest.Validate(form); err != nil {
		return nil, fmt.Errorf("wizard: %w", err)
	}

	s := &Session{
		form:  form,
		store: formdata.New(),
		stage: 1,
		total: len(form.Stages),
		registrar: RegistrarFunc(func(context.Context, string, map[string]any) error {
			return nil
		}),
		compiled: make(map[string][]rules.Rule),
		derived:  make(map[string][]manifest.Field),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}

	for _, stage := range form.Stages {
		for _, field := range stage.Fields {
			if field.Default != "" {
				s.store.SetDefault(field.Name, field.Default)
			}
			if field.DeriveFrom != "" {
				s.derived[field.DeriveFrom] = append(s.derived[field.DeriveFrom], field)
			}
			compiled, err := s.compileChecks(field)
			if err != nil {
				return nil, err
			}
			s.compiled[field.Name] = compiled
		}
	}
	return s, nil
}

func (s *Session) compileChecks(field manifest.Field) ([]rules.Rule, error) {
	out := make([]rules.Rule, 0, len(field.Checks))
	for _, check := range field.Checks {
		switch check.Kind {
		case manifest.CheckRequired:
			out = append(out, rules.Required(field.Label))
		case manifest.CheckEmail:
			out = append(out, rules.Email())
		case manifest.CheckPhoneDigits:
			min := paramInt(check.Params, "min", 10)
			max := paramInt(check.Params, "max", min)
			out = append(out, rules.DigitPhone(min, max))
		case manifest.CheckPhoneIntl:
			out = append(out, rules.InternationalPhone(s.phone, check.Params["countryCodeField"]))
		case manifest.CheckUsername:
			out = append(out, rules.Username())
		case manifest.CheckPassword:
			var names []string
			for _, name := range strings.Split(check.Params["names"], ",") {
				if trimmed := strings.TrimSpace(name); trimmed != "" {
					names = append(names, trimmed)
				}
			}
			out = append(out, rules.Password(s.strength, names...))
		case manifest.CheckConfirm:
			out = append(out, rules.ConfirmOf(check.Params["of"]))
		case manifest.CheckWebsite:
			out = append(out, rules.Website())
		case manifest.CheckTaxID:
			out = append(out, rules.TaxID(check.Params["typeField"]))
		case manifest.CheckMinSelection:
			out = append(out, rules.MinSelection(field.Name, paramInt(check.Params, "min", 1)))
		default:
			return nil, fmt.Errorf("wizard: field %q: unknown check kind %q", field.Name, check.Kind)
		}
	}
	return out, nil
}

func paramInt(params map[string]string, key string, fallback int) int {
	raw := params[key]
	if raw == "" {
		return fallback
	}
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return fallback
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// Form returns the manifest the session was built from.
func (s *Session) Form() manifest.Form { return s.form }

// Store exposes the session's field store for rendering and inspection.
func (s *Session) Store() *formdata.Store { return s.store }

// Stage returns the current 1-based stage number.
func (s *Session) Stage() int { return s.stage }

// StageCount returns the total number of stages.
func (s *Session) StageCount() int { return s.total }

// StageName returns the name of the current stage.
func (s *Session) StageName() string { return s.form.Stages[s.stage-1].Name }

// StageFields returns the field declarations of the current stage.
func (s *Session) StageFields() []manifest.Field {
	return append([]manifest.Field(nil), s.form.Stages[s.stage-1].Fields...)
}

// Terminal reports whether the session sits at its last stage.
func (s *Session) Terminal() bool { return s.stage == s.total }

// Banner returns the current stage-scoped aggregate error, or "".
func (s *Session) Banner() string { return s.banner }

// FieldError returns the inline message surfaced for a field, or "".
func (s *Session) FieldError(name string) string { return s.store.FieldError(name) }

// Set mutates a string field. The field's previous error is cleared, sibling
// fields listed in the declaration's resets are wiped, derived fields are
// refreshed, and the field's own checks re-run immediately.
func (s *Session) Set(name, value string) {
	s.store.Set(name, value)

	if field, ok := s.form.Field(name); ok {
		for _, target := range field.Resets {
			if targetField, ok := s.form.Field(target); ok &&
				(targetField.Kind == manifest.KindFile || targetField.Kind == manifest.KindBatch) {
				s.store.Detach(target)
				continue
			}
			s.store.Set(target, "")
		}
	}

	for _, derived := range s.derived[name] {
		s.store.Set(derived.Name, deriveValue(value))
	}

	s.validateLive(name)
}

// Toggle flips an option on a multi-select field.
func (s *Session) Toggle(name, option string) {
	s.store.Toggle(name, option)
}

// Attach validates a document against the field's upload policy and stores it
// on success. The returned message is "" when the document was attached;
// rejected documents are never stored.
func (s *Session) Attach(name string, doc upload.Document) string {
	field, ok := s.form.Field(name)
	if !ok || field.Upload == nil {
		return fmt.Sprintf("No upload is configured for %q", name)
	}
	policy := uploadPolicy(*field.Upload)
	if msg := policy.Check(doc); msg != "" {
		s.store.SetError(name, msg)
		return msg
	}
	s.store.Attach(name, doc)
	return ""
}

// AttachBatch validates a labelled batch against the field's batch policy and
// appends it to the accepted set on success.
func (s *Session) AttachBatch(name, label string, docs []upload.Document) string {
	field, ok := s.form.Field(name)
	if !ok || field.Upload == nil {
		return fmt.Sprintf("No upload is configured for %q", name)
	}
	policy := upload.BatchPolicy{Policy: uploadPolicy(*field.Upload), MaxCount: field.Upload.MaxCount}
	accepted, msg := policy.Accept(s.store.Batch(name), label, docs)
	if msg != "" {
		s.store.SetError(name, msg)
		return msg
	}
	s.store.SetBatch(name, accepted)
	return ""
}

// RemoveDocument detaches a single-document field.
func (s *Session) RemoveDocument(name string) {
	s.store.Detach(name)
}

// RemoveFromBatch drops one entry from a batch field by index.
func (s *Session) RemoveFromBatch(name string, index int) {
	batch := s.store.Batch(name)
	if index < 0 || index >= len(batch) {
		return
	}
	s.store.SetBatch(name, append(batch[:index:index], batch[index+1:]...))
}

func uploadPolicy(cfg manifest.UploadConfig) upload.Policy {
	return upload.Policy{
		AllowedTypes: cfg.AllowedTypes,
		MaxBytes:     cfg.MaxSizeMB * 1024 * 1024,
	}
}

func (s *Session) validateLive(name string) {
	value := s.store.String(name)
	for _, rule := range s.compiled[name] {
		if msg := rule(value, s.store); msg != "" {
			s.store.SetError(name, msg)
			return
		}
	}
	s.store.SetError(name, "")
}

// Advance runs aggregate validation over the current stage's required fields
// and moves forward one stage on success. On failure the stage is unchanged,
// entered values are untouched and the aggregate message is surfaced as the
// banner. At the terminal stage Advance is a no-op.
func (s *Session) Advance() bool {
	if s.Terminal() {
		return false
	}
	if msg := s.aggregate(s.stage); msg != "" {
		s.banner = msg
		return false
	}
	s.banner = ""
	s.stage++
	return true
}

// Retreat moves back one stage unconditionally. It never re-validates, keeps
// every field value, and clears the stage banner. At stage 1 it is a no-op.
func (s *Session) Retreat() bool {
	if s.stage == 1 {
		return false
	}
	s.stage--
	s.banner = ""
	return true
}

// SubmitFinal runs aggregate validation over the terminal stage, including
// conditionally-required fields, and invokes the registrar exactly once on
// success. The in-flight guard rejects overlapping submissions; it is always
// released when the call settles.
func (s *Session) SubmitFinal(ctx context.Context) (Result, error) {
	if !s.Terminal() {
		return Result{}, ErrNotTerminal
	}
	if s.inFlight {
		return Result{}, ErrSubmitInFlight
	}
	s.inFlight = true
	defer func() { s.inFlight = false }()

	if msg := s.aggregate(s.stage); msg != "" {
		s.banner = msg
		return Result{Banner: msg}, nil
	}
	s.banner = ""

	if err := s.registrar.Register(ctx, s.form.ID, s.store.Snapshot()); err != nil {
		s.banner = "Registration failed. Please try again."
		return Result{Banner: s.banner}, fmt.Errorf("wizard: register %s: %w", s.form.ID, err)
	}
	return Result{Registered: true, NavigateHome: true}, nil
}

// aggregate evaluates every required field of the given stage and returns the
// surfaced message, or "" when the stage passes. Field-level messages are
// written to the store as a side effect; values are never cleared.
func (s *Session) aggregate(stageNum int) string {
	stage := s.form.Stages[stageNum-1]
	missing := false
	firstRuleMsg := ""

	for _, field := range stage.Fields {
		required := field.Required
		if field.RequiredWhen != "" && !s.store.Empty(field.RequiredWhen) {
			required = true
		}
		if required && s.store.Empty(field.Name) {
			missing = true
			continue
		}
		if s.store.Empty(field.Name) {
			continue
		}
		value := s.store.String(field.Name)
		for _, rule := range s.compiled[field.Name] {
			if msg := rule(value, s.store); msg != "" {
				s.store.SetError(field.Name, msg)
				if firstRuleMsg == "" {
					firstRuleMsg = msg
				}
				break
			}
		}
	}

	if missing {
		return mandatoryMessage
	}
	return firstRuleMsg
}

// deriveValue builds a suggested username from a source value: whitespace
// stripped, lower-cased, with a short random agency suffix.
func deriveValue(source string) string {
	clean := strings.ToLower(strings.Join(strings.Fields(source), ""))
	if clean == "" {
		return ""
	}
	return fmt.Sprintf("%s@A%d", clean, 100+rand.N(900))
}
