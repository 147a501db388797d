// Package html renders the active stage of a signup workflow to a themed
// HTML page. It stays read-only over the session; submission and navigation
// happen elsewhere.
package html

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	theme "github.com/goliatone/go-theme"

	"github.com/bonhomiee/formflow/pkg/manifest"
	"github.com/bonhomiee/formflow/pkg/render/template"
	"github.com/bonhomiee/formflow/pkg/render/template/gotemplate"
	"github.com/bonhomiee/formflow/pkg/wizard"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

const pageTemplate = "page.html"

// Option customises the renderer configuration.
type Option func(*config)

type config struct {
	engine    template.TemplateRenderer
	selection *theme.Selection
}

// WithTemplateRenderer swaps the embedded pongo2 engine for a custom one.
func WithTemplateRenderer(engine template.TemplateRenderer) Option {
	return func(cfg *config) {
		if engine != nil {
			cfg.engine = engine
		}
	}
}

// WithThemeSelection applies a resolved theme selection. Nil keeps the
// default Bonhomiee selection.
func WithThemeSelection(selection *theme.Selection) Option {
	return func(cfg *config) {
		if selection != nil {
			cfg.selection = selection
		}
	}
}

// Renderer produces the HTML page for a session's active stage.
type Renderer struct {
	engine template.TemplateRenderer
	theme  rendererTheme
}

// New constructs a Renderer backed by the embedded templates unless an
// engine override is supplied.
func New(opts ...Option) (*Renderer, error) {
	cfg := &config{selection: DefaultSelection()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	if cfg.engine == nil {
		sub, err := fs.Sub(embeddedTemplates, "templates")
		if err != nil {
			return nil, fmt.Errorf("html: embedded templates: %w", err)
		}
		engine, err := gotemplate.New(gotemplate.WithFS(sub))
		if err != nil {
			return nil, fmt.Errorf("html: template engine: %w", err)
		}
		cfg.engine = engine
	}

	return &Renderer{
		engine: cfg.engine,
		theme:  buildThemeContext(cfg.selection),
	}, nil
}

// RenderStage renders the session's current stage.
func (r *Renderer) RenderStage(session *wizard.Session) (string, error) {
	if r == nil || r.engine == nil {
		return "", errors.New("html: renderer is nil")
	}
	if session == nil {
		return "", errors.New("html: session is nil")
	}
	return r.engine.Render(pageTemplate, r.stageContext(session))
}

func (r *Renderer) stageContext(session *wizard.Session) map[string]any {
	form := session.Form()
	fields := session.StageFields()

	fieldContexts := make([]map[string]any, 0, len(fields))
	for _, field := range fields {
		fieldContexts = append(fieldContexts, r.fieldContext(session, field))
	}

	return map[string]any{
		"form": map[string]any{
			"id":    form.ID,
			"title": form.Title,
		},
		"stage": map[string]any{
			"name":     session.StageName(),
			"number":   session.Stage(),
			"count":    session.StageCount(),
			"terminal": session.Terminal(),
		},
		"banner": session.Banner(),
		"fields": fieldContexts,
		"theme": map[string]any{
			"name":         r.theme.Name,
			"variant":      r.theme.Variant,
			"cssVarsStyle": r.theme.CSSVarsStyle,
			"json":         r.theme.JSON,
		},
	}
}

func (r *Renderer) fieldContext(session *wizard.Session, field manifest.Field) map[string]any {
	store := session.Store()

	ctx := map[string]any{
		"name":        field.Name,
		"label":       field.Label,
		"kind":        inputKind(field.Kind),
		"required":    field.Required,
		"placeholder": field.Placeholder,
		"tooltip":     field.Tooltip,
		"options":     field.Options,
		"error":       store.FieldError(field.Name),
	}

	switch field.Kind {
	case manifest.KindMultiSelect:
		ctx["selected"] = store.List(field.Name)
	case manifest.KindFile:
		if doc, ok := store.Document(field.Name); ok {
			ctx["filename"] = doc.Filename
		}
	case manifest.KindBatch:
		entries := store.Batch(field.Name)
		names := make([]map[string]any, 0, len(entries))
		for _, entry := range entries {
			names = append(names, map[string]any{
				"label":    entry.Label,
				"filename": entry.Document.Filename,
			})
		}
		ctx["documents"] = names
	default:
		ctx["value"] = store.String(field.Name)
	}
	return ctx
}

// inputKind maps manifest kinds onto the widget names the page template
// dispatches on.
func inputKind(kind manifest.FieldKind) string {
	switch kind {
	case "", manifest.KindText:
		return "text"
	default:
		return string(kind)
	}
}
