package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/bonhomiee/formflow/pkg/manifest"
	"github.com/bonhomiee/formflow/pkg/upload"
	"github.com/bonhomiee/formflow/pkg/wizard"
)

const (
	actionNext     = "Next"
	actionBack     = "Back"
	actionRegister = "Register"
	actionQuit     = "Quit"
)

// runner walks one session stage by stage until the form is registered or
// the user quits.
type runner struct {
	driver  PromptDriver
	session *wizard.Session
	out     io.Writer

	readFile func(path string) ([]byte, error)
}

func newRunner(driver PromptDriver, session *wizard.Session, out io.Writer) *runner {
	return &runner{
		driver:   driver,
		session:  session,
		out:      out,
		readFile: os.ReadFile,
	}
}

func (r *runner) run(ctx context.Context) error {
	for {
		if err := r.promptStage(ctx); err != nil {
			return err
		}

		action, err := r.navigate(ctx)
		if err != nil {
			return err
		}

		switch action {
		case actionQuit:
			return nil
		case actionBack:
			r.session.Retreat()
		case actionNext:
			if !r.session.Advance() {
				if err := r.driver.Info(ctx, r.session.Banner()); err != nil {
					return err
				}
			}
		case actionRegister:
			done, err := r.register(ctx)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

func (r *runner) promptStage(ctx context.Context) error {
	header := fmt.Sprintf("Step %d of %d: %s", r.session.Stage(), r.session.StageCount(), r.session.StageName())
	if err := r.driver.Info(ctx, header); err != nil {
		return err
	}

	for _, field := range r.session.StageFields() {
		if err := r.promptField(ctx, field); err != nil {
			return err
		}
		if msg := r.session.FieldError(field.Name); msg != "" {
			if err := r.driver.Info(ctx, "  ! "+msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *runner) promptField(ctx context.Context, field manifest.Field) error {
	label := field.Label
	if field.Required {
		label += " *"
	}

	switch field.Kind {
	case manifest.KindSelect:
		return r.promptSelect(ctx, field, label)
	case manifest.KindMultiSelect:
		return r.promptMultiSelect(ctx, field, label)
	case manifest.KindPassword:
		value, err := r.driver.Password(ctx, InputConfig{Message: label, Help: field.Tooltip})
		if err != nil {
			return err
		}
		r.session.Set(field.Name, value)
		return nil
	case manifest.KindFile:
		return r.promptFile(ctx, field, label)
	case manifest.KindBatch:
		return r.promptBatch(ctx, field, label)
	default:
		value, err := r.driver.Input(ctx, InputConfig{
			Message: label,
			Default: r.session.Store().String(field.Name),
			Help:    field.Tooltip,
		})
		if err != nil {
			return err
		}
		r.session.Set(field.Name, value)
		return nil
	}
}

func (r *runner) promptSelect(ctx context.Context, field manifest.Field, label string) error {
	cfg := SelectConfig{Message: label, Options: field.Options, Help: field.Tooltip, DefaultIndex: -1}
	if current := r.session.Store().String(field.Name); current != "" {
		cfg.DefaultIndex = indexOf(field.Options, current)
	}
	idx, err := r.driver.Select(ctx, cfg)
	if err != nil {
		return err
	}
	if idx >= 0 && idx < len(field.Options) {
		r.session.Set(field.Name, field.Options[idx])
	}
	return nil
}

func (r *runner) promptMultiSelect(ctx context.Context, field manifest.Field, label string) error {
	current := r.session.Store().List(field.Name)
	cfg := SelectConfig{Message: label, Options: field.Options, Help: field.Tooltip, DefaultIndex: -1}
	for _, value := range current {
		if idx := indexOf(field.Options, value); idx >= 0 {
			cfg.Defaults = append(cfg.Defaults, idx)
		}
	}

	indices, err := r.driver.MultiSelect(ctx, cfg)
	if err != nil {
		return err
	}

	chosen := make(map[string]bool, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(field.Options) {
			chosen[field.Options[idx]] = true
		}
	}
	// Toggle only the options whose membership changed.
	for _, value := range current {
		if !chosen[value] {
			r.session.Toggle(field.Name, value)
		}
		delete(chosen, value)
	}
	for option := range chosen {
		r.session.Toggle(field.Name, option)
	}
	return nil
}

func (r *runner) promptFile(ctx context.Context, field manifest.Field, label string) error {
	path, err := r.driver.Input(ctx, InputConfig{Message: label + " (file path)", Help: field.Tooltip})
	if err != nil {
		return err
	}
	if strings.TrimSpace(path) == "" {
		return nil
	}
	doc, err := r.loadDocument(path)
	if err != nil {
		return r.driver.Info(ctx, "  ! "+err.Error())
	}
	if msg := r.session.Attach(field.Name, doc); msg != "" {
		return r.driver.Info(ctx, "  ! "+msg)
	}
	return nil
}

func (r *runner) promptBatch(ctx context.Context, field manifest.Field, label string) error {
	for {
		more, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "Add a document to " + label + "?"})
		if err != nil {
			return err
		}
		if !more {
			return nil
		}

		docLabel, err := r.driver.Input(ctx, InputConfig{Message: "Document label"})
		if err != nil {
			return err
		}
		path, err := r.driver.Input(ctx, InputConfig{Message: "File path"})
		if err != nil {
			return err
		}
		doc, err := r.loadDocument(path)
		if err != nil {
			if err := r.driver.Info(ctx, "  ! "+err.Error()); err != nil {
				return err
			}
			continue
		}
		if msg := r.session.AttachBatch(field.Name, docLabel, []upload.Document{doc}); msg != "" {
			if err := r.driver.Info(ctx, "  ! "+msg); err != nil {
				return err
			}
		}
	}
}

func (r *runner) loadDocument(path string) (upload.Document, error) {
	payload, err := r.readFile(path)
	if err != nil {
		return upload.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return upload.Document{
		Filename: filepath.Base(path),
		MIME:     mime.TypeByExtension(filepath.Ext(path)),
		Size:     int64(len(payload)),
		Payload:  payload,
	}, nil
}

func (r *runner) navigate(ctx context.Context) (string, error) {
	var options []string
	if r.session.Terminal() {
		options = append(options, actionRegister)
	} else {
		options = append(options, actionNext)
	}
	if r.session.Stage() > 1 {
		options = append(options, actionBack)
	}
	options = append(options, actionQuit)

	idx, err := r.driver.Select(ctx, SelectConfig{Message: "Continue", Options: options, DefaultIndex: 0})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(options) {
		return actionQuit, nil
	}
	return options[idx], nil
}

func (r *runner) register(ctx context.Context) (bool, error) {
	result, err := r.session.SubmitFinal(ctx)
	if err != nil || result.Banner != "" {
		return false, r.driver.Info(ctx, result.Banner)
	}

	snapshot, err := json.MarshalIndent(r.session.Store().Snapshot(), "", "  ")
	if err != nil {
		return false, fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := fmt.Fprintln(r.out, string(snapshot)); err != nil {
		return false, err
	}
	return true, r.driver.Info(ctx, "Registration complete. Returning home.")
}
