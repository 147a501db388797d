package manifest

import (
	"errors"
	"fmt"
)

var knownChecks = map[string]bool{
	CheckRequired:     true,
	CheckEmail:        true,
	CheckPhoneDigits:  true,
	CheckPhoneIntl:    true,
	CheckUsername:     true,
	CheckPassword:     true,
	CheckConfirm:      true,
	CheckWebsite:      true,
	CheckTaxID:        true,
	CheckMinSelection: true,
}

// Validate checks the structural invariants a form definition must satisfy
// before a session can be built from it.
func Validate(form Form) error {
	if form.ID == "" {
		return errors.New("form id is required")
	}
	if len(form.Stages) == 0 {
		return fmt.Errorf("form %q declares no stages", form.ID)
	}

	stageNames := map[string]bool{}
	fieldNames := map[string]bool{}
	for i, stage := range form.Stages {
		if stage.Name == "" {
			return fmt.Errorf("form %q: stage %d has no name", form.ID, i+1)
		}
		if stageNames[stage.Name] {
			return fmt.Errorf("form %q: duplicate stage %q", form.ID, stage.Name)
		}
		stageNames[stage.Name] = true

		for _, field := range stage.Fields {
			if err := validateField(form, field); err != nil {
				return fmt.Errorf("form %q: stage %q: %w", form.ID, stage.Name, err)
			}
			if fieldNames[field.Name] {
				return fmt.Errorf("form %q: duplicate field %q", form.ID, field.Name)
			}
			fieldNames[field.Name] = true
		}
	}

	// Cross-field references must resolve inside the form.
	for _, stage := range form.Stages {
		for _, field := range stage.Fields {
			if field.RequiredWhen != "" && !fieldNames[field.RequiredWhen] {
				return fmt.Errorf("form %q: field %q requiredWhen references unknown field %q", form.ID, field.Name, field.RequiredWhen)
			}
			if field.DeriveFrom != "" && !fieldNames[field.DeriveFrom] {
				return fmt.Errorf("form %q: field %q deriveFrom references unknown field %q", form.ID, field.Name, field.DeriveFrom)
			}
			for _, target := range field.Resets {
				if !fieldNames[target] {
					return fmt.Errorf("form %q: field %q resets unknown field %q", form.ID, field.Name, target)
				}
			}
			for _, check := range field.Checks {
				if check.Kind == CheckConfirm && !fieldNames[check.Params["of"]] {
					return fmt.Errorf("form %q: field %q confirm check references unknown field %q", form.ID, field.Name, check.Params["of"])
				}
			}
		}
	}
	return nil
}

func validateField(form Form, field Field) error {
	if field.Name == "" {
		return errors.New("field with empty name")
	}
	switch field.Kind {
	case "", KindText, KindPassword:
	case KindSelect, KindMultiSelect:
		if len(field.Options) == 0 {
			return fmt.Errorf("field %q: %s fields need options", field.Name, field.Kind)
		}
	case KindFile, KindBatch:
		if field.Upload == nil {
			return fmt.Errorf("field %q: %s fields need an upload policy", field.Name, field.Kind)
		}
	default:
		return fmt.Errorf("field %q: unknown kind %q", field.Name, field.Kind)
	}
	for _, check := range field.Checks {
		if !knownChecks[check.Kind] {
			return fmt.Errorf("field %q: unknown check kind %q", field.Name, check.Kind)
		}
		if check.Kind == CheckConfirm && check.Params["of"] == "" {
			return fmt.Errorf("field %q: confirm check needs params.of", field.Name)
		}
		if check.Kind == CheckTaxID && check.Params["typeField"] == "" {
			return fmt.Errorf("field %q: tax-id check needs params.typeField", field.Name)
		}
	}
	return nil
}
