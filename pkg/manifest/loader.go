package manifest

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFS walks the provided filesystem and parses JSON/YAML form manifests.
// Every parsed form is validated before it joins the set; duplicate form ids
// across files are an error.
func LoadFS(fsys fs.FS) (*Set, error) {
	set := &Set{forms: make(map[string]Form)}
	if fsys == nil {
		return set, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isManifestFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("manifest: read %s: %w", path, err)
		}

		form, err := parseForm(data, path)
		if err != nil {
			return err
		}
		if err := Validate(form); err != nil {
			return fmt.Errorf("manifest: file %s: %w", path, err)
		}
		if _, exists := set.forms[form.ID]; exists {
			return fmt.Errorf("manifest: duplicate form %q (file %s)", form.ID, path)
		}
		set.forms[form.ID] = form
		set.order = append(set.order, form.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return set, nil
}

func isManifestFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

func parseForm(data []byte, path string) (Form, error) {
	var form Form
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		if err := json.Unmarshal(data, &form); err != nil {
			return Form{}, fmt.Errorf("manifest: parse %s: %w", path, err)
		}
		return form, nil
	}
	if err := yaml.Unmarshal(data, &form); err != nil {
		return Form{}, fmt.Errorf("manifest: parse %s: %w", path, err)
	}
	return form, nil
}
