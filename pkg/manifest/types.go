// Package manifest declares the configuration that parameterises one staged
// form workflow: the ordered stages, their field declarations, the validation
// checks each field carries, and upload policies. The four product signup
// variants ship as embedded manifests; custom variants load from any fs.FS.
package manifest

// FieldKind is the simplified enum of input kinds a stage can hold.
type FieldKind string

const (
	KindText        FieldKind = "text"
	KindPassword    FieldKind = "password"
	KindSelect      FieldKind = "select"
	KindMultiSelect FieldKind = "multiselect"
	KindFile        FieldKind = "file"
	KindBatch       FieldKind = "batch"
)

// Check kinds understood by the session compiler.
const (
	CheckRequired     = "required"
	CheckEmail        = "email"
	CheckPhoneDigits  = "phone-digits"
	CheckPhoneIntl    = "phone-intl"
	CheckUsername     = "username"
	CheckPassword     = "password"
	CheckConfirm      = "confirm"
	CheckWebsite      = "website"
	CheckTaxID        = "tax-id"
	CheckMinSelection = "min-selection"
)

// Check configures one validation predicate for a field. Params carry
// kind-specific settings such as digit bounds or the sibling field a confirm
// check compares against.
type Check struct {
	Kind   string            `json:"kind" yaml:"kind"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// UploadConfig declares the acceptance policy for file and batch fields.
// Ceilings are per form instance, never globals.
type UploadConfig struct {
	AllowedTypes []string `json:"allowedTypes" yaml:"allowedTypes"`
	MaxSizeMB    int64    `json:"maxSizeMB" yaml:"maxSizeMB"`
	MaxCount     int      `json:"maxCount,omitempty" yaml:"maxCount,omitempty"`
}

// Field declares one input inside a stage.
type Field struct {
	Name        string        `json:"name" yaml:"name"`
	Label       string        `json:"label" yaml:"label"`
	Kind        FieldKind     `json:"kind,omitempty" yaml:"kind,omitempty"`
	Required    bool          `json:"required,omitempty" yaml:"required,omitempty"`
	Placeholder string        `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Tooltip     string        `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
	Default     string        `json:"default,omitempty" yaml:"default,omitempty"`
	Options     []string      `json:"options,omitempty" yaml:"options,omitempty"`
	Checks      []Check       `json:"checks,omitempty" yaml:"checks,omitempty"`
	Upload      *UploadConfig `json:"upload,omitempty" yaml:"upload,omitempty"`

	// RequiredWhen makes the field required only while the named sibling
	// field is non-empty (conditionally-required tax details).
	RequiredWhen string `json:"requiredWhen,omitempty" yaml:"requiredWhen,omitempty"`

	// Resets lists sibling fields cleared whenever this field changes
	// (choosing a new tax document type resets the dependent inputs).
	Resets []string `json:"resets,omitempty" yaml:"resets,omitempty"`

	// DeriveFrom names a sibling field whose value seeds this one through
	// the session's derivation hook (agency-name based usernames).
	DeriveFrom string `json:"deriveFrom,omitempty" yaml:"deriveFrom,omitempty"`
}

// Stage is one ordered screen of the workflow.
type Stage struct {
	Name   string  `json:"name" yaml:"name"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Form is a complete staged workflow definition.
type Form struct {
	ID     string  `json:"id" yaml:"id"`
	Title  string  `json:"title" yaml:"title"`
	Stages []Stage `json:"stages" yaml:"stages"`
}

// Field returns the declaration for name, searching every stage.
func (f Form) Field(name string) (Field, bool) {
	for _, stage := range f.Stages {
		for _, field := range stage.Fields {
			if field.Name == name {
				return field, true
			}
		}
	}
	return Field{}, false
}

// Set keeps loaded forms keyed by id. Safe for concurrent readers when
// treated as immutable after construction.
type Set struct {
	forms map[string]Form
	order []string
}

// Form returns the definition for the supplied form id.
func (s *Set) Form(id string) (Form, bool) {
	if s == nil {
		return Form{}, false
	}
	form, ok := s.forms[id]
	return form, ok
}

// IDs lists the loaded form ids in load order.
func (s *Set) IDs() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Empty reports whether the set holds any forms.
func (s *Set) Empty() bool {
	return s == nil || len(s.forms) == 0
}
