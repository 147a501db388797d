// Package rules defines the per-field validation predicates used by form
// sessions. A Rule is total: it always returns a pass/fail verdict as an
// optional message and never panics or errors. Rules that need cross-field
// context read sibling values from the store; rules that need an external
// judgement (phone structure, password strength) receive it as an injected
// oracle so tests can stub it.
package rules

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/bonhomiee/formflow/pkg/formdata"
)

// Rule evaluates one field value against the full store and returns "" when
// the value passes, otherwise a message suitable for inline display.
type Rule func(value string, store *formdata.Store) string

// StrengthOracle scores a password 0..4; scores below 2 are judged weak.
// The production adapter lives in pkg/oracles/strength.
type StrengthOracle interface {
	Score(password string) int
}

// PhoneOracle judges structural validity of a number for a country calling
// code. The production adapter lives in pkg/oracles/phone.
type PhoneOracle interface {
	Valid(countryCode, national string) bool
}

var (
	emailRx    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernameRx = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{5,15}$`)
	websiteRx  = regexp.MustCompile(`(?i)^([\w-]+\.)+[\w-]{2,}(/.*)?$`)
)

// TaxFormat carries the shape and message for one tax document type.
type TaxFormat struct {
	Label   string
	Pattern *regexp.Regexp
	Message string
}

// TaxFormats maps the document-type enum to its active format. The pattern is
// matched against the upper-cased value.
var TaxFormats = map[string]TaxFormat{
	"GST": {
		Label:   "GST Number",
		Pattern: regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`),
		Message: "Invalid GST number format",
	},
	"PAN": {
		Label:   "PAN Number",
		Pattern: regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`),
		Message: "Invalid PAN number format",
	},
	"VAT": {
		Label:   "VAT Number",
		Pattern: regexp.MustCompile(`^[A-Z0-9]{8,12}$`),
		Message: "Invalid VAT number format",
	},
}

// trivialSequences are rejected inside any password regardless of the
// complexity classes it satisfies.
var trivialSequences = []string{"12345678", "abcdefgh", "qwerty"}

const trivialPrefix = "aa@"

// passwordSymbols is the symbol class the complexity check accepts.
const passwordSymbols = "@$!%*?&"

// Required rejects empty or whitespace-only values. Most rules skip empty
// values and leave presence to stage aggregation; Required is for call sites
// that evaluate a single field in isolation.
func Required(label string) Rule {
	message := "This field is required."
	if label != "" {
		message = label + " is required."
	}
	return func(value string, _ *formdata.Store) string {
		if strings.TrimSpace(value) == "" {
			return message
		}
		return ""
	}
}

// MinSelection requires at least n entries in the named multi-select field.
// The value argument is ignored; membership lives in the store's list slot.
func MinSelection(field string, n int) Rule {
	return func(_ string, store *formdata.Store) string {
		count := 0
		if store != nil {
			count = len(store.List(field))
		}
		if count < n {
			if n == 1 {
				return "Please select at least one option."
			}
			return fmt.Sprintf("Please select at least %d options.", n)
		}
		return ""
	}
}

// Email accepts one-@ addresses with non-space local and domain parts and at
// least one dot in the domain. Empty values pass; presence is enforced by
// aggregate validation.
func Email() Rule {
	return func(value string, _ *formdata.Store) string {
		if value == "" {
			return ""
		}
		if !emailRx.MatchString(value) {
			return "Please enter a valid email address."
		}
		return ""
	}
}

// DigitPhone accepts digit-only strings of min..max digits. With min == max
// it is the fixed-length variant.
func DigitPhone(min, max int) Rule {
	pattern := regexp.MustCompile(fmt.Sprintf(`^[0-9]{%d,%d}$`, min, max))
	message := fmt.Sprintf("Phone number must be %d-%d digits.", min, max)
	if min == max {
		message = fmt.Sprintf("Phone number must be exactly %d digits.", min)
	}
	return func(value string, _ *formdata.Store) string {
		if value == "" {
			return ""
		}
		if !pattern.MatchString(value) {
			return message
		}
		return ""
	}
}

// InternationalPhone defers to the phone oracle, combining the value with the
// country calling code read from the named sibling field.
func InternationalPhone(oracle PhoneOracle, countryCodeField string) Rule {
	return func(value string, store *formdata.Store) string {
		if value == "" {
			return ""
		}
		code := ""
		if store != nil {
			code = store.String(countryCodeField)
		}
		if oracle == nil || !oracle.Valid(code, value) {
			return "Please enter a valid phone number"
		}
		return ""
	}
}

// Username accepts a letter followed by 5-15 letters, digits or underscores.
func Username() Rule {
	return func(value string, _ *formdata.Store) string {
		if value == "" {
			return ""
		}
		if !usernameRx.MatchString(value) {
			return "Username must be 6-16 characters and start with a letter."
		}
		return ""
	}
}

// Password enforces the complexity classes first, then rejects passwords the
// strength oracle judges weak or that are trivially guessable: containing any
// of the user's own name fields (case-insensitive), a known sequence, or the
// trivial prefix.
func Password(oracle StrengthOracle, nameFields ...string) Rule {
	return func(value string, store *formdata.Store) string {
		if value == "" {
			return ""
		}
		if !passwordComplexOK(value) {
			return "Password must be at least 8 characters with uppercase, lowercase, number & symbol"
		}
		if trivialPassword(value, store, nameFields) {
			return "Password is too weak or trivial."
		}
		if oracle != nil && oracle.Score(value) < 2 {
			return "Password is too weak or trivial."
		}
		return ""
	}
}

func passwordComplexOK(value string) bool {
	if len(value) < 8 {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

func trivialPassword(value string, store *formdata.Store, nameFields []string) bool {
	lowered := strings.ToLower(value)
	if store != nil {
		for _, field := range nameFields {
			name := strings.ToLower(strings.TrimSpace(store.String(field)))
			if name != "" && strings.Contains(lowered, name) {
				return true
			}
		}
	}
	for _, seq := range trivialSequences {
		if strings.Contains(lowered, seq) {
			return true
		}
	}
	return strings.HasPrefix(lowered, trivialPrefix)
}

// ConfirmOf requires byte equality with the named primary field.
func ConfirmOf(primary string) Rule {
	return func(value string, store *formdata.Store) string {
		other := ""
		if store != nil {
			other = store.String(primary)
		}
		if value != other {
			return "The passwords you entered do not match."
		}
		return ""
	}
}

// Website accepts a permissive domain-with-optional-path shape; no scheme is
// required.
func Website() Rule {
	return func(value string, _ *formdata.Store) string {
		if value == "" {
			return ""
		}
		if !websiteRx.MatchString(value) {
			return "Please enter a valid website URL"
		}
		return ""
	}
}

// TaxID selects the active format by the current value of the sibling
// document-type field. With no type selected, or an unknown type, the value
// passes; the type field's own requiredness is a stage concern.
func TaxID(docTypeField string) Rule {
	return func(value string, store *formdata.Store) string {
		if value == "" {
			return ""
		}
		docType := ""
		if store != nil {
			docType = store.String(docTypeField)
		}
		format, ok := TaxFormats[docType]
		if !ok {
			return ""
		}
		if !format.Pattern.MatchString(strings.ToUpper(value)) {
			return format.Message
		}
		return ""
	}
}
