// Package phone adapts the libphonenumber port to the rules.PhoneOracle
// capability for structurally validating international numbers.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Oracle validates numbers against libphonenumber metadata.
type Oracle struct{}

// New returns a phonenumbers-backed oracle.
func New() Oracle {
	return Oracle{}
}

// Valid implements rules.PhoneOracle. The country calling code ("+91") and
// the national part are combined into one E.164 candidate before parsing.
func (Oracle) Valid(countryCode, national string) bool {
	national = strings.TrimSpace(national)
	if national == "" {
		return false
	}
	code := strings.TrimSpace(countryCode)
	if code != "" && !strings.HasPrefix(code, "+") {
		code = "+" + code
	}
	parsed, err := phonenumbers.Parse(code+national, "")
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(parsed)
}
