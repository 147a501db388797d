// Package strength adapts the zxcvbn scorer to the rules.StrengthOracle
// capability so sessions get a real strength verdict while tests stub it.
package strength

import (
	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// Oracle scores passwords 0..4 using zxcvbn entropy estimation.
type Oracle struct{}

// New returns a zxcvbn-backed strength oracle.
func New() Oracle {
	return Oracle{}
}

// Score implements rules.StrengthOracle.
func (Oracle) Score(password string) int {
	if password == "" {
		return 0
	}
	return zxcvbn.PasswordStrength(password, nil).Score
}
