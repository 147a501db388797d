// Package formflow re-exports the common entry points: manifest loading,
// staged sessions, and the travel-assistant chat widget. Callers needing
// finer control import the pkg subpackages directly.
package formflow

import (
	"github.com/bonhomiee/formflow/pkg/chat"
	"github.com/bonhomiee/formflow/pkg/manifest"
	"github.com/bonhomiee/formflow/pkg/oracles/phone"
	"github.com/bonhomiee/formflow/pkg/oracles/strength"
	"github.com/bonhomiee/formflow/pkg/wizard"
)

// Embedded form manifest ids, exported for convenience.
const (
	FormCustomer  = manifest.FormCustomer
	FormAgent     = manifest.FormAgent
	FormCorporate = manifest.FormCorporate
	FormSupplier  = manifest.FormSupplier
)

// Session aliases the staged workflow session.
type Session = wizard.Session

// Result aliases the terminal submission outcome.
type Result = wizard.Result

// SessionOption aliases the session configuration option.
type SessionOption = wizard.Option

// DefaultManifests returns the embedded product signup manifests.
func DefaultManifests() (*manifest.Set, error) {
	return manifest.Default()
}

// NewSession builds a workflow session for one of the loaded forms, wired
// with the production password and phone oracles. Use wizard.NewSession
// directly to supply different capabilities.
func NewSession(form manifest.Form, opts ...SessionOption) (*Session, error) {
	defaults := []SessionOption{
		wizard.WithStrengthOracle(strength.New()),
		wizard.WithPhoneOracle(phone.New()),
	}
	return wizard.NewSession(form, append(defaults, opts...)...)
}

// NewChatWidget builds the travel-assistant widget against the relay at the
// given URL.
func NewChatWidget(relayURL string, opts ...chat.WidgetOption) *chat.Widget {
	return chat.NewWidget(chat.NewRelay(relayURL), opts...)
}
