package manifest

import (
	"embed"
	"io/fs"
)

//go:embed manifests
var defaultManifests embed.FS

// Form ids shipped with the module.
const (
	FormCustomer  = "customer"
	FormAgent     = "agent"
	FormCorporate = "corporate"
	FormSupplier  = "supplier"
)

// Default loads the four embedded product manifests.
func Default() (*Set, error) {
	sub, err := fs.Sub(defaultManifests, "manifests")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub)
}
