// Package template defines the rendering seam form renderers depend on,
// mirroring the github.com/goliatone/go-template engine contract so engines
// can be swapped without touching renderer logic.
package template

import "io"

// TemplateRenderer renders named or inline templates against a data context.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	GlobalContext(data any) error
}
