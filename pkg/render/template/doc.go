// Package template defines the renderer-agnostic template seam. Concrete
// engines live in subpackages; callers depend on TemplateRenderer only.
package template
