package chatapi

import (
	"net/http"

	"github.com/bonhomiee/formflow/pkg/chat"
)

// RegisterRoutes mounts the chat endpoint on the mux at the configured route
// path.
func RegisterRoutes(mux *http.ServeMux, widget *chat.Widget, fns ...OptionFn) {
	if mux == nil {
		return
	}
	opts := NewOptions(fns...)
	mux.Handle(opts.RoutePath, NewHandler(widget, fns...))
}
