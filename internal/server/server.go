package server

import (
	"net/http"
)

// Middleware decorates a handler, e.g. with request logging.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that declares the paths it answers on.
type Handler interface {
	http.Handler
	Routes() []string
}

// Router dispatches requests by method and path through a shared middleware chain.
type Router interface {
	http.Handler
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	Handler(handler Handler)
}

var _ Router = (*BasicRouter)(nil)
