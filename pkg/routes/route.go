// Package routes declares HTTP route groups and registers them on a ServeMux.
package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler.
// Pattern is appended to the enclosing group prefixes.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler
