// Package middleware provides the HTTP middleware stack and the request
// logging, panic recovery, and CORS middleware applied by modules.
package middleware

import (
	"net/http"

	"github.com/JaimeStill/prombank/pkg/routes"
)

// System manages an ordered stack of HTTP middleware.
// The first middleware added is the outermost.
type System interface {
	Use(mw ...routes.Middleware)
	Apply(handler http.Handler) http.Handler
	Len() int
}

type stack []routes.Middleware

// New creates an empty middleware System.
func New() System {
	return &stack{}
}

func (s *stack) Use(mw ...routes.Middleware) {
	*s = append(*s, mw...)
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	for i := len(*s) - 1; i >= 0; i-- {
		handler = (*s)[i](handler)
	}
	return handler
}

func (s *stack) Len() int {
	return len(*s)
}
