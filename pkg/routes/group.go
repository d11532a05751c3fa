package routes

import (
	"net/http"
	"slices"
)

// Group organizes routes under a common prefix. Middleware applies to every
// route in the group and its children, outermost first.
type Group struct {
	Prefix     string
	Routes     []Route
	Children   []Group
	Middleware []Middleware
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		walk("", nil, group, func(pattern string, h http.Handler) {
			mux.Handle(pattern, h)
		})
	}
}

// Patterns returns the ServeMux patterns the groups would register, in declaration order.
func Patterns(groups ...Group) []string {
	var patterns []string
	for _, group := range groups {
		walk("", nil, group, func(pattern string, _ http.Handler) {
			patterns = append(patterns, pattern)
		})
	}
	return patterns
}

func walk(parentPrefix string, parentMW []Middleware, group Group, visit func(string, http.Handler)) {
	prefix := parentPrefix + group.Prefix
	mw := append(slices.Clone(parentMW), group.Middleware...)

	for _, route := range group.Routes {
		var h http.Handler = route.Handler
		for i := len(mw) - 1; i >= 0; i-- {
			h = mw[i](h)
		}
		visit(route.Method+" "+prefix+route.Pattern, h)
	}
	for _, child := range group.Children {
		walk(prefix, mw, child, visit)
	}
}
