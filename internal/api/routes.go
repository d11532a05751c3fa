package api

import (
	"net/http"

	"github.com/JaimeStill/prombank/internal/config"
	"github.com/JaimeStill/prombank/pkg/auth"
	"github.com/JaimeStill/prombank/pkg/handlers"
	"github.com/JaimeStill/prombank/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	groups := []routes.Group{
		domain.Prompts.Handler().Routes(),
		domain.Categories.Handler().Routes(),
		domain.Tags.Handler().Routes(),
		domain.Transfer.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		{
			Prefix: "/auth",
			Routes: []routes.Route{{Method: "GET", Pattern: "/me", Handler: me}},
		},
	}

	if runtime.Storage != nil {
		archives := newArchiveHandler(domain.Transfer, runtime.Storage, runtime.Logger, runtime.MaxListSize)
		groups = append(groups, archives.routes())
	}

	routes.Register(mux, groups...)
}

// me reports the verified caller, or 404 when auth is disabled.
func me(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if id == nil {
		handlers.RespondJSON(w, http.StatusNotFound, map[string]string{"error": "authentication disabled"})
		return
	}
	handlers.RespondJSON(w, http.StatusOK, id)
}
