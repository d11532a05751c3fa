// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/JaimeStill/prombank/internal/config"
	"github.com/JaimeStill/prombank/internal/infrastructure"
	"github.com/JaimeStill/prombank/pkg/auth"
	"github.com/JaimeStill/prombank/pkg/middleware"
	"github.com/JaimeStill/prombank/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// When auth is enabled every API route requires a verified bearer token.
func NewModule(ctx context.Context, cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	m, err := module.New(cfg.API.BasePath, mux)
	if err != nil {
		return nil, fmt.Errorf("api module: %w", err)
	}

	m.Use(
		middleware.Recover(runtime.Logger),
		middleware.CORS(&cfg.API.CORS),
		middleware.Logger(runtime.Logger),
	)

	if cfg.Auth.Enabled {
		verifier, err := auth.New(ctx, &cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("auth verifier: %w", err)
		}
		m.Use(auth.Middleware(verifier, runtime.Logger))
		runtime.Logger.Info("bearer token auth enabled", "mode", cfg.Auth.Mode)
	}

	return m, nil
}
