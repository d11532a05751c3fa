package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/JaimeStill/prombank/internal/categories"
	"github.com/JaimeStill/prombank/internal/config"
	"github.com/JaimeStill/prombank/internal/infrastructure"
	"github.com/JaimeStill/prombank/internal/schema"
)

type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
	driver  string
}

func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(ctx, cfg, os.Stderr)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(ctx, infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	modules.Mount(router)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
	)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
		driver:  cfg.Database.Driver,
	}, nil
}

func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	s.infra.Lifecycle.OnStartup(s.migrate)

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		if err := s.infra.Lifecycle.WaitForStartup(); err != nil {
			s.infra.Logger.Error("startup failed", "error", err)
			return
		}
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

// migrate applies pending migrations and ensures the default categories.
func (s *Server) migrate() error {
	ctx := s.infra.Lifecycle.Context()
	db := s.infra.Database.Connection()

	if err := schema.Up(ctx, db, s.driver); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := categories.New(db, s.infra.Logger).Seed(ctx); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
