package server

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/oggyb/swapcircle/internal/auth"
	"github.com/oggyb/swapcircle/internal/config"
)

// StartHTTPServer boots the echo server and registers all provided
// route groups under /api/v1. The identity middleware runs for every
// route; guests pass through and each handler decides how to degrade.
func StartHTTPServer(cfg *config.Config, identity *auth.Provider, registrars ...Registrar) error {
	e := New(identity, registrars...)

	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	return e.Start(addr)
}

// New assembles the echo instance without binding a listener, so tests
// can drive it with httptest.
func New(identity *auth.Provider, registrars ...Registrar) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(identity.Middleware())

	api := e.Group("/api/v1")
	for _, r := range registrars {
		r.Register(api)
	}
	return e
}
