package httpserver

import (
	"net/http"
	"time"

	"trustgate/internal/platform/config"
)

// readHeaderTimeout bounds slow-header clients regardless of config.
const readHeaderTimeout = 5 * time.Second

// New builds the HTTP server from the server config section.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
