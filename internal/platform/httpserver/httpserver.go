package httpserver

import (
	"net/http"
	"time"

	"tracker/internal/platform/config"
)

// New builds an HTTP server with sane defaults for this project.
func New(cfg config.Server, handler http.Handler) *http.Server {
	writeTimeout := cfg.RequestTimeout + 5*time.Second
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
}
