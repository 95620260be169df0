package httpapi

import (
	"net/http"
	"time"

	"smartbin-dashboard/internal/config"
)

func NewServer(cfg config.Config, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           wrap(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
