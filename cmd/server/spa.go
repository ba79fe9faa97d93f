package main

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go-chat-backend/internal/middleware"
)

// spaHandler serves the built single-page client in production mode: real
// files from the build directory, the index page for anything else so
// client-side routing works. API paths never fall through to the index.
type spaHandler struct {
	staticDir string
	index     string
}

func (h *spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		middleware.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticDir, filepath.Clean("/"+r.URL.Path))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		http.ServeFile(w, r, path)
		return
	}

	http.ServeFile(w, r, filepath.Join(h.staticDir, h.index))
}
