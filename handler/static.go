package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// frontend serves the built single-page app. Paths naming an existing file
// get that file; everything else gets index.html so client-side routes work.
func (h *Handler) frontend(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api") ||
		(r.Method != http.MethodGet && r.Method != http.MethodHead) {
		writeError(w, http.StatusNotFound, notFoundMessage)
		return
	}
	if h.frontendDir != "" {
		name := filepath.Join(h.frontendDir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if serveFile(w, r, name) {
			return
		}
		if serveFile(w, r, filepath.Join(h.frontendDir, "index.html")) {
			return
		}
	}
	writeError(w, http.StatusNotFound, notFoundMessage)
}

// serveFile writes the named regular file and reports whether it did.
func serveFile(w http.ResponseWriter, r *http.Request, name string) bool {
	f, err := os.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}
