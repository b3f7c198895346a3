package worker

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed static/placeholder.pdf
var staticFS embed.FS

const demoProofPrefix = "certifications/dummy_"

// serveStatic serves files from the uploads directory under /static.
// Seeded demo certificates fall back to an embedded placeholder.
func (s *Service) serveStatic(w http.ResponseWriter, r *http.Request) {
	name := path.Clean(strings.TrimPrefix(r.URL.Path, "/static/"))
	if name == "." || strings.HasPrefix(name, "..") {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
		return
	}

	if s.config.UploadsDir != "" {
		full := filepath.Join(s.config.UploadsDir, filepath.FromSlash(name))
		info, err := os.Stat(full)
		if err == nil && !info.IsDir() {
			w.Header().Set("Cache-Control", "no-cache")
			http.ServeFile(w, r, full)
			return
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			writeError(w, r, err)
			return
		}
	}

	if strings.HasPrefix(name, demoProofPrefix) && strings.HasSuffix(name, ".pdf") {
		content, err := fs.ReadFile(staticFS, "static/placeholder.pdf")
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		_, _ = w.Write(content)
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
}
