package http

import (
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// PageData is the data the index template renders with.
type PageData struct {
	Version   string
	StartYear int
	EndYear   int
}

// ServeMainApp serves the single page front end from webDir/index.html.
func ServeMainApp(webDir string, data PageData) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		indexPath := filepath.Join(webDir, "index.html")

		if _, err := os.Stat(indexPath); os.IsNotExist(err) {
			http.Error(w, "Main application page not found", http.StatusNotFound)
			return
		}

		serveHTML(w, r, indexPath, data)
	}
}

// StaticFiles serves the assets under webDir at prefix. Directory listings are refused.
func StaticFiles(prefix, webDir string) http.Handler {
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(webDir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}

// serveHTML serves an HTML file with proper headers
func serveHTML(w http.ResponseWriter, _ *http.Request, filePath string, data PageData) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	tmpl, err := template.ParseFiles(filePath)
	if err != nil {
		http.Error(w, "Error loading page", http.StatusInternalServerError)
		return
	}

	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}
}
