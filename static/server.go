package static

import (
	"bytes"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed dist
var dist embed.FS

// ClientConfig is handed to the browser app inside index.html.
type ClientConfig struct {
	PublicURL     string `json:"publicUrl,omitempty"`
	DebugControls bool   `json:"debugControls"`
}

// assetExts are served as files; every other path gets the app shell.
var assetExts = map[string]bool{
	".js": true, ".css": true, ".svg": true, ".ico": true, ".png": true,
	".jpg": true, ".webp": true, ".woff2": true, ".txt": true, ".map": true,
}

// Handler serves the built frontend. Room links like /?room=ABCDE and any
// client-side route resolve to the app shell.
func Handler(cfg ClientConfig) http.Handler {
	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		return http.NotFoundHandler()
	}
	shell, shellErr := renderShell(sub, cfg)
	fileServer := http.FileServer(http.FS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		p := r.URL.Path
		if strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/socket.io/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
			return
		}
		if strings.HasPrefix(p, "/assets/") {
			// Bundler output is content hashed.
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
			fileServer.ServeHTTP(w, r)
			return
		}
		if assetExts[path.Ext(p)] {
			fileServer.ServeHTTP(w, r)
			return
		}
		if shellErr != nil {
			http.Error(w, "index not found", http.StatusNotFound)
			return
		}
		// Serving index.html through FileServer would redirect "/index.html" to "/".
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(shell)
		}
	})
}

// renderShell injects cfg into index.html ahead of the app bundle.
func renderShell(fsys fs.FS, cfg ClientConfig) ([]byte, error) {
	b, err := fs.ReadFile(fsys, "index.html")
	if err != nil {
		return nil, err
	}
	js, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	script := []byte("<script>window.__BOTORNOT__=" + string(js) + "</script>\n</head>")
	if !bytes.Contains(b, []byte("</head>")) {
		return b, nil
	}
	return bytes.Replace(b, []byte("</head>"), script, 1), nil
}
