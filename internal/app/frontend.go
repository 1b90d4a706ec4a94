package app

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/noah-isme/finsight/web"
)

const indexDocument = "index.html"

// NewFrontend returns the handler for every non-API route. Production serves
// the built bundle with an index.html fallback; development proxies to the
// Vite dev server so live reload keeps working.
func NewFrontend(cfg *Config, logger *slog.Logger) (http.Handler, error) {
	if !cfg.IsProduction() {
		return NewDevProxy(cfg.ViteDevServerURL, logger)
	}
	if cfg.StaticDir != "" {
		info, err := os.Stat(cfg.StaticDir)
		if err != nil {
			return nil, fmt.Errorf("static dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("static dir %s is not a directory", cfg.StaticDir)
		}
		return NewSPAHandler(os.DirFS(cfg.StaticDir))
	}
	dist, err := fs.Sub(web.Dist, "dist")
	if err != nil {
		return nil, fmt.Errorf("embedded bundle: %w", err)
	}
	return NewSPAHandler(dist)
}

// NewSPAHandler serves files from fsys and falls back to index.html for any
// path that does not name a file, so client-side routing can take over.
func NewSPAHandler(fsys fs.FS) (http.Handler, error) {
	index, err := fs.ReadFile(fsys, indexDocument)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", indexDocument, err)
	}
	modTime := time.Now()
	fileServer := http.FileServer(http.FS(fsys))

	serveIndex := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeContent(w, r, indexDocument, modTime, bytes.NewReader(index))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" || name == indexDocument {
			serveIndex(w, r)
			return
		}
		info, err := fs.Stat(fsys, name)
		if err != nil || info.IsDir() {
			serveIndex(w, r)
			return
		}
		if strings.HasPrefix(name, "assets/") {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=3600")
		}
		fileServer.ServeHTTP(w, r)
	}), nil
}

// NewDevProxy forwards requests, including websocket upgrades, to target.
func NewDevProxy(target string, logger *slog.Logger) (http.Handler, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("dev server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("dev server url must be absolute")
	}
	proxy := httputil.NewSingleHostReverseProxy(u)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("dev server unavailable", slog.String("target", target), slog.Any("error", err))
		http.Error(w, "dev server unavailable at "+target, http.StatusBadGateway)
	}
	return proxy, nil
}
