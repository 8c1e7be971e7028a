// Package devserver serves a frontend build and forwards API calls to a
// backend origin during development.
package devserver

import (
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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Config describes the development server.
type Config struct {
	// ProxyPrefix is the path prefix forwarded to ProxyTarget, e.g. "/api".
	ProxyPrefix string
	ProxyTarget string
	// StaticDir holds the build output served for every other path.
	StaticDir string
}

// New builds the development handler. Requests under ProxyPrefix go to
// ProxyTarget with the path unchanged; everything else is served from
// StaticDir, falling back to index.html for unknown routes.
func New(cfg Config, logger *slog.Logger) (http.Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	if cfg.ProxyTarget != "" {
		proxy, err := newProxy(cfg.ProxyTarget, logger)
		if err != nil {
			return nil, err
		}
		prefix := "/" + strings.Trim(cfg.ProxyPrefix, "/")
		if prefix == "/" {
			return nil, errors.New("devserver: proxy prefix is required with a proxy target")
		}
		r.Handle(prefix, proxy)
		r.Handle(prefix+"/*", proxy)
	}

	if cfg.StaticDir != "" {
		if _, err := os.Stat(cfg.StaticDir); err != nil {
			return nil, fmt.Errorf("devserver: static dir: %w", err)
		}
		r.Handle("/*", Static(os.DirFS(cfg.StaticDir)))
	}
	return r, nil
}

func newProxy(target string, logger *slog.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("devserver: invalid proxy target %q", target)
	}
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
			// Host header is preserved.
			pr.Out.Host = pr.In.Host
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("devserver: proxy error", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
			http.Error(w, "backend unavailable", http.StatusBadGateway)
		},
	}, nil
}

// Static serves files from fsys. Paths without a matching file get
// index.html so client-side routes resolve.
func Static(fsys fs.FS) http.Handler {
	files := http.FileServer(http.FS(fsys))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" || name == "index.html" {
			serveIndex(w, fsys)
			return
		}
		if st, err := fs.Stat(fsys, name); err != nil || st.IsDir() {
			if path.Ext(name) != "" {
				http.NotFound(w, r)
				return
			}
			serveIndex(w, fsys)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// serveIndex writes index.html directly. http.FileServer redirects
// "/index.html" to "./".
func serveIndex(w http.ResponseWriter, fsys fs.FS) {
	content, err := fs.ReadFile(fsys, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}
