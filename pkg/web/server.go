// Package web serves the search page.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/devraulu/alisopan/pkg/catalog"
	"github.com/devraulu/alisopan/pkg/config"
	"github.com/devraulu/alisopan/pkg/search"
)

//go:embed templates/*
var templates embed.FS

const maxFormBytes = 64 << 10

type Server struct {
	catalog     *catalog.Catalog
	engine      search.Engine
	csrf        *csrfGuard
	tmpl        *template.Template
	location    *time.Location
	maxQueryLen int
}

func New(cfg *config.Config, cat *catalog.Catalog) (*Server, error) {
	tmpl, err := template.New("").ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, err
	}

	loc := cfg.Server.GetLocation()
	return &Server{
		catalog: cat,
		engine: search.Engine{
			PerPage:  cfg.Server.PerPage,
			Location: loc,
		},
		csrf:        newCSRFGuard(cfg.Security),
		tmpl:        tmpl,
		location:    loc,
		maxQueryLen: cfg.Server.MaxQueryLen,
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleSearch)
	mux.HandleFunc("/healthz", s.handleHealth)

	return withRequestLog(withSecurityHeaders(s.csrf.withSession(mux)))
}

// render executes the template into a buffer first so a failing template
// never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("render failed", slog.String("template", name), slog.Any("err", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
