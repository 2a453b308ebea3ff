package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/devraulu/alisopan/pkg/process"
	"github.com/devraulu/alisopan/pkg/search"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	var raw string
	submitted := false

	switch r.Method {
	case http.MethodGet, http.MethodHead:
	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseForm(); err != nil {
			slog.Warn("bad search form", slog.Any("err", err))
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if _, ok := r.PostForm["q"]; ok {
			if !s.csrf.verify(r) {
				slog.Warn("csrf check failed", slog.String("remote", r.RemoteAddr))
				http.Error(w, "CSRF验证失败", http.StatusForbidden)
				return
			}
			raw = r.PostForm.Get("q")
			submitted = true
		}
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	params := r.URL.Query()
	if !submitted {
		raw = params.Get("q")
	}

	query := process.SanitizeQuery(raw, s.maxQueryLen)
	page := search.ParsePage(params.Get("page"))

	result := s.engine.Run(s.catalog.Snapshot(), query, page)
	if query != "" {
		slog.Info("search complete",
			slog.String("query", query),
			slog.Int("page", result.CurrentPage),
			slog.Int("results", len(result.Items)),
			slog.Int("total", result.TotalItems))
	}

	s.render(w, "index.html", s.newPageView(r, result))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Dataset-Records", strconv.Itoa(s.catalog.Len()))
	w.Write([]byte("ok\n"))
}
