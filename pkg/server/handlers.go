package server

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/pathwiki/pkg/authors"
	"github.com/matzehuels/pathwiki/pkg/client"
	"github.com/matzehuels/pathwiki/pkg/errors"
	"github.com/matzehuels/pathwiki/pkg/render/nodelink"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// authorsRequest is the parsed argument set of the fetch endpoint.
type authorsRequest struct {
	pageID      int64
	limit       int
	includeBots bool
	format      string
}

func (s *Server) handleAuthors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := parseAuthorsRequest(q.Get("pageId"), q.Get("limit"), q.Get("includeBots"), q.Get("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.serveAuthors(w, r, req)
}

// handleLegacy serves the ajax dispatcher form with positional rsargs[]:
// pageId, limit, includeBots.
func (s *Server) handleLegacy(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("action") != "ajax" {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no such action %q", q.Get("action")))
		return
	}
	if q.Get("rs") != client.LegacyFunction {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "unknown ajax function %q", q.Get("rs")))
		return
	}
	args := q["rsargs[]"]
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}
	req, err := parseAuthorsRequest(arg(0), arg(1), arg(2), authors.FormatXML)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.serveAuthors(w, r, req)
}

func parseAuthorsRequest(pageID, limit, includeBots, format string) (authorsRequest, error) {
	id, err := errors.ParsePageID(pageID)
	if err != nil {
		return authorsRequest{}, err
	}
	n, err := errors.ParseLimit(limit)
	if err != nil {
		return authorsRequest{}, err
	}
	switch format {
	case "":
		format = authors.FormatXML
	case authors.FormatXML, authors.FormatJSON, authors.FormatText:
	default:
		return authorsRequest{}, errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", format)
	}
	return authorsRequest{
		pageID:      id,
		limit:       n,
		includeBots: authors.ParseIncludeBots(includeBots),
		format:      format,
	}, nil
}

func (s *Server) serveAuthors(w http.ResponseWriter, r *http.Request, req authorsRequest) {
	list, err := s.cfg.Aggregator.Compute(r.Context(), req.pageID, req.limit, req.includeBots)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := authors.Encode(&buf, req.format, list); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "encode author list"))
		return
	}
	w.Header().Set("Content-Type", authors.ContentType(req.format))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleContributors(w http.ResponseWriter, r *http.Request) {
	id, err := errors.ParsePageID(chi.URLParam(r, "pageID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ext := chi.URLParam(r, "ext")
	if ext != "svg" && ext != "dot" {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no contributor graph format %q", ext))
		return
	}

	list, err := s.cfg.Aggregator.Compute(r.Context(), id, 0, authors.ParseIncludeBots(r.URL.Query().Get("includeBots")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dot := nodelink.ToDOT(pageTitle(id), list, nodelink.Options{Detailed: r.URL.Query().Has("detailed")})

	if ext == "dot" {
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		_, _ = w.Write([]byte(dot))
		return
	}
	svg, err := nodelink.RenderSVGContext(r.Context(), dot)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render contributor graph"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

// writeError answers with the status HTTPStatus assigns and the error's
// user message. Server-side failures are logged with their cause.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "id", RequestIDFromContext(r.Context()), "err", err)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Error-Code", string(errors.GetCode(err)))
	w.WriteHeader(status)
	_, _ = w.Write([]byte(errors.UserMessage(err) + "\n"))
}

func pageTitle(pageID int64) string {
	return "WP" + strconv.FormatInt(pageID, 10)
}
