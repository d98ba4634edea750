package server

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/matzehuels/pathwiki/pkg/authors"
	"github.com/matzehuels/pathwiki/pkg/errors"
	"github.com/matzehuels/pathwiki/pkg/viewer"
	"github.com/matzehuels/pathwiki/pkg/widget"
)

// handlePage renders a pathway page: the author line is filled in server
// side through the widget, followed by the diagram viewer embed.
//
// Query parameters: limit (default Config.PageLimit), bots, theme, and the
// highlight parameters label, xref and colors.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	id, err := errors.ParsePageID(chi.URLParam(r, "pageID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit := s.pageLimit
	if q.Has("limit") {
		if limit, err = errors.ParseLimit(q.Get("limit")); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	showBots := authors.ParseIncludeBots(q.Get("bots"))
	highlights, err := viewer.ParseWidgetHighlights(q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	host := widget.NewHost(id, limit, showBots)
	wg, err := widget.Mount(host, widget.Local{Aggregator: s.cfg.Aggregator}, widget.Options{
		Logger:      s.logger,
		ShowAllHref: pageURL(r.URL, q, "0"),
		CloseHref:   pageURL(r.URL, q, ""),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := wg.Init(ctx); err != nil {
		if errors.Is(err, errors.ErrCodePageNotFound) {
			s.writeError(w, r, err)
			return
		}
		// The widget shows the failure in its overlay; the page still renders.
		s.logger.Warn("author line failed", "page", id, "err", err)
	}

	var embed []*html.Node
	if s.cfg.Diagrams != nil {
		cfg, err := s.cfg.Diagrams.Config(ctx, id, viewer.ThemeFromQuery(q), highlights)
		switch {
		case err == nil:
			if embed, err = viewer.EmbedNode(cfg); err != nil {
				s.writeError(w, r, err)
				return
			}
		case errors.Is(err, errors.ErrCodeDiagramNotFound):
			s.logger.Debug("page has no diagram", "page", id)
		default:
			s.logger.Warn("diagram load failed", "page", id, "err", err)
		}
	}

	doc := pageDocument(pageTitle(id), wg.Host(), embed)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := html.Render(w, doc); err != nil {
		s.logger.Error("render page", "page", id, "err", err)
	}
}

// pageURL links back to the requested page with the same query. A non-empty
// limit replaces the requested one.
func pageURL(u *url.URL, q url.Values, limit string) string {
	out := url.Values{}
	for k, vs := range q {
		out[k] = append([]string(nil), vs...)
	}
	if limit != "" {
		out.Set("limit", limit)
	}
	link := url.URL{Path: u.Path, RawQuery: out.Encode()}
	return link.String()
}

// pageDocument assembles <!DOCTYPE html><html><head>…</head><body>…</body></html>.
func pageDocument(title string, authorHost *html.Node, embed []*html.Node) *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := elem(atom.Html)
	head := elem(atom.Head)
	meta := elem(atom.Meta)
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	head.AppendChild(meta)
	t := elem(atom.Title)
	t.AppendChild(&html.Node{Type: html.TextNode, Data: title})
	head.AppendChild(t)

	body := elem(atom.Body)
	h1 := elem(atom.H1)
	h1.AppendChild(&html.Node{Type: html.TextNode, Data: title})
	body.AppendChild(h1)
	body.AppendChild(authorHost)
	for _, n := range embed {
		body.AppendChild(n)
	}

	root.AppendChild(head)
	root.AppendChild(body)
	doc.AppendChild(root)
	return doc
}

func elem(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}
