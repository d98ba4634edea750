// Package viewer configures the embedded pathway diagram viewer.
//
// The viewer itself is a consumed component. This package builds its
// configuration object (pathway JSON, entity index, theme, highlights)
// from a page's stored diagram and the request's query parameters, and
// writes the embed markup.
package viewer

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/matzehuels/pathwiki/pkg/errors"
)

// DefaultTheme is used when no valid theme is requested.
const DefaultTheme = "plain"

// ContainerID is the id of the element the viewer mounts into.
const ContainerID = "pathway-viewer"

// Diagram is a page's stored pathway model.
type Diagram struct {
	PageID       int64                      `json:"pageId"`
	Pathway      json.RawMessage            `json:"pathway"`
	EntitiesByID map[string]json.RawMessage `json:"entitiesById"`
}

// DiagramStore reads stored diagrams.
type DiagramStore interface {
	// Diagram returns the diagram of pageID or an ErrCodeDiagramNotFound error.
	Diagram(ctx context.Context, pageID int64) (Diagram, error)
}

// Config is the viewer's explicit configuration object.
type Config struct {
	Pathway      json.RawMessage            `json:"pathway"`
	EntitiesByID map[string]json.RawMessage `json:"entitiesById"`
	Theme        string                     `json:"theme"`
	Highlights   []Highlight                `json:"highlights"`
}

// Highlight colors the diagram entities matched by Selector.
type Highlight struct {
	Selector        string `json:"selector"`
	BackgroundColor string `json:"backgroundColor"`
	BorderColor     string `json:"borderColor"`
}

var themePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,32}$`)

// ThemeFromQuery returns the "theme" parameter, or DefaultTheme when it is
// absent or not a plain identifier.
func ThemeFromQuery(q url.Values) string {
	theme := q.Get("theme")
	if !themePattern.MatchString(theme) {
		return DefaultTheme
	}
	return theme
}

// ParseWidgetHighlights builds highlights from the widget parameters.
//
// Selectors come from every "label" value, then every "xref" value
// ("id,datasource" becomes "xref:id:id,datasource"). "colors" is a
// comma-separated list; if its length differs from the number of
// selectors, every selector gets the first color. Without colors there
// are no highlights.
func ParseWidgetHighlights(q url.Values) ([]Highlight, error) {
	var selectors []string
	for _, label := range q["label"] {
		if label = strings.TrimSpace(label); label != "" {
			selectors = append(selectors, label)
		}
	}
	for _, xref := range q["xref"] {
		if xref = strings.TrimSpace(xref); xref != "" {
			selectors = append(selectors, "xref:id:"+xref)
		}
	}

	var colors []string
	for _, c := range strings.Split(q.Get("colors"), ",") {
		if c = strings.TrimSpace(c); c != "" {
			colors = append(colors, c)
		}
	}
	if len(colors) == 0 || len(selectors) == 0 {
		return nil, nil
	}
	for _, c := range colors {
		if err := errors.ValidateColor(c); err != nil {
			return nil, err
		}
	}

	out := make([]Highlight, len(selectors))
	for i, sel := range selectors {
		if err := errors.ValidateSelector(sel); err != nil {
			return nil, err
		}
		color := colors[0]
		if len(colors) == len(selectors) {
			color = colors[i]
		}
		out[i] = Highlight{Selector: sel, BackgroundColor: color, BorderColor: color}
	}
	return out, nil
}

// HighlightQuery returns the highlights as color=selector query pairs.
func (c Config) HighlightQuery() url.Values {
	q := url.Values{}
	for _, h := range c.Highlights {
		q.Add(h.BackgroundColor, h.Selector)
	}
	return q
}

// highlightKeys flattens highlights for cache keys.
func highlightKeys(hs []Highlight) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.BackgroundColor + "=" + h.Selector
	}
	return out
}

// EmbedNode returns the viewer container followed by its JSON config script.
func EmbedNode(cfg Config) ([]*html.Node, error) {
	if cfg.Theme == "" {
		cfg.Theme = DefaultTheme
	}
	if cfg.Highlights == nil {
		cfg.Highlights = []Highlight{}
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode viewer config")
	}

	div := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
		Attr: []html.Attribute{
			{Key: "id", Val: ContainerID},
			{Key: "class", Val: "pathway-viewer theme-" + cfg.Theme},
		},
	}
	script := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Script,
		Data:     "script",
		Attr: []html.Attribute{
			{Key: "type", Val: "application/json"},
			{Key: "id", Val: ContainerID + "-config"},
		},
	}
	// json.Marshal escapes <, > and &, so the payload cannot close the script element.
	script.AppendChild(&html.Node{Type: html.TextNode, Data: string(raw)})
	return []*html.Node{div, script}, nil
}

// Embed writes the viewer container and config script to w.
func Embed(w io.Writer, cfg Config) error {
	nodes, err := EmbedNode(cfg)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		if err := html.Render(w, n); err != nil {
			return err
		}
	}
	return nil
}

// ParseEmbeddedConfig extracts the config from markup written by Embed.
func ParseEmbeddedConfig(r io.Reader) (Config, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Config{}, err
	}
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Script {
			for _, a := range n.Attr {
				if a.Key == "id" && a.Val == ContainerID+"-config" {
					found = n
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if found == nil || found.FirstChild == nil {
		return Config{}, errors.New(errors.ErrCodeNotFound, "no viewer config in document")
	}
	var cfg Config
	if err := json.Unmarshal([]byte(found.FirstChild.Data), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
