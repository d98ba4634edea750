package widget

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/matzehuels/pathwiki/pkg/authors"
	"github.com/matzehuels/pathwiki/pkg/client"
	"github.com/matzehuels/pathwiki/pkg/errors"
)

// HostID is the id of the host element on pathway pages.
const HostID = "authorInfoContainer"

// Element actions, carried in data-action attributes.
const (
	ActionShowAll = "show-all"
	ActionClose   = "close"
)

// botMarker excludes maintenance accounts from the rendered line.
const botMarker = "Maintenance bot"

// ErrStale is returned by Load when a newer load was issued before this
// one's response arrived. The response is discarded.
var ErrStale = stderrors.New("stale author response discarded")

// State is the widget lifecycle state.
type State int

const (
	Idle State = iota
	Loading
	Rendered
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Rendered:
		return "rendered"
	case Errored:
		return "errored"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Fetcher retrieves the serialized author list of a page. limit is the
// wire limit: the number of authors requested, or <= 0 for all.
type Fetcher interface {
	FetchAuthors(ctx context.Context, pageID int64, limit int, includeBots bool) ([]authors.Entry, error)
}

// Options override the host element's data attributes. Zero values keep
// what the host declares.
type Options struct {
	PageID   int64
	Limit    *int
	ShowBots *bool
	Logger   *log.Logger

	// ShowAllHref and CloseHref are the link targets of the "et al." and
	// overlay "close" links. Empty means "#", for front ends that dispatch
	// the data-action through Click.
	ShowAllHref string
	CloseHref   string
}

// Widget is a mounted author line.
type Widget struct {
	fetcher Fetcher
	logger  *log.Logger

	pageID   int64
	limit    int
	showBots bool

	showAllHref string
	closeHref   string

	mu         sync.Mutex
	host       *html.Node
	content    *html.Node
	authorDiv  *html.Node
	errorDiv   *html.Node
	token      uint64
	lastLimit  int
	state      State
	hasContent bool
	rendered   []authors.Entry
	total      int
	truncated  bool
	errText    string
}

// Mount reads the host's data attributes, appends the content container
// and returns an Idle widget. data-pageid is required unless opts.PageID is set.
func Mount(host *html.Node, fetcher Fetcher, opts Options) (*Widget, error) {
	if host == nil || host.Type != html.ElementNode {
		return nil, errors.New(errors.ErrCodeInvalidInput, "widget host must be an element")
	}
	if fetcher == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "widget needs a fetcher")
	}

	w := &Widget{
		fetcher:     fetcher,
		host:        host,
		logger:      opts.Logger,
		showAllHref: hrefOrHash(opts.ShowAllHref),
		closeHref:   hrefOrHash(opts.CloseHref),
	}
	if w.logger == nil {
		w.logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	w.pageID = opts.PageID
	if w.pageID == 0 {
		id, err := errors.ParsePageID(attr(host, "data-pageid"))
		if err != nil {
			return nil, err
		}
		w.pageID = id
	}

	if opts.Limit != nil {
		w.limit = *opts.Limit
	} else if v, ok := lookupAttr(host, "data-limit"); ok {
		n, err := errors.ParseLimit(v)
		if err != nil {
			return nil, err
		}
		w.limit = n
	}

	if opts.ShowBots != nil {
		w.showBots = *opts.ShowBots
	} else {
		w.showBots = parseBool(attr(host, "data-showbots"))
	}

	w.content = element(atom.Div, "id", fmt.Sprintf("AuthorInfo_%d", w.pageID))
	w.authorDiv = element(atom.Div, "class", "authorlist")
	w.errorDiv = element(atom.Div, "class", "authorerror", "style", "display:none")
	w.content.AppendChild(w.authorDiv)
	w.content.AppendChild(w.errorDiv)
	host.AppendChild(w.content)
	return w, nil
}

func hrefOrHash(href string) string {
	if href == "" {
		return "#"
	}
	return href
}

// PageID returns the page the widget lists authors for.
func (w *Widget) PageID() int64 { return w.pageID }

// Init performs the initial load with the configured limit.
func (w *Widget) Init(ctx context.Context) error {
	return w.Load(ctx, w.limit)
}

// ShowAll re-fetches every author and replaces the rendered line.
func (w *Widget) ShowAll(ctx context.Context) error {
	return w.Load(ctx, 0)
}

// Load fetches the author list for limit (<= 0 means all) and renders it.
//
// The wire request asks for one more author than limit so the response
// tells whether the line is truncated; limit 0 asks for everything.
// Transport failures show the error overlay and are returned.
func (w *Widget) Load(ctx context.Context, limit int) error {
	w.mu.Lock()
	w.token++
	token := w.token
	w.lastLimit = limit
	w.state = Loading
	w.mu.Unlock()

	entries, err := w.fetcher.FetchAuthors(ctx, w.pageID, wireLimit(limit), w.showBots)

	w.mu.Lock()
	defer w.mu.Unlock()
	if token != w.token {
		w.logger.Debug("discarding stale author response", "page", w.pageID, "token", token, "current", w.token)
		return ErrStale
	}
	if err != nil {
		w.showError(statusText(err))
		w.state = Errored
		w.logger.Debug("author load failed", "page", w.pageID, "err", err)
		return err
	}
	w.render(entries, limit)
	w.state = Rendered
	return nil
}

// wireLimit maps a display limit to the requested author count.
func wireLimit(limit int) int {
	if limit == 0 {
		limit = -1
	}
	return limit + 1
}

// statusText is the overlay message for err: the HTTP status text for
// status failures, the error's message otherwise.
func statusText(err error) string {
	var se *client.StatusError
	if stderrors.As(err, &se) {
		return se.StatusText
	}
	return errors.UserMessage(err)
}

func (w *Widget) render(entries []authors.Entry, limit int) {
	showAll := limit <= 0 || len(entries) <= limit
	subset := entries
	if !showAll {
		subset = entries[:limit]
	}

	removeChildren(w.authorDiv)
	span := element(atom.Span, "class", "author")
	w.rendered = w.rendered[:0]
	for i, e := range subset {
		if strings.Contains(e.Name, botMarker) {
			continue
		}
		if len(w.rendered) > 0 {
			span.AppendChild(text(", "))
		}
		title := fmt.Sprintf("%s edited this page %d times", e.Name, e.EditCount)
		if i == 0 {
			title += " and is the original author"
		}
		a := element(atom.A, "href", e.URL, "title", title)
		a.AppendChild(text(e.Name))
		span.AppendChild(a)
		w.rendered = append(w.rendered, e)
	}
	if !showAll {
		if len(w.rendered) > 0 {
			span.AppendChild(text(", "))
		}
		more := element(atom.A, "href", w.showAllHref, "data-action", ActionShowAll, "title", "Click to show all authors")
		more.AppendChild(text("et al."))
		span.AppendChild(more)
	}
	w.authorDiv.AppendChild(span)

	w.total = len(entries)
	w.truncated = !showAll
	w.hasContent = true
}

func (w *Widget) showError(msg string) {
	removeChildren(w.errorDiv)
	setAttr(w.errorDiv, "style", "display:block")
	p := element(atom.P, "class", "authorerror")
	p.AppendChild(text("Error loading authors: " + msg + " - "))
	closeLink := element(atom.A, "href", w.closeHref, "data-action", ActionClose)
	closeLink.AppendChild(text("close"))
	p.AppendChild(closeLink)
	w.errorDiv.AppendChild(p)
	w.errText = "Error loading authors: " + msg
}

// Close hides the error overlay and clears its content. The widget returns
// to Rendered when an author line is on display, otherwise to Idle.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	removeChildren(w.errorDiv)
	setAttr(w.errorDiv, "style", "display:none")
	w.errText = ""
	if w.state == Errored {
		if w.hasContent {
			w.state = Rendered
		} else {
			w.state = Idle
		}
	}
}

// Click dispatches a data-action of a rendered link.
func (w *Widget) Click(ctx context.Context, action string) error {
	switch action {
	case ActionShowAll:
		return w.ShowAll(ctx)
	case ActionClose:
		w.Close()
		return nil
	default:
		return errors.New(errors.ErrCodeUnsupported, "unknown widget action %q", action)
	}
}

// Snapshot is a read-only view of the widget for non-HTML front ends.
type Snapshot struct {
	PageID    int64
	State     State
	Entries   []authors.Entry // rendered entries, in order
	Total     int             // entries in the last response
	Truncated bool            // an "et al." link is shown
	Error     string          // overlay text, empty when hidden
}

// Snapshot returns the current state.
func (w *Widget) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{
		PageID:    w.pageID,
		State:     w.state,
		Entries:   append([]authors.Entry(nil), w.rendered...),
		Total:     w.total,
		Truncated: w.truncated,
		Error:     w.errText,
	}
}

// Line returns the rendered author line as plain text.
func (s Snapshot) Line() string {
	line := authors.RenderText(s.Entries)
	if s.Truncated {
		if line != "" {
			line += ", "
		}
		line += "et al."
	}
	return line
}

// Render writes the host element and everything the widget appended to it.
func (w *Widget) Render(out io.Writer) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return html.Render(out, w.host)
}

// RenderContent writes only the widget's content container.
func (w *Widget) RenderContent(out io.Writer) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return html.Render(out, w.content)
}

// Host returns the host element.
func (w *Widget) Host() *html.Node { return w.host }
