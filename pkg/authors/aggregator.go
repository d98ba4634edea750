package authors

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pathwiki/pkg/errors"
	"github.com/matzehuels/pathwiki/pkg/observability"
)

// DefaultBotGroups are the user groups that mark an account as a bot.
var DefaultBotGroups = []string{"bot"}

// Options configure an Aggregator.
type Options struct {
	// BaseURL is the wiki root used to build profile links, e.g. "https://wikipathways.org".
	BaseURL string

	// BotGroups overrides DefaultBotGroups.
	BotGroups []string

	// Logger receives debug lines. Nil discards them.
	Logger *log.Logger
}

// Aggregator computes ranked author lists from a Store.
// It holds no mutable state and is safe for concurrent use.
type Aggregator struct {
	store     Store
	baseURL   string
	botGroups []string
	logger    *log.Logger
}

// NewAggregator creates an Aggregator reading from store.
func NewAggregator(store Store, opts Options) *Aggregator {
	if len(opts.BotGroups) == 0 {
		opts.BotGroups = DefaultBotGroups
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Aggregator{
		store:     store,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		botGroups: opts.BotGroups,
		logger:    opts.Logger,
	}
}

// Compute returns the ranked editors of pageID.
//
// limit <= 0 means all editors. A positive limit fetches at most limit+1
// distinct editors from the store, before anonymous and bot editors are
// removed, so the result may hold fewer than limit+1 entries even when the
// page has more editors. Bots are kept only when includeBots is true.
//
// An unknown page returns an ErrCodePageNotFound error. A page without
// named editors returns an empty list.
func (a *Aggregator) Compute(ctx context.Context, pageID int64, limit int, includeBots bool) (list List, err error) {
	start := time.Now()
	observability.Authors().OnComputeStart(ctx, pageID, limit, includeBots)
	defer func() {
		observability.Authors().OnComputeComplete(ctx, pageID, len(list), time.Since(start), err)
	}()

	if err := errors.ValidatePageID(pageID); err != nil {
		return nil, err
	}

	exists, err := a.store.PageExists(ctx, pageID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "look up page %d", pageID)
	}
	if !exists {
		return nil, errors.New(errors.ErrCodePageNotFound, "page %d does not exist", pageID)
	}

	maxEditors := 0
	if limit > 0 {
		maxEditors = limit + 1
	}
	rows, err := a.store.Contributions(ctx, pageID, maxEditors)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "aggregate revisions of page %d", pageID)
	}

	list = make(List, 0, len(rows))
	skippedBots := 0
	for _, c := range rows {
		if c.UserID == 0 {
			continue
		}
		isBot := c.HasGroup(a.botGroups...)
		if isBot && !includeBots {
			skippedBots++
			continue
		}
		list = append(list, a.editor(c, isBot))
	}
	Rank(list)

	a.logger.Debug("computed author list",
		"page", pageID, "limit", limit, "bots", includeBots,
		"rows", len(rows), "editors", len(list), "skipped_bots", skippedBots)
	return list, nil
}

func (a *Aggregator) editor(c Contribution, isBot bool) Editor {
	return Editor{
		UserID:      c.UserID,
		DisplayName: DisplayName(c.RealName, c.Login),
		Login:       c.Login,
		EditCount:   c.EditCount,
		FirstEdit:   c.FirstEdit,
		ProfileURL:  ProfileURL(a.baseURL, c.Login),
		IsBot:       isBot,
	}
}

// ProfileURL returns the user page link for login under the wiki at baseURL.
// Spaces in the login become underscores, as in wiki page titles.
func ProfileURL(baseURL, login string) string {
	title := "User:" + strings.ReplaceAll(login, " ", "_")
	return strings.TrimRight(baseURL, "/") + "/index.php/" + escapeTitle(title)
}

// escapeTitle percent-encodes a page title while keeping ':' and '/' readable.
func escapeTitle(title string) string {
	esc := url.PathEscape(title)
	esc = strings.ReplaceAll(esc, "%3A", ":")
	return strings.ReplaceAll(esc, "%2F", "/")
}
