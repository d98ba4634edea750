package widget

import (
	"bytes"
	"context"

	"github.com/matzehuels/pathwiki/pkg/authors"
)

// Local fetches author lists from an in-process Aggregator. The list goes
// through the XML codec so the widget sees exactly what a remote client would.
type Local struct {
	Aggregator *authors.Aggregator
}

// FetchAuthors computes and round-trips the author list.
func (l Local) FetchAuthors(ctx context.Context, pageID int64, limit int, includeBots bool) ([]authors.Entry, error) {
	list, err := l.Aggregator.Compute(ctx, pageID, limit, includeBots)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := authors.EncodeXML(&buf, list); err != nil {
		return nil, err
	}
	return authors.DecodeXML(&buf)
}

var _ Fetcher = Local{}
