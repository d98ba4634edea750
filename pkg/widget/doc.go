// Package widget renders a page's author line into an HTML host element.
//
// A Widget is mounted on a host element carrying data-pageid,
// data-showbots and data-limit attributes. It appends a content container
// holding the author line and a hidden error overlay, then moves through
//
//	Idle → Loading → Rendered | Errored
//
// as it fetches the ranked author list through a Fetcher. Rendered → Loading
// happens when the reader follows the "et al." link, which re-fetches every
// author.
//
// The DOM is a golang.org/x/net/html node tree, so the same widget renders
// server-side into page HTML and backs the terminal browser through Snapshot.
//
// Every load takes a new request token. When loads overlap, only the
// response to the most recently issued request is applied; older ones are
// dropped with ErrStale.
package widget
