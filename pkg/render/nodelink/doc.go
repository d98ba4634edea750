// Package nodelink renders a page's contributors as a node-link diagram.
//
// The diagram is a star: the page sits at the center and every editor is
// linked to it. Edge pen width grows with the editor's edit count and the
// original author (list position 0) is highlighted.
//
// # Usage
//
//	dot := nodelink.ToDOT("WP554", list)
//	svg, err := nodelink.RenderSVG(dot)
//
// The DOT source can also be saved and processed with external Graphviz
// tools. RenderSVG uses [github.com/goccy/go-graphviz] in process, so no
// Graphviz installation is needed.
package nodelink
