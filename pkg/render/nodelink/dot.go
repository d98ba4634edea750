package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pathwiki/pkg/authors"
)

// Options configures the diagram.
type Options struct {
	// Detailed adds edit counts and first-edit dates to editor labels.
	Detailed bool
}

const (
	pageNodeID     = "page"
	minPenWidth    = 1.0
	maxPenWidth    = 8.0
	originalColor  = "#d95f02"
	defaultColor   = "#1b9e77"
	botFillColor   = "lightgrey"
	editorFillBase = "white"
)

// ToDOT converts a ranked author list to Graphviz DOT.
func ToDOT(title string, l authors.List, opts ...Options) string {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=twopi;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=false;\n")
	fmt.Fprintf(&buf, "  root=%q;\n", pageNodeID)
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "  %q [label=%q, shape=ellipse, fillcolor=\"#eeeeee\", fontsize=18];\n", pageNodeID, title)

	maxEdits := 1
	for _, e := range l {
		if e.EditCount > maxEdits {
			maxEdits = e.EditCount
		}
	}

	for i, e := range l {
		id := editorNodeID(i)
		fmt.Fprintf(&buf, "  %q [%s];\n", id, fmtAttrs(i, e, o.Detailed))
	}
	buf.WriteString("\n")
	for i, e := range l {
		color := defaultColor
		if i == 0 {
			color = originalColor
		}
		fmt.Fprintf(&buf, "  %q -- %q [penwidth=%s, color=%q, tooltip=%q];\n",
			pageNodeID, editorNodeID(i), fmtFloat(penWidth(e.EditCount, maxEdits)), color,
			fmt.Sprintf("%d edits", e.EditCount))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func editorNodeID(i int) string {
	return "editor" + strconv.Itoa(i)
}

func fmtAttrs(i int, e authors.Editor, detailed bool) string {
	label := e.DisplayName
	if detailed {
		label += fmt.Sprintf("\n%d edits", e.EditCount)
		if !e.FirstEdit.IsZero() {
			label += "\nsince " + e.FirstEdit.Format("2006-01-02")
		}
	}
	fill := editorFillBase
	if e.IsBot {
		fill = botFillColor
	}
	attrs := fmt.Sprintf("label=%q, fillcolor=%q", label, fill)
	if e.ProfileURL != "" {
		attrs += fmt.Sprintf(", URL=%q", e.ProfileURL)
	}
	if i == 0 {
		attrs += fmt.Sprintf(", color=%q, penwidth=3", originalColor)
	}
	return attrs
}

// penWidth scales linearly from minPenWidth (1 edit) to maxPenWidth (maxEdits).
func penWidth(edits, maxEdits int) float64 {
	if maxEdits <= 1 {
		return minPenWidth
	}
	frac := float64(edits-1) / float64(maxEdits-1)
	w := minPenWidth + frac*(maxPenWidth-minPenWidth)
	return math.Round(w*100) / 100
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	return RenderSVGContext(context.Background(), dot)
}

// RenderSVGContext is RenderSVG with a caller-supplied context.
func RenderSVGContext(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized <svg> tag with one that
// scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
