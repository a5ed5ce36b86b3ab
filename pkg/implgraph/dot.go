// Package implgraph renders implementor tables as node-link diagrams.
//
// The diagram shows the trait at the top, one node per crate, and one
// node per implementing type, so large implementor lists can be surveyed
// visually. This package uses [github.com/goccy/go-graphviz] for
// in-process SVG rendering; no graphviz binary is required.
package implgraph

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/traitdex/pkg/index"
)

// Options configures implementor diagram rendering.
type Options struct {
	// Detailed includes the full type paths in type node labels.
	// When false, only the last path segment is shown.
	Detailed bool

	// Synthetic includes automatically derived impls. They are rendered
	// with dashed outlines to distinguish them from authored impls.
	Synthetic bool
}

// ToDOT converts an implementor table to Graphviz DOT format.
// The resulting DOT string can be rendered with [RenderSVG].
// Crates appear in table order; types in record order.
func ToDOT(trait string, table *index.Table, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph implementors {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "  %q [style=\"bold,filled\", fillcolor=lightyellow];\n", trait)

	for _, crate := range table.Keys() {
		fmt.Fprintf(&buf, "  %q [fillcolor=lightgrey];\n", crateNode(crate))
		fmt.Fprintf(&buf, "  %q -> %q;\n", trait, crateNode(crate))

		records, _ := table.Get(crate)
		for _, rec := range records {
			if rec.Synthetic && !opts.Synthetic {
				continue
			}
			for _, typ := range rec.Types {
				label := typeLabel(typ, opts.Detailed)
				attrs := typeAttrs(rec, label)
				fmt.Fprintf(&buf, "  %q [%s];\n", typ, strings.Join(attrs, ", "))
				fmt.Fprintf(&buf, "  %q -> %q;\n", crateNode(crate), typ)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// crateNode namespaces crate node ids so a crate sharing its name with a
// type path cannot collide.
func crateNode(crate string) string {
	return "crate: " + crate
}

func typeLabel(path string, detailed bool) string {
	if detailed {
		return path
	}
	if i := strings.LastIndex(path, "::"); i >= 0 {
		return path[i+2:]
	}
	return path
}

func typeAttrs(rec index.Record, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if rec.Synthetic {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
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

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
