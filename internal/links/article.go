package links

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Article is a fetched page prepared for a text render target: the flattened
// body with [n] markers after navigable anchors, and the anchors themselves
// in document order.
type Article struct {
	Text  string
	Links []Link
}

// Process parses raw article HTML, rewrites its anchors and flattens the
// body for display. Navigation numbers in the text match Links[i].Nav.
func Process(raw string) (Article, error) {
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return Article{}, err
	}
	found := Rewrite(root)
	return Article{Text: flatten(root), Links: found}, nil
}

// Navigable filters an anchor list down to the numbered navigation targets.
func Navigable(all []Link) []Link {
	var nav []Link
	for _, l := range all {
		if l.Verdict.Navigable {
			nav = append(nav, l)
		}
	}
	return nav
}

var blockBreak = map[atom.Atom]struct{}{
	atom.P: {}, atom.Div: {}, atom.Section: {}, atom.Table: {},
	atom.Tr: {}, atom.Ul: {}, atom.Ol: {}, atom.Li: {}, atom.Br: {},
	atom.H1: {}, atom.H2: {}, atom.H3: {}, atom.H4: {}, atom.H5: {}, atom.H6: {},
	atom.Blockquote: {}, atom.Pre: {}, atom.Figcaption: {},
}

var skipSubtree = map[atom.Atom]struct{}{
	atom.Head: {}, atom.Script: {}, atom.Style: {}, atom.Noscript: {},
}

// flatten walks the tree in document order emitting text content, inserting
// line breaks at block boundaries and a [n] marker after each rewritten
// anchor. Must visit anchors in the same order as Rewrite so the numbers
// line up.
func flatten(root *html.Node) string {
	var b strings.Builder
	nav := 0
	var emit func(*html.Node)
	emit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := skipSubtree[n.DataAtom]; skip {
				return
			}
			if _, br := blockBreak[n.DataAtom]; br {
				b.WriteByte('\n')
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			emit(child)
		}
		if n.Type == html.ElementNode {
			if n.DataAtom == atom.A {
				_, navigable := attr(n, attrNavTarget)
				_, blocked := attr(n, attrNavBlocked)
				if navigable || blocked {
					nav++
					b.WriteString("[" + strconv.Itoa(nav) + "]")
				}
			}
			if _, br := blockBreak[n.DataAtom]; br {
				b.WriteByte('\n')
			}
		}
	}
	emit(root)
	return tidy(b.String())
}

// tidy trims trailing space per line and collapses runs of blank lines.
func tidy(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			blank++
			if blank > 1 {
				continue
			}
			line = ""
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
