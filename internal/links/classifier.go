// Package links decides which hyperlinks in a fetched article remain legal
// navigation targets. The classification verdict is a pure function of the
// href so it can be tested without any rendered tree; the tree rewrite is a
// separate step.
package links

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ArticlePrefix is the canonical article path prefix; only hrefs under it
// can be navigable.
const ArticlePrefix = "https://en.wikipedia.org/wiki/"

// MainNamespace is the sentinel for ids with no namespace qualifier.
const MainNamespace = "(Main)"

// Namespaces that never count as information pages.
var disallowedNamespaces = map[string]struct{}{
	"User":              {},
	"Wikipedia":         {},
	"WP":                {},
	"Project":           {},
	"File":              {},
	"MediaWiki":         {},
	"Template":          {},
	"Help":              {},
	"Draft":             {},
	"TimedText":         {},
	"Module":            {},
	"MOS":               {},
	"Topic":             {},
	"Education Program": {},
	"Book":              {},
	"Gadget":            {},
	"Gadget definition": {},
}

type Reason string

const (
	ReasonWrongNamespace Reason = "wrong-namespace"
	ReasonAnchorOnly     Reason = "anchor-only"
	ReasonOffSite        Reason = "off-site"
)

// Verdict is the classification of one href. Target is the percent-decoded
// article id and is only set when Navigable.
type Verdict struct {
	Navigable bool
	Target    string
	Namespace string
	Reason    Reason
}

// Classify derives the namespace from the path portion before a ":"
// separator and applies the inclusion rule: article prefix, allowed
// namespace, no fragment marker anywhere in the href. Off-site hrefs carry
// the main-namespace sentinel; a scheme colon is not a namespace separator.
func Classify(href string) Verdict {
	if !strings.HasPrefix(href, ArticlePrefix) {
		return Verdict{Namespace: MainNamespace, Reason: ReasonOffSite}
	}

	trimmed := strings.TrimPrefix(href, ArticlePrefix)
	namespace := MainNamespace
	if parts := strings.SplitN(trimmed, ":", 2); len(parts) > 1 {
		namespace = parts[0]
	}
	if strings.Contains(href, "#") {
		return Verdict{Namespace: namespace, Reason: ReasonAnchorOnly}
	}
	if _, bad := disallowedNamespaces[namespace]; bad {
		return Verdict{Namespace: namespace, Reason: ReasonWrongNamespace}
	}

	target := trimmed
	if decoded, err := url.PathUnescape(trimmed); err == nil {
		target = decoded
	}
	return Verdict{Navigable: true, Target: target, Namespace: namespace}
}

// BlockedMessage is what the player sees when clicking an excluded link.
func BlockedMessage(v Verdict) string {
	if v.Reason == ReasonOffSite {
		return "That link is outside of Wikipedia"
	}
	return fmt.Sprintf("That isn't an information page (it's a %s link)", v.Namespace)
}

// Link records one anchor found during a rewrite. Nav is the 1-based
// document-order number shown next to the anchor; excluded anchors keep
// their number so selecting one still yields the blocked-link feedback.
type Link struct {
	Href    string
	Text    string
	Verdict Verdict
	Nav     int
}

const (
	attrNavTarget  = "data-nav-target"
	attrNavBlocked = "data-nav-blocked"
)

// Rewrite mutates every anchor under root in place: all hrefs are
// neutralized to "#" so nothing escapes the render target, navigable anchors
// gain data-nav-target with the decoded article id, and excluded anchors
// gain data-nav-blocked with the exclusion reason. Returns all anchors in
// document order.
func Rewrite(root *html.Node) []Link {
	var found []Link
	walk(root, func(n *html.Node) {
		if n.Type != html.ElementNode || n.DataAtom != atom.A {
			return
		}
		href, ok := attr(n, "href")
		if !ok {
			return
		}
		verdict := Classify(href)
		link := Link{Href: href, Text: nodeText(n), Verdict: verdict, Nav: len(found) + 1}

		setAttr(n, "href", "#")
		if verdict.Navigable {
			setAttr(n, attrNavTarget, verdict.Target)
		} else {
			setAttr(n, attrNavBlocked, string(verdict.Reason))
		}
		found = append(found, link)
	})
	return found
}

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, visit)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	walk(n, func(child *html.Node) {
		if child.Type == html.TextNode {
			b.WriteString(child.Data)
		}
	})
	return strings.TrimSpace(b.String())
}
