// Package markup flattens a listing page into the document-ordered node
// sequence the context classifier folds over.
package markup

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/agentstation/periodmap/internal/textnorm"
	"github.com/agentstation/periodmap/pkg/constants"
	"github.com/agentstation/periodmap/pkg/errors"
)

// Kind is the role a node plays for classification.
type Kind int

const (
	// KindText is a non-empty text node.
	KindText Kind = iota
	// KindHeading is a heading-level element; Text holds its full text.
	KindHeading
	// KindAnchor is a link with a usable href.
	KindAnchor
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindHeading:
		return "heading"
	case KindAnchor:
		return "anchor"
	}
	return "unknown"
}

// Node is one entry of the flattened sequence.
type Node struct {
	Kind Kind
	// Tag is the element name for headings and anchors.
	Tag string
	// Text is the whitespace-collapsed text of the node.
	Text string
	// Href is the absolute link target of an anchor.
	Href string
	// Context is the longest ancestor text around an anchor, bounded by the
	// configured climb depth and length.
	Context string
}

// DefaultHeadingTags are the elements that can announce a category.
func DefaultHeadingTags() []string {
	return []string{"h2", "h3", "h4", "h5", "strong"}
}

type options struct {
	base            *url.URL
	selector        string
	headings        map[string]bool
	contextLevels   int
	contextMinChars int
}

// Option configures Parse.
type Option func(*options)

// WithBaseURL resolves relative hrefs against base.
func WithBaseURL(base *url.URL) Option {
	return func(o *options) {
		o.base = base
	}
}

// WithSelector sets the primary content region. The whole document is used
// when the selector matches nothing.
func WithSelector(selector string) Option {
	return func(o *options) {
		o.selector = selector
	}
}

// WithHeadingTags replaces the heading-level element set.
func WithHeadingTags(tags ...string) Option {
	return func(o *options) {
		o.headings = make(map[string]bool, len(tags))
		for _, t := range tags {
			o.headings[strings.ToLower(t)] = true
		}
	}
}

// WithAncestorContext sets how far anchor context climbs and the length at
// which it stops.
func WithAncestorContext(levels, minChars int) Option {
	return func(o *options) {
		o.contextLevels = levels
		o.contextMinChars = minChars
	}
}

func defaults() *options {
	o := &options{
		selector:        constants.DefaultContentSelector,
		contextLevels:   constants.ContextAncestorLevels,
		contextMinChars: constants.ContextMinChars,
	}
	WithHeadingTags(DefaultHeadingTags()...)(o)
	return o
}

// Parse reads an HTML document and returns the flattened nodes of its
// primary content region in document order. Elements are emitted before
// their descendants.
func Parse(r io.Reader, opts ...Option) ([]Node, error) {
	o := defaults()
	for _, opt := range opts {
		opt(o)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.WrapParse("html", "", err)
	}

	root := doc.Selection
	if o.selector != "" {
		if region := doc.Find(o.selector).First(); region.Length() > 0 {
			root = region
		}
	}

	f := &flattener{opts: o, nodes: []Node{}}
	for _, n := range root.Nodes {
		f.walk(n)
	}
	return f.nodes, nil
}

type flattener struct {
	opts  *options
	nodes []Node
}

func (f *flattener) walk(n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		switch {
		case tag == "script" || tag == "style" || tag == "noscript":
			return
		case f.opts.headings[tag]:
			if text := textContent(n); text != "" {
				f.nodes = append(f.nodes, Node{Kind: KindHeading, Tag: tag, Text: text})
			}
		case tag == "a":
			if href, ok := f.resolve(attr(n, "href")); ok {
				text := textContent(n)
				f.nodes = append(f.nodes, Node{
					Kind:    KindAnchor,
					Tag:     tag,
					Text:    text,
					Href:    href,
					Context: f.ancestorText(n, text),
				})
			}
		}
	case html.TextNode:
		if text := textnorm.Collapse(n.Data); text != "" {
			f.nodes = append(f.nodes, Node{Kind: KindText, Text: text})
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		f.walk(c)
	}
}

// resolve makes href absolute and drops fragments and non-http schemes.
func (f *flattener) resolve(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if f.opts.base != nil {
		u = f.opts.base.ResolveReference(u)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "":
	default:
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}

// ancestorText climbs from n keeping the longest ancestor text, stopping
// once it exceeds the configured length.
func (f *flattener) ancestorText(n *html.Node, text string) string {
	context := text
	current := n
	for i := 0; i < f.opts.contextLevels; i++ {
		if current.Parent == nil || current.Parent.Type == html.DocumentNode {
			break
		}
		current = current.Parent
		if parent := textContent(current); len(parent) > len(context) {
			context = parent
		}
		if len(context) > f.opts.contextMinChars {
			break
		}
	}
	return context
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// textContent joins the descendant text of n with single spaces.
func textContent(n *html.Node) string {
	var parts []string
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		case html.ElementNode:
			switch strings.ToLower(n.Data) {
			case "script", "style", "noscript":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return textnorm.Collapse(strings.Join(parts, " "))
}
