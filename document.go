package domwalk

import (
	"fmt"
	"iter"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML document: the root-level entry point offering
// the same find and visit contract as an Element, scoped to the whole tree,
// plus whole-document text. Every load produces an independent Document
// rooted in its own tree; this package never mutates the tree.
type Document struct {
	root *html.Node
}

// NewDocument wraps an already parsed tree. root is normally the document
// node returned by html.Parse, but a bare element node works too and scopes
// the Document to that subtree.
func NewDocument(root *html.Node) *Document {
	return &Document{root: root}
}

// Raw returns the raw parsed-document node for interop with code that
// works on the parser's types directly.
func (d *Document) Raw() *html.Node {
	if d == nil {
		return nil
	}
	return d.root
}

// Root returns the document's root element, <html> for parsed HTML markup,
// or the zero Element for an empty tree.
func (d *Document) Root() Element {
	if d == nil || d.root == nil {
		return Element{}
	}
	if d.root.Type == html.ElementNode {
		return Element{node: d.root}
	}
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return Element{node: c}
		}
	}
	return Element{}
}

// Text returns the whole document's visible text, extracted the same way as
// Element.Text.
func (d *Document) Text() string {
	if d == nil {
		return ""
	}
	return collectText(d.root)
}

// Title returns the text of the document's first <title> element, or "".
func (d *Document) Title() string {
	if d == nil || d.root == nil {
		return ""
	}
	return findTitle(d.root)
}

// Head returns the document's <head> element, or the zero Element.
func (d *Document) Head() Element { return d.landmark(atom.Head) }

// Body returns the document's <body> element, or the zero Element.
func (d *Document) Body() Element { return d.landmark(atom.Body) }

func (d *Document) landmark(a atom.Atom) Element {
	if d == nil || d.root == nil {
		return Element{}
	}
	if d.root.Type == html.ElementNode && d.root.DataAtom == a {
		return Element{node: d.root}
	}
	for n := range d.root.Descendants() {
		if n.Type == html.ElementNode && n.DataAtom == a {
			return Element{node: n}
		}
	}
	return Element{}
}

// FindByID returns the first element in the document, in document order,
// whose id attribute equals id. A miss is a normal false result.
func (d *Document) FindByID(id string) (Element, bool) {
	if d == nil {
		return Element{}, false
	}
	return findByID(d.root, id)
}

// FindByTag returns a lazy sequence of every element in the document with
// the given tag name, in document order. Each call computes an independent
// sequence.
func (d *Document) FindByTag(tag string) iter.Seq[Element] {
	if d == nil {
		return func(func(Element) bool) {}
	}
	return findByTag(d.root, tag)
}

// Visit runs a depth-first pre-order traversal over the whole document,
// rooted at the document's root element, and returns the receiver for
// chaining. The root element is visited first, with an empty ancestor
// snapshot.
func (d *Document) Visit(v Visitor) *Document {
	if d == nil {
		return d
	}
	visit(d.Root().node, v)
	return d
}

// HTML serialises the document back to markup. Rendering does not modify
// the tree.
func (d *Document) HTML() (string, error) {
	if d == nil || d.root == nil {
		return "", nil
	}
	var sb strings.Builder
	if err := html.Render(&sb, d.root); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return sb.String(), nil
}
