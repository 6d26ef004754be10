package domwalk

import (
	"iter"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is a read-only view over a single element node of a parsed
// document. It holds a non-owning reference into the tree, so it must not
// outlive the Document it came from.
//
// Elements are comparable values: two Elements are equal exactly when they
// wrap the same underlying node, no matter how or when each wrapper was
// obtained. That also makes them usable as map keys. The zero Element wraps
// no node; every method on it returns an empty result.
type Element struct {
	node *html.Node
}

// Raw returns the underlying parse-tree node, or nil for the zero Element.
// The node is shared with the Document; callers must treat it as read-only.
func (e Element) Raw() *html.Node { return e.node }

// Tag returns the element's tag name. The parser lowercases the names of
// standard HTML elements, so <DIV> reports "div".
func (e Element) Tag() string {
	if e.node == nil {
		return ""
	}
	return e.node.Data
}

// Attr returns the value of the named attribute, or "" when the attribute
// is absent. Attribute names of parsed HTML are lowercase.
func (e Element) Attr(name string) string {
	if e.node == nil {
		return ""
	}
	return attrVal(e.node, name)
}

// ID returns the value of the id attribute, or "".
func (e Element) ID() string { return e.Attr("id") }

// FindByID returns the first element in document order within this
// element's subtree, self included, whose id attribute equals id. A miss is
// a normal outcome, not an error. Documents with duplicate ids are not
// deduplicated; the first match in document order wins. An empty id never
// matches.
func (e Element) FindByID(id string) (Element, bool) {
	return findByID(e.node, id)
}

// FindByTag returns a lazy sequence of the elements in this element's
// subtree, self included when it matches, whose tag name equals tag, in
// document order. Tag names compare by value and case-insensitively. Each
// call computes an independent sequence; an empty result is an empty
// sequence, not an error.
func (e Element) FindByTag(tag string) iter.Seq[Element] {
	return findByTag(e.node, tag)
}

// Parent returns the parent element, or false when this element has none
// because it is the document's root element.
func (e Element) Parent() (Element, bool) {
	if e.node == nil || e.node.Parent == nil || e.node.Parent.Type != html.ElementNode {
		return Element{}, false
	}
	return Element{node: e.node.Parent}, true
}

// Ancestors returns a lazy sequence of this element's ancestors, nearest
// parent first, ending at the document's root element. Parents are looked
// up on demand, so a consumer that stops early never walks the full chain.
// Each call returns an independent fresh sequence.
func (e Element) Ancestors() iter.Seq[Element] {
	return func(yield func(Element) bool) {
		if e.node == nil {
			return
		}
		for n := range e.node.Ancestors() {
			// The chain above the root element holds only the document
			// node; nothing element-shaped follows it.
			if n.Type != html.ElementNode {
				return
			}
			if !yield(Element{node: n}) {
				return
			}
		}
	}
}

// String renders the element's outer HTML.
func (e Element) String() string {
	if e.node == nil {
		return ""
	}
	var sb strings.Builder
	if err := html.Render(&sb, e.node); err != nil {
		return ""
	}
	return sb.String()
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// findByID searches the subtree rooted at root, root included, for the
// first element whose id attribute equals id.
func findByID(root *html.Node, id string) (Element, bool) {
	if root == nil || id == "" {
		return Element{}, false
	}
	if root.Type == html.ElementNode && attrVal(root, "id") == id {
		return Element{node: root}, true
	}
	for n := range root.Descendants() {
		if n.Type == html.ElementNode && attrVal(n, "id") == id {
			return Element{node: n}, true
		}
	}
	return Element{}, false
}

// findByTag builds a lazy document-order sequence over the subtree rooted
// at root, root included. Known HTML tags compare by atom, everything else
// by case-insensitive name.
func findByTag(root *html.Node, tag string) iter.Seq[Element] {
	name := strings.ToLower(tag)
	a := atom.Lookup([]byte(name))
	match := func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		if a != 0 && n.DataAtom == a {
			return true
		}
		return strings.EqualFold(n.Data, name)
	}
	return func(yield func(Element) bool) {
		if root == nil || name == "" {
			return
		}
		if match(root) && !yield(Element{node: root}) {
			return
		}
		for n := range root.Descendants() {
			if match(n) && !yield(Element{node: n}) {
				return
			}
		}
	}
}
