package domwalk

import "golang.org/x/net/html"

// Visitor is called once for every element reached by a traversal, together
// with a snapshot of the ancestors between the traversal root and that
// element. Returning true descends into the element's children in document
// order; returning false skips this element's subtree only. Siblings are
// unaffected and the traversal still completes.
type Visitor func(el Element, ancestors Ancestors) bool

// Ancestors is the ancestor path of a visited element, nearest ancestor
// first and the traversal root last. Every visitor invocation receives a
// freshly built snapshot scoped to that element's position; it stays valid
// after the traversal moves on, so visitors may retain it.
type Ancestors []Element

// Nearest returns the closest ancestor, or false when the snapshot is empty
// because the visited element is the traversal root.
func (a Ancestors) Nearest() (Element, bool) {
	if len(a) == 0 {
		return Element{}, false
	}
	return a[0], true
}

// Visit runs a depth-first pre-order traversal rooted at this element and
// returns the receiver for chaining. The root is visited first, with an
// empty snapshot. A zero Element is a no-op.
func (e Element) Visit(v Visitor) Element {
	visit(e.node, v)
	return e
}

// frame is one pending node on the traversal work stack. depth counts the
// ancestors between the traversal root and the node.
type frame struct {
	node  *html.Node
	depth int
}

// visit walks the subtree rooted at n in depth-first pre-order, calling v
// for every element node. An explicit work stack keeps traversal depth off
// the goroutine stack, so pathologically nested documents cannot exhaust
// it. Only element children are descended into; text, comment and doctype
// nodes are not part of the element tree.
func visit(n *html.Node, v Visitor) {
	if n == nil || v == nil {
		return
	}
	stack := []frame{{node: n}}
	var path []*html.Node
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// The path is shared scratch storage; the snapshot below copies it,
		// so truncating back to this frame's depth is safe.
		path = path[:f.depth]

		if !v(Element{node: f.node}, snapshot(path)) {
			continue
		}

		path = append(path, f.node)
		// Children are pushed in reverse so that popping yields document
		// order.
		var kids []*html.Node
		for c := f.node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				kids = append(kids, c)
			}
		}
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: kids[i], depth: f.depth + 1})
		}
	}
}

// snapshot copies the descent path into a fresh nearest-first Ancestors
// value, one per visited element.
func snapshot(path []*html.Node) Ancestors {
	if len(path) == 0 {
		return nil
	}
	out := make(Ancestors, len(path))
	for i, n := range path {
		out[len(path)-1-i] = Element{node: n}
	}
	return out
}
