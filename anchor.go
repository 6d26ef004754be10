package domwalk

import (
	"net/url"
	"strings"

	"golang.org/x/net/html/atom"
)

// Anchor is an Element known at construction time to be a hyperlink. It
// embeds the Element it decorates, so every Element operation applies to an
// Anchor unchanged.
type Anchor struct {
	Element
}

// AsAnchor returns this element decorated as an Anchor when its tag name is
// "a". The comparison is by value and case-insensitive.
func (e Element) AsAnchor() (Anchor, bool) {
	if e.node == nil {
		return Anchor{}, false
	}
	if e.node.DataAtom != atom.A && !strings.EqualFold(e.node.Data, "a") {
		return Anchor{}, false
	}
	return Anchor{Element: e}, true
}

// Href returns the hyperlink target, or "" when the href attribute is
// absent.
func (a Anchor) Href() string { return a.Attr("href") }

// Resolve returns the href resolved against base. A nil base returns the
// href unchanged; an empty or unparsable href resolves to "".
func (a Anchor) Resolve(base *url.URL) string {
	href := a.Href()
	if href == "" {
		return ""
	}
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
