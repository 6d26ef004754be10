package domwalk

import "net/url"

// Link is one hyperlink found in a document: the target URL and the
// anchor's visible text.
type Link struct {
	URL  string `json:"url"`
	Text string `json:"text,omitempty"`
}

// Links returns every anchor carrying a non-empty href, in document order.
// When base is non-nil, relative hrefs are resolved against it and anchors
// whose href does not parse are dropped.
func (d *Document) Links(base *url.URL) []Link {
	if d == nil {
		return nil
	}
	var links []Link
	for el := range d.FindByTag("a") {
		a, ok := el.AsAnchor()
		if !ok {
			continue
		}
		href := a.Href()
		if href == "" {
			continue
		}
		target := href
		if base != nil {
			if target = a.Resolve(base); target == "" {
				continue
			}
		}
		links = append(links, Link{URL: target, Text: el.Text()})
	}
	return links
}
