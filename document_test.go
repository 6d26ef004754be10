package domwalk

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestDocumentLandmarks(t *testing.T) {
	doc := parse(t, `<html><head><title> My Page </title></head><body><p id="x">hi</p></body></html>`)

	if got := doc.Root().Tag(); got != "html" {
		t.Errorf("Root: got %q, want html", got)
	}
	if got := doc.Head().Tag(); got != "head" {
		t.Errorf("Head: got %q, want head", got)
	}
	if got := doc.Body().Tag(); got != "body" {
		t.Errorf("Body: got %q, want body", got)
	}
	if got := doc.Title(); got != "My Page" {
		t.Errorf("Title: got %q, want %q", got, "My Page")
	}
	if doc.Raw() == nil || doc.Raw().Type != html.DocumentNode {
		t.Error("Raw must expose the parsed document node")
	}
}

func TestDocumentTitleAbsent(t *testing.T) {
	doc := parse(t, `<p>no title here</p>`)
	if got := doc.Title(); got != "" {
		t.Errorf("Title without <title>: got %q, want empty", got)
	}
}

func TestDocumentText(t *testing.T) {
	doc := parse(t, `<html><head><title>t</title></head><body><p> a </p><p>b</p></body></html>`)

	if got, want := doc.Text(), "t a b"; got != want {
		t.Errorf("Text: got %q, want %q", got, want)
	}
	if doc.Text() != doc.Root().Text() {
		t.Error("document text must match the root element's text")
	}
}

func TestDocumentFind(t *testing.T) {
	doc := parse(t, `<div id="d"><span id="s">x</span></div>`)

	if _, ok := doc.FindByID("s"); !ok {
		t.Error("FindByID must reach nested elements")
	}
	if _, ok := doc.FindByID("missing"); ok {
		t.Error("FindByID miss must be false")
	}

	var htmls int
	for range doc.FindByTag("html") {
		htmls++
	}
	if htmls != 1 {
		t.Errorf("FindByTag(html): got %d, want 1", htmls)
	}
}

func TestDocumentHTML(t *testing.T) {
	doc := parse(t, `<p id="x">hi</p>`)

	raw, err := doc.HTML()
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if !strings.Contains(raw, `<p id="x">hi</p>`) {
		t.Errorf("serialised markup missing fragment: %q", raw)
	}
	if !strings.HasPrefix(raw, "<html>") {
		t.Errorf("serialised markup must start at the root: %q", raw)
	}
}

func TestDocumentSubtree(t *testing.T) {
	doc := parse(t, `<div id="outer"><section id="inner"><p id="p">x</p></section></div>`)
	sec := mustFind(t, doc, "inner")

	sub := NewDocument(sec.Raw())
	if sub.Root() != sec {
		t.Error("subtree document must root at the wrapping element")
	}
	if _, ok := sub.FindByID("outer"); ok {
		t.Error("subtree document must not see elements above its root")
	}
	if _, ok := sub.FindByID("p"); !ok {
		t.Error("subtree document must see its own descendants")
	}
	if got, want := sub.Text(), sec.Text(); got != want {
		t.Errorf("subtree text: got %q, want %q", got, want)
	}

	var ids []string
	sub.Visit(func(el Element, _ Ancestors) bool {
		ids = append(ids, el.ID())
		return true
	})
	if got, want := strings.Join(ids, ","), "inner,p"; got != want {
		t.Errorf("subtree visit: got %q, want %q", got, want)
	}
}

func TestNilDocument(t *testing.T) {
	var d *Document

	if d.Raw() != nil {
		t.Error("nil Raw must be nil")
	}
	if d.Root() != (Element{}) || d.Head() != (Element{}) || d.Body() != (Element{}) {
		t.Error("nil landmarks must be zero elements")
	}
	if d.Text() != "" || d.Title() != "" {
		t.Error("nil text accessors must be empty")
	}
	if _, ok := d.FindByID("x"); ok {
		t.Error("nil FindByID must miss")
	}
	for range d.FindByTag("p") {
		t.Error("nil FindByTag must be empty")
	}
	if d.Visit(func(Element, Ancestors) bool { return true }) != nil {
		t.Error("nil Visit must return the nil receiver")
	}
	if raw, err := d.HTML(); err != nil || raw != "" {
		t.Errorf("nil HTML: got %q, %v", raw, err)
	}
	if d.Links(nil) != nil {
		t.Error("nil Links must be nil")
	}
}
