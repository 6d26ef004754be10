package domwalk

import (
	"strings"
	"testing"
)

func TestElementEquality(t *testing.T) {
	doc := parse(t, `<div id="x"><p>hi</p></div>`)

	first := mustFind(t, doc, "x")
	second := mustFind(t, doc, "x")
	if first != second {
		t.Error("two lookups of the same node must compare equal")
	}

	var fromTag Element
	for el := range doc.FindByTag("div") {
		fromTag = el
		break
	}
	if fromTag != first {
		t.Error("wrappers from FindByID and FindByTag over the same node must compare equal")
	}

	seen := map[Element]int{first: 1}
	seen[second]++
	if len(seen) != 1 {
		t.Errorf("map keys: got %d entries, want 1", len(seen))
	}
	if seen[fromTag] != 2 {
		t.Errorf("map lookup through third wrapper: got %d, want 2", seen[fromTag])
	}
}

func TestElementTagAttrID(t *testing.T) {
	doc := parse(t, `<section id="s" data-k="v">x</section>`)
	el := mustFind(t, doc, "s")

	if got := el.Tag(); got != "section" {
		t.Errorf("Tag: got %q, want %q", got, "section")
	}
	if got := el.Attr("data-k"); got != "v" {
		t.Errorf("Attr: got %q, want %q", got, "v")
	}
	if got := el.Attr("missing"); got != "" {
		t.Errorf("absent Attr: got %q, want empty", got)
	}
	if got := el.ID(); got != "s" {
		t.Errorf("ID: got %q, want %q", got, "s")
	}
}

func TestFindByID(t *testing.T) {
	doc := parse(t, `<div id="outer"><span><b id="inner">x</b></span></div>`)

	outer := mustFind(t, doc, "outer")
	inner, ok := outer.FindByID("inner")
	if !ok {
		t.Fatal("inner not found in subtree")
	}
	if got := inner.Tag(); got != "b" {
		t.Errorf("inner tag: got %q, want b", got)
	}

	// Self inclusive.
	self, ok := outer.FindByID("outer")
	if !ok || self != outer {
		t.Error("FindByID must include the element itself")
	}

	if _, ok := outer.FindByID("nope"); ok {
		t.Error("miss must report false, not a match")
	}
	if _, ok := outer.FindByID(""); ok {
		t.Error("empty id must never match")
	}
}

func TestFindByIDDuplicate(t *testing.T) {
	doc := parse(t, `<i id="d">first</i><em id="d">second</em>`)
	el, ok := doc.FindByID("d")
	if !ok {
		t.Fatal("duplicate id not found at all")
	}
	// First match in document order wins; no deduplication.
	if got := el.Tag(); got != "i" {
		t.Errorf("duplicate id: got tag %q, want i (document order)", got)
	}
}

func TestFindByTag(t *testing.T) {
	doc := parse(t, `<ul id="list"><li id="a">1</li><li id="b">2</li><li id="c">3</li></ul>`)

	var ids []string
	for el := range doc.FindByTag("li") {
		ids = append(ids, el.ID())
	}
	if got, want := strings.Join(ids, ","), "a,b,c"; got != want {
		t.Errorf("document order: got %q, want %q", got, want)
	}

	// Tag comparison is case-insensitive by value.
	var upper int
	for range doc.FindByTag("LI") {
		upper++
	}
	if upper != 3 {
		t.Errorf("uppercase query: got %d matches, want 3", upper)
	}

	// Subtree scope includes the element itself when it matches.
	list := mustFind(t, doc, "list")
	var selfCount int
	for range list.FindByTag("ul") {
		selfCount++
	}
	if selfCount != 1 {
		t.Errorf("self-inclusive match: got %d, want 1", selfCount)
	}

	// Empty result is an empty sequence, not an error.
	for el := range doc.FindByTag("video") {
		t.Errorf("unexpected match: %s", el)
	}

	// Each call yields an independent sequence.
	seq := doc.FindByTag("li")
	var once int
	for range seq {
		once++
		break
	}
	var again int
	for range seq {
		again++
	}
	if once != 1 || again != 3 {
		t.Errorf("fresh iteration: got %d then %d, want 1 then 3", once, again)
	}
}

func TestParent(t *testing.T) {
	doc := parse(t, `<div id="d"><p id="p">x</p></div>`)

	p := mustFind(t, doc, "p")
	parent, ok := p.Parent()
	if !ok {
		t.Fatal("p must have a parent")
	}
	if parent != mustFind(t, doc, "d") {
		t.Error("parent of p must be the div")
	}

	// Only the document root element has no parent.
	root := doc.Root()
	if _, ok := root.Parent(); ok {
		t.Error("root element must have no parent")
	}
	doc.Visit(func(el Element, _ Ancestors) bool {
		_, hasParent := el.Parent()
		if hasParent == (el == root) {
			t.Errorf("<%s>: parent presence must hold exactly for non-root elements", el.Tag())
		}
		return true
	})
}

func TestAncestors(t *testing.T) {
	doc := parse(t, `<div id="a"><section id="b"><p id="c">x</p></section></div>`)
	c := mustFind(t, doc, "c")

	var tags []string
	var chain []Element
	for el := range c.Ancestors() {
		tags = append(tags, el.Tag())
		chain = append(chain, el)
	}
	if got, want := strings.Join(tags, ","), "section,div,body,html"; got != want {
		t.Errorf("ancestor order: got %q, want %q", got, want)
	}

	// Each ancestor's parent is the next one; the last has none.
	for i, el := range chain {
		parent, ok := el.Parent()
		if i == len(chain)-1 {
			if ok {
				t.Errorf("last ancestor <%s> must have no parent", el.Tag())
			}
			continue
		}
		if !ok || parent != chain[i+1] {
			t.Errorf("ancestor %d (<%s>): parent must be the next ancestor", i, el.Tag())
		}
	}

	// Short-circuit consumption stops cleanly after a prefix.
	var prefix int
	for range c.Ancestors() {
		prefix++
		if prefix == 2 {
			break
		}
	}
	if prefix != 2 {
		t.Errorf("prefix consumption: got %d, want 2", prefix)
	}

	// Depth property: ancestors of the root element form an empty sequence.
	for el := range doc.Root().Ancestors() {
		t.Errorf("root must have no ancestors, got <%s>", el.Tag())
	}
}

func TestElementText(t *testing.T) {
	doc := parse(t, `<div id="x">  Hello   <b>World</b><script>var a = 1;</script><style>p{}</style> </div>`)
	el := mustFind(t, doc, "x")
	if got := el.Text(); got != "Hello World" {
		t.Errorf("text: got %q, want %q", got, "Hello World")
	}
}

func TestElementString(t *testing.T) {
	doc := parse(t, `<p id="x">hi</p>`)
	el := mustFind(t, doc, "x")
	if got := el.String(); got != `<p id="x">hi</p>` {
		t.Errorf("String: got %q", got)
	}
}

func TestZeroElement(t *testing.T) {
	var zero Element

	if zero.Raw() != nil {
		t.Error("zero Raw must be nil")
	}
	if zero.Tag() != "" || zero.Text() != "" || zero.String() != "" || zero.Attr("x") != "" {
		t.Error("zero element accessors must return empty values")
	}
	if _, ok := zero.FindByID("x"); ok {
		t.Error("zero FindByID must miss")
	}
	for range zero.FindByTag("p") {
		t.Error("zero FindByTag must be empty")
	}
	if _, ok := zero.Parent(); ok {
		t.Error("zero Parent must be absent")
	}
	for range zero.Ancestors() {
		t.Error("zero Ancestors must be empty")
	}
	if _, ok := zero.AsAnchor(); ok {
		t.Error("zero AsAnchor must fail")
	}
	visited := false
	zero.Visit(func(Element, Ancestors) bool {
		visited = true
		return true
	})
	if visited {
		t.Error("visiting the zero element must be a no-op")
	}
}
