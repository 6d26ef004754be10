package docgate

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testMCPImpl = &mcp.Implementation{Name: "domwalk-test", Version: "0.1.0"}

func mcpSession(t *testing.T, svc *Service) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testMCPImpl, nil)
	svc.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

func TestMCP_ListTools(t *testing.T) {
	svc := newTestService(t, nil)
	session := mcpSession(t, svc)

	tools, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	want := map[string]bool{
		"page_inspect":  true,
		"page_text":     true,
		"page_links":    true,
		"page_markdown": true,
		"page_find":     true,
	}
	for _, tool := range tools.Tools {
		if !want[tool.Name] {
			t.Errorf("unexpected tool %q", tool.Name)
		}
		delete(want, tool.Name)
	}
	for name := range want {
		t.Errorf("missing tool %q", name)
	}
}

func TestMCP_PageInspect(t *testing.T) {
	ts := fixtureServer(t)
	session := mcpSession(t, newTestService(t, nil))

	text := mcpCallTool(t, session, "page_inspect", map[string]any{"url": ts.URL})

	var info PageInfo
	if err := json.Unmarshal([]byte(text), &info); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if info.Title != "Fixture Page" {
		t.Errorf("Title = %q", info.Title)
	}
	if info.Links != 3 {
		t.Errorf("Links = %d, want 3", info.Links)
	}
	if info.Elements == 0 {
		t.Error("expected non-zero element count")
	}
}

func TestMCP_PageText(t *testing.T) {
	ts := fixtureServer(t)
	session := mcpSession(t, newTestService(t, nil))

	text := mcpCallTool(t, session, "page_text", map[string]any{"url": ts.URL})

	var resp struct {
		URL  string `json:"url"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.URL != ts.URL {
		t.Errorf("url = %q", resp.URL)
	}
	if !strings.Contains(resp.Text, "Welcome") {
		t.Errorf("text = %q", resp.Text)
	}
}

func TestMCP_PageLinks(t *testing.T) {
	ts := fixtureServer(t)
	session := mcpSession(t, newTestService(t, nil))

	text := mcpCallTool(t, session, "page_links", map[string]any{"url": ts.URL})

	var resp struct {
		Links []struct {
			URL  string `json:"url"`
			Text string `json:"text"`
		} `json:"links"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Links) != 3 {
		t.Fatalf("got %d links, want 3", len(resp.Links))
	}
	if resp.Links[0].URL != ts.URL+"/docs" {
		t.Errorf("links[0].url = %q", resp.Links[0].URL)
	}
}

func TestMCP_PageMarkdown(t *testing.T) {
	ts := fixtureServer(t)
	session := mcpSession(t, newTestService(t, nil))

	text := mcpCallTool(t, session, "page_markdown", map[string]any{"url": ts.URL})

	var resp struct {
		Markdown string `json:"markdown"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !strings.Contains(resp.Markdown, "# Welcome") {
		t.Errorf("markdown = %q", resp.Markdown)
	}
}

func TestMCP_PageFind(t *testing.T) {
	ts := fixtureServer(t)
	session := mcpSession(t, newTestService(t, nil))

	text := mcpCallTool(t, session, "page_find", map[string]any{"url": ts.URL, "id": "deep"})

	var res FindResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(res.Matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(res.Matches))
	}
	m := res.Matches[0]
	if m.Tag != "span" || m.ID != "deep" {
		t.Errorf("match = %+v", m)
	}
	if len(m.Path) == 0 || m.Path[0] != "div" {
		t.Errorf("Path = %v", m.Path)
	}
}

func TestMCP_MissingURL(t *testing.T) {
	session := mcpSession(t, newTestService(t, nil))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "page_text",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	toolErr := result.GetError()
	if toolErr == nil {
		t.Fatal("expected tool error for missing url")
	}
	if !strings.Contains(toolErr.Error(), "url parameter required") {
		t.Errorf("tool error = %v", toolErr)
	}
}
