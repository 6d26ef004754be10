package docgate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/domwalk/kit"
)

// RegisterMCP registers the page tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerInspectTool(srv)
	s.registerTextTool(srv)
	s.registerLinksTool(srv)
	s.registerMarkdownTool(srv)
	s.registerFindTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// logged wraps a tool endpoint with duration and session logging.
func (s *Service) logged(tool string, endpoint kit.Endpoint) kit.Endpoint {
	mw := func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			s.logger.Info("mcp tool",
				"tool", tool,
				"transport", kit.GetTransport(ctx),
				"session", kit.GetSessionID(ctx),
				"duration_ms", time.Since(start).Milliseconds(),
				"ok", err == nil,
			)
			return resp, err
		}
	}
	return kit.Chain(mw)(endpoint)
}

// pageReq is the argument shape shared by the single-URL tools.
type pageReq struct {
	URL string `json:"url"`
}

func decodePageReq(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var r pageReq
	if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
		return nil, err
	}
	return &kit.MCPDecodeResult{Request: &r}, nil
}

func pageProperties() map[string]any {
	return map[string]any{
		"url": map[string]any{"type": "string", "description": "Page URL to load"},
	}
}

// --- inspect ---

func (s *Service) registerInspectTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "page_inspect",
		Description: "Load a page and summarise it: title, visible text, link count, element count, nesting depth.",
		InputSchema: inputSchema(pageProperties(), []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*pageReq)
		return s.Inspect(ctx, r.URL)
	}

	kit.RegisterMCPTool(srv, tool, s.logged("page_inspect", endpoint), decodePageReq)
}

// --- text ---

func (s *Service) registerTextTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "page_text",
		Description: "Load a page and return its visible text.",
		InputSchema: inputSchema(pageProperties(), []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*pageReq)
		text, err := s.Text(ctx, r.URL)
		if err != nil {
			return nil, err
		}
		return map[string]string{"url": r.URL, "text": text}, nil
	}

	kit.RegisterMCPTool(srv, tool, s.logged("page_text", endpoint), decodePageReq)
}

// --- links ---

func (s *Service) registerLinksTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "page_links",
		Description: "Load a page and list its hyperlinks, resolved against the page URL.",
		InputSchema: inputSchema(pageProperties(), []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*pageReq)
		links, err := s.Links(ctx, r.URL)
		if err != nil {
			return nil, err
		}
		return map[string]any{"url": r.URL, "links": links}, nil
	}

	kit.RegisterMCPTool(srv, tool, s.logged("page_links", endpoint), decodePageReq)
}

// --- markdown ---

func (s *Service) registerMarkdownTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "page_markdown",
		Description: "Load a page and render it as markdown.",
		InputSchema: inputSchema(pageProperties(), []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*pageReq)
		md, err := s.Markdown(ctx, r.URL)
		if err != nil {
			return nil, err
		}
		return map[string]string{"url": r.URL, "markdown": md}, nil
	}

	kit.RegisterMCPTool(srv, tool, s.logged("page_markdown", endpoint), decodePageReq)
}

// --- find ---

type findReq struct {
	URL string `json:"url"`
	ID  string `json:"id,omitempty"`
	Tag string `json:"tag,omitempty"`
}

func (s *Service) registerFindTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "page_find",
		Description: "Find elements on a page by id and/or tag name; returns outer HTML, text, and ancestor tag paths.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "Page URL to load"},
			"id":  map[string]any{"type": "string", "description": "Element id to match"},
			"tag": map[string]any{"type": "string", "description": "Tag name to match"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*findReq)
		return s.Find(ctx, r.URL, r.ID, r.Tag)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r findReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, s.logged("page_find", endpoint), decode)
}
