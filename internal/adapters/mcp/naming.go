package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"tagren/internal/domain"
)

// RegisterNamingTools adds the pure naming tools to the MCP server.
func RegisterNamingTools(s *server.MCPServer) {
	s.AddTool(sanitizeTool(), sanitizeHandler)
	s.AddTool(composeStemTool(), composeStemHandler)
}

// --- sanitize_name ---

func sanitizeTool() mcp.Tool {
	return mcp.NewTool("sanitize_name",
		mcp.WithDescription("Turn raw tag text into the filesystem-safe uppercase token used as a file name base. Multi-line OCR output is reduced to its last non-empty line first."),
		mcp.WithString("text",
			mcp.Description("Raw text as read from the tag"),
			mcp.Required(),
		),
	)
}

func sanitizeHandler(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(domain.Sanitize(domain.AnswerLine(text))), nil
}

// --- compose_stem ---

func composeStemTool() mcp.Tool {
	return mcp.NewTool("compose_stem",
		mcp.WithDescription("Build a file stem from prefix, middle and index parts the way the review UI does. Empty parts are skipped."),
		mcp.WithString("prefix",
			mcp.Description("Leading part, e.g. a site or batch code"),
		),
		mcp.WithString("middle",
			mcp.Description("Tag text"),
		),
		mcp.WithString("index",
			mcp.Description("Trailing number"),
		),
		mcp.WithString("ext",
			mcp.Description("Optional extension to append, e.g. .jpg"),
		),
	)
}

func composeStemHandler(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stem := domain.ComposeStem(domain.StemParts{
		Prefix: req.GetString("prefix", ""),
		Middle: req.GetString("middle", ""),
		Index:  req.GetString("index", ""),
	})
	if ext := strings.TrimSpace(req.GetString("ext", "")); ext != "" {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		stem += strings.ToLower(ext)
	}
	return mcp.NewToolResultText(stem), nil
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatLines[T any](entries []T, empty string, format func(T) string) (*mcp.CallToolResult, error) {
	if len(entries) == 0 {
		return mcp.NewToolResultText(empty), nil
	}
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(format(e))
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func requireDir(req mcp.CallToolRequest, name string) (string, error) {
	dir := strings.TrimSpace(req.GetString(name, ""))
	if dir == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return dir, nil
}
