// Package mcp exposes an addon's actions as MCP tools with call handlers. It
// provides no transport: hosts add the tools to their own MCP server.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rendis/addonkit/pkg/addon"
	"github.com/rendis/addonkit/pkg/config"
)

// ServerTools returns one tool per action of a. Each call runs the action
// with cfg and the call arguments as params.
func ServerTools(ctx context.Context, a *addon.Addon, cfg config.Schema) ([]server.ServerTool, error) {
	tools, err := a.Tools(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]server.ServerTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, server.ServerTool{Tool: t, Handler: runHandler(a, cfg, t.Name)})
	}
	return out, nil
}

// runHandler reports action failures as tool errors, not protocol errors.
func runHandler(a *addon.Addon, cfg config.Schema, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := a.Run(ctx, name, cfg, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return marshalResult(out.Data)
	}
}

func marshalResult(data json.RawMessage) (*mcp.CallToolResult, error) {
	if !json.Valid(data) {
		return mcp.NewToolResultError(fmt.Sprintf("action returned invalid JSON: %q", data)), nil
	}
	return mcp.NewToolResultJSON(data)
}
