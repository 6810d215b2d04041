package addon

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rendis/addonkit/internal/logging"
)

// Tools describes the actions category as MCP tools. Actions that declare an
// input schema export it verbatim.
func (a *Addon) Tools(ctx context.Context) ([]mcp.Tool, error) {
	reg, err := a.Registry(CategoryActions)
	if err != nil {
		return nil, err
	}
	names, err := reg.Names()
	if err != nil {
		return nil, err
	}

	tools := make([]mcp.Tool, 0, len(names))
	for _, name := range names {
		act, err := reg.Get(name)
		if err != nil {
			return nil, err
		}
		tools = append(tools, ToolFor(act))
	}
	logging.LogWith(ctx, a.logger).Debug("exported MCP tools", slog.Int("count", len(tools)))
	return tools, nil
}

// ToolFor builds the MCP tool descriptor of one action.
func ToolFor(act Action) mcp.Tool {
	s := act.Schema()
	if len(s.InputSchema) > 0 {
		return mcp.NewToolWithRawSchema(act.Name(), s.Description, s.InputSchema)
	}
	return mcp.NewTool(act.Name(), mcp.WithDescription(s.Description))
}
