package builtin

import (
	"context"
	"strings"

	"github.com/rendis/addonkit/internal/actions"
	"github.com/rendis/addonkit/internal/logging"
	"github.com/rendis/addonkit/pkg/config"
	"github.com/rendis/addonkit/pkg/schema"
)

func handlers() map[string]actions.HandlerFunc {
	return map[string]actions.HandlerFunc{
		"demo_action":  demoAction,
		"echo_message": echoMessage,
		"demo_config":  demoConfig,
		"demo_memory":  demoMemory,
		"demo_service": demoService,
		"demo_storage": demoStorage,
		"demo_tool":    demoTool,
		"demo_util":    demoUtil,
	}
}

func demoAction(ctx context.Context, _ actions.ActionInput) (any, error) {
	logging.FromContext(ctx).Debug("demo action executed")
	return "Action completed", nil
}

// echoMessage returns params.message, repeated params.repeat times and tagged
// with the addon name when a config is supplied.
func echoMessage(ctx context.Context, input actions.ActionInput) (any, error) {
	msg, ok := input.Params["message"].(string)
	if !ok || msg == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "message is required").WithUnit("echo_message")
	}

	repeat := 1
	switch n := input.Params["repeat"].(type) {
	case int:
		repeat = n
	case int64:
		repeat = int(n)
	case float64:
		repeat = int(n)
	}
	if repeat > 1 {
		msg = strings.TrimSpace(strings.Repeat(msg+" ", repeat))
	}

	out := map[string]any{"message": msg}
	if cfg, ok := input.Config.(config.Schema); ok {
		out["addon"] = cfg.Base().Name
	}
	logging.FromContext(ctx).Debug("echo message executed", "repeat", repeat)
	return out, nil
}

func demoConfig(ctx context.Context, _ actions.ActionInput) (any, error) {
	logging.FromContext(ctx).Debug("demo configuration executed")
	return map[string]any{"status": "configured", "type": "template"}, nil
}

func demoMemory(ctx context.Context, _ actions.ActionInput) (any, error) {
	logging.FromContext(ctx).Debug("demo memory executed")
	return map[string]any{"memory_status": "active", "entries": 0}, nil
}

func demoService(ctx context.Context, _ actions.ActionInput) (any, error) {
	logging.FromContext(ctx).Debug("demo service started")
	return map[string]any{"service": "running", "port": 8080}, nil
}

func demoStorage(ctx context.Context, _ actions.ActionInput) (any, error) {
	logging.FromContext(ctx).Debug("demo storage executed")
	return map[string]any{"storage": "available", "objects": 0}, nil
}

func demoTool(ctx context.Context, _ actions.ActionInput) (any, error) {
	logging.FromContext(ctx).Debug("demo tool executed")
	return map[string]any{"tool": "template_tool", "result": "success"}, nil
}

func demoUtil(ctx context.Context, _ actions.ActionInput) (any, error) {
	logging.FromContext(ctx).Debug("demo utility executed")
	return map[string]any{"utility": "helper", "status": "ready"}, nil
}
