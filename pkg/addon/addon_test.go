package addon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/rendis/addonkit/pkg/config"
	"github.com/rendis/addonkit/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAddon(t *testing.T, opts ...Option) *Addon {
	t.Helper()
	a, err := New(append([]Option{WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)
	return a
}

func requireCode(t *testing.T, err error, code string) *schema.AddonError {
	t.Helper()
	require.Error(t, err)
	var aErr *schema.AddonError
	require.True(t, errors.As(err, &aErr), "expected *schema.AddonError, got %T", err)
	assert.Equal(t, code, aErr.Code)
	return aErr
}

func baseConfig(t *testing.T, extra map[string]any) config.BaseConfig {
	t.Helper()
	raw := map[string]any{
		"id":          "addon-1",
		"type":        "template",
		"name":        "Template Addon",
		"description": "test addon",
	}
	for k, v := range extra {
		raw[k] = v
	}
	cfg, err := config.Validate[config.BaseConfig](raw)
	require.NoError(t, err)
	return cfg
}

func TestNew_Defaults(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	assert.Len(t, a.registries, len(Categories()))
	assert.NotNil(t, a.logger)
	assert.NotNil(t, a.resolver)
}

func TestListAvailable_Builtin(t *testing.T) {
	a := newAddon(t)

	names, err := a.ListAvailable(CategoryActions)
	require.NoError(t, err)
	assert.Equal(t, []string{"demo_action", "echo_message"}, names)

	names, err = a.ListAvailable(CategoryStorage)
	require.NoError(t, err)
	assert.Equal(t, []string{"demo_storage"}, names)

	_, err = a.ListAvailable("nope")
	requireCode(t, err, schema.ErrCodeNotFound)
}

func TestResolve(t *testing.T) {
	a := newAddon(t)

	act, err := a.Resolve(CategoryTools, "demo_tool")
	require.NoError(t, err)
	assert.Equal(t, "demo_tool", act.Name())

	again, err := a.Resolve(CategoryTools, "demo_tool")
	require.NoError(t, err)
	assert.Same(t, act, again)

	_, err = a.Action("demo_tool")
	requireCode(t, err, schema.ErrCodeActionUnavailable)

	_, err = a.Resolve("nope", "demo_tool")
	requireCode(t, err, schema.ErrCodeNotFound)
}

func TestList(t *testing.T) {
	a := newAddon(t)
	infos, err := a.List(CategoryActions)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.False(t, infos[0].RequiresInput)
	assert.True(t, infos[1].RequiresInput)
	assert.Equal(t, "1.0.0", infos[1].Version)
}

func TestRun(t *testing.T) {
	a := newAddon(t)
	cfg := baseConfig(t, nil)

	out, err := a.Run(context.Background(), "demo_action", cfg, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `"Action completed"`, string(out.Data))

	out, err = a.Run(context.Background(), "echo_message", cfg, map[string]any{"message": "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message": "hi", "addon": "Template Addon"}`, string(out.Data))
}

func TestRun_NilConfig(t *testing.T) {
	a := newAddon(t)
	out, err := a.Run(context.Background(), "echo_message", nil, map[string]any{"message": "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message": "hi"}`, string(out.Data))
}

func TestRun_Disabled(t *testing.T) {
	a := newAddon(t)
	cfg := baseConfig(t, map[string]any{"enabled": false})

	_, err := a.Run(context.Background(), "demo_action", cfg, nil)
	requireCode(t, err, schema.ErrCodeAddonDisabled)
}

func TestRun_InvalidParams(t *testing.T) {
	a := newAddon(t)
	_, err := a.Run(context.Background(), "echo_message", nil, map[string]any{"repeat": 2})
	aErr := requireCode(t, err, schema.ErrCodeValidation)
	assert.Contains(t, aErr.Message, "message")
}

func TestRun_Unknown(t *testing.T) {
	a := newAddon(t)
	_, err := a.Run(context.Background(), "missing", nil, nil)
	requireCode(t, err, schema.ErrCodeActionUnavailable)
}

func TestRun_HandlerError(t *testing.T) {
	boom := errors.New("boom")
	c := NewEmptyCatalog()
	require.NoError(t, c.Register("fail", func(context.Context, ActionInput) (any, error) { return nil, boom }))
	fsys := fstest.MapFS{"actions/fail.yaml": {Data: []byte("entrypoint: fail\n")}}
	a := newAddon(t, WithFS(fsys), WithCatalog(c))

	_, err := a.Run(context.Background(), "fail", nil, nil)
	aErr := requireCode(t, err, schema.ErrCodeExecution)
	assert.Equal(t, "fail", aErr.Unit)
	assert.ErrorIs(t, err, boom)
}

func TestRun_LogsCorrelation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	a, err := New(WithLogger(logger))
	require.NoError(t, err)

	_, err = a.Run(context.Background(), "demo_action", baseConfig(t, nil), nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"addon_id":"addon-1"`)
	assert.Contains(t, buf.String(), `"unit":"demo_action"`)
}

func warnLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestRun_LogsRefusals(t *testing.T) {
	cases := []struct {
		name   string
		action string
		cfg    map[string]any
		params map[string]any
		msg    string
		code   string
	}{
		{"disabled", "demo_action", map[string]any{"enabled": false}, nil, "addon disabled", schema.ErrCodeAddonDisabled},
		{"unknown action", "missing", nil, nil, "action unavailable", schema.ErrCodeActionUnavailable},
		{"bad input", "echo_message", nil, map[string]any{"repeat": 2}, "action input rejected", schema.ErrCodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			a := newAddon(t, WithLogger(warnLogger(&buf)))

			_, err := a.Run(context.Background(), tc.action, baseConfig(t, tc.cfg), tc.params)
			requireCode(t, err, tc.code)

			lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
			var entry map[string]any
			require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
			assert.Equal(t, "WARN", entry["level"])
			assert.Equal(t, tc.msg, entry["msg"])
			assert.Equal(t, tc.code, entry["code"])
			assert.Equal(t, tc.action, entry["unit"])
			assert.Equal(t, "addon-1", entry["addon_id"])
			assert.Equal(t, err.Error(), entry["error"])
		})
	}
}

func TestRun_SuccessDoesNotWarn(t *testing.T) {
	var buf bytes.Buffer
	a := newAddon(t, WithLogger(warnLogger(&buf)))

	_, err := a.Run(context.Background(), "demo_action", baseConfig(t, nil), nil)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestResolveSecret(t *testing.T) {
	env := map[string]string{"EXAMPLE_API_KEY": "s3cr3t"}
	resolver := EnvResolver{Lookup: func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}}
	a := newAddon(t, WithSecretResolver(resolver))
	cfg := baseConfig(t, map[string]any{
		"secrets": map[string]string{"api_key": "EXAMPLE_API_KEY", "other": "UNSET_VAR"},
	})

	val, err := a.ResolveSecret(context.Background(), cfg, "api_key")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", string(val))

	_, err = a.ResolveSecret(context.Background(), cfg, "missing")
	requireCode(t, err, schema.ErrCodeNotFound)

	_, err = a.ResolveSecret(context.Background(), cfg, "other")
	requireCode(t, err, schema.ErrCodeNotFound)

	_, err = a.ResolveSecret(context.Background(), nil, "api_key")
	requireCode(t, err, schema.ErrCodeValidation)
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, SecretRef) ([]byte, error) {
	return nil, errors.New("backend down")
}

func TestResolveSecret_BackendError(t *testing.T) {
	a := newAddon(t, WithSecretResolver(failingResolver{}))
	cfg := baseConfig(t, map[string]any{"secrets": map[string]string{"api_key": "REF"}})

	_, err := a.ResolveSecret(context.Background(), cfg, "api_key")
	requireCode(t, err, schema.ErrCodeVault)
}

func TestResolveSecret_Vault(t *testing.T) {
	ctx := context.Background()
	vault, err := NewVault(NewMemorySecretStore(), VaultConfig{MasterKey: bytes.Repeat([]byte{7}, 32)})
	require.NoError(t, err)
	require.NoError(t, vault.Put(ctx, "addon-1", "llm-api-key", []byte("sk-test")))

	a := newAddon(t, WithSecretResolver(ChainResolver{EnvResolver{Lookup: func(string) (string, bool) { return "", false }}, vault}))
	secrets := map[string]any{"secrets": map[string]string{"api_key": "llm-api-key"}}

	val, err := a.ResolveSecret(ctx, baseConfig(t, secrets), "api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", string(val))

	other := baseConfig(t, secrets)
	other.ID = "addon-2"
	_, err = a.ResolveSecret(ctx, other, "api_key")
	requireCode(t, err, schema.ErrCodeNotFound)
}

type recordingResolver struct{ got []SecretRef }

func (r *recordingResolver) Resolve(_ context.Context, ref SecretRef) ([]byte, error) {
	r.got = append(r.got, ref)
	return []byte("v"), nil
}

func TestResolveSecret_RefCarriesAddon(t *testing.T) {
	rec := &recordingResolver{}
	a := newAddon(t, WithSecretResolver(rec))
	cfg := baseConfig(t, map[string]any{"secrets": map[string]string{"api_key": "EXAMPLE_API_KEY"}})

	_, err := a.ResolveSecret(context.Background(), cfg, "api_key")
	require.NoError(t, err)
	assert.Equal(t, []SecretRef{{AddonID: "addon-1", Key: "api_key", Name: "EXAMPLE_API_KEY"}}, rec.got)
}

func TestTools(t *testing.T) {
	a := newAddon(t)

	tools, err := a.Tools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 2)

	assert.Equal(t, "demo_action", tools[0].Name)
	assert.Equal(t, "Demo action that reports completion", tools[0].Description)
	assert.Empty(t, tools[0].RawInputSchema)

	assert.Equal(t, "echo_message", tools[1].Name)
	assert.Contains(t, string(tools[1].RawInputSchema), `"message"`)
}

func TestTools_DiscoveryError(t *testing.T) {
	a := newAddon(t, WithFS(fstest.MapFS{}))
	_, err := a.Tools(context.Background())
	requireCode(t, err, schema.ErrCodeDiscovery)
}
