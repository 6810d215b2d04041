package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/addonkit/pkg/schema"
)

func TestEnvResolver(t *testing.T) {
	t.Setenv("ADDONKIT_TEST_API_KEY", "sk-123")

	v, err := EnvResolver{}.Resolve(context.Background(), Ref{AddonID: "a1", Key: "api_key", Name: "ADDONKIT_TEST_API_KEY"})
	require.NoError(t, err)
	assert.Equal(t, []byte("sk-123"), v)

	_, err = EnvResolver{}.Resolve(context.Background(), Ref{Name: "ADDONKIT_TEST_UNSET_VARIABLE"})
	assert.True(t, schema.HasCode(err, schema.ErrCodeNotFound))
}

func TestEnvResolver_CustomLookup(t *testing.T) {
	r := EnvResolver{Lookup: func(name string) (string, bool) {
		return "from-" + name, name == "DB_PASSWORD"
	}}

	v, err := r.Resolve(context.Background(), Ref{Name: "DB_PASSWORD"})
	require.NoError(t, err)
	assert.Equal(t, []byte("from-DB_PASSWORD"), v)
}

type failingResolver struct{ err error }

func (f failingResolver) Resolve(context.Context, Ref) ([]byte, error) { return nil, f.err }

func TestChainResolver(t *testing.T) {
	ctx := context.Background()
	vault, _ := testVault(t)
	require.NoError(t, vault.Put(ctx, "billing", "db_password", []byte("hunter2")))

	env := EnvResolver{Lookup: func(string) (string, bool) { return "", false }}
	chain := ChainResolver{env, vault}

	v, err := chain.Resolve(ctx, ref("billing", "db_password"))
	require.NoError(t, err)
	assert.Equal(t, []byte("hunter2"), v)

	_, err = chain.Resolve(ctx, ref("billing", "missing"))
	require.Error(t, err)
	assert.True(t, schema.HasCode(err, schema.ErrCodeNotFound))
	assert.Contains(t, err.Error(), "billing/missing")
}

func TestChainResolver_StopsOnHardError(t *testing.T) {
	boom := schema.NewError(schema.ErrCodeVault, "decrypt failed")
	chain := ChainResolver{failingResolver{err: boom}, EnvResolver{Lookup: func(string) (string, bool) { return "x", true }}}

	_, err := chain.Resolve(context.Background(), ref("a1", "k"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	value := []byte("v1")
	require.NoError(t, s.StoreSecret(ctx, "b", value))
	require.NoError(t, s.StoreSecret(ctx, "a", []byte("v2")))
	value[0] = 'X'

	got, err := s.GetSecret(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got, "store must not alias caller buffers")

	keys, err := s.ListSecrets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, s.DeleteSecret(ctx, "a"))
	assert.True(t, schema.HasCode(s.DeleteSecret(ctx, "a"), schema.ErrCodeNotFound))
}
