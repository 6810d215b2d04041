package secrets

import (
	"context"
	"os"

	"github.com/rendis/addonkit/pkg/schema"
)

// Ref names one secret of one addon. Key is the entry of the config's
// secrets map, Name the value it maps to.
type Ref struct {
	AddonID string
	Key     string
	Name    string
}

func (r Ref) String() string {
	if r.AddonID == "" {
		return r.Name
	}
	return r.AddonID + "/" + r.Name
}

// Resolver turns a secret reference taken from an addon config into the
// secret value.
type Resolver interface {
	Resolve(ctx context.Context, ref Ref) ([]byte, error)
}

// EnvResolver treats reference names as environment variable names. The
// addon ID plays no part in the lookup.
type EnvResolver struct {
	// Lookup defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

// Resolve returns the value of the environment variable named ref.Name.
func (r EnvResolver) Resolve(_ context.Context, ref Ref) ([]byte, error) {
	lookup := r.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(ref.Name)
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "environment variable %q is not set", ref.Name)
	}
	return []byte(v), nil
}

// ChainResolver tries each resolver in order and returns the first value found.
// Errors other than NOT_FOUND stop the chain.
type ChainResolver []Resolver

// Resolve implements Resolver.
func (c ChainResolver) Resolve(ctx context.Context, ref Ref) ([]byte, error) {
	for _, r := range c {
		v, err := r.Resolve(ctx, ref)
		if err == nil {
			return v, nil
		}
		if !schema.HasCode(err, schema.ErrCodeNotFound) {
			return nil, err
		}
	}
	return nil, schema.NewErrorf(schema.ErrCodeNotFound, "secret %q not found", ref.String())
}

var (
	_ Resolver = EnvResolver{}
	_ Resolver = ChainResolver(nil)
	_ Resolver = (*AESVault)(nil)
)
