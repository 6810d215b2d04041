package addon

import (
	"github.com/rendis/addonkit/internal/actions"
	"github.com/rendis/addonkit/internal/builtin"
	"github.com/rendis/addonkit/internal/secrets"
)

// Re-exported so hosts can register handlers and read results without
// importing internal packages.
type (
	Action       = actions.Action
	ActionSchema = actions.ActionSchema
	ActionInput  = actions.ActionInput
	ActionOutput = actions.ActionOutput
	ActionInfo   = actions.ActionInfo
	HandlerFunc  = actions.HandlerFunc
	Catalog      = actions.Catalog

	SecretRef      = secrets.Ref
	SecretResolver = secrets.Resolver
	EnvResolver    = secrets.EnvResolver
	ChainResolver  = secrets.ChainResolver

	Vault       = secrets.Vault
	VaultConfig = secrets.VaultConfig
	SecretStore = secrets.SecretStore
)

// NewCatalog returns a catalog preloaded with the builtin handlers. Hosts
// register their own handlers on it before passing it to WithCatalog.
func NewCatalog() *Catalog {
	return builtin.NewCatalog()
}

// NewEmptyCatalog returns a catalog with no handlers.
func NewEmptyCatalog() *Catalog {
	return actions.NewCatalog()
}

// NewVault returns an AES-256-GCM vault over store. It satisfies
// SecretResolver, so it can back WithSecretResolver directly.
func NewVault(store SecretStore, cfg VaultConfig) (Vault, error) {
	v, err := secrets.NewAESVault(store, cfg)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// NewMemorySecretStore returns an in-memory SecretStore.
func NewMemorySecretStore() SecretStore {
	return secrets.NewMemoryStore()
}
