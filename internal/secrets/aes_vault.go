package secrets

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/pbkdf2"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"slices"
	"strings"

	"github.com/rendis/addonkit/pkg/schema"
)

// VaultConfig configures the AES vault key derivation.
// Provide either MasterKey (raw 32 bytes) or Passphrase + Salt.
type VaultConfig struct {
	MasterKey  []byte // raw 32-byte key (takes priority)
	Passphrase string // derive key via PBKDF2
	Salt       []byte // salt for PBKDF2 (required with Passphrase)
	Iterations int    // PBKDF2 iterations (default 100_000)
}

// AESVault encrypts secrets with AES-256-GCM before handing them to a
// SecretStore. Entries live under "<addon id>/<name>" and that key is bound
// into the ciphertext.
type AESVault struct {
	store SecretStore
	aead  cipher.AEAD
}

// NewAESVault creates a vault with AES-256-GCM encryption.
func NewAESVault(s SecretStore, cfg VaultConfig) (*AESVault, error) {
	key, err := deriveKey(cfg)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &AESVault{store: s, aead: aead}, nil
}

func deriveKey(cfg VaultConfig) ([]byte, error) {
	if len(cfg.MasterKey) > 0 {
		if len(cfg.MasterKey) != 32 {
			return nil, schema.NewErrorf(schema.ErrCodeVault,
				"master key must be 32 bytes, got %d", len(cfg.MasterKey))
		}
		return cfg.MasterKey, nil
	}
	if cfg.Passphrase == "" {
		return nil, schema.NewError(schema.ErrCodeVault, "either master_key or passphrase is required")
	}
	if len(cfg.Salt) == 0 {
		return nil, schema.NewError(schema.ErrCodeVault, "salt is required with passphrase")
	}
	iterations := cfg.Iterations
	if iterations <= 0 {
		iterations = 100_000
	}
	return pbkdf2.Key(sha256.New, cfg.Passphrase, cfg.Salt, iterations, 32)
}

// scopedKey is both the storage key and the GCM additional data of an entry,
// so a ciphertext moved under another addon fails to open.
func scopedKey(addonID, name string) (string, error) {
	if addonID == "" {
		return "", schema.NewError(schema.ErrCodeValidation, "secret addon id is empty")
	}
	if name == "" {
		return "", schema.NewErrorf(schema.ErrCodeValidation, "secret name is empty for addon %q", addonID)
	}
	if strings.Contains(addonID, "/") || strings.Contains(name, "/") {
		return "", schema.NewErrorf(schema.ErrCodeValidation, "secret %q of addon %q contains '/'", name, addonID)
	}
	return addonID + "/" + name, nil
}

func (v *AESVault) seal(key string, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return v.aead.Seal(nonce, nonce, plaintext, []byte(key)), nil
}

func (v *AESVault) open(key string, sealed []byte) ([]byte, error) {
	nonceSize := v.aead.NonceSize()
	if len(sealed) < nonceSize {
		return nil, schema.NewErrorf(schema.ErrCodeVault, "secret %q: ciphertext too short", key)
	}
	plaintext, err := v.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], []byte(key))
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeVault, "secret %q: decrypt failed", key).WithCause(err)
	}
	return plaintext, nil
}

// Put encrypts value and stores it as secret name of addonID.
func (v *AESVault) Put(ctx context.Context, addonID, name string, value []byte) error {
	key, err := scopedKey(addonID, name)
	if err != nil {
		return err
	}
	sealed, err := v.seal(key, value)
	if err != nil {
		return err
	}
	return v.store.StoreSecret(ctx, key, sealed)
}

// Resolve decrypts the secret ref.Name of ref.AddonID. A missing entry is
// NOT_FOUND so the vault can sit behind other resolvers in a ChainResolver.
func (v *AESVault) Resolve(ctx context.Context, ref Ref) ([]byte, error) {
	key, err := scopedKey(ref.AddonID, ref.Name)
	if err != nil {
		return nil, err
	}
	sealed, err := v.store.GetSecret(ctx, key)
	if err != nil {
		return nil, err
	}
	return v.open(key, sealed)
}

// Delete removes secret name of addonID.
func (v *AESVault) Delete(ctx context.Context, addonID, name string) error {
	key, err := scopedKey(addonID, name)
	if err != nil {
		return err
	}
	return v.store.DeleteSecret(ctx, key)
}

// List returns the secret names stored for addonID, sorted.
func (v *AESVault) List(ctx context.Context, addonID string) ([]string, error) {
	if addonID == "" || strings.Contains(addonID, "/") {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "invalid secret addon id %q", addonID)
	}
	keys, err := v.store.ListSecrets(ctx)
	if err != nil {
		return nil, err
	}
	prefix := addonID + "/"
	var names []string
	for _, k := range keys {
		if name, ok := strings.CutPrefix(k, prefix); ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

var _ Vault = (*AESVault)(nil)
