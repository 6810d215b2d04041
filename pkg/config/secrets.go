package config

// Secret is one declared secret key.
type Secret struct {
	Key         string `json:"key"`
	Description string `json:"description,omitempty"`
}

// RequiredSecrets is an ordered declaration of secret keys.
type RequiredSecrets []Secret

// Keys returns the declared keys in declaration order.
func (r RequiredSecrets) Keys() []string {
	keys := make([]string, len(r))
	for i, s := range r {
		keys[i] = s.Key
	}
	return keys
}

// Missing returns the declared keys absent from secrets, in declaration order.
// An empty value still counts as present.
func (r RequiredSecrets) Missing(secrets map[string]string) []string {
	var missing []string
	for _, s := range r {
		if _, ok := secrets[s.Key]; !ok {
			missing = append(missing, s.Key)
		}
	}
	return missing
}

// RequiredSecretsFor returns the secret declaration of T without needing an
// instance.
func RequiredSecretsFor[T Schema]() RequiredSecrets {
	var zero T
	return zero.RequiredSecrets()
}
