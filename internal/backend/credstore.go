package backend

// CredentialStore holds the encoded elevated credential for one client
// context. It is deliberately separate from the session cookie: the two
// authorization tiers never share storage.
type CredentialStore interface {
	Get() string
	Set(value string)
	Clear()
}

// MemoryCredentialStore is the in-process store used by tests and CLI-style
// callers.
type MemoryCredentialStore struct {
	value string
}

func (s *MemoryCredentialStore) Get() string      { return s.value }
func (s *MemoryCredentialStore) Set(value string) { s.value = value }
func (s *MemoryCredentialStore) Clear()           { s.value = "" }
