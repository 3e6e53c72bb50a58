package domain

import (
	"sync"
)

// UnwrappedKey pairs a signing key with its plaintext private material.
// Material is an RSA private key in PEM form for RS256 keys and the raw
// HMAC secret for HS256 keys. It lives in memory only and is never persisted.
type UnwrappedKey struct {
	SigningKey *SigningKey
	Material   []byte
}

// KeyChain holds the unwrapped signing keys loaded at startup with
// thread-safe access. The active key per purpose signs new tokens; retired
// keys remain available for verification.
type KeyChain struct {
	activeKids map[KeyPurpose]string
	keys       sync.Map // kid → *UnwrappedKey
	order      map[KeyPurpose][]string
}

// Get retrieves an unwrapped key from the chain by its kid.
func (k *KeyChain) Get(kid string) (*UnwrappedKey, bool) {
	if key, ok := k.keys.Load(kid); ok {
		return key.(*UnwrappedKey), ok
	}

	return nil, false
}

// Active returns the active unwrapped key for the given purpose.
func (k *KeyChain) Active(purpose KeyPurpose) (*UnwrappedKey, bool) {
	kid, ok := k.activeKids[purpose]
	if !ok {
		return nil, false
	}
	return k.Get(kid)
}

// List returns all unwrapped keys for the given purpose in insertion order
// (newest first when loaded from the repository).
func (k *KeyChain) List(purpose KeyPurpose) []*UnwrappedKey {
	kids := k.order[purpose]
	keys := make([]*UnwrappedKey, 0, len(kids))
	for _, kid := range kids {
		if key, ok := k.Get(kid); ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// Close securely clears all key material from the chain.
func (k *KeyChain) Close() {
	k.keys.Range(func(key, value interface{}) bool {
		if unwrapped, ok := value.(*UnwrappedKey); ok {
			Zero(unwrapped.Material)
		}
		return true
	})
	k.activeKids = map[KeyPurpose]string{}
	k.order = map[KeyPurpose][]string{}
	k.keys.Clear()
}

// NewKeyChain creates a KeyChain from unwrapped keys. The active key per
// purpose is taken from the IsActive flag; when multiple keys of a purpose
// are flagged active the first one wins.
func NewKeyChain(keys []*UnwrappedKey) *KeyChain {
	kc := &KeyChain{
		activeKids: map[KeyPurpose]string{},
		order:      map[KeyPurpose][]string{},
	}

	for _, key := range keys {
		kid := key.SigningKey.Kid
		purpose := key.SigningKey.Purpose

		kc.keys.Store(kid, key)
		kc.order[purpose] = append(kc.order[purpose], kid)

		if key.SigningKey.IsActive {
			if _, taken := kc.activeKids[purpose]; !taken {
				kc.activeKids[purpose] = kid
			}
		}
	}

	return kc
}
