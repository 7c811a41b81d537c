// Package identity provides an in-process implementation of the nostr.Keyer
// capability: an asymmetric keypair that can sign events and encrypt or
// decrypt NIP-44 payloads. Only the holder of the secret key can sign or
// decrypt; the hex pubkey is enough to verify and encrypt.
package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip44"
)

var _ nostr.Keyer = (*KeySigner)(nil)

// KeySigner holds a secret key in memory. Conversation keys are derived once
// per counterparty and cached.
type KeySigner struct {
	secretKey string
	pubkey    string

	mu               sync.Mutex
	conversationKeys map[string][32]byte
}

// NewKeySigner creates a KeySigner from a hex secret key.
func NewKeySigner(secretKey string) (*KeySigner, error) {
	pubkey, err := nostr.GetPublicKey(secretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key: %w", err)
	}

	return &KeySigner{
		secretKey:        secretKey,
		pubkey:           pubkey,
		conversationKeys: make(map[string][32]byte),
	}, nil
}

// NewEphemeralKeySigner creates a KeySigner with a freshly generated key.
func NewEphemeralKeySigner() (*KeySigner, error) {
	return NewKeySigner(nostr.GeneratePrivateKey())
}

// GetPublicKey returns the hex public key of this identity.
func (s *KeySigner) GetPublicKey(_ context.Context) (string, error) {
	return s.pubkey, nil
}

// SignEvent computes the event id and signs it, setting the ID, PubKey and
// Sig fields in place.
func (s *KeySigner) SignEvent(_ context.Context, evt *nostr.Event) error {
	if err := evt.Sign(s.secretKey); err != nil {
		return fmt.Errorf("failed to sign event: %w", err)
	}
	return nil
}

// Encrypt encrypts plaintext to the recipient with NIP-44.
func (s *KeySigner) Encrypt(_ context.Context, plaintext string, recipientPubkey string) (string, error) {
	key, err := s.conversationKey(recipientPubkey)
	if err != nil {
		return "", err
	}

	ciphertext, err := nip44.Encrypt(plaintext, key)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt payload: %w", err)
	}
	return ciphertext, nil
}

// Decrypt decrypts a NIP-44 ciphertext produced by the sender for this
// identity.
func (s *KeySigner) Decrypt(_ context.Context, ciphertext string, senderPubkey string) (string, error) {
	key, err := s.conversationKey(senderPubkey)
	if err != nil {
		return "", err
	}

	plaintext, err := nip44.Decrypt(ciphertext, key)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt payload: %w", err)
	}
	return plaintext, nil
}

func (s *KeySigner) conversationKey(counterparty string) ([32]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key, ok := s.conversationKeys[counterparty]; ok {
		return key, nil
	}

	key, err := nip44.GenerateConversationKey(counterparty, s.secretKey)
	if err != nil {
		return [32]byte{}, fmt.Errorf("failed to derive conversation key: %w", err)
	}
	s.conversationKeys[counterparty] = key

	return key, nil
}
