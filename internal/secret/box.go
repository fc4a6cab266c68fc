// Package secret seals device passwords for storage at rest.
//
// Sealed values are base64(nonce || secretbox(plaintext)). A Box is built from
// either a base64 encoded 32 byte key or a passphrase, which is stretched with
// Argon2id.
package secret

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24

	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
)

// argon2Salt is fixed so the same passphrase always opens existing rows
var argon2Salt = []byte("netinspect/secret/v1")

var (
	// ErrEmptyKey is returned when no key material is configured
	ErrEmptyKey = errors.New("secret key is empty")
	// ErrDecrypt is returned when a sealed value cannot be opened with the box key
	ErrDecrypt = errors.New("secret decryption failed")
)

// Box seals and opens secrets with a single symmetric key
type Box struct {
	key [keySize]byte
}

// NewBox creates a box from key material
func NewBox(material string) (*Box, error) {
	if material == "" {
		return nil, ErrEmptyKey
	}

	b := &Box{}
	if raw, err := base64.StdEncoding.DecodeString(material); err == nil && len(raw) == keySize {
		copy(b.key[:], raw)
		return b, nil
	}

	copy(b.key[:], argon2.IDKey([]byte(material), argon2Salt, argon2Time, argon2Memory, argon2Threads, keySize))
	return b, nil
}

// GenerateKey returns a fresh random key in the encoding NewBox accepts
func GenerateKey() (string, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Seal encrypts plaintext with a random nonce
func (b *Box) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &b.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal
func (b *Box) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return "", fmt.Errorf("%w: value too short", ErrDecrypt)
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	plaintext, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}
