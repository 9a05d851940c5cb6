// File: pipeline/transform.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-packet transforms. Selection is capability-gated: hosts with a
// vector unit take the ChaCha20-Poly1305 path, everything else falls
// back to the XOR placeholder.
//
// SECURITY: both paths are placeholders carried over from the reference
// pipeline. The AEAD path runs with a process-random demo key and the
// fallback is not cryptography at all. Neither is a security boundary;
// real key management must be supplied before production use.

package pipeline

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/momentics/hyperpipe/api"
	"github.com/momentics/hyperpipe/cpucap"
)

// Transform turns a slot payload into job output.
type Transform interface {
	// Name identifies the transform in diagnostics.
	Name() string
	// OutputSize returns the output length produced for n input bytes.
	// Always >= n.
	OutputSize(n int) int
	// Apply writes the transformed payload into dst and returns the
	// number of bytes written. dst must hold OutputSize(len(src)).
	Apply(dst, src []byte) (int, error)
}

// selectTransform picks the transform for the detected capabilities.
func selectTransform(caps cpucap.Flags, key []byte) (Transform, error) {
	if caps.HasVector() {
		return newAEADTransform(key)
	}
	return xorTransform{}, nil
}

// aeadTransform seals each payload with ChaCha20-Poly1305, prepending
// the random nonce to the output.
type aeadTransform struct {
	aead cipher.AEAD
}

func newAEADTransform(key []byte) (*aeadTransform, error) {
	if key == nil {
		key = make([]byte, chacha20poly1305.KeySize)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("pipeline: demo key generation: %w", err)
		}
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("pipeline: aead init: %w", err)
	}
	return &aeadTransform{aead: aead}, nil
}

func (t *aeadTransform) Name() string { return "chacha20poly1305" }

func (t *aeadTransform) OutputSize(n int) int {
	return chacha20poly1305.NonceSize + n + t.aead.Overhead()
}

func (t *aeadTransform) Apply(dst, src []byte) (int, error) {
	need := t.OutputSize(len(src))
	if len(dst) < need {
		return 0, api.ErrShortBuffer
	}
	nonce := dst[:chacha20poly1305.NonceSize]
	if _, err := rand.Read(nonce); err != nil {
		return 0, err
	}
	sealed := t.aead.Seal(dst[len(nonce):len(nonce)], nonce, src, nil)
	return len(nonce) + len(sealed), nil
}

// xorTransform is the non-cryptographic reference fallback: every byte
// XORed with 0xAA. Kept byte-compatible with the original pipeline.
type xorTransform struct{}

func (xorTransform) Name() string { return "xor" }

func (xorTransform) OutputSize(n int) int { return n }

func (xorTransform) Apply(dst, src []byte) (int, error) {
	if len(dst) < len(src) {
		return 0, api.ErrShortBuffer
	}
	for i, b := range src {
		dst[i] = b ^ 0xAA
	}
	return len(src), nil
}
