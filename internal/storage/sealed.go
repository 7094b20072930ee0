// Copyright 2026 The Chantier Access Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

// Sealed decorates a Store with NaCl secretbox encryption. Values are
// sealed before they reach the inner store, so a slot read from disk by
// another process reveals nothing and any tampering fails authentication on
// open, surfacing as ErrCorrupt (which the session store purges).
type Sealed struct {
	inner Store
	key   [32]byte
}

// NewSealed wraps inner with the given 32-byte key.
func NewSealed(inner Store, key [32]byte) *Sealed {
	return &Sealed{inner: inner, key: key}
}

// Get implements Store. A value that fails to decode or authenticate is
// reported as ErrCorrupt.
func (s *Sealed) Get(key string) (string, bool, error) {
	sealed, ok, err := s.inner.Get(key)
	if err != nil || !ok {
		return "", ok, err
	}

	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < 24 {
		return "", false, fmt.Errorf("%w: malformed sealed value", ErrCorrupt)
	}

	var nonce [24]byte
	copy(nonce[:], raw[:24])
	plain, valid := secretbox.Open(nil, raw[24:], &nonce, &s.key)
	if !valid {
		return "", false, fmt.Errorf("%w: sealed value failed authentication", ErrCorrupt)
	}

	return string(plain), true, nil
}

// Set implements Store.
func (s *Sealed) Set(key, value string) error {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(value), &nonce, &s.key)
	return s.inner.Set(key, base64.RawStdEncoding.EncodeToString(sealed))
}

// Remove implements Store.
func (s *Sealed) Remove(key string) error {
	return s.inner.Remove(key)
}
