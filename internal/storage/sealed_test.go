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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sealKey(b byte) [32]byte {
	var key [32]byte
	for i := range key {
		key[i] = b
	}
	return key
}

// TestPurpose: Validates the sealed round trip: a value written through the
// decorator reads back intact and is not stored in the clear.
// Scope: Unit Test
// Security: Slot confidentiality at rest
func TestStorage_Sealed_RoundTrip(t *testing.T) {
	inner := NewMemory()
	s := NewSealed(inner, sealKey(0x42))

	require.NoError(t, s.Set("slot", `{"id":"sub-1"}`))

	value, ok, err := s.Get("slot")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"id":"sub-1"}`, value)

	raw, ok, err := inner.Get("slot")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, raw, "sub-1", "plaintext must not reach the inner store")
}

// TestPurpose: Validates that tampering with the stored ciphertext fails
// authentication on open and surfaces as ErrCorrupt.
// Scope: Unit Test
// Security: Slot integrity
func TestStorage_Sealed_TamperDetection(t *testing.T) {
	inner := NewMemory()
	s := NewSealed(inner, sealKey(0x42))
	require.NoError(t, s.Set("slot", "value"))

	raw, _, err := inner.Get("slot")
	require.NoError(t, err)
	tampered := []byte(raw)
	tampered[len(tampered)-1] ^= 'x'
	require.NoError(t, inner.Set("slot", string(tampered)))

	_, _, err = s.Get("slot")
	assert.ErrorIs(t, err, ErrCorrupt)
}

// TestPurpose: Validates that a value sealed under a different key is
// reported as corrupt rather than decoded to garbage.
// Scope: Unit Test
func TestStorage_Sealed_WrongKey(t *testing.T) {
	inner := NewMemory()
	require.NoError(t, NewSealed(inner, sealKey(0x42)).Set("slot", "value"))

	_, _, err := NewSealed(inner, sealKey(0x43)).Get("slot")
	assert.ErrorIs(t, err, ErrCorrupt)
}

// TestPurpose: Validates that non-base64 or truncated stored values are
// reported as corrupt.
// Scope: Unit Test
func TestStorage_Sealed_MalformedValue(t *testing.T) {
	inner := NewMemory()
	s := NewSealed(inner, sealKey(0x42))

	require.NoError(t, inner.Set("slot", "!!! not base64 !!!"))
	_, _, err := s.Get("slot")
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, inner.Set("slot", "c2hvcnQ"))
	_, _, err = s.Get("slot")
	assert.ErrorIs(t, err, ErrCorrupt)
}

// TestPurpose: Validates misses and removal pass through the decorator.
// Scope: Unit Test
func TestStorage_Sealed_MissAndRemove(t *testing.T) {
	s := NewSealed(NewMemory(), sealKey(0x42))

	_, ok, err := s.Get("absent")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("slot", "value"))
	require.NoError(t, s.Remove("slot"))
	_, ok, err = s.Get("slot")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestPurpose: Validates the in-memory backend contract used by every
// decorator test: set, get, overwrite, remove, and miss behavior.
// Scope: Unit Test
func TestStorage_Memory_Contract(t *testing.T) {
	m := NewMemory()

	_, ok, err := m.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set("k", "v1"))
	require.NoError(t, m.Set("k", "v2"))
	value, ok, err := m.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", value)

	require.NoError(t, m.Remove("k"))
	_, ok, _ = m.Get("k")
	assert.False(t, ok)

	// Removing an absent key is not an error.
	require.NoError(t, m.Remove("k"))
}
