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

package oidc_test

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chantierhq/access/internal/oidc"
)

var testSigningKey = []byte("test-signing-key")

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	require.NoError(t, err)
	return token
}

// TestPurpose: Verifies extraction of the session claim set from a decoded
// ID token, including optional profile claims.
// Scope: Unit Test
func TestOIDC_Parser_ExtractsClaims(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":     "sub-1",
		"email":   "alice@chantier.fr",
		"name":    "Alice Martin",
		"picture": "https://cdn.example.com/alice.png",
	})

	claims, err := oidc.NewParser(nil).Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", claims.Subject)
	assert.Equal(t, "alice@chantier.fr", claims.Email)
	assert.Equal(t, "Alice Martin", claims.Name)
	assert.Equal(t, "https://cdn.example.com/alice.png", claims.Picture)
}

// TestPurpose: Verifies that absent optional claims come back empty rather
// than failing: claim completeness is the session store's concern.
// Scope: Unit Test
func TestOIDC_Parser_MissingClaimsAreEmpty(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "sub-1"})

	claims, err := oidc.NewParser(nil).Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", claims.Subject)
	assert.Empty(t, claims.Email)
	assert.Empty(t, claims.Name)
	assert.Empty(t, claims.Picture)
}

// TestPurpose: Verifies that non-JWT input is rejected as malformed.
// Scope: Unit Test
func TestOIDC_Parser_RejectsMalformedToken(t *testing.T) {
	_, err := oidc.NewParser(nil).Parse("not-a-token")
	assert.ErrorIs(t, err, oidc.ErrMalformedToken)
}

// TestPurpose: Verifies signature re-verification when a keyfunc is
// supplied: valid signature passes, wrong key fails.
// Scope: Unit Test
// Security: Token authenticity at the trust boundary
func TestOIDC_Parser_VerifiesSignatureWithKeyfunc(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "sub-1", "email": "alice@chantier.fr"})

	verifying := oidc.NewParser(func(*jwt.Token) (any, error) {
		return testSigningKey, nil
	})
	claims, err := verifying.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", claims.Subject)

	wrongKey := oidc.NewParser(func(*jwt.Token) (any, error) {
		return []byte("other-key"), nil
	})
	_, err = wrongKey.Parse(token)
	assert.ErrorIs(t, err, oidc.ErrMalformedToken)
}
