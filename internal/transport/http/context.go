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

package http

import (
	"context"

	"github.com/chantierhq/access/internal/session"
)

type contextKey string

const principalKey contextKey = "principal"

// PrincipalFrom retrieves the authenticated principal from context.
// Returns nil when the request is anonymous.
func PrincipalFrom(ctx context.Context) *session.Principal {
	if val, ok := ctx.Value(principalKey).(*session.Principal); ok {
		return val
	}
	return nil
}
