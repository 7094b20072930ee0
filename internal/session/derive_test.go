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

package session

import (
	"testing"

	"github.com/chantierhq/access/internal/authz"
)

// TestPurpose: Validates role derivation over the demo marker table:
// case-insensitive substring matching on the email local part, first match
// wins, developer fallback when nothing matches.
// Scope: Unit Test
func TestSession_RoleDeriver_Derive(t *testing.T) {
	d := NewRoleDeriver(DefaultMarkerRules())

	cases := []struct {
		email string
		want  authz.Role
	}{
		{"alice@chantier.fr", authz.RoleAdmin},
		{"ALICE@CHANTIER.FR", authz.RoleAdmin},
		{"alice.martin@chantier.fr", authz.RoleAdmin},
		{"bob@chantier.fr", authz.RoleChefProjet},
		{"charlie@chantier.fr", authz.RoleDeveloppeur},
		{"diana@chantier.fr", authz.RoleCSMDTDTA},
		{"eva@chantier.fr", authz.RoleCSMDTDTA},
		// Marker embedded mid-local-part still matches.
		{"xx-bob-yy@chantier.fr", authz.RoleChefProjet},
		// Marker in the domain does not match.
		{"nobody@alice.example.com", authz.RoleDeveloppeur},
		// No marker: developer fallback.
		{"marie@chantier.fr", authz.RoleDeveloppeur},
		{"  Alice@Chantier.fr  ", authz.RoleAdmin},
	}

	for _, tc := range cases {
		if got := d.Derive(tc.email); got != tc.want {
			t.Errorf("Derive(%q) = %s, want %s", tc.email, got, tc.want)
		}
	}
}

// TestPurpose: Validates that rule order decides ties: the first marker
// contained in the local part wins even when a later rule also matches.
// Scope: Unit Test
func TestSession_RoleDeriver_FirstMatchWins(t *testing.T) {
	d := NewRoleDeriver([]MarkerRule{
		{Marker: "lead", Role: authz.RoleChefProjet},
		{Marker: "dev", Role: authz.RoleDeveloppeur},
	})

	if got := d.Derive("dev-lead@chantier.fr"); got != authz.RoleChefProjet {
		t.Errorf("expected first rule to win, got %s", got)
	}

	reversed := NewRoleDeriver([]MarkerRule{
		{Marker: "dev", Role: authz.RoleDeveloppeur},
		{Marker: "lead", Role: authz.RoleChefProjet},
	})
	if got := reversed.Derive("dev-lead@chantier.fr"); got != authz.RoleDeveloppeur {
		t.Errorf("expected first rule to win after reorder, got %s", got)
	}
}

// TestPurpose: Validates parsing of the textual marker configuration and
// rejection of malformed pairs and unknown roles.
// Scope: Unit Test
func TestSession_ParseMarkerRules(t *testing.T) {
	rules, err := ParseMarkerRules("lead=chef_projet, admin=admin ,qa=csm_dt_dta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}
	if rules[0].Marker != "lead" || rules[0].Role != authz.RoleChefProjet {
		t.Errorf("unexpected first rule: %+v", rules[0])
	}

	if _, err := ParseMarkerRules("lead"); err == nil {
		t.Error("expected error for pair without =")
	}
	if _, err := ParseMarkerRules("lead=supervisor"); err == nil {
		t.Error("expected error for unknown role")
	}
	if rules, err := ParseMarkerRules("   "); err != nil || rules != nil {
		t.Errorf("blank input should yield no rules, got %v, %v", rules, err)
	}
}
