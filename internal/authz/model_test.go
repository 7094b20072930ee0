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

package authz

import (
	"errors"
	"testing"
)

// TestPurpose: Validates that the built-in authorization tables satisfy the
// model invariants: every role has a grant set, every permission belongs to
// at least one role, and every table entry names known enumeration members.
// Scope: Unit Test
// Security: Policy Integrity
// Expected: DefaultModel constructs without error.
func TestAuthz_Model_DefaultModelIsValid(t *testing.T) {
	m := DefaultModel()
	if err := m.Validate(); err != nil {
		t.Fatalf("default model failed validation: %v", err)
	}
}

// TestPurpose: Validates that the role-permission function is total: every
// member of the closed role enumeration has a non-empty grant set.
// Scope: Unit Test
// Expected: PermissionsFor returns a non-empty set for all four roles.
func TestAuthz_Model_EveryRoleHasPermissions(t *testing.T) {
	m := DefaultModel()
	for _, role := range Roles() {
		perms := m.PermissionsFor(role)
		if len(perms) == 0 {
			t.Errorf("role %s has no permissions", role)
		}
	}
}

// TestPurpose: Validates rejection of a model where a role is missing from
// the permission table.
// Scope: Unit Test
// Expected: NewModel returns ErrRoleWithoutPermissions.
func TestAuthz_Model_RejectsMissingRole(t *testing.T) {
	rp := defaultRolePermissions()
	delete(rp, RoleCSMDTDTA)

	_, err := NewModel(rp, defaultPageAccess(), defaultResourceActions())
	if !errors.Is(err, ErrRoleWithoutPermissions) {
		t.Fatalf("expected ErrRoleWithoutPermissions, got %v", err)
	}
}

// TestPurpose: Validates rejection of a model containing a permission that
// no role is granted.
// Scope: Unit Test
// Expected: NewModel returns ErrDeadPermission.
func TestAuthz_Model_RejectsDeadPermission(t *testing.T) {
	rp := defaultRolePermissions()
	// Strip add_comments from every role; it becomes unreachable.
	for role, perms := range rp {
		kept := perms[:0]
		for _, p := range perms {
			if p != PermAddComments {
				kept = append(kept, p)
			}
		}
		rp[role] = kept
	}

	_, err := NewModel(rp, defaultPageAccess(), defaultResourceActions())
	if !errors.Is(err, ErrDeadPermission) {
		t.Fatalf("expected ErrDeadPermission, got %v", err)
	}
}

// TestPurpose: Validates rejection of a page table entry naming a role
// outside the closed enumeration.
// Scope: Unit Test
// Expected: NewModel returns ErrUnknownRole.
func TestAuthz_Model_RejectsUnknownRoleInPageTable(t *testing.T) {
	pages := defaultPageAccess()
	pages["/projects"] = []Role{"superuser"}

	_, err := NewModel(defaultRolePermissions(), pages, defaultResourceActions())
	if !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

// TestPurpose: Validates the page table semantics: listed paths restrict to
// the listed roles, unlisted paths report unrestricted, and a listed path
// with an empty role set is closed to everyone.
// Scope: Unit Test
func TestAuthz_Model_PageRoles(t *testing.T) {
	m := DefaultModel()

	roles, restricted := m.PageRoles("/admin")
	if !restricted {
		t.Fatal("/admin should be restricted")
	}
	if len(roles) != 1 || roles[0] != RoleAdmin {
		t.Errorf("expected /admin to allow only admin, got %v", roles)
	}

	if _, restricted := m.PageRoles("/profile"); restricted {
		t.Error("unlisted path should be unrestricted")
	}

	custom, err := NewModel(defaultRolePermissions(),
		map[string][]Role{"/nobody": {}}, defaultResourceActions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	roles, restricted = custom.PageRoles("/nobody")
	if !restricted || len(roles) != 0 {
		t.Errorf("listed path with empty roles should be restricted to nobody, got %v restricted=%v", roles, restricted)
	}
}

// TestPurpose: Validates that an unregistered resource/action pair yields an
// empty requirement set, which downstream evaluation treats as deny.
// Scope: Unit Test
func TestAuthz_Model_UnregisteredResourceActionIsEmpty(t *testing.T) {
	m := DefaultModel()
	if perms := m.RequiredPermissions("invoice", ActionDelete); len(perms) != 0 {
		t.Errorf("expected empty requirement set for unregistered pair, got %v", perms)
	}
	if perms := m.RequiredPermissions("project", ActionUpdate); len(perms) == 0 {
		t.Error("expected non-empty requirement set for project update")
	}
}

// TestPurpose: Validates that NewModel copies its input tables so later
// caller mutation cannot change the model.
// Scope: Unit Test
func TestAuthz_Model_CopiesInputTables(t *testing.T) {
	rp := defaultRolePermissions()
	m, err := NewModel(rp, defaultPageAccess(), defaultResourceActions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rp[RoleDeveloppeur] = append(rp[RoleDeveloppeur], PermManageUsers)
	if m.Grants(RoleDeveloppeur, PermManageUsers) {
		t.Error("mutating the input table must not change the model")
	}

	perms := m.PermissionsFor(RoleAdmin)
	perms[0] = "tampered"
	if !m.Grants(RoleAdmin, PermManageUsers) {
		t.Error("mutating a returned slice must not change the model")
	}
}
