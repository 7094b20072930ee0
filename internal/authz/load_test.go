package authz

import (
	"errors"
	"testing"
)

const validPolicy = `
roles:
  admin: [manage_users, manage_roles, manage_projects, assign_team_members, manage_materials, view_team, view_team_history, view_projects, view_reports, add_comments, edit_projects]
  chef_projet: [manage_projects, assign_team_members, view_team, view_team_history, view_projects, add_comments, edit_projects]
  developpeur: [view_own_projects, view_own_history, add_comments]
  csm_dt_dta: [view_team, view_projects, view_reports, add_comments]
pages:
  /reports: [admin, csm_dt_dta]
resources:
  project:
    read: [view_projects]
`

// TestPurpose: Validates that a complete YAML policy file replaces the
// built-in tables and passes the same validation.
// Scope: Unit Test
func TestAuthz_ParsePolicy_Valid(t *testing.T) {
	m, err := ParsePolicy([]byte(validPolicy))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	roles, restricted := m.PageRoles("/reports")
	if !restricted || len(roles) != 2 {
		t.Errorf("expected /reports restricted to two roles, got %v restricted=%v", roles, restricted)
	}
	if _, restricted := m.PageRoles("/admin"); restricted {
		t.Error("replacement model should not carry the built-in page table")
	}
	if !m.Grants(RoleDeveloppeur, PermViewOwnProjects) {
		t.Error("developpeur should hold view_own_projects")
	}
}

// TestPurpose: Validates that a policy file omitting a role is rejected at
// parse time rather than producing a partial model.
// Scope: Unit Test
// Security: Policy Integrity
func TestAuthz_ParsePolicy_RejectsIncompleteRoleTable(t *testing.T) {
	incomplete := `
roles:
  admin: [manage_users, manage_roles, manage_projects, assign_team_members, manage_materials, view_team, view_team_history, view_own_projects, view_own_history, view_projects, view_reports, add_comments, edit_projects]
pages: {}
resources: {}
`
	_, err := ParsePolicy([]byte(incomplete))
	if !errors.Is(err, ErrRoleWithoutPermissions) {
		t.Fatalf("expected ErrRoleWithoutPermissions, got %v", err)
	}
}

// TestPurpose: Validates that malformed YAML is reported as a parse error.
// Scope: Unit Test
func TestAuthz_ParsePolicy_RejectsMalformedYAML(t *testing.T) {
	if _, err := ParsePolicy([]byte("roles: [not: a: map")); err == nil {
		t.Fatal("expected parse error for malformed YAML")
	}
}
