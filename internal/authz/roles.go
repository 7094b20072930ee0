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

// -----------------------------------------------------------------------------
// Role Constants
// These are the canonical role names carried in the session principal.
// The enumeration is closed: adding a role requires updating every table in
// the authorization model, which Model.Validate enforces at startup.
// -----------------------------------------------------------------------------

// Role is a closed-enumeration label indexing the permission and page tables.
type Role string

const (
	// RoleAdmin has full access to every module and configuration screen.
	RoleAdmin Role = "admin"

	// RoleChefProjet manages projects and assigns team members.
	RoleChefProjet Role = "chef_projet"

	// RoleDeveloppeur sees only their own projects and history. Also the
	// default role when email-based derivation matches nothing.
	RoleDeveloppeur Role = "developpeur"

	// RoleCSMDTDTA is the read-mostly reporting role (CSM/DT/DTA staff).
	RoleCSMDTDTA Role = "csm_dt_dta"
)

// Roles lists every known role. Order is stable for deterministic iteration
// in validation and tests.
func Roles() []Role {
	return []Role{RoleAdmin, RoleChefProjet, RoleDeveloppeur, RoleCSMDTDTA}
}

// Valid reports whether r is a member of the closed role enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleChefProjet, RoleDeveloppeur, RoleCSMDTDTA:
		return true
	}
	return false
}

// Label returns the human-facing display name for the role.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrateur"
	case RoleChefProjet:
		return "Chef de Projet"
	case RoleDeveloppeur:
		return "Développeur"
	case RoleCSMDTDTA:
		return "CSM/DT/DTA"
	}
	return string(r)
}

// Description returns a short description of what the role can do.
func (r Role) Description() string {
	switch r {
	case RoleAdmin:
		return "Accès complet à tous les modules et configurations"
	case RoleChefProjet:
		return "Gestion des projets et assignation de l'équipe"
	case RoleDeveloppeur:
		return "Accès à ses propres projets et historique"
	case RoleCSMDTDTA:
		return "Accès en lecture seule à tous les rapports"
	}
	return ""
}

// -----------------------------------------------------------------------------
// Permission Constants
// The atomic unit of authorization. Every permission must appear in at least
// one role's grant set (no dead permissions); Model.Validate enforces this.
// -----------------------------------------------------------------------------

// Permission is a closed-enumeration capability token.
type Permission string

const (
	PermManageUsers       Permission = "manage_users"
	PermManageRoles       Permission = "manage_roles"
	PermManageProjects    Permission = "manage_projects"
	PermAssignTeamMembers Permission = "assign_team_members"
	PermManageMaterials   Permission = "manage_materials"
	PermViewTeam          Permission = "view_team"
	PermViewTeamHistory   Permission = "view_team_history"
	PermViewOwnProjects   Permission = "view_own_projects"
	PermViewOwnHistory    Permission = "view_own_history"
	PermViewProjects      Permission = "view_projects"
	PermViewReports       Permission = "view_reports"
	PermAddComments       Permission = "add_comments"
	PermEditProjects      Permission = "edit_projects"
)

// Permissions lists every known permission in stable order.
func Permissions() []Permission {
	return []Permission{
		PermManageUsers,
		PermManageRoles,
		PermManageProjects,
		PermAssignTeamMembers,
		PermManageMaterials,
		PermViewTeam,
		PermViewTeamHistory,
		PermViewOwnProjects,
		PermViewOwnHistory,
		PermViewProjects,
		PermViewReports,
		PermAddComments,
		PermEditProjects,
	}
}

// Valid reports whether p is a member of the closed permission enumeration.
func (p Permission) Valid() bool {
	for _, known := range Permissions() {
		if p == known {
			return true
		}
	}
	return false
}

// Action is a CRUD verb in the resource-action policy.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Valid reports whether a is a known CRUD action.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	}
	return false
}
