package authz

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrRoleWithoutPermissions = errors.New("role has no permission entry")
	ErrDeadPermission         = errors.New("permission granted to no role")
	ErrUnknownRole            = errors.New("unknown role")
	ErrUnknownAction          = errors.New("unknown action")
)

type resourceAction struct {
	Resource string
	Action   Action
}

// Model is the pure authorization model: three immutable tables keyed by the
// closed role/permission enumerations. It performs no I/O and holds no
// session state; the Evaluator binds it to the current session.
//
// A Model may be substituted wholesale at initialization (see LoadFile) but
// is never mutated afterwards.
type Model struct {
	rolePermissions map[Role][]Permission
	pageAccess      map[string][]Role
	resourceActions map[resourceAction][]Permission
}

// NewModel builds a model from explicit tables and validates it. The input
// maps are copied; callers may discard them.
func NewModel(
	rolePermissions map[Role][]Permission,
	pageAccess map[string][]Role,
	resourceActions map[string]map[Action][]Permission,
) (*Model, error) {
	m := &Model{
		rolePermissions: make(map[Role][]Permission, len(rolePermissions)),
		pageAccess:      make(map[string][]Role, len(pageAccess)),
		resourceActions: make(map[resourceAction][]Permission),
	}
	for role, perms := range rolePermissions {
		m.rolePermissions[role] = append([]Permission(nil), perms...)
	}
	for path, roles := range pageAccess {
		m.pageAccess[path] = append([]Role(nil), roles...)
	}
	for resource, actions := range resourceActions {
		for action, perms := range actions {
			m.resourceActions[resourceAction{resource, action}] = append([]Permission(nil), perms...)
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// DefaultModel returns the built-in authorization tables.
func DefaultModel() *Model {
	m, err := NewModel(defaultRolePermissions(), defaultPageAccess(), defaultResourceActions())
	if err != nil {
		// The built-in tables are covered by tests; a validation failure
		// here is a programming error.
		panic(fmt.Sprintf("authz: default model invalid: %v", err))
	}
	return m
}

// Validate checks the model invariants:
//   - every role has a permission entry (total function),
//   - every granted permission and page role is a known enumeration member,
//   - every known permission is granted to at least one role,
//   - every resource action names known permissions.
func (m *Model) Validate() error {
	for _, role := range Roles() {
		if _, ok := m.rolePermissions[role]; !ok {
			return fmt.Errorf("%w: %s", ErrRoleWithoutPermissions, role)
		}
	}

	granted := make(map[Permission]bool)
	for role, perms := range m.rolePermissions {
		if !role.Valid() {
			return fmt.Errorf("%w: %q in role-permission table", ErrUnknownRole, role)
		}
		for _, p := range perms {
			if !p.Valid() {
				return fmt.Errorf("unknown permission %q granted to role %s", p, role)
			}
			granted[p] = true
		}
	}
	for _, p := range Permissions() {
		if !granted[p] {
			return fmt.Errorf("%w: %s", ErrDeadPermission, p)
		}
	}

	for path, roles := range m.pageAccess {
		for _, r := range roles {
			if !r.Valid() {
				return fmt.Errorf("%w: %q in page table for %s", ErrUnknownRole, r, path)
			}
		}
	}

	for key, perms := range m.resourceActions {
		if !key.Action.Valid() {
			return fmt.Errorf("%w: %q on resource %s", ErrUnknownAction, key.Action, key.Resource)
		}
		for _, p := range perms {
			if !p.Valid() {
				return fmt.Errorf("unknown permission %q for %s %s", p, key.Action, key.Resource)
			}
		}
	}

	return nil
}

// PermissionsFor returns the permission set granted to a role. Total over
// the closed enumeration; an unknown role yields nil.
func (m *Model) PermissionsFor(role Role) []Permission {
	perms, ok := m.rolePermissions[role]
	if !ok {
		return nil
	}
	return append([]Permission(nil), perms...)
}

// Grants reports whether role holds permission.
func (m *Model) Grants(role Role, permission Permission) bool {
	for _, p := range m.rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// PageRoles returns the roles allowed on a page path. restricted is false
// when the path is not listed, meaning any authenticated user may access it.
// A listed path with an empty role set is forbidden to everyone.
func (m *Model) PageRoles(path string) (roles []Role, restricted bool) {
	r, ok := m.pageAccess[path]
	if !ok {
		return nil, false
	}
	return append([]Role(nil), r...), true
}

// RequiredPermissions returns the disjunctive permission set required to
// perform action on a resource type. An unregistered pair returns the empty
// set, which the evaluator treats as deny.
func (m *Model) RequiredPermissions(resource string, action Action) []Permission {
	perms, ok := m.resourceActions[resourceAction{resource, action}]
	if !ok {
		return nil
	}
	return append([]Permission(nil), perms...)
}

// PagePaths returns every path listed in the page-access table.
func (m *Model) PagePaths() []string {
	paths := make([]string, 0, len(m.pageAccess))
	for p := range m.pageAccess {
		paths = append(paths, p)
	}
	return paths
}

func defaultRolePermissions() map[Role][]Permission {
	return map[Role][]Permission{
		RoleAdmin: {
			PermManageUsers,
			PermManageRoles,
			PermManageProjects,
			PermAssignTeamMembers,
			PermManageMaterials,
			PermViewTeam,
			PermViewTeamHistory,
			PermViewProjects,
			PermViewReports,
			PermAddComments,
			PermEditProjects,
		},
		RoleChefProjet: {
			PermManageProjects,
			PermAssignTeamMembers,
			PermViewTeam,
			PermViewTeamHistory,
			PermViewProjects,
			PermAddComments,
			PermEditProjects,
		},
		RoleDeveloppeur: {
			PermViewOwnProjects,
			PermViewOwnHistory,
			PermAddComments,
		},
		RoleCSMDTDTA: {
			PermViewTeam,
			PermViewProjects,
			PermViewReports,
			PermAddComments,
		},
	}
}

func defaultPageAccess() map[string][]Role {
	return map[string][]Role{
		"/":                {RoleAdmin, RoleChefProjet, RoleDeveloppeur, RoleCSMDTDTA},
		"/projects":        {RoleAdmin, RoleChefProjet, RoleCSMDTDTA},
		"/projects/create": {RoleAdmin, RoleChefProjet},
		"/team":            {RoleAdmin, RoleChefProjet, RoleCSMDTDTA},
		"/materials":       {RoleAdmin, RoleChefProjet, RoleCSMDTDTA},
		"/history":         {RoleAdmin, RoleChefProjet, RoleCSMDTDTA},
		"/admin":           {RoleAdmin},
		"/admin/users":     {RoleAdmin},
		"/admin/settings":  {RoleAdmin},
	}
}

func defaultResourceActions() map[string]map[Action][]Permission {
	return map[string]map[Action][]Permission{
		"project": {
			ActionCreate: {PermManageProjects},
			ActionRead:   {PermManageProjects, PermViewProjects},
			ActionUpdate: {PermManageProjects, PermEditProjects},
			ActionDelete: {PermManageProjects},
		},
		"material": {
			ActionCreate: {PermManageMaterials},
			ActionRead:   {PermManageMaterials, PermViewProjects},
			ActionUpdate: {PermManageMaterials},
			ActionDelete: {PermManageMaterials},
		},
		"user": {
			ActionCreate: {PermManageUsers},
			ActionRead:   {PermManageUsers, PermViewTeam},
			ActionUpdate: {PermManageUsers},
			ActionDelete: {PermManageUsers},
		},
		"comment": {
			ActionCreate: {PermAddComments},
			ActionRead:   {PermAddComments, PermViewProjects},
			ActionUpdate: {PermAddComments},
			ActionDelete: {PermManageProjects},
		},
	}
}
