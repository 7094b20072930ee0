package authz

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// policyFile mirrors the on-disk YAML policy layout:
//
//	roles:
//	  admin: [manage_users, ...]
//	pages:
//	  /projects: [admin, chef_projet]
//	resources:
//	  project:
//	    create: [manage_projects]
type policyFile struct {
	Roles     map[string][]string            `yaml:"roles"`
	Pages     map[string][]string            `yaml:"pages"`
	Resources map[string]map[string][]string `yaml:"resources"`
}

// LoadFile reads a complete replacement model from a YAML policy file.
// The file must define all three tables; validation is the same as for the
// built-in model, so a file that omits a role or strands a permission is
// rejected at startup.
func LoadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy parses and validates a YAML policy document.
func ParsePolicy(data []byte) (*Model, error) {
	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}

	rolePermissions := make(map[Role][]Permission, len(file.Roles))
	for role, perms := range file.Roles {
		rolePermissions[Role(role)] = toPermissions(perms)
	}

	pageAccess := make(map[string][]Role, len(file.Pages))
	for path, roles := range file.Pages {
		pageAccess[path] = toRoles(roles)
	}

	resourceActions := make(map[string]map[Action][]Permission, len(file.Resources))
	for resource, actions := range file.Resources {
		converted := make(map[Action][]Permission, len(actions))
		for action, perms := range actions {
			converted[Action(action)] = toPermissions(perms)
		}
		resourceActions[resource] = converted
	}

	model, err := NewModel(rolePermissions, pageAccess, resourceActions)
	if err != nil {
		return nil, fmt.Errorf("invalid policy file: %w", err)
	}
	return model, nil
}

func toPermissions(values []string) []Permission {
	perms := make([]Permission, 0, len(values))
	for _, v := range values {
		perms = append(perms, Permission(v))
	}
	return perms
}

func toRoles(values []string) []Role {
	roles := make([]Role, 0, len(values))
	for _, v := range values {
		roles = append(roles, Role(v))
	}
	return roles
}
