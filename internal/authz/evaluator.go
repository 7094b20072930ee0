package authz

import (
	"sort"
	"strings"
)

// RoleSource supplies the role of the currently authenticated principal.
// Implemented by the session store; ok is false for an anonymous session.
type RoleSource interface {
	CurrentRole() (role Role, ok bool)
}

// Evaluator binds the pure authorization model to the live session. It is
// stateless and never returns an error: every predicate answers false for an
// anonymous session or an unknown input (deny by default).
type Evaluator struct {
	model   *Model
	session RoleSource
}

// NewEvaluator creates a policy evaluator over model and session.
func NewEvaluator(model *Model, session RoleSource) *Evaluator {
	return &Evaluator{model: model, session: session}
}

// HasRole reports whether the current principal's role is one of roles.
func (e *Evaluator) HasRole(roles ...Role) bool {
	current, ok := e.session.CurrentRole()
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == current {
			return true
		}
	}
	return false
}

// HasPermission reports whether the current principal's role grants permission.
func (e *Evaluator) HasPermission(permission Permission) bool {
	role, ok := e.session.CurrentRole()
	if !ok {
		return false
	}
	return e.model.Grants(role, permission)
}

// CanAccessPage reports whether the current principal may access path.
// Matching is exact string equality; a path absent from the page table is
// unrestricted for any authenticated principal. Prefix semantics are layered
// by PrefixPages, not here.
func (e *Evaluator) CanAccessPage(path string) bool {
	role, ok := e.session.CurrentRole()
	if !ok {
		return false
	}
	roles, restricted := e.model.PageRoles(path)
	if !restricted {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// CanPerformAction reports whether the current principal may perform action
// on the given resource type. True only when the pair is registered and the
// principal holds at least one of the required permissions.
func (e *Evaluator) CanPerformAction(resource string, action Action) bool {
	role, ok := e.session.CurrentRole()
	if !ok {
		return false
	}
	required := e.model.RequiredPermissions(resource, action)
	for _, p := range required {
		if e.model.Grants(role, p) {
			return true
		}
	}
	return false
}

// Permissions returns the full permission set of the current principal's
// role, or nil for an anonymous session.
func (e *Evaluator) Permissions() []Permission {
	role, ok := e.session.CurrentRole()
	if !ok {
		return nil
	}
	return e.model.PermissionsFor(role)
}

// PageChecker is the page-access predicate consumed by the navigation guard.
type PageChecker interface {
	CanAccessPage(path string) bool
}

// PrefixPages layers prefix matching on top of the exact-match evaluator.
// A path equal to a registered prefix, or underneath it, requires one of the
// prefix's roles; anything else falls through to the wrapped evaluator.
// Longer prefixes win over shorter ones.
type PrefixPages struct {
	eval     *Evaluator
	prefixes []prefixRule
}

type prefixRule struct {
	prefix string
	roles  []Role
}

// NewPrefixPages wraps eval with the given prefix rules.
func NewPrefixPages(eval *Evaluator, rules map[string][]Role) *PrefixPages {
	p := &PrefixPages{eval: eval}
	for prefix, roles := range rules {
		p.prefixes = append(p.prefixes, prefixRule{
			prefix: strings.TrimSuffix(prefix, "/"),
			roles:  append([]Role(nil), roles...),
		})
	}
	sort.Slice(p.prefixes, func(i, j int) bool {
		return len(p.prefixes[i].prefix) > len(p.prefixes[j].prefix)
	})
	return p
}

// CanAccessPage implements PageChecker.
func (p *PrefixPages) CanAccessPage(path string) bool {
	for _, rule := range p.prefixes {
		if path == rule.prefix || strings.HasPrefix(path, rule.prefix+"/") {
			return p.eval.HasRole(rule.roles...)
		}
	}
	return p.eval.CanAccessPage(path)
}
