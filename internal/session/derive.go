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
	"fmt"
	"strings"

	"github.com/chantierhq/access/internal/authz"
)

// MarkerRule maps an email marker substring to a role. The marker strings
// are deployment configuration; only the matching algorithm is fixed.
type MarkerRule struct {
	Marker string
	Role   authz.Role
}

// RoleDeriver derives a role from an email address by substring-matching an
// ordered marker table against the lowercased local part. The first matching
// rule wins; no match yields the developer role. Pure and total.
type RoleDeriver struct {
	rules    []MarkerRule
	fallback authz.Role
}

// NewRoleDeriver creates a deriver over the given ordered rules.
func NewRoleDeriver(rules []MarkerRule) *RoleDeriver {
	return &RoleDeriver{
		rules:    append([]MarkerRule(nil), rules...),
		fallback: authz.RoleDeveloppeur,
	}
}

// Derive returns the role for an email address.
func (d *RoleDeriver) Derive(email string) authz.Role {
	local := strings.ToLower(strings.TrimSpace(email))
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}
	for _, rule := range d.rules {
		if rule.Marker == "" {
			continue
		}
		if strings.Contains(local, strings.ToLower(rule.Marker)) {
			return rule.Role
		}
	}
	return d.fallback
}

// ParseMarkerRules parses a marker table from its textual configuration
// form: comma-separated "marker=role" pairs, evaluated in the order given.
func ParseMarkerRules(value string) ([]MarkerRule, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	var rules []MarkerRule
	for _, pair := range strings.Split(value, ",") {
		marker, role, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found || marker == "" {
			return nil, fmt.Errorf("invalid marker rule %q: want marker=role", pair)
		}
		r := authz.Role(strings.TrimSpace(role))
		if !r.Valid() {
			return nil, fmt.Errorf("invalid marker rule %q: %w %q", pair, authz.ErrUnknownRole, role)
		}
		rules = append(rules, MarkerRule{Marker: strings.TrimSpace(marker), Role: r})
	}
	return rules, nil
}

// DefaultMarkerRules returns the demo marker table. Production deployments
// override it through configuration.
func DefaultMarkerRules() []MarkerRule {
	return []MarkerRule{
		{Marker: "alice", Role: authz.RoleAdmin},
		{Marker: "bob", Role: authz.RoleChefProjet},
		{Marker: "charlie", Role: authz.RoleDeveloppeur},
		{Marker: "diana", Role: authz.RoleCSMDTDTA},
		{Marker: "eva", Role: authz.RoleCSMDTDTA},
	}
}
