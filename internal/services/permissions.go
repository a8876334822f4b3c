// Package services - bootstrap permission evaluator
//
// Authorization policy lives in the identity platform; this module only
// consumes the PermissionEvaluator contract. StaticPermissions is the
// config-driven stand-in used until the identity client is wired: a fixed
// admin set plus explicit per-agent grants.
package services

import "context"

// StaticPermissions evaluates permissions from in-memory sets.
type StaticPermissions struct {
	admins map[uint]struct{}
	grants map[uint]map[string]struct{}
}

// NewStaticPermissions builds an evaluator from an admin id list.
func NewStaticPermissions(adminIDs []uint) *StaticPermissions {
	admins := make(map[uint]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &StaticPermissions{
		admins: admins,
		grants: make(map[uint]map[string]struct{}),
	}
}

// Grant adds a named permission for an agent.
func (p *StaticPermissions) Grant(userID uint, permission string) {
	set, ok := p.grants[userID]
	if !ok {
		set = make(map[string]struct{})
		p.grants[userID] = set
	}
	set[permission] = struct{}{}
}

// IsAdmin reports whether the agent is in the admin set.
func (p *StaticPermissions) IsAdmin(_ context.Context, userID uint) (bool, error) {
	_, ok := p.admins[userID]
	return ok, nil
}

// HasAnyPermission reports whether the agent holds at least one of the named
// permissions. Admins implicitly hold everything.
func (p *StaticPermissions) HasAnyPermission(_ context.Context, userID uint, permissions []string) (bool, error) {
	if _, ok := p.admins[userID]; ok {
		return true, nil
	}
	set, ok := p.grants[userID]
	if !ok {
		return false, nil
	}
	for _, perm := range permissions {
		if _, ok := set[perm]; ok {
			return true, nil
		}
	}
	return false, nil
}
