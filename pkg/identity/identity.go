// Package identity models the actor a service operates on behalf of.
//
// servicekit does not own user accounts; it only queries the signed-in
// state and the permission capability of the actor a host hands it. The
// types here are the contract between the two.
package identity

import "context"

// ProfileSystemAdmin is the profile that bypasses all permission checks
const ProfileSystemAdmin = "system_admin"

// Permission identifies a single grantable capability, e.g. "reports.view".
// servicekit treats the value as opaque; semantics live in the Checker.
type Permission string

func (p Permission) String() string {
	return string(p)
}

// User represents the actor performing a service operation
type User struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	ProfileID string  `json:"profile_id"`        // Permissions profile
	RoleID    *string `json:"role_id,omitempty"` // Optional role for hierarchy-based sharing
	Anonymous bool    `json:"anonymous,omitempty"`
}

// IsAnonymous reports whether the user has not signed in
func (u *User) IsAnonymous() bool {
	return u == nil || u.Anonymous
}

// IsSuperUser checks if the user has super user privileges
func (u *User) IsSuperUser() bool {
	return u != nil && u.ProfileID == ProfileSystemAdmin
}

// Checker answers whether a user holds a permission, optionally scoped to
// a specific object. The object is passed through opaquely; checkers that
// do not support object-level permissions may ignore it.
type Checker interface {
	HasPermission(ctx context.Context, user *User, perm Permission, obj any) bool
}

// CheckerFunc adapts a function to the Checker interface
type CheckerFunc func(ctx context.Context, user *User, perm Permission, obj any) bool

func (f CheckerFunc) HasPermission(ctx context.Context, user *User, perm Permission, obj any) bool {
	return f(ctx, user, perm, obj)
}

// DenyAll is a Checker that denies every permission. It is the default for
// services registered without a checker, so a missing wiring fails closed.
var DenyAll Checker = CheckerFunc(func(ctx context.Context, user *User, perm Permission, obj any) bool {
	return false
})

// StaticChecker is a map-backed Checker for hosts that manage grants in
// memory (and for tests). Grants are keyed by profile id.
//
// Super users bypass the grant table entirely, mirroring the usual
// system_admin escape hatch.
type StaticChecker struct {
	grants map[string]map[Permission]bool
}

// NewStaticChecker creates an empty StaticChecker
func NewStaticChecker() *StaticChecker {
	return &StaticChecker{grants: make(map[string]map[Permission]bool)}
}

// Grant records that the given profile holds the given permission
func (c *StaticChecker) Grant(profileID string, perm Permission) {
	if c.grants[profileID] == nil {
		c.grants[profileID] = make(map[Permission]bool)
	}
	c.grants[profileID][perm] = true
}

// Revoke removes a previously recorded grant
func (c *StaticChecker) Revoke(profileID string, perm Permission) {
	delete(c.grants[profileID], perm)
}

// HasPermission implements Checker. Object scoping is not supported by the
// static checker; the object argument is ignored.
func (c *StaticChecker) HasPermission(ctx context.Context, user *User, perm Permission, obj any) bool {
	if user == nil {
		return false
	}
	if user.IsSuperUser() {
		return true
	}
	return c.grants[user.ProfileID][perm]
}
