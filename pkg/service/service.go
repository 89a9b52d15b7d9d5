// Package service implements the Service pattern: named, stateless
// operation groups that declare up front the full set of errors they can
// surface, and guard their operations with authorization checks.
//
// A host registers a service once at startup via New or MustNew. The
// registration step replaces a definition-time hook: it validates the
// declared metadata and fails with a ConfigError before the service
// becomes usable, so a misconfigured service aborts startup instead of
// failing on the first request.
package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/serioese/servicekit/pkg/errors"
	"github.com/serioese/servicekit/pkg/identity"
)

// NameSuffix is the required suffix for every service name
const NameSuffix = "Service"

// BaseErrors is the fixed error set appended to every service's declared
// catalogue. Guard checks can raise these regardless of what the service
// itself declares.
func BaseErrors() []error {
	return []error{errors.ErrPermissionDenied}
}

// Definition is the declared configuration of a service
type Definition struct {
	// Name of the service. Must end with "Service".
	Name string

	// Errors enumerates every service-specific error the service's
	// operations can surface, in a stable order. Must be set explicitly;
	// a service that raises nothing beyond the base set declares an empty
	// (non-nil) slice.
	Errors []error

	// Permissions answers permission checks for RequirePermissions.
	// Defaults to identity.DenyAll when nil.
	Permissions identity.Checker
}

// Service is a registered, validated service handle
type Service struct {
	name        string
	catalogue   []error
	permissions identity.Checker
}

// New validates a Definition and returns a usable Service handle. It
// returns a ConfigError if the definition violates the service
// conventions; the checks run here, once, not per call.
func New(def Definition) (*Service, error) {
	if !strings.HasSuffix(def.Name, NameSuffix) {
		return nil, errors.NewConfigError(
			fmt.Sprintf("a service's name must end with '%s', got %q", NameSuffix, def.Name))
	}

	if def.Errors == nil {
		return nil, errors.NewConfigError(
			"defined a service without an error catalogue. " +
				"Set Errors to a slice (empty is fine) that enumerates all " +
				"service-specific errors the service can surface.")
	}
	for i, err := range def.Errors {
		if err == nil {
			return nil, errors.NewConfigError(
				fmt.Sprintf("service %s declares a nil error at index %d in its catalogue", def.Name, i))
		}
	}

	checker := def.Permissions
	if checker == nil {
		checker = identity.DenyAll
	}

	catalogue := make([]error, 0, len(def.Errors)+1)
	catalogue = append(catalogue, def.Errors...)
	catalogue = append(catalogue, BaseErrors()...)

	return &Service{
		name:        def.Name,
		catalogue:   catalogue,
		permissions: checker,
	}, nil
}

// MustNew is like New but panics on a ConfigError. Intended for package
// scope registration, where a bad definition should abort startup.
func MustNew(def Definition) *Service {
	svc, err := New(def)
	if err != nil {
		panic(err)
	}
	return svc
}

// Name returns the service name
func (s *Service) Name() string {
	return s.name
}

// Errors returns the full error catalogue: the declared errors followed by
// the base set, in that order. The returned slice is a copy.
func (s *Service) Errors() []error {
	out := make([]error, len(s.catalogue))
	copy(out, s.catalogue)
	return out
}

// Declares reports whether err matches an entry of the service's
// catalogue. Callers can use it to assert the definition-time contract:
// every error an operation returns should be catalogued.
func (s *Service) Declares(err error) bool {
	for _, entry := range s.catalogue {
		if stderrors.Is(err, entry) {
			return true
		}
	}
	return false
}

// RequireSignedIn checks that the given user is signed in (not nil and not
// anonymous) and returns a PermissionError otherwise.
func (s *Service) RequireSignedIn(user *identity.User) error {
	if user.IsAnonymous() {
		return errors.NewPermissionError(T("You are not logged in."))
	}
	return nil
}

// RequirePermission checks that the user is signed in and holds a single
// permission, optionally scoped to obj. Equivalent to RequirePermissions
// with a one-element slice.
func (s *Service) RequirePermission(ctx context.Context, user *identity.User, perm identity.Permission, obj any) error {
	return s.RequirePermissions(ctx, user, []identity.Permission{perm}, obj)
}

// RequirePermissions checks that the user is signed in and holds every
// permission in perms, in order. The first missing permission short-
// circuits the check and is named in the returned PermissionError. Pass a
// non-nil obj to check object-scoped permissions instead of global ones.
func (s *Service) RequirePermissions(ctx context.Context, user *identity.User, perms []identity.Permission, obj any) error {
	if err := s.RequireSignedIn(user); err != nil {
		return err
	}
	for _, perm := range perms {
		if !s.permissions.HasPermission(ctx, user, perm, obj) {
			return &errors.PermissionError{
				Message:    fmt.Sprintf(T("You do not have permission '%s'."), perm),
				Permission: perm.String(),
			}
		}
	}
	return nil
}
