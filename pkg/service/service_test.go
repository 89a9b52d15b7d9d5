package service

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serioese/servicekit/pkg/errors"
	"github.com/serioese/servicekit/pkg/identity"
)

var (
	errQuotaExceeded = stderrors.New("quota exceeded")
	errInvoiceClosed = stderrors.New("invoice already closed")
)

func TestNew_ValidDefinition(t *testing.T) {
	svc, err := New(Definition{
		Name:   "InvoiceService",
		Errors: []error{errQuotaExceeded, errInvoiceClosed},
	})
	require.NoError(t, err)
	assert.Equal(t, "InvoiceService", svc.Name())
}

func TestNew_NameMustEndWithService(t *testing.T) {
	_, err := New(Definition{
		Name:   "InvoiceManager",
		Errors: []error{},
	})
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
	assert.Contains(t, err.Error(), "must end with 'Service'")
}

func TestNew_MissingErrorCatalogue(t *testing.T) {
	_, err := New(Definition{Name: "InvoiceService"})
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
	assert.Contains(t, err.Error(), "error catalogue")
}

func TestNew_NilCatalogueEntry(t *testing.T) {
	_, err := New(Definition{
		Name:   "InvoiceService",
		Errors: []error{errQuotaExceeded, nil},
	})
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
	assert.Contains(t, err.Error(), "nil error at index 1")
}

func TestNew_EmptyCatalogueIsAllowed(t *testing.T) {
	svc, err := New(Definition{Name: "PingService", Errors: []error{}})
	require.NoError(t, err)
	// Even an empty declaration still carries the base set
	require.Len(t, svc.Errors(), 1)
	assert.True(t, stderrors.Is(svc.Errors()[0], errors.ErrPermissionDenied))
}

func TestErrors_DeclaredThenBaseInOrder(t *testing.T) {
	svc := MustNew(Definition{
		Name:   "InvoiceService",
		Errors: []error{errQuotaExceeded, errInvoiceClosed},
	})

	catalogue := svc.Errors()
	require.Len(t, catalogue, 3)
	assert.Equal(t, errQuotaExceeded, catalogue[0])
	assert.Equal(t, errInvoiceClosed, catalogue[1])
	assert.True(t, stderrors.Is(catalogue[2], errors.ErrPermissionDenied))
}

func TestMustNew_PanicsOnBadDefinition(t *testing.T) {
	assert.Panics(t, func() {
		MustNew(Definition{Name: "Broken"})
	})
}

func TestDeclares(t *testing.T) {
	svc := MustNew(Definition{
		Name:   "InvoiceService",
		Errors: []error{errQuotaExceeded},
	})

	assert.True(t, svc.Declares(errQuotaExceeded))
	assert.True(t, svc.Declares(errors.NewPermissionError("anything")))
	assert.False(t, svc.Declares(errInvoiceClosed))
	assert.False(t, svc.Declares(stderrors.New("surprise")))
}

func TestRequireSignedIn(t *testing.T) {
	svc := MustNew(Definition{Name: "InvoiceService", Errors: []error{}})

	err := svc.RequireSignedIn(nil)
	require.Error(t, err)
	assert.True(t, errors.IsPermission(err))
	assert.Contains(t, err.Error(), "You are not logged in.")

	err = svc.RequireSignedIn(&identity.User{ID: "u1", Anonymous: true})
	require.Error(t, err)
	assert.True(t, errors.IsPermission(err))

	err = svc.RequireSignedIn(&identity.User{ID: "u1", ProfileID: "standard"})
	assert.NoError(t, err)
}

// countingChecker records every permission it is asked about
type countingChecker struct {
	granted map[identity.Permission]bool
	calls   []identity.Permission
}

func (c *countingChecker) HasPermission(ctx context.Context, user *identity.User, perm identity.Permission, obj any) bool {
	c.calls = append(c.calls, perm)
	return c.granted[perm]
}

func TestRequirePermissions_Success(t *testing.T) {
	checker := &countingChecker{granted: map[identity.Permission]bool{
		"invoices.view": true,
		"invoices.edit": true,
	}}
	svc := MustNew(Definition{
		Name:        "InvoiceService",
		Errors:      []error{},
		Permissions: checker,
	})

	user := &identity.User{ID: "u1", ProfileID: "standard"}
	err := svc.RequirePermissions(context.Background(), user, []identity.Permission{"invoices.view", "invoices.edit"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, []identity.Permission{"invoices.view", "invoices.edit"}, checker.calls)
}

func TestRequirePermissions_ShortCircuitsOnFirstMissing(t *testing.T) {
	checker := &countingChecker{granted: map[identity.Permission]bool{
		"invoices.view": true,
	}}
	svc := MustNew(Definition{
		Name:        "InvoiceService",
		Errors:      []error{},
		Permissions: checker,
	})

	user := &identity.User{ID: "u1", ProfileID: "standard"}
	err := svc.RequirePermissions(context.Background(), user,
		[]identity.Permission{"invoices.view", "invoices.delete", "invoices.edit"}, nil)

	require.Error(t, err)
	assert.True(t, errors.IsPermission(err))
	assert.Contains(t, err.Error(), "You do not have permission 'invoices.delete'.")
	// invoices.edit must never have been evaluated
	assert.Equal(t, []identity.Permission{"invoices.view", "invoices.delete"}, checker.calls)
}

func TestRequirePermission_EquivalentToSliceForm(t *testing.T) {
	checker := &countingChecker{granted: map[identity.Permission]bool{"invoices.view": true}}
	svc := MustNew(Definition{
		Name:        "InvoiceService",
		Errors:      []error{},
		Permissions: checker,
	})
	user := &identity.User{ID: "u1", ProfileID: "standard"}
	ctx := context.Background()

	single := svc.RequirePermission(ctx, user, "invoices.view", nil)
	slice := svc.RequirePermissions(ctx, user, []identity.Permission{"invoices.view"}, nil)
	assert.Equal(t, single, slice)

	single = svc.RequirePermission(ctx, user, "invoices.delete", nil)
	slice = svc.RequirePermissions(ctx, user, []identity.Permission{"invoices.delete"}, nil)
	require.Error(t, single)
	require.Error(t, slice)
	assert.Equal(t, single.Error(), slice.Error())
}

func TestRequirePermissions_AnonymousUserFailsBeforeChecker(t *testing.T) {
	checker := &countingChecker{granted: map[identity.Permission]bool{"invoices.view": true}}
	svc := MustNew(Definition{
		Name:        "InvoiceService",
		Errors:      []error{},
		Permissions: checker,
	})

	err := svc.RequirePermissions(context.Background(), &identity.User{Anonymous: true},
		[]identity.Permission{"invoices.view"}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsPermission(err))
	assert.Empty(t, checker.calls)
}

func TestRequirePermissions_ObjectScopePassedThrough(t *testing.T) {
	type invoice struct{ ID int64 }
	target := &invoice{ID: 42}

	var seenObj any
	checker := identity.CheckerFunc(func(ctx context.Context, user *identity.User, perm identity.Permission, obj any) bool {
		seenObj = obj
		return true
	})
	svc := MustNew(Definition{
		Name:        "InvoiceService",
		Errors:      []error{},
		Permissions: checker,
	})

	user := &identity.User{ID: "u1", ProfileID: "standard"}
	err := svc.RequirePermission(context.Background(), user, "invoices.view", target)
	assert.NoError(t, err)
	assert.Same(t, target, seenObj)
}

func TestNew_DefaultCheckerDeniesAll(t *testing.T) {
	svc := MustNew(Definition{Name: "InvoiceService", Errors: []error{}})
	user := &identity.User{ID: "u1", ProfileID: "standard"}

	err := svc.RequirePermission(context.Background(), user, "invoices.view", nil)
	require.Error(t, err)
	assert.True(t, errors.IsPermission(err))
}

func TestSetTranslator(t *testing.T) {
	SetTranslator(func(message string) string {
		if message == "You are not logged in." {
			return "Du bist nicht eingeloggt."
		}
		return message
	})
	defer SetTranslator(nil)

	svc := MustNew(Definition{Name: "InvoiceService", Errors: []error{}})
	err := svc.RequireSignedIn(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Du bist nicht eingeloggt.")
}
