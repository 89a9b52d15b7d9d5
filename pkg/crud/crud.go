// Package crud is an optional extension for services that need generic
// create/retrieve/update/delete delegation to a persisted-entity store.
//
// A service attaches the extension once at registration time:
//
//	var ContactService = service.MustNew(service.Definition{
//		Name:   "ContactService",
//		Errors: []error{errors.ErrValidation, errors.ErrNotFound, errors.ErrInvalidID},
//	})
//
//	var Contacts = crud.MustAttach(ContactService, crud.Options{
//		Model:      contactsTable,
//		CreateForm: createContactForm,
//		UpdateForm: updateContactForm,
//	})
//
// The three options are validated up front, in a fixed order, so a
// half-wired resource fails at startup rather than on first use.
package crud

import (
	"context"
	"fmt"

	"github.com/serioese/servicekit/pkg/errors"
	"github.com/serioese/servicekit/pkg/service"
)

// Record is a field-name-to-value mapping for a persisted entity
type Record map[string]any

// Clone returns a shallow copy of the record
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

type notPassed struct{}

// NotPassed marks a field value as absent. Entries carrying it are
// stripped from data and file data before binding, so callers with
// optional parameters can always build the full map.
var NotPassed any = notPassed{}

// Model is the persisted-entity store a resource delegates to. Ids are
// integer primary keys. Get returns a NotFoundError for unknown ids.
type Model interface {
	// Name identifies the entity kind, used in error messages
	Name() string
	Get(ctx context.Context, id int64) (Record, error)
	Insert(ctx context.Context, rec Record) (Record, error)
	Update(ctx context.Context, id int64, rec Record) (Record, error)
	Delete(ctx context.Context, id int64) error
}

// BoundForm is a form bound to input data, ready to validate.
// Implementations must overlay file data over regular data, so a field
// present in both resolves to the file value.
type BoundForm interface {
	IsValid() bool
	Errors() map[string][]string
	CleanedData() Record
}

// Form validates and cleans partial field data for an entity. For updates
// the existing instance is passed so forms can validate against current
// state; for creates it is nil.
type Form interface {
	Bind(data, fileData, instance Record) BoundForm
}

// Options is the required configuration for attaching the extension
type Options struct {
	Model      Model
	CreateForm Form
	UpdateForm Form
}

// requiredOptions lists the option names in the order they are checked
var requiredOptions = []string{"model", "create_form", "update_form"}

func (o Options) check() error {
	present := map[string]bool{
		"model":       o.Model != nil,
		"create_form": o.CreateForm != nil,
		"update_form": o.UpdateForm != nil,
	}
	for _, name := range requiredOptions {
		if !present[name] {
			return errors.NewConfigError(
				fmt.Sprintf("%s has to be set in the class using the Mixin!", name))
		}
	}
	return nil
}

// Resource exposes the four generic operations for one entity kind
type Resource struct {
	svc        *service.Service
	model      Model
	createForm Form
	updateForm Form
}

// Attach validates the options and binds a Resource to the given service.
// It returns a ConfigError naming the first missing option.
func Attach(svc *service.Service, opts Options) (*Resource, error) {
	if svc == nil {
		return nil, errors.NewConfigError("the CRUD extension requires a registered service")
	}
	if err := opts.check(); err != nil {
		return nil, err
	}
	return &Resource{
		svc:        svc,
		model:      opts.Model,
		createForm: opts.CreateForm,
		updateForm: opts.UpdateForm,
	}, nil
}

// MustAttach is like Attach but panics on a ConfigError, for package scope
// wiring alongside service.MustNew.
func MustAttach(svc *service.Service, opts Options) *Resource {
	res, err := Attach(svc, opts)
	if err != nil {
		panic(err)
	}
	return res
}

// Service returns the service this resource is attached to
func (r *Resource) Service() *service.Service {
	return r.svc
}

// Create validates data/fileData through the create form and persists a
// new entity. On form failure it returns a ValidationError carrying the
// field error mapping and persists nothing.
func (r *Resource) Create(ctx context.Context, data, fileData Record) (Record, error) {
	bound := r.createForm.Bind(stripNotPassed(data), stripNotPassed(fileData), nil)
	if !bound.IsValid() {
		return nil, errors.NewValidationError(bound.Errors())
	}
	return r.model.Insert(ctx, bound.CleanedData())
}

// Retrieve returns the entity with the given id. The id must be an
// integer; unknown ids yield a NotFoundError.
func (r *Resource) Retrieve(ctx context.Context, id any) (Record, error) {
	n, err := CoerceID(id)
	if err != nil {
		return nil, err
	}
	return r.model.Get(ctx, n)
}

// Update merges data (and file data) over the entity's current field
// values, validates the result through the update form bound to the
// existing instance, and persists it. Merge order is current values,
// then data, then file data, so file data wins for overlapping fields
// while plain data overrides are never discarded.
func (r *Resource) Update(ctx context.Context, id any, data, fileData Record) (Record, error) {
	n, err := CoerceID(id)
	if err != nil {
		return nil, err
	}
	existing, err := r.model.Get(ctx, n)
	if err != nil {
		return nil, err
	}

	merged := existing.Clone()
	for k, v := range stripNotPassed(data) {
		merged[k] = v
	}

	bound := r.updateForm.Bind(merged, stripNotPassed(fileData), existing)
	if !bound.IsValid() {
		return nil, errors.NewValidationError(bound.Errors())
	}
	return r.model.Update(ctx, n, bound.CleanedData())
}

// Delete removes the entity with the given id and returns true. Deleting
// an unknown or already-deleted id is a NotFoundError, never a silent
// success, so double-deletes surface instead of being masked.
func (r *Resource) Delete(ctx context.Context, id any) (bool, error) {
	n, err := CoerceID(id)
	if err != nil {
		return false, err
	}
	if _, err := r.model.Get(ctx, n); err != nil {
		return false, err
	}
	if err := r.model.Delete(ctx, n); err != nil {
		return false, err
	}
	return true, nil
}

// CoerceID normalizes an id value to int64. Anything but an integer kind
// yields an InvalidIDError.
func CoerceID(id any) (int64, error) {
	switch v := id.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint:
		return int64(v), nil
	default:
		return 0, errors.NewInvalidIDError(id)
	}
}

func stripNotPassed(rec Record) Record {
	if rec == nil {
		return Record{}
	}
	out := make(Record, len(rec))
	for k, v := range rec {
		if v == NotPassed {
			continue
		}
		out[k] = v
	}
	return out
}
