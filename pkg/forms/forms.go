// Package forms provides declarative field validation for CRUD input:
// bind a data map (and optionally a file map and the existing instance),
// ask whether it is valid, and read either the cleaned data or the
// field-level error mapping.
//
// Field checks come from the validator registry; cross-field rules are
// expressions evaluated against the cleaned record.
package forms

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/serioese/servicekit/pkg/crud"
	"github.com/serioese/servicekit/pkg/validator"
)

// Check references a named validator in the registry with its config
type Check struct {
	Name   string
	Config map[string]interface{}
}

// Field declares one form field
type Field struct {
	Name     string
	Required bool
	// File marks fields whose values arrive via file data. During
	// binding, file data is overlaid last, so a file value wins over a
	// plain data value for the same field.
	File   bool
	Checks []Check
}

// Rule is a cross-field validation rule. Expr is evaluated against the
// cleaned record and must yield true for the record to be valid; the
// Message is reported on Field otherwise.
type Rule struct {
	Field   string
	Expr    string
	Message string
}

// Form is a reusable validator/constructor for entity field data.
// A Form is immutable after construction and safe for concurrent binds.
type Form struct {
	fields   []Field
	rules    []Rule
	registry *validator.Registry

	progMu    sync.RWMutex
	progCache map[string]*vm.Program
}

// New creates a Form from field declarations, using the default validator
// registry.
func New(fields []Field, rules ...Rule) *Form {
	return &Form{
		fields:    fields,
		rules:     rules,
		registry:  validator.Default(),
		progCache: make(map[string]*vm.Program),
	}
}

// WithRegistry returns the form configured to resolve checks against the
// given registry instead of the default one.
func (f *Form) WithRegistry(r *validator.Registry) *Form {
	f.registry = r
	return f
}

// Bind binds the form to input data. fileData values are overlaid over
// data for fields marked File. instance is the existing entity for
// updates, nil for creates; rules can reference it as `instance`.
func (f *Form) Bind(data, fileData, instance crud.Record) crud.BoundForm {
	return &Bound{form: f, data: data, fileData: fileData, instance: instance}
}

// Bound is a Form bound to one set of input data
type Bound struct {
	form     *Form
	data     crud.Record
	fileData crud.Record
	instance crud.Record

	once    sync.Once
	cleaned crud.Record
	errs    map[string][]string
}

// IsValid runs validation (once) and reports whether it passed
func (b *Bound) IsValid() bool {
	b.once.Do(b.validate)
	return len(b.errs) == 0
}

// Errors returns the field-to-messages mapping from validation
func (b *Bound) Errors() map[string][]string {
	b.once.Do(b.validate)
	return b.errs
}

// CleanedData returns the validated data restricted to declared fields
func (b *Bound) CleanedData() crud.Record {
	b.once.Do(b.validate)
	return b.cleaned
}

func (b *Bound) validate() {
	b.cleaned = make(crud.Record, len(b.form.fields))
	b.errs = make(map[string][]string)

	for _, field := range b.form.fields {
		value, present := b.data[field.Name]
		if field.File {
			if fv, ok := b.fileData[field.Name]; ok {
				value, present = fv, true
			}
		}

		if field.Required && (!present || value == nil || value == "") {
			b.errs[field.Name] = append(b.errs[field.Name], "is required")
			continue
		}
		if !present {
			continue
		}

		for _, check := range field.Checks {
			if err := b.form.registry.Validate(check.Name, value, check.Config); err != nil {
				b.errs[field.Name] = append(b.errs[field.Name], err.Error())
			}
		}
		b.cleaned[field.Name] = value
	}

	// Cross-field rules only run on structurally valid records
	if len(b.errs) > 0 {
		return
	}
	for _, rule := range b.form.rules {
		ok, err := b.form.evalRule(rule, b.cleaned, b.instance)
		if err != nil {
			b.errs[rule.Field] = append(b.errs[rule.Field], fmt.Sprintf("rule evaluation failed: %v", err))
			continue
		}
		if !ok {
			b.errs[rule.Field] = append(b.errs[rule.Field], rule.Message)
		}
	}
}

func (f *Form) evalRule(rule Rule, cleaned, instance crud.Record) (bool, error) {
	env := make(map[string]interface{}, len(cleaned)+1)
	for k, v := range cleaned {
		env[k] = v
	}
	if instance == nil {
		env["instance"] = nil
	} else {
		env["instance"] = map[string]interface{}(instance)
	}

	program, err := f.getProgram(rule.Expr, env)
	if err != nil {
		return false, err
	}
	output, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	ok, isBool := output.(bool)
	if !isBool {
		return false, fmt.Errorf("rule %q did not evaluate to a boolean", rule.Expr)
	}
	return ok, nil
}

func (f *Form) getProgram(expression string, env map[string]interface{}) (*vm.Program, error) {
	f.progMu.RLock()
	if prog, ok := f.progCache[expression]; ok {
		f.progMu.RUnlock()
		return prog, nil
	}
	f.progMu.RUnlock()

	f.progMu.Lock()
	defer f.progMu.Unlock()

	// Double check
	if prog, ok := f.progCache[expression]; ok {
		return prog, nil
	}

	prog, err := expr.Compile(expression, expr.Env(env), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	f.progCache[expression] = prog
	return prog, nil
}
