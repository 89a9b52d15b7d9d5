// Package validator provides a pluggable registry of named field
// validators consumed by form definitions.
package validator

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"sync"
)

// Func is the signature for validator functions. It takes the field value
// and optional configuration and returns an error if validation fails.
// Validators treat empty values as valid; required-ness is checked by the
// form, not here.
type Func func(value interface{}, config map[string]interface{}) error

// Registry holds registered validators
type Registry struct {
	validators map[string]Func
	mu         sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// Default returns the singleton validator registry with builtins loaded
func Default() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with all built-in validators registered
func NewRegistry() *Registry {
	r := &Registry{validators: make(map[string]Func)}
	r.registerBuiltins()
	return r
}

// Register adds a validator to the registry
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[name] = fn
}

// Get returns a validator by name
func (r *Registry) Get(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.validators[name]
	return fn, ok
}

// Validate runs a named validator
func (r *Registry) Validate(name string, value interface{}, config map[string]interface{}) error {
	fn, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("validator '%s' not found", name)
	}
	return fn(value, config)
}

// List returns all registered validator names
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.validators))
	for name := range r.validators {
		names = append(names, name)
	}
	return names
}

func (r *Registry) registerBuiltins() {
	r.Register("email", func(value interface{}, config map[string]interface{}) error {
		str, ok := value.(string)
		if !ok || str == "" {
			return nil
		}
		if _, err := mail.ParseAddress(str); err != nil {
			return fmt.Errorf("invalid email format")
		}
		return nil
	})

	r.Register("url", func(value interface{}, config map[string]interface{}) error {
		str, ok := value.(string)
		if !ok || str == "" {
			return nil
		}
		if !strings.HasPrefix(str, "http://") && !strings.HasPrefix(str, "https://") {
			return fmt.Errorf("URL must start with http:// or https://")
		}
		return nil
	})

	r.Register("regex", func(value interface{}, config map[string]interface{}) error {
		str, ok := value.(string)
		if !ok || str == "" {
			return nil
		}
		pattern, _ := config["pattern"].(string)
		if pattern == "" {
			return nil
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %v", err)
		}
		if !re.MatchString(str) {
			if msg, ok := config["message"].(string); ok && msg != "" {
				return fmt.Errorf("%s", msg)
			}
			return fmt.Errorf("value does not match required pattern")
		}
		return nil
	})

	r.Register("length", func(value interface{}, config map[string]interface{}) error {
		str, ok := value.(string)
		if !ok {
			return nil
		}
		length := len(str)
		if min, ok := toFloat(config["min"]); ok && length < int(min) {
			return fmt.Errorf("must be at least %d characters", int(min))
		}
		if max, ok := toFloat(config["max"]); ok && length > int(max) {
			return fmt.Errorf("must be at most %d characters", int(max))
		}
		return nil
	})

	r.Register("range", func(value interface{}, config map[string]interface{}) error {
		num, ok := toFloat(value)
		if !ok {
			return nil
		}
		if min, ok := toFloat(config["min"]); ok && num < min {
			return fmt.Errorf("must be at least %.2f", min)
		}
		if max, ok := toFloat(config["max"]); ok && num > max {
			return fmt.Errorf("must be at most %.2f", max)
		}
		return nil
	})

	r.Register("choice", func(value interface{}, config map[string]interface{}) error {
		str, ok := value.(string)
		if !ok || str == "" {
			return nil
		}
		choices, _ := config["choices"].([]string)
		if choices == nil {
			if raw, ok := config["choices"].([]interface{}); ok {
				for _, c := range raw {
					if s, ok := c.(string); ok {
						choices = append(choices, s)
					}
				}
			}
		}
		for _, c := range choices {
			if c == str {
				return nil
			}
		}
		return fmt.Errorf("must be one of: %s", strings.Join(choices, ", "))
	})

	r.Register("alphanumeric", func(value interface{}, config map[string]interface{}) error {
		str, ok := value.(string)
		if !ok || str == "" {
			return nil
		}
		matched, _ := regexp.MatchString(`^[a-zA-Z0-9]+$`, str)
		if !matched {
			return fmt.Errorf("must contain only letters and numbers")
		}
		return nil
	})
}

// toFloat widens the numeric types that show up in decoded JSON and plain
// Go literals alike
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Package-level convenience functions

// Register adds a validator to the default registry
func Register(name string, fn Func) {
	Default().Register(name, fn)
}

// Validate runs a named validator using the default registry
func Validate(name string, value interface{}, config map[string]interface{}) error {
	return Default().Validate(name, value, config)
}
