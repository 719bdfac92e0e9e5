package topics

import (
	"fmt"
	"regexp"
	"strings"
)

// frameworkPrefix is reserved for topics the bus itself publishes.
const frameworkPrefix = "bus."

// namePattern enforces the naming convention: lowercase alphanumeric
// segments joined by dots, e.g. "chat.message.new".
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(\.[a-z][a-z0-9]*)*$`)

// Validator checks topic declarations against the naming convention.
type Validator struct{}

// NewValidator returns a topic declaration validator.
func NewValidator() *Validator { return &Validator{} }

// ValidateName checks that a topic name follows the convention, without
// scope rules.
func (v *Validator) ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) > 100 {
		return fmt.Errorf("name too long (max 100 characters)")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name must be lowercase dot-separated segments (e.g. chat.message.new)")
	}
	return nil
}

// Validate checks a full topic declaration, including scope rules: the
// "bus." prefix is reserved for framework topics, and module topics must
// name their owning module.
func (v *Validator) Validate(t Topic) error {
	if err := v.ValidateName(t.Name); err != nil {
		return fmt.Errorf("invalid topic name: %w", err)
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("topic description cannot be empty")
	}
	switch t.Scope {
	case ScopeFramework:
		if t.Module != "" {
			return fmt.Errorf("framework topics must not name a module")
		}
		if !strings.HasPrefix(t.Name, frameworkPrefix) {
			return fmt.Errorf("framework topics must use the %q prefix", frameworkPrefix)
		}
	case ScopeModule:
		if strings.TrimSpace(t.Module) == "" {
			return fmt.Errorf("module topics must name their owning module")
		}
		if strings.HasPrefix(t.Name, frameworkPrefix) {
			return fmt.Errorf("the %q prefix is reserved for framework topics", frameworkPrefix)
		}
	default:
		return fmt.Errorf("invalid scope: %q", t.Scope)
	}
	return nil
}
