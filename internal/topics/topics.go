// Package topics is the documentation registry for bus topics: every
// declared topic carries a name, owning module, description, routing
// pattern and example payload so tooling (pan-cli) and humans can discover
// what travels on the bus. The registry holds documentation only; it plays
// no part in message routing.
package topics

import (
	"fmt"
	"time"
)

// Scope says whether a topic belongs to the framework or to a feature module.
type Scope string

const (
	// ScopeFramework marks topics reserved for the bus itself (the "bus."
	// prefix).
	ScopeFramework Scope = "framework"
	// ScopeModule marks topics owned by a feature module.
	ScopeModule Scope = "module"
)

// Config describes a topic being declared.
type Config struct {
	Name        string         `json:"name"`
	Module      string         `json:"module"`
	Description string         `json:"description"`
	Pattern     string         `json:"pattern"`
	Example     string         `json:"example"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Topic is a registered topic declaration.
type Topic struct {
	Name         string         `json:"name"`
	Module       string         `json:"module"`
	Scope        Scope          `json:"scope"`
	Description  string         `json:"description"`
	Pattern      string         `json:"pattern"`
	Example      string         `json:"example"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	RegisteredAt time.Time      `json:"registered_at"`
}

// DefineFramework declares a framework-scoped topic. Framework topics have
// no owning module.
func DefineFramework(cfg Config) Topic {
	return Topic{
		Name:        cfg.Name,
		Scope:       ScopeFramework,
		Description: cfg.Description,
		Pattern:     cfg.Pattern,
		Example:     cfg.Example,
		Metadata:    cfg.Metadata,
	}
}

// DefineModule declares a module-scoped topic.
func DefineModule(cfg Config) Topic {
	return Topic{
		Name:        cfg.Name,
		Module:      cfg.Module,
		Scope:       ScopeModule,
		Description: cfg.Description,
		Pattern:     cfg.Pattern,
		Example:     cfg.Example,
		Metadata:    cfg.Metadata,
	}
}

// Error is a structured topic-registry error.
type Error struct {
	Type    ErrorType
	Topic   string
	Message string
	Cause   error
}

// ErrorType classifies registry errors.
type ErrorType string

const (
	ErrorDuplicateRegistration ErrorType = "duplicate_registration"
	ErrorValidationFailed      ErrorType = "validation_failed"
	ErrorNotFound              ErrorType = "not_found"
)

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("topics: %s: %s: %v", e.Topic, e.Message, e.Cause)
	}
	return fmt.Sprintf("topics: %s: %s", e.Topic, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }
