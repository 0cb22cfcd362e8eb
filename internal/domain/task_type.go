package domain

import "errors"

// ParamKind identifies how a task parameter is rendered and interpreted.
// The set is closed; anything rendering or validating a parameter should
// switch over it exhaustively.
type ParamKind string

// Possible parameter kinds
const (
	ParamKindString         ParamKind = "string"
	ParamKindNumber         ParamKind = "number"
	ParamKindDate           ParamKind = "date"
	ParamKindSelect         ParamKind = "select"
	ParamKindBoolean        ParamKind = "boolean"
	ParamKindExternalLookup ParamKind = "external-lookup"
)

// Common validation errors for TaskTypeConfig
var (
	ErrEmptyTypeName  = errors.New("task type name cannot be empty")
	ErrEmptyParamKey  = errors.New("parameter key cannot be empty")
	ErrInvalidKind    = errors.New("invalid parameter kind")
	ErrMissingOptions = errors.New("select parameter requires options")
)

// SelectOption is one choice of a select parameter.
type SelectOption struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// ParamSpec describes one parameter a task type accepts.
type ParamSpec struct {
	Key         string         `json:"key"`
	Name        string         `json:"name"`
	Kind        ParamKind      `json:"kind"`
	Required    bool           `json:"required"`
	Default     any            `json:"default,omitempty"`
	Description string         `json:"description,omitempty"`
	Options     []SelectOption `json:"options,omitempty"`
}

// Validate checks if the ParamSpec has valid data.
func (p ParamSpec) Validate() error {
	if p.Key == "" {
		return ErrEmptyParamKey
	}

	switch p.Kind {
	case ParamKindString, ParamKindNumber, ParamKindDate,
		ParamKindBoolean, ParamKindExternalLookup:
		return nil
	case ParamKindSelect:
		if len(p.Options) == 0 {
			return ErrMissingOptions
		}
		return nil
	default:
		return ErrInvalidKind
	}
}

// TaskTypeConfig is the static description of a registered task type.
// It is registered once per process lifetime and never mutated afterwards.
type TaskTypeConfig struct {
	TypeName        string      `json:"type_name"`
	DisplayName     string      `json:"display_name"`
	Description     string      `json:"description"`
	DefaultTimeout  int         `json:"default_timeout"`
	DefaultPriority int         `json:"default_priority"`
	Params          []ParamSpec `json:"params,omitempty"`
}

// Validate checks if the TaskTypeConfig and all its parameter specs are valid.
func (c TaskTypeConfig) Validate() error {
	if c.TypeName == "" {
		return ErrEmptyTypeName
	}

	for _, p := range c.Params {
		if err := p.Validate(); err != nil {
			return err
		}
	}

	return nil
}
