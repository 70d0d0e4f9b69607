package typed

import (
	"strings"

	"github.com/valstore/valstore/errors"
)

// Constraint is a typed constraint body attached to a stored constraint
// document. The concrete shape depends on the validation library the
// constraint targets.
type Constraint interface {
	Typed
	isConstraint()
}

// Frictionless constraint kinds.
const (
	ConstraintRequired  = "required"
	ConstraintUnique    = "unique"
	ConstraintMinLength = "minLength"
	ConstraintMaxLength = "maxLength"
	ConstraintMinimum   = "minimum"
	ConstraintMaximum   = "maximum"
	ConstraintPattern   = "pattern"
	ConstraintEnumType  = "enumType"
	ConstraintType      = "type"
	ConstraintFormat    = "format"
)

// DuckDB expectation kinds.
const (
	ExpectEmpty    = "empty"
	ExpectNonEmpty = "non-empty"
	ExpectExact    = "exact"
	ExpectRange    = "range"
	ExpectMinimum  = "minimum"
	ExpectMaximum  = "maximum"
)

// DuckDB check targets.
const (
	CheckValue = "value"
	CheckRows  = "rows"
)

// FrictionlessConstraint checks a single field of a tabular resource
// against a frictionless table-schema constraint.
type FrictionlessConstraint struct {
	Type       string `json:"type"`
	Field      string `json:"field,omitempty"`
	FieldType  string `json:"fieldType,omitempty"`
	Constraint string `json:"constraint,omitempty"`
	Value      string `json:"value,omitempty"`
}

func (c *FrictionlessConstraint) TypeLabel() string { return TypeFrictionless }
func (c *FrictionlessConstraint) isConstraint()     {}

// DuckDBConstraint runs a SQL query against a snapshot and checks the
// result against an expectation.
type DuckDBConstraint struct {
	Type   string `json:"type"`
	Query  string `json:"query,omitempty"`
	Expect string `json:"expect,omitempty"`
	Value  string `json:"value,omitempty"`
	// Check selects whether the expectation applies to the result value
	// or to the number of rows. Defaults to rows when absent.
	Check string `json:"check,omitempty"`
}

func (c *DuckDBConstraint) TypeLabel() string { return TypeDuckDB }
func (c *DuckDBConstraint) isConstraint()     {}

type constraintDecoder func(map[string]interface{}) (Constraint, error)

var constraintRegistry = map[string]constraintDecoder{}

// RegisterConstraint adds a decoder for a constraint discriminator value.
// Call during startup; not safe for concurrent use with DecodeConstraint.
func RegisterConstraint(kind string, decode constraintDecoder) {
	constraintRegistry[strings.ToLower(kind)] = decode
}

func init() {
	RegisterConstraint(TypeFrictionless, func(m map[string]interface{}) (Constraint, error) {
		var c FrictionlessConstraint
		if err := remarshal(m, &c); err != nil {
			return nil, err
		}
		c.Type = TypeFrictionless
		return &c, nil
	})
	RegisterConstraint(TypeDuckDB, func(m map[string]interface{}) (Constraint, error) {
		var c DuckDBConstraint
		if err := remarshal(m, &c); err != nil {
			return nil, err
		}
		c.Type = TypeDuckDB
		if c.Check == "" {
			c.Check = CheckRows
		}
		return &c, nil
	})
}

// DecodeConstraint resolves the generic map form of a constraint body into
// its concrete variant. The discriminator is matched case-insensitively.
func DecodeConstraint(m map[string]interface{}) (Constraint, error) {
	kind, err := discriminator(m)
	if err != nil {
		return nil, err
	}

	decode, ok := constraintRegistry[strings.ToLower(kind)]
	if !ok {
		return nil, errors.NewInvalidVariant("unknown constraint type %q", kind)
	}

	return decode(m)
}
