package typed

import (
	"github.com/valstore/valstore/errors"
)

// Error is a typed validation error recorded inside a validation report.
// Every variant carries a back-reference to the constraint that produced
// it, a machine code and a human note.
type Error interface {
	Typed
	isError()
}

// ErrorMeta holds the fields shared by every error variant.
type ErrorMeta struct {
	Type         string `json:"type"`
	ConstraintID string `json:"constraintId,omitempty"`
	Code         string `json:"code,omitempty"`
	Note         string `json:"note,omitempty"`
}

// FrictionlessError is an error reported by the frictionless validator.
type FrictionlessError struct {
	ErrorMeta
	FieldName   string `json:"fieldName,omitempty"`
	RowNumber   int    `json:"rowNumber,omitempty"`
	Description string `json:"description,omitempty"`
}

func (e *FrictionlessError) TypeLabel() string { return TypeFrictionless }
func (e *FrictionlessError) isError()          {}

// DuckDBError is an error reported by the duckdb validator.
type DuckDBError struct {
	ErrorMeta
	Description string `json:"description,omitempty"`
}

func (e *DuckDBError) TypeLabel() string { return TypeDuckDB }
func (e *DuckDBError) isError()          {}

type errorDecoder func(map[string]interface{}) (Error, error)

var errorRegistry = map[string]errorDecoder{}

// RegisterError adds a decoder for an error discriminator value.
// Call during startup; not safe for concurrent use with DecodeError.
func RegisterError(kind string, decode errorDecoder) {
	errorRegistry[kind] = decode
}

func init() {
	RegisterError(TypeFrictionless, func(m map[string]interface{}) (Error, error) {
		var e FrictionlessError
		if err := remarshal(m, &e); err != nil {
			return nil, err
		}
		e.ErrorMeta.Type = TypeFrictionless
		return &e, nil
	})
	RegisterError(TypeDuckDB, func(m map[string]interface{}) (Error, error) {
		var e DuckDBError
		if err := remarshal(m, &e); err != nil {
			return nil, err
		}
		e.ErrorMeta.Type = TypeDuckDB
		return &e, nil
	})
}

// DecodeError resolves the generic map form of a validation error into its
// concrete variant.
func DecodeError(m map[string]interface{}) (Error, error) {
	kind, err := discriminator(m)
	if err != nil {
		return nil, err
	}

	decode, ok := errorRegistry[kind]
	if !ok {
		return nil, errors.NewInvalidVariant("unknown error type %q", kind)
	}

	return decode(m)
}

// DecodeErrorList decodes a slice of generic maps, failing on the first
// invalid entry.
func DecodeErrorList(raw []map[string]interface{}) ([]Error, error) {
	if raw == nil {
		return nil, nil
	}

	out := make([]Error, 0, len(raw))
	for _, m := range raw {
		e, err := DecodeError(m)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
