// Package typed implements the discriminated-union document model for
// constraints, validation errors and data schemas.
//
// Every typed document serializes as a flat JSON object carrying a "type"
// string field; the concrete shape is resolved from that field at decode
// time through a per-family registry. Registering a new kind is done at
// startup via the Register* functions and requires no changes at call
// sites.
package typed

import (
	"encoding/json"

	"github.com/valstore/valstore/errors"
)

// Discriminator values shared across families.
const (
	TypeFrictionless = "frictionless"
	TypeDuckDB       = "duckdb"
	TypeTable        = "table"
)

// Typed is implemented by every variant in every family.
type Typed interface {
	// TypeLabel returns the discriminator value identifying the variant.
	TypeLabel() string
}

// Encode serializes a typed instance into its generic map form. The
// discriminator is always present in the result, flattened at the top
// level with the variant's own fields.
func Encode(v Typed) (map[string]interface{}, error) {
	if v == nil {
		return nil, errors.NewInvalidVariant("cannot encode nil variant")
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal variant")
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrap(err, "failed to build generic form")
	}

	m["type"] = v.TypeLabel()
	return m, nil
}

// discriminator extracts and validates the "type" field of a generic map.
func discriminator(m map[string]interface{}) (string, error) {
	raw, ok := m["type"]
	if !ok || raw == nil {
		return "", errors.NewInvalidVariant("discriminator field 'type' is missing or null")
	}

	s, ok := raw.(string)
	if !ok || s == "" {
		return "", errors.NewInvalidVariant("discriminator field 'type' must be a non-empty string")
	}

	return s, nil
}

// remarshal maps the generic form onto a concrete variant struct.
// Unknown fields are ignored, consistently across all families.
func remarshal(m map[string]interface{}, out interface{}) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "failed to re-marshal generic form")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, "failed to map fields onto variant")
	}
	return nil
}
