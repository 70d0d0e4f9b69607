package model

import (
	"encoding/json"

	"github.com/valstore/valstore/typed"
)

// Interface-typed variant fields cannot be decoded by encoding/json
// directly; these hooks route them through the typed codec so the wire
// shape round-trips the same way the storage boundary does.

// UnmarshalJSON resolves Body through the constraint registry.
func (c *Constraint) UnmarshalJSON(data []byte) error {
	type plain Constraint
	aux := struct {
		Body map[string]interface{} `json:"typedConstraint"`
		*plain
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Body == nil {
		c.Body = nil
		return nil
	}
	body, err := typed.DecodeConstraint(aux.Body)
	if err != nil {
		return err
	}
	c.Body = body
	return nil
}

// UnmarshalJSON resolves Schema through the schema registry.
func (d *DataResource) UnmarshalJSON(data []byte) error {
	type plain DataResource
	aux := struct {
		Schema map[string]interface{} `json:"schema"`
		*plain
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Schema == nil {
		d.Schema = nil
		return nil
	}
	schema, err := typed.DecodeSchema(aux.Schema)
	if err != nil {
		return err
	}
	d.Schema = schema
	return nil
}

// UnmarshalJSON resolves Errors through the error registry.
func (r *RunValidationReport) UnmarshalJSON(data []byte) error {
	type plain RunValidationReport
	aux := struct {
		Errors []map[string]interface{} `json:"errors"`
		*plain
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	errs, err := typed.DecodeErrorList(aux.Errors)
	if err != nil {
		return err
	}
	r.Errors = errs
	return nil
}

// UnmarshalJSON resolves Schema through the schema registry.
func (d *RunDataSchema) UnmarshalJSON(data []byte) error {
	type plain RunDataSchema
	aux := struct {
		Schema map[string]interface{} `json:"schema"`
		*plain
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Schema == nil {
		d.Schema = nil
		return nil
	}
	schema, err := typed.DecodeSchema(aux.Schema)
	if err != nil {
		return err
	}
	d.Schema = schema
	return nil
}
