package typed

import (
	"github.com/valstore/valstore/errors"
)

// Schema is a typed data schema inferred for a resource during a run.
type Schema interface {
	Typed
	isSchema()
}

// Field types for schema columns and frictionless constraints.
const (
	FieldString    = "string"
	FieldNumber    = "number"
	FieldInteger   = "integer"
	FieldBoolean   = "booleanType"
	FieldObject    = "object"
	FieldArray     = "array"
	FieldDate      = "date"
	FieldTime      = "time"
	FieldDatetime  = "datetime"
	FieldYear      = "year"
	FieldYearMonth = "yearmonth"
	FieldDuration  = "duration"
	FieldGeopoint  = "geopoint"
	FieldGeoJSON   = "geojson"
	FieldAny       = "any"
)

// ColumnField is one named, typed column of a table schema. Order is
// significant and preserved through the codec.
type ColumnField struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// TableSchema describes tabular data as an ordered list of columns.
type TableSchema struct {
	Type   string        `json:"type"`
	Fields []ColumnField `json:"fields,omitempty"`
}

func (s *TableSchema) TypeLabel() string { return TypeTable }
func (s *TableSchema) isSchema()         {}

type schemaDecoder func(map[string]interface{}) (Schema, error)

var schemaRegistry = map[string]schemaDecoder{}

// RegisterSchema adds a decoder for a schema discriminator value.
// Call during startup; not safe for concurrent use with DecodeSchema.
func RegisterSchema(kind string, decode schemaDecoder) {
	schemaRegistry[kind] = decode
}

func init() {
	RegisterSchema(TypeTable, func(m map[string]interface{}) (Schema, error) {
		var s TableSchema
		if err := remarshal(m, &s); err != nil {
			return nil, err
		}
		s.Type = TypeTable
		return &s, nil
	})
}

// DecodeSchema resolves the generic map form of a data schema into its
// concrete variant.
func DecodeSchema(m map[string]interface{}) (Schema, error) {
	kind, err := discriminator(m)
	if err != nil {
		return nil, err
	}

	decode, ok := schemaRegistry[kind]
	if !ok {
		return nil, errors.NewInvalidVariant("unknown schema type %q", kind)
	}

	return decode(m)
}
