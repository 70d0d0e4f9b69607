package typed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valstore/valstore/errors"
)

func TestDecodeConstraintFrictionless(t *testing.T) {
	m := map[string]interface{}{
		"type":       "frictionless",
		"field":      "age",
		"fieldType":  "integer",
		"constraint": "minimum",
		"value":      "18",
	}

	c, err := DecodeConstraint(m)
	require.NoError(t, err)

	fc, ok := c.(*FrictionlessConstraint)
	require.True(t, ok)
	assert.Equal(t, "age", fc.Field)
	assert.Equal(t, FieldInteger, fc.FieldType)
	assert.Equal(t, ConstraintMinimum, fc.Constraint)
	assert.Equal(t, "18", fc.Value)
	assert.Equal(t, TypeFrictionless, fc.TypeLabel())
}

func TestDecodeConstraintCaseInsensitiveDiscriminator(t *testing.T) {
	c, err := DecodeConstraint(map[string]interface{}{"type": "Frictionless", "field": "id"})
	require.NoError(t, err)
	assert.Equal(t, TypeFrictionless, c.TypeLabel())
}

func TestDecodeConstraintDuckDBDefaultsCheck(t *testing.T) {
	m := map[string]interface{}{
		"type":   "duckdb",
		"query":  "SELECT count(*) FROM t WHERE amount < 0",
		"expect": "empty",
	}

	c, err := DecodeConstraint(m)
	require.NoError(t, err)

	dc, ok := c.(*DuckDBConstraint)
	require.True(t, ok)
	assert.Equal(t, CheckRows, dc.Check, "absent check must default to rows")
}

func TestDecodeErrorVariants(t *testing.T) {
	fe, err := DecodeError(map[string]interface{}{
		"type":         "frictionless",
		"constraintId": "c1",
		"code":         "type-error",
		"note":         "value is not an integer",
		"fieldName":    "age",
		"rowNumber":    float64(7),
	})
	require.NoError(t, err)
	f, ok := fe.(*FrictionlessError)
	require.True(t, ok)
	assert.Equal(t, "c1", f.ConstraintID)
	assert.Equal(t, 7, f.RowNumber)

	de, err := DecodeError(map[string]interface{}{
		"type":        "duckdb",
		"description": "query returned 3 rows",
	})
	require.NoError(t, err)
	_, ok = de.(*DuckDBError)
	require.True(t, ok)
}

func TestDecodeSchemaPreservesColumnOrder(t *testing.T) {
	m := map[string]interface{}{
		"type": "table",
		"fields": []interface{}{
			map[string]interface{}{"name": "id", "type": "integer"},
			map[string]interface{}{"name": "name", "type": "string"},
			map[string]interface{}{"name": "born", "type": "date"},
		},
	}

	s, err := DecodeSchema(m)
	require.NoError(t, err)

	ts, ok := s.(*TableSchema)
	require.True(t, ok)
	require.Len(t, ts.Fields, 3)
	assert.Equal(t, "id", ts.Fields[0].Name)
	assert.Equal(t, "name", ts.Fields[1].Name)
	assert.Equal(t, "born", ts.Fields[2].Name)
}

func TestDiscriminatorRejection(t *testing.T) {
	bad := []map[string]interface{}{
		{},                          // absent
		{"type": nil},               // null
		{"type": 42},                // not a string
		{"type": ""},                // empty
		{"type": "greatexpectations"}, // unregistered
	}

	for _, m := range bad {
		_, err := DecodeConstraint(m)
		assert.True(t, errors.IsInvalidVariant(err), "constraint decode of %v", m)

		_, err = DecodeError(m)
		assert.True(t, errors.IsInvalidVariant(err), "error decode of %v", m)

		_, err = DecodeSchema(m)
		assert.True(t, errors.IsInvalidVariant(err), "schema decode of %v", m)
	}
}

func TestConstraintRoundTrip(t *testing.T) {
	variants := []Constraint{
		&FrictionlessConstraint{
			Type:       TypeFrictionless,
			Field:      "email",
			FieldType:  FieldString,
			Constraint: ConstraintPattern,
			Value:      "^.+@.+$",
		},
		&DuckDBConstraint{
			Type:   TypeDuckDB,
			Query:  "SELECT max(amount) FROM orders",
			Expect: ExpectMaximum,
			Value:  "10000",
			Check:  CheckValue,
		},
	}

	for _, v := range variants {
		m, err := Encode(v)
		require.NoError(t, err)
		assert.Equal(t, v.TypeLabel(), m["type"], "discriminator must survive encoding")

		back, err := DecodeConstraint(m)
		require.NoError(t, err)
		assert.Equal(t, v, back)
	}
}

func TestErrorRoundTrip(t *testing.T) {
	variants := []Error{
		&FrictionlessError{
			ErrorMeta:   ErrorMeta{Type: TypeFrictionless, ConstraintID: "c1", Code: "required", Note: "missing"},
			FieldName:   "id",
			RowNumber:   3,
			Description: "row 3 has no id",
		},
		&DuckDBError{
			ErrorMeta:   ErrorMeta{Type: TypeDuckDB, ConstraintID: "c2", Code: "non-empty", Note: "unexpected rows"},
			Description: "2 rows returned",
		},
	}

	for _, v := range variants {
		m, err := Encode(v)
		require.NoError(t, err)

		back, err := DecodeError(m)
		require.NoError(t, err)
		assert.Equal(t, v, back)
	}
}

func TestSchemaRoundTrip(t *testing.T) {
	v := &TableSchema{
		Type: TypeTable,
		Fields: []ColumnField{
			{Name: "id", Type: FieldInteger},
			{Name: "label", Type: FieldString},
		},
	}

	m, err := Encode(v)
	require.NoError(t, err)

	back, err := DecodeSchema(m)
	require.NoError(t, err)
	assert.Equal(t, v, back)
}

func TestEncodeNil(t *testing.T) {
	_, err := Encode(nil)
	assert.True(t, errors.IsInvalidVariant(err))
}

func TestRegistryExtension(t *testing.T) {
	RegisterSchema("avro", func(m map[string]interface{}) (Schema, error) {
		var s TableSchema
		if err := remarshal(m, &s); err != nil {
			return nil, err
		}
		s.Type = "avro"
		return &s, nil
	})
	defer delete(schemaRegistry, "avro")

	s, err := DecodeSchema(map[string]interface{}{"type": "avro"})
	require.NoError(t, err)
	assert.Equal(t, "avro", s.(*TableSchema).Type)
}
