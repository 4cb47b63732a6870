package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentrie-sh/aspen/value"
)

func obj(entries ...value.ObjectEntry) value.Value {
	return value.NewObject(entries, value.NewMetadata())
}

func text(s string) value.Value  { return value.NewText(s, value.NewMetadata()) }
func number(n int64) value.Value { return value.NewNumberFromInt64(n, value.NewMetadata()) }

func TestCompileRejectsNonObjectSchema(t *testing.T) {
	_, err := Compile(text("not an object"))
	require.Error(t, err)
}

func TestCompileAndValidateObjectSchema(t *testing.T) {
	schemaLiteral := obj(
		value.ObjectEntry{Key: "type", Value: text("object")},
		value.ObjectEntry{Key: "required", Value: value.NewArrayUnfiltered(
			[]value.Value{text("name")}, value.NewMetadata())},
		value.ObjectEntry{Key: "properties", Value: obj(
			value.ObjectEntry{Key: "name", Value: obj(
				value.ObjectEntry{Key: "type", Value: text("string")},
			)},
		)},
	)

	predicate, err := Compile(schemaLiteral)
	require.NoError(t, err)

	conforming := obj(value.ObjectEntry{Key: "name", Value: text("alice")})
	require.True(t, predicate.Validate(conforming))

	missingField := obj(value.ObjectEntry{Key: "age", Value: number(30)})
	require.False(t, predicate.Validate(missingField))

	wrongType := obj(value.ObjectEntry{Key: "name", Value: number(1)})
	require.False(t, predicate.Validate(wrongType))
}

func TestCompileRejectsMalformedSchema(t *testing.T) {
	schemaLiteral := obj(
		value.ObjectEntry{Key: "type", Value: text("not-a-real-json-schema-type")},
	)
	_, err := Compile(schemaLiteral)
	require.Error(t, err)
}

func TestValidateDropsMetadataBeforeChecking(t *testing.T) {
	schemaLiteral := obj(
		value.ObjectEntry{Key: "type", Value: text("string")},
	)
	predicate, err := Compile(schemaLiteral)
	require.NoError(t, err)

	secretText := value.NewText("sensitive", value.Metadata{Secret: true})
	require.True(t, predicate.Validate(secretText))
}
