package value

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalJSONScalars(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want string
	}{
		{"null", NewNull(NewMetadata()), "null"},
		{"undefined", NewUndefined(NewMetadata()), "null"},
		{"true", NewBoolean(true, NewMetadata()), "true"},
		{"text", NewText("alice", NewMetadata()), `"alice"`},
		{"number", NewNumberFromInt64(42, NewMetadata()), "42"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := json.Marshal(tc.v)
			require.NoError(t, err)
			require.JSONEq(t, tc.want, string(out))
		})
	}
}

func TestMarshalJSONArrayPreservesOrder(t *testing.T) {
	arr := NewArray([]Value{
		NewNumberFromInt64(1, NewMetadata()),
		NewNumberFromInt64(2, NewMetadata()),
		NewText("three", NewMetadata()),
	}, NewMetadata())

	out, err := json.Marshal(arr)
	require.NoError(t, err)
	require.JSONEq(t, `[1, 2, "three"]`, string(out))
}

func TestMarshalJSONObject(t *testing.T) {
	obj := NewObject([]ObjectEntry{
		{Key: "action", Value: NewText("read", NewMetadata())},
		{Key: "count", Value: NewNumberFromInt64(3, NewMetadata())},
	}, NewMetadata())

	out, err := json.Marshal(obj)
	require.NoError(t, err)
	require.JSONEq(t, `{"action": "read", "count": 3}`, string(out))
}

func TestMarshalJSONErrorCarriesMessage(t *testing.T) {
	out, err := json.Marshal(NewError("division by zero", NewMetadata()))
	require.NoError(t, err)
	require.JSONEq(t, `{"error": "division by zero"}`, string(out))
}

func TestMarshalJSONOmitsMetadata(t *testing.T) {
	secret := NewText("s3cr3t", Metadata{Secret: true})
	out, err := json.Marshal(secret)
	require.NoError(t, err)
	require.JSONEq(t, `"s3cr3t"`, string(out))
}
