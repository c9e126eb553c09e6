package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"sorted keys", map[string]any{"b": 1, "a": true, "c": "x"}, `{"a":true,"b":1,"c":"x"}`},
		{"nested", []any{map[string]any{"z": []any{}, "y": int64(-3)}}, `[{"y":-3,"z":[]}]`},
		{"no html escaping", "<a&b>", `"<a&b>"`},
		{"control characters", "a\tb\x01", `"a\tb\u0001"`},
		{"quote and backslash", `"\`, `"\"\\"`},
		{"nfc", "e\u0301", "\"\u00e9\""},
		{"line separator kept literal", "a\u2028b", "\"a\u2028b\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	for _, v := range []any{nil, 1.5, map[string]any{"k": nil}, struct{}{}} {
		_, err := MarshalCanonical(v)
		assert.Error(t, err, "%#v", v)
	}
}

func TestMarshalCanonical_UTF16KeyOrder(t *testing.T) {
	// U+FF61 sorts before U+1F600 by code point but after it by UTF-16
	// code unit, since the emoji encodes as a surrogate pair.
	got, err := MarshalCanonical(map[string]any{"\U0001F600": 1, "｡": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":1,\"｡\":2}", string(got))
}
