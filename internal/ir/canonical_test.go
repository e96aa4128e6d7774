package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalEvidence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty input", "", "{}"},
		{"whitespace input", "  \n", "{}"},
		{"sorted keys", `{"zebra":1,"apple":2,"mango":3}`, `{"apple":2,"mango":3,"zebra":1}`},
		{"nested", `{"b":{"d":[1,2],"c":true},"a":null}`, `{"a":null,"b":{"c":true,"d":[1,2]}}`},
		{"no html escaping", `{"q":"<a&b>"}`, `{"q":"<a&b>"}`},
		{"nfc normalized", "{\"k\":\"e\u0301\"}", "{\"k\":\"\u00e9\"}"},
		{"control chars escaped", `{"k":"a\nb\u0001"}`, `{"k":"a\nb\u0001"}`},
		{"whitespace removed", "{ \"a\" : [ 1 , 2 ] }", `{"a":[1,2]}`},
		{"large integer kept", `{"n":9007199254740993}`, `{"n":9007199254740993}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalEvidence([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestCanonicalEvidence_UTF16KeyOrder(t *testing.T) {
	// U+FF61 sorts after U+1F600 in UTF-8 byte order but before it in
	// UTF-16 code units (0xFF61 > 0xD83D surrogate).
	got, err := CanonicalEvidence([]byte("{\"｡\":1,\"\U0001F600\":2}"))
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"｡\":1}", string(got))
}

func TestCanonicalEvidence_Errors(t *testing.T) {
	for name, in := range map[string]string{
		"float":         `{"x":1.5}`,
		"invalid json":  `{"x":`,
		"trailing data": `{} {}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := CanonicalEvidence([]byte(in))
			assert.Error(t, err)
		})
	}
}

func TestCanonicalEvidence_Idempotent(t *testing.T) {
	first, err := CanonicalEvidence([]byte(`{"b":[{"y":1,"x":2}],"a":"s"}`))
	require.NoError(t, err)

	second, err := CanonicalEvidence(first)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}
