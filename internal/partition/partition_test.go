package partition

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		want []Pair
	}{
		{"", []Pair{}},
		{"ctx:1", []Pair{{"ctx", "1"}}},
		{"context(channel:web)", []Pair{{"channel", "web"}}},
		{
			"context(device:mobile).context(channel:web)",
			[]Pair{{"channel", "web"}, {"device", "mobile"}},
		},
		{"context(channel:web.eu).region:north", []Pair{{"channel", "web.eu"}, {"region", "north"}}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			k, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.raw, k.Raw)
			assert.Equal(t, tt.want, k.Pairs)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, raw := range []string{
		"channel",
		"context(channel:web",
		"context(channel:web))",
		"(channel:web)",
		":web",
		"channel:",
		"a:1..b:2",
		"a:1.a:2",
		"context(channel)",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := Parse(raw)
			assert.Error(t, err)
		})
	}
}

func TestKey_DimensionsAndValue(t *testing.T) {
	k, err := Parse("context(device:mobile).context(channel:web)")
	require.NoError(t, err)

	assert.True(t, k.Dimensions().Equal(NewDimensionSet("channel", "device")))

	v, ok := k.Value("device")
	assert.True(t, ok)
	assert.Equal(t, "mobile", v)

	_, ok = k.Value("region")
	assert.False(t, ok)
}

func TestDimensionSet_Algebra(t *testing.T) {
	empty := NewDimensionSet()
	ch := NewDimensionSet("channel")
	chDev := NewDimensionSet("device", "channel", "channel", " ")

	assert.Equal(t, 2, chDev.Len())
	assert.Equal(t, []string{"channel", "device"}, chDev.Names())
	assert.True(t, empty.IsEmpty())
	assert.True(t, empty.Equal(DimensionSet{}))

	assert.True(t, empty.IsSubsetOf(ch))
	assert.True(t, ch.IsSubsetOf(chDev))
	assert.False(t, chDev.IsSubsetOf(ch))
	assert.True(t, chDev.IsSupersetOf(ch))

	assert.True(t, chDev.Minus(ch).Equal(NewDimensionSet("device")))
	assert.True(t, ch.Minus(chDev).IsEmpty())

	assert.Equal(t, "{}", empty.String())
	assert.Equal(t, "{channel,device}", chDev.String())
}

func TestDimensionSet_NoSubstringMatching(t *testing.T) {
	s := NewDimensionSet("channel_group")
	assert.False(t, s.Contains("channel"))
	assert.False(t, NewDimensionSet("channel").IsSubsetOf(s))
}

func TestDimensionSet_Encoding(t *testing.T) {
	data, err := json.Marshal(NewDimensionSet("b", "a"))
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, string(data))

	data, err = json.Marshal(DimensionSet{})
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))

	var fromJSON DimensionSet
	require.NoError(t, json.Unmarshal([]byte(`["z","a","z"]`), &fromJSON))
	assert.Equal(t, []string{"a", "z"}, fromJSON.Names())

	var doc struct {
		Specified DimensionSet `yaml:"specified"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("specified: [device, channel]\n"), &doc))
	assert.Equal(t, "{channel,device}", doc.Specified.String())
}
