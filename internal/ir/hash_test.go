package ir

import (
	"os"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type hashVectorFile struct {
	AlgoVersion string `yaml:"algo_version"`
	Vectors     []struct {
		Name      string `yaml:"name"`
		Signature string `yaml:"signature"`
		Address   string `yaml:"address"`
	} `yaml:"vectors"`
}

func loadHashVectors(t *testing.T) hashVectorFile {
	t.Helper()
	data, err := os.ReadFile("testdata/hash_vectors.yaml")
	require.NoError(t, err)

	var f hashVectorFile
	require.NoError(t, yaml.Unmarshal(data, &f))
	require.NotEmpty(t, f.Vectors)
	return f
}

// The vectors were produced by a separate implementation; Go must agree
// byte-for-byte.
func TestContentAddressOf_SharedVectors(t *testing.T) {
	f := loadHashVectors(t)
	assert.Equal(t, AlgoVersion, f.AlgoVersion)

	for _, v := range f.Vectors {
		t.Run(v.Name, func(t *testing.T) {
			addr, err := ContentAddressOf(CanonicalSignature(v.Signature))
			require.NoError(t, err)
			assert.Equal(t, ContentAddress(v.Address), addr)
		})
	}
}

func TestContentAddressOf_Golden(t *testing.T) {
	f := loadHashVectors(t)

	var b strings.Builder
	for _, v := range f.Vectors {
		b.WriteString(v.Name)
		b.WriteByte('\t')
		b.WriteString(string(MustContentAddress(CanonicalSignature(v.Signature))))
		b.WriteByte('\n')
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "addresses", []byte(b.String()))
}

func TestContentAddressOf_Deterministic(t *testing.T) {
	sig := CanonicalSignature(`{"c":"visited(a).to(b)"}`)

	first := MustContentAddress(sig)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, MustContentAddress(sig), "iteration %d", i)
	}
}

func TestContentAddressOf_Shape(t *testing.T) {
	addr := MustContentAddress("visited(a).to(b)")

	assert.Len(t, string(addr), 22, "128 bits in unpadded base64 is 22 characters")
	assert.NotContains(t, string(addr), "=")
	assert.NotContains(t, string(addr), "+")
	assert.NotContains(t, string(addr), "/")
}

func TestContentAddressOf_WhitespaceIsSignificant(t *testing.T) {
	a := MustContentAddress("visited(a).to(b)")
	b := MustContentAddress("visited(a).to(b) ")

	assert.NotEqual(t, a, b, "signature must be hashed exactly as supplied")
}

func TestContentAddressOf_RejectsEmpty(t *testing.T) {
	for _, sig := range []string{"", " ", "\t\n  "} {
		_, err := ContentAddressOf(CanonicalSignature(sig))
		require.Error(t, err, "signature %q", sig)
		assert.True(t, IsValidationError(err))
	}
}

func TestMustContentAddress_Panics(t *testing.T) {
	assert.Panics(t, func() { MustContentAddress("   ") })
}
