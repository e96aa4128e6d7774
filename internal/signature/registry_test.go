package signature

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/snapledger/internal/ir"
)

func TestRegister_StoresEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sig := ir.CanonicalSignature("visited(a).to(b)")
	addr := ir.MustContentAddress(sig)

	entry, inserted, err := f.registry.Register(ctx, "o1", addr, sig, []byte(`{"b":1,"a":"x"}`))
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, addr, entry.Address)
	assert.Equal(t, t0, entry.CreatedAt)
	assert.Equal(t, ir.AlgoVersion, entry.AlgoVersion)
	assert.JSONEq(t, `{"a":"x","b":1}`, string(entry.Evidence))

	got, found, err := f.registry.Get(ctx, "o1", addr)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sig, got.Signature)
	assert.Equal(t, `{"a":"x","b":1}`, string(got.Evidence))
}

func TestRegister_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sig := ir.CanonicalSignature("visited(a)")
	addr := ir.MustContentAddress(sig)

	first, inserted, err := f.registry.Register(ctx, "o1", addr, sig, nil)
	require.NoError(t, err)
	require.True(t, inserted)

	second, inserted, err := f.registry.Register(ctx, "o1", addr, sig, nil)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	entries, err := f.registry.List(ctx, "o1", ListOptions{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRegister_FirstWriteWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	addr := ir.ContentAddress("H1")
	_, _, err := f.registry.Register(ctx, "o1", addr, "first", nil)
	require.NoError(t, err)

	entry, inserted, err := f.registry.Register(ctx, "o1", addr, "second", nil)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, ir.CanonicalSignature("first"), entry.Signature)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		owner    string
		addr     ir.ContentAddress
		sig      ir.CanonicalSignature
		evidence string
		field    string
	}{
		{"missing owner", "", "H1", "sig", "", "owner_id"},
		{"missing address", "o1", "", "sig", "", "content_address"},
		{"blank address", "o1", "   ", "sig", "", "content_address"},
		{"missing signature", "o1", "H1", "", "", "canonical_signature"},
		{"invalid evidence", "o1", "H1", "sig", "{not json", "evidence"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.registry.Register(ctx, tt.owner, tt.addr, tt.sig, []byte(tt.evidence))
			require.Error(t, err)
			assert.True(t, ir.IsValidationError(err))

			var e *ir.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.field, e.Field)
		})
	}

	entries, err := f.registry.List(ctx, "o1", ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing written on validation failure")
}

func TestRegister_AddressNotDerived(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.registry.Register(context.Background(), "o1", "", "visited(a)", nil)
	require.Error(t, err)

	_, found, err := f.registry.Get(context.Background(), "o1", ir.MustContentAddress("visited(a)"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestList_NewestFirstWithLimitAndSince(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, a := range []string{"H1", "H2", "H3", "H4"} {
		_, _, err := f.registry.Register(ctx, "o1", ir.ContentAddress(a), ir.CanonicalSignature("sig-"+a), nil)
		require.NoError(t, err)
	}

	all, err := f.registry.List(ctx, "o1", ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, ir.ContentAddress("H4"), all[0].Address)
	assert.Equal(t, ir.ContentAddress("H1"), all[3].Address)

	limited, err := f.registry.List(ctx, "o1", ListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, addrs("H4", "H3"), addressesOf(limited))

	since := t0.Add(2 * time.Second)
	recent, err := f.registry.List(ctx, "o1", ListOptions{Since: &since})
	require.NoError(t, err)
	assert.Equal(t, addrs("H4", "H3"), addressesOf(recent))
}

func TestList_LimitCapped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := NewRegistry(f.store, RegistryOptions{Clock: f.clock, ListLimit: 1, MaxListLimit: 2})

	for _, a := range []string{"H1", "H2", "H3"} {
		_, _, err := r.Register(ctx, "o1", ir.ContentAddress(a), "sig", nil)
		require.NoError(t, err)
	}

	def, err := r.List(ctx, "o1", ListOptions{})
	require.NoError(t, err)
	assert.Len(t, def, 1)

	capped, err := r.List(ctx, "o1", ListOptions{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, capped, 2)
}

func TestGet_NotFoundIsNotError(t *testing.T) {
	f := newFixture(t)

	_, found, err := f.registry.Get(context.Background(), "o1", "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRegistry_OwnersIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.registry.Register(ctx, "o1", "H1", "sig", nil)
	require.NoError(t, err)

	_, found, err := f.registry.Get(ctx, "o2", "H1")
	require.NoError(t, err)
	assert.False(t, found)
}

func addressesOf(entries []ir.RegistryEntry) []ir.ContentAddress {
	out := make([]ir.ContentAddress, len(entries))
	for i, e := range entries {
		out[i] = e.Address
	}
	return out
}
