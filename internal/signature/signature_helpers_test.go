package signature

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/snapledger/internal/ir"
	"github.com/roach88/snapledger/internal/store"
	"github.com/roach88/snapledger/internal/testutil"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store    *store.Store
	clock    *testutil.FakeClock
	registry *Registry
	links    *Links
	resolver *Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "snapledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clk := testutil.NewSteppingClock(t0, time.Second)
	return &fixture{
		store:    st,
		clock:    clk,
		registry: NewRegistry(st, RegistryOptions{Clock: clk}),
		links:    NewLinks(st, LinkOptions{Clock: clk, IDs: testutil.NewSequentialIDs("link")}),
		resolver: NewResolver(st, 0, nil),
	}
}

func (f *fixture) link(t *testing.T, owner string, a, b ir.ContentAddress) ir.EquivalenceEdge {
	t.Helper()
	edge, _, err := f.links.CreateLink(t.Context(), LinkRequest{
		OwnerID:   owner,
		A:         a,
		B:         b,
		CreatedBy: "operator",
		Reason:    "normalization drift",
	})
	require.NoError(t, err)
	return edge
}

func addrs(ss ...string) []ir.ContentAddress {
	out := make([]ir.ContentAddress, len(ss))
	for i, s := range ss {
		out[i] = ir.ContentAddress(s)
	}
	return out
}
