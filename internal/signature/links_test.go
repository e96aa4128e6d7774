package signature

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/snapledger/internal/ir"
)

func TestCreateLink_RecordsAudit(t *testing.T) {
	f := newFixture(t)

	edge := f.link(t, "o1", "H1", "H2")
	assert.Equal(t, "link-0001", edge.ID)
	assert.Equal(t, "operator", edge.CreatedBy)
	assert.Equal(t, "normalization drift", edge.Reason)
	assert.Equal(t, t0, edge.CreatedAt)
	assert.True(t, edge.Active)
}

func TestCreateLink_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.link(t, "o1", "H1", "H2")

	again, created, err := f.links.CreateLink(ctx, LinkRequest{
		OwnerID: "o1", A: "H2", B: "H1", CreatedBy: "someone", Reason: "again",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	history, err := f.links.History(ctx, "o1", true)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestCreateLink_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   LinkRequest
		field string
	}{
		{"self link", LinkRequest{OwnerID: "o1", A: "H1", B: "H1", CreatedBy: "op", Reason: "r"}, "address_b"},
		{"missing owner", LinkRequest{A: "H1", B: "H2", CreatedBy: "op", Reason: "r"}, "owner_id"},
		{"missing a", LinkRequest{OwnerID: "o1", B: "H2", CreatedBy: "op", Reason: "r"}, "address_a"},
		{"missing b", LinkRequest{OwnerID: "o1", A: "H1", CreatedBy: "op", Reason: "r"}, "address_b"},
		{"missing operator", LinkRequest{OwnerID: "o1", A: "H1", B: "H2", Reason: "r"}, "created_by"},
		{"blank reason", LinkRequest{OwnerID: "o1", A: "H1", B: "H2", CreatedBy: "op", Reason: "  "}, "reason"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.links.CreateLink(ctx, tt.req)
			require.Error(t, err)

			var e *ir.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, ir.ErrCodeValidation, e.Code)
			assert.Equal(t, tt.field, e.Field)
		})
	}

	history, err := f.links.History(ctx, "o1", true)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestDeactivateLink_KeepsAuditRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.link(t, "o1", "H1", "H2")

	changed, err := f.links.DeactivateLink(ctx, UnlinkRequest{
		OwnerID: "o1", A: "H2", B: "H1", DeactivatedBy: "auditor", Reason: "different filters",
	})
	require.NoError(t, err)
	assert.True(t, changed)

	active, err := f.links.History(ctx, "o1", false)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := f.links.History(ctx, "o1", true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Active)
	assert.Equal(t, "auditor", all[0].DeactivatedBy)
	assert.Equal(t, "different filters", all[0].DeactivationReason)
	require.NotNil(t, all[0].DeactivatedAt)
}

func TestDeactivateLink_NoOps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := UnlinkRequest{OwnerID: "o1", A: "H1", B: "H2", DeactivatedBy: "auditor", Reason: "cleanup"}

	changed, err := f.links.DeactivateLink(ctx, req)
	require.NoError(t, err)
	assert.False(t, changed, "absent link")

	f.link(t, "o1", "H1", "H2")
	changed, err = f.links.DeactivateLink(ctx, req)
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = f.links.DeactivateLink(ctx, req)
	require.NoError(t, err)
	assert.False(t, changed, "already inactive")

	self := req
	self.B = "H1"
	changed, err = f.links.DeactivateLink(ctx, self)
	require.NoError(t, err)
	assert.False(t, changed, "self pair")
}

func TestDeactivateLink_RequiresOperatorAndReason(t *testing.T) {
	f := newFixture(t)

	_, err := f.links.DeactivateLink(context.Background(), UnlinkRequest{OwnerID: "o1", A: "H1", B: "H2", Reason: "r"})
	assert.True(t, ir.IsValidationError(err))

	_, err = f.links.DeactivateLink(context.Background(), UnlinkRequest{OwnerID: "o1", A: "H1", B: "H2", DeactivatedBy: "op"})
	assert.True(t, ir.IsValidationError(err))
}

func TestCreateLink_AfterDeactivationAppendsRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.link(t, "o1", "H1", "H2")
	_, err := f.links.DeactivateLink(ctx, UnlinkRequest{OwnerID: "o1", A: "H1", B: "H2", DeactivatedBy: "op", Reason: "oops"})
	require.NoError(t, err)

	relinked := f.link(t, "o1", "H1", "H2")
	assert.Equal(t, "link-0002", relinked.ID)

	all, err := f.links.History(ctx, "o1", true)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[0].Active)
	assert.True(t, all[1].Active)
}
