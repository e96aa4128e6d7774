package stitch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/snapledger/internal/epoch"
	"github.com/roach88/snapledger/internal/ir"
)

type reading struct {
	Count  int64
	Source string
}

func days(start, end string) ir.DayRange {
	return ir.DayRange{Start: ir.Day(start), End: ir.Day(end)}
}

func fill(r ir.DayRange, source string) map[ir.Day]reading {
	ds, _ := r.Days()
	out := make(map[ir.Day]reading, len(ds))
	for i, d := range ds {
		out[d] = reading{Count: int64(100 + i), Source: source}
	}
	return out
}

func TestStitch_TwoEpochsVerbatim(t *testing.T) {
	first := epoch.Epoch{Start: "2025-01-01", End: "2025-01-05", PartitionKeys: []string{}}
	second := epoch.Epoch{Start: "2025-01-06", End: "2025-01-10", PartitionKeys: []string{"ctx:1", "ctx:2"}}
	v1 := fill(first.Range(), "total")
	v2 := fill(second.Range(), "ctx")

	s, err := Stitch(days("2025-01-01", "2025-01-10"), []EpochResult[reading]{
		{Epoch: second, Values: v2},
		{Epoch: first, Values: v1},
	})
	require.NoError(t, err)
	require.Len(t, s.Points, 10)

	for i, p := range s.Points {
		require.True(t, p.Present(), p.Day)
		if i < 5 {
			assert.Equal(t, v1[p.Day], *p.Value)
			assert.Equal(t, 1, p.Epoch)
		} else {
			assert.Equal(t, v2[p.Day], *p.Value)
			assert.Equal(t, 0, p.Epoch)
		}
	}
	assert.Equal(t, ir.Day("2025-01-01"), s.Points[0].Day)
	assert.Equal(t, ir.Day("2025-01-10"), s.Points[9].Day)
	assert.Equal(t, reading{Count: 100, Source: "ctx"}, *s.Points[5].Value, "no recomputation at the boundary")
}

func TestStitch_GapsStayAbsent(t *testing.T) {
	s, err := Stitch(days("2025-01-01", "2025-01-05"), []EpochResult[int]{
		{Epoch: epoch.Epoch{Start: "2025-01-01", End: "2025-01-02"}, Values: map[ir.Day]int{"2025-01-01": 7}},
		{Epoch: epoch.Epoch{Start: "2025-01-03", End: "2025-01-03", Gap: true}},
		{Epoch: epoch.Epoch{Start: "2025-01-04", End: "2025-01-05"}, Values: map[ir.Day]int{"2025-01-05": 0}},
	})
	require.NoError(t, err)
	require.Len(t, s.Points, 5)

	assert.Equal(t, 7, *s.Points[0].Value)
	assert.Nil(t, s.Points[1].Value, "missing value not forward-filled")
	assert.Nil(t, s.Points[2].Value, "gap day")
	assert.Equal(t, 1, s.Points[2].Epoch)
	assert.Nil(t, s.Points[3].Value)
	require.NotNil(t, s.Points[4].Value)
	assert.Equal(t, 0, *s.Points[4].Value, "real zero is kept")

	assert.Equal(t, []int{7, 0}, s.Values())
}

func TestStitch_UncoveredDays(t *testing.T) {
	s, err := Stitch(days("2025-01-01", "2025-01-04"), []EpochResult[int]{
		{Epoch: epoch.Epoch{Start: "2024-12-30", End: "2025-01-02"}, Values: map[ir.Day]int{"2024-12-31": 1, "2025-01-02": 2}},
	})
	require.NoError(t, err)
	require.Len(t, s.Points, 4)
	assert.Equal(t, 2, *s.Points[1].Value)
	assert.Equal(t, -1, s.Points[2].Epoch)
	assert.Equal(t, -1, s.Points[3].Epoch)
}

func TestStitch_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		results []EpochResult[int]
	}{
		{
			name: "overlap",
			results: []EpochResult[int]{
				{Epoch: epoch.Epoch{Start: "2025-01-01", End: "2025-01-03"}},
				{Epoch: epoch.Epoch{Start: "2025-01-03", End: "2025-01-05"}},
			},
		},
		{
			name: "value outside epoch",
			results: []EpochResult[int]{
				{Epoch: epoch.Epoch{Start: "2025-01-01", End: "2025-01-02"}, Values: map[ir.Day]int{"2025-01-03": 1}},
			},
		},
		{
			name: "gap with values",
			results: []EpochResult[int]{
				{Epoch: epoch.Epoch{Start: "2025-01-01", End: "2025-01-02", Gap: true}, Values: map[ir.Day]int{"2025-01-01": 1}},
			},
		},
		{
			name: "inverted epoch",
			results: []EpochResult[int]{
				{Epoch: epoch.Epoch{Start: "2025-01-02", End: "2025-01-01"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Stitch(days("2025-01-01", "2025-01-05"), tt.results)
			require.Error(t, err)
			assert.True(t, ir.IsValidationError(err))
		})
	}
}

func TestRead_SkipsGapEpochs(t *testing.T) {
	plan := epoch.Plan{
		OwnerID: "o1",
		Days:    days("2025-01-01", "2025-01-03"),
		Epochs: []epoch.Epoch{
			{Start: "2025-01-01", End: "2025-01-01", PartitionKeys: []string{}},
			{Start: "2025-01-02", End: "2025-01-02", Gap: true},
			{Start: "2025-01-03", End: "2025-01-03", PartitionKeys: []string{"ch:1"}},
		},
	}

	var calls []string
	r := ReaderFunc[string](func(_ context.Context, owner string, e epoch.Epoch) (map[ir.Day]string, error) {
		calls = append(calls, fmt.Sprintf("%s %s %v", owner, e.Start, e.PartitionKeys))
		return map[ir.Day]string{e.Start: "v" + string(e.Start)}, nil
	})

	s, err := Read[string](context.Background(), plan, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"o1 2025-01-01 []", "o1 2025-01-03 [ch:1]"}, calls)
	assert.Equal(t, []string{"v2025-01-01", "v2025-01-03"}, s.Values())
	assert.Nil(t, s.Points[1].Value)
}

func TestRead_PropagatesReaderError(t *testing.T) {
	boom := errors.New("fact store down")
	plan := epoch.Plan{
		OwnerID: "o1",
		Days:    days("2025-01-01", "2025-01-01"),
		Epochs:  []epoch.Epoch{{Start: "2025-01-01", End: "2025-01-01"}},
	}

	_, err := Read[int](context.Background(), plan, ReaderFunc[int](func(context.Context, string, epoch.Epoch) (map[ir.Day]int, error) {
		return nil, boom
	}))
	assert.ErrorIs(t, err, boom)
}
