package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/harvest/internal/queryir"
)

func TestReadInteraction_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadInteraction(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadRecent_OrderAndLimit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Written out of order on purpose.
	for _, seq := range []int64{3, 1, 5, 2, 4} {
		require.NoError(t, s.WriteInteraction(ctx, createTestInteraction(fmt.Sprintf("int-%d", seq), seq)))
	}

	all, err := s.ReadRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, in := range all {
		assert.Equal(t, int64(i+1), in.Seq)
	}

	last, err := s.ReadRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, int64(4), last[0].Seq)
	assert.Equal(t, int64(5), last[1].Seq)
}

func TestReadRecent_TieBreaksOnID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteInteraction(ctx, createTestInteraction("b", 1)))
	require.NoError(t, s.WriteInteraction(ctx, createTestInteraction("a", 1)))

	all, err := s.ReadRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
}

func TestReadRecent_EmptyIsNotNil(t *testing.T) {
	s := createTestStore(t)

	all, err := s.ReadRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestReadPosition(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	here := createTestInteraction("int-1", 1)
	elsewhere := createTestInteraction("int-2", 2)
	elsewhere.X = 99
	nether := createTestInteraction("int-3", 3)
	nether.World = "the_nether"

	require.NoError(t, s.WriteInteraction(ctx, here))
	require.NoError(t, s.WriteInteraction(ctx, elsewhere))
	require.NoError(t, s.WriteInteraction(ctx, nether))

	got, err := s.ReadPosition(ctx, "overworld", 1, 64, 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "int-1", got[0].ID)
}

func TestReadByOutcome(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteInteraction(ctx, createTestInteraction("int-1", 1)))
	require.NoError(t, s.WriteInteraction(ctx, createRejectedInteraction("int-2", 2)))
	require.NoError(t, s.WriteInteraction(ctx, createTestInteraction("int-3", 3)))

	replanted, err := s.ReadByOutcome(ctx, "replanted")
	require.NoError(t, err)
	assert.Len(t, replanted, 2)

	rejected, err := s.ReadByOutcome(ctx, "rejected")
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "no_seed_in_drops", rejected[0].Reason)
}

func TestReadCatalog_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadCatalog(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMaxSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.MaxSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, s.WriteInteraction(ctx, createTestInteraction("int-7", 7)))
	require.NoError(t, s.WriteInteraction(ctx, createTestInteraction("int-3", 3)))

	seq, err = s.MaxSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), seq)
}

func TestFind(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	other := createTestInteraction("int-3", 3)
	other.Actor = "alex"
	other.Rule = "Carrots"
	require.NoError(t, s.WriteInteraction(ctx, createTestInteraction("int-1", 1)))
	require.NoError(t, s.WriteInteraction(ctx, createRejectedInteraction("int-2", 2)))
	require.NoError(t, s.WriteInteraction(ctx, other))
	require.NoError(t, s.WriteInteraction(ctx, createTestInteraction("int-4", 4)))

	tests := []struct {
		name string
		q    queryir.Query
		want []string
	}{
		{"all", queryir.Query{}, []string{"int-1", "int-2", "int-3", "int-4"}},
		{"by_actor", queryir.Query{Filter: queryir.Where("actor", "alex")}, []string{"int-3"}},
		{"by_rule_and_outcome", queryir.Query{Filter: queryir.All(
			queryir.Where("rule", "Wheat"),
			queryir.Where("outcome", "replanted"),
		)}, []string{"int-1", "int-4"}},
		{"since", queryir.Query{Filter: queryir.Since{Seq: 2}}, []string{"int-3", "int-4"}},
		{"after_state", queryir.Query{Filter: queryir.Where("after", "minecraft:wheat[age=0]"), Limit: 2}, []string{"int-3", "int-4"}},
		{"consumed", queryir.Query{Filter: queryir.Where("consumed", 0)}, []string{"int-2"}},
		{"none", queryir.Query{Filter: queryir.Where("world", "the_end")}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Find(ctx, tt.q)
			require.NoError(t, err)
			ids := make([]string, len(got))
			for i, in := range got {
				ids[i] = in.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFind_InvalidQuery(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Find(context.Background(), queryir.Query{Filter: queryir.Where("x", "one")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want integer value")
}
