package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/harvest/internal/ir"
	"github.com/roach88/harvest/internal/queryir"
	"github.com/roach88/harvest/internal/querysql"
)

const interactionColumns = `id, seq, world, actor, hand, x, y, z, before_state, after_state,
	outcome, result, rule, reason, drops, scatter, consumed, catalog_hash`

var logQueries = querysql.NewCompiler("interactions", interactionColumns)

// ReadInteraction returns one interaction by id.
// Returns an error wrapping ErrNotFound when the id is unknown.
func (s *Store) ReadInteraction(ctx context.Context, id string) (ir.Interaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+interactionColumns+`
		FROM interactions
		WHERE id = ?
	`, id)

	in, err := scanInteraction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Interaction{}, fmt.Errorf("read interaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ir.Interaction{}, fmt.Errorf("read interaction %s: %w", id, err)
	}
	return in, nil
}

// Find returns the interactions matching q, in log order.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Find(ctx context.Context, q queryir.Query) ([]ir.Interaction, error) {
	query, args, err := logQueries.Compile(q)
	if err != nil {
		return nil, err
	}
	return s.queryInteractions(ctx, query, args...)
}

// ReadRecent returns the last limit interactions in log order.
// A limit <= 0 returns the whole log.
//
// Returns an empty slice (not nil) if the log is empty.
func (s *Store) ReadRecent(ctx context.Context, limit int) ([]ir.Interaction, error) {
	if limit < 0 {
		limit = 0
	}
	return s.Find(ctx, queryir.Query{Limit: limit})
}

// ReadPosition returns every interaction at one block, in log order.
func (s *Store) ReadPosition(ctx context.Context, world string, x, y, z int) ([]ir.Interaction, error) {
	return s.Find(ctx, queryir.Query{Filter: queryir.AtPos(world, x, y, z)})
}

// ReadByOutcome returns interactions with the given outcome, in log order.
func (s *Store) ReadByOutcome(ctx context.Context, outcome string) ([]ir.Interaction, error) {
	return s.Find(ctx, queryir.Query{Filter: queryir.Where("outcome", outcome)})
}

// ReadCatalog returns the stored document for a catalog hash.
func (s *Store) ReadCatalog(ctx context.Context, hash string) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM catalogs WHERE hash = ?`, hash).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("read catalog %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read catalog %s: %w", hash, err)
	}
	return content, nil
}

// MaxSeq returns the highest seq in the log, 0 when empty.
// Used to resume the dispatcher clock after a restart.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM interactions`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq.Int64, nil
}

func (s *Store) queryInteractions(ctx context.Context, query string, args ...any) ([]ir.Interaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	interactions := []ir.Interaction{}
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		interactions = append(interactions, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}

	return interactions, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInteraction(row scanner) (ir.Interaction, error) {
	var (
		in             ir.Interaction
		drops, scatter string
	)
	err := row.Scan(
		&in.ID,
		&in.Seq,
		&in.World,
		&in.Actor,
		&in.Hand,
		&in.X,
		&in.Y,
		&in.Z,
		&in.Before,
		&in.After,
		&in.Outcome,
		&in.Result,
		&in.Rule,
		&in.Reason,
		&drops,
		&scatter,
		&in.Consumed,
		&in.CatalogHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.Interaction{}, err
		}
		return ir.Interaction{}, fmt.Errorf("scan interaction: %w", err)
	}

	if in.Drops, err = unmarshalStacks(drops); err != nil {
		return ir.Interaction{}, fmt.Errorf("scan interaction %s: %w", in.ID, err)
	}
	if in.Scatter, err = unmarshalStacks(scatter); err != nil {
		return ir.Interaction{}, fmt.Errorf("scan interaction %s: %w", in.ID, err)
	}
	return in, nil
}
