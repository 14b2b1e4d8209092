package store

import (
	"context"
	"fmt"

	"github.com/roach88/harvest/internal/ir"
)

// WriteInteraction appends an interaction to the log.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: writing the same id twice
// is silently ignored.
//
// Implements dispatch.Recorder.
func (s *Store) WriteInteraction(ctx context.Context, in ir.Interaction) error {
	drops, err := marshalStacks(in.Drops)
	if err != nil {
		return fmt.Errorf("write interaction: %w", err)
	}
	scatter, err := marshalStacks(in.Scatter)
	if err != nil {
		return fmt.Errorf("write interaction: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO interactions
		(id, seq, world, actor, hand, x, y, z, before_state, after_state,
		 outcome, result, rule, reason, drops, scatter, consumed, catalog_hash, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		in.ID,
		in.Seq,
		in.World,
		in.Actor,
		in.Hand,
		in.X,
		in.Y,
		in.Z,
		in.Before,
		in.After,
		in.Outcome,
		in.Result,
		in.Rule,
		in.Reason,
		drops,
		scatter,
		in.Consumed,
		in.CatalogHash,
		in.ContentHash(),
	)
	if err != nil {
		return fmt.Errorf("write interaction: %w", err)
	}

	return nil
}

// WriteCatalog stores a catalog version by hash. Content is the rendered
// configuration document. Idempotent.
func (s *Store) WriteCatalog(ctx context.Context, hash string, content []byte, rules int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO catalogs (hash, content, rules)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, string(content), rules)
	if err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}
