package store

import (
	"context"
	"fmt"
)

// Stats summarises the harvest log.
type Stats struct {
	Total         int            `json:"total"`
	ByOutcome     map[string]int `json:"by_outcome"`
	ByRule        map[string]int `json:"replants_by_rule"`
	SeedsConsumed int            `json:"seeds_consumed"`
	LastSeq       int64          `json:"last_seq"`
	Catalogs      int            `json:"catalogs"`
}

// Stats computes counts over the whole log.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{
		ByOutcome: map[string]int{},
		ByRule:    map[string]int{},
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(consumed), 0), COALESCE(MAX(seq), 0)
		FROM interactions
	`).Scan(&st.Total, &st.SeedsConsumed, &st.LastSeq)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalogs`).Scan(&st.Catalogs); err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}

	if err := s.countInto(ctx, st.ByOutcome, `
		SELECT outcome, COUNT(*) FROM interactions
		GROUP BY outcome ORDER BY outcome
	`); err != nil {
		return Stats{}, err
	}

	if err := s.countInto(ctx, st.ByRule, `
		SELECT rule, COUNT(*) FROM interactions
		WHERE outcome = 'replanted' AND result = 'success'
		GROUP BY rule ORDER BY rule
	`); err != nil {
		return Stats{}, err
	}

	return st, nil
}

func (s *Store) countInto(ctx context.Context, into map[string]int, query string) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("stats: scan: %w", err)
		}
		into[key] = count
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("stats: iterate: %w", err)
	}
	return nil
}

// PositionState is the replant history of one block.
type PositionState struct {
	World    string `json:"world"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Z        int    `json:"z"`
	Replants int    `json:"replants"`
	Rejects  int    `json:"rejects"`
	LastSeq  int64  `json:"last_seq"`

	// Current is the last known state: the reset state after a replant,
	// otherwise the state that was observed.
	Current string `json:"current,omitempty"`
}

// GetPositionState folds the log for one position into its current state.
func (s *Store) GetPositionState(ctx context.Context, world string, x, y, z int) (PositionState, error) {
	state := PositionState{World: world, X: x, Y: y, Z: z}

	history, err := s.ReadPosition(ctx, world, x, y, z)
	if err != nil {
		return state, fmt.Errorf("get position state: %w", err)
	}

	for _, in := range history {
		switch {
		case in.Outcome == "replanted" && in.Result == "success":
			state.Replants++
		case in.Outcome == "rejected":
			state.Rejects++
		}
		state.LastSeq = in.Seq
		if in.After != "" {
			state.Current = in.After
		} else {
			state.Current = in.Before
		}
	}
	return state, nil
}
