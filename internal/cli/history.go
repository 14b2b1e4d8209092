package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/harvest/internal/ir"
	"github.com/roach88/harvest/internal/queryir"
	"github.com/roach88/harvest/internal/replant"
	"github.com/roach88/harvest/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Outcome  string
	World    string
	Pos      string
	Where    []string
	Since    int64
	Stats    bool
}

// HistoryResult holds the history output. Exactly one of the views is set.
type HistoryResult struct {
	Interactions []ir.Interaction     `json:"interactions,omitempty"`
	Position     *store.PositionState `json:"position,omitempty"`
	Stats        *store.Stats         `json:"stats,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the harvest log",
		Long: `Query the harvest log written by serve.

By default the most recent interactions are listed. --outcome and --where
filter them (fields: world, actor, hand, x, y, z, before, after, outcome,
result, rule, reason, consumed, catalog_hash, id), --pos folds the history
of one block into its current state and --stats prints counts over the
whole log.

Examples:
  harvest history --db ./harvest.db
  harvest history --outcome rejected --limit 10
  harvest history --where rule=Wheat --where actor=steve --since 120
  harvest history --world minecraft:overworld --pos 10,64,-3
  harvest history --stats --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", DefaultDatabase, "path to the SQLite harvest log")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum interactions to list (0 for all)")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "filter by outcome (replanted|rejected|not_applicable)")
	cmd.Flags().StringVar(&opts.World, "world", "minecraft:overworld", "world of --pos")
	cmd.Flags().StringVar(&opts.Pos, "pos", "", "block position as x,y,z")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "filter as field=value (repeatable)")
	cmd.Flags().Int64Var(&opts.Since, "since", 0, "only interactions with seq greater than this")
	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "print log statistics")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Outcome != "" && !validOutcome(opts.Outcome) {
		msg := fmt.Sprintf("invalid outcome %q", opts.Outcome)
		_ = formatter.Error(ErrCodeInvalidInput, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	// store.Open would create an empty log; a missing file is a user error.
	if _, err := os.Stat(opts.Database); err != nil {
		msg := fmt.Sprintf("database not found: %s", opts.Database)
		_ = formatter.Error(ErrCodeInvalidInput, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case opts.Stats:
		stats, err := st.Stats(ctx)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to compute stats", err)
		}
		return formatter.Success(HistoryResult{Stats: &stats}, statsText(stats))

	case opts.Pos != "":
		x, y, z, err := parsePos(opts.Pos)
		if err != nil {
			_ = formatter.Error(ErrCodeInvalidInput, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid --pos", err)
		}
		state, err := st.GetPositionState(ctx, opts.World, x, y, z)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read position", err)
		}
		entries, err := st.ReadPosition(ctx, opts.World, x, y, z)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read position", err)
		}
		entries = tail(entries, opts.Limit)
		return formatter.Success(
			HistoryResult{Position: &state, Interactions: entries},
			positionText(state)+"\n"+interactionsText(entries),
		)

	default:
		q, err := historyQuery(opts)
		if err != nil {
			_ = formatter.Error(ErrCodeInvalidInput, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid filter", err)
		}
		entries, err := st.Find(ctx, q)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read log", err)
		}
		return formatter.Success(HistoryResult{Interactions: entries}, interactionsText(entries))
	}
}

// historyQuery builds the log query from --outcome, --where and --since.
func historyQuery(opts *HistoryOptions) (queryir.Query, error) {
	var preds []queryir.Predicate
	if opts.Outcome != "" {
		preds = append(preds, queryir.Where("outcome", opts.Outcome))
	}
	where, err := queryir.Parse(opts.Where)
	if err != nil {
		return queryir.Query{}, err
	}
	preds = append(preds, where)
	if opts.Since > 0 {
		preds = append(preds, queryir.Since{Seq: opts.Since})
	}

	q := queryir.Query{Filter: queryir.All(preds...), Limit: opts.Limit}
	if q.Limit < 0 {
		q.Limit = 0
	}
	return q, queryir.Validate(q)
}

func validOutcome(s string) bool {
	for _, k := range []replant.Kind{replant.NotApplicable, replant.Replanted, replant.Rejected} {
		if k.String() == s {
			return true
		}
	}
	return false
}

// parsePos parses "x,y,z".
func parsePos(raw string) (x, y, z int, err error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("position %q: want x,y,z", raw)
	}
	var vals [3]int
	for i, p := range parts {
		vals[i], err = strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0, 0, 0, fmt.Errorf("position %q: %w", raw, err)
		}
	}
	return vals[0], vals[1], vals[2], nil
}

// tail keeps the last limit entries; limit <= 0 keeps all.
func tail(entries []ir.Interaction, limit int) []ir.Interaction {
	if limit <= 0 || len(entries) <= limit {
		return entries
	}
	return entries[len(entries)-limit:]
}

func interactionsText(entries []ir.Interaction) string {
	if len(entries) == 0 {
		return "No interactions."
	}
	var b strings.Builder
	for i, in := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%d] %s (%d,%d,%d) %s: %s/%s", in.Seq, in.World, in.X, in.Y, in.Z, in.Before, in.Outcome, in.Result)
		if in.Rule != "" {
			fmt.Fprintf(&b, " rule=%s", in.Rule)
		}
		if in.Reason != "" {
			fmt.Fprintf(&b, " reason=%s", in.Reason)
		}
	}
	return b.String()
}

func positionText(p store.PositionState) string {
	current := p.Current
	if current == "" {
		current = "unknown"
	}
	return fmt.Sprintf("%s (%d,%d,%d): %d replant(s), %d reject(s), now %s",
		p.World, p.X, p.Y, p.Z, p.Replants, p.Rejects, current)
}

func statsText(s store.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Interactions: %d (last seq %d)\n", s.Total, s.LastSeq)
	fmt.Fprintf(&b, "Seeds consumed: %d\n", s.SeedsConsumed)
	fmt.Fprintf(&b, "Catalogs: %d", s.Catalogs)
	for _, k := range []replant.Kind{replant.Replanted, replant.Rejected, replant.NotApplicable} {
		if n := s.ByOutcome[k.String()]; n > 0 {
			fmt.Fprintf(&b, "\n  %s: %d", k, n)
		}
	}
	return b.String()
}
