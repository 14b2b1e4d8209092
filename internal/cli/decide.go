package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/harvest/internal/config"
	"github.com/roach88/harvest/internal/crop"
	"github.com/roach88/harvest/internal/game"
	"github.com/roach88/harvest/internal/replant"
)

// DecideOptions holds flags for the decide command.
type DecideOptions struct {
	*RootOptions
	State string
	Drops []string
	Crops []string
	Seeds []string
}

// DecideResult is the JSON payload of decide.
type DecideResult struct {
	State    string           `json:"state"`
	Outcome  string           `json:"outcome"`
	Result   string           `json:"result"`
	Rule     string           `json:"rule,omitempty"`
	Reason   string           `json:"reason,omitempty"`
	Drops    []game.ItemStack `json:"drops"`
	Reset    string           `json:"reset,omitempty"`
	Consumed int              `json:"consumed"`
	Catalog  string           `json:"catalog"`
}

// NewDecideCommand creates the decide command.
func NewDecideCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecideOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Decide one harvest without a world",
		Long: `Run the replant decision for one block state and drop list.

The config is read but never written; when it does not exist the built-in
catalog is used. Tags are the vanilla crop and seed tags plus any --crop
and --seed members.

Examples:
  harvest decide --state "minecraft:wheat[age=7]" --drop minecraft:wheat=1 --drop minecraft:wheat_seeds=2
  harvest decide --state "mymod:rice[age=7]" --crop mymod:rice --seed mymod:rice --drop mymod:rice=3`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecide(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.State, "state", "", "block state, e.g. minecraft:wheat[age=7]")
	cmd.Flags().StringArrayVar(&opts.Drops, "drop", nil, "dropped stack as item=count (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Crops, "crop", nil, "extra crop tag members")
	cmd.Flags().StringSliceVar(&opts.Seeds, "seed", nil, "extra seed tag members")
	_ = cmd.MarkFlagRequired("state")

	return cmd
}

func runDecide(opts *DecideOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	state, err := game.ParseBlockState(opts.State)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid --state", err)
	}
	drops, err := parseDrops(opts.Drops)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid --drop", err)
	}
	tags, err := extendTags(opts.Crops, opts.Seeds)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid tag member", err)
	}

	catalog, err := readCatalog(opts.Config)
	if err != nil {
		_ = formatter.Error(loadErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to load config", err)
	}
	formatter.VerboseLog("Catalog %s (%d crops)", shortHash(catalog.Hash()), catalog.Len())

	handler, err := replant.ForCatalog(catalog)
	if err != nil {
		_ = formatter.Error(config.ErrCodeUnknownHandler, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to resolve handler", err)
	}

	out := handler.Handle(cmd.Context(), replant.Interaction{
		State:   state,
		Drops:   drops,
		Tags:    tags,
		Catalog: catalog,
	})

	result := DecideResult{
		State:    state.String(),
		Outcome:  out.Kind.String(),
		Result:   out.ActionResult().String(),
		Reason:   out.Reason,
		Drops:    out.Drops,
		Consumed: out.Consumed,
		Catalog:  catalog.Hash(),
	}
	if result.Drops == nil {
		result.Drops = []game.ItemStack{}
	}
	if out.Rule != nil {
		result.Rule = out.Rule.Label
	}
	if out.Reset != nil {
		result.Reset = out.Reset.String()
	}

	return formatter.Success(result, decideText(result))
}

// readCatalog loads the config without the write-back of LoadOrDefault.
func readCatalog(path string) (*crop.Catalog, error) {
	c, err := config.Load(path)
	if config.IsNotFound(err) {
		return crop.Default(), nil
	}
	return c, err
}

func loadErrorCode(err error) string {
	var le *config.LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return config.ErrCodeGeneric
}

// parseDrops parses item=count pairs; a bare item means a count of one.
func parseDrops(raw []string) ([]game.ItemStack, error) {
	drops := make([]game.ItemStack, 0, len(raw))
	for _, r := range raw {
		item, countStr, hasCount := strings.Cut(r, "=")
		id, err := game.ParseIdentifier(item)
		if err != nil {
			return nil, err
		}
		count := 1
		if hasCount {
			count, err = strconv.Atoi(countStr)
			if err != nil || count < 0 {
				return nil, fmt.Errorf("drop %q: count must be a non-negative integer", r)
			}
		}
		drops = append(drops, game.Stack(id, count))
	}
	return drops, nil
}

// extendTags returns the vanilla tags plus extra members.
func extendTags(crops, seeds []string) (*game.TagSet, error) {
	base := game.DefaultTags()
	if len(crops) == 0 && len(seeds) == 0 {
		return base, nil
	}
	allCrops := base.Crops()
	allSeeds := base.Seeds()
	for _, raw := range crops {
		id, err := game.ParseIdentifier(raw)
		if err != nil {
			return nil, err
		}
		allCrops = append(allCrops, id)
	}
	for _, raw := range seeds {
		id, err := game.ParseIdentifier(raw)
		if err != nil {
			return nil, err
		}
		allSeeds = append(allSeeds, id)
	}
	return game.NewTagSet(allCrops, allSeeds), nil
}

func decideText(r DecideResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s -> %s (%s)", r.State, r.Outcome, r.Result)
	if r.Rule != "" {
		fmt.Fprintf(&b, "\n  rule:  %s", r.Rule)
	}
	if r.Reason != "" {
		fmt.Fprintf(&b, "\n  reason: %s", r.Reason)
	}
	if r.Reset != "" {
		fmt.Fprintf(&b, "\n  reset: %s", r.Reset)
	}
	if r.Outcome == replant.Replanted.String() {
		stacks := make([]string, len(r.Drops))
		for i, d := range r.Drops {
			stacks[i] = d.String()
		}
		fmt.Fprintf(&b, "\n  scatter: [%s]", strings.Join(stacks, ", "))
	}
	return b.String()
}
