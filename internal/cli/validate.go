package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/harvest/internal/config"
	"github.com/roach88/harvest/internal/crop"
	"github.com/roach88/harvest/internal/game"
)

// Warning codes for rules that load but can never match.
const (
	WarnCodeNotInCropTag = "W001"
	WarnCodeShadowed     = "W002"
)

// ValidationIssue is one problem found in the config.
type ValidationIssue struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Line       int    `json:"line,omitempty"`
	Column     int    `json:"column,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Path     string            `json:"path"`
	Crops    int               `json:"crops,omitempty"`
	Hash     string            `json:"hash,omitempty"`
	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Crops  []string
	Strict bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the crop config",
		Long: `Validate the crop config against the schema and compile it.

Rules are also checked against the crop tag: a rule whose block is not a
tagged crop can never match, and a rule listed after an identical one is
never reached. These are warnings unless --strict is given.

Exit codes:
  0 - Config valid
  1 - Config invalid (or warnings under --strict)
  2 - Config file missing or unreadable

Examples:
  harvest validate
  harvest validate --config harvest.yaml --crop mymod:rice`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Crops, "crop", nil, "extra crop tag members besides the vanilla ones")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat warnings as errors")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	result := ValidationResult{Path: opts.Config}

	c, err := config.Load(opts.Config)
	if err != nil {
		var le *config.LoadError
		if !errors.As(err, &le) {
			_ = formatter.Error(config.ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		if le.Code == config.ErrCodeNotFound {
			_ = formatter.Error(le.Code, le.Message, nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", le.Code, le.Message))
		}
		issue := ValidationIssue{Code: le.Code, Message: le.Message}
		if le.Pos.IsValid() {
			issue.Line = le.Pos.Line()
			issue.Column = le.Pos.Column()
		}
		result.Errors = append(result.Errors, issue)
		return outputValidation(formatter, result, opts.Strict)
	}

	formatter.VerboseLog("Loaded %d crop(s) from %s", c.Len(), opts.Config)
	result.Crops = c.Len()
	result.Hash = c.Hash()

	crops, err := cropTag(opts.Crops)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid --crop", err)
	}
	result.Warnings = lintCatalog(c, crops)
	result.Valid = len(result.Errors) == 0 && (!opts.Strict || len(result.Warnings) == 0)

	return outputValidation(formatter, result, opts.Strict)
}

// cropTag returns the vanilla crop tag plus extra members, sorted.
func cropTag(extra []string) ([]game.Identifier, error) {
	crops := game.DefaultTags().Crops()
	for _, raw := range extra {
		id, err := game.ParseIdentifier(raw)
		if err != nil {
			return nil, err
		}
		crops = append(crops, id)
	}
	sort.Slice(crops, func(i, j int) bool { return crops[i] < crops[j] })
	return crops, nil
}

// lintCatalog finds rules that load fine but can never fire.
func lintCatalog(c *crop.Catalog, crops []game.Identifier) []ValidationIssue {
	tagged := make(map[game.Identifier]bool, len(crops))
	for _, id := range crops {
		tagged[id] = true
	}

	var issues []ValidationIssue
	seen := map[string]string{}
	for i, r := range c.Rules() {
		if !tagged[r.Matcher.Block] {
			issue := ValidationIssue{
				Code:    WarnCodeNotInCropTag,
				Message: fmt.Sprintf("crops[%d]: %s is not in the %s tag and will never match", i, r.Matcher.Block, game.CropTag),
			}
			if s, ok := crop.Suggest(r.Matcher.Block, crops); ok {
				issue.Suggestion = string(s)
			}
			issues = append(issues, issue)
		}

		key := r.Matcher.String()
		if first, dup := seen[key]; dup {
			issues = append(issues, ValidationIssue{
				Code:    WarnCodeShadowed,
				Message: fmt.Sprintf("crops[%d]: %s is shadowed by %s", i, r.Label, first),
			})
			continue
		}
		seen[key] = r.Label
	}
	return issues
}

func outputValidation(formatter *OutputFormatter, result ValidationResult, strict bool) error {
	failed := len(result.Errors) > 0 || (strict && len(result.Warnings) > 0)
	result.Valid = !failed

	if formatter.JSON() {
		if !failed {
			return formatter.Success(result, "")
		}
		first := result.Errors
		if len(first) == 0 {
			first = result.Warnings
		}
		if err := formatter.Failure(first[0].Code, first[0].Message, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(result.Errors)+len(result.Warnings)))
	}

	w := formatter.Writer
	if failed {
		fmt.Fprintln(w, "✗ Validation failed")
	} else {
		fmt.Fprintf(w, "✓ %s valid (%d crops, %s)\n", result.Path, result.Crops, shortHash(result.Hash))
	}
	for _, issue := range result.Errors {
		printIssue(formatter, issue)
	}
	for _, issue := range result.Warnings {
		printIssue(formatter, issue)
	}

	if failed {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(result.Errors)+len(result.Warnings)))
	}
	return nil
}

func printIssue(formatter *OutputFormatter, issue ValidationIssue) {
	w := formatter.Writer
	if issue.Line > 0 {
		fmt.Fprintf(w, "line %d:%d\n", issue.Line, issue.Column)
	}
	fmt.Fprintf(w, "  %s: %s\n", issue.Code, issue.Message)
	if issue.Suggestion != "" {
		fmt.Fprintf(w, "  did you mean %s?\n", issue.Suggestion)
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
