package harness

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/harvest/internal/testutil"
)

func load(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
	require.NoError(t, err)
	return s
}

func TestRun_WheatReplant(t *testing.T) {
	result, err := Run(load(t, "wheat_replant"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 1)
	rec := result.Trace[0]
	assert.Equal(t, "int-0001", rec.ID)
	assert.Equal(t, int64(1), rec.Seq)
	assert.Equal(t, "replanted", rec.Outcome)
	assert.Equal(t, "success", rec.Result)
	assert.Equal(t, "minecraft:wheat[age=0]", rec.After)
	assert.Equal(t, 1, rec.Consumed)
	assert.Equal(t, map[string]string{"0,64,0": "minecraft:wheat[age=0]"}, result.Final)
}

func TestRun_NoSeedRejected(t *testing.T) {
	result, err := Run(load(t, "wheat_no_seed"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 1)
	assert.Equal(t, "rejected", result.Trace[0].Outcome)
	assert.Equal(t, "no_seed_in_drops", result.Trace[0].Reason)
	assert.Empty(t, result.Trace[0].Scatter)
}

func TestRun_MixedFieldSkipsFilteredSteps(t *testing.T) {
	result, err := Run(load(t, "mixed_field"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	// Two filtered steps never reach the log.
	assert.Len(t, result.Steps, 8)
	assert.Len(t, result.Trace, 6)
	assert.True(t, result.Steps[0].Filtered)
	assert.True(t, result.Steps[1].Filtered)

	failed := result.Steps[5]
	assert.Equal(t, "pass", failed.Result)
	assert.Contains(t, failed.Error, "injected host failure")
	assert.Contains(t, failed.Error, "set_block_state")
}

func TestRun_FailedExpectationIsReported(t *testing.T) {
	s := load(t, "wheat_replant")
	s.Interactions[0].Expect.Result = "failure"
	s.Interactions[0].Expect.Block = "minecraft:wheat[age=7]"

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], `expected result "failure", got "success"`)
	assert.Contains(t, result.Errors[1], "expected block minecraft:wheat[age=7]")
}

func TestRun_UnexpectedErrorFails(t *testing.T) {
	s := load(t, "wheat_replant")
	s.Interactions[0].HostFailure = "set_block_state"
	s.Interactions[0].Expect = nil
	s.Assertions = nil

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected error")
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	s := load(t, "stone_passthrough")
	s.Interactions[0].Expect.Error = true

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected an error")
}

func TestRun_ScatterMismatch(t *testing.T) {
	s := load(t, "wheat_replant")
	s.Interactions[0].Expect.Scatter = []StackSpec{{Item: "minecraft:wheat", Count: 2}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "scatter[0]: expected 2x minecraft:wheat")
}

func TestRun_InvalidInlineCatalog(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario + `
catalog:
  crops:
    - block: minecraft:wheat
      stage: -1
`))
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load catalog")
}

func TestRun_DefaultCatalogWhenNoneGiven(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, "minecraft:air", result.Trace[0].Before)
	assert.Equal(t, "not_tagged_as_crop", result.Trace[0].Reason)
}

func TestRun_Deterministic(t *testing.T) {
	s := load(t, "mixed_field")

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := Snapshot(s.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(s.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRunWithLogger_EmitsDecisionTrail(t *testing.T) {
	logger, buf := testutil.CaptureLogger(slog.LevelDebug)

	_, err := RunWithLogger(load(t, "wheat_replant"), logger)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "replanted crop")
}
