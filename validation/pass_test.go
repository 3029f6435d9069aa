package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/guardflow/schema"
	"github.com/BaSui01/guardflow/validators"
)

func newPass(parallelism int) *Pass {
	return New(&Config{Parallelism: parallelism}, nil)
}

func TestPassAllValid(t *testing.T) {
	tree := schema.Object().
		AddField("name", schema.String(schema.ValidatorSpec{Name: "two-words", OnFail: schema.OnFailReask}))
	value := map[string]any{"name": "string output"}

	res, err := newPass(1).Apply(context.Background(), tree, value)
	require.NoError(t, err)
	assert.Equal(t, value, res.Value)
	assert.Empty(t, res.Reasks)
	assert.False(t, res.Refrain)
	require.Len(t, res.Records, 1)
	assert.True(t, res.Records[0].Outcome.Valid)
	assert.False(t, UncorrectedFailure(res.Records))
}

func TestPassFixReplacesValue(t *testing.T) {
	tree := schema.Object().
		AddField("name", schema.String(schema.ValidatorSpec{Name: "two-words", OnFail: schema.OnFailFix}))
	value := map[string]any{"name": "string output yes"}

	res, err := newPass(1).Apply(context.Background(), tree, value)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "string output"}, res.Value)
	assert.Empty(t, res.Reasks)

	// The input value is never mutated.
	assert.Equal(t, "string output yes", value["name"])
}

func TestPassNoopLeavesValueRecordsFailure(t *testing.T) {
	tree := schema.Object().
		AddField("rate", schema.Number(schema.ValidatorSpec{
			Name: "valid-range", Params: map[string]any{"max": 30.0}, OnFail: schema.OnFailNoop,
		}))
	value := map[string]any{"rate": 45.2}

	res, err := newPass(1).Apply(context.Background(), tree, value)
	require.NoError(t, err)
	assert.Equal(t, value, res.Value)
	assert.Empty(t, res.Reasks)
	require.Len(t, res.Records, 1)
	assert.False(t, res.Records[0].Outcome.Valid)
	assert.Equal(t, ActionNoop, res.Records[0].Action)
	assert.True(t, UncorrectedFailure(res.Records))
}

func TestPassFilterDropsListElement(t *testing.T) {
	tree := schema.Object().
		AddField("words", schema.List(schema.String(schema.ValidatorSpec{
			Name: "lower-case", OnFail: schema.OnFailFilter,
		})))
	value := map[string]any{"words": []any{"keep", "DROP", "also keep"}}

	res, err := newPass(1).Apply(context.Background(), tree, value)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"words": []any{"keep", "also keep"}}, res.Value)
}

func TestPassFilterDropsObjectField(t *testing.T) {
	tree := schema.Object().
		AddField("name", schema.String(schema.ValidatorSpec{Name: "lower-case", OnFail: schema.OnFailFilter})).
		AddField("kept", schema.String())
	value := map[string]any{"name": "BAD", "kept": "fine"}

	res, err := newPass(1).Apply(context.Background(), tree, value)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"kept": "fine"}, res.Value)
}

func TestPassFilteredRootYieldsNoValue(t *testing.T) {
	tree := schema.String(schema.ValidatorSpec{Name: "lower-case", OnFail: schema.OnFailFilter})

	res, err := newPass(1).Apply(context.Background(), tree, "NOT LOWER")
	require.NoError(t, err)
	assert.Nil(t, res.Value)
	assert.Empty(t, res.Reasks)
}

func TestPassRefrainDiscardsEverything(t *testing.T) {
	tree := schema.Object().
		AddField("a", schema.String(schema.ValidatorSpec{Name: "two-words", OnFail: schema.OnFailReask})).
		AddField("b", schema.String(schema.ValidatorSpec{Name: "lower-case", OnFail: schema.OnFailRefrain}))
	value := map[string]any{"a": "one", "b": "BAD"}

	res, err := newPass(1).Apply(context.Background(), tree, value)
	require.NoError(t, err)
	assert.True(t, res.Refrain)
	assert.Nil(t, res.Value)
	// Reasks collected before the refrain are dropped with the output.
	assert.Empty(t, res.Reasks)
}

func TestPassReaskCollectsPathReasonValue(t *testing.T) {
	tree := schema.Object().
		AddField("name", schema.String(schema.ValidatorSpec{Name: "two-words", OnFail: schema.OnFailReask}))
	value := map[string]any{"name": "one"}

	res, err := newPass(1).Apply(context.Background(), tree, value)
	require.NoError(t, err)
	require.Len(t, res.Reasks, 1)
	assert.Equal(t, "name", res.Reasks[0].Path.String())
	assert.Equal(t, "one", res.Reasks[0].FailedValue)
	assert.NotEmpty(t, res.Reasks[0].Reason)
}

func TestPassExceptionReturnsErrorWithPartialRecords(t *testing.T) {
	tree := schema.Object().
		AddField("a", schema.String(schema.ValidatorSpec{Name: "lower-case", OnFail: schema.OnFailFix})).
		AddField("b", schema.String(schema.ValidatorSpec{Name: "two-words", OnFail: schema.OnFailException}))
	value := map[string]any{"a": "OK", "b": "one"}

	res, err := newPass(1).Apply(context.Background(), tree, value)
	require.Error(t, err)
	assert.True(t, IsException(err))
	// Records up to and including the raising validator survive for the
	// ledger.
	require.Len(t, res.Records, 2)
	assert.Equal(t, ActionException, res.Records[1].Action)
}

func TestPassFirstFailingValidatorWins(t *testing.T) {
	tree := schema.String(
		schema.ValidatorSpec{Name: "two-words", OnFail: schema.OnFailReask},
		schema.ValidatorSpec{Name: "lower-case", OnFail: schema.OnFailFix},
	)

	res, err := newPass(1).Apply(context.Background(), tree, "ONE")
	require.NoError(t, err)
	// two-words fails first; lower-case never runs on this node this pass.
	require.Len(t, res.Records, 1)
	assert.Equal(t, "two-words", res.Records[0].Validator)
	require.Len(t, res.Reasks, 1)
}

func TestPassFixShortCircuitsNodeValidators(t *testing.T) {
	tree := schema.String(
		schema.ValidatorSpec{Name: "lower-case", OnFail: schema.OnFailFix},
		schema.ValidatorSpec{Name: "two-words", OnFail: schema.OnFailReask},
	)

	res, err := newPass(1).Apply(context.Background(), tree, "TWO WORDS")
	require.NoError(t, err)
	// lower-case fixes, and the fix short-circuits the rest of this node's
	// validators for the pass.
	assert.Equal(t, "two words", res.Value)
	require.Len(t, res.Records, 1)
}

func TestPassParentSeesCorrectedChildren(t *testing.T) {
	// The parent's valid-choices check runs against the child-level corrected
	// container, bottom-up.
	tree := schema.Object().
		AddField("items", schema.List(
			schema.String(schema.ValidatorSpec{Name: "lower-case", OnFail: schema.OnFailFix}),
		).WithValidators(schema.ValidatorSpec{Name: "valid-length-proxy", OnFail: schema.OnFailNoop}))

	reg := validators.NewRegistry()
	validators.RegisterBuiltins(reg)
	var seen []any
	reg.Register("valid-length-proxy", validatorFunc(func(ctx context.Context, value any, scope validators.Scope) *validators.Outcome {
		seen = append(seen, value)
		return validators.Pass()
	}).Factory)

	p := New(&Config{Runner: validators.NewInProcessRunner(reg, nil)}, nil)
	_, err := p.Apply(context.Background(), tree, map[string]any{"items": []any{"UP", "low"}})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, []any{"up", "low"}, seen[0])
}

func TestPassIdempotentOnCorrectedOutput(t *testing.T) {
	tree := schema.Object().
		AddField("name", schema.String(schema.ValidatorSpec{Name: "two-words", OnFail: schema.OnFailFix})).
		AddField("words", schema.List(schema.String(schema.ValidatorSpec{Name: "lower-case", OnFail: schema.OnFailFilter})))
	value := map[string]any{
		"name":  "too many words here",
		"words": []any{"ok", "BAD"},
	}

	p := newPass(1)
	first, err := p.Apply(context.Background(), tree, value)
	require.NoError(t, err)

	second, err := p.Apply(context.Background(), tree, first.Value)
	require.NoError(t, err)
	assert.Equal(t, first.Value, second.Value)
	for _, r := range second.Records {
		assert.True(t, r.Outcome.Valid)
	}
}

func TestPassMissingFieldIsSkipped(t *testing.T) {
	tree := schema.Object().
		AddField("present", schema.String(schema.ValidatorSpec{Name: "lower-case", OnFail: schema.OnFailFix})).
		AddField("absent", schema.String(schema.ValidatorSpec{Name: "two-words", OnFail: schema.OnFailReask}))

	res, err := newPass(1).Apply(context.Background(), tree, map[string]any{"present": "ok"})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "present", res.Records[0].Path.String())
	assert.Empty(t, res.Reasks)
}

func TestPassParallelMatchesSequentialOrder(t *testing.T) {
	tree := schema.Object().
		AddField("a", schema.String(schema.ValidatorSpec{Name: "two-words", OnFail: schema.OnFailReask})).
		AddField("b", schema.String(schema.ValidatorSpec{Name: "lower-case", OnFail: schema.OnFailFix})).
		AddField("c", schema.String(schema.ValidatorSpec{Name: "one-line", OnFail: schema.OnFailReask}))
	value := map[string]any{"a": "one", "b": "UP", "c": "x\ny"}

	seq, err := newPass(1).Apply(context.Background(), tree, value)
	require.NoError(t, err)
	par, err := newPass(4).Apply(context.Background(), tree, value)
	require.NoError(t, err)

	assert.Equal(t, seq.Value, par.Value)
	assert.Equal(t, seq.Reasks, par.Reasks)
	require.Equal(t, len(seq.Records), len(par.Records))
	for i := range seq.Records {
		assert.Equal(t, seq.Records[i].Path, par.Records[i].Path)
		assert.Equal(t, seq.Records[i].Validator, par.Records[i].Validator)
	}
}

// validatorFunc adapts a function to both the Validator interface and a
// registry factory.
type validatorFunc func(ctx context.Context, value any, scope validators.Scope) *validators.Outcome

func (f validatorFunc) Factory(params map[string]any) (validators.Validator, error) {
	return funcValidator{fn: f}, nil
}

type funcValidator struct {
	fn validatorFunc
}

func (v funcValidator) Name() string { return "func" }
func (v funcValidator) Validate(ctx context.Context, value any, scope validators.Scope) *validators.Outcome {
	return v.fn(ctx, value, scope)
}
