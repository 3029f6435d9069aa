package validation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/guardflow/schema"
)

func TestProperty_Pass_ParallelMatchesSequential(t *testing.T) {
	policies := []schema.OnFail{schema.OnFailNoop, schema.OnFailFix, schema.OnFailFilter, schema.OnFailReask}
	fieldNames := []string{"a", "b", "c", "d", "e", "f"}

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, len(fieldNames)).Draw(rt, "fields")
		tree := schema.Object()
		value := map[string]any{}
		for i := 0; i < n; i++ {
			policy := rapid.SampledFrom(policies).Draw(rt, "policy")
			tree.AddField(fieldNames[i], schema.String(schema.ValidatorSpec{Name: "lower-case", OnFail: policy}))
			value[fieldNames[i]] = rapid.StringMatching(`[A-Za-z ]{0,12}`).Draw(rt, "value")
		}

		seq, err := newPass(1).Apply(context.Background(), tree, value)
		require.NoError(rt, err)
		par, err := newPass(4).Apply(context.Background(), tree, value)
		require.NoError(rt, err)

		assert.Equal(rt, seq.Value, par.Value)
		assert.Equal(rt, seq.Reasks, par.Reasks)
		require.Equal(rt, len(seq.Records), len(par.Records))
		for i := range seq.Records {
			assert.Equal(rt, seq.Records[i].Path, par.Records[i].Path)
			assert.Equal(rt, seq.Records[i].Action, par.Records[i].Action)
		}
	})
}

func TestProperty_Pass_FilterKeepsOnlyPassingElements(t *testing.T) {
	tree := schema.Object().
		AddField("items", schema.List(schema.String(schema.ValidatorSpec{
			Name: "lower-case", OnFail: schema.OnFailFilter,
		})))

	rapid.Check(t, func(rt *rapid.T) {
		elems := rapid.SliceOfN(rapid.StringMatching(`[A-Za-z]{0,8}`), 0, 10).Draw(rt, "elems")
		list := make([]any, len(elems))
		passing := 0
		for i, s := range elems {
			list[i] = s
			if s == strings.ToLower(s) {
				passing++
			}
		}

		res, err := newPass(1).Apply(context.Background(), tree, map[string]any{"items": list})
		require.NoError(rt, err)

		out := res.Value.(map[string]any)["items"].([]any)
		require.Len(rt, out, passing)
		for _, v := range out {
			s := v.(string)
			assert.Equal(rt, strings.ToLower(s), s)
		}
	})
}

func TestProperty_Pass_FixIntroducesNoNewPaths(t *testing.T) {
	tree := schema.Object().
		AddField("a", schema.String(schema.ValidatorSpec{Name: "two-words", OnFail: schema.OnFailFix})).
		AddField("b", schema.String(schema.ValidatorSpec{Name: "lower-case", OnFail: schema.OnFailFix}))

	rapid.Check(t, func(rt *rapid.T) {
		value := map[string]any{}
		for _, k := range []string{"a", "b"} {
			if rapid.Bool().Draw(rt, "has_"+k) {
				value[k] = rapid.StringMatching(`[A-Za-z ]{0,10}`).Draw(rt, "value_"+k)
			}
		}

		res, err := newPass(1).Apply(context.Background(), tree, value)
		require.NoError(rt, err)

		out := res.Value.(map[string]any)
		require.Len(rt, out, len(value))
		for k := range out {
			_, present := value[k]
			assert.True(rt, present)
		}
	})
}

func TestProperty_Pass_FixIsIdempotent(t *testing.T) {
	tree := schema.Object().
		AddField("name", schema.String(schema.ValidatorSpec{Name: "two-words", OnFail: schema.OnFailFix})).
		AddField("line", schema.String(schema.ValidatorSpec{Name: "one-line", OnFail: schema.OnFailFix})).
		AddField("word", schema.String(schema.ValidatorSpec{Name: "lower-case", OnFail: schema.OnFailFix}))

	rapid.Check(t, func(rt *rapid.T) {
		value := map[string]any{
			"name": rapid.StringMatching(`([a-z]{1,5} ){0,5}[a-z]{1,5}`).Draw(rt, "name"),
			"line": rapid.StringMatching(`[a-z \n]{0,15}`).Draw(rt, "line"),
			"word": rapid.StringMatching(`[A-Za-z]{0,10}`).Draw(rt, "word"),
		}

		p := newPass(1)
		first, err := p.Apply(context.Background(), tree, value)
		require.NoError(rt, err)
		second, err := p.Apply(context.Background(), tree, first.Value)
		require.NoError(rt, err)

		assert.Equal(rt, first.Value, second.Value)
	})
}
