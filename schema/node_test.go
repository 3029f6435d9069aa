package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feeTree() *Node {
	return Object().
		AddField("name", String(ValidatorSpec{Name: "two-words", OnFail: OnFailReask})).
		AddField("fees", List(Object().
			AddField("name", String(ValidatorSpec{Name: "lower-case", OnFail: OnFailFix})).
			AddField("value", Number()),
		)).
		AddField("interest_rate", Number(ValidatorSpec{Name: "valid-range", Params: map[string]any{"max": 30.0}, OnFail: OnFailNoop}))
}

func TestNodeAt(t *testing.T) {
	tree := feeTree()

	tests := []struct {
		name string
		path Path
		kind Kind
	}{
		{name: "root", path: nil, kind: KindObject},
		{name: "field", path: Path{Field("name")}, kind: KindString},
		{name: "list element field", path: Path{Field("fees"), Index(3), Field("value")}, kind: KindNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := tree.NodeAt(tt.path)
			require.NotNil(t, node)
			assert.Equal(t, tt.kind, node.Kind)
		})
	}

	assert.Nil(t, tree.NodeAt(Path{Field("missing")}))
	assert.Nil(t, tree.NodeAt(Path{Field("name"), Field("deeper")}))
}

func TestPruneKeepsOnlyFailingBranches(t *testing.T) {
	tree := feeTree()
	pruned := tree.Prune([]Path{{Field("fees"), Index(1), Field("name")}})

	require.NotNil(t, pruned)
	require.Len(t, pruned.Fields, 1)
	assert.Equal(t, "fees", pruned.Fields[0].Name)

	elem := pruned.Fields[0].Node.Items
	require.NotNil(t, elem)
	require.Len(t, elem.Fields, 1)
	assert.Equal(t, "name", elem.Fields[0].Name)

	// Validators on the retained leaf survive pruning.
	require.Len(t, elem.Fields[0].Node.Validators, 1)
	assert.Equal(t, "lower-case", elem.Fields[0].Node.Validators[0].Name)

	// The original tree is untouched.
	assert.Len(t, tree.Fields, 3)
}

func TestPruneRootPathKeepsWholeTree(t *testing.T) {
	tree := feeTree()
	assert.Equal(t, tree, tree.Prune([]Path{nil}))
}

func TestPruneEmpty(t *testing.T) {
	assert.Nil(t, feeTree().Prune(nil))
}

func TestJSONSchema(t *testing.T) {
	tree := Object().
		AddField("name", String().WithDescription("the account holder")).
		AddField("fees", List(Number()))

	raw, err := tree.JSONSchema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, "object", doc["type"])
	assert.ElementsMatch(t, []any{"name", "fees"}, doc["required"])

	props := doc["properties"].(map[string]any)
	name := props["name"].(map[string]any)
	assert.Equal(t, "string", name["type"])
	assert.Equal(t, "the account holder", name["description"])

	fees := props["fees"].(map[string]any)
	assert.Equal(t, "array", fees["type"])
	assert.Equal(t, "number", fees["items"].(map[string]any)["type"])
}
