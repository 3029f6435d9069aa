package schema

// Kind represents the declared type of a schema node.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBool    Kind = "bool"
	KindObject  Kind = "object"
	KindList    Kind = "list"
)

// OnFail is the action taken when a validator attached to a node fails.
type OnFail string

const (
	// OnFailNoop records the failure but leaves the value unchanged.
	OnFailNoop OnFail = "noop"
	// OnFailFix replaces the value with the validator-supplied correction.
	OnFailFix OnFail = "fix"
	// OnFailFilter drops the failing value from its parent container.
	OnFailFilter OnFail = "filter"
	// OnFailRefrain discards the entire output for the current call.
	OnFailRefrain OnFail = "refrain"
	// OnFailReask flags the value for a targeted follow-up model request.
	OnFailReask OnFail = "reask"
	// OnFailException halts the call with a surfaced error.
	OnFailException OnFail = "exception"
)

// ValidatorSpec declares one validator attached to a schema node: which
// validator to construct, its parameters, the on-fail policy, and whether it
// runs in an isolated worker process.
type ValidatorSpec struct {
	Name     string         `json:"name" msgpack:"name"`
	Params   map[string]any `json:"params,omitempty" msgpack:"params,omitempty"`
	OnFail   OnFail         `json:"on_fail" msgpack:"on_fail"`
	Isolated bool           `json:"isolated,omitempty" msgpack:"isolated,omitempty"`
}

// NodeField is one named child of an object node. Fields keep declaration
// order so recorded outcomes sort deterministically.
type NodeField struct {
	Name string
	Node *Node
}

// Node describes one addressable position in the expected output: its
// declared type, the validators to run there, and its children. Trees are
// built once and treated as read-only afterwards; they are shared across
// concurrent calls.
type Node struct {
	Kind        Kind
	Description string
	Validators  []ValidatorSpec

	// Fields is set for object nodes, in declaration order.
	Fields []NodeField
	// Items is the element template for list nodes.
	Items *Node
}

// Object creates an object node.
func Object() *Node {
	return &Node{Kind: KindObject}
}

// List creates a list node with the given element template.
func List(items *Node) *Node {
	return &Node{Kind: KindList, Items: items}
}

// String creates a string node with the given validators.
func String(validators ...ValidatorSpec) *Node {
	return &Node{Kind: KindString, Validators: validators}
}

// Integer creates an integer node with the given validators.
func Integer(validators ...ValidatorSpec) *Node {
	return &Node{Kind: KindInteger, Validators: validators}
}

// Number creates a number node with the given validators.
func Number(validators ...ValidatorSpec) *Node {
	return &Node{Kind: KindNumber, Validators: validators}
}

// Bool creates a boolean node.
func Bool(validators ...ValidatorSpec) *Node {
	return &Node{Kind: KindBool, Validators: validators}
}

// AddField appends a named child to an object node and returns the node for
// chaining.
func (n *Node) AddField(name string, child *Node) *Node {
	n.Fields = append(n.Fields, NodeField{Name: name, Node: child})
	return n
}

// WithDescription sets the description.
func (n *Node) WithDescription(desc string) *Node {
	n.Description = desc
	return n
}

// WithValidators appends validators to the node.
func (n *Node) WithValidators(specs ...ValidatorSpec) *Node {
	n.Validators = append(n.Validators, specs...)
	return n
}

// Field returns the child node for an object field, or nil.
func (n *Node) Field(name string) *Node {
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Node
		}
	}
	return nil
}

// NodeAt resolves the node addressed by path, or nil when the path does not
// exist in the tree. List indices all resolve to the element template.
func (n *Node) NodeAt(path Path) *Node {
	cur := n
	for _, e := range path {
		if cur == nil {
			return nil
		}
		if e.IsIndex() {
			cur = cur.Items
			continue
		}
		cur = cur.Field(e.Key)
	}
	return cur
}

// Prune returns a copy of the tree containing only the branches that lead to
// at least one of the given paths. Validators and descriptions are preserved
// on the retained nodes. Used to restate failing sub-schemas in reask
// prompts.
func (n *Node) Prune(paths []Path) *Node {
	if len(paths) == 0 {
		return nil
	}
	for _, p := range paths {
		if len(p) == 0 {
			return n
		}
	}
	out := &Node{Kind: n.Kind, Description: n.Description, Validators: n.Validators}
	switch n.Kind {
	case KindObject:
		for _, f := range n.Fields {
			var sub []Path
			for _, p := range paths {
				if len(p) > 0 && !p[0].IsIndex() && p[0].Key == f.Name {
					sub = append(sub, p[1:])
				}
			}
			if len(sub) == 0 {
				continue
			}
			child := f.Node
			if pruned := child.Prune(sub); pruned != nil {
				child = pruned
			}
			out.Fields = append(out.Fields, NodeField{Name: f.Name, Node: child})
		}
	case KindList:
		var sub []Path
		for _, p := range paths {
			if len(p) > 0 && p[0].IsIndex() {
				sub = append(sub, p[1:])
			}
		}
		if len(sub) > 0 && n.Items != nil {
			out.Items = n.Items.Prune(sub)
		} else {
			out.Items = n.Items
		}
	}
	return out
}
