package parser

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/BaSui01/guardflow/schema"
	"github.com/BaSui01/guardflow/types"
)

// Mode selects how strictly raw output structure is checked.
type Mode string

const (
	// ModeStrict decodes the output and checks it against the compiled JSON
	// Schema of the expected tree.
	ModeStrict Mode = "strict"
	// ModeLenient only requires well-formed JSON; shape mismatches are left
	// for the validators to flag.
	ModeLenient Mode = "lenient"
)

// Parser converts raw model text into a value shaped by the schema tree. A
// failure is reported as a types.Error with code PARSE_ERROR; how that error
// is handled (fatal or root-level reask) is the orchestrator's decision.
type Parser interface {
	Parse(ctx context.Context, rawText string, tree *schema.Node) (any, *types.Error)
}

// StructParser is the default JSON parser. For string-rooted schemas the raw
// text is the value itself; for everything else the text is decoded as JSON,
// tolerating a surrounding markdown code fence.
type StructParser struct {
	mode     Mode
	compiled *jsonschema.Schema
}

// NewStructParser creates a parser for the given schema tree. In strict mode
// the tree is compiled to a JSON Schema once, up front.
func NewStructParser(tree *schema.Node, mode Mode) (*StructParser, error) {
	if mode == "" {
		mode = ModeStrict
	}
	p := &StructParser{mode: mode}
	if mode == ModeStrict && tree != nil && tree.Kind != schema.KindString {
		doc, err := tree.JSONSchema()
		if err != nil {
			return nil, types.NewError(types.ErrInvalidSchema, "failed to render schema").WithCause(err)
		}
		compiled, err := jsonschema.CompileString("output.schema.json", string(doc))
		if err != nil {
			return nil, types.NewError(types.ErrInvalidSchema, "failed to compile schema").WithCause(err)
		}
		p.compiled = compiled
	}
	return p, nil
}

// Parse implements Parser.
func (p *StructParser) Parse(ctx context.Context, rawText string, tree *schema.Node) (any, *types.Error) {
	if tree != nil && tree.Kind == schema.KindString {
		return strings.TrimSpace(rawText), nil
	}
	text := stripFence(rawText)
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, types.NewError(types.ErrParse, "output is not valid JSON").WithCause(err)
	}
	if p.mode == ModeStrict && p.compiled != nil {
		if err := p.compiled.Validate(value); err != nil {
			return nil, types.NewError(types.ErrParse, "output does not match the expected shape").WithCause(err)
		}
	}
	return value, nil
}

// stripFence removes a surrounding markdown code fence, with or without a
// language tag.
func stripFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
