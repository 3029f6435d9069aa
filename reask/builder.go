package reask

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/BaSui01/guardflow/llm"
	"github.com/BaSui01/guardflow/schema"
	"github.com/BaSui01/guardflow/validation"
)

const correctionHeader = `I was given a response that failed validation. ` +
	`Correct only the values listed below; everything else in the previous response was accepted.`

const correctionFooter = `Return only valid JSON containing exactly the fields described by the schema above, ` +
	`with the incorrect values replaced. Do not include any other text.`

// Build constructs the follow-up request for one reask round. The request
// restates only the sub-schemas at the failing paths, quotes each failure
// reason verbatim, includes the previously produced failing values, and
// omits everything that already passed. Deterministic for identical inputs:
// failures are ordered by path.
func Build(prev *llm.Request, tree *schema.Node, requests []validation.ReaskRequest) (*llm.Request, error) {
	if len(requests) == 0 {
		return nil, fmt.Errorf("no reask requests to build from")
	}

	ordered := make([]validation.ReaskRequest, len(requests))
	copy(ordered, requests)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Path.String() < ordered[j].Path.String()
	})

	paths := make([]schema.Path, len(ordered))
	for i, r := range ordered {
		paths[i] = r.Path
	}
	pruned := tree.Prune(paths)
	subSchema, err := pruned.JSONSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to render reask sub-schema: %w", err)
	}

	var b strings.Builder
	b.WriteString(correctionHeader)
	b.WriteString("\n\n")
	for _, r := range ordered {
		fmt.Fprintf(&b, "- path: %s\n", r.Path)
		fmt.Fprintf(&b, "  incorrect value: %s\n", renderValue(r.FailedValue))
		fmt.Fprintf(&b, "  error: %s\n", r.Reason)
	}
	b.WriteString("\nSchema for the fields that need correction:\n\n")
	b.Write(subSchema)
	b.WriteString("\n\n")
	b.WriteString(correctionFooter)

	return &llm.Request{
		Instructions: prev.Instructions,
		Prompt:       b.String(),
		Metadata:     prev.Metadata,
	}, nil
}

func renderValue(v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(out)
}
