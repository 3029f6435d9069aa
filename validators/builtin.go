package validators

import (
	"context"
	"fmt"
	"strings"
)

// Built-in validators mirror the common checks attached to generated-output
// schemas: word/line shape constraints, case, length and range bounds, and
// closed choice sets. Each one registers a factory so it can be rebuilt from
// a schema.ValidatorSpec inside the isolation worker.

// RegisterBuiltins registers all built-in validator factories on r.
func RegisterBuiltins(r *Registry) {
	r.Register("two-words", func(params map[string]any) (Validator, error) {
		return &TwoWords{}, nil
	})
	r.Register("one-line", func(params map[string]any) (Validator, error) {
		return &OneLine{}, nil
	})
	r.Register("lower-case", func(params map[string]any) (Validator, error) {
		return &LowerCase{}, nil
	})
	r.Register("valid-length", func(params map[string]any) (Validator, error) {
		v := &ValidLength{Min: -1, Max: -1}
		if n, ok := paramInt(params, "min"); ok {
			v.Min = n
		}
		if n, ok := paramInt(params, "max"); ok {
			v.Max = n
		}
		return v, nil
	})
	r.Register("valid-range", func(params map[string]any) (Validator, error) {
		v := &ValidRange{}
		if f, ok := paramFloat(params, "min"); ok {
			v.Min, v.HasMin = f, true
		}
		if f, ok := paramFloat(params, "max"); ok {
			v.Max, v.HasMax = f, true
		}
		return v, nil
	})
	r.Register("valid-choices", func(params map[string]any) (Validator, error) {
		v := &ValidChoices{}
		if list, ok := params["choices"].([]any); ok {
			v.Choices = list
		}
		return v, nil
	})
}

// TwoWords checks that a string value is exactly two words. The suggested
// fix truncates to the first two.
type TwoWords struct{}

func (v *TwoWords) Name() string { return "two-words" }

func (v *TwoWords) Validate(ctx context.Context, value any, scope Scope) *Outcome {
	s, ok := value.(string)
	if !ok {
		return Fail(fmt.Sprintf("expected a string, got %T", value))
	}
	words := strings.Fields(s)
	if len(words) == 2 {
		return Pass()
	}
	reason := fmt.Sprintf("must be exactly two words, got %d", len(words))
	if len(words) > 2 {
		return FailWithFix(reason, strings.Join(words[:2], " "))
	}
	return Fail(reason)
}

// OneLine checks that a string value is a single line. The suggested fix
// keeps the first line.
type OneLine struct{}

func (v *OneLine) Name() string { return "one-line" }

func (v *OneLine) Validate(ctx context.Context, value any, scope Scope) *Outcome {
	s, ok := value.(string)
	if !ok {
		return Fail(fmt.Sprintf("expected a string, got %T", value))
	}
	if !strings.ContainsAny(s, "\r\n") {
		return Pass()
	}
	first := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' })
	fix := ""
	if len(first) > 0 {
		fix = first[0]
	}
	return FailWithFix("must be a single line", fix)
}

// LowerCase checks that a string value is entirely lower case. The suggested
// fix lowers it.
type LowerCase struct{}

func (v *LowerCase) Name() string { return "lower-case" }

func (v *LowerCase) Validate(ctx context.Context, value any, scope Scope) *Outcome {
	s, ok := value.(string)
	if !ok {
		return Fail(fmt.Sprintf("expected a string, got %T", value))
	}
	if s == strings.ToLower(s) {
		return Pass()
	}
	return FailWithFix("must be lower case", strings.ToLower(s))
}

// ValidLength checks string length in runes against optional bounds. A value
// over the maximum fixes by truncation; one under the minimum has no fix.
type ValidLength struct {
	Min int // -1 for unbounded
	Max int // -1 for unbounded
}

func (v *ValidLength) Name() string { return "valid-length" }

func (v *ValidLength) Validate(ctx context.Context, value any, scope Scope) *Outcome {
	s, ok := value.(string)
	if !ok {
		return Fail(fmt.Sprintf("expected a string, got %T", value))
	}
	runes := []rune(s)
	if v.Min >= 0 && len(runes) < v.Min {
		return Fail(fmt.Sprintf("length %d is below minimum %d", len(runes), v.Min))
	}
	if v.Max >= 0 && len(runes) > v.Max {
		return FailWithFix(
			fmt.Sprintf("length %d exceeds maximum %d", len(runes), v.Max),
			string(runes[:v.Max]),
		)
	}
	return Pass()
}

// ValidRange checks a numeric value against optional bounds. The suggested
// fix clamps into range.
type ValidRange struct {
	Min, Max       float64
	HasMin, HasMax bool
}

func (v *ValidRange) Name() string { return "valid-range" }

func (v *ValidRange) Validate(ctx context.Context, value any, scope Scope) *Outcome {
	f, ok := toFloat(value)
	if !ok {
		return Fail(fmt.Sprintf("expected a number, got %T", value))
	}
	if v.HasMin && f < v.Min {
		return FailWithFix(fmt.Sprintf("%v is below minimum %v", f, v.Min), clampLike(value, v.Min))
	}
	if v.HasMax && f > v.Max {
		return FailWithFix(fmt.Sprintf("%v exceeds maximum %v", f, v.Max), clampLike(value, v.Max))
	}
	return Pass()
}

// ValidChoices checks membership in a closed set. There is no meaningful
// fix.
type ValidChoices struct {
	Choices []any
}

func (v *ValidChoices) Name() string { return "valid-choices" }

func (v *ValidChoices) Validate(ctx context.Context, value any, scope Scope) *Outcome {
	for _, c := range v.Choices {
		if equalLoose(value, c) {
			return Pass()
		}
	}
	return &Outcome{
		Reason: fmt.Sprintf("%v is not one of the allowed choices", value),
		Detail: map[string]any{"choices": v.Choices},
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// clampLike keeps the fix value in the same numeric family as the input so
// an integer field is not corrected into a float.
func clampLike(original any, bound float64) any {
	switch original.(type) {
	case int, int8, int16, int32, int64, uint8, uint16, uint32, uint64:
		return int(bound)
	}
	return bound
}

func equalLoose(a, b any) bool {
	if a == b {
		return true
	}
	fa, oka := toFloat(a)
	fb, okb := toFloat(b)
	return oka && okb && fa == fb
}

func paramInt(params map[string]any, key string) (int, bool) {
	f, ok := paramFloat(params, key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func paramFloat(params map[string]any, key string) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	return toFloat(v)
}
