// Package calcexpr evaluates the small path-expression language used by
// legacy schema-template calculated fields, e.g. sum(periods.*.value). An
// expression is parsed once and evaluated against a generic tree of maps,
// slices and numbers.
package calcexpr

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Func string

const (
	FuncSum   Func = "sum"
	FuncAvg   Func = "avg"
	FuncMin   Func = "min"
	FuncMax   Func = "max"
	FuncCount Func = "count"
)

// Expr is a parsed calculation expression.
type Expr struct {
	Fn   Func
	Path []string // segments; "*" matches every map value / slice element
	raw  string
}

func (e *Expr) String() string { return e.raw }

// Parse parses "fn(seg.seg.*.seg)" into an Expr.
func Parse(input string) (*Expr, error) {
	s := strings.TrimSpace(input)
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("calcexpr: malformed expression %q", input)
	}
	fn := Func(strings.ToLower(strings.TrimSpace(s[:open])))
	switch fn {
	case FuncSum, FuncAvg, FuncMin, FuncMax, FuncCount:
	default:
		return nil, fmt.Errorf("calcexpr: unknown function %q", s[:open])
	}
	pathStr := strings.TrimSpace(s[open+1 : len(s)-1])
	if pathStr == "" {
		return nil, fmt.Errorf("calcexpr: empty path in %q", input)
	}
	segs := strings.Split(pathStr, ".")
	for _, seg := range segs {
		if strings.TrimSpace(seg) == "" {
			return nil, fmt.Errorf("calcexpr: empty path segment in %q", input)
		}
	}
	return &Expr{Fn: fn, Path: segs, raw: s}, nil
}

// Evaluate resolves the path against root and applies the function over the
// numeric leaves found. count counts every matched leaf, numeric or not.
// Aggregating zero matches yields 0 for sum and count and an error for
// avg/min/max.
func (e *Expr) Evaluate(root any) (float64, error) {
	matches := resolve(root, e.Path)
	if e.Fn == FuncCount {
		return float64(len(matches)), nil
	}

	nums := make([]float64, 0, len(matches))
	for _, m := range matches {
		if f, ok := toFloat(m); ok {
			nums = append(nums, f)
		}
	}
	switch e.Fn {
	case FuncSum:
		var total float64
		for _, f := range nums {
			total += f
		}
		return total, nil
	case FuncAvg:
		if len(nums) == 0 {
			return 0, fmt.Errorf("calcexpr: avg over zero values for %q", e.raw)
		}
		var total float64
		for _, f := range nums {
			total += f
		}
		return total / float64(len(nums)), nil
	case FuncMin:
		if len(nums) == 0 {
			return 0, fmt.Errorf("calcexpr: min over zero values for %q", e.raw)
		}
		min := math.Inf(1)
		for _, f := range nums {
			if f < min {
				min = f
			}
		}
		return min, nil
	case FuncMax:
		if len(nums) == 0 {
			return 0, fmt.Errorf("calcexpr: max over zero values for %q", e.raw)
		}
		max := math.Inf(-1)
		for _, f := range nums {
			if f > max {
				max = f
			}
		}
		return max, nil
	}
	return 0, fmt.Errorf("calcexpr: unknown function %q", e.Fn)
}

func resolve(node any, path []string) []any {
	if len(path) == 0 {
		return []any{node}
	}
	seg, rest := path[0], path[1:]
	var out []any
	switch v := node.(type) {
	case map[string]any:
		if seg == "*" {
			for _, child := range v {
				out = append(out, resolve(child, rest)...)
			}
			return out
		}
		child, ok := v[seg]
		if !ok {
			return nil
		}
		return resolve(child, rest)
	case []any:
		if seg == "*" {
			for _, child := range v {
				out = append(out, resolve(child, rest)...)
			}
			return out
		}
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(v) {
			return nil
		}
		return resolve(v[idx], rest)
	default:
		return nil
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
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
