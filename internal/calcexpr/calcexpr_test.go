package calcexpr

import (
	"math"
	"testing"
)

func tree() map[string]any {
	return map[string]any{
		"periods": []any{
			map[string]any{"value": 10.0, "label": "jan"},
			map[string]any{"value": 20.0, "label": "feb"},
			map[string]any{"value": "5", "label": "mar"}, // numeric string counts
			map[string]any{"label": "apr"},               // no value
		},
	}
}

func TestParseRejectsMalformedExpressions(t *testing.T) {
	for _, in := range []string{"", "sum", "sum()", "sum(a..b)", "median(a.b)", "(a.b)"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) should fail", in)
		}
	}
}

func TestSumOverWildcardPath(t *testing.T) {
	e, err := Parse("sum(periods.*.value)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := e.Evaluate(tree())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != 35 {
		t.Fatalf("sum: want=35 got=%v", got)
	}
}

func TestAvgIgnoresNonNumericLeaves(t *testing.T) {
	e, err := Parse("avg(periods.*.value)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := e.Evaluate(tree())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if math.Abs(got-35.0/3.0) > 1e-9 {
		t.Fatalf("avg: want=%v got=%v", 35.0/3.0, got)
	}
}

func TestCountCountsEveryMatch(t *testing.T) {
	e, err := Parse("count(periods.*)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := e.Evaluate(tree())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != 4 {
		t.Fatalf("count: want=4 got=%v", got)
	}
}

func TestAvgOverZeroMatchesErrors(t *testing.T) {
	e, err := Parse("avg(missing.*.value)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := e.Evaluate(tree()); err == nil {
		t.Fatalf("avg over zero values should error")
	}

	// sum over zero matches is defined as 0
	s, err := Parse("sum(missing.*.value)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := s.Evaluate(tree())
	if err != nil || got != 0 {
		t.Fatalf("sum over zero values: want=0,nil got=%v,%v", got, err)
	}
}

func TestIndexedPathSegment(t *testing.T) {
	e, err := Parse("max(periods.1.value)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := e.Evaluate(tree())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != 20 {
		t.Fatalf("indexed max: want=20 got=%v", got)
	}
}
