package validator_test

import (
	"strings"
	"testing"

	"github.com/thomasrohde/cookbook/pkg/diagnostics"
	"github.com/thomasrohde/cookbook/pkg/parser"
	"github.com/thomasrohde/cookbook/pkg/validator"
)

// helper parses source and validates, returning diagnostics from validation only.
// It fatals on parse errors so test cases focus on validator behavior.
func mustParseAndValidate(t *testing.T, source string) []diagnostics.Diagnostic {
	t.Helper()
	prog, parseErrs := parser.Parse(source, "test.cook")
	if len(parseErrs) > 0 {
		t.Fatalf("unexpected parse error: %s", parseErrs[0].Message)
	}
	return validator.Validate(prog)
}

// assertNoDiags asserts zero diagnostics were produced.
func assertNoDiags(t *testing.T, diags []diagnostics.Diagnostic) {
	t.Helper()
	if len(diags) != 0 {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.Code+": "+d.Message)
		}
		t.Errorf("expected no diagnostics, got %d:\n  %s", len(diags), strings.Join(msgs, "\n  "))
	}
}

// assertDiagCount asserts the expected number of diagnostics.
func assertDiagCount(t *testing.T, diags []diagnostics.Diagnostic, expected int) {
	t.Helper()
	if len(diags) != expected {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.Code+": "+d.Message)
		}
		t.Errorf("expected %d diagnostics, got %d:\n  %s", expected, len(diags), strings.Join(msgs, "\n  "))
	}
}

// assertHasCode asserts that at least one diagnostic with the given code exists.
func assertHasCode(t *testing.T, diags []diagnostics.Diagnostic, code string) {
	t.Helper()
	for _, d := range diags {
		if d.Code == code {
			return
		}
	}
	var codes []string
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	t.Errorf("expected diagnostic code %s, got codes: %v", code, codes)
}

// ---------- Valid programs ----------

func TestValidPrograms(t *testing.T) {
	tests := []string{
		`print 1;`,
		`remember x as 5; set x to mix x and 3; print x;`,
		`recipe double(n) { serve mix n and n; } print double(5);`,
		`recipe f(n) { if (n > 1) { serve 1; } else { serve 2; } }`,
		`recipe f() { while (true) { serve 1; } }`,
		`recipe outer() { recipe inner(a, b) { serve a; } serve inner; }`,
		`for (remember i as 0; i < 3; set i to mix i and 1) print i;`,
		``,
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			assertNoDiags(t, mustParseAndValidate(t, src))
		})
	}
}

// ---------- E_RETURN_TOP ----------

func TestServeAtTopLevel(t *testing.T) {
	diags := mustParseAndValidate(t, "print 1;\nserve 2;")
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EReturnTop)
	if diags[0].Line() != 2 {
		t.Errorf("expected line 2, got %d", diags[0].Line())
	}
}

func TestServeInTopLevelBlockAndLoops(t *testing.T) {
	tests := []string{
		`{ serve; }`,
		`if (true) serve 1;`,
		`if (true) print 1; else serve 2;`,
		`while (true) serve 1;`,
		`for (;;) { serve; }`,
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			diags := mustParseAndValidate(t, src)
			assertDiagCount(t, diags, 1)
			assertHasCode(t, diags, diagnostics.EReturnTop)
		})
	}
}

func TestServeInsideNestedRecipeIsFine(t *testing.T) {
	src := `{ recipe f() { { if (true) serve 1; } } }`
	assertNoDiags(t, mustParseAndValidate(t, src))
}

// ---------- E_DUP_PARAM ----------

func TestDuplicateParameter(t *testing.T) {
	diags := mustParseAndValidate(t, `recipe f(a, b, a) { serve a; }`)
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EDupParam)
	if diags[0].Message != "Duplicate parameter 'a' in recipe 'f'." {
		t.Errorf("unexpected message: %s", diags[0].Message)
	}
}

func TestDuplicateParameterInNestedRecipe(t *testing.T) {
	diags := mustParseAndValidate(t, `recipe outer() { recipe inner(x, x) {} serve inner; }`)
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EDupParam)
}

// ---------- E_UNREACHABLE ----------

func TestUnreachableAfterServe(t *testing.T) {
	diags := mustParseAndValidate(t, "recipe f() {\n  serve 1;\n  print 2;\n  print 3;\n}")
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EUnreachable)
	if diags[0].IsError() {
		t.Error("unreachable code must be a warning")
	}
	if diags[0].Line() != 3 {
		t.Errorf("expected line 3, got %d", diags[0].Line())
	}
	if diagnostics.HasErrors(diags) {
		t.Error("warnings alone must not count as errors")
	}
}

func TestServeInBranchDoesNotMarkFollowingCode(t *testing.T) {
	src := `recipe f(n) { if (n) serve 1; print 2; }`
	assertNoDiags(t, mustParseAndValidate(t, src))
}

func TestMultipleProblems(t *testing.T) {
	src := `
recipe f(a, a) { serve; print 1; }
serve 1;
`
	diags := mustParseAndValidate(t, src)
	assertDiagCount(t, diags, 3)
	assertHasCode(t, diags, diagnostics.EReturnTop)
	assertHasCode(t, diags, diagnostics.EDupParam)
	assertHasCode(t, diags, diagnostics.EUnreachable)
}
