package formatter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/cookbook/pkg/ast"
	"github.com/thomasrohde/cookbook/pkg/formatter"
	"github.com/thomasrohde/cookbook/pkg/parser"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	program, diags := parser.Parse(src, "test.cook")
	require.Empty(t, diags, "unexpected parse errors")
	return program
}

func mustExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	expr, diags := parser.ParseExpression(src, "test.cook")
	require.Empty(t, diags, "unexpected parse errors")
	return expr
}

func TestFormatStatements(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"var decl", `REMEMBER  x AS 1;`, "remember x as 1;\n"},
		{"assign", `set x to "pie";`, "set x to \"pie\";\n"},
		{"print", `print mix 1 and 2;`, "print mix 1 and 2;\n"},
		{"expr stmt", `f(1, 2);`, "f(1, 2);\n"},
		{"aliases canonicalized", `when (x) print 1; otherwise print 2;`,
			"if (x)\n  print 1;\nelse\n  print 2;\n"},
		{"empty block", `{}`, "{}\n"},
		{"block", `{ remember a as 1; print a; }`, "{\n  remember a as 1;\n  print a;\n}\n"},
		{"if else blocks", `if (x) { print 1; } else { print 2; }`,
			"if (x) {\n  print 1;\n} else {\n  print 2;\n}\n"},
		{"else if", `if (a) { print 1; } else if (b) { print 2; }`,
			"if (a) {\n  print 1;\n} else if (b) {\n  print 2;\n}\n"},
		{"while", `repeat (check if x < 3) set x to mix x and 1;`,
			"while (x < 3)\n  set x to mix x and 1;\n"},
		{"recipe", `fun add(a,b){serve mix a and b;}`,
			"recipe add(a, b) {\n  serve mix a and b;\n}\n"},
		{"bare serve", `recipe f() { serve; }`, "recipe f() {\n  serve;\n}\n"},
		{"numbers", `print 2.50; print 10;`, "print 2.5;\nprint 10;\n"},
		{"take away order", `print take away 2 from 5;`, "print take away 2 from 5;\n"},
		{"grouping kept", `print combine (mix 1 and 2) with 3;`, "print combine (mix 1 and 2) with 3;\n"},
		{"logical", `print a and b or c;`, "print a and b or c;\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatter.Format(mustParse(t, tt.src)))
		})
	}
}

func TestFormatForLoopDesugared(t *testing.T) {
	program := mustParse(t, `for (remember i as 0; i < 2; set i to mix i and 1) print i;`)
	want := "{\n" +
		"  remember i as 0;\n" +
		"  while (i < 2) {\n" +
		"    print i;\n" +
		"    set i to mix i and 1;\n" +
		"  }\n" +
		"}\n"
	assert.Equal(t, want, formatter.Format(program))
}

func TestFormatSeparatesRecipes(t *testing.T) {
	program := mustParse(t, `print 1; recipe f() { serve 1; } recipe g() {}`)
	want := "print 1;\n\nrecipe f() {\n  serve 1;\n}\n\nrecipe g() {}\n"
	assert.Equal(t, want, formatter.Format(program))
}

func TestFormatSkipsBrokenStatements(t *testing.T) {
	program, diags := parser.Parse(`print 1; remember ; print 2;`, "test.cook")
	require.NotEmpty(t, diags)
	assert.Equal(t, "print 1;\nprint 2;\n", formatter.Format(program))
}

func TestFormatEmptyProgram(t *testing.T) {
	assert.Equal(t, "", formatter.Format(mustParse(t, "")))
}

func TestFormatIsIdempotent(t *testing.T) {
	sources := []string{
		`remember total as 0; for (remember i as 1; check if i < 4; set i to mix i and 1) { set total to mix total and i; } print total;`,
		`recipe fib(n) { if (n < 2) serve n; serve mix fib(take away 1 from n) and fib(take away 2 from n); } print fib(10);`,
		`if (a) if (b) print 1; else print 2;`,
		`print flip flip 3 == 3 and "x" or nil;`,
		`print share combine 2 with 3 with mix 1 and 1;`,
	}
	for _, src := range sources {
		first := formatter.Format(mustParse(t, src))
		second := formatter.Format(mustParse(t, first))
		assert.Equal(t, first, second, "source: %s", src)
	}
}

func TestFormatAddsParensForBuiltTrees(t *testing.T) {
	lit := func(v float64) ast.Expr { return &ast.NumberLiteral{Value: v} }
	cmp := &ast.BinaryExpr{Op: ast.OpGt, Left: lit(1), Right: lit(2)}
	or := &ast.LogicalExpr{Op: ast.OpOr, Left: &ast.Variable{Name: "a"}, Right: &ast.Variable{Name: "b"}}

	program := &ast.Program{Statements: []ast.Stmt{
		&ast.PrintStmt{Expr: &ast.BinaryExpr{Op: ast.OpMix, Left: cmp, Right: lit(3)}},
		&ast.PrintStmt{Expr: &ast.LogicalExpr{Op: ast.OpAnd, Left: or, Right: &ast.Variable{Name: "c"}}},
		&ast.PrintStmt{Expr: &ast.BinaryExpr{Op: ast.OpEqEq, Left: cmp, Right: &ast.BoolLiteral{Value: true}}},
		&ast.ExprStmt{Expr: &ast.CallExpr{Callee: or}},
	}}
	want := "print mix (1 > 2) and 3;\n" +
		"print (a or b) and c;\n" +
		"print (1 > 2) == true;\n" +
		"(a or b)();\n"
	assert.Equal(t, want, formatter.Format(program))
}

func TestFormatDanglingElse(t *testing.T) {
	inner := &ast.IfStmt{Cond: &ast.Variable{Name: "b"}, Then: &ast.PrintStmt{Expr: &ast.NumberLiteral{Value: 1}}}
	outer := &ast.IfStmt{
		Cond: &ast.Variable{Name: "a"},
		Then: inner,
		Else: &ast.PrintStmt{Expr: &ast.NumberLiteral{Value: 2}},
	}
	got := formatter.Format(&ast.Program{Statements: []ast.Stmt{outer}})
	want := "if (a) {\n  if (b)\n    print 1;\n} else\n  print 2;\n"
	assert.Equal(t, want, got)

	reparsed := mustParse(t, got)
	require.Len(t, reparsed.Statements, 1)
	stmt := reparsed.Statements[0].(*ast.IfStmt)
	assert.NotNil(t, stmt.Else, "else must stay on the outer if")
}

func TestParenthesize(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`mix 1 and (2)`, `(mix 1 (group 2))`},
		{`take away 2 from 5`, `(take away 5 2)`},
		{`combine 2 with share 9 with 3`, `(combine 2 (share 9 3))`},
		{`flip x`, `(flip x)`},
		{`check if 1 < 2`, `(< 1 2)`},
		{`a and b or c`, `(or (and a b) c)`},
		{`f(1, "pie")(nil)`, `(call (call f 1 pie) nil)`},
		{`true == false`, `(== true false)`},
		{`2.5`, `2.5`},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, formatter.Parenthesize(mustExpr(t, tt.src)))
		})
	}
}

func TestHasComments(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{`print 1;`, false},
		{`# note` + "\nprint 1;", true},
		{`print 1; // trailing`, true},
		{`/* block */ print 1;`, true},
		{`print "# not a comment";`, false},
		{`print "a // b";`, false},
		{`print share 4 with 2;`, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatter.HasComments(tt.src), tt.src)
	}
}

func TestDump(t *testing.T) {
	program := mustParse(t, `remember x as 1;
for (remember i as 0; i < 2; set i to mix i and 1) print i;
recipe f(a, b) { if (a) serve; else serve b; }
set x to f(1, 2);
x;`)
	want := "(remember x 1)\n" +
		"(block (remember i 0) (while (< i 2) (block (print i) (set i (mix i 1)))))\n" +
		"(recipe f (a b) (if a (serve) (serve b)))\n" +
		"(set x (call f 1 2))\n" +
		"(; x)\n"
	assert.Equal(t, want, formatter.Dump(program))
}

func TestDumpMarksBrokenStatements(t *testing.T) {
	program, diags := parser.Parse(`print ; print 1;`, "test.cook")
	require.NotEmpty(t, diags)
	assert.Equal(t, "(error)\n(print 1)\n", formatter.Dump(program))
}
