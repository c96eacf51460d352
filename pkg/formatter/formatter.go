// Package formatter implements the Cookbook source code formatter and the
// parenthesized AST printer.
package formatter

import (
	"strconv"
	"strings"

	"github.com/thomasrohde/cookbook/pkg/ast"
)

const indent = "  "

// Binding levels of the expression grammar, loosest first.
const (
	levelOr = iota
	levelAnd
	levelComparison
	levelPhrase
	levelCall
)

func level(e ast.Expr) int {
	switch expr := e.(type) {
	case *ast.LogicalExpr:
		if expr.Op == ast.OpOr {
			return levelOr
		}
		return levelAnd
	case *ast.BinaryExpr:
		switch expr.Op {
		case ast.OpGt, ast.OpLt, ast.OpEqEq:
			return levelComparison
		}
		return levelPhrase
	case *ast.UnaryExpr:
		return levelPhrase
	}
	return levelCall
}

// Format pretty-prints a Cookbook AST back to source code. Statements that
// failed to parse are dropped.
func Format(program *ast.Program) string {
	var lines []string
	for i, s := range program.Statements {
		if _, ok := s.(*ast.NoOpStmt); ok {
			continue
		}
		// Top-level recipes are set apart by a blank line.
		if _, ok := s.(*ast.FunDecl); ok && i > 0 && len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, formatStmt(s, 0))
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// HasComments checks if a source string contains Cookbook comments
// ("#", "//" or "/*"), which Format does not preserve.
func HasComments(source string) bool {
	inString := false
	for i := 0; i < len(source); i++ {
		c := source[i]
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		if c == '#' {
			return true
		}
		if c == '/' && i+1 < len(source) && (source[i+1] == '/' || source[i+1] == '*') {
			return true
		}
	}
	return false
}

func formatStmt(s ast.Stmt, depth int) string {
	prefix := strings.Repeat(indent, depth)
	switch stmt := s.(type) {
	case *ast.ExprStmt:
		return prefix + formatExpr(stmt.Expr) + ";"
	case *ast.PrintStmt:
		return prefix + "print " + formatExpr(stmt.Expr) + ";"
	case *ast.VarDecl:
		return prefix + "remember " + stmt.Name + " as " + formatExpr(stmt.Init) + ";"
	case *ast.AssignStmt:
		return prefix + "set " + stmt.Name + " to " + formatExpr(stmt.Value) + ";"
	case *ast.ReturnStmt:
		if stmt.Value == nil {
			return prefix + "serve;"
		}
		return prefix + "serve " + formatExpr(stmt.Value) + ";"
	case *ast.BlockStmt:
		return prefix + formatBlock(stmt.Stmts, depth)
	case *ast.IfStmt:
		then := stmt.Then
		if inner, ok := then.(*ast.IfStmt); ok && inner.Else == nil && stmt.Else != nil {
			// Braces keep the else attached to the outer if.
			then = &ast.BlockStmt{Span: inner.Span, Stmts: []ast.Stmt{inner}}
		}
		out := prefix + "if (" + formatExpr(stmt.Cond) + ")" + formatBody(then, depth)
		if stmt.Else == nil {
			return out
		}
		if _, ok := then.(*ast.BlockStmt); ok {
			out += " else"
		} else {
			out += "\n" + prefix + "else"
		}
		if elif, ok := stmt.Else.(*ast.IfStmt); ok {
			return out + " " + strings.TrimPrefix(formatStmt(elif, depth), prefix)
		}
		return out + formatBody(stmt.Else, depth)
	case *ast.WhileStmt:
		return prefix + "while (" + formatExpr(stmt.Cond) + ")" + formatBody(stmt.Body, depth)
	case *ast.FunDecl:
		return prefix + "recipe " + stmt.Name + "(" + strings.Join(stmt.Params, ", ") + ") " +
			formatBlock(stmt.Body, depth)
	}
	return ""
}

// formatBody renders the statement controlled by if/else/while: blocks stay
// on the header line, anything else moves to an indented line of its own.
func formatBody(s ast.Stmt, depth int) string {
	if block, ok := s.(*ast.BlockStmt); ok {
		return " " + formatBlock(block.Stmts, depth)
	}
	return "\n" + formatStmt(s, depth+1)
}

func formatBlock(stmts []ast.Stmt, depth int) string {
	var lines []string
	for _, s := range stmts {
		if _, ok := s.(*ast.NoOpStmt); ok {
			continue
		}
		lines = append(lines, formatStmt(s, depth+1))
	}
	if len(lines) == 0 {
		return "{}"
	}
	return "{\n" + strings.Join(lines, "\n") + "\n" + strings.Repeat(indent, depth) + "}"
}

func formatExpr(e ast.Expr) string {
	switch expr := e.(type) {
	case *ast.NumberLiteral:
		return formatNumber(expr.Value)
	case *ast.StringLiteral:
		return `"` + expr.Value + `"`
	case *ast.BoolLiteral:
		if expr.Value {
			return "true"
		}
		return "false"
	case *ast.NilLiteral:
		return "nil"
	case *ast.Variable:
		return expr.Name
	case *ast.Grouping:
		return "(" + formatExpr(expr.Expr) + ")"
	case *ast.UnaryExpr:
		return string(expr.Op) + " " + operand(expr.Operand, levelPhrase)
	case *ast.BinaryExpr:
		switch expr.Op {
		case ast.OpMix:
			return "mix " + operand(expr.Left, levelPhrase) + " and " + operand(expr.Right, levelPhrase)
		case ast.OpTakeAway:
			return "take away " + operand(expr.Right, levelPhrase) + " from " + operand(expr.Left, levelPhrase)
		case ast.OpCombine:
			return "combine " + operand(expr.Left, levelPhrase) + " with " + operand(expr.Right, levelPhrase)
		case ast.OpShare:
			return "share " + operand(expr.Left, levelPhrase) + " with " + operand(expr.Right, levelPhrase)
		}
		return operand(expr.Left, levelPhrase) + " " + string(expr.Op) + " " + operand(expr.Right, levelPhrase)
	case *ast.LogicalExpr:
		if expr.Op == ast.OpOr {
			return operand(expr.Left, levelOr) + " or " + operand(expr.Right, levelAnd)
		}
		return operand(expr.Left, levelAnd) + " and " + operand(expr.Right, levelComparison)
	case *ast.CallExpr:
		args := make([]string, len(expr.Args))
		for i, a := range expr.Args {
			args[i] = formatExpr(a)
		}
		return operand(expr.Callee, levelCall) + "(" + strings.Join(args, ", ") + ")"
	}
	return ""
}

// operand formats e for a position that accepts expressions binding at
// least as tightly as floor, adding parentheses otherwise.
func operand(e ast.Expr, floor int) string {
	out := formatExpr(e)
	if level(e) < floor {
		return "(" + out + ")"
	}
	return out
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Parenthesize renders an expression as a fully parenthesized prefix form,
// e.g. "(mix 1 (group 2))". Binary nodes list Left before Right, so
// "take away 2 from 5" prints as "(take away 5 2)".
func Parenthesize(e ast.Expr) string {
	switch expr := e.(type) {
	case nil:
		return "nil"
	case *ast.NumberLiteral:
		return formatNumber(expr.Value)
	case *ast.StringLiteral:
		return expr.Value
	case *ast.BoolLiteral:
		return strconv.FormatBool(expr.Value)
	case *ast.NilLiteral:
		return "nil"
	case *ast.Variable:
		return expr.Name
	case *ast.Grouping:
		return parenthesize("group", expr.Expr)
	case *ast.UnaryExpr:
		return parenthesize(string(expr.Op), expr.Operand)
	case *ast.BinaryExpr:
		return parenthesize(string(expr.Op), expr.Left, expr.Right)
	case *ast.LogicalExpr:
		return parenthesize(string(expr.Op), expr.Left, expr.Right)
	case *ast.CallExpr:
		return parenthesize("call", append([]ast.Expr{expr.Callee}, expr.Args...)...)
	}
	return ""
}

func parenthesize(name string, exprs ...ast.Expr) string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(name)
	for _, e := range exprs {
		b.WriteString(" ")
		b.WriteString(Parenthesize(e))
	}
	b.WriteString(")")
	return b.String()
}

// Dump renders a whole program in the same prefix form as Parenthesize,
// one top-level statement per line.
func Dump(program *ast.Program) string {
	var b strings.Builder
	for _, s := range program.Statements {
		b.WriteString(dumpStmt(s))
		b.WriteString("\n")
	}
	return b.String()
}

func dumpStmt(s ast.Stmt) string {
	switch stmt := s.(type) {
	case *ast.ExprStmt:
		return parenthesize(";", stmt.Expr)
	case *ast.PrintStmt:
		return parenthesize("print", stmt.Expr)
	case *ast.VarDecl:
		return parenthesize("remember "+stmt.Name, stmt.Init)
	case *ast.AssignStmt:
		return parenthesize("set "+stmt.Name, stmt.Value)
	case *ast.ReturnStmt:
		if stmt.Value == nil {
			return "(serve)"
		}
		return parenthesize("serve", stmt.Value)
	case *ast.BlockStmt:
		return dumpList("block", stmt.Stmts)
	case *ast.IfStmt:
		out := "(if " + Parenthesize(stmt.Cond) + " " + dumpStmt(stmt.Then)
		if stmt.Else != nil {
			out += " " + dumpStmt(stmt.Else)
		}
		return out + ")"
	case *ast.WhileStmt:
		return "(while " + Parenthesize(stmt.Cond) + " " + dumpStmt(stmt.Body) + ")"
	case *ast.FunDecl:
		return dumpList("recipe "+stmt.Name+" ("+strings.Join(stmt.Params, " ")+")", stmt.Body)
	case *ast.NoOpStmt:
		return "(error)"
	}
	return ""
}

func dumpList(head string, stmts []ast.Stmt) string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(head)
	for _, s := range stmts {
		b.WriteString(" ")
		b.WriteString(dumpStmt(s))
	}
	b.WriteString(")")
	return b.String()
}
