// Package validator implements static checks over Cookbook programs that
// need no name resolution.
package validator

import (
	"fmt"

	"github.com/thomasrohde/cookbook/pkg/ast"
	"github.com/thomasrohde/cookbook/pkg/diagnostics"
)

type validator struct {
	diags []diagnostics.Diagnostic
}

// Validate checks a parsed program and returns its diagnostics:
// E_RETURN_TOP and E_DUP_PARAM errors plus E_UNREACHABLE warnings.
func Validate(program *ast.Program) []diagnostics.Diagnostic {
	v := &validator{}
	v.validateStatements(program.Statements, false)
	return v.diags
}

func (v *validator) addDiag(code, msg string, span ast.Span) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, &span, ""))
}

func (v *validator) addWarning(code, msg string, span ast.Span) {
	v.diags = append(v.diags, diagnostics.MakeWarning(code, msg, &span))
}

// validateStatements walks a statement list. inRecipe is true anywhere
// inside a recipe body, including nested blocks and loops.
func (v *validator) validateStatements(stmts []ast.Stmt, inRecipe bool) {
	served := false
	for _, stmt := range stmts {
		if served {
			if _, ok := stmt.(*ast.NoOpStmt); !ok {
				v.addWarning(diagnostics.EUnreachable, "Unreachable statement after serve.", stmt.NodeSpan())
				served = false // report once per block
			}
		}
		v.validateStmt(stmt, inRecipe)
		if _, ok := stmt.(*ast.ReturnStmt); ok {
			served = true
		}
	}
}

func (v *validator) validateStmt(stmt ast.Stmt, inRecipe bool) {
	switch s := stmt.(type) {
	case *ast.ReturnStmt:
		if !inRecipe {
			v.addDiag(diagnostics.EReturnTop, "Cannot serve from top-level code.", s.Span)
		}

	case *ast.FunDecl:
		seen := make(map[string]bool, len(s.Params))
		for _, p := range s.Params {
			if seen[p] {
				v.addDiag(diagnostics.EDupParam,
					fmt.Sprintf("Duplicate parameter '%s' in recipe '%s'.", p, s.Name), s.Span)
			}
			seen[p] = true
		}
		v.validateStatements(s.Body, true)

	case *ast.BlockStmt:
		v.validateStatements(s.Stmts, inRecipe)

	case *ast.IfStmt:
		v.validateStmt(s.Then, inRecipe)
		if s.Else != nil {
			v.validateStmt(s.Else, inRecipe)
		}

	case *ast.WhileStmt:
		v.validateStmt(s.Body, inRecipe)
	}
}
