// Package diagnostics defines Cookbook diagnostic types for syntax, check and runtime errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thomasrohde/cookbook/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex         = "E_LEX"
	EParse       = "E_PARSE"
	EReturnTop   = "E_RETURN_TOP"
	EDupParam    = "E_DUP_PARAM"
	EUnreachable = "E_UNREACHABLE"
	EType        = "E_TYPE"
	EDivZero     = "E_DIV_ZERO"
	EUnbound     = "E_UNBOUND"
	EArity       = "E_ARITY"
	ENotCallable = "E_NOT_CALLABLE"
	EReturn      = "E_RETURN"
	ENative      = "E_NATIVE"
	EIO          = "E_IO"
	EStack       = "E_STACK"
	EConfig      = "E_CONFIG"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

var runtimeCodes = map[string]bool{
	EType:        true,
	EDivZero:     true,
	EUnbound:     true,
	EArity:       true,
	ENotCallable: true,
	EReturn:      true,
	ENative:      true,
	EIO:          true,
	EStack:       true,
}

// IsRuntime reports whether code belongs to the runtime error channel.
func IsRuntime(code string) bool {
	return runtimeCodes[code]
}

// Diagnostic represents a syntax, check, or runtime diagnostic.
type Diagnostic struct {
	Code     string    `json:"code"`
	Severity string    `json:"severity"`
	Message  string    `json:"message"`
	Where    string    `json:"where,omitempty"` // " at 'x'" or " at end" for syntax errors
	Span     *ast.Span `json:"span,omitempty"`
	Hint     string    `json:"hint,omitempty"`
}

// MakeDiag creates a new error-level Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: SeverityError,
		Message:  message,
		Span:     span,
		Hint:     hint,
	}
}

// MakeWarning creates a warning-level Diagnostic.
func MakeWarning(code, message string, span *ast.Span) Diagnostic {
	d := MakeDiag(code, message, span, "")
	d.Severity = SeverityWarning
	return d
}

// IsError reports whether d is error-level.
func (d Diagnostic) IsError() bool {
	return d.Severity != SeverityWarning
}

// Line returns the diagnostic's 1-based line, or 0 when it has no span.
func (d Diagnostic) Line() int {
	if d.Span == nil {
		return 0
	}
	return d.Span.StartLine
}

// FormatDiagnostic formats a single diagnostic for display.
//
// Pretty output uses the interpreter's classic shapes:
//
//	[line 3] Error at 'as': Expect expression.
//	[line 7] Runtime error: Division by zero.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	var label string
	switch {
	case IsRuntime(d.Code):
		label = "Runtime error"
	case !d.IsError():
		label = "Warning"
	default:
		label = "Error" + d.Where
	}
	out := fmt.Sprintf("[line %d] %s: %s", d.Line(), label, d.Message)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n")
}

// HasErrors reports whether any diagnostic is error-level.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.IsError() {
			return true
		}
	}
	return false
}
