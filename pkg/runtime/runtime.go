// Package runtime provides the top-level Cookbook runtime orchestrator.
package runtime

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/thomasrohde/cookbook/pkg/diagnostics"
	"github.com/thomasrohde/cookbook/pkg/evaluator"
	"github.com/thomasrohde/cookbook/pkg/formatter"
	"github.com/thomasrohde/cookbook/pkg/parser"
	"github.com/thomasrohde/cookbook/pkg/stdlib"
	"github.com/thomasrohde/cookbook/pkg/validator"
)

// Result holds the outcome of one Run.
type Result struct {
	// Value of the last top-level expression statement, if any.
	Value evaluator.Value
	// Diagnostics are the syntax errors of the source. Statements they
	// affected were skipped; the rest still ran.
	Diagnostics []diagnostics.Diagnostic
	Statements  int
	Calls       int
	RunID       string
}

// HasSyntaxErrors reports whether the source had syntax errors.
func (r *Result) HasSyntaxErrors() bool {
	return r != nil && diagnostics.HasErrors(r.Diagnostics)
}

// Runtime wires together all Cookbook components. Global bindings persist
// across Run calls on the same Runtime.
type Runtime struct {
	natives []*evaluator.Native
	stdout  io.Writer
	runID   string
	trace   func(event evaluator.TraceEvent)
	logger  *slog.Logger

	interp *evaluator.Interpreter
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithStdout sets where print and show write.
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithNatives replaces the default native functions.
func WithNatives(natives ...*evaluator.Native) Option {
	return func(rt *Runtime) {
		rt.natives = natives
	}
}

// WithRunID fixes the run ID for trace events. Without it every Run gets a
// fresh UUID.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// New creates a new Runtime with the given options.
// By default the stdlib natives are bound, output goes to os.Stdout and
// logs are discarded.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		natives: stdlib.Defaults(),
		stdout:  os.Stdout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(rt)
	}
	rt.interp = evaluator.NewInterpreter(evaluator.ExecOptions{
		Stdout:  rt.stdout,
		Natives: rt.natives,
		Trace:   rt.trace,
	})
	return rt
}

// Run parses and executes a Cookbook program. Syntax errors are reported in
// Result.Diagnostics and do not stop the statements that parsed from
// running. A runtime error is returned as *evaluator.RuntimeError together
// with the partial result.
func (rt *Runtime) Run(source, filename string) (*Result, error) {
	runID := rt.runID
	if runID == "" {
		runID = uuid.New().String()
	}
	log := rt.logger.With("run", runID, "file", filename)

	program, diags := parser.Parse(source, filename)
	log.Debug("parsed", "statements", len(program.Statements), "diagnostics", len(diags))

	rt.interp.SetRunID(runID)
	res, err := rt.interp.Execute(program)

	out := &Result{Diagnostics: diags, RunID: runID}
	if res != nil {
		out.Value = res.Value
		out.Statements = res.Statements
		out.Calls = res.Calls
	}
	if err != nil {
		log.Debug("runtime error", "err", err)
		return out, err
	}
	log.Debug("finished", "statements", out.Statements, "calls", out.Calls)
	return out, nil
}

// Check parses and validates a Cookbook program without executing it.
// Syntax errors are returned alone; validation runs only on clean parses.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return diags
	}
	return validator.Validate(program)
}

// Format parses and formats a Cookbook program. Sources with syntax errors
// are not formatted.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Format(program), nil
}

// Globals returns the names bound in the session's global scope.
func (rt *Runtime) Globals() []string {
	return rt.interp.Globals().Names()
}

// Process exit codes used by the CLI.
const (
	ExitOK      = 0
	ExitUsage   = 1
	ExitSyntax  = 65
	ExitRuntime = 70
)

// ExitCode maps the outcome of Run to a process exit code. Syntax errors
// take precedence over a runtime error raised by the statements that did
// parse.
func ExitCode(res *Result, err error) int {
	if res.HasSyntaxErrors() {
		return ExitSyntax
	}
	if err == nil {
		return ExitOK
	}
	var rerr *evaluator.RuntimeError
	if errors.As(err, &rerr) {
		return ExitRuntime
	}
	return ExitUsage
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = diagnostics.FormatDiagnostic(d, true)
	}
	return strings.Join(msgs, "; ")
}
