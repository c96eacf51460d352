package evaluator

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/thomasrohde/cookbook/pkg/ast"
	"github.com/thomasrohde/cookbook/pkg/diagnostics"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart    TraceEventType = "run_start"
	TraceRunEnd      TraceEventType = "run_end"
	TraceStmtStart   TraceEventType = "stmt_start"
	TraceStmtEnd     TraceEventType = "stmt_end"
	TraceFnCallStart TraceEventType = "fn_call_start"
	TraceFnCallEnd   TraceEventType = "fn_call_end"
)

// TraceEvent represents a single trace event emitted during execution.
type TraceEvent struct {
	Timestamp string            `json:"ts"`
	RunID     string            `json:"runId"`
	Event     TraceEventType    `json:"event"`
	Span      *ast.Span         `json:"span,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// ExecOptions configures program execution.
type ExecOptions struct {
	// Stdout receives print output. Defaults to os.Stdout.
	Stdout  io.Writer
	Natives []*Native
	Trace   func(event TraceEvent)
	RunID   string
}

// ExecResult holds the result of a program execution.
type ExecResult struct {
	// Value is the value of the final top-level expression statement, or
	// nil when the program did not end with one.
	Value      Value
	Statements int
	Calls      int
}

// RuntimeError represents a runtime error during execution.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Line returns the 1-based line the error was raised on, or 0.
func (e *RuntimeError) Line() int {
	if e.Span == nil {
		return 0
	}
	return e.Span.StartLine
}

// Diagnostic converts the error to the shared diagnostic record.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message, e.Span, "")
}

func runtimeErr(code string, span ast.Span, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Span:    &span,
	}
}

// completion is the outcome of executing a statement: either normal, or a
// serve unwinding to the nearest call boundary with value.
type completion struct {
	returning bool
	value     Value
	span      ast.Span
}

// Interpreter executes programs against a global environment that persists
// across Execute calls.
type Interpreter struct {
	opts    ExecOptions
	globals *Env
	started time.Time
}

// NewInterpreter creates an interpreter and binds opts.Natives in its
// global environment.
func NewInterpreter(opts ExecOptions) *Interpreter {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	in := &Interpreter{
		opts:    opts,
		globals: NewEnv(nil),
		started: time.Now(),
	}
	for _, n := range opts.Natives {
		in.globals.Set(n.Name(), n)
	}
	return in
}

// Globals returns the interpreter's outermost environment.
func (in *Interpreter) Globals() *Env {
	return in.globals
}

// SetRunID changes the run id stamped on subsequent trace events.
func (in *Interpreter) SetRunID(id string) {
	in.opts.RunID = id
}

// Execute runs a single program with a fresh global environment.
func Execute(program *ast.Program, opts ExecOptions) (*ExecResult, error) {
	return NewInterpreter(opts).Execute(program)
}

// Execute runs program's statements in order against the global
// environment. A runtime error stops execution and is returned as a
// *RuntimeError; bindings made before it remain visible to later calls.
func (in *Interpreter) Execute(program *ast.Program) (*ExecResult, error) {
	ev := &evaluator{
		opts: in.opts,
		nctx: NativeContext{Stdout: in.opts.Stdout, Started: in.started},
	}

	span := program.Span
	ev.emit(TraceRunStart, &span)
	res, err := ev.executeProgram(program, in.globals)
	ev.emitWithData(TraceRunEnd, &span, map[string]string{
		"statements": strconv.Itoa(ev.stmts),
		"calls":      strconv.Itoa(ev.calls),
	})
	return res, err
}

// maxCallDepth bounds nested recipe calls; deeper calls fail with E_STACK.
const maxCallDepth = 10000

type evaluator struct {
	opts  ExecOptions
	nctx  NativeContext
	stmts int
	calls int
	depth int
}

func (ev *evaluator) emit(event TraceEventType, span *ast.Span) {
	ev.emitWithData(event, span, nil)
}

func (ev *evaluator) emitWithData(event TraceEventType, span *ast.Span, data map[string]string) {
	if ev.opts.Trace != nil {
		ev.opts.Trace(TraceEvent{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			RunID:     ev.opts.RunID,
			Event:     event,
			Span:      span,
			Data:      data,
		})
	}
}

func (ev *evaluator) executeProgram(program *ast.Program, env *Env) (*ExecResult, error) {
	res := &ExecResult{}
	for _, stmt := range program.Statements {
		res.Value = nil
		if es, ok := stmt.(*ast.ExprStmt); ok {
			val, err := ev.execExprStmt(es, env)
			if err != nil {
				return ev.finish(res), err
			}
			res.Value = val
			continue
		}

		c, err := ev.exec(stmt, env)
		if err != nil {
			return ev.finish(res), err
		}
		if c.returning {
			return ev.finish(res), runtimeErr(diagnostics.EReturn, c.span, "Cannot serve from top-level code.")
		}
	}
	return ev.finish(res), nil
}

func (ev *evaluator) finish(res *ExecResult) *ExecResult {
	res.Statements = ev.stmts
	res.Calls = ev.calls
	return res
}

func (ev *evaluator) execExprStmt(s *ast.ExprStmt, env *Env) (Value, error) {
	span := s.Span
	ev.stmts++
	ev.emit(TraceStmtStart, &span)
	val, err := ev.eval(s.Expr, env)
	ev.emit(TraceStmtEnd, &span)
	return val, err
}

// execBlock runs stmts in env, stopping at the first error or serve.
func (ev *evaluator) execBlock(stmts []ast.Stmt, env *Env) (completion, error) {
	for _, stmt := range stmts {
		c, err := ev.exec(stmt, env)
		if err != nil || c.returning {
			return c, err
		}
	}
	return completion{}, nil
}

func (ev *evaluator) exec(stmt ast.Stmt, env *Env) (completion, error) {
	span := stmt.NodeSpan()
	ev.stmts++
	ev.emit(TraceStmtStart, &span)
	c, err := ev.execStmt(stmt, env)
	ev.emit(TraceStmtEnd, &span)
	return c, err
}

func (ev *evaluator) execStmt(stmt ast.Stmt, env *Env) (completion, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := ev.eval(s.Expr, env)
		return completion{}, err

	case *ast.PrintStmt:
		val, err := ev.eval(s.Expr, env)
		if err != nil {
			return completion{}, err
		}
		if _, err := fmt.Fprintln(ev.opts.Stdout, Stringify(val)); err != nil {
			return completion{}, runtimeErr(diagnostics.EIO, s.Span, "print failed: %s", err)
		}
		return completion{}, nil

	case *ast.VarDecl:
		val, err := ev.eval(s.Init, env)
		if err != nil {
			return completion{}, err
		}
		env.Set(s.Name, val)
		return completion{}, nil

	case *ast.AssignStmt:
		val, err := ev.eval(s.Value, env)
		if err != nil {
			return completion{}, err
		}
		if !env.Assign(s.Name, val) {
			return completion{}, runtimeErr(diagnostics.EUnbound, s.Span, "Undefined variable '%s'.", s.Name)
		}
		return completion{}, nil

	case *ast.BlockStmt:
		// The child scope is simply dropped on every exit path.
		return ev.execBlock(s.Stmts, env.Child())

	case *ast.IfStmt:
		cond, err := ev.eval(s.Cond, env)
		if err != nil {
			return completion{}, err
		}
		if Truthiness(cond) {
			return ev.exec(s.Then, env)
		}
		if s.Else != nil {
			return ev.exec(s.Else, env)
		}
		return completion{}, nil

	case *ast.WhileStmt:
		for {
			cond, err := ev.eval(s.Cond, env)
			if err != nil {
				return completion{}, err
			}
			if !Truthiness(cond) {
				return completion{}, nil
			}
			c, err := ev.exec(s.Body, env)
			if err != nil || c.returning {
				return c, err
			}
		}

	case *ast.FunDecl:
		env.Set(s.Name, &Function{decl: s, closure: env})
		return completion{}, nil

	case *ast.ReturnStmt:
		var val Value = Nil{}
		if s.Value != nil {
			v, err := ev.eval(s.Value, env)
			if err != nil {
				return completion{}, err
			}
			val = v
		}
		return completion{returning: true, value: val, span: s.Span}, nil

	case *ast.NoOpStmt:
		return completion{}, nil

	default:
		return completion{}, runtimeErr(diagnostics.EType, stmt.NodeSpan(), "unsupported statement type: %T", stmt)
	}
}

func (ev *evaluator) eval(expr ast.Expr, env *Env) (Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return Number{Value: e.Value}, nil

	case *ast.StringLiteral:
		return String{Value: e.Value}, nil

	case *ast.BoolLiteral:
		return Bool{Value: e.Value}, nil

	case *ast.NilLiteral:
		return Nil{}, nil

	case *ast.Grouping:
		return ev.eval(e.Expr, env)

	case *ast.Variable:
		val, ok := env.Get(e.Name)
		if !ok {
			return nil, runtimeErr(diagnostics.EUnbound, e.Span, "Undefined variable '%s'.", e.Name)
		}
		return val, nil

	case *ast.UnaryExpr:
		return ev.evalUnary(e, env)

	case *ast.BinaryExpr:
		return ev.evalBinary(e, env)

	case *ast.LogicalExpr:
		return ev.evalLogical(e, env)

	case *ast.CallExpr:
		return ev.evalCall(e, env)

	default:
		return nil, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("unsupported expression type: %T", expr),
		}
	}
}

func (ev *evaluator) evalUnary(e *ast.UnaryExpr, env *Env) (Value, error) {
	operand, err := ev.eval(e.Operand, env)
	if err != nil {
		return nil, err
	}
	if num, ok := operand.(Number); ok {
		return Number{Value: -num.Value}, nil
	}
	return nil, runtimeErr(diagnostics.EType, e.Span, "Operand of '%s' must be a number, got %s.", e.Op, TypeName(operand))
}

func (ev *evaluator) evalLogical(e *ast.LogicalExpr, env *Env) (Value, error) {
	left, err := ev.eval(e.Left, env)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case ast.OpOr:
		if Truthiness(left) {
			return left, nil
		}
	case ast.OpAnd:
		if !Truthiness(left) {
			return left, nil
		}
	}
	return ev.eval(e.Right, env)
}

func (ev *evaluator) evalBinary(e *ast.BinaryExpr, env *Env) (Value, error) {
	left, err := ev.eval(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := ev.eval(e.Right, env)
	if err != nil {
		return nil, err
	}

	lNum, lIsNum := left.(Number)
	rNum, rIsNum := right.(Number)
	bothNumbers := lIsNum && rIsNum

	switch e.Op {
	case ast.OpMix:
		if bothNumbers {
			return Number{Value: lNum.Value + rNum.Value}, nil
		}
		_, lIsStr := left.(String)
		_, rIsStr := right.(String)
		if lIsStr || rIsStr {
			return String{Value: Stringify(left) + Stringify(right)}, nil
		}
		return nil, runtimeErr(diagnostics.EType, e.Span,
			"Operands of 'mix' must be two numbers or include a string, got %s and %s.", TypeName(left), TypeName(right))

	case ast.OpTakeAway:
		if bothNumbers {
			return Number{Value: lNum.Value - rNum.Value}, nil
		}
		if lStr, ok := left.(String); ok {
			switch r := right.(type) {
			case Number:
				return String{Value: strings.ReplaceAll(lStr.Value, strconv.FormatInt(int64(r.Value), 10), "")}, nil
			case String:
				if r.Value == "" {
					return lStr, nil
				}
				return String{Value: strings.ReplaceAll(lStr.Value, r.Value, "")}, nil
			}
		}
		return nil, runtimeErr(diagnostics.EType, e.Span,
			"Cannot take away %s from %s.", TypeName(right), TypeName(left))

	case ast.OpCombine, ast.OpShare, ast.OpGt, ast.OpLt:
		if !bothNumbers {
			return nil, runtimeErr(diagnostics.EType, e.Span,
				"Operands of '%s' must be numbers, got %s and %s.", e.Op, TypeName(left), TypeName(right))
		}
		switch e.Op {
		case ast.OpCombine:
			return Number{Value: lNum.Value * rNum.Value}, nil
		case ast.OpShare:
			if rNum.Value == 0 {
				return nil, runtimeErr(diagnostics.EDivZero, e.Span, "Division by zero.")
			}
			return Number{Value: lNum.Value / rNum.Value}, nil
		case ast.OpGt:
			return Bool{Value: lNum.Value > rNum.Value}, nil
		default:
			return Bool{Value: lNum.Value < rNum.Value}, nil
		}

	case ast.OpEqEq:
		return Bool{Value: Equal(left, right)}, nil
	}

	return nil, runtimeErr(diagnostics.EType, e.Span, "unknown operator '%s'", e.Op)
}

func (ev *evaluator) evalCall(e *ast.CallExpr, env *Env) (Value, error) {
	callee, err := ev.eval(e.Callee, env)
	if err != nil {
		return nil, err
	}

	args := make([]Value, 0, len(e.Args))
	for _, arg := range e.Args {
		val, err := ev.eval(arg, env)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}

	fn, ok := callee.(Callable)
	if !ok {
		return nil, runtimeErr(diagnostics.ENotCallable, e.Span,
			"Can only call recipes and natives, got %s.", TypeName(callee))
	}
	if len(args) != fn.Arity() {
		return nil, runtimeErr(diagnostics.EArity, e.Span,
			"Expected %d arguments but got %d.", fn.Arity(), len(args))
	}

	span := e.Span
	if _, ok := fn.(*Function); ok {
		if ev.depth >= maxCallDepth {
			return nil, runtimeErr(diagnostics.EStack, span, "Stack overflow.")
		}
		ev.depth++
		defer func() { ev.depth-- }()
	}
	ev.calls++
	ev.emitWithData(TraceFnCallStart, &span, map[string]string{"fn": fn.Name()})
	result, err := ev.call(fn, args, span)
	ev.emitWithData(TraceFnCallEnd, &span, map[string]string{"fn": fn.Name()})
	return result, err
}

func (ev *evaluator) call(fn Callable, args []Value, span ast.Span) (Value, error) {
	switch f := fn.(type) {
	case *Function:
		env := f.closure.Child()
		for i, param := range f.decl.Params {
			env.Set(param, args[i])
		}
		c, err := ev.execBlock(f.decl.Body, env)
		if err != nil {
			return nil, err
		}
		if c.returning {
			return c.value, nil
		}
		return Nil{}, nil

	case *Native:
		val, err := f.impl(ev.nctx, args)
		if err != nil {
			var rtErr *RuntimeError
			if errors.As(err, &rtErr) {
				if rtErr.Span == nil {
					rtErr.Span = &span
				}
				return nil, rtErr
			}
			return nil, runtimeErr(diagnostics.ENative, span, "%s: %s", f.Name(), err)
		}
		if val == nil {
			val = Nil{}
		}
		return val, nil
	}

	return nil, runtimeErr(diagnostics.ENotCallable, span, "Can only call recipes and natives.")
}
