// Package evaluator implements the Cookbook tree-walking evaluator.
package evaluator

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/thomasrohde/cookbook/pkg/ast"
)

// Value is the interface for all Cookbook runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	value() // sealed marker
}

// Nil represents the absence of a value.
type Nil struct{}

func (Nil) value() {}

// Bool represents a boolean value.
type Bool struct {
	Value bool
}

func (Bool) value() {}

// Number represents a numeric value. All numbers are float64.
type Number struct {
	Value float64
}

func (Number) value() {}

// String represents a string value.
type String struct {
	Value string
}

func (String) value() {}

// Callable is implemented by values that can appear before "(...)".
type Callable interface {
	Value
	Name() string
	Arity() int
}

// Function is a user-defined recipe together with the environment it was
// declared in.
type Function struct {
	decl    *ast.FunDecl
	closure *Env
}

func (*Function) value() {}

// Name returns the recipe's declared name.
func (f *Function) Name() string { return f.decl.Name }

// Arity returns the number of declared parameters.
func (f *Function) Arity() int { return len(f.decl.Params) }

// NativeContext is handed to native implementations on every call.
type NativeContext struct {
	Stdout  io.Writer
	Started time.Time
}

// NativeFunc implements a native function. Returned errors that are not
// already *RuntimeError are reported as E_NATIVE at the call site.
type NativeFunc func(nc NativeContext, args []Value) (Value, error)

// Native is a function implemented in Go.
type Native struct {
	name  string
	arity int
	impl  NativeFunc
}

func (*Native) value() {}

// NewNative creates a native function value.
func NewNative(name string, arity int, impl NativeFunc) *Native {
	return &Native{name: name, arity: arity, impl: impl}
}

// Name returns the name the native is bound to.
func (n *Native) Name() string { return n.name }

// Arity returns the exact number of arguments the native accepts.
func (n *Native) Arity() int { return n.arity }

// Truthiness returns the boolean interpretation of a value.
// Only nil and false are falsy; 0 and "" are truthy.
func Truthiness(v Value) bool {
	switch val := v.(type) {
	case nil, Nil:
		return false
	case Bool:
		return val.Value
	default:
		return true
	}
}

// FormatNumber renders n the way print does: integral values without a
// fractional part, everything else in its shortest form. Overflowed
// results print as Infinity, -Infinity and NaN.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Stringify renders a value for print and for string mixing.
func Stringify(v Value) string {
	switch val := v.(type) {
	case nil, Nil:
		return "nil"
	case Bool:
		if val.Value {
			return "true"
		}
		return "false"
	case Number:
		return FormatNumber(val.Value)
	case String:
		return val.Value
	case *Function:
		return fmt.Sprintf("<recipe %s>", val.Name())
	case *Native:
		return fmt.Sprintf("<native fn %s>", val.Name())
	default:
		return fmt.Sprintf("%v", v)
	}
}

// TypeName returns the value's kind for error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case nil, Nil:
		return "nil"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case *Function:
		return "recipe"
	case *Native:
		return "native function"
	default:
		return "unknown"
	}
}

// Equal compares two values. Values of different kinds are never equal;
// callables are equal only to themselves.
func Equal(a, b Value) bool {
	if a == nil {
		a = Nil{}
	}
	if b == nil {
		b = Nil{}
	}

	switch av := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok

	case Bool:
		bv, ok := b.(Bool)
		return ok && av.Value == bv.Value

	case Number:
		bv, ok := b.(Number)
		return ok && av.Value == bv.Value

	case String:
		bv, ok := b.(String)
		return ok && av.Value == bv.Value

	case *Function:
		bv, ok := b.(*Function)
		return ok && av == bv

	case *Native:
		bv, ok := b.(*Native)
		return ok && av == bv
	}

	return false
}
