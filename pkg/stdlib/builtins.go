package stdlib

import (
	"fmt"
	"time"

	"github.com/thomasrohde/cookbook/pkg/evaluator"
)

// RegisterDefaults adds the built-in natives.
func RegisterDefaults(r *Registry) {
	r.Register(evaluator.NewNative("clock", 0, nativeClock))
	r.Register(evaluator.NewNative("show", 1, nativeShow))
}

// clock() → seconds since the session started
func nativeClock(nc evaluator.NativeContext, _ []evaluator.Value) (evaluator.Value, error) {
	return evaluator.Number{Value: time.Since(nc.Started).Seconds()}, nil
}

// show(value) → writes the value and a newline, returns nil
func nativeShow(nc evaluator.NativeContext, args []evaluator.Value) (evaluator.Value, error) {
	if _, err := fmt.Fprintln(nc.Stdout, evaluator.Stringify(args[0])); err != nil {
		return nil, fmt.Errorf("write failed: %w", err)
	}
	return evaluator.Nil{}, nil
}
