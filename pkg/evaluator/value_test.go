package evaluator_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thomasrohde/cookbook/pkg/evaluator"
)

func TestTruthiness(t *testing.T) {
	tests := []struct {
		value    evaluator.Value
		expected bool
	}{
		{nil, false},
		{evaluator.Nil{}, false},
		{evaluator.Bool{Value: false}, false},
		{evaluator.Bool{Value: true}, true},
		{evaluator.Number{Value: 0}, true},
		{evaluator.Number{Value: -1}, true},
		{evaluator.String{Value: ""}, true},
		{evaluator.String{Value: "pie"}, true},
		{evaluator.NewNative("clock", 0, nil), true},
	}

	for i, tt := range tests {
		got := evaluator.Truthiness(tt.value)
		if got != tt.expected {
			t.Errorf("test %d: Truthiness(%v) = %v, want %v", i, tt.value, got, tt.expected)
		}
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		value evaluator.Value
		want  string
	}{
		{evaluator.Nil{}, "nil"},
		{nil, "nil"},
		{evaluator.Bool{Value: true}, "true"},
		{evaluator.Bool{Value: false}, "false"},
		{evaluator.Number{Value: 8}, "8"},
		{evaluator.Number{Value: -2}, "-2"},
		{evaluator.Number{Value: 2.5}, "2.5"},
		{evaluator.Number{Value: 1e6}, "1000000"},
		{evaluator.Number{Value: math.Inf(1)}, "Infinity"},
		{evaluator.Number{Value: math.Inf(-1)}, "-Infinity"},
		{evaluator.Number{Value: math.NaN()}, "NaN"},
		{evaluator.String{Value: "raw \"text\""}, "raw \"text\""},
		{evaluator.NewNative("show", 1, nil), "<native fn show>"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, evaluator.Stringify(tt.value))
		})
	}
}

func TestEqual(t *testing.T) {
	clock := evaluator.NewNative("clock", 0, nil)
	other := evaluator.NewNative("clock", 0, nil)

	assert.True(t, evaluator.Equal(evaluator.Nil{}, nil))
	assert.True(t, evaluator.Equal(evaluator.Number{Value: 1}, evaluator.Number{Value: 1}))
	assert.False(t, evaluator.Equal(evaluator.Number{Value: 1}, evaluator.String{Value: "1"}))
	assert.False(t, evaluator.Equal(evaluator.Bool{Value: false}, evaluator.Nil{}))
	assert.True(t, evaluator.Equal(evaluator.String{Value: "a"}, evaluator.String{Value: "a"}))
	assert.True(t, evaluator.Equal(clock, clock))
	assert.False(t, evaluator.Equal(clock, other))
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "nil", evaluator.TypeName(evaluator.Nil{}))
	assert.Equal(t, "boolean", evaluator.TypeName(evaluator.Bool{}))
	assert.Equal(t, "number", evaluator.TypeName(evaluator.Number{}))
	assert.Equal(t, "string", evaluator.TypeName(evaluator.String{}))
	assert.Equal(t, "native function", evaluator.TypeName(evaluator.NewNative("f", 0, nil)))
}

func TestEnvChain(t *testing.T) {
	global := evaluator.NewEnv(nil)
	global.Set("flour", evaluator.Number{Value: 500})

	block := global.Child()
	block.Set("sugar", evaluator.Number{Value: 100})

	v, ok := block.Get("flour")
	assert.True(t, ok)
	assert.Equal(t, evaluator.Number{Value: 500}, v)
	assert.False(t, global.Has("sugar"))
	assert.Same(t, global, block.Parent())

	// Assign mutates the defining scope, not the current one.
	assert.True(t, block.Assign("flour", evaluator.Number{Value: 250}))
	v, _ = global.Get("flour")
	assert.Equal(t, evaluator.Number{Value: 250}, v)
	assert.Equal(t, []string{"sugar"}, block.Names())

	assert.False(t, block.Assign("butter", evaluator.Nil{}))
	assert.False(t, block.Has("butter"))
}

func TestEnvShadowing(t *testing.T) {
	global := evaluator.NewEnv(nil)
	global.Set("a", evaluator.String{Value: "outer"})
	inner := global.Child()
	inner.Set("a", evaluator.String{Value: "inner"})

	v, _ := inner.Get("a")
	assert.Equal(t, evaluator.String{Value: "inner"}, v)
	v, _ = global.Get("a")
	assert.Equal(t, evaluator.String{Value: "outer"}, v)
}
