package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunExpression(t *testing.T) {
	p, err := Compile("1 + 2;")
	require.NoError(t, err)
	rt := NewRuntime()
	v, err := rt.Run(p)
	require.NoError(t, err)
	assert.EqualValues(t, 3, v)
}

func TestProgramSharedAcrossRuntimes(t *testing.T) {
	p, err := Compile("Math.random();")
	require.NoError(t, err)
	rt1 := NewRuntime()
	rt2 := NewRuntime()
	_, err = rt1.Run(p)
	require.NoError(t, err)
	_, err = rt2.Run(p)
	require.NoError(t, err)
}

func TestSetGlobalVisibleToProgram(t *testing.T) {
	rt := NewRuntime()
	require.NoError(t, rt.Set("W", map[string]any{"count": 0}))
	p, err := Compile("W.count + 1;")
	require.NoError(t, err)
	v, err := rt.Run(p)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)
}

func TestCallGlobalFunction(t *testing.T) {
	rt := NewRuntime()
	setup, err := Compile(`function double(args) { return Number(args.n) * 2; }`)
	require.NoError(t, err)
	_, err = rt.Run(setup)
	require.NoError(t, err)

	v, err := rt.CallGlobal("double", "", map[string]string{"n": "21"})
	require.NoError(t, err)
	assert.EqualValues(t, 42, v)
}

func TestCallGlobalMethod(t *testing.T) {
	rt := NewRuntime()
	setup, err := Compile(`var ns = {double: function(args){ return Number(args.n) * 2; }};`)
	require.NoError(t, err)
	_, err = rt.Run(setup)
	require.NoError(t, err)

	v, err := rt.CallGlobal("ns", "double", map[string]string{"n": "10"})
	require.NoError(t, err)
	assert.EqualValues(t, 20, v)
}

func TestCallGlobalMissing(t *testing.T) {
	rt := NewRuntime()
	_, err := rt.CallGlobal("nope", "", nil)
	assert.Error(t, err)
}
