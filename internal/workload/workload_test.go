package workload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agutierrez/benchgo/internal/codespec"
)

func TestLookupBuiltin(t *testing.T) {
	fn, ok, err := Lookup("isprime", "")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, fn)
}

func TestLookupUnknownModule(t *testing.T) {
	_, ok, err := Lookup("does-not-exist", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLookupUnknownFunctionOfKnownModule(t *testing.T) {
	_, ok, err := Lookup("group", "explode")
	require.True(t, ok)
	assert.Error(t, err)
}

func TestIsPrimeDivision(t *testing.T) {
	fn, _, _ := Lookup("isprime", "")
	out, err := fn(context.Background(), codespec.Args{"n": "7919", "method": "division"})
	require.NoError(t, err)
	assert.Equal(t, true, out)

	out, err = fn(context.Background(), codespec.Args{"n": "7920", "method": "division"})
	require.NoError(t, err)
	assert.Equal(t, false, out)
}

func TestIsPrimeMillerRabin(t *testing.T) {
	fn, _, _ := Lookup("isprime", "")
	out, err := fn(context.Background(), codespec.Args{"n": "104729", "method": "miller-rabin"})
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestFactor(t *testing.T) {
	fn, _, _ := Lookup("factor", "")
	out, err := fn(context.Background(), codespec.Args{"n": "360"})
	require.NoError(t, err)
	facts := out.([][2]int64)
	assert.Equal(t, [][2]int64{{2, 3}, {3, 2}, {5, 1}}, facts)
}

func TestPiSpigotAndChudnovskyAgree(t *testing.T) {
	spigotFn, _, _ := Lookup("pi", "")
	spigot, err := spigotFn(context.Background(), codespec.Args{"digits": "20", "method": "spigot"})
	require.NoError(t, err)
	chud, err := spigotFn(context.Background(), codespec.Args{"digits": "20", "method": "chudnovsky"})
	require.NoError(t, err)
	assert.Equal(t, spigot, chud)
}

func TestMatrixMulDeterministic(t *testing.T) {
	fn, _, _ := Lookup("matrixmul", "")
	a, err := fn(context.Background(), codespec.Args{"size": "8", "seed": "42"})
	require.NoError(t, err)
	b, err := fn(context.Background(), codespec.Args{"size": "8", "seed": "42"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGroupCreateJoinLeaveDelete(t *testing.T) {
	name := "test-group-abc"
	createFn, _, _ := Lookup("group", "create")
	joinFn, _, _ := Lookup("group", "join")
	leaveFn, _, _ := Lookup("group", "leave")
	deleteFn, _, _ := Lookup("group", "delete")

	_, err := createFn(context.Background(), codespec.Args{"name": name})
	require.NoError(t, err)

	_, err = joinFn(context.Background(), codespec.Args{"name": name, "member": "w1"})
	require.NoError(t, err)
	_, err = leaveFn(context.Background(), codespec.Args{"name": name, "member": "w1"})
	require.NoError(t, err)

	_, err = deleteFn(context.Background(), codespec.Args{"name": name})
	require.NoError(t, err)

	stats := GroupStats(name)
	assert.Equal(t, Stats{}, stats) // deleted: entry gone, zero value
}

func TestWordCountAndHashDeterministic(t *testing.T) {
	wc, _, _ := Lookup("wordcount", "")
	out1, err := wc(context.Background(), codespec.Args{"seed": "7", "size": "2000"})
	require.NoError(t, err)
	out2, err := wc(context.Background(), codespec.Args{"seed": "7", "size": "2000"})
	require.NoError(t, err)
	assert.Equal(t, out1, out2)

	hashFn, _, _ := Lookup("hashfile", "")
	h1, err := hashFn(context.Background(), codespec.Args{"seed": "7", "size": "2000"})
	require.NoError(t, err)
	h2, err := hashFn(context.Background(), codespec.Args{"seed": "7", "size": "2000"})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}
