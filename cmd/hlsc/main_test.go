package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(append(args, "--no-color"))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func example(name string) string {
	return filepath.Join("..", "..", "examples", name)
}

func TestSSACommand(t *testing.T) {
	out, _, err := execute(t, "ssa", example("diamond.hir"))
	require.NoError(t, err)

	assert.Contains(t, out, "phi x#3 = (x#1 : left, x#2 : right);")
	assert.Contains(t, out, "c = @in_a > 0;")
}

func TestDomCommand(t *testing.T) {
	out, _, err := execute(t, "dom", example("diamond.hir"))
	require.NoError(t, err)

	assert.Contains(t, out, "scope diamond\nentry\n  left\n  right\n  merge\n")
	assert.Contains(t, out, "DF(left) = {merge}\n")
	assert.Contains(t, out, "DF(entry) = {}\n")
}

func TestDotCommand(t *testing.T) {
	out, _, err := execute(t, "dot", "--ssa", example("diamond.hir"))
	require.NoError(t, err)

	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "phi x#3")
}

func TestCheckCommand(t *testing.T) {
	out, _, err := execute(t, "check", example("loop.hir"), example("memory.hir"), "-j", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully processed "+example("loop.hir"))
	assert.Contains(t, out, "Successfully processed "+example("memory.hir"))

	bad := filepath.Join(t.TempDir(), "bad.hir")
	require.NoError(t, os.WriteFile(bad, []byte("scope s {\n  block a { ret; }\n  block dead { ret; }\n}\n"), 0o644))

	out, stderr, err := execute(t, "check", example("diamond.hir"), bad)
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "Successfully processed "+example("diamond.hir"))
	assert.Contains(t, stderr, "E0700")
	assert.Contains(t, stderr, "dead")
}

func TestInvalidOptions(t *testing.T) {
	_, _, err := execute(t, "check", "--jobs", "0", example("loop.hir"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "driver.jobs")

	_, _, err = execute(t, "ssa", "--config", filepath.Join(t.TempDir(), "missing.toml"), example("loop.hir"))
	assert.Error(t, err)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "12ns", formatDuration(12*time.Nanosecond))
	assert.Equal(t, "1.5μs", formatDuration(1500*time.Nanosecond))
	assert.Equal(t, "2.0ms", formatDuration(2*time.Millisecond))
	assert.Equal(t, "3.00s", formatDuration(3*time.Second))
	assert.Equal(t, "2.00min", formatDuration(2*time.Minute))
}
