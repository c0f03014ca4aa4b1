package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return stdout.String(), err
}

func TestGenerate(t *testing.T) {
	t.Chdir(t.TempDir())
	out := filepath.Join(t.TempDir(), "out")

	_, err := run(t, "generate", "--out", out, "--log-level", "error")
	require.NoError(t, err)

	for _, name := range []string{
		"assembly.yaml",
		"operation.yaml",
		"sub_assembly.yaml",
		filepath.Join("assembly", "assembly_fluid.go"),
		filepath.Join("operation", "operation_fluid.go"),
		filepath.Join("subassembly", "sub_assembly_fluid.go"),
	} {
		assert.FileExists(t, filepath.Join(out, name))
	}

	source, err := os.ReadFile(filepath.Join(out, "assembly", "assembly_fluid.go"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(source), "// Code generated by fluid. DO NOT EDIT."))

	ids, err := run(t, "describe", filepath.Join(out, "assembly.yaml"), "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, ids, `"startBranch"`)
	assert.Contains(t, ids, `"completeAssembly"`)
}

func TestGenerateDescriptorsOnly(t *testing.T) {
	t.Chdir(t.TempDir())
	out := filepath.Join(t.TempDir(), "out")

	_, err := run(t, "generate", "--out", out, "--format", "json", "--go-source=false", "--log-level", "error")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(out, "operation.json"))
	assert.NoDirExists(t, filepath.Join(out, "operation"))

	block, err := run(t, "describe", filepath.Join(out, "operation.json"),
		"--query", `root.methods.#(id=="filter").block.name`, "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "Filter\n", block)
}

func TestGenerateRejectsBadFormat(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := run(t, "generate", "--format", "toml", "--log-level", "error")
	assert.ErrorContains(t, err, "invalid descriptor format")
}

func TestGraph(t *testing.T) {
	t.Chdir(t.TempDir())

	dot, err := run(t, "graph", "*github.com/invakid404/fluid/pipe.RegexFilter", "--log-level", "error")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(dot, `digraph "RegexFilter" {`), dot)
	assert.Contains(t, dot, "->")
}

func TestGraphUnknownType(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := run(t, "graph", "example.com/nope.Missing", "--log-level", "error")
	assert.ErrorContains(t, err, "unknown type")
}

func TestDescribeNoMatch(t *testing.T) {
	t.Chdir(t.TempDir())
	out := filepath.Join(t.TempDir(), "out")

	_, err := run(t, "generate", "--out", out, "--go-source=false", "--log-level", "error")
	require.NoError(t, err)

	_, err = run(t, "describe", filepath.Join(out, "sub_assembly.yaml"), "--query", "root.nothing")
	assert.ErrorContains(t, err, "no match")
}
