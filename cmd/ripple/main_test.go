package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ripple/internal/ast"
	"ripple/internal/source"
	"ripple/internal/version"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConstModule(t *testing.T, dir, name, width string) string {
	t.Helper()
	b := ast.NewBuilder(name, 0)
	var sp source.Span
	value := b.Exprs.NewNumber(sp, ast.NumberTyped, b.Intern("1"), b.Types.NewBits(sp, false, 32))
	var typ ast.TypeID
	if width == "8" {
		typ = b.Types.NewBits(sp, false, 8)
	} else {
		typ = b.Types.NewBits(sp, false, 32)
	}
	c := b.NewConstant(ast.Constant{
		Span: sp, Name: b.NewNameDef(sp, b.Intern("K")), Type: typ, Value: value, Public: true,
	})
	b.AddMember(ast.MemberConstant, uint32(c))

	path := filepath.Join(dir, name+".rast")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, ast.EncodeModule(f, b))
	require.NoError(t, f.Close())
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version.Version)
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeConstModule(t, dir, "good", "32")

	out, err := runCLI(t, "check", "--color", "off", good)
	require.NoError(t, err)
	assert.Contains(t, out, "ok ")
}

func TestCheckCommandFailure(t *testing.T) {
	dir := t.TempDir()
	bad := writeConstModule(t, dir, "bad", "8")

	_, err := runCLI(t, "check", "--color", "off", bad)
	require.Error(t, err)
}

func TestDumpCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeConstModule(t, dir, "good", "32")

	out, err := runCLI(t, "dump", "--color", "off", good)
	require.NoError(t, err)
	assert.Contains(t, out, "module good")
	assert.Contains(t, out, "constexprs:")
}