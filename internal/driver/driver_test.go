package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ripple/internal/ast"
	"ripple/internal/source"
)

// writeModule encodes a builder into dir as name.rast and returns the path.
func writeModule(t *testing.T, dir string, b *ast.Builder) string {
	t.Helper()
	path := filepath.Join(dir, b.Module.Name+".rast")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, ast.EncodeModule(f, b))
	require.NoError(t, f.Close())
	return path
}

// identityModule is `pub fn id(x: u8) -> u8 { x }`.
func identityModule(name string) *ast.Builder {
	b := ast.NewBuilder(name, 0)
	var sp source.Span
	xDef := b.NewNameDef(sp, b.Intern("x"))
	u8 := func() ast.TypeID { return b.Types.NewBits(sp, false, 8) }
	param := b.NewParam(sp, xDef, u8())
	body := b.Exprs.NewNameRef(sp, b.Intern("x"), xDef)
	fn := b.NewFn(ast.Fn{
		Span: sp, Name: b.NewNameDef(sp, b.Intern("id")),
		Params: []ast.ParamID{param}, ReturnType: u8(), Body: body, Public: true,
	})
	b.AddMember(ast.MemberFn, uint32(fn))
	return b
}

// constModule is `pub const K: u32 = 7;`.
func constModule(name string) *ast.Builder {
	b := ast.NewBuilder(name, 0)
	var sp source.Span
	u32 := func() ast.TypeID { return b.Types.NewBits(sp, false, 32) }
	value := b.Exprs.NewNumber(sp, ast.NumberTyped, b.Intern("7"), u32())
	c := b.NewConstant(ast.Constant{
		Span: sp, Name: b.NewNameDef(sp, b.Intern("K")), Type: u32(), Value: value, Public: true,
	})
	b.AddMember(ast.MemberConstant, uint32(c))
	return b
}

// importingModule imports `imported` and re-exports its K.
func importingModule(name, imported string) *ast.Builder {
	b := ast.NewBuilder(name, 0)
	var sp source.Span
	alias := b.NewNameDef(sp, b.Intern(imported))
	imp := b.NewImport(ast.Import{
		Span: sp, Subject: []source.StringID{b.Intern(imported)}, Alias: alias,
	})
	b.AddMember(ast.MemberImport, uint32(imp))
	attr := b.Exprs.NewColonRef(sp,
		b.Exprs.NewNameRef(sp, b.Intern(imported), alias), b.Intern("K"))
	c := b.NewConstant(ast.Constant{
		Span: sp, Name: b.NewNameDef(sp, b.Intern("K")), Value: attr, Public: true,
	})
	b.AddMember(ast.MemberConstant, uint32(c))
	return b
}

// brokenModule fails checking: the annotation and value widths disagree.
func brokenModule(name string) *ast.Builder {
	b := ast.NewBuilder(name, 0)
	var sp source.Span
	value := b.Exprs.NewNumber(sp, ast.NumberTyped, b.Intern("1"), b.Types.NewBits(sp, false, 32))
	c := b.NewConstant(ast.Constant{
		Span: sp, Name: b.NewNameDef(sp, b.Intern("K")),
		Type: b.Types.NewBits(sp, false, 8), Value: value, Public: true,
	})
	b.AddMember(ast.MemberConstant, uint32(c))
	return b
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	content := `
[package]
name = "demo"

[check]
search = ["lib", "/abs/vendor"]
max_warnings = 10
jobs = 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", m.Name)
	assert.Equal(t, 10, m.MaxWarnings)
	assert.Equal(t, 2, m.Jobs)
	require.Len(t, m.Search, 2)
	assert.Equal(t, filepath.Join(m.Root, "lib"), m.Search[0])
	assert.Equal(t, "/abs/vendor", m.Search[1])
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	require.NoError(t, os.WriteFile(path, []byte("[package]\nname = \"demo\"\n"), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxWarnings, m.MaxWarnings)
	assert.Equal(t, []string{m.Root}, m.Search)
}

func TestLoadManifestMissingPackage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	require.NoError(t, os.WriteFile(path, []byte("[check]\njobs = 1\n"), 0o644))

	_, err := LoadManifest(path)
	require.ErrorIs(t, err, ErrPackageSectionMissing)
}

func TestFindManifest(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	manifest := filepath.Join(dir, ManifestName)
	require.NoError(t, os.WriteFile(manifest, []byte("[package]\nname = \"x\"\n"), 0o644))

	found, ok, err := FindManifest(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, manifest, found)
}

func TestLoaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeModule(t, dir, identityModule("ident"))

	loader := NewLoader()
	first, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ident", first.Builder.Module.Name)
	_, ok := first.Builder.FindFn("id")
	assert.True(t, ok)

	second, err := loader.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, second, "repeated loads should hit the cache")
}

func TestLoaderRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "junk.rast")
	require.NoError(t, os.WriteFile(path, []byte("not a module archive"), 0o644))

	_, err := NewLoader().Load(path)
	require.Error(t, err)
}

func TestResolverImport(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, constModule("lib"))
	rootPath := writeModule(t, dir, importingModule("app", "lib"))

	m := DefaultManifest(dir)
	resolver := NewResolver(NewLoader(), m, nil)
	loaded, info, err := resolver.CheckFile(rootPath, nil)
	require.NoError(t, err)
	require.NotNil(t, info)

	c := loaded.Builder.Constants.Get(1)
	require.NotNil(t, c)
	v, ok := info.GetConstexpr(ast.NameDefRef(c.Name))
	require.True(t, ok)
	got, err := v.AsInt64()
	require.NoError(t, err)
	assert.EqualValues(t, 7, got)
}

func TestResolverImportNotFound(t *testing.T) {
	dir := t.TempDir()
	rootPath := writeModule(t, dir, importingModule("app", "nowhere"))

	resolver := NewResolver(NewLoader(), DefaultManifest(dir), nil)
	_, _, err := resolver.CheckFile(rootPath, nil)
	require.ErrorContains(t, err, "Could not find module 'nowhere'")
}

func TestResolverImportCycle(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, importingModule("a", "b"))
	writeModule(t, dir, importingModule("b", "a"))
	rootPath := filepath.Join(dir, "a.rast")

	resolver := NewResolver(NewLoader(), DefaultManifest(dir), nil)
	_, _, err := resolver.CheckFile(rootPath, nil)
	require.ErrorContains(t, err, "Import cycle detected")
}

func TestCheckProject(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, constModule("lib"))
	good := writeModule(t, dir, importingModule("app", "lib"))
	other := writeModule(t, dir, identityModule("util"))
	bad := writeModule(t, dir, brokenModule("broken"))

	p := NewProject(DefaultManifest(dir))
	results, err := p.CheckProject(context.Background(), []string{good, other, bad})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, good, results[0].Path)
	assert.NoError(t, results[0].Err)
	require.NotNil(t, results[0].Info)

	assert.NoError(t, results[1].Err)

	require.Error(t, results[2].Err)
	assert.ErrorContains(t, results[2].Err,
		"Annotated type did not match inferred type of right hand side expression.")
}

func TestCheckProjectEmpty(t *testing.T) {
	p := NewProject(DefaultManifest(t.TempDir()))
	results, err := p.CheckProject(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
