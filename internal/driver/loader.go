package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ripple/internal/ast"
	"ripple/internal/source"
)

// Loader reads and decodes .rast module archives, caching by absolute path
// so a module shared by several roots is decoded once. Thread-safe.
type Loader struct {
	mu    sync.Mutex
	fs    *source.FileSet
	cache map[string]*LoadedModule
}

// LoadedModule is one decoded archive with its file identity.
type LoadedModule struct {
	Path    string
	FileID  source.FileID
	Builder *ast.Builder
}

func NewLoader() *Loader {
	return &Loader{
		fs:    source.NewFileSet(),
		cache: make(map[string]*LoadedModule),
	}
}

// FileSet exposes the loader's file table for diagnostic rendering.
func (l *Loader) FileSet() *source.FileSet { return l.fs }

// Load decodes the archive at path, verifying arena parentage before
// handing it out. Repeated loads of the same path return the cached module.
func (l *Loader) Load(path string) (*LoadedModule, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	if m, ok := l.cache[abs]; ok {
		l.mu.Unlock()
		return m, nil
	}
	l.mu.Unlock()

	f, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	l.mu.Lock()
	defer l.mu.Unlock()
	// Another goroutine may have decoded it while we were opening.
	if m, ok := l.cache[abs]; ok {
		return m, nil
	}
	fileID := l.fs.AddVirtual(abs, nil)
	b, err := ast.DecodeModule(f, fileID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}
	if err := b.VerifyParentage(); err != nil {
		return nil, fmt.Errorf("%s: malformed module archive: %w", abs, err)
	}
	m := &LoadedModule{Path: abs, FileID: fileID, Builder: b}
	l.cache[abs] = m
	return m, nil
}
