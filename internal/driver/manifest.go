package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file the project root is identified by.
const ManifestName = "ripple.toml"

// DefaultMaxWarnings caps how many diagnostics a single check collects.
const DefaultMaxWarnings = 64

// Manifest is a project's ripple.toml: the package name plus checker
// settings. Search paths are resolved relative to the manifest directory.
type Manifest struct {
	Name        string
	Root        string   // directory containing the manifest
	Search      []string // absolute .rast search paths
	MaxWarnings int
	Jobs        int
}

// ErrPackageSectionMissing indicates that [package] is missing in a manifest.
var ErrPackageSectionMissing = errors.New("missing [package]")

type manifestFile struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Check struct {
		Search      []string `toml:"search"`
		MaxWarnings int      `toml:"max_warnings"`
		Jobs        int      `toml:"jobs"`
	} `toml:"check"`
}

// LoadManifest parses a ripple.toml and normalizes its settings.
func LoadManifest(path string) (Manifest, error) {
	var cfg manifestFile
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return Manifest{}, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	name := strings.TrimSpace(cfg.Package.Name)
	if name == "" {
		return Manifest{}, fmt.Errorf("%s: [package].name must not be empty", path)
	}
	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return Manifest{}, err
	}
	m := Manifest{
		Name:        name,
		Root:        root,
		MaxWarnings: cfg.Check.MaxWarnings,
		Jobs:        cfg.Check.Jobs,
	}
	if m.MaxWarnings <= 0 {
		m.MaxWarnings = DefaultMaxWarnings
	}
	for _, s := range cfg.Check.Search {
		if !filepath.IsAbs(s) {
			s = filepath.Join(root, s)
		}
		m.Search = append(m.Search, s)
	}
	if len(m.Search) == 0 {
		m.Search = []string{root}
	}
	return m, nil
}

// FindManifest walks up from startDir to locate ripple.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// DefaultManifest is used when no ripple.toml exists: a bare project rooted
// at the working directory.
func DefaultManifest(dir string) Manifest {
	root, err := filepath.Abs(dir)
	if err != nil {
		root = dir
	}
	return Manifest{
		Name:        filepath.Base(root),
		Root:        root,
		Search:      []string{root},
		MaxWarnings: DefaultMaxWarnings,
	}
}
