// Package installed answers which target packages are installed, backed by a
// YAML registry file.
package installed

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/dhima/version-watch/internal/checks"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultKeywords match package identifiers related to the watched target.
var DefaultKeywords = []string{"pokemon", "niantic", "pgsharp", "pogo"}

// Package is one installed package entry.
type Package struct {
	Identifier string `yaml:"identifier" json:"identifier" example:"com.nianticlabs.pokemongo"`
	Version    string `yaml:"version" json:"version" example:"0.305.1"`
	Label      string `yaml:"label,omitempty" json:"label,omitempty" example:"Pokemon GO"`
} // @name InstalledPackage

type registryFile struct {
	Packages []Package `yaml:"packages"`
}

// FileRegistry reads installed packages from a YAML file on each lookup, so
// edits to the file are picked up without a restart.
type FileRegistry struct {
	fs   afero.Fs
	path string
	self string
}

// NewFileRegistry creates a registry reading path from fsys. self is excluded
// from discovery results.
func NewFileRegistry(fsys afero.Fs, path, self string) *FileRegistry {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &FileRegistry{fs: fsys, path: path, self: self}
}

// LookupInstalledVersion implements checks.InstalledLookup. Candidates are
// tried in order and the first installed one wins.
func (r *FileRegistry) LookupInstalledVersion(_ context.Context, candidates []string) (string, string, error) {
	pkgs, err := r.load()
	if err != nil {
		return "", "", err
	}
	byID := make(map[string]Package, len(pkgs))
	for _, p := range pkgs {
		if _, seen := byID[p.Identifier]; !seen {
			byID[p.Identifier] = p
		}
	}
	for _, id := range candidates {
		if p, ok := byID[id]; ok && p.Version != "" {
			return p.Identifier, p.Version, nil
		}
	}
	return "", "", fmt.Errorf("%w: none of %s", checks.ErrTargetNotInstalled, strings.Join(candidates, ", "))
}

// Discover lists installed packages whose identifier or label contains any keyword,
// case-insensitively. It helps locate a target installed under an identifier
// missing from the candidate list.
func (r *FileRegistry) Discover(_ context.Context, keywords []string) ([]Package, error) {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	pkgs, err := r.load()
	if err != nil {
		if errors.Is(err, checks.ErrTargetNotInstalled) {
			return []Package{}, nil
		}
		return nil, err
	}

	out := make([]Package, 0)
	for _, p := range pkgs {
		if p.Identifier == r.self {
			continue
		}
		id, label := strings.ToLower(p.Identifier), strings.ToLower(p.Label)
		for _, kw := range keywords {
			kw = strings.ToLower(kw)
			if kw != "" && (strings.Contains(id, kw) || strings.Contains(label, kw)) {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (r *FileRegistry) load() ([]Package, error) {
	data, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: registry %s not found", checks.ErrTargetNotInstalled, r.path)
		}
		return nil, fmt.Errorf("read installed registry: %w", err)
	}
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: registry %s is unreadable: %v", checks.ErrTargetNotInstalled, r.path, err)
	}
	return file.Packages, nil
}
