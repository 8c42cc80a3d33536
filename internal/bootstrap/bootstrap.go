// Package bootstrap materializes the builtin render resources (material
// presets and the shared mask texture) inside a Cubism installation the first
// time they are needed, and leaves them alone afterwards.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jward/assethook/internal/material"
)

// Layout of the installation.
const (
	DefaultMarker    = "Live2D"
	ResourcesRelPath = "Cubism/Rendering/Resources/Live2D/Cubism"
	MaterialsDirName = "Materials"
)

var (
	// ErrInstallRootNotFound means no directory under the search root matched
	// the install marker.
	ErrInstallRootNotFound = errors.New("install root not found")
	// ErrResourcesMissing means the install root was found but its resources
	// folder does not exist.
	ErrResourcesMissing = errors.New("resources folder missing")
)

// Factory builds and persists render resources. Save methods report false
// without writing when a file already exists at path.
type Factory interface {
	CreateMaterial(shader material.Shader) *material.Material
	SaveMaterial(m *material.Material, path string) (bool, error)
	CreateMaskTexture() *material.MaskTexture
	SaveMaskTexture(t *material.MaskTexture, path string) (bool, error)
}

// Gating selects how preset existence is decided.
type Gating int

const (
	// GateDirectory treats an existing materials directory as proof that
	// every preset exists. Presets missing from an existing directory are
	// not recreated.
	GateDirectory Gating = iota
	// GatePerFile creates each preset whose file is missing.
	GatePerFile
)

func (g Gating) String() string {
	switch g {
	case GateDirectory:
		return "directory"
	case GatePerFile:
		return "file"
	}
	return fmt.Sprintf("Gating(%d)", int(g))
}

// ParseGating parses "directory" or "file".
func ParseGating(s string) (Gating, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "directory", "dir":
		return GateDirectory, nil
	case "file", "per-file":
		return GatePerFile, nil
	}
	return GateDirectory, fmt.Errorf("unknown gating mode %q (want directory|file)", s)
}

// Bootstrapper ensures the builtin resources exist under the install root
// found beneath searchRoot.
type Bootstrapper struct {
	searchRoot string
	marker     string
	factory    Factory
	gating     Gating
	logger     *log.Logger
}

// Option configures a Bootstrapper.
type Option func(*Bootstrapper)

// WithFactory replaces the default YAML file factory.
func WithFactory(f Factory) Option {
	return func(b *Bootstrapper) {
		b.factory = f
	}
}

// WithGating selects the preset gating mode. Default is GateDirectory.
func WithGating(g Gating) Option {
	return func(b *Bootstrapper) {
		b.gating = g
	}
}

// WithLogger sets the diagnostic logger. Default discards output.
func WithLogger(l *log.Logger) Option {
	return func(b *Bootstrapper) {
		b.logger = l
	}
}

// New creates a Bootstrapper that searches searchRoot for a directory whose
// path contains marker.
func New(searchRoot, marker string, opts ...Option) *Bootstrapper {
	b := &Bootstrapper{
		searchRoot: searchRoot,
		marker:     marker,
		factory:    material.NewFileFactory(),
		gating:     GateDirectory,
		logger:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Result records what a bootstrap call did.
type Result struct {
	InstallRoot  string
	ResourcesDir string
	// MaterialsDirCreated is true when this call created the materials
	// directory.
	MaterialsDirCreated bool
	// Created and Skipped hold resource file paths in creation order.
	Created []string
	Skipped []string
}

// EnsureBuiltinResources locates the install root and creates whichever
// builtin resources are missing. Existing files are never modified. A failure
// part way through leaves already-created resources in place.
func (b *Bootstrapper) EnsureBuiltinResources(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := FindInstallRoot(b.searchRoot, b.marker)
	if err != nil {
		b.logger.Printf("error: %v", err)
		return nil, err
	}

	res := &Result{
		InstallRoot:  root,
		ResourcesDir: filepath.Join(root, filepath.FromSlash(ResourcesRelPath)),
	}
	if info, err := os.Stat(res.ResourcesDir); err != nil || !info.IsDir() {
		err := fmt.Errorf("%w: %s", ErrResourcesMissing, res.ResourcesDir)
		b.logger.Printf("error: %v", err)
		return nil, err
	}

	if err := b.ensureMaterials(res); err != nil {
		return res, err
	}
	if err := b.ensureMaskTexture(res); err != nil {
		return res, err
	}
	return res, nil
}

func (b *Bootstrapper) ensureMaterials(res *Result) error {
	dir := filepath.Join(res.ResourcesDir, MaterialsDirName)

	switch b.gating {
	case GatePerFile:
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create materials directory: %w", err)
		}
	default:
		// Mkdir is the existence check: only the call that creates the
		// directory populates it.
		err := os.Mkdir(dir, 0o755)
		if errors.Is(err, fs.ErrExist) {
			for _, p := range presets {
				res.Skipped = append(res.Skipped, filepath.Join(dir, p.FileName()))
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("create materials directory: %w", err)
		}
		res.MaterialsDirCreated = true
		b.logger.Printf("materials directory created: %s", dir)
	}

	for _, p := range presets {
		path := filepath.Join(dir, p.FileName())
		if b.gating == GatePerFile {
			if _, err := os.Stat(path); err == nil {
				res.Skipped = append(res.Skipped, path)
				continue
			}
		}
		created, err := b.factory.SaveMaterial(p.build(b.factory), path)
		if err != nil {
			return fmt.Errorf("save material %s: %w", p.Name, err)
		}
		if created {
			res.Created = append(res.Created, path)
		} else {
			res.Skipped = append(res.Skipped, path)
		}
	}
	return nil
}

func (b *Bootstrapper) ensureMaskTexture(res *Result) error {
	path := filepath.Join(res.ResourcesDir, material.MaskTextureName+material.AssetExt)

	// The texture is always constructed; it is only written when absent.
	tex := b.factory.CreateMaskTexture()
	if _, err := os.Stat(path); err == nil {
		res.Skipped = append(res.Skipped, path)
		return nil
	}
	created, err := b.factory.SaveMaskTexture(tex, path)
	if err != nil {
		return fmt.Errorf("save mask texture: %w", err)
	}
	if created {
		res.Created = append(res.Created, path)
		b.logger.Printf("mask texture created: %s", path)
	} else {
		res.Skipped = append(res.Skipped, path)
	}
	return nil
}
