package material

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// File extensions for persisted resources.
const (
	MaterialExt = ".mat"
	AssetExt    = ".asset"
)

// document is the on-disk envelope for every persisted resource.
type document struct {
	Kind        string       `yaml:"kind"`
	Material    *Material    `yaml:"material,omitempty"`
	MaskTexture *MaskTexture `yaml:"maskTexture,omitempty"`
}

const (
	kindMaterial    = "Material"
	kindMaskTexture = "CubismMaskTexture"
)

// FileFactory builds resources in memory and persists them as YAML files.
// Saves never overwrite: an existing file at the target path is left alone.
type FileFactory struct{}

// NewFileFactory returns a FileFactory.
func NewFileFactory() *FileFactory {
	return &FileFactory{}
}

// CreateMaterial returns a new material for shader.
func (f *FileFactory) CreateMaterial(shader Shader) *Material {
	return New(shader)
}

// CreateMaskTexture returns a new shared mask texture.
func (f *FileFactory) CreateMaskTexture() *MaskTexture {
	return NewMaskTexture()
}

// SaveMaterial writes m to path. Returns false if path already exists.
func (f *FileFactory) SaveMaterial(m *Material, path string) (bool, error) {
	return writeDocument(path, document{Kind: kindMaterial, Material: m})
}

// SaveMaskTexture writes t to path. Returns false if path already exists.
func (f *FileFactory) SaveMaskTexture(t *MaskTexture, path string) (bool, error) {
	return writeDocument(path, document{Kind: kindMaskTexture, MaskTexture: t})
}

// writeDocument creates path exclusively so two writers racing on the same
// path produce one file and one no-op.
func writeDocument(path string, doc document) (bool, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(path)
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return false, fmt.Errorf("close %s: %w", path, err)
	}
	return true, nil
}

// LoadMaterial reads a material written by SaveMaterial.
func LoadMaterial(path string) (*Material, error) {
	doc, err := readDocument(path, kindMaterial)
	if err != nil {
		return nil, err
	}
	if doc.Material == nil {
		return nil, fmt.Errorf("%s: empty material", path)
	}
	return doc.Material, nil
}

// LoadMaskTexture reads a mask texture written by SaveMaskTexture.
func LoadMaskTexture(path string) (*MaskTexture, error) {
	doc, err := readDocument(path, kindMaskTexture)
	if err != nil {
		return nil, err
	}
	if doc.MaskTexture == nil {
		return nil, fmt.Errorf("%s: empty mask texture", path)
	}
	return doc.MaskTexture, nil
}

func readDocument(path, kind string) (*document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if doc.Kind != kind {
		return nil, fmt.Errorf("%s: kind %q, want %q", path, doc.Kind, kind)
	}
	return &doc, nil
}
