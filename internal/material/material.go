// Package material models the builtin render resources (material presets and
// the shared mask texture) and persists them as YAML asset documents.
package material

import "slices"

// Shader selects the base shader a material is built from.
type Shader string

const (
	ShaderMask  Shader = "Live2D Cubism/Mask"
	ShaderUnlit Shader = "Live2D Cubism/Unlit"
)

// Keywords toggled by masked material variants. They are mutually exclusive.
const (
	KeywordMaskOn  = "MASK_ON"
	KeywordMaskOff = "MASK_OFF"
)

// Material is a shader plus its float properties and enabled keywords.
type Material struct {
	Name     string             `yaml:"name"`
	Shader   Shader             `yaml:"shader"`
	Floats   map[string]float64 `yaml:"floats,omitempty"`
	Keywords []string           `yaml:"keywords,omitempty"`
}

// New returns an unnamed material for shader.
func New(shader Shader) *Material {
	return &Material{Shader: shader, Floats: make(map[string]float64)}
}

// SetFloat sets a float shader property.
func (m *Material) SetFloat(name string, v float64) {
	if m.Floats == nil {
		m.Floats = make(map[string]float64)
	}
	m.Floats[name] = v
}

// SetBlend writes the four blend factors as float properties.
func (m *Material) SetBlend(b Blend) {
	m.SetFloat(PropSrcColor, float64(b.SrcColor))
	m.SetFloat(PropDstColor, float64(b.DstColor))
	m.SetFloat(PropSrcAlpha, float64(b.SrcAlpha))
	m.SetFloat(PropDstAlpha, float64(b.DstAlpha))
}

// Blend reads the blend factors back from the float properties.
func (m *Material) Blend() Blend {
	return Blend{
		SrcColor: BlendFactor(m.Floats[PropSrcColor]),
		DstColor: BlendFactor(m.Floats[PropDstColor]),
		SrcAlpha: BlendFactor(m.Floats[PropSrcAlpha]),
		DstAlpha: BlendFactor(m.Floats[PropDstAlpha]),
	}
}

// EnableKeyword adds keyword unless it is already enabled.
func (m *Material) EnableKeyword(keyword string) {
	if !m.IsKeywordEnabled(keyword) {
		m.Keywords = append(m.Keywords, keyword)
	}
}

// DisableKeyword removes every occurrence of keyword.
func (m *Material) DisableKeyword(keyword string) {
	m.Keywords = slices.DeleteFunc(m.Keywords, func(k string) bool { return k == keyword })
}

// IsKeywordEnabled reports whether keyword is enabled.
func (m *Material) IsKeywordEnabled(keyword string) bool {
	return slices.Contains(m.Keywords, keyword)
}

// EnableMasking turns the mask toggle on and swaps MASK_OFF for MASK_ON.
// Calling it repeatedly leaves exactly one MASK_ON keyword.
func (m *Material) EnableMasking() {
	m.SetFloat(PropMaskOn, 1)
	m.DisableKeyword(KeywordMaskOff)
	m.EnableKeyword(KeywordMaskOn)
}

// Masked reports whether the mask toggle is on.
func (m *Material) Masked() bool {
	return m.Floats[PropMaskOn] == 1
}

// MaskTexture is the shared render target masks are drawn into.
type MaskTexture struct {
	Name         string `yaml:"name"`
	Size         int    `yaml:"size"`
	Subdivisions int    `yaml:"subdivisions"`
}

// Defaults for the shared mask texture.
const (
	MaskTextureName         = "GlobalMaskTexture"
	DefaultMaskSize         = 1024
	DefaultMaskSubdivisions = 3
)

// NewMaskTexture returns the shared mask texture with default dimensions.
func NewMaskTexture() *MaskTexture {
	return &MaskTexture{
		Name:         MaskTextureName,
		Size:         DefaultMaskSize,
		Subdivisions: DefaultMaskSubdivisions,
	}
}
