package bootstrap

import "github.com/jward/assethook/internal/material"

// Preset describes one builtin material: its file name, base shader, blend
// factors (unset for the mask shader) and whether masking is enabled.
type Preset struct {
	Name     string
	Shader   material.Shader
	Blend    material.Blend
	HasBlend bool
	Masked   bool
}

var presets = []Preset{
	{Name: "Mask", Shader: material.ShaderMask},
	{Name: "Unlit", Shader: material.ShaderUnlit, Blend: material.BlendNormal, HasBlend: true},
	{Name: "UnlitAdditive", Shader: material.ShaderUnlit, Blend: material.BlendAdditive, HasBlend: true},
	{Name: "UnlitMultiply", Shader: material.ShaderUnlit, Blend: material.BlendMultiplicative, HasBlend: true},
	{Name: "UnlitMasked", Shader: material.ShaderUnlit, Blend: material.BlendNormal, HasBlend: true, Masked: true},
	{Name: "UnlitAdditiveMasked", Shader: material.ShaderUnlit, Blend: material.BlendAdditive, HasBlend: true, Masked: true},
	{Name: "UnlitMultiplyMasked", Shader: material.ShaderUnlit, Blend: material.BlendMultiplicative, HasBlend: true, Masked: true},
}

// Catalog returns the builtin material presets in creation order.
func Catalog() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// FileName is the preset's file name inside the materials directory.
func (p Preset) FileName() string {
	return p.Name + material.MaterialExt
}

func (p Preset) build(f Factory) *material.Material {
	m := f.CreateMaterial(p.Shader)
	m.Name = p.Name
	if p.HasBlend {
		m.SetBlend(p.Blend)
	}
	if p.Masked {
		m.EnableMasking()
	}
	return m
}
