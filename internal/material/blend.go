package material

import "fmt"

// BlendFactor is a fixed-function blend factor. Values match the host
// engine's serialized enum so saved materials load without translation.
type BlendFactor int

const (
	BlendZero             BlendFactor = 0
	BlendOne              BlendFactor = 1
	BlendDstColor         BlendFactor = 2
	BlendSrcColor         BlendFactor = 3
	BlendOneMinusDstColor BlendFactor = 4
	BlendSrcAlpha         BlendFactor = 5
	BlendOneMinusSrcColor BlendFactor = 6
	BlendDstAlpha         BlendFactor = 7
	BlendOneMinusDstAlpha BlendFactor = 8
	BlendSrcAlphaSaturate BlendFactor = 9
	BlendOneMinusSrcAlpha BlendFactor = 10
)

var blendFactorNames = map[BlendFactor]string{
	BlendZero:             "Zero",
	BlendOne:              "One",
	BlendDstColor:         "DstColor",
	BlendSrcColor:         "SrcColor",
	BlendOneMinusDstColor: "OneMinusDstColor",
	BlendSrcAlpha:         "SrcAlpha",
	BlendOneMinusSrcColor: "OneMinusSrcColor",
	BlendDstAlpha:         "DstAlpha",
	BlendOneMinusDstAlpha: "OneMinusDstAlpha",
	BlendSrcAlphaSaturate: "SrcAlphaSaturate",
	BlendOneMinusSrcAlpha: "OneMinusSrcAlpha",
}

func (f BlendFactor) String() string {
	if name, ok := blendFactorNames[f]; ok {
		return name
	}
	return fmt.Sprintf("BlendFactor(%d)", int(f))
}

// Blend holds separate color and alpha factors for source and destination.
type Blend struct {
	SrcColor BlendFactor
	DstColor BlendFactor
	SrcAlpha BlendFactor
	DstAlpha BlendFactor
}

// Preset blends used by the builtin Cubism materials.
var (
	// BlendNormal is premultiplied source-over.
	BlendNormal = Blend{
		SrcColor: BlendOne,
		DstColor: BlendOneMinusSrcAlpha,
		SrcAlpha: BlendOne,
		DstAlpha: BlendOneMinusSrcAlpha,
	}
	BlendAdditive = Blend{
		SrcColor: BlendOne,
		DstColor: BlendOne,
		SrcAlpha: BlendZero,
		DstAlpha: BlendOne,
	}
	BlendMultiplicative = Blend{
		SrcColor: BlendDstColor,
		DstColor: BlendOneMinusSrcAlpha,
		SrcAlpha: BlendZero,
		DstAlpha: BlendOne,
	}
)

// Shader property names the blend factors are written to.
const (
	PropSrcColor = "_SrcColor"
	PropDstColor = "_DstColor"
	PropSrcAlpha = "_SrcAlpha"
	PropDstAlpha = "_DstAlpha"
	PropMaskOn   = "cubism_MaskOn"
)
