package shader

import (
	"encoding/binary"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/Carmen-Shannon/oxy-particles/engine/light"
	"github.com/Carmen-Shannon/oxy-particles/engine/model"
	"github.com/Carmen-Shannon/oxy-particles/engine/transition"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaceShader_Reflection(t *testing.T) {
	s, err := FaceShader()
	require.NoError(t, err)

	assert.Equal(t, FaceShaderKey, s.Key())
	assert.Equal(t, "vs_main", s.VertexEntryPoint())
	assert.Equal(t, "fs_main", s.FragmentEntryPoint())
	assert.Contains(t, s.Source(), "@group(0) @binding(0) var<uniform> scene: SceneUniform;")
	assert.Contains(t, s.Source(), "struct VertexInput")
	assert.NotContains(t, s.Source(), "@oxy:include")
	require.NotNil(t, s.Module())
	assert.Equal(t, s.Source(), s.Module().WGSLDescriptor.Code)

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(model.GPUVertexSize), layouts[0].ArrayStride)
	require.Len(t, layouts[0].Attributes, 4)
	assert.Equal(t, uint64(36), layouts[0].Attributes[3].Offset)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, layouts[0].Attributes[3].Format)

	scene := s.BindGroupLayoutDescriptor(0).Entries
	require.Len(t, scene, 1)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, scene[0].Buffer.Type)
	assert.Equal(t, uint64(GPUSceneUniformSize), scene[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, scene[0].Visibility)

	tex := s.BindGroupLayoutDescriptor(1).Entries
	require.Len(t, tex, 2)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, tex[0].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, tex[0].Texture.ViewDimension)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, tex[1].Sampler.Type)

	inst := s.BindGroupLayoutDescriptor(2).Entries
	require.Len(t, inst, 3)
	for i, stride := range []uint64{64, 8, 16} {
		assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, inst[i].Buffer.Type)
		assert.Equal(t, stride, inst[i].Buffer.MinBindingSize)
	}
	assert.Equal(t, "instance_uvs", s.BindGroupVarName(2, 1))
	assert.Equal(t, "", s.BindGroupVarName(5, 0))

	g, b, ok := s.Binding(AnnotationArgInstances, AnnotationArgLifecycle)
	require.True(t, ok)
	assert.Equal(t, [2]int{2, 2}, [2]int{g, b})
	g, b, ok = s.Binding(AnnotationArgScene, "")
	require.True(t, ok)
	assert.Equal(t, [2]int{0, 0}, [2]int{g, b})
	_, _, ok = s.Binding(AnnotationArgTexture, AnnotationArgUVs)
	assert.False(t, ok)
}

func TestPreProcessor_Errors(t *testing.T) {
	pp := NewPreProcessor()
	for name, src := range map[string]string{
		"unknown type":      "//@oxy:frobnicate",
		"unknown struct":    "//@oxy:include camera",
		"duplicate include": "//@oxy:include vertex\n//@oxy:include vertex",
		"bad group":         "//@oxy:group x 0 storage_uniform scene scene_uniform",
		"bad space":         "//@oxy:group 0 0 storage_private scene scene_uniform",
		"bad provider":      "//@oxy:provider 1 0 material",
		"bad role":          "//@oxy:provider 1 0 texture normal_texture",
		"empty":             "//@oxy:",
	} {
		_, err := pp.Process(src)
		assert.Error(t, err, name)
	}

	out, err := pp.Process("//@oxy:group 2 0 storage_read items array<scene_uniform>\nfn f() {}")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "@group(2) @binding(0) var<storage, read> items: array<SceneUniform>;"))
	require.Len(t, pp.Declarations(), 1)
	assert.Equal(t, AnnotationArg("items"), pp.Declarations()[0].Provider())
}

func TestNewShader_RequiresBothStages(t *testing.T) {
	_, err := NewShader("empty", "")
	require.Error(t, err)

	src := "//@oxy:include vertex\n@vertex fn vs(in: VertexInput) -> @builtin(position) vec4<f32> { return vec4<f32>(in.position, 1.0); }"
	_, err = NewShader("vertex_only", src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "@fragment")
}

func TestResolveLayout(t *testing.T) {
	known := map[string]typeLayout{}
	l, ok := resolveLayout("array<vec4<f32>, 3>", known)
	require.True(t, ok)
	assert.Equal(t, uint64(48), l.size)

	l, ok = resolveLayout("array<vec3<f32>>", known)
	require.True(t, ok)
	assert.Equal(t, uint64(16), l.size, "runtime arrays report their stride")

	_, ok = resolveLayout("array<Mystery>", known)
	assert.False(t, ok)
	assert.Equal(t, []string{"a: array<f32, 4>", " b: u32"}, splitAtTopLevelCommas("a: array<f32, 4>, b: u32"))
	assert.Equal(t, "keep \n\n", stripComments("keep // drop\n/* a /* nested */ b */"))
}

func TestGPUSceneUniform_Marshal(t *testing.T) {
	u := GPUSceneUniform{}
	assert.Equal(t, GPUSceneUniformSize, u.Size())
	u.ViewProj[15] = 7
	u.Params = [4]float32{1, float32(RenderModeTrail), 0.25, 0.75}
	u.Brand[2][3] = 9

	buf := u.Marshal()
	require.Len(t, buf, GPUSceneUniformSize)
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	assert.Equal(t, float32(7), f(60))
	assert.Equal(t, float32(2), f(228))
	assert.Equal(t, float32(9), f(316))
	assert.Equal(t, RenderModeTrail, u.Mode())
}

func TestRenderMode(t *testing.T) {
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, RenderModeParticles.Topology())
	assert.Equal(t, wgpu.PrimitiveTopologyLineList, RenderModeWireframe.Topology())
	assert.True(t, RenderModeParticles.Instanced())
	assert.False(t, RenderModeTrail.Instanced())
	assert.Equal(t, "wireframe", RenderModeWireframe.String())
}

func frameInputs() FrameInputs {
	return FrameInputs{
		Config:       config.Default(),
		ViewProj:     mgl32.Ident4(),
		MeshRotation: mgl32.Ident4(),
		Bounds:       model.Bounds{Min: mgl32.Vec3{-1, 0, -1}, Max: mgl32.Vec3{1, 2, 1}},
		Transition:   transition.ParticlesOnly,
		Elapsed:      1.0 / 24.0 * 1.5, // second half of the first 12 Hz flip period
	}
}

func TestBuildUniforms_Modes(t *testing.T) {
	in := frameInputs()
	in.Transition = transition.State{RevealHeight: 0.4, WireframeOpacity: 0.7, ParticleOpacity: 0.3, ParticleReveal: 0.2}

	p := BuildUniforms(RenderModeParticles, in)
	assert.Equal(t, RenderModeParticles, p.Mode())
	assert.Equal(t, [4]float32{1, 1, 1, 0.3}, p.Tint)
	assert.Equal(t, [4]float32{0, 2, 0.2, in.Config.Transition.EdgeSoftness}, p.Bounds)
	assert.Equal(t, float32(1), p.Params[0], "triangle flip in its second half period")
	assert.Equal(t, in.Config.Chroma.Intensity, p.Chroma[1])
	assert.Equal(t, float32(config.BlendScreen), p.Chroma[3])

	w := BuildUniforms(RenderModeWireframe, in)
	wc := in.Config.Scene.WireframeColor.Vec3()
	assert.Equal(t, [4]float32{wc[0], wc[1], wc[2], 0.7}, w.Tint)
	assert.Equal(t, float32(0.4), w.Bounds[2])
	assert.Equal(t, float32(0), w.Params[0], "only particles flip")

	tr := BuildUniforms(RenderModeTrail, in)
	assert.Equal(t, float32(1), tr.Bounds[2])
	assert.Equal(t, float32(0.3), tr.Tint[3])

	in.Config.Chroma.Enabled = false
	in.Config.Particles.Shape = config.ShapeSphere
	p = BuildUniforms(RenderModeParticles, in)
	assert.Equal(t, float32(0), p.Chroma[1])
	assert.Equal(t, float32(0), p.Params[0])
}

func TestBuildUniforms_Lighting(t *testing.T) {
	in := frameInputs()
	u := BuildUniforms(RenderModeParticles, in)
	assert.Equal(t, [4]float32{0, 0, 1, in.Config.Shading.AmbientFloor}, u.LightDir, "no rig falls back to a frontal white key")
	assert.Equal(t, float32(0), u.PointLight[3])
	assert.Equal(t, mgl32.Ident4(), mgl32.Mat4(u.MeshRotation))

	in.Light, _ = light.Preset("studio")
	u = BuildUniforms(RenderModeParticles, in)
	assert.InDelta(t, 1.0, mgl32.Vec3{u.LightDir[0], u.LightDir[1], u.LightDir[2]}.Len(), 1e-5)
	assert.Equal(t, in.Config.Shading.Brightness, u.LightColor[3])
	assert.Equal(t, in.Light.Point.Range(), u.PointLight[3])

	in.MeshRotation = mgl32.Mat4{}
	u = BuildUniforms(RenderModeWireframe, in)
	assert.Equal(t, mgl32.Ident4(), mgl32.Mat4(u.MeshRotation))
}

func TestBlendAndLuminance(t *testing.T) {
	base, layer := mgl32.Vec3{0.25, 0.5, 0.75}, mgl32.Vec3{0.5, 0.5, 0.5}
	assert.Equal(t, mgl32.Vec3{0.75, 1, 1.25}, Blend(base, layer, config.BlendAdd))
	assert.Equal(t, mgl32.Vec3{0.125, 0.25, 0.375}, Blend(base, layer, config.BlendMultiply))
	assert.InDelta(t, 0.625, Blend(base, layer, config.BlendScreen)[0], 1e-6)
	ov := Blend(base, layer, config.BlendOverlay)
	assert.InDelta(t, 0.25, ov[0], 1e-6)
	assert.InDelta(t, 0.75, ov[2], 1e-6)

	assert.InDelta(t, 1.0, Luminance(mgl32.Vec3{1, 1, 1}), 1e-6)
	assert.InDelta(t, 0.587, Luminance(mgl32.Vec3{0, 1, 0}), 1e-6)
}

func TestLighting(t *testing.T) {
	l := mgl32.Vec3{0, 0, 1}
	assert.InDelta(t, 2.0, Lighting(mgl32.Vec3{0, 0, 3}, l, 0.2, 2), 1e-6)
	assert.InDelta(t, 0.4, Lighting(mgl32.Vec3{0, 0, -1}, l, 0.2, 2), 1e-6, "back faces hold the ambient floor")
	assert.InDelta(t, 2.0, Lighting(mgl32.Vec3{}, l, 0.2, 2), 1e-6)
}

func gray(v float32) Sampler {
	return func([2]float32) mgl32.Vec3 { return mgl32.Vec3{v, v, v} }
}

func TestShadeFragment_Particles(t *testing.T) {
	in := frameInputs()
	in.Config.Chroma.Enabled = false
	u := BuildUniforms(RenderModeParticles, in)
	frag := Fragment{Height: 1, Normal: mgl32.Vec3{0, 0, 1}, Lifecycle: [4]float32{0.5, 1, 0, 1}}

	c := ShadeFragment(u, frag, gray(0.4))
	assert.InDelta(t, 0.4*in.Config.Shading.Brightness, c[0], 1e-5)
	assert.InDelta(t, 1.0, c[3], 1e-6)

	frag.Lifecycle[0] = 0
	assert.Equal(t, mgl32.Vec4{}, ShadeFragment(u, frag, gray(0.4)), "newborn particles are discarded")

	frag.Lifecycle = [4]float32{0.02, 1, 1, 1}
	c = ShadeFragment(u, frag, gray(0.4))
	assert.InDelta(t, in.Config.Shading.EmissiveAlphaFloor, c[3], 1e-6)
	assert.InDelta(t, 0.5*(1+in.Config.Shading.GlowBoost), c[0], 1e-5)
}

func TestShadeFragment_Chroma(t *testing.T) {
	in := frameInputs()
	frag := Fragment{Height: 1, Normal: mgl32.Vec3{0, 0, 1}, Lifecycle: [4]float32{0.875, 1, 0, 1}}

	plain := in
	plain.Config.Chroma.Enabled = false
	base := ShadeFragment(BuildUniforms(RenderModeParticles, plain), frag, gray(0.3))
	tinted := ShadeFragment(BuildUniforms(RenderModeParticles, in), frag, gray(0.3))
	assert.NotEqual(t, base, tinted)
	assert.Equal(t, base[3], tinted[3], "chroma never changes alpha")

	frag.Lifecycle[0] = in.Config.Chroma.StartPhase
	base = ShadeFragment(BuildUniforms(RenderModeParticles, plain), frag, gray(0.3))
	tinted = ShadeFragment(BuildUniforms(RenderModeParticles, in), frag, gray(0.3))
	assert.Equal(t, base, tinted, "zero weight at the start phase")
}

func TestShadeFragment_WireframeAndTrail(t *testing.T) {
	in := frameInputs()
	in.Transition = transition.State{WireframeOpacity: 1, RevealHeight: 0}
	frag := Fragment{Height: 2, Normal: mgl32.Vec3{0, 0, 1}}
	assert.Equal(t, float32(0), ShadeFragment(BuildUniforms(RenderModeWireframe, in), frag, nil)[3])

	in.Transition.RevealHeight = 1
	c := ShadeFragment(BuildUniforms(RenderModeWireframe, in), frag, nil)
	assert.InDelta(t, 1.0, c[3], 1e-6)

	in.Transition = transition.ParticlesOnly
	frag.UV = [2]float32{0.3, 0.5}
	c = ShadeFragment(BuildUniforms(RenderModeTrail, in), frag, nil)
	tc := in.Config.Trails.Color.Vec3()
	assert.InDelta(t, 0.5, c[3], 1e-6)
	assert.InDelta(t, tc[0], c[0], 1e-6)
}

func TestImageSampler(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	img.SetRGBA(1, 0, color.RGBA{0, 0, 255, 255})
	s := ImageSampler(img)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, s([2]float32{0.1, 0.5}))
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, s([2]float32{0.9, 0.5}))
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, s([2]float32{1.1, 0.5}), "repeat wrap")
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, ImageSampler(nil)([2]float32{}))
}
