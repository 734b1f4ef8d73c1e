package instancer

// Binding indices of the instance storage arrays within the instancer's bind group.
const (
	BindingTransforms = 0
	BindingUVs        = 1
	BindingLifecycle  = 2
)

// Per-instance strides in bytes, matching the WGSL element types
// array<mat4x4<f32>>, array<vec2<f32>> and array<vec4<f32>>.
const (
	TransformStride = 64
	UVStride        = 8
	LifecycleStride = 16
)
