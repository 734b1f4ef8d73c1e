package shader

import (
	"errors"
	"fmt"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
)

// FaceShaderKey is the key of the shared face shader module.
const FaceShaderKey = "face"

// shader is the implementation of the Shader interface.
type shader struct {
	key                        string
	source                     string
	vertexEntryPoint           string
	fragmentEntryPoint         string
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	vertexLayouts              []wgpu.VertexBufferLayout
	declarations               []Annotation
	module                     *wgpu.ShaderModuleDescriptor
}

// Shader is a pre-processed and reflected WGSL module holding both a vertex and a fragment
// entry point. Its bind group layouts are visible to both stages.
type Shader interface {
	// Key retrieves the unique identifier for this shader.
	//
	// Returns:
	//   - string: the shader's key
	Key() string

	// Source retrieves the expanded WGSL source.
	//
	// Returns:
	//   - string: the WGSL source after annotation processing
	Source() string

	// Module returns the shader module descriptor built from Source.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the descriptor with the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor

	// VertexEntryPoint returns the name of the @vertex function.
	VertexEntryPoint() string

	// FragmentEntryPoint returns the name of the @fragment function.
	FragmentEntryPoint() string

	// BindGroupLayoutDescriptor retrieves the reflected layout of one bind group.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, or an empty one if the group is unused
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves every reflected bind group layout.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the WGSL variable name declared at group and binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index
	//
	// Returns:
	//   - string: the variable name, or "" if nothing is declared there
	BindGroupVarName(group, binding int) string

	// VertexLayouts retrieves the vertex buffer layouts reflected from vertex input structs.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts in declaration order
	VertexLayouts() []wgpu.VertexBufferLayout

	// Declarations returns the group and provider annotations of the source.
	//
	// Returns:
	//   - []Annotation: the declarations in source order
	Declarations() []Annotation

	// Binding finds the declaration for a provider and role. An empty role matches a
	// declaration without one.
	//
	// Parameters:
	//   - provider: the provider identity
	//   - role: the binding role
	//
	// Returns:
	//   - int: the bind group index
	//   - int: the binding index
	//   - bool: false if no declaration matches
	Binding(provider, role AnnotationArg) (int, int, bool)
}

var _ Shader = &shader{}

// NewShader pre-processes and reflects annotated WGSL source.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - source: the annotated WGSL source
//
// Returns:
//   - Shader: the shader
//   - error: an error if an annotation is malformed or an entry point or vertex input is missing
func NewShader(key, source string) (Shader, error) {
	if source == "" {
		return nil, fmt.Errorf("shader %s: empty source", key)
	}
	pp := NewPreProcessor()
	expanded, err := pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}

	s := &shader{
		key:          key,
		source:       expanded,
		declarations: pp.Declarations(),
		module: &wgpu.ShaderModuleDescriptor{
			Label:          key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: expanded},
		},
	}
	s.vertexEntryPoint, s.fragmentEntryPoint = reflectEntryPoints(expanded)
	s.vertexLayouts = reflectVertexLayouts(expanded)
	s.bindGroupLayoutDescriptors, s.bindingVarNames = reflectBindGroups(expanded, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment)

	var errs []error
	if s.vertexEntryPoint == "" {
		errs = append(errs, errors.New("no @vertex entry point"))
	}
	if s.fragmentEntryPoint == "" {
		errs = append(errs, errors.New("no @fragment entry point"))
	}
	if len(s.vertexLayouts) == 0 {
		errs = append(errs, errors.New("no vertex input struct"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	return s, nil
}

// NewShaderFromPath reads annotated WGSL from disk and calls NewShader.
func NewShaderFromPath(key, path string) (Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shader source %q: %w", path, err)
	}
	return NewShader(key, string(data))
}

// FaceShader builds the embedded face shader.
func FaceShader() (Shader, error) {
	return NewShader(FaceShaderKey, FaceSource)
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) VertexEntryPoint() string {
	return s.vertexEntryPoint
}

func (s *shader) FragmentEntryPoint() string {
	return s.fragmentEntryPoint
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.bindingVarNames[group][binding]
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}

func (s *shader) Binding(provider, role AnnotationArg) (int, int, bool) {
	for _, d := range s.declarations {
		if d.Provider() == provider && d.Role() == role {
			return *d.Group, *d.Binding, true
		}
	}
	return -1, -1, false
}
