// Package scene composes the face viewer: it owns the CPU Simulation, the light rig and
// environment presets, the asynchronous mesh load, and every GPU resource the wireframe,
// particle and trail draws bind.
package scene

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/camera"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/Carmen-Shannon/oxy-particles/engine/light"
	"github.com/Carmen-Shannon/oxy-particles/engine/loader"
	"github.com/Carmen-Shannon/oxy-particles/engine/model"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/instancer"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-particles/engine/trail"
)

// Scene is the single face scene. The frame loop calls Update once per frame, then
// DrawCalls between the renderer's BeginFrame and EndFrame.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Camera returns the orbit camera.
	Camera() camera.Camera

	// Renderer returns the renderer the scene draws through.
	Renderer() renderer.Renderer

	// Simulation returns the CPU state driving the draws.
	Simulation() *Simulation

	// Environment returns the backdrop resolved for the last Update.
	Environment() Environment

	// Rig returns the light rig resolved for the last Update.
	Rig() light.Rig

	// Source returns the mesh source requested with Load, or "" if none was.
	Source() string

	// Load requests the mesh at source from the asset cache. The placeholder stays up until
	// the load completes. A failed load is logged and the placeholder remains.
	//
	// Parameters:
	//   - source: a file path or http(s) URL
	Load(source string)

	// SetMesh replaces the displayed mesh immediately, resampling it and uploading its
	// wireframe and texture.
	//
	// Parameters:
	//   - mesh: the new source mesh
	//   - sampler: the texture sampler state
	//
	// Returns:
	//   - error: an error if the wireframe or texture upload fails
	SetMesh(mesh model.SourceMesh, sampler common.SamplerStagingData) error

	// Update polls the pending load, steps the simulation and stages every GPU write for
	// this frame.
	//
	// Parameters:
	//   - dt: seconds since the previous frame
	//   - cfg: the config snapshot for this frame
	Update(dt float32, cfg config.Config)

	// DrawCalls submits the staged writes and encodes the wireframe, particle and trail
	// draws. Must be called within a BeginFrame/EndFrame block on the renderer.
	//
	// Returns:
	//   - error: the first draw failure
	DrawCalls() error

	// Reset reseeds the particle lifetimes and restarts the transition overlay and trails.
	//
	// Parameters:
	//   - cfg: the current config snapshot
	Reset(cfg config.Config)

	// DisabledDraws returns the pipelines that failed to build, keyed by pipeline key. Their
	// draws are skipped.
	DisabledDraws() map[string]error

	// ParticleCount returns the number of particle instances drawn.
	ParticleCount() int

	// Release frees every GPU resource the scene created.
	Release()
}

type scene struct {
	mu *sync.RWMutex

	name   string
	cam    camera.Camera
	r      renderer.Renderer
	logger common.Logger
	cache  loader.AssetCache

	shader    shader.Shader
	pipelines []pipeline.Pipeline
	disabled  map[string]error

	sim    *Simulation
	simOps []SimulationOption
	cfg    config.Config

	env     Environment
	rig     light.Rig
	rigName string

	source  string
	pending *loader.Future

	// bind group locations reflected from the shader
	sceneGroup, sceneBinding int
	texGroup, texBinding     int
	samplerBinding           int
	instGroup                int

	uniforms  map[shader.RenderMode]bind_group_provider.BindGroupProvider
	texture   material.Material
	noInst    bind_group_provider.BindGroupProvider
	wireframe bind_group_provider.BindGroupProvider
	baseShape bind_group_provider.BindGroupProvider
	shapeKey  baseShapeKey
	trailMesh bind_group_provider.BindGroupProvider
	trailCap  int
	inst      instancer.Instancer

	// Pre-allocated slices reused each frame to avoid per-frame allocations.
	writePool  []bind_group_provider.BufferWrite
	groupsPool []bind_group_provider.BindGroupProvider
	drawModes  []shader.RenderMode
}

// baseShapeKey is the part of config.Particles the instanced base geometry depends on.
type baseShapeKey struct {
	shape         config.BaseShape
	width, height int
}

var _ Scene = &scene{}

// NewScene registers the face pipelines with r, creates the shared GPU resources and
// starts on the placeholder mesh. A pipeline that fails to build disables only its draw.
//
// It panics if cam or r is nil.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach (must not be nil)
//   - r: the renderer to draw through (must not be nil)
//   - cfg: the initial config snapshot
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the scene showing the placeholder
//   - error: an error if the shader cannot be reflected or the shared resources cannot be created
func NewScene(name string, cam camera.Camera, r renderer.Renderer, cfg config.Config, options ...SceneBuilderOption) (Scene, error) {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}

	s := &scene{
		mu:         &sync.RWMutex{},
		name:       name,
		cam:        cam,
		r:          r,
		logger:     common.NopLogger(),
		cfg:        cfg,
		uniforms:   make(map[shader.RenderMode]bind_group_provider.BindGroupProvider, len(shader.RenderModes)),
		groupsPool: make([]bind_group_provider.BindGroupProvider, 0, 3),
		drawModes:  make([]shader.RenderMode, 0, len(shader.RenderModes)),
	}
	for _, option := range options {
		option(s)
	}

	if s.shader == nil {
		sh, err := shader.FaceShader()
		if err != nil {
			return nil, fmt.Errorf("scene %s: %w", name, err)
		}
		s.shader = sh
	}
	if err := s.reflectBindings(); err != nil {
		return nil, fmt.Errorf("scene %s: %w", name, err)
	}

	s.pipelines = pipeline.FacePipelines(s.shader)
	s.disabled = r.RegisterPipelines(s.pipelines...)
	for key, err := range s.disabled {
		s.logger.Errorf("scene %s: %s draw disabled: %v", name, key, err)
	}

	s.inst = instancer.NewInstancer(instancer.WithLabel(name+"_particles"), instancer.WithLogger(s.logger))
	if err := s.initSharedResources(); err != nil {
		s.Release()
		return nil, fmt.Errorf("scene %s: %w", name, err)
	}

	s.sim = NewSimulation(PlaceholderMesh(), true, cfg, append([]SimulationOption{WithSimulationLogger(s.logger)}, s.simOps...)...)
	if err := s.uploadMesh(s.sim.Mesh(), common.DefaultSamplerData()); err != nil {
		s.Release()
		return nil, fmt.Errorf("scene %s: %w", name, err)
	}
	s.frameCamera(s.sim.Mesh().Bounds())
	s.applyPresets(cfg)
	return s, nil
}

// reflectBindings locates the scene, texture and instance groups in the shader's
// annotations.
func (s *scene) reflectBindings() error {
	var ok bool
	if s.sceneGroup, s.sceneBinding, ok = s.shader.Binding(shader.AnnotationArgScene, ""); !ok {
		return fmt.Errorf("shader %s declares no scene uniform", s.shader.Key())
	}
	if s.texGroup, s.texBinding, ok = s.shader.Binding(shader.AnnotationArgTexture, shader.AnnotationArgDiffuseTexture); !ok {
		return fmt.Errorf("shader %s declares no diffuse texture", s.shader.Key())
	}
	var samplerGroup int
	if samplerGroup, s.samplerBinding, ok = s.shader.Binding(shader.AnnotationArgTexture, shader.AnnotationArgDiffuseSampler); !ok || samplerGroup != s.texGroup {
		return fmt.Errorf("shader %s declares no diffuse sampler beside its texture", s.shader.Key())
	}
	if s.instGroup, _, ok = s.shader.Binding(shader.AnnotationArgInstances, shader.AnnotationArgTransforms); !ok {
		return fmt.Errorf("shader %s declares no instance transforms", s.shader.Key())
	}
	return nil
}

// initSharedResources creates the per-mode uniform buffers, the empty instance group used
// by the non-instanced draws and the trail vertex buffer.
func (s *scene) initSharedResources() error {
	sceneDesc := s.shader.BindGroupLayoutDescriptor(s.sceneGroup)
	for _, mode := range shader.RenderModes {
		p := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s_%s_uniform", s.name, mode))
		if err := s.r.InitBindGroup(p, sceneDesc, nil, nil); err != nil {
			return fmt.Errorf("%s uniform: %w", mode, err)
		}
		s.uniforms[mode] = p
	}

	// wireframe and trail draws bind a one-element instance group they never read
	s.noInst = bind_group_provider.NewBindGroupProvider(s.name + "_no_instances")
	if err := s.r.InitBindGroup(s.noInst, s.shader.BindGroupLayoutDescriptor(s.instGroup), nil, s.inst.BufferSizes()); err != nil {
		return fmt.Errorf("empty instance group: %w", err)
	}

	if err := s.ensureBaseShape(s.cfg.Particles); err != nil {
		return err
	}
	return s.ensureTrailCapacity(trail.MaxVertices(s.cfg.Trails))
}

// ensureBaseShape re-uploads the instanced base geometry when the shape settings change.
func (s *scene) ensureBaseShape(cfg config.Particles) error {
	key := baseShapeKey{shape: cfg.Shape}
	if cfg.Shape == config.ShapeSphere {
		key.width, key.height = cfg.SphereWidthSegments, cfg.SphereHeightSegments
	}
	if s.baseShape != nil && key == s.shapeKey {
		return nil
	}

	verts, indices := instancer.Geometry(cfg)
	p := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s_%s_shape", s.name, cfg.Shape))
	if err := s.r.InitMeshBuffers(p, model.MarshalVertices(verts), model.MarshalIndices(indices), len(indices)); err != nil {
		return fmt.Errorf("base shape %s: %w", cfg.Shape, err)
	}
	if s.baseShape != nil {
		s.baseShape.Release()
	}
	s.baseShape = p
	s.shapeKey = key
	s.logger.Debugf("scene %s: base shape %s, %d vertices, %d indices", s.name, cfg.Shape, len(verts), len(indices))
	return nil
}

// ensureTrailCapacity grows the trail vertex buffer to hold at least n vertices.
func (s *scene) ensureTrailCapacity(n int) error {
	n = max(n, 2)
	if s.trailMesh != nil && n <= s.trailCap {
		return nil
	}
	p := bind_group_provider.NewBindGroupProvider(s.name + "_trails")
	if err := s.r.InitVertexBuffer(p, uint64(n*model.GPUVertexSize)); err != nil {
		return fmt.Errorf("trail buffer: %w", err)
	}
	if s.trailMesh != nil {
		s.trailMesh.Release()
	}
	s.trailMesh = p
	s.trailCap = n
	return nil
}

// uploadMesh replaces the wireframe buffers and the texture group for mesh. A texture the
// GPU rejects falls back to solid white.
func (s *scene) uploadMesh(mesh model.SourceMesh, sampler common.SamplerStagingData) error {
	wire := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s_%s_wireframe", s.name, mesh.Name()))
	edges := mesh.EdgeIndices()
	if len(edges) > 0 {
		verts := mesh.Vertices(s.cfg.Sampling.FallbackUV)
		if err := s.r.InitMeshBuffers(wire, model.MarshalVertices(verts), model.MarshalIndices(edges), len(edges)); err != nil {
			return fmt.Errorf("wireframe %s: %w", mesh.Name(), err)
		}
	}

	tex := material.NewMaterial(
		material.WithName(fmt.Sprintf("%s_%s", s.name, mesh.Name())),
		material.WithTexture(mesh.Texture()),
		material.WithSampler(sampler),
		material.WithLogger(s.logger),
	)
	layout := material.Layout{
		Descriptor:     s.shader.BindGroupLayoutDescriptor(s.texGroup),
		TextureBinding: s.texBinding,
		SamplerBinding: s.samplerBinding,
	}
	if err := tex.Upload(s.r, layout); err != nil {
		wire.Release()
		return fmt.Errorf("material %s: %w", mesh.Name(), err)
	}

	if s.wireframe != nil {
		s.wireframe.Release()
	}
	if s.texture != nil {
		s.texture.Release()
	}
	s.wireframe = wire
	s.texture = tex
	return nil
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Camera() camera.Camera {
	return s.cam
}

func (s *scene) Renderer() renderer.Renderer {
	return s.r
}

func (s *scene) Simulation() *Simulation {
	return s.sim
}

func (s *scene) Environment() Environment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.env
}

func (s *scene) Rig() light.Rig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rig
}

func (s *scene) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

func (s *scene) Load(source string) {
	if s.cache == nil {
		s.logger.Errorf("scene %s: no asset cache, cannot load %s", s.name, source)
		return
	}
	s.mu.Lock()
	s.source = source
	s.pending = s.cache.Load(source)
	s.mu.Unlock()
	s.logger.Infof("scene %s: loading %s", s.name, source)
}

func (s *scene) SetMesh(mesh model.SourceMesh, sampler common.SamplerStagingData) error {
	return s.setMesh(mesh, sampler, false)
}

func (s *scene) setMesh(mesh model.SourceMesh, sampler common.SamplerStagingData, placeholder bool) error {
	if err := s.uploadMesh(mesh, sampler); err != nil {
		return err
	}
	s.sim.SetMesh(mesh, placeholder, s.cfg)
	s.frameCamera(mesh.Bounds())
	return nil
}

// frameCamera fits the orbit camera and clip planes to a mesh's bounds.
func (s *scene) frameCamera(b model.Bounds) {
	if ctrl := s.cam.Controller(); ctrl != nil {
		ctrl.FrameBounds(b)
	}
	extent := b.Size().Len()
	if extent <= 0 {
		extent = 1
	}
	s.cam.SetClipPlanes(extent*0.01, extent*50)
	s.cam.Update()
}

// pollLoad installs a completed load. A failed load keeps the placeholder.
func (s *scene) pollLoad() {
	s.mu.Lock()
	f := s.pending
	s.mu.Unlock()
	if f == nil {
		return
	}

	state, res, err := f.Poll()
	switch state {
	case loader.FuturePending:
		return
	case loader.FutureFailed:
		s.logger.Warnf("scene %s: %s unavailable, showing placeholder: %v", s.name, f.Source(), err)
	case loader.FutureReady:
		if err := s.SetMesh(res.Mesh, res.Report.Sampler); err != nil {
			s.logger.Errorf("scene %s: upload of %s failed, showing placeholder: %v", s.name, f.Source(), err)
		} else {
			s.logger.Infof("scene %s: showing %s (%s), %d particles", s.name, f.Source(), res.ID, s.sim.Samples().Len())
		}
	}

	s.mu.Lock()
	if s.pending == f {
		s.pending = nil
	}
	s.mu.Unlock()
}

// applyPresets resolves the environment and light rig named by cfg.
func (s *scene) applyPresets(cfg config.Config) {
	env, ok := EnvironmentFor(cfg.Scene)
	if !ok {
		s.logger.Warnf("scene %s: unknown environment %q, using the configured background", s.name, cfg.Scene.Environment)
	}

	s.mu.Lock()
	envChanged := env != s.env
	s.env = env
	var rigErr bool
	if cfg.Scene.LightPreset != s.rigName || s.rig.Key == nil {
		rig, found := light.Preset(cfg.Scene.LightPreset)
		rigErr = !found
		s.rig = rig
		s.rigName = cfg.Scene.LightPreset
	}
	s.mu.Unlock()

	if rigErr {
		s.logger.Warnf("scene %s: unknown light preset %q, using %s", s.name, cfg.Scene.LightPreset, light.DefaultPreset)
	}
	if envChanged {
		s.r.SetClearColor(env.ClearColor())
	}
}

func (s *scene) Update(dt float32, cfg config.Config) {
	s.cfg = cfg
	s.pollLoad()
	s.applyPresets(cfg)

	if err := s.ensureBaseShape(cfg.Particles); err != nil {
		s.logger.Errorf("scene %s: %v", s.name, err)
	}

	s.sim.Step(dt, cfg)
	s.cam.Update()

	s.writePool = s.writePool[:0]
	s.stageUniforms(cfg)
	s.stageParticles()
	s.stageTrails()
}

func (s *scene) stageUniforms(cfg config.Config) {
	in := s.sim.FrameInputs(cfg, s.cam.ViewProjection(), s.Rig())
	for _, mode := range shader.RenderModes {
		u := shader.BuildUniforms(mode, in)
		s.writePool = append(s.writePool, bind_group_provider.BufferWrite{
			Provider: s.uniforms[mode],
			Binding:  s.sceneBinding,
			Data:     u.Marshal(),
		})
	}
}

// stageParticles packs the instance arrays, rebuilding the instance group after a
// reallocation.
func (s *scene) stageParticles() {
	s.inst.Update(s.sim.Store(), s.sim.Offsets(), s.sim.Frame())
	if s.inst.NeedsRebuild() {
		p := s.inst.Provider()
		err := s.r.InitBindGroup(p, s.shader.BindGroupLayoutDescriptor(s.instGroup), nil, s.inst.BufferSizes())
		if err != nil {
			s.logger.Errorf("scene %s: instance group generation %d: %v", s.name, s.inst.Generation(), err)
			s.inst.Invalidate()
			return
		}
		s.inst.ClearNeedsRebuild()
	}
	s.writePool = append(s.writePool, s.inst.StagedWriteData()...)
}

func (s *scene) stageTrails() {
	verts := s.sim.TrailVertices()
	if len(verts) > s.trailCap {
		if err := s.ensureTrailCapacity(trail.MaxVertices(s.cfg.Trails)); err != nil {
			s.logger.Errorf("scene %s: %v", s.name, err)
			s.trailMesh.SetIndexCount(0)
			return
		}
	}
	s.trailMesh.SetIndexCount(len(verts))
	if len(verts) == 0 {
		return
	}
	s.writePool = append(s.writePool, bind_group_provider.BufferWrite{
		Provider: s.trailMesh,
		Binding:  bind_group_provider.VertexBinding,
		Data:     model.MarshalVertices(verts),
	})
}

// visibleModes returns the draws with anything to show this frame, in RenderModes order.
func (s *scene) visibleModes() []shader.RenderMode {
	st := s.sim.Transition()
	s.drawModes = s.drawModes[:0]
	for _, mode := range shader.RenderModes {
		if _, off := s.disabled[mode.String()]; off {
			continue
		}
		switch mode {
		case shader.RenderModeWireframe:
			if st.WireframeOpacity <= 0 || s.wireframe.IndexCount() == 0 {
				continue
			}
		case shader.RenderModeParticles:
			if st.ParticleOpacity <= 0 || s.inst.InstanceCount() == 0 || s.inst.NeedsRebuild() {
				continue
			}
		case shader.RenderModeTrail:
			if st.ParticleOpacity <= 0 || s.trailMesh.IndexCount() == 0 {
				continue
			}
		}
		s.drawModes = append(s.drawModes, mode)
	}
	return s.drawModes
}

func (s *scene) DrawCalls() error {
	s.r.WriteBuffers(s.writePool)
	s.writePool = s.writePool[:0]

	for _, mode := range s.visibleModes() {
		mesh, instances, count := s.wireframe, s.noInst, uint32(1)
		switch mode {
		case shader.RenderModeParticles:
			mesh, instances, count = s.baseShape, s.inst.Provider(), uint32(s.inst.InstanceCount())
		case shader.RenderModeTrail:
			mesh = s.trailMesh
		}

		s.groupsPool = s.groupsPool[:0]
		s.groupsPool = append(s.groupsPool, s.uniforms[mode], s.texture.BindGroupProvider(), instances)
		if err := s.r.DrawCall(mode.String(), mesh, count, s.groupsPool); err != nil {
			return fmt.Errorf("scene %s: %w", s.name, err)
		}
	}
	return nil
}

func (s *scene) Reset(cfg config.Config) {
	s.sim.Reset(cfg)
	s.logger.Infof("scene %s: reset", s.name)
}

func (s *scene) DisabledDraws() map[string]error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]error, len(s.disabled))
	for k, v := range s.disabled {
		out[k] = v
	}
	return out
}

func (s *scene) ParticleCount() int {
	return s.inst.InstanceCount()
}

func (s *scene) Release() {
	for mode, p := range s.uniforms {
		p.Release()
		delete(s.uniforms, mode)
	}
	if s.texture != nil {
		s.texture.Release()
		s.texture = nil
	}
	for _, p := range []bind_group_provider.BindGroupProvider{s.noInst, s.wireframe, s.baseShape, s.trailMesh} {
		if p != nil {
			p.Release()
		}
	}
	s.noInst, s.wireframe, s.baseShape, s.trailMesh = nil, nil, nil, nil
	if s.inst != nil {
		s.inst.Release()
	}
}
