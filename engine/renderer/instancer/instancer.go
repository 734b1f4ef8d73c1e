// Package instancer owns the per-particle GPU instance arrays: one model matrix, one
// texture coordinate and one lifecycle quad per particle. It packs them from a
// particle.Store each frame and stages the uploads for the renderer.
package instancer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/particle"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
)

// instancer is the implementation of the Instancer interface.
type instancer struct {
	mu *sync.Mutex

	label  string
	logger common.Logger

	// provider holds the storage buffers of the current generation. It is nil while the
	// instance count is zero.
	provider bind_group_provider.BindGroupProvider

	count      int
	generation uint64

	// needsRebuild is set whenever the count changes. The render thread must create the
	// new provider's GPU buffers before the staged writes are submitted.
	needsRebuild bool
	// uvsStaged tracks whether the instance uvs of source have been uploaded. They never
	// change within one store.
	uvsStaged bool
	source    *particle.Store

	stagedWriteData []bind_group_provider.BufferWrite

	// Reusable CPU staging arrays. wgpu's queue.WriteBuffer copies before returning, so
	// reusing them every frame is safe.
	transforms []mgl32.Mat4
	uvs        []float32
	lifecycle  []float32
}

// Instancer packs particle state into GPU instance arrays.
//
// A frame follows this order:
//  1. Update(store, offsets, frame) packs and stages the three arrays
//  2. if NeedsRebuild(), the scene initializes the new Provider() with BufferSizes() and calls ClearNeedsRebuild()
//  3. the scene submits StagedWriteData() and draws InstanceCount() instances, or calls
//     Invalidate() if the rebuild failed and the writes are dropped
type Instancer interface {
	// Allocate sizes the instance arrays for count particles. A different count releases the
	// previous generation's buffers, creates a fresh provider, bumps Generation and sets
	// NeedsRebuild. The same count is a no-op.
	//
	// Parameters:
	//   - count: the number of particles
	//
	// Returns:
	//   - bool: true if a reallocation happened
	Allocate(count int) bool

	// Update packs translate(position + offset) * scale(s), the uv and the lifecycle quad of
	// every particle in store and stages the uploads. A store whose length differs from the
	// allocated count triggers Allocate first.
	//
	// Parameters:
	//   - store: the particle arena
	//   - offsets: the cosmetic offset applied on top of each particle position
	//   - frame: the frame timing
	Update(store *particle.Store, offsets particle.OffsetStrategy, frame particle.FrameParams)

	// StagedWriteData returns the writes staged since the last call and resets the queue.
	// The returned slice is only valid until the next Update.
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: the staged writes
	StagedWriteData() []bind_group_provider.BufferWrite

	// Invalidate drops the staged writes and forgets which arrays the GPU already holds, so
	// the next Update stages all three again. Call it when staged writes are discarded
	// instead of submitted.
	Invalidate()

	// Provider returns the bind group provider of the current generation, nil while empty.
	Provider() bind_group_provider.BindGroupProvider

	// BufferSizes returns the byte size of each instance array keyed by binding index, for
	// use as the renderer's buffer size overrides. An empty instancer reports one element
	// per array so bind groups stay valid.
	BufferSizes() map[int]uint64

	// InstanceCount returns the allocated particle count.
	InstanceCount() int

	// Generation increments on every reallocation.
	Generation() uint64

	// NeedsRebuild reports whether the provider's GPU buffers must be (re)created.
	NeedsRebuild() bool

	// ClearNeedsRebuild acknowledges a completed rebuild.
	ClearNeedsRebuild()

	// Transform returns the packed model matrix of instance i from the last Update.
	Transform(i int) mgl32.Mat4

	// Release frees the current generation's GPU resources.
	Release()
}

var _ Instancer = &instancer{}

// NewInstancer creates an empty Instancer.
//
// Parameters:
//   - options: a variadic list of InstancerOption functions
//
// Returns:
//   - Instancer: the instancer with zero instances
func NewInstancer(options ...InstancerOption) Instancer {
	in := &instancer{
		mu:     &sync.Mutex{},
		label:  "particles",
		logger: common.NopLogger(),
	}
	for _, opt := range options {
		opt(in)
	}
	return in
}

func (in *instancer) Allocate(count int) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.allocate(count)
}

func (in *instancer) allocate(count int) bool {
	count = max(count, 0)
	if count == in.count && (in.provider != nil || count == 0) {
		return false
	}

	if in.provider != nil {
		in.provider.Release()
		in.provider = nil
	}
	in.stagedWriteData = in.stagedWriteData[:0]
	in.generation++
	in.count = count
	in.uvsStaged = false
	in.source = nil
	in.needsRebuild = count > 0

	if count > 0 {
		in.provider = bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s_instances_gen%d", in.label, in.generation))
	}

	if cap(in.transforms) < count {
		in.transforms = make([]mgl32.Mat4, count)
	}
	in.transforms = in.transforms[:count]
	in.uvs = in.uvs[:0]
	in.lifecycle = in.lifecycle[:0]

	in.logger.Debugf("instancer %s: allocated %d instances (generation %d)", in.label, count, in.generation)
	return true
}

func (in *instancer) Update(store *particle.Store, offsets particle.OffsetStrategy, frame particle.FrameParams) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if store == nil {
		in.allocate(0)
		return
	}
	if store.Len() != in.count || (in.provider == nil && store.Len() > 0) {
		in.allocate(store.Len())
	}
	if in.count == 0 {
		return
	}
	if store != in.source {
		in.source = store
		in.uvsStaged = false
		in.lifecycle = in.lifecycle[:0]
	}

	for i := range in.count {
		pos := store.Position(i)
		if offsets != nil {
			pos = pos.Add(offsets.Offset(i, pos, frame.Elapsed))
		}
		in.transforms[i] = common.InstanceMatrix(pos, store.Scale(i))
	}
	in.stage(BindingTransforms, common.SliceToBytes(in.transforms))

	if !in.uvsStaged {
		in.uvs = in.uvs[:0]
		for i := range in.count {
			uv := store.Record(i).UV
			in.uvs = append(in.uvs, uv[0], uv[1])
		}
		in.stage(BindingUVs, common.SliceToBytes(in.uvs))
		in.uvsStaged = true
	}

	if store.Dirty() || len(in.lifecycle) == 0 {
		in.lifecycle = store.AppendLifecycle(in.lifecycle[:0])
		in.stage(BindingLifecycle, common.SliceToBytes(in.lifecycle))
		store.ClearDirty()
	}
}

// stage queues a full-array write, replacing an earlier unsubmitted write to the same binding.
func (in *instancer) stage(binding int, data []byte) {
	for i := range in.stagedWriteData {
		if in.stagedWriteData[i].Binding == binding {
			in.stagedWriteData[i].Data = data
			return
		}
	}
	in.stagedWriteData = append(in.stagedWriteData, bind_group_provider.BufferWrite{
		Provider: in.provider,
		Binding:  binding,
		Offset:   0,
		Data:     data,
	})
}

func (in *instancer) StagedWriteData() []bind_group_provider.BufferWrite {
	in.mu.Lock()
	defer in.mu.Unlock()
	w := in.stagedWriteData
	in.stagedWriteData = in.stagedWriteData[:0]
	return w
}

func (in *instancer) Invalidate() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.stagedWriteData = in.stagedWriteData[:0]
	in.uvsStaged = false
	in.lifecycle = in.lifecycle[:0]
}

func (in *instancer) Provider() bind_group_provider.BindGroupProvider {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.provider
}

func (in *instancer) BufferSizes() map[int]uint64 {
	in.mu.Lock()
	n := uint64(max(in.count, 1))
	in.mu.Unlock()
	return map[int]uint64{
		BindingTransforms: n * TransformStride,
		BindingUVs:        n * UVStride,
		BindingLifecycle:  n * LifecycleStride,
	}
}

func (in *instancer) InstanceCount() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.count
}

func (in *instancer) Generation() uint64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.generation
}

func (in *instancer) NeedsRebuild() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.needsRebuild
}

func (in *instancer) ClearNeedsRebuild() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.needsRebuild = false
}

func (in *instancer) Transform(i int) mgl32.Mat4 {
	in.mu.Lock()
	defer in.mu.Unlock()
	if i < 0 || i >= len(in.transforms) {
		return mgl32.Ident4()
	}
	return in.transforms[i]
}

func (in *instancer) Release() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.provider != nil {
		in.provider.Release()
		in.provider = nil
	}
	in.stagedWriteData = in.stagedWriteData[:0]
	in.count = 0
	in.source = nil
	in.needsRebuild = false
}
