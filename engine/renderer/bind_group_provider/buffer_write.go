package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// VertexBinding addresses a provider's vertex buffer instead of a bind group binding.
const VertexBinding = -1

// BufferWrite is one queued upload into a provider's buffer. Data is copied by the
// renderer at submit time, so owners may reuse the backing slice on the next frame.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Target resolves the buffer the write lands in, or nil if the provider has not been
// initialized for that binding.
func (w BufferWrite) Target() *wgpu.Buffer {
	if w.Provider == nil {
		return nil
	}
	if w.Binding == VertexBinding {
		return w.Provider.VertexBuffer()
	}
	return w.Provider.Buffer(w.Binding)
}
