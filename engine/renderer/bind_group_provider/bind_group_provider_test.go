package bind_group_provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBindGroupProvider(t *testing.T) {
	p := NewBindGroupProvider("scene", WithIndexCount(6))
	assert.Equal(t, "scene", p.Label())
	assert.False(t, p.Ready())
	assert.Nil(t, p.BindGroup())
	assert.Nil(t, p.Buffer(0))
	assert.Nil(t, p.TextureView(0))
	assert.Nil(t, p.Sampler(1))
	assert.Equal(t, 6, p.IndexCount())

	p.SetIndexCount(12)
	assert.Equal(t, 12, p.IndexCount())

	// releasing an uninitialized provider is a no-op apart from the count
	p.Release()
	assert.Equal(t, 0, p.IndexCount())
}

func TestBufferWrite_Target(t *testing.T) {
	assert.Nil(t, BufferWrite{}.Target())
	p := NewBindGroupProvider("trail")
	assert.Nil(t, BufferWrite{Provider: p, Binding: VertexBinding}.Target())
	assert.Nil(t, BufferWrite{Provider: p, Binding: 2}.Target())
}
