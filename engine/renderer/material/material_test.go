package material

import (
	"errors"
	"image"
	"testing"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUploader records uploads and rejects textures wider than maxWidth.
type fakeUploader struct {
	maxWidth   uint32
	samplerErr error
	textures   []common.TextureStagingData
	bindings   []int
	groups     int
}

func (f *fakeUploader) InitTextureView(_ bind_group_provider.BindGroupProvider, binding int, data common.TextureStagingData) error {
	f.bindings = append(f.bindings, binding)
	if f.maxWidth > 0 && data.Width > f.maxWidth {
		return errors.New("texture too large")
	}
	f.textures = append(f.textures, data)
	return nil
}

func (f *fakeUploader) InitSampler(_ bind_group_provider.BindGroupProvider, binding int, _ common.SamplerStagingData) error {
	f.bindings = append(f.bindings, binding)
	return f.samplerErr
}

func (f *fakeUploader) InitBindGroup(bind_group_provider.BindGroupProvider, wgpu.BindGroupLayoutDescriptor, map[int]wgpu.BufferUsage, map[int]uint64) error {
	f.groups++
	return nil
}

var layout = Layout{TextureBinding: 0, SamplerBinding: 1}

func TestNewMaterial_Defaults(t *testing.T) {
	m := NewMaterial()
	assert.Equal(t, "face", m.Name())
	assert.Nil(t, m.Texture())
	assert.Equal(t, common.DefaultSamplerData(), m.Sampler())
	assert.Nil(t, m.BindGroupProvider())
}

func TestUpload_Texture(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	m := NewMaterial(WithName("grid"), WithTexture(img))
	u := &fakeUploader{}

	require.NoError(t, m.Upload(u, layout))
	require.Len(t, u.textures, 1)
	assert.Equal(t, uint32(4), u.textures[0].Width)
	assert.Equal(t, []int{0, 1}, u.bindings)
	assert.Equal(t, 1, u.groups)
	assert.False(t, m.Fallback())
	require.NotNil(t, m.BindGroupProvider())
	assert.Equal(t, "grid_texture", m.BindGroupProvider().Label())
}

func TestUpload_NoTextureUsesWhite(t *testing.T) {
	m := NewMaterial()
	u := &fakeUploader{}
	require.NoError(t, m.Upload(u, layout))
	require.Len(t, u.textures, 1)
	assert.Equal(t, uint32(1), u.textures[0].Width)
	assert.Equal(t, []byte{255, 255, 255, 255}, u.textures[0].Pixels)
	assert.True(t, m.Fallback())
}

func TestUpload_RejectedTextureFallsBack(t *testing.T) {
	m := NewMaterial(WithTexture(image.NewRGBA(image.Rect(0, 0, 64, 64))))
	u := &fakeUploader{maxWidth: 16}

	require.NoError(t, m.Upload(u, layout))
	require.Len(t, u.textures, 1)
	assert.Equal(t, uint32(1), u.textures[0].Width)
	assert.True(t, m.Fallback())
}

func TestUpload_SamplerFailure(t *testing.T) {
	m := NewMaterial()
	u := &fakeUploader{samplerErr: errors.New("bad sampler")}
	err := m.Upload(u, layout)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sampler")
	assert.Nil(t, m.BindGroupProvider())
}

func TestRelease(t *testing.T) {
	m := NewMaterial()
	require.NoError(t, m.Upload(&fakeUploader{}, layout))
	m.Release()
	assert.Nil(t, m.BindGroupProvider())
	m.Release()
}
