package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMouseButton_String(t *testing.T) {
	assert.Equal(t, "left", MouseButtonLeft.String())
	assert.Equal(t, "right", MouseButtonRight.String())
	assert.Equal(t, "middle", MouseButtonMiddle.String())
	assert.Equal(t, "button7", MouseButton(7).String())
}

func TestBuilderOptions(t *testing.T) {
	w := &engineWindow{width: 1280, height: 720}
	for _, opt := range []WindowBuilderOption{
		WithTitle("face"),
		WithSize(800, 0),
		WithSizeLimits(100, 50, 1000, 500),
	} {
		opt(w)
	}
	assert.Equal(t, "face", w.title)
	assert.Equal(t, 800, w.width)
	assert.Equal(t, 720, w.height, "non-positive size keeps the default")
	assert.Equal(t, [4]int{100, 50, 1000, 500}, [4]int{w.minWidth, w.minHeight, w.maxWidth, w.maxHeight})
}

func TestUninitializedWindow(t *testing.T) {
	w := &engineWindow{}
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.Error(t, w.Close())
	w.SetTitle("ignored")
	assert.Equal(t, "ignored", w.title)
}
