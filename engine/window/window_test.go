package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowBuilderOptions(t *testing.T) {
	t.Parallel()

	w := &engineWindow{width: 1280, height: 720}
	for _, opt := range []WindowBuilderOption{
		WithTitle("visualizer"),
		WithSize(800, 0),
		WithMinSize(100, 50),
		WithMaxSize(1920, 1080),
	} {
		opt(w)
	}

	assert.Equal(t, "visualizer", w.title)
	assert.Equal(t, 800, w.width)
	assert.Equal(t, 720, w.height)
	assert.Equal(t, [4]int{100, 50, 1920, 1080}, [4]int{w.minWidth, w.minHeight, w.maxWidth, w.maxHeight})
}

func TestWindowEventDispatch(t *testing.T) {
	t.Parallel()

	w := &engineWindow{}

	// no callbacks registered
	w.handleResize(10, 20)
	w.handleKeyDown(256)
	w.handleClose()
	assert.Equal(t, 10, w.Width())
	assert.Equal(t, 20, w.Height())

	var sizes [][2]int
	var keys []uint32
	closes := 0
	w.SetResizeCallback(func(width, height int) { sizes = append(sizes, [2]int{width, height}) })
	w.SetKeyDownCallback(func(k uint32) { keys = append(keys, k) })
	w.SetCloseCallback(func() { closes++ })

	w.handleResize(0, 0)
	w.handleResize(640, 480)
	w.handleKeyDown(81)
	w.handleClose()

	assert.Equal(t, [][2]int{{0, 0}, {640, 480}}, sizes)
	assert.Equal(t, []uint32{81}, keys)
	assert.Equal(t, 1, closes)
	assert.Equal(t, 640, w.Width())
}

func TestWindowWithoutPlatform(t *testing.T) {
	t.Parallel()

	w := &engineWindow{}
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.Error(t, w.Close())
	w.PollEvents()
}
