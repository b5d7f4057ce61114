package trace

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-browserpilot/pkg/models"
)

func screenshot(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for x := 0; x < 8; x++ {
		for y := 0; y < 6; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func steps(t *testing.T, n int) []models.StepEvent {
	t.Helper()
	out := make([]models.StepEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.StepEvent{
			Sequence:   i,
			Goal:       "goal",
			Action:     "navigate(https://example.com)",
			Evaluation: "fine",
			Screenshot: screenshot(t, color.RGBA{R: uint8(40 * i), G: 80, B: 120, A: 255}),
			Timestamp:  time.Now(),
		})
	}
	return out
}

func TestRenderEmptyFails(t *testing.T) {
	_, err := Render(nil, 500*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, models.KindRender, models.KindOf(err))
}

func TestRenderSingleStepIsOneFrame(t *testing.T) {
	data, err := Render(steps(t, 1), 500*time.Millisecond)
	require.NoError(t, err)

	decoded, err := gif.DecodeAll(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, decoded.Image, 1)
	assert.Equal(t, []int{50}, decoded.Delay)
	assert.Equal(t, 0, decoded.LoopCount)
}

func TestRenderOneFramePerStep(t *testing.T) {
	data, err := Render(steps(t, 3), 200*time.Millisecond)
	require.NoError(t, err)

	decoded, err := gif.DecodeAll(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, decoded.Image, 3)
	for _, d := range decoded.Delay {
		assert.Equal(t, 20, d)
	}
}

func TestRenderCorruptScreenshotFails(t *testing.T) {
	evs := steps(t, 2)
	evs[1].Screenshot = []byte("not a png")

	_, err := Render(evs, 500*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, models.KindRender, models.KindOf(err))
	assert.Contains(t, err.Error(), "step 1")
}

func TestRenderTinyDelayStaysPositive(t *testing.T) {
	data, err := Render(steps(t, 1), time.Millisecond)
	require.NoError(t, err)

	decoded, err := gif.DecodeAll(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, decoded.Delay)
}

func TestRenderLogOneRecordPerStep(t *testing.T) {
	evs := steps(t, 4)
	records := RenderLog(evs)

	require.Len(t, records, 4)
	for i, r := range records {
		assert.Equal(t, evs[i].Goal, r.Goal)
		assert.Equal(t, evs[i].Action, r.Action)
		assert.Equal(t, evs[i].Evaluation, r.Evaluation)
	}
}

func TestRenderLogEmpty(t *testing.T) {
	assert.Empty(t, RenderLog(nil))
}
