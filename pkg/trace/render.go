package trace

import (
	"bytes"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"time"

	"go-browserpilot/pkg/models"
)

// Record is the textual view of one step, for the UI's step log.
type Record struct {
	Goal       string `json:"goal"`
	Action     string `json:"action"`
	Evaluation string `json:"evaluation"`
}

// RenderLog produces exactly one record per step, in step order.
func RenderLog(steps []models.StepEvent) []Record {
	records := make([]Record, 0, len(steps))
	for _, s := range steps {
		records = append(records, Record{
			Goal:       s.Goal,
			Action:     s.Action,
			Evaluation: s.Evaluation,
		})
	}
	return records
}

// Render assembles the step screenshots into one looping animated GIF, one
// frame per step with a fixed display duration. A corrupt frame is an error
// rather than a skip: a shorter animation would no longer line up with the
// step log.
func Render(steps []models.StepEvent, frameDelay time.Duration) ([]byte, error) {
	if len(steps) == 0 {
		return nil, models.NewError(models.KindRender, "no steps to render")
	}

	delay := int(frameDelay / (10 * time.Millisecond)) // gif counts in 1/100s
	if delay < 1 {
		delay = 1
	}

	out := &gif.GIF{LoopCount: 0}
	for _, s := range steps {
		img, err := png.Decode(bytes.NewReader(s.Screenshot))
		if err != nil {
			return nil, models.WrapError(models.KindRender, fmt.Sprintf("decode screenshot of step %d", s.Sequence), err)
		}
		frame := image.NewPaletted(img.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(frame, img.Bounds(), img, img.Bounds().Min)
		out.Image = append(out.Image, frame)
		out.Delay = append(out.Delay, delay)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, out); err != nil {
		return nil, models.WrapError(models.KindRender, "encode gif", err)
	}
	return buf.Bytes(), nil
}
