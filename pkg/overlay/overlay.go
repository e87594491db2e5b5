// Package overlay renders verification images for prepared tasks: the source
// photo with mask pixels tinted and bounding boxes stroked on top.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/llgcode/draw2d/draw2dimg"
	"go.uber.org/zap"

	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/prepare"
)

var (
	maskTint  = color.RGBA{R: 255, A: 76} // translucent red
	boxStroke = color.RGBA{G: 200, A: 255}
)

// Render composes the task's image, masks and boxes into a single RGBA
// verification frame.
func Render(task *prepare.PreparedTask) *image.RGBA {
	bounds := task.Image.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Rect, task.Image, bounds.Min, draw.Src)

	for _, mask := range task.Masks {
		tint := image.NewUniform(maskTint)
		w, h := mask.Width, mask.Height
		if w > out.Rect.Dx() {
			w = out.Rect.Dx()
		}
		if h > out.Rect.Dy() {
			h = out.Rect.Dy()
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if mask.At(x, y) {
					draw.Draw(out, image.Rect(x, y, x+1, y+1), tint, image.Point{}, draw.Over)
				}
			}
		}
	}

	gc := draw2dimg.NewGraphicContext(out)
	gc.SetStrokeColor(boxStroke)
	gc.SetLineWidth(2)
	for _, box := range task.Boxes {
		gc.MoveTo(float64(box.XMin), float64(box.YMin))
		gc.LineTo(float64(box.XMax), float64(box.YMin))
		gc.LineTo(float64(box.XMax), float64(box.YMax))
		gc.LineTo(float64(box.XMin), float64(box.YMax))
		gc.Close()
		gc.Stroke()
	}
	return out
}

// WriteBatch renders every prepared task into dir as {task_id}.png.
func WriteBatch(batch *prepare.PreparedBatch, dir string, logger *zap.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, task := range batch.Tasks {
		path := filepath.Join(dir, fmt.Sprintf("%d.png", task.TaskID))
		if err := draw2dimg.SaveToPngFile(path, Render(task)); err != nil {
			return fmt.Errorf("overlay: render task %d: %w", task.TaskID, err)
		}
	}
	logger.Info("verification overlays written",
		zap.String("dir", dir),
		zap.Int("count", len(batch.Tasks)))
	return nil
}
