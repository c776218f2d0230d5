package srv

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/bitmapfont/v2"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const glyphWidth = 6

var uniformImage = image.NewUniform(color.White)

// AddLabel draws label with its baseline at y.
func AddLabel(img draw.Image, x, y int, label string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  uniformImage,
		Face: bitmapfont.Face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label)
}

func AddCenteredLabel(img draw.Image, y int, label string) {
	b := img.Bounds()
	AddLabel(img, b.Min.X+(b.Dx()-len(label)*glyphWidth)/2, y, label)
}
