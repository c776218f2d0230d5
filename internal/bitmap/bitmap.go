// Package bitmap turns images into the byte stream understood by the panels.
//
// Each byte is one column of a height-8 panel: bit n lights pixel row n.
// Columns are sent from the rightmost to the leftmost, because the first byte
// shifted ends up deepest in the register chain.
package bitmap

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
)

const (
	// RowBits is the number of pixels carried by one byte.
	RowBits = 8

	controlByte = '.'
)

// Load reads a raster image (PNG, GIF, JPEG) or an SVG drawing.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".svg") {
		return rasterizeSVG(f)
	}
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("bitmap: unable to decode %s: %w", path, err)
	}
	return img, nil
}

func rasterizeSVG(r io.Reader) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(r)
	if err != nil {
		return nil, fmt.Errorf("bitmap: unable to parse svg: %w", err)
	}
	w, h := int(icon.ViewBox.W), int(icon.ViewBox.H)
	if w <= 0 || h <= 0 {
		return nil, errors.New("bitmap: svg has an empty view box")
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	icon.SetTarget(0, 0, float64(w), float64(h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return img, nil
}

// Columns scales img to RowBits pixel rows and returns one byte per column,
// rightmost column first. Dark pixels are lit unless invert is set.
func Columns(img image.Image, invert bool) []byte {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}
	width := b.Dx()
	if b.Dy() != RowBits {
		width = (b.Dx()*RowBits + b.Dy()/2) / b.Dy()
		if width < 1 {
			width = 1
		}
		scaled := image.NewGray(image.Rect(0, 0, width, RowBits))
		xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, b, xdraw.Src, nil)
		img, b = scaled, scaled.Bounds()
	}

	columns := make([]byte, 0, width)
	for x := b.Max.X - 1; x >= b.Min.X; x-- {
		var column byte
		for row := 0; row < RowBits; row++ {
			if dark(img.At(x, b.Min.Y+row)) != invert {
				column |= 1 << uint(row)
			}
		}
		columns = append(columns, column)
	}
	return columns
}

func dark(c color.Color) bool {
	g := color.GrayModel.Convert(c).(color.Gray)
	_, _, _, a := c.RGBA()
	return a >= 0x8000 && g.Y < 0x80
}

// Encode escapes the control byte in columns and optionally appends a strobe
// directive. A quiet prefix silences the replies of the receiver.
func Encode(columns []byte, quiet, strobe bool) []byte {
	var buf bytes.Buffer
	if quiet {
		buf.WriteString(".q")
	}
	for _, c := range columns {
		if c == controlByte {
			buf.WriteByte(controlByte)
		}
		buf.WriteByte(c)
	}
	if strobe {
		buf.WriteString(".s")
	}
	return buf.Bytes()
}
