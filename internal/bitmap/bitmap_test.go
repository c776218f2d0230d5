package bitmap

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

// column builds an 8-row image whose single column has the given dark rows.
func column(width int, dark map[[2]int]bool) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, RowBits))
	for y := 0; y < RowBits; y++ {
		for x := 0; x < width; x++ {
			if dark[[2]int{x, y}] {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 0xFF})
			}
		}
	}
	return img
}

func TestColumnsOrderAndBits(t *testing.T) {
	img := column(3, map[[2]int]bool{
		{0, 0}: true,
		{0, 7}: true,
		{2, 1}: true,
	})
	got := Columns(img, false)
	want := []byte{0x02, 0x00, 0x81}
	if !bytes.Equal(got, want) {
		t.Errorf("Columns() = %#v, want %#v", got, want)
	}
}

func TestColumnsInvert(t *testing.T) {
	img := column(1, map[[2]int]bool{{0, 0}: true})
	if got := Columns(img, true); !bytes.Equal(got, []byte{0xFE}) {
		t.Errorf("Columns(invert) = %#v, want 0xfe", got)
	}
}

func TestColumnsScalesHeight(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 32, 16))
	got := Columns(img, false)
	if len(got) != 16 {
		t.Fatalf("Columns() returned %d columns, want 16", len(got))
	}
	for i, c := range got {
		if c != 0xFF {
			t.Errorf("column %d = %#02x, want all lit", i, c)
		}
	}
}

func TestColumnsEmpty(t *testing.T) {
	if got := Columns(image.NewGray(image.Rect(0, 0, 0, 0)), false); got != nil {
		t.Errorf("Columns(empty) = %#v, want nil", got)
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name          string
		columns       []byte
		quiet, strobe bool
		want          string
	}{
		{"plain", []byte("AB"), false, false, "AB"},
		{"escape", []byte{'A', '.', 'B'}, false, false, "A..B"},
		{"strobe", []byte("A"), false, true, "A.s"},
		{"quiet", []byte("."), true, true, ".q...s"},
		{"empty", nil, false, true, ".s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(Encode(tt.columns, tt.quiet, tt.strobe)); got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadSVG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bar.svg")
	svg := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 4 8" width="4" height="8">` +
		`<rect x="0" y="0" width="2" height="8" fill="#000000"/></svg>`
	if err := os.WriteFile(path, []byte(svg), 0600); err != nil {
		t.Fatal(err)
	}
	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got := Columns(img, false)
	want := []byte{0x00, 0x00, 0xFF, 0xFF}
	if !bytes.Equal(got, want) {
		t.Errorf("Columns(svg) = %#v, want %#v", got, want)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}
