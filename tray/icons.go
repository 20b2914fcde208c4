package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
)

const iconSize = 44

var (
	green  = color.RGBA{R: 50, G: 205, B: 50, A: 255}
	yellow = color.RGBA{R: 255, G: 200, B: 0, A: 255}
	gray   = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	dark   = color.RGBA{R: 40, G: 40, B: 40, A: 255}

	icons map[Icon][]byte
)

func init() {
	icons = map[Icon][]byte{
		IconGreen:  renderIcon(iconSize, green),
		IconYellow: renderIcon(iconSize, yellow),
		IconGray:   renderIcon(iconSize, gray),
		IconPaused: renderPausedIcon(iconSize, yellow),
	}
}

// PNG returns the encoded image for an icon.
func PNG(i Icon) []byte {
	if b, ok := icons[i]; ok {
		return b
	}
	return icons[IconGray]
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic("encodePNG: " + err.Error())
	}
	return buf.Bytes()
}

// drawCircle fills a disc with a one-pixel dark outline.
func drawCircle(img *image.RGBA, size int, fill color.RGBA) {
	c := float64(size) / 2
	r := c - 2
	for y := range size {
		for x := range size {
			d := math.Hypot(float64(x)+0.5-c, float64(y)+0.5-c)
			switch {
			case d <= r-1:
				img.Set(x, y, fill)
			case d <= r:
				img.Set(x, y, dark)
			}
		}
	}
}

func renderIcon(size int, fill color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	drawCircle(img, size, fill)
	return encodePNG(img)
}

// renderPausedIcon draws the disc with two dark pause bars across it.
func renderPausedIcon(size int, fill color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	drawCircle(img, size, fill)

	s := float64(size)
	barW := s * 0.12
	gap := s * 0.08
	top, bottom := s*0.3, s*0.7
	for y := range size {
		fy := float64(y) + 0.5
		if fy < top || fy > bottom {
			continue
		}
		for x := range size {
			fx := float64(x) + 0.5
			left := fx >= s/2-gap-barW && fx <= s/2-gap
			right := fx >= s/2+gap && fx <= s/2+gap+barW
			if left || right {
				img.Set(x, y, dark)
			}
		}
	}
	return encodePNG(img)
}
