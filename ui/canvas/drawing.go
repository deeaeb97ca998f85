package canvas

import (
	"image"
	"image/color"
)

const crosshairRadius = 10

// drawCrosshair draws a crosshair marker centered at (cx, cy).
func drawCrosshair(img *image.RGBA, cx, cy int, c color.RGBA) {
	for d := -crosshairRadius; d <= crosshairRadius; d++ {
		setPixel(img, cx+d, cy, c)
		setPixel(img, cx, cy+d, c)
	}

	// Open square around the center so the exact pixel stays visible
	r := crosshairRadius / 2
	for d := -r; d <= r; d++ {
		setPixel(img, cx+d, cy-r, c)
		setPixel(img, cx+d, cy+r, c)
		setPixel(img, cx-r, cy+d, c)
		setPixel(img, cx+r, cy+d, c)
	}
}

// drawLine draws a line using Bresenham's algorithm.
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	dx := absInt(x2 - x1)
	dy := -absInt(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx + dy

	for {
		setPixel(img, x1, y1, c)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

func setPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
