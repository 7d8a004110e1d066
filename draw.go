package ili9341

import (
	"image/color"

	"github.com/flavioheleno/ili9341/rgb565"
)

// DrawPixel draws a single pixel. Coordinates outside the display are ignored.
func (d *Dev) DrawPixel(x, y uint16, c rgb565.Color) {
	if d.halted || x >= d.width || y >= d.height {
		return
	}
	d.setAddrWindow(x, y, x, y)
	d.beginPixels()
	d.pushColor(c)
	d.endPixels()
}

// DrawCircle draws the outline of a circle centered at (cx, cy) using the
// midpoint algorithm. A zero radius plots the center.
//
// Points left or above the display wrap around to large unsigned coordinates
// and are then dropped by DrawPixel.
func (d *Dev) DrawCircle(cx, cy, r uint16, c rgb565.Color) {
	plot := func(dx, dy int) {
		d.DrawPixel(uint16(int(cx)+dx), uint16(int(cy)+dy), c)
	}

	f := 1 - int(r)
	ddFx := 1
	ddFy := -2 * int(r)
	x := 0
	y := int(r)

	plot(0, y)
	plot(0, -y)
	plot(y, 0)
	plot(-y, 0)

	for x < y {
		if f >= 0 {
			y--
			ddFy += 2
			f += ddFy
		}
		x++
		ddFx += 2
		f += ddFx

		plot(x, y)
		plot(-x, y)
		plot(x, -y)
		plot(-x, -y)
		plot(y, x)
		plot(-y, x)
		plot(y, -x)
		plot(-y, -x)
	}
}

// FillRect fills a w by h rectangle whose top-left corner is (x, y).
// The rectangle is clipped to the display; nothing is drawn if the corner is
// off the display or the rectangle is empty.
func (d *Dev) FillRect(x, y, w, h uint16, c rgb565.Color) {
	if d.halted || x >= d.width || y >= d.height || w == 0 || h == 0 {
		return
	}
	if int(x)+int(w) > int(d.width) {
		w = d.width - x
	}
	if int(y)+int(h) > int(d.height) {
		h = d.height - y
	}

	d.setAddrWindow(x, y, x+w-1, y+h-1)
	d.beginPixels()
	for row := uint16(0); row < h; row++ {
		d.pushColors(c, int(w))
	}
	d.endPixels()
}

// FillScreen fills the whole display with one colour.
func (d *Dev) FillScreen(c rgb565.Color) {
	if d.halted {
		return
	}
	d.setAddrWindow(0, 0, d.width-1, d.height-1)
	d.beginPixels()
	d.pushColor(c)

	// The rest goes out in blocks of streamChunk pixels, then one by one.
	rest := int(d.width)*int(d.height) - 1
	d.pushColors(c, rest/streamChunk*streamChunk)
	for i := rest % streamChunk; i > 0; i-- {
		d.pushColor(c)
	}
	d.endPixels()
}

// Size implements drivers.Displayer.
func (d *Dev) Size() (x, y int16) {
	return int16(d.width), int16(d.height)
}

// SetPixel implements drivers.Displayer. The pixel is sent immediately;
// negative coordinates are ignored.
func (d *Dev) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 {
		return
	}
	d.DrawPixel(uint16(x), uint16(y), rgb565.FromRGBA(c))
}

// Display implements drivers.Displayer. The display has no frame buffer, so
// it only reports the device error, if any.
func (d *Dev) Display() error {
	return d.Err()
}
