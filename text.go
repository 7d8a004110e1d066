package ili9341

import "github.com/flavioheleno/ili9341/rgb565"

// maxTextSize is the largest accepted text scale.
const maxTextSize = 8

// Character cell, in unscaled pixels: the glyph columns plus one blank column,
// and eight rows.
const (
	cellWidth  = glyphWidth + 1
	cellHeight = 8
)

// SetCursor moves the text cursor to (x, y).
func (d *Dev) SetCursor(x, y uint16) {
	d.cursorX, d.cursorY = x, y
}

// Cursor returns the text cursor position.
func (d *Dev) Cursor() (x, y uint16) {
	return d.cursorX, d.cursorY
}

// SetTextColor sets the text foreground and background colours.
// When both are equal the background is left untouched.
func (d *Dev) SetTextColor(fg, bg rgb565.Color) {
	d.textFg, d.textBg = fg, bg
}

// TextColor returns the text foreground and background colours.
func (d *Dev) TextColor() (fg, bg rgb565.Color) {
	return d.textFg, d.textBg
}

// SetTextSize sets the text scale. Zero selects 1; values above 8 are ignored.
func (d *Dev) SetTextSize(s uint8) {
	if s > maxTextSize {
		return
	}
	if s == 0 {
		s = 1
	}
	d.textSize = s
}

// TextSize returns the text scale.
func (d *Dev) TextSize() uint8 {
	return d.textSize
}

// DrawChar draws character ch with its top-left corner at (x, y), every font
// pixel scaled to a size by size block.
//
// Nothing is drawn when the corner is off the display. Background pixels are
// skipped when bg equals fg.
func (d *Dev) DrawChar(x, y uint16, ch byte, fg, bg rgb565.Color, size uint8) {
	if x >= d.width || y >= d.height {
		return
	}

	g := glyph(ch)
	for i := uint16(0); i < cellWidth; i++ {
		var line byte
		if i < glyphWidth {
			line = g[i]
		}
		for j := uint16(0); j < cellHeight; j++ {
			if line&1 != 0 {
				d.drawDot(x, y, i, j, fg, size)
			} else if bg != fg {
				d.drawDot(x, y, i, j, bg, size)
			}
			line >>= 1
		}
	}
}

// drawDot draws font pixel (i, j) of a character at (x, y).
func (d *Dev) drawDot(x, y, i, j uint16, c rgb565.Color, size uint8) {
	if size == 1 {
		d.DrawPixel(x+i, y+j, c)
		return
	}
	s := uint16(size)
	d.FillRect(x+i*s, y+j*s, s, s, c)
}

// WriteChar draws ch at the cursor with the current text style and advances
// the cursor. A newline moves to the start of the next text line and a
// carriage return is ignored. Lines are not wrapped.
func (d *Dev) WriteChar(ch byte) {
	switch ch {
	case '\n':
		d.cursorY += cellHeight * uint16(d.textSize)
		d.cursorX = 0
	case '\r':
	default:
		d.DrawChar(d.cursorX, d.cursorY, ch, d.textFg, d.textBg, d.textSize)
		d.cursorX += cellWidth * uint16(d.textSize)
	}
}

// WriteString writes s byte by byte with WriteChar, stopping at the first NUL.
func (d *Dev) WriteString(s string) {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return
		}
		d.WriteChar(s[i])
	}
}

// Write implements io.Writer on top of WriteChar, so that the display can be
// used with fmt.Fprintf. Every byte is written.
func (d *Dev) Write(p []byte) (int, error) {
	for _, ch := range p {
		d.WriteChar(ch)
	}
	return len(p), d.Err()
}
