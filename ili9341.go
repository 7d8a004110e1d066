package ili9341

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/flavioheleno/ili9341/rgb565"
	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"tinygo.org/x/drivers"
)

// Default panel geometry.
const (
	DefaultWidth  = 240
	DefaultHeight = 320
)

var errHalted = errors.New("ili9341: halted")

// Opts is the configuration for the ILI9341 display.
type Opts struct {
	// Display dimensions in pixels
	W int // Width (default: 240, must be ≤65535)
	H int // Height (default: 320, must be ≤65535)

	// Orientation, written once to the memory access control register.
	// Drawing coordinates are not transformed; W and H must already match it.
	Rotation drivers.Rotation
	RGB      bool // RGB colour order instead of the panel's BGR

	// Optional control lines
	CS  gpio.PinOut // Chip select (nil if the SPI port drives it)
	RST gpio.PinOut // Hardware reset (nil to rely on the software reset)

	// Timing
	Hz     physic.Frequency // SPI clock used by NewSPI (default: 10MHz)
	Settle time.Duration    // Delay after every transmitted byte (default: none)
	Clock  clockwork.Clock  // Time source for all delays (default: real clock)
}

// Dev is the device handle for the ILI9341 display.
//
// Dev is not safe for concurrent use: a register address and its parameters
// must reach the bus back to back.
type Dev struct {
	// Communication
	t     *transport
	dc    gpio.PinOut // Data/Command pin
	cs    gpio.PinOut // Chip select (optional)
	rst   gpio.PinOut // Reset pin (optional)
	clock clockwork.Clock

	// Display geometry
	width  uint16
	height uint16
	madctl byte

	// Text state
	cursorX, cursorY uint16
	textSize         uint8
	textFg, textBg   rgb565.Color

	buf    [streamChunk * 2]byte
	halted bool
}

// NewSPI creates a new ILI9341 device connected via SPI.
//
// The SPI port is configured for Mode0 (CPOL=0, CPHA=0), 8-bit transfers, at
// opts.Hz or 10MHz. The dc (Data/Command) GPIO pin must be provided.
//
// opts can be nil to use defaults (240x320 display).
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	hz := 10 * physic.MegaHertz
	if opts != nil && opts.Hz != 0 {
		hz = opts.Hz
	}
	c, err := p.Connect(hz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("ili9341: failed to connect: %w", err)
	}
	return New(c, dc, opts)
}

// New creates a new ILI9341 device on an already established connection and
// runs the controller bring-up sequence.
//
// opts can be nil to use defaults (240x320 display).
func New(c conn.Conn, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	if dc == nil {
		return nil, errors.New("ili9341: dc pin is required")
	}

	w, h := opts.W, opts.H
	if w == 0 {
		w = DefaultWidth
	}
	if h == 0 {
		h = DefaultHeight
	}
	if w < 0 || w > math.MaxUint16 {
		return nil, errors.New("ili9341: width must be between 1 and 65535")
	}
	if h < 0 || h > math.MaxUint16 {
		return nil, errors.New("ili9341: height must be between 1 and 65535")
	}
	mac, ok := madctl(opts.Rotation, opts.RGB)
	if !ok {
		return nil, fmt.Errorf("ili9341: invalid rotation %d", opts.Rotation)
	}

	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	d := &Dev{
		t:        newTransport(c, clock, opts.Settle),
		dc:       dc,
		cs:       opts.CS,
		rst:      opts.RST,
		clock:    clock,
		width:    uint16(w),
		height:   uint16(h),
		madctl:   mac,
		textSize: 1,
		textFg:   rgb565.White,
		textBg:   rgb565.White,
	}

	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// initStep is one register write of the bring-up sequence.
type initStep struct {
	reg   Register
	value uint16
	wide  bool          // 16-bit value
	delay time.Duration // wait after the write
}

// init sends the bring-up sequence to the display.
func (d *Dev) init() error {
	// Hardware reset sequence (if RST pin is provided)
	if d.rst != nil {
		d.t.setLine(d.rst, gpio.Low)
		d.clock.Sleep(10 * time.Millisecond)
		d.t.setLine(d.rst, gpio.High)
		d.clock.Sleep(120 * time.Millisecond)
		if d.t.err != nil {
			return fmt.Errorf("ili9341: failed to reset: %w", d.t.err)
		}
	}

	steps := []initStep{
		{reg: SWRESET, delay: 50 * time.Millisecond},
		{reg: DISPOFF},
		{reg: PWCTR1, value: 0x23},                // GVDD level
		{reg: PWCTR2, value: 0x10},                // DDVDH: VCIx2
		{reg: VMCTR1, value: 0x2B2B, wide: true},  // VCOMH / VCOML
		{reg: VMCTR2, value: 0xC0},                // VCOM offset
		{reg: MADCTL, value: uint16(d.madctl)},    // Orientation and colour order
		{reg: PIXFMT, value: 0x55},                // 16 bits per pixel
		{reg: FRMCTR1, value: 0x001B, wide: true}, // 70Hz
		{reg: ENTRYMODE, value: 0x07},             // Normal display, low voltage detection off
		{reg: SLPOUT, delay: 150 * time.Millisecond},
		{reg: DISPON, delay: 500 * time.Millisecond},
	}
	for _, s := range steps {
		if s.wide {
			d.writeData16(s.reg, s.value)
		} else {
			d.writeData8(s.reg, byte(s.value))
		}
		if s.delay > 0 {
			d.clock.Sleep(s.delay)
		}
	}
	d.setAddrWindow(0, 0, d.width-1, d.height-1)

	if d.t.err != nil {
		return fmt.Errorf("ili9341: failed to initialize: %w", d.t.err)
	}
	return nil
}

// Err returns the first transport or control line error seen by the device,
// or an error if the device is halted.
//
// Drawing calls never fail on their own; check Err after a batch of them.
func (d *Dev) Err() error {
	if d.t.err != nil {
		return d.t.err
	}
	if d.halted {
		return errHalted
	}
	return nil
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return rgb565.Model
}

// Bounds returns the image bounds of the display.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(d.width), int(d.height))
}

// Draw draws an image onto the display.
// The dst rectangle specifies the destination region on the display.
// The src image is positioned at src point sp within the destination.
//
// The clipped destination is sent as a single window; there is no
// differential update.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return errHalted
	}

	// Clip to display bounds
	r := dst.Intersect(d.Bounds())
	if r.Empty() {
		return d.Err()
	}
	sp = sp.Add(r.Min.Sub(dst.Min))
	w, h := r.Dx(), r.Dy()

	d.setAddrWindow(uint16(r.Min.X), uint16(r.Min.Y), uint16(r.Max.X-1), uint16(r.Max.Y-1))
	d.beginPixels()

	// Fast path: the source already holds controller byte order
	if img, ok := src.(*rgb565.Image); ok && image.Rect(sp.X, sp.Y, sp.X+w, sp.Y+h).In(img.Rect) {
		for y := 0; y < h; y++ {
			i := img.PixOffset(sp.X, sp.Y+y)
			d.t.write(img.Pix[i : i+w*2])
		}
	} else {
		n := 0
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := rgb565.Model.Convert(src.At(sp.X+x, sp.Y+y)).(rgb565.Color)
				d.buf[n], d.buf[n+1] = c.Bytes()
				n += 2
				if n == len(d.buf) {
					d.t.write(d.buf[:n])
					n = 0
				}
			}
		}
		d.t.write(d.buf[:n])
	}

	d.endPixels()
	return d.Err()
}

// Invert inverts the display colors.
func (d *Dev) Invert(invert bool) error {
	if d.halted {
		return errHalted
	}
	reg := INVOFF
	if invert {
		reg = INVON
	}
	d.writeCommand(reg)
	return d.Err()
}

// SetScrollArea defines a vertical scrolling area between a fixed top and a
// fixed bottom area, both in lines.
func (d *Dev) SetScrollArea(top, bottom uint16) error {
	if d.halted {
		return errHalted
	}
	if int(top)+int(bottom) > int(d.height) {
		return errors.New("ili9341: scroll area out of range")
	}
	scroll := d.height - top - bottom
	d.writeRegister(VSCRDEF,
		byte(top>>8), byte(top),
		byte(scroll>>8), byte(scroll),
		byte(bottom>>8), byte(bottom),
	)
	return d.Err()
}

// SetScroll sets the first line of the scrolling area shown at the top of it.
func (d *Dev) SetScroll(line uint16) error {
	if d.halted {
		return errHalted
	}
	d.writeData16(VSCRSADD, line)
	return d.Err()
}

// StopScroll returns the display to normal mode.
func (d *Dev) StopScroll() error {
	if d.halted {
		return errHalted
	}
	d.writeCommand(NORON)
	return d.Err()
}

// Halt turns the display off and releases the bus.
// After calling Halt, drawing calls are ignored until a new device is created.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	d.writeCommand(DISPOFF)
	d.halted = true
	return d.t.err
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ili9341.Dev{%dx%d}", d.width, d.height)
}
