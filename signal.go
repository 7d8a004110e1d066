package ili9341

import (
	"time"

	"github.com/flavioheleno/ili9341/rgb565"
	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"tinygo.org/x/drivers"
)

// Command/data line levels.
const (
	modeCommand = gpio.Low
	modeData    = gpio.High
)

// Chip-select levels; the select line is active low.
const (
	selectActive   = gpio.Low
	selectInactive = gpio.High
)

// streamChunk is the number of pixels buffered per transfer when streaming a
// single colour. It matches the block size of the full-screen fill.
const streamChunk = 64

// transport sends bytes over a conn.Conn.
//
// Errors are latched: once a transfer fails, every following transfer is
// dropped and err keeps the first failure.
type transport struct {
	c      conn.Conn
	clock  clockwork.Clock
	settle time.Duration
	maxTx  int
	one    [1]byte
	err    error
}

func newTransport(c conn.Conn, clock clockwork.Clock, settle time.Duration) *transport {
	t := &transport{c: c, clock: clock, settle: settle}
	if l, ok := c.(conn.Limits); ok {
		t.maxTx = l.MaxTxSize()
	}
	return t
}

// send transmits one byte.
func (t *transport) send(b byte) {
	t.one[0] = b
	t.write(t.one[:])
}

// write transmits p in order. With a settling delay configured every byte is
// sent on its own and followed by the delay.
func (t *transport) write(p []byte) {
	if t.err != nil || len(p) == 0 {
		return
	}
	if t.settle > 0 {
		for i := range p {
			if err := t.c.Tx(p[i:i+1], nil); err != nil {
				t.err = err
				return
			}
			t.clock.Sleep(t.settle)
		}
		return
	}
	for len(p) > 0 {
		n := len(p)
		if t.maxTx > 0 && n > t.maxTx {
			n = t.maxTx
		}
		if err := t.c.Tx(p[:n], nil); err != nil {
			t.err = err
			return
		}
		p = p[n:]
	}
}

// setLine drives a control line, latching any error.
func (t *transport) setLine(p gpio.PinOut, l gpio.Level) {
	if p == nil || t.err != nil {
		return
	}
	if err := p.Out(l); err != nil {
		t.err = err
	}
}

// selectChip asserts the chip-select line, when one is configured.
func (d *Dev) selectChip() {
	d.t.setLine(d.cs, selectActive)
}

// releaseChip deasserts the chip-select line, when one is configured.
func (d *Dev) releaseChip() {
	d.t.setLine(d.cs, selectInactive)
}

// writeCommand sends a register address in command mode.
func (d *Dev) writeCommand(reg Register) {
	d.selectChip()
	d.t.setLine(d.dc, modeCommand)
	d.t.send(byte(reg))
	d.releaseChip()
}

// writeData8 writes an 8-bit value to a register.
func (d *Dev) writeData8(reg Register, v byte) {
	d.writeRegister(reg, v)
}

// writeData16 writes a 16-bit value to a register, high byte first.
func (d *Dev) writeData16(reg Register, v uint16) {
	d.writeRegister(reg, byte(v>>8), byte(v))
}

// writeRegister sends a register address in command mode followed by its
// parameters in data mode.
func (d *Dev) writeRegister(reg Register, data ...byte) {
	d.selectChip()
	d.t.setLine(d.dc, modeCommand)
	d.t.send(byte(reg))
	d.t.setLine(d.dc, modeData)
	d.t.write(data)
	d.releaseChip()
}

// setAddrWindow programs the column and page address registers so the next
// memory write fills (x1,y1)-(x2,y2) inclusive. The caller clips.
func (d *Dev) setAddrWindow(x1, y1, x2, y2 uint16) {
	d.writeRegister(CASET, byte(x1>>8), byte(x1), byte(x2>>8), byte(x2))
	d.writeRegister(PASET, byte(y1>>8), byte(y1), byte(y2>>8), byte(y2))
}

// beginPixels issues the memory write command and leaves the bus selected in
// data mode for a pixel stream. endPixels must follow.
func (d *Dev) beginPixels() {
	d.writeCommand(RAMWR)
	d.selectChip()
	d.t.setLine(d.dc, modeData)
}

func (d *Dev) endPixels() {
	d.releaseChip()
}

// pushColor streams one pixel.
func (d *Dev) pushColor(c rgb565.Color) {
	hi, lo := c.Bytes()
	d.t.send(hi)
	d.t.send(lo)
}

// pushColors streams n copies of c, in chunks of streamChunk pixels.
func (d *Dev) pushColors(c rgb565.Color, n int) {
	if n <= 0 {
		return
	}
	hi, lo := c.Bytes()
	chunk := n
	if chunk > streamChunk {
		chunk = streamChunk
	}
	buf := d.buf[:chunk*2]
	for i := 0; i < len(buf); i += 2 {
		buf[i], buf[i+1] = hi, lo
	}
	for n > 0 {
		k := chunk
		if n < k {
			k = n
		}
		d.t.write(buf[:k*2])
		n -= k
	}
}

// tinyGoConn adapts a TinyGo SPI bus to conn.Conn.
type tinyGoConn struct {
	bus drivers.SPI
}

// FromTinyGo wraps a TinyGo SPI bus (such as machine.SPI0) so it can be
// passed to New.
func FromTinyGo(bus drivers.SPI) conn.Conn {
	return &tinyGoConn{bus: bus}
}

func (c *tinyGoConn) String() string {
	return "tinygo-spi"
}

func (c *tinyGoConn) Tx(w, r []byte) error {
	return c.bus.Tx(w, r)
}

func (c *tinyGoConn) Duplex() conn.Duplex {
	return conn.Full
}
