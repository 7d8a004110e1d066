// Package ili9341test is meant to be used to test ILI9341 drivers against an
// emulated controller.
//
// Panel decodes the command/data byte stream the way the controller does and
// rasterises memory writes into a frame buffer. Memory access control is
// recorded but not applied: the frame is kept in the coordinates the driver
// addresses.
package ili9341test

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/flavioheleno/ili9341/rgb565"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Command codes decoded by the panel.
const (
	CmdColumnAddressSet = 0x2A
	CmdPageAddressSet   = 0x2B
	CmdMemoryWrite      = 0x2C
)

// Op is a command received by the panel with its parameters.
type Op struct {
	Cmd    byte
	Data   []byte // Parameter bytes (nil for memory writes)
	Pixels int    // Pixels received by a memory write
}

// Panel implements spi.PortCloser and spi.Conn on top of an emulated ILI9341.
//
// Modify its exported members only while no transfer is in flight.
type Panel struct {
	sync.Mutex

	DC gpio.PinIn // Sampled for every byte: Low is a command, High is data
	CS gpio.PinIn // Optional; bytes are ignored while it reads High

	Frame  *rgb565.Image  // Display memory
	Ops    []Op           // Commands since the last Reset
	Colors []rgb565.Color // Pixel values since the last Reset

	// Parameters of the last Connect call.
	Hz   physic.Frequency
	Mode spi.Mode
	Bits int

	cols, pages [2]int
	x, y        int
	hi          byte
	half        bool
	connected   bool
}

// NewPanel returns a w by h panel whose command/data line is dc.
func NewPanel(w, h int, dc gpio.PinIn) *Panel {
	return &Panel{
		DC:    dc,
		Frame: rgb565.NewImage(image.Rect(0, 0, w, h)),
		cols:  [2]int{0, w - 1},
		pages: [2]int{0, h - 1},
	}
}

func (p *Panel) String() string {
	return fmt.Sprintf("ili9341test{%dx%d}", p.Frame.Rect.Dx(), p.Frame.Rect.Dy())
}

// Reset forgets the recorded commands and pixels. The frame is kept.
func (p *Panel) Reset() {
	p.Lock()
	defer p.Unlock()
	p.Ops = nil
	p.Colors = nil
}

// Window returns the current address window as a rectangle.
func (p *Panel) Window() image.Rectangle {
	p.Lock()
	defer p.Unlock()
	return image.Rect(p.cols[0], p.pages[0], p.cols[1]+1, p.pages[1]+1)
}

// Commands returns the command codes received since the last Reset.
func (p *Panel) Commands() []byte {
	p.Lock()
	defer p.Unlock()
	out := make([]byte, len(p.Ops))
	for i, op := range p.Ops {
		out[i] = op.Cmd
	}
	return out
}

// Tx implements conn.Conn. Reads return zeros.
func (p *Panel) Tx(w, r []byte) error {
	p.Lock()
	defer p.Unlock()
	for i := range r {
		r[i] = 0
	}
	if p.CS != nil && p.CS.Read() == gpio.High {
		return nil
	}
	data := p.DC.Read() == gpio.High
	for _, b := range w {
		if data {
			p.data(b)
		} else {
			p.command(b)
		}
	}
	return nil
}

// Duplex implements conn.Conn.
func (p *Panel) Duplex() conn.Duplex {
	return conn.Half
}

// TxPackets implements spi.Conn.
func (p *Panel) TxPackets(pkts []spi.Packet) error {
	for _, pkt := range pkts {
		if err := p.Tx(pkt.W, pkt.R); err != nil {
			return err
		}
	}
	return nil
}

// Connect implements spi.Port.
func (p *Panel) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	p.Lock()
	defer p.Unlock()
	if p.connected {
		return nil, errors.New("ili9341test: Connect cannot be called twice")
	}
	p.connected = true
	p.Hz, p.Mode, p.Bits = f, mode, bits
	return p, nil
}

// LimitSpeed implements spi.PortCloser.
func (p *Panel) LimitSpeed(f physic.Frequency) error {
	return nil
}

// Close implements spi.PortCloser.
func (p *Panel) Close() error {
	return nil
}

func (p *Panel) command(b byte) {
	p.Ops = append(p.Ops, Op{Cmd: b})
	p.half = false
	if b == CmdMemoryWrite {
		p.x, p.y = p.cols[0], p.pages[0]
	}
}

func (p *Panel) data(b byte) {
	if len(p.Ops) == 0 {
		return
	}
	op := &p.Ops[len(p.Ops)-1]
	if op.Cmd == CmdMemoryWrite {
		p.pixel(op, b)
		return
	}
	op.Data = append(op.Data, b)
	if len(op.Data) != 4 {
		return
	}
	start := int(op.Data[0])<<8 | int(op.Data[1])
	end := int(op.Data[2])<<8 | int(op.Data[3])
	switch op.Cmd {
	case CmdColumnAddressSet:
		p.cols = [2]int{start, end}
	case CmdPageAddressSet:
		p.pages = [2]int{start, end}
	}
}

// pixel accumulates one byte of a memory write and stores every complete
// pixel, advancing through the window row by row and wrapping at its end.
func (p *Panel) pixel(op *Op, b byte) {
	if !p.half {
		p.hi, p.half = b, true
		return
	}
	p.half = false
	c := rgb565.Color(p.hi)<<8 | rgb565.Color(b)
	p.Colors = append(p.Colors, c)
	op.Pixels++
	p.Frame.SetRGB565(p.x, p.y, c)

	p.x++
	if p.x > p.cols[1] {
		p.x = p.cols[0]
		p.y++
		if p.y > p.pages[1] {
			p.y = p.pages[0]
		}
	}
}
