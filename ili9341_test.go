package ili9341

import (
	"errors"
	"image"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/flavioheleno/ili9341/ili9341test"
	"github.com/flavioheleno/ili9341/rgb565"
	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"tinygo.org/x/drivers"
)

var _ display.Drawer = (*Dev)(nil)

// bringUpDelays are the waits of the bring-up sequence, in order.
var bringUpDelays = []time.Duration{
	50 * time.Millisecond,
	150 * time.Millisecond,
	500 * time.Millisecond,
}

// runWithClock runs a constructor in the background and advances the fake
// clock through delays, returning what the constructor returned.
func runWithClock(t *testing.T, clock clockwork.FakeClock, delays []time.Duration, fn func() (*Dev, error)) (*Dev, error) {
	t.Helper()
	type result struct {
		dev *Dev
		err error
	}
	done := make(chan result, 1)
	go func() {
		dev, err := fn()
		done <- result{dev, err}
	}()
	for _, d := range delays {
		clock.BlockUntil(1)
		clock.Advance(d)
	}
	select {
	case r := <-done:
		return r.dev, r.err
	case <-time.After(5 * time.Second):
		t.Fatal("constructor did not return")
		return nil, nil
	}
}

// newTestDev returns a brought-up device driving an emulated w by h panel.
// The panel log is cleared before returning.
func newTestDev(t *testing.T, w, h int) (*Dev, *ili9341test.Panel) {
	t.Helper()
	dc := &gpiotest.Pin{N: "DC"}
	p := ili9341test.NewPanel(w, h, dc)
	clock := clockwork.NewFakeClock()
	dev, err := runWithClock(t, clock, bringUpDelays, func() (*Dev, error) {
		return New(p, dc, &Opts{W: w, H: h, Clock: clock})
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	p.Reset()
	return dev, p
}

// litPixels returns the coordinates of every pixel of the frame set to c.
func litPixels(p *ili9341test.Panel, c rgb565.Color) map[image.Point]bool {
	out := map[image.Point]bool{}
	b := p.Frame.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if p.Frame.RGB565At(x, y) == c {
				out[image.Pt(x, y)] = true
			}
		}
	}
	return out
}

func TestOptsValidation(t *testing.T) {
	dc := &gpiotest.Pin{N: "DC"}
	tests := []struct {
		name    string
		opts    *Opts
		wantErr string
	}{
		{"negative width", &Opts{W: -1}, "ili9341: width must be between 1 and 65535"},
		{"width too large", &Opts{W: 70000}, "ili9341: width must be between 1 and 65535"},
		{"negative height", &Opts{H: -5}, "ili9341: height must be between 1 and 65535"},
		{"height too large", &Opts{H: 65536}, "ili9341: height must be between 1 and 65535"},
		{"invalid rotation", &Opts{Rotation: 8}, "ili9341: invalid rotation 8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&conntest.Discard{}, dc, tt.opts)
			if err == nil {
				t.Fatal("expected error but didn't get one")
			}
			if err.Error() != tt.wantErr {
				t.Errorf("New() error = %q, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewRequiresDC(t *testing.T) {
	if _, err := New(&conntest.Discard{}, nil, nil); err == nil {
		t.Error("New() without dc pin should fail")
	}
}

func TestBringUpSequence(t *testing.T) {
	dc := &gpiotest.Pin{N: "DC"}
	p := ili9341test.NewPanel(240, 320, dc)
	clock := clockwork.NewFakeClock()
	dev, err := runWithClock(t, clock, bringUpDelays, func() (*Dev, error) {
		return New(p, dc, &Opts{Clock: clock})
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := []ili9341test.Op{
		{Cmd: byte(SWRESET), Data: []byte{0x00}},
		{Cmd: byte(DISPOFF), Data: []byte{0x00}},
		{Cmd: byte(PWCTR1), Data: []byte{0x23}},
		{Cmd: byte(PWCTR2), Data: []byte{0x10}},
		{Cmd: byte(VMCTR1), Data: []byte{0x2B, 0x2B}},
		{Cmd: byte(VMCTR2), Data: []byte{0xC0}},
		{Cmd: byte(MADCTL), Data: []byte{0x88}},
		{Cmd: byte(PIXFMT), Data: []byte{0x55}},
		{Cmd: byte(FRMCTR1), Data: []byte{0x00, 0x1B}},
		{Cmd: byte(ENTRYMODE), Data: []byte{0x07}},
		{Cmd: byte(SLPOUT), Data: []byte{0x00}},
		{Cmd: byte(DISPON), Data: []byte{0x00}},
		{Cmd: byte(CASET), Data: []byte{0x00, 0x00, 0x00, 0xEF}},
		{Cmd: byte(PASET), Data: []byte{0x00, 0x00, 0x01, 0x3F}},
	}
	if !reflect.DeepEqual(p.Ops, want) {
		t.Errorf("bring-up ops =\n%+v\nwant\n%+v", p.Ops, want)
	}
	if got := p.Window(); got != dev.Bounds() {
		t.Errorf("window after bring-up = %v, want %v", got, dev.Bounds())
	}
}

func TestBringUpDelays(t *testing.T) {
	dc := &gpiotest.Pin{N: "DC"}
	p := ili9341test.NewPanel(240, 320, dc)
	clock := clockwork.NewFakeClock()

	done := make(chan error, 1)
	go func() {
		_, err := New(p, dc, &Opts{Clock: clock})
		done <- err
	}()

	// Commands sent before each wait, and the wait itself.
	phases := []struct {
		cmds  int
		delay time.Duration
	}{
		{1, 50 * time.Millisecond},
		{11, 150 * time.Millisecond},
		{12, 500 * time.Millisecond},
	}
	for _, ph := range phases {
		clock.BlockUntil(1)
		if got := len(p.Commands()); got != ph.cmds {
			t.Fatalf("%d commands sent before the %v wait, want %d", got, ph.delay, ph.cmds)
		}
		clock.Advance(ph.delay - time.Millisecond)
		if got := len(p.Commands()); got != ph.cmds {
			t.Fatalf("bring-up resumed %v early", time.Millisecond)
		}
		clock.Advance(time.Millisecond)
	}
	if err := <-done; err != nil {
		t.Fatalf("New() error = %v", err)
	}
}

func TestBringUpHardwareReset(t *testing.T) {
	dc := &gpiotest.Pin{N: "DC"}
	rst := &gpiotest.Pin{N: "RST", L: gpio.High}
	p := ili9341test.NewPanel(240, 320, dc)
	clock := clockwork.NewFakeClock()

	delays := append([]time.Duration{10 * time.Millisecond, 120 * time.Millisecond}, bringUpDelays...)
	_, err := runWithClock(t, clock, delays, func() (*Dev, error) {
		return New(p, dc, &Opts{RST: rst, Clock: clock})
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if rst.Read() != gpio.High {
		t.Error("RST should be released (High) after bring-up")
	}
}

func TestBringUpRotation(t *testing.T) {
	tests := []struct {
		name string
		opts Opts
		want byte
	}{
		{"default", Opts{}, 0x88},
		{"rotation 90", Opts{Rotation: drivers.Rotation90}, 0x28},
		{"rotation 180", Opts{Rotation: drivers.Rotation180}, 0x48},
		{"rotation 270", Opts{Rotation: drivers.Rotation270}, 0xE8},
		{"mirrored", Opts{Rotation: drivers.Rotation0Mirror}, 0xC8},
		{"rgb order", Opts{RGB: true}, 0x80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dc := &gpiotest.Pin{N: "DC"}
			p := ili9341test.NewPanel(240, 320, dc)
			clock := clockwork.NewFakeClock()
			opts := tt.opts
			opts.Clock = clock
			if _, err := runWithClock(t, clock, bringUpDelays, func() (*Dev, error) {
				return New(p, dc, &opts)
			}); err != nil {
				t.Fatalf("New() error = %v", err)
			}
			for _, op := range p.Ops {
				if op.Cmd == byte(MADCTL) {
					if len(op.Data) != 1 || op.Data[0] != tt.want {
						t.Errorf("MADCTL data = %#v, want [%#02x]", op.Data, tt.want)
					}
					return
				}
			}
			t.Error("MADCTL was not written")
		})
	}
}

func TestNewSPI(t *testing.T) {
	dc := &gpiotest.Pin{N: "DC"}
	p := ili9341test.NewPanel(240, 320, dc)
	clock := clockwork.NewFakeClock()
	dev, err := runWithClock(t, clock, bringUpDelays, func() (*Dev, error) {
		return NewSPI(p, dc, &Opts{Clock: clock})
	})
	if err != nil {
		t.Fatalf("NewSPI() error = %v", err)
	}
	if p.Hz != 10*physic.MegaHertz || p.Mode != spi.Mode0 || p.Bits != 8 {
		t.Errorf("Connect(%v, %v, %d), want (10MHz, Mode0, 8)", p.Hz, p.Mode, p.Bits)
	}
	if dev.Bounds() != image.Rect(0, 0, 240, 320) {
		t.Errorf("Bounds() = %v", dev.Bounds())
	}
}

func TestNewSPIConnectError(t *testing.T) {
	dc := &gpiotest.Pin{N: "DC"}
	p := ili9341test.NewPanel(240, 320, dc)
	if _, err := p.Connect(physic.MegaHertz, spi.Mode0, 8); err != nil {
		t.Fatal(err)
	}
	_, err := NewSPI(p, dc, nil)
	if err == nil || !strings.HasPrefix(err.Error(), "ili9341: failed to connect") {
		t.Errorf("NewSPI() error = %v, want connect failure", err)
	}
}

func TestBringUpTransportError(t *testing.T) {
	dc := &gpiotest.Pin{N: "DC"}
	clock := clockwork.NewFakeClock()
	_, err := runWithClock(t, clock, bringUpDelays, func() (*Dev, error) {
		return New(&conntest.Playback{DontPanic: true}, dc, &Opts{Clock: clock})
	})
	if err == nil {
		t.Fatal("New() should fail when the bus fails")
	}
	if !conntest.IsErr(errors.Unwrap(err)) {
		t.Errorf("New() error = %v, want the wrapped bus error", err)
	}
}

func TestDevBounds(t *testing.T) {
	dev := &Dev{width: 240, height: 320}
	want := image.Rect(0, 0, 240, 320)
	if got := dev.Bounds(); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
}

func TestDevColorModel(t *testing.T) {
	dev := &Dev{}
	if dev.ColorModel() != rgb565.Model {
		t.Error("ColorModel() did not return rgb565.Model")
	}
}

func TestDevString(t *testing.T) {
	dev := &Dev{width: 240, height: 320}
	want := "ili9341.Dev{240x320}"
	if got := dev.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDevHalt(t *testing.T) {
	dev, p := newTestDev(t, 16, 16)

	if err := dev.Halt(); err != nil {
		t.Fatalf("Halt() error = %v", err)
	}
	if got := p.Commands(); len(got) != 1 || got[0] != byte(DISPOFF) {
		t.Errorf("Halt() sent %#v, want [DISPOFF]", got)
	}
	p.Reset()

	// Drawing is ignored once halted
	dev.FillScreen(rgb565.Red)
	dev.FillRect(0, 0, 4, 4, rgb565.Red)
	dev.DrawPixel(1, 1, rgb565.Red)
	dev.DrawCircle(8, 8, 3, rgb565.Red)
	dev.WriteString("halted")
	if len(p.Ops) != 0 {
		t.Errorf("%d ops sent after Halt, want 0", len(p.Ops))
	}

	if err := dev.Err(); err != errHalted {
		t.Errorf("Err() = %v, want %v", err, errHalted)
	}
	if err := dev.Invert(true); err == nil {
		t.Error("Invert should fail when halted")
	}
	if err := dev.SetScroll(1); err == nil {
		t.Error("SetScroll should fail when halted")
	}
	if err := dev.SetScrollArea(0, 0); err == nil {
		t.Error("SetScrollArea should fail when halted")
	}
	if err := dev.StopScroll(); err == nil {
		t.Error("StopScroll should fail when halted")
	}
	if err := dev.Draw(dev.Bounds(), image.NewRGBA(dev.Bounds()), image.Point{}); err == nil {
		t.Error("Draw should fail when halted")
	}
	if err := dev.Halt(); err != nil {
		t.Errorf("second Halt() error = %v", err)
	}
}

func TestErrLatches(t *testing.T) {
	bus := &conntest.Playback{DontPanic: true}
	dev := &Dev{
		t:        newTransport(bus, clockwork.NewFakeClock(), 0),
		dc:       &gpiotest.Pin{N: "DC"},
		width:    16,
		height:   16,
		textSize: 1,
	}

	dev.FillScreen(rgb565.Blue)
	first := dev.Err()
	if first == nil {
		t.Fatal("Err() = nil after a failing transfer")
	}
	dev.FillScreen(rgb565.Red)
	if bus.Count != 0 {
		t.Errorf("bus saw %d successful transfers, want 0", bus.Count)
	}
	if err := dev.Err(); err != first {
		t.Errorf("Err() = %v, want the first error %v", err, first)
	}
	if err := dev.Display(); err != first {
		t.Errorf("Display() = %v, want %v", err, first)
	}
}

func TestInvert(t *testing.T) {
	dev, p := newTestDev(t, 16, 16)
	if err := dev.Invert(true); err != nil {
		t.Fatal(err)
	}
	if err := dev.Invert(false); err != nil {
		t.Fatal(err)
	}
	want := []byte{byte(INVON), byte(INVOFF)}
	if got := p.Commands(); !reflect.DeepEqual(got, want) {
		t.Errorf("Commands() = %#v, want %#v", got, want)
	}
}

func TestScroll(t *testing.T) {
	dev, p := newTestDev(t, 240, 320)

	if err := dev.SetScrollArea(10, 20); err != nil {
		t.Fatal(err)
	}
	if err := dev.SetScroll(300); err != nil {
		t.Fatal(err)
	}
	if err := dev.StopScroll(); err != nil {
		t.Fatal(err)
	}
	want := []ili9341test.Op{
		{Cmd: byte(VSCRDEF), Data: []byte{0x00, 0x0A, 0x01, 0x22, 0x00, 0x14}},
		{Cmd: byte(VSCRSADD), Data: []byte{0x01, 0x2C}},
		{Cmd: byte(NORON)},
	}
	if !reflect.DeepEqual(p.Ops, want) {
		t.Errorf("ops = %+v, want %+v", p.Ops, want)
	}

	if err := dev.SetScrollArea(300, 100); err == nil {
		t.Error("SetScrollArea should reject areas taller than the display")
	}
}

func TestDraw(t *testing.T) {
	tests := []struct {
		name string
		src  func() image.Image
	}{
		{"rgb565 fast path", func() image.Image {
			img := rgb565.NewImage(image.Rect(0, 0, 8, 8))
			for y := 0; y < 8; y++ {
				for x := 0; x < 8; x++ {
					img.SetRGB565(x, y, rgb565.Color(y*8+x))
				}
			}
			return img
		}},
		{"generic image", func() image.Image {
			img := image.NewRGBA(image.Rect(0, 0, 8, 8))
			for y := 0; y < 8; y++ {
				for x := 0; x < 8; x++ {
					img.Set(x, y, rgb565.Color(y*8+x))
				}
			}
			return img
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, p := newTestDev(t, 16, 16)

			// Destination hangs off the right edge: only 4 columns remain.
			if err := dev.Draw(image.Rect(12, 2, 20, 6), tt.src(), image.Pt(1, 1)); err != nil {
				t.Fatalf("Draw() error = %v", err)
			}
			if got, want := p.Window(), image.Rect(12, 2, 16, 6); got != want {
				t.Errorf("window = %v, want %v", got, want)
			}
			if len(p.Colors) != 16 {
				t.Errorf("streamed %d pixels, want 16", len(p.Colors))
			}
			for y := 0; y < 4; y++ {
				for x := 0; x < 4; x++ {
					want := rgb565.Color((y+1)*8 + x + 1)
					if got := p.Frame.RGB565At(12+x, 2+y); got != want {
						t.Errorf("pixel (%d, %d) = %#04x, want %#04x", 12+x, 2+y, got, want)
					}
				}
			}
		})
	}
}

func TestDrawOutside(t *testing.T) {
	dev, p := newTestDev(t, 16, 16)
	if err := dev.Draw(image.Rect(20, 20, 30, 30), image.NewRGBA(image.Rect(0, 0, 10, 10)), image.Point{}); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if len(p.Ops) != 0 {
		t.Errorf("%d ops for an off-screen Draw, want 0", len(p.Ops))
	}
}
