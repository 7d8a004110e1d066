package ili9341

import "tinygo.org/x/drivers"

// Register is an ILI9341 command code.
type Register byte

// Registers used by the driver (ILI9341 datasheet, pp. 83-88).
const (
	NOP       Register = 0x00 // No operation
	SWRESET   Register = 0x01 // Software reset
	SLPIN     Register = 0x10 // Enter sleep mode
	SLPOUT    Register = 0x11 // Sleep out
	NORON     Register = 0x13 // Normal display mode on
	INVOFF    Register = 0x20 // Display inversion off
	INVON     Register = 0x21 // Display inversion on
	DISPOFF   Register = 0x28 // Display off
	DISPON    Register = 0x29 // Display on
	CASET     Register = 0x2A // Column address set
	PASET     Register = 0x2B // Page address set
	RAMWR     Register = 0x2C // Memory write
	VSCRDEF   Register = 0x33 // Vertical scrolling definition
	MADCTL    Register = 0x36 // Memory access control
	VSCRSADD  Register = 0x37 // Vertical scrolling start address
	PIXFMT    Register = 0x3A // Interface pixel format
	FRMCTR1   Register = 0xB1 // Frame rate control (normal mode)
	ENTRYMODE Register = 0xB7 // Entry mode set
	PWCTR1    Register = 0xC0 // Power control 1
	PWCTR2    Register = 0xC1 // Power control 2
	VMCTR1    Register = 0xC5 // VCOM control 1
	VMCTR2    Register = 0xC7 // VCOM control 2
)

// Memory access control bits.
const (
	madctlMY  byte = 0x80 // Row address order
	madctlMX  byte = 0x40 // Column address order
	madctlMV  byte = 0x20 // Row/column exchange
	madctlBGR byte = 0x08 // Blue-green-red colour order
)

// madctl returns the memory access control byte for a rotation.
//
// The zero rotation flips the row order, which is how the panel is mounted on
// the reference board. Mirrored rotations additionally flip the column order.
func madctl(rot drivers.Rotation, rgb bool) (byte, bool) {
	var v byte
	switch rot % 4 {
	case drivers.Rotation0:
		v = madctlMY
	case drivers.Rotation90:
		v = madctlMV
	case drivers.Rotation180:
		v = madctlMX
	case drivers.Rotation270:
		v = madctlMX | madctlMY | madctlMV
	}
	if rot > drivers.Rotation270Mirror {
		return 0, false
	}
	if rot >= drivers.Rotation0Mirror {
		v ^= madctlMX
	}
	if !rgb {
		v |= madctlBGR
	}
	return v, true
}
