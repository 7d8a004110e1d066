// Package ili9341 controls an ILI9341 TFT LCD controller via SPI.
//
// The ILI9341 drives 240×320 panels at 16 bits per pixel (RGB 5-6-5). The
// controller has its own display memory, so the driver keeps no frame buffer:
// every drawing call programs an address window and streams pixels into it.
//
// This driver implements the display.Drawer interface from periph.io and the
// drivers.Displayer interface from TinyGo.
//
// # Display Characteristics
//
// - 16-bit colour, 65536 colours
// - 240×320 pixels, portrait (other sizes configurable)
// - Four orientations, set once at bring-up
// - Vertical hardware scrolling
// - Display inversion
//
// # Hardware Connection
//
// Connect the ILI9341 display to your system via SPI:
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V
//	SCK         → SPI Clock (SCLK)
//	SDI/MOSI    → SPI Data (MOSI)
//	DC/RS       → GPIO (any available pin)
//	CS          → SPI Chip Select, GPIO, or GND if always selected
//	RESET       → Optional: GPIO for hardware reset
//	LED         → 3.3V (backlight)
//
// # Basic Usage
//
//	package main
//
//	import (
//		"github.com/flavioheleno/ili9341"
//		"github.com/flavioheleno/ili9341/rgb565"
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		host.Init()
//
//		spiBus, _ := spireg.Open("")
//		dcPin := gpioreg.ByName("GPIO25")
//
//		dev, _ := ili9341.NewSPI(spiBus, dcPin, nil)
//		defer dev.Halt()
//
//		dev.FillScreen(rgb565.Black)
//		dev.FillRect(10, 10, 100, 50, rgb565.Red)
//		dev.DrawCircle(120, 160, 40, rgb565.Yellow)
//
//		dev.SetCursor(10, 200)
//		dev.SetTextSize(2)
//		dev.SetTextColor(rgb565.White, rgb565.Black)
//		dev.WriteString("Hello")
//
//		if err := dev.Err(); err != nil {
//			// The bus failed at some point
//		}
//	}
//
// # Error Handling
//
// Drawing primitives return nothing. The first transfer or GPIO error is kept
// by the device, every later transfer is dropped, and Err reports it. Draw,
// Display and the register helpers (Invert, SetScroll, ...) return it too.
//
// # Chip Select and Reset
//
// When the SPI port drives chip select, leave Opts.CS nil. Otherwise pass the
// GPIO and the driver brackets every command and pixel stream with it.
//
// When Opts.RST is set the bring-up starts with a hardware reset (low 10ms,
// then high and a 120ms wait). The software reset is always issued.
//
//	dev, _ := ili9341.NewSPI(spiBus, dcPin, &ili9341.Opts{
//		CS:  gpioreg.ByName("GPIO8"),
//		RST: gpioreg.ByName("GPIO24"),
//	})
//
// # Colours
//
// Colours are rgb565.Color values in controller layout. Standard Go colours
// convert through rgb565.Model, and rgb565.Image holds pixels in wire order so
// Draw can stream it without conversion:
//
//	img := rgb565.NewImage(dev.Bounds())
//	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{0, 128, 255, 255}}, image.Point{}, draw.Src)
//	dev.Draw(dev.Bounds(), img, image.Point{})
//
// # Text
//
// A built-in 5×7 font covers printable ASCII. Each character takes a 6×8 cell
// scaled by the text size (1 to 8). The device implements io.Writer:
//
//	fmt.Fprintf(dev, "T=%d\n", 21)
//
// Since it is a drivers.Displayer, TinyGo's tinyfont can render on it as well.
//
// # TinyGo
//
// On microcontrollers wrap the machine SPI bus with FromTinyGo and pass it to
// New with a DC pin adapter.
//
// # Datasheet
//
// https://cdn-shop.adafruit.com/datasheets/ILI9341.pdf
package ili9341
