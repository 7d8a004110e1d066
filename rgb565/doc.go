// Package rgb565 provides the 16-bit colour and image formats used by the ILI9341 display controller.
//
// The ILI9341 in 16 bits per pixel mode packs every pixel into two bytes,
// 5 bits of red, 6 bits of green and 5 bits of blue, sent high byte first.
//
// Memory layout example for a 2-pixel row:
//
//	Pixels: 0                 1
//	Values: R=31 G=0  B=0     R=0 G=63 B=0
//	Color:  0xF800            0x07E0
//	Bytes:  0xF8 0x00         0x07 0xE0
//
// This package provides:
//
// - Color: A 5-6-5 packed colour implementing color.Color
// - Model: A color model converting standard Go colors to Color
// - Image: An image.Image implementation storing pixels in controller byte order
//
// Example usage:
//
//	// Create a 240x320 image
//	img := rgb565.NewImage(image.Rect(0, 0, 240, 320))
//
//	// Set a pixel to pure red
//	img.SetRGB565(10, 20, rgb565.Red)
//
//	// Get a pixel
//	c := img.RGB565At(10, 20)
//	println(c == rgb565.Red) // Output: true
//
//	// Use with standard Go image operations
//	draw.Draw(img, img.Bounds(), image.NewUniform(rgb565.White), image.Point{}, draw.Src)
package rgb565
