package render

import "image/color"

// Colours used when a 1-bit frame is shown on a colour device (fbdev,
// terminal). Lit pixels use Foreground, dark pixels Background.
var (
	Foreground = color.RGBA{R: 0xF2, G: 0xF2, B: 0xF2, A: 0xFF}
	Background = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xFF}

	// Panel geometry used when the configuration does not override it.
	DefaultWidth  = 128
	DefaultHeight = 64
)
