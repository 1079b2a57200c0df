package panel

import (
	"image"

	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/retroplayer/frontpanel/internal/region"
	"github.com/retroplayer/frontpanel/internal/render"
	"github.com/retroplayer/frontpanel/internal/render/layout"
)

const pairingCaption = "Pairing"

// drawPairing puts the code in a square on the left of rect and the
// caption centred in what is left.
func drawPairing(s *render.Surface, rect image.Rectangle, qr *image1bit.VerticalLSB) {
	square := layout.FitSquare(rect)
	if qr != nil {
		region.DrawImageCentered(s, square, qr)
	}
	_, rest := layout.SplitVertical(rect, square.Dx())
	s.DrawTextClipped(rest, pairingCaption, 0)
}
